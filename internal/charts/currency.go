package charts

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency formats amounts with a symbol and thousands separators.
type Currency string

const Dollar Currency = "$"

func (c Currency) Format(v float64) string {
	s := humanize.FormatFloat("#,###.##", v)
	if strings.HasPrefix(s, "-") {
		return "-" + string(c) + s[1:]
	}
	return string(c) + s
}

func (c Currency) FormatDecimal(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return c.Format(f)
}
