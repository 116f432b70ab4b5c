package charts

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// goldenAngle spreads generated hues so neighbours stay distinguishable.
const goldenAngle = 137.508

type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) drawing(alpha uint8) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Palette is used first; colors past its end are generated.
var Palette = []RGB{
	{0xFF, 0x63, 0x84},
	{0x36, 0xA2, 0xEB},
	{0xFF, 0xCE, 0x56},
	{0x4B, 0xC0, 0xC0},
	{0x99, 0x66, 0xFF},
	{0xFF, 0x9F, 0x40},
	{0xC9, 0xCB, 0xCF},
	{0x8B, 0xC3, 0x4A},
}

// Colors returns n colors; the same n always yields the same colors.
func Colors(n int) []RGB {
	out := make([]RGB, n)
	for i := range out {
		out[i] = ColorAt(i)
	}
	return out
}

func ColorAt(i int) RGB {
	if i < len(Palette) {
		return Palette[i]
	}
	hue := math.Mod(float64(i)*goldenAngle, 360)
	return hslToRGB(hue, 0.65, 0.55)
}

func hslToRGB(h, s, l float64) RGB {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return RGB{R: to8(r), G: to8(g), B: to8(b)}
}
