package charts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func expense(date, category string, amount int64) core.Expense {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Expense{Date: d, Description: category, Amount: decimal.NewFromInt(amount), Category: category}
}

func TestCategoryChartPercentages(t *testing.T) {
	c := NewCategoryChart([]core.Expense{
		expense("2024-01-01", "A", 10),
		expense("2024-01-02", "B", 70),
		expense("2024-01-03", "A", 20),
	})

	require.Len(t, c.Slices, 2)
	assert.Equal(t, "A", c.Slices[0].Label, "first-seen order")
	assert.True(t, c.Slices[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, c.Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "A: $30.00 (30.0%)", c.Slices[0].Tooltip(Dollar))
	assert.Equal(t, "B: $70.00 (70.0%)", c.Slices[1].Tooltip(Dollar))
	assert.Equal(t, Palette[0], c.Slices[0].Color)
	assert.Equal(t, Palette[1], c.Slices[1].Color)
}

func TestPercentOfZeroTotal(t *testing.T) {
	assert.True(t, Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
}

func TestMonthlyChartSortsKeys(t *testing.T) {
	c := NewMonthlyChart([]core.Expense{
		expense("2024-03-02", "x", 20),
		expense("2023-12-31", "x", 5),
		expense("2024-01-15", "x", 10),
	})

	require.Len(t, c.Points, 3)
	var months []string
	for _, p := range c.Points {
		months = append(months, p.Month)
	}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-03"}, months)
	assert.True(t, c.Points[1].Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, c.Points[2].Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "2024-03: $20.00", c.Points[2].Tooltip(Dollar))
}

func TestColorsExtendPastPalette(t *testing.T) {
	colors := Colors(len(Palette) + 5)
	assert.Equal(t, Palette, colors[:len(Palette)])
	assert.Equal(t, colors, Colors(len(Palette)+5), "deterministic")

	seen := map[RGB]bool{}
	for _, c := range colors {
		assert.False(t, seen[c], "duplicate color %s", c.Hex())
		seen[c] = true
	}
}

func TestHSLToRGB(t *testing.T) {
	assert.Equal(t, RGB{255, 0, 0}, hslToRGB(0, 1, 0.5))
	assert.Equal(t, RGB{0, 255, 0}, hslToRGB(120, 1, 0.5))
	assert.Equal(t, RGB{0, 0, 255}, hslToRGB(240, 1, 0.5))
	assert.Equal(t, "#FF6384", Palette[0].Hex())
}

func TestCurrencyFormat(t *testing.T) {
	assert.Equal(t, "$1,234.50", Dollar.Format(1234.5))
	assert.Equal(t, "$0.00", Dollar.Format(0))
	assert.Equal(t, "-$12.00", Dollar.Format(-12))
	assert.Equal(t, "€3.10", Currency("€").FormatDecimal(decimal.RequireFromString("3.1")))
}

func TestRegistryKeepsOneInstancePerCanvas(t *testing.T) {
	r := NewRegistry()
	first, err := r.Bind("c", func() (*Instance, error) { return &Instance{Canvas: "c"}, nil })
	require.NoError(t, err)
	second, err := r.Bind("c", func() (*Instance, error) { return &Instance{Canvas: "c"}, nil })
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	assert.True(t, first.Destroyed())
	assert.False(t, second.Destroyed())
	got, ok := r.Get("c")
	require.True(t, ok)
	assert.Same(t, second, got)

	require.NoError(t, r.Clear("c"))
	assert.True(t, second.Destroyed())
	assert.Zero(t, r.Len())
	require.NoError(t, r.Clear("c"))
}

func TestRendererRerenderReplacesChart(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, nil, Dollar, nil)
	ctx := context.Background()
	exps := []core.Expense{
		expense("2024-01-15", "A", 10),
		expense("2024-03-02", "B", 20),
	}

	require.NoError(t, r.RenderAll(ctx, exps))
	first, ok := r.Registry.Get(CanvasCategory)
	require.True(t, ok)

	require.NoError(t, r.RenderAll(ctx, exps))
	second, ok := r.Registry.Get(CanvasCategory)
	require.True(t, ok)

	assert.NotSame(t, first, second)
	assert.True(t, first.Destroyed())
	assert.Equal(t, 2, r.Registry.Len())

	for _, canvas := range []string{CanvasCategory, CanvasMonthly} {
		data, err := os.ReadFile(filepath.Join(dir, canvas+".svg"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no stray temp files")

	require.NoError(t, r.Hide())
	assert.Zero(t, r.Registry.Len())
	_, err = os.Stat(filepath.Join(dir, CanvasCategory+".svg"))
	assert.True(t, os.IsNotExist(err))
}

func TestDrawSingleMonth(t *testing.T) {
	var buf bytes.Buffer
	err := DrawMonthly(&buf, NewMonthlyChart([]core.Expense{expense("2024-01-15", "A", 10)}), Dollar)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "2024-01"))
}

func TestDrawNothing(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, DrawMonthly(&buf, MonthlyChart{}, Dollar), ErrNothingToDraw)
	assert.ErrorIs(t, DrawCategory(&buf, CategoryChart{}, Dollar), ErrNothingToDraw)
}

func TestRenderAllSingleMonthDrawsBoth(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil, Dollar, nil)
	exps := []core.Expense{
		expense("2024-01-05", "A", 10),
		expense("2024-01-20", "B", 20),
	}

	require.NoError(t, r.RenderAll(context.Background(), exps))
	assert.Equal(t, 2, r.Registry.Len())
	inst, ok := r.Instance(CanvasMonthly)
	require.True(t, ok)
	assert.Equal(t, []string{"2024-01: $30.00"}, inst.Tooltips)
}

func TestNonPositiveSlicesAreLeftOut(t *testing.T) {
	c := NewCategoryChart([]core.Expense{
		expense("2024-01-01", "A", 10),
		expense("2024-01-02", "B", 0),
		expense("2024-01-03", "C", -5),
	})
	drawn := c.Drawable()
	require.Len(t, drawn, 1)
	assert.Equal(t, "A", drawn[0].Label)

	r := NewRenderer(t.TempDir(), nil, Dollar, nil)
	inst, err := r.RenderCategory(context.Background(), CanvasCategory, c)
	require.NoError(t, err)
	assert.Len(t, inst.Tooltips, 1)
	assert.True(t, strings.HasPrefix(inst.Tooltips[0], "A: $10.00"))
}

func TestFailedPieLeavesMonthlyChart(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil, Dollar, nil)
	exps := []core.Expense{
		expense("2024-01-05", "A", 0),
		expense("2024-02-05", "B", -3),
	}

	err := r.RenderAll(context.Background(), exps)
	require.ErrorIs(t, err, ErrNothingToDraw)

	_, ok := r.Instance(CanvasCategory)
	assert.False(t, ok)
	_, ok = r.Instance(CanvasMonthly)
	assert.True(t, ok)
}

func TestFailedPieClearsPreviousOne(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil, Dollar, nil)
	ctx := context.Background()
	require.NoError(t, r.RenderAll(ctx, []core.Expense{expense("2024-01-05", "A", 10)}))
	old, ok := r.Instance(CanvasCategory)
	require.True(t, ok)

	require.Error(t, r.RenderAll(ctx, []core.Expense{expense("2024-01-05", "A", 0)}))
	assert.True(t, old.Destroyed())
	_, ok = r.Instance(CanvasCategory)
	assert.False(t, ok)
}

// Run with -race: renderers share the parsed font.
func TestConcurrentRenderers(t *testing.T) {
	exps := []core.Expense{
		expense("2024-01-15", "A", 10),
		expense("2024-03-02", "B", 20),
	}
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		r := NewRenderer(t.TempDir(), nil, Dollar, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.RenderAll(context.Background(), exps)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
