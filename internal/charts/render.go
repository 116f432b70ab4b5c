package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	applog "budget/internal/log"
)

var ErrNothingToDraw = errors.New("no positive amounts to draw")

var (
	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
)

// defaultFont parses the bundled font once per process. go-chart's own lazy
// load is not safe for concurrent first use.
func defaultFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		font, fontErr = chart.GetDefaultFont()
	})
	return font, fontErr
}

// Renderer draws charts as SVG files named after their canvas.
type Renderer struct {
	Dir      string
	Registry *Registry
	Currency Currency
	Logger   *applog.Logger
}

func NewRenderer(dir string, registry *Registry, cur Currency, logger *applog.Logger) *Renderer {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Renderer{
		Dir:      dir,
		Registry: registry,
		Currency: cur,
		Logger:   logger.WithComponent(applog.ComponentCharts),
	}
}

// RenderAll draws both dashboard charts concurrently. A canvas whose draw
// fails is left empty; the other canvas is unaffected. The returned error
// joins the failures of both.
func (r *Renderer) RenderAll(ctx context.Context, expenses []core.Expense) error {
	if _, err := defaultFont(); err != nil {
		return fmt.Errorf("load chart font: %w", err)
	}

	var g errgroup.Group
	errs := make([]error, 2)
	g.Go(func() error {
		_, errs[0] = r.RenderCategory(ctx, CanvasCategory, NewCategoryChart(expenses))
		return nil
	})
	g.Go(func() error {
		_, errs[1] = r.RenderMonthly(ctx, CanvasMonthly, NewMonthlyChart(expenses))
		return nil
	})
	_ = g.Wait()
	return errors.Join(errs...)
}

// Hide removes every chart from its canvas.
func (r *Renderer) Hide() error {
	return errors.Join(r.Registry.Clear(CanvasCategory), r.Registry.Clear(CanvasMonthly))
}

func (r *Renderer) RenderCategory(ctx context.Context, canvas string, c CategoryChart) (*Instance, error) {
	drawn := c.Drawable()
	tooltips := make([]string, len(drawn))
	for i, s := range drawn {
		tooltips[i] = s.Tooltip(r.Currency)
	}
	return r.bind(ctx, canvas, "pie", tooltips, func(w io.Writer) error {
		return DrawCategory(w, c, r.Currency)
	})
}

func (r *Renderer) RenderMonthly(ctx context.Context, canvas string, c MonthlyChart) (*Instance, error) {
	tooltips := make([]string, len(c.Points))
	for i, p := range c.Points {
		tooltips[i] = p.Tooltip(r.Currency)
	}
	return r.bind(ctx, canvas, "line", tooltips, func(w io.Writer) error {
		return DrawMonthly(w, c, r.Currency)
	})
}

func (r *Renderer) bind(ctx context.Context, canvas, kind string, tooltips []string, draw func(io.Writer) error) (*Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(err, r.Registry.Clear(canvas))
	}
	path := filepath.Join(r.Dir, canvas+".svg")

	inst, err := r.Registry.Bind(canvas, func() (*Instance, error) {
		var buf bytes.Buffer
		if err := draw(&buf); err != nil {
			return nil, fmt.Errorf("draw %s: %w", canvas, err)
		}
		if err := writeFileAtomic(path, buf.Bytes()); err != nil {
			return nil, err
		}
		remove := func() error {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		}
		return &Instance{
			Canvas:    canvas,
			Kind:      kind,
			Path:      path,
			Tooltips:  tooltips,
			Rendered:  time.Now(),
			onDestroy: remove,
		}, nil
	})
	if err != nil {
		r.Logger.WarnContext(ctx, "Chart render failed", applog.FieldCanvas, canvas, applog.FieldError, err)
		return nil, err
	}

	r.Logger.DebugContext(ctx, "Chart rendered", applog.FieldCanvas, canvas, "path", path)
	return inst, nil
}

// DrawCategory writes the category breakdown as a pie chart. Slice labels
// carry the tooltip text since SVG output has no hover.
func DrawCategory(w io.Writer, c CategoryChart, cur Currency) error {
	f, err := defaultFont()
	if err != nil {
		return err
	}
	slices := c.Drawable()
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		v, _ := s.Amount.Float64()
		values = append(values, chart.Value{
			Value: v,
			Label: s.Tooltip(cur),
			Style: chart.Style{
				FillColor:   s.Color.drawing(255),
				StrokeColor: RGB{0xFF, 0xFF, 0xFF}.drawing(255),
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		return ErrNothingToDraw
	}

	pie := chart.PieChart{
		Title:  "Spending by category",
		Width:  640,
		Height: 640,
		Font:   f,
		Values: values,
	}
	return pie.Render(chart.SVG, w)
}

// DrawMonthly writes the monthly trend as a filled line chart. A single
// month is drawn as a dot.
func DrawMonthly(w io.Writer, c MonthlyChart, cur Currency) error {
	n := len(c.Points)
	if n == 0 {
		return ErrNothingToDraw
	}
	f, err := defaultFont()
	if err != nil {
		return err
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	// go-chart takes the x range from the ticks, so blank ticks pad half a
	// month on each side. Without them one month has a zero-width range.
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	minY, maxY := 0.0, 0.0
	for i, p := range c.Points {
		v, _ := p.Amount.Float64()
		xs[i], ys[i] = float64(i), v
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: p.Month})
		minY, maxY = min(minY, v), max(maxY, v)
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})
	if maxY <= 0 {
		maxY = 1
	}

	line := Palette[1]
	style := chart.Style{
		StrokeColor: line.drawing(255),
		StrokeWidth: 2,
		DotColor:    line.drawing(255),
		DotWidth:    6,
	}
	if n > 1 {
		style.FillColor = line.drawing(64)
		style.DotWidth = 4
	}

	graph := chart.Chart{
		Title:  "Monthly spending",
		Width:  800,
		Height: 400,
		Font:   f,
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: minY * 1.1, Max: maxY * 1.1},
			ValueFormatter: func(v interface{}) string {
				if fv, ok := v.(float64); ok {
					return cur.Format(fv)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Monthly total",
				XValues: xs,
				YValues: ys,
				Style:   style,
			},
		},
	}
	return graph.Render(chart.SVG, w)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chart-*.svg")
	if err != nil {
		return fmt.Errorf("create temp chart: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write chart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close chart: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish chart: %w", err)
	}
	return nil
}

// Instance returns the chart currently on canvas.
func (r *Renderer) Instance(canvas string) (*Instance, bool) {
	return r.Registry.Get(canvas)
}
