// Package report renders a computed radial profile for people to look at:
// an interactive ECharts page and a static PNG plot.
package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gemstone08/circle/internal/polar"
)

var (
	profileColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	referenceColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func subtitle(stats *polar.Statistics, score int) string {
	return fmt.Sprintf("R_ref=%.1f sigma=%.2f sigma_rel=%.4f mae=%.2f max_abs=%.2f score=%d",
		stats.RRef, stats.Sigma, stats.SigmaRel, stats.MAE, stats.MaxAbs, score)
}

// RenderHTML writes a page with the profile against angle and the traced
// shape against the reference circle.
func RenderHTML(w io.Writer, stats *polar.Statistics, score int) error {
	if len(stats.Profile) != len(stats.ThetaBins) {
		return fmt.Errorf("profile has %d bins but %d angles", len(stats.Profile), len(stats.ThetaBins))
	}

	labels := make([]string, len(stats.ThetaBins))
	rho := make([]opts.LineData, len(stats.Profile))
	ref := make([]opts.LineData, len(stats.Profile))
	shape := make([]opts.ScatterData, len(stats.Profile))
	circle := make([]opts.ScatterData, len(stats.Profile))
	maxR := stats.RRef
	for i, th := range stats.ThetaBins {
		r := stats.Profile[i]
		labels[i] = fmt.Sprintf("%.1f", degrees(th))
		rho[i] = opts.LineData{Value: r}
		ref[i] = opts.LineData{Value: stats.RRef}
		shape[i] = opts.ScatterData{Value: []interface{}{r * math.Cos(th), r * math.Sin(th)}}
		circle[i] = opts.ScatterData{Value: []interface{}{stats.RRef * math.Cos(th), stats.RRef * math.Sin(th)}}
		maxR = math.Max(maxR, r)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Circle trace", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Radial profile", Subtitle: subtitle(stats, score)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "angle (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "radius (px)", Scale: opts.Bool(true)}),
	)
	line.SetXAxis(labels).
		AddSeries("rho", rho, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("R_ref", ref, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	pad := maxR * 1.05
	if pad == 0 {
		pad = 1
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "640px", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: "Traced shape"}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "x (px)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "y (px)"}),
	)
	scatter.AddSeries("profile", shape, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3})).
		AddSeries("reference", circle, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 1}))

	page := components.NewPage()
	page.PageTitle = "Circle trace"
	page.AddCharts(line, scatter)
	return page.Render(w)
}

// RenderPNG writes a width x height PNG of the profile against angle.
func RenderPNG(w io.Writer, stats *polar.Statistics, score int, width, height vg.Length) error {
	if len(stats.Profile) != len(stats.ThetaBins) {
		return fmt.Errorf("profile has %d bins but %d angles", len(stats.Profile), len(stats.ThetaBins))
	}

	p := plot.New()
	p.Title.Text = "Radial profile\n" + subtitle(stats, score)
	p.X.Label.Text = "Angle (deg)"
	p.Y.Label.Text = "Radius (px)"
	p.X.Min = 0
	p.X.Max = 360

	profilePts := make(plotter.XYs, len(stats.Profile))
	for i, th := range stats.ThetaBins {
		profilePts[i] = plotter.XY{X: degrees(th), Y: stats.Profile[i]}
	}
	profileLine, err := plotter.NewLine(profilePts)
	if err != nil {
		return err
	}
	profileLine.Color = profileColor
	profileLine.Width = vg.Points(1)

	refLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: stats.RRef}, {X: 360, Y: stats.RRef}})
	if err != nil {
		return err
	}
	refLine.Color = referenceColor
	refLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(plotter.NewGrid(), refLine, profileLine)
	p.Legend.Add("rho", profileLine)
	p.Legend.Add("R_ref", refLine)
	p.Legend.Top = true

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
