// Package charts 将统计结果渲染为 PNG 图表
package charts

import (
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/processor"
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	ErrUnknownChart = errors.New("unknown chart")
	ErrNoData       = errors.New("no data to chart")
)

const (
	Width  = 1000
	Height = 600
)

// 颜色
var (
	ColorCasual     = drawing.ColorFromHex("90CAF9")
	ColorRegistered = drawing.ColorFromHex("D3D3D3")

	// Pastel seaborn 的 pastel 调色板
	Pastel = []drawing.Color{
		drawing.ColorFromHex("A1C9F4"),
		drawing.ColorFromHex("FFB482"),
		drawing.ColorFromHex("8DE5A1"),
		drawing.ColorFromHex("FF9F9B"),
		drawing.ColorFromHex("D0BBFF"),
		drawing.ColorFromHex("DEBB9B"),
		drawing.ColorFromHex("FAB0E4"),
	}
)

// Definition 一个图表：名称、标题和渲染函数
type Definition struct {
	Name   string
	Title  string
	render func(title string, snap *processor.Snapshot, w io.Writer) error
}

// 页面上的图表，按展示顺序
var definitions = []Definition{
	{Name: "daytype-share", Title: "Proportion of Bike Rentals between Weekdays and Weekends", render: dayTypeShare},
	{Name: "daytype-riders", Title: "Comparison of Bike Rentals (Casual & Registered, in thousands)", render: dayTypeRiders},
	{Name: "weekday-share", Title: "Proportion of Average Bike Rentals in a Week", render: weekdayShare},
	{Name: "weekday-riders", Title: "Average Bike Rentals by Day of Week", render: weekdayRiders},
	{Name: "season-share", Title: "Distribution of Bike Rentals by Season", render: seasonShare},
	{Name: "temperature", Title: "Temperature vs Rental Count", render: temperatureScatter},
}

// Definitions 返回全部图表定义
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

func Lookup(name string) (Definition, bool) {
	for _, d := range definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Render 将图表 name 以 PNG 写入 w
func Render(name string, snap *processor.Snapshot, w io.Writer) error {
	def, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	if snap == nil || snap.Report == nil {
		return ErrNoData
	}
	return def.render(def.Title, snap, w)
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}}
}

// pie 百分比写在标签里，值为0的扇区不画
func pie(title string, labels []string, values []float64, colors []drawing.Color, w io.Writer) error {
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return ErrNoData
	}

	slices := make([]chart.Value, 0, len(values))
	for i, v := range values {
		if v <= 0 {
			continue
		}
		c := colors[i%len(colors)]
		slices = append(slices, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", labels[i], v/total*100),
			Value: v,
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorWhite, StrokeWidth: 2},
		})
	}

	pc := chart.PieChart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		Values:     slices,
	}
	return pc.Render(chart.PNG, w)
}

// stackedRiders casual 在下，registered 在上，两者之和即总量
func stackedRiders(title string, labels []string, casual, registered []float64, barWidth, spacing int, w io.Writer) error {
	total := 0.0
	bars := make([]chart.StackedBar, len(labels))
	for i, label := range labels {
		total += casual[i] + registered[i]
		bars[i] = chart.StackedBar{
			Name:  label,
			Width: barWidth,
			Values: []chart.Value{
				{Label: "Casual", Value: casual[i], Style: chart.Style{FillColor: ColorCasual, StrokeColor: ColorCasual}},
				{Label: "Registered", Value: registered[i], Style: chart.Style{FillColor: ColorRegistered, StrokeColor: ColorRegistered}},
			},
		}
	}
	if total <= 0 {
		return ErrNoData
	}

	sbc := chart.StackedBarChart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		BarSpacing: spacing,
		Bars:       bars,
		Elements: []chart.Renderable{
			legend(legendEntry{"Casual", ColorCasual}, legendEntry{"Registered", ColorRegistered}),
		},
	}
	return sbc.Render(chart.PNG, w)
}

type legendEntry struct {
	label string
	color drawing.Color
}

// legend 右上角的图例
func legend(entries ...legendEntry) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		text := chart.Style{FontColor: drawing.ColorBlack, FontSize: 10}.InheritFrom(defaults)
		x := box.Right - 120
		y := box.Top + 10
		for _, e := range entries {
			chart.Draw.Box(r, chart.Box{Top: y, Left: x, Right: x + 14, Bottom: y + 14},
				chart.Style{FillColor: e.color, StrokeColor: e.color, StrokeWidth: 1})
			chart.Draw.Text(r, e.label, x+20, y+12, text)
			y += 20
		}
	}
}

func dayTypeShare(title string, snap *processor.Snapshot, w io.Writer) error {
	var labels []string
	var values []float64
	for _, b := range snap.Report.DayType {
		labels = append(labels, b.Label)
		values = append(values, float64(b.Count))
	}
	return pie(title, labels, values, []drawing.Color{ColorCasual, ColorRegistered}, w)
}

// dayTypeRiders 单位为千次
func dayTypeRiders(title string, snap *processor.Snapshot, w io.Writer) error {
	var labels []string
	var casual, registered []float64
	for _, b := range snap.Report.DayType {
		labels = append(labels, b.Label)
		casual = append(casual, float64(b.Casual)/1000)
		registered = append(registered, float64(b.Registered)/1000)
	}
	return stackedRiders(title, labels, casual, registered, 150, 200, w)
}

func weekdayShare(title string, snap *processor.Snapshot, w io.Writer) error {
	var labels []string
	var values []float64
	for _, b := range snap.Report.Weekday {
		labels = append(labels, b.Label)
		values = append(values, b.MeanCount)
	}
	return pie(title, labels, values, Pastel, w)
}

func weekdayRiders(title string, snap *processor.Snapshot, w io.Writer) error {
	var labels []string
	var casual, registered []float64
	for _, b := range snap.Report.Weekday {
		labels = append(labels, b.Label)
		casual = append(casual, b.MeanCasual)
		registered = append(registered, b.MeanRegistered)
	}
	return stackedRiders(title, labels, casual, registered, 80, 40, w)
}

func seasonShare(title string, snap *processor.Snapshot, w io.Writer) error {
	var labels []string
	var values []float64
	for _, b := range snap.Report.Season {
		labels = append(labels, b.Label)
		values = append(values, float64(b.Count))
	}
	return pie(title, labels, values, Pastel, w)
}

// temperatureScatter 散点图，左上角标注相关系数
func temperatureScatter(title string, snap *processor.Snapshot, w io.Writer) error {
	temps := snap.Dataset.Column(config.ColTemp)
	counts := snap.Dataset.Column(config.ColCount)
	if len(temps) == 0 {
		return ErrNoData
	}

	xr := paddedRange(temps)
	yr := paddedRange(counts)

	graph := chart.Chart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		XAxis: chart.XAxis{
			Name:  "Temperature (°C)",
			Range: xr,
		},
		YAxis: chart.YAxis{
			Name:           "Total Rental Count",
			Range:          yr,
			ValueFormatter: chart.IntValueFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Days",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    3,
					DotColor:    ColorCasual.WithAlpha(128),
				},
				XValues: temps,
				YValues: counts,
			},
			chart.AnnotationSeries{
				Annotations: []chart.Value2{{
					XValue: xr.Min,
					YValue: yr.Max,
					Label:  CorrelationLabel(snap.Report.Correlation),
				}},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// CorrelationLabel 例如 "Correlation: 0.63"
func CorrelationLabel(c processor.Correlation) string {
	if !c.Defined {
		return "Correlation: n/a"
	}
	return fmt.Sprintf("Correlation: %.2f", c.R)
}

// paddedRange 上下各留5%，所有值相同时按 ±1 处理
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
