package webui

import (
	"BikeRentalDashboard/src/charts"
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/processor"
	"BikeRentalDashboard/src/utils"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

//go:embed templates/index.html
var templates embed.FS

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type tile struct {
	Label string
	Value string
}

type chartRef struct {
	Title string
	URL   string
}

type section struct {
	Title  string
	Charts []chartRef
}

type pageData struct {
	Branding config.Branding
	Source   string
	Days     int
	LoadedAt string
	Tiles    []tile
	Sections []section
}

// 页面分区及其图表，按展示顺序
var layout = []struct {
	title  string
	charts []string
}{
	{"Weekday vs Weekend Analysis", []string{"daytype-share", "daytype-riders"}},
	{"Daily Rental Patterns", []string{"weekday-share", "weekday-riders"}},
	{"Percentage Total Rental in Any Seasons", []string{"season-share"}},
	{"Correlation Temperature and Total Rental", []string{"temperature"}},
}

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("解析页面模板失败: %w", err)
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

func buildPage(branding config.Branding, snap *processor.Snapshot) pageData {
	h := snap.Report.Headline
	data := pageData{
		Branding: branding,
		Source:   snap.Dataset.Source(),
		Days:     h.Days,
		LoadedAt: snap.Dataset.LoadedAt().Format("2006-01-02 15:04:05"),
		Tiles: []tile{
			{"Total Rentals", utils.FormatCount(h.Total)},
			{"Average Daily Rentals", utils.FormatMean(h.Mean)},
			{"Peak Daily Rentals", utils.FormatCount(h.Peak)},
		},
	}

	// 加载时间作为版本号，重新加载后浏览器不会用旧图
	version := snap.Dataset.LoadedAt().UnixNano()
	for _, l := range layout {
		sec := section{Title: l.title}
		for _, name := range l.charts {
			def, ok := charts.Lookup(name)
			if !ok {
				continue
			}
			sec.Charts = append(sec.Charts, chartRef{
				Title: def.Title,
				URL:   fmt.Sprintf("/charts/%s.png?v=%d", name, version),
			})
		}
		data.Sections = append(data.Sections, sec)
	}
	return data
}

// current 取当前快照，尚未加载时返回 503
func (s *Server) current(w http.ResponseWriter, r *http.Request) *processor.Snapshot {
	snap := s.snaps.Get()
	if snap == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.PlainText(w, r, "数据尚未加载")
		return nil
	}
	return snap
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w, r)
	if snap == nil {
		return
	}

	var buf bytes.Buffer
	if err := s.page.tmpl.Execute(&buf, buildPage(s.cfg.Branding, snap)); err != nil {
		s.logger.Error("渲染页面失败: " + err.Error())
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, http.StatusText(http.StatusInternalServerError))
		return
	}
	render.HTML(w, r, buf.String())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := charts.Lookup(name); !ok {
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, fmt.Sprintf("unknown chart %q", name))
		return
	}

	snap := s.current(w, r)
	if snap == nil {
		return
	}

	var buf bytes.Buffer
	err := charts.Render(name, snap, &buf)
	switch {
	case errors.Is(err, charts.ErrNoData):
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, err.Error())
		return
	case err != nil:
		s.logger.Error(fmt.Sprintf("渲染图表 %s 失败: %v", name, err))
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeBytes(w, "image/png", buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w, r)
	if snap == nil {
		return
	}

	var buf bytes.Buffer
	if err := utils.WriteWorkbook(&buf, summarySheets(snap.Report)...); err != nil {
		s.logger.Error("导出xlsx失败: " + err.Error())
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="bike-rental-summary.xlsx"`)
	writeBytes(w, xlsxContentType, buf.Bytes())
}

// writeBytes 按指定类型输出二进制内容
// render.Data 会把 Content-Type 覆盖成 application/octet-stream，这里直接写
func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// summarySheets 导出的四个工作表
func summarySheets(rep *processor.Report) []utils.Sheet {
	h := rep.Headline
	metrics := utils.Sheet{
		Name:   "Metrics",
		Header: []string{"Metric", "Value"},
		Rows: [][]interface{}{
			{"Days", h.Days},
			{"Total Rentals", h.Total},
			{"Average Daily Rentals", h.Mean},
			{"Peak Daily Rentals", h.Peak},
			{"Temperature Correlation", charts.CorrelationLabel(rep.Correlation)},
		},
	}

	dayType := utils.Sheet{
		Name:   "DayType",
		Header: []string{"Day Type", "Days", "Total", "Casual", "Registered"},
	}
	for _, b := range rep.DayType {
		dayType.Rows = append(dayType.Rows, []interface{}{b.Label, b.Days, b.Count, b.Casual, b.Registered})
	}

	weekday := utils.Sheet{
		Name:   "Weekday",
		Header: []string{"Weekday", "Days", "Mean Total", "Mean Casual", "Mean Registered"},
	}
	for _, b := range rep.Weekday {
		weekday.Rows = append(weekday.Rows, []interface{}{b.Label, b.Days, b.MeanCount, b.MeanCasual, b.MeanRegistered})
	}

	season := utils.Sheet{
		Name:   "Season",
		Header: []string{"Season", "Days", "Total"},
	}
	for _, b := range rep.Season {
		season.Rows = append(season.Rows, []interface{}{b.Label, b.Days, b.Count})
	}

	return []utils.Sheet{metrics, dayType, weekday, season}
}

// handleLogs 以分块文本持续输出日志，客户端断开后退出
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Transfer-Encoding", "chunked")

	logChan := s.logger.Subscribe()
	defer s.logger.Unsubscribe(logChan)

	flusher, _ := w.(http.Flusher)
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}
