package file

import (
	"BikeRentalDashboard/src/config"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const dayCSV = `instant,dteday,season,yr,mnth,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,6,0,2,0.344167,0.363625,0.805833,0.160446,331,654,985
2,2011-01-02,1,0,1,0,0,0,2,0.363478,0.353739,0.696087,0.248539,131,670,801
3,2011-01-03,1,0,1,0,1,1,1,0.196364,0.189405,0.437273,0.248309,120,1229,1349
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "day.csv", dayCSV)

	df, err := ReadDataFrame(path, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, series.Int, df.Col(config.ColCount).Type())
	assert.Equal(t, series.Float, df.Col(config.ColTemp).Type())
	assert.Equal(t, series.String, df.Col(config.ColDate).Type())
	assert.Equal(t, []int{985, 801, 1349}, mustInts(t, df.Col(config.ColCount)))
}

func TestReadCSVRenamesColumns(t *testing.T) {
	path := writeFile(t, "day.csv", `dteday,season,weekday,workingday,temperature,casual,registered,total
2011-01-01,1,6,0,0.34,331,654,985
`)

	dcfg := config.DefaultDataConfig()
	dcfg.SetColumn(config.ColTemp, "temperature")
	dcfg.SetColumn(config.ColCount, "total")

	df, err := ReadDataFrame(path, "", dcfg)
	require.NoError(t, err)

	assert.Contains(t, df.Names(), config.ColTemp)
	assert.Contains(t, df.Names(), config.ColCount)
	assert.NotContains(t, df.Names(), "total")
	assert.Equal(t, series.Int, df.Col(config.ColCount).Type())
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "day"))
	rows := [][]interface{}{
		{"dteday", "season", "weekday", "workingday", "temp", "casual", "registered", "cnt"},
		{"2011-01-01", 1, 6, 0, 0.25, 331, 654, 985},
		{"2011-01-03", 1, 1, 1, 0.5, 120, 1229, 1349},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("day", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := ReadDataFrame(path, "day", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []int{985, 1349}, mustInts(t, df.Col(config.ColCount)))
	assert.InDeltaSlice(t, []float64{0.25, 0.5}, df.Col(config.ColTemp).Float(), 1e-9)

	// 工作表名不存在时读取第一个工作表
	df, err = ReadDataFrame(path, "missing", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
}

func TestReadDataFrameErrors(t *testing.T) {
	_, err := ReadDataFrame(filepath.Join(t.TempDir(), "nope.csv"), "", nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadDataFrame(writeFile(t, "day.json", "{}"), "", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadDataFrame(writeFile(t, "day.xlsx", "not a zip"), "", nil)
	assert.Error(t, err)
}

func TestFileMonitor(t *testing.T) {
	path := writeFile(t, "day.csv", dayCSV)

	monitor, err := NewFileMonitor(path)
	require.NoError(t, err)
	defer monitor.Close()
	monitor.SetDebounce(20 * time.Millisecond)

	changed := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- monitor.Watch(ctx, func(p string) { changed <- p }) }()

	// 同目录其它文件的变化不触发
	writeSibling := filepath.Join(filepath.Dir(path), "notes.txt")
	require.NoError(t, os.WriteFile(writeSibling, []byte("x"), 0644))

	require.NoError(t, os.WriteFile(path, []byte(dayCSV), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event for data file")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestFileMonitorNoHandlerAfterReturn(t *testing.T) {
	path := writeFile(t, "day.csv", dayCSV)

	monitor, err := NewFileMonitor(path)
	require.NoError(t, err)
	defer monitor.Close()
	monitor.SetDebounce(100 * time.Millisecond)

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitor.Watch(ctx, func(string) { atomic.AddInt32(&calls, 1) })
	}()

	require.NoError(t, os.WriteFile(path, []byte(dayCSV), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	// 事件已进入防抖窗口时取消
	time.Sleep(30 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	time.Sleep(250 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func mustInts(t *testing.T, s series.Series) []int {
	t.Helper()
	v, err := s.Int()
	require.NoError(t, err)
	return v
}
