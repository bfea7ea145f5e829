package processor

import (
	"BikeRentalDashboard/src/config"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []DailyRentalRecord {
	var out []DailyRentalRecord
	// 两周数据，季节和温度有变化
	for i := 0; i < 14; i++ {
		weekday := i % 7
		casual := 100 + 37*i
		registered := 900 + 53*(i%5)
		out = append(out, DailyRentalRecord{
			Date:       fmt.Sprintf("2011-01-%02d", i+1),
			Season:     i%4 + 1,
			Weekday:    weekday,
			WorkingDay: weekday != 0 && weekday != 6,
			Temp:       0.2 + 0.03*float64(i),
			Casual:     casual,
			Registered: registered,
			Count:      casual + registered,
		})
	}
	return out
}

func mustDataset(t *testing.T, records []DailyRentalRecord) *Dataset {
	t.Helper()
	ds, err := NewDatasetFromRecords(records, "test")
	require.NoError(t, err)
	return ds
}

func TestDayTypeExample(t *testing.T) {
	ds := mustDataset(t, []DailyRentalRecord{
		{Season: 1, Weekday: 6, WorkingDay: false, Casual: 40, Registered: 60, Count: 100},
		{Season: 1, Weekday: 1, WorkingDay: true, Casual: 50, Registered: 150, Count: 200},
		{Season: 2, Weekday: 2, WorkingDay: true, Casual: 100, Registered: 200, Count: 300},
	})

	buckets, err := SummarizeDayType(ds)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, DayTypeBucket{Label: "Weekday", Days: 2, Count: 500, Casual: 150, Registered: 350}, buckets[0])
	assert.Equal(t, DayTypeBucket{Label: "Weekend", Days: 1, Count: 100, Casual: 40, Registered: 60}, buckets[1])
	assert.Equal(t, 600, ComputeHeadline(ds).Total)
}

func TestDayTypeTotalsMatchGrandTotal(t *testing.T) {
	ds := mustDataset(t, sampleRecords())
	buckets, err := SummarizeDayType(ds)
	require.NoError(t, err)

	sum := 0
	for _, b := range buckets {
		sum += b.Count
		assert.Equal(t, b.Count, b.Casual+b.Registered)
	}
	assert.Equal(t, ComputeHeadline(ds).Total, sum)
}

func TestWeekdayMeansAddUp(t *testing.T) {
	ds := mustDataset(t, sampleRecords())
	buckets, err := SummarizeWeekday(ds)
	require.NoError(t, err)
	require.Len(t, buckets, 7)

	for i, b := range buckets {
		assert.Equal(t, WeekdayNames[i], b.Label)
		assert.Equal(t, 2, b.Days)
		assert.InDelta(t, b.MeanCount, b.MeanCasual+b.MeanRegistered, 1e-9, b.Label)
	}

	// Sunday: i = 0 和 i = 7
	assert.InDelta(t, (100.0+359.0)/2, buckets[0].MeanCasual, 1e-9)
}

func TestWeekdayEmptyBucket(t *testing.T) {
	ds := mustDataset(t, []DailyRentalRecord{
		{Season: 1, Weekday: 3, WorkingDay: true, Casual: 1, Registered: 2, Count: 3},
	})
	buckets, err := SummarizeWeekday(ds)
	require.NoError(t, err)

	assert.Equal(t, WeekdayBucket{Label: "Sunday"}, buckets[0])
	assert.Equal(t, 1, buckets[3].Days)
	assert.InDelta(t, 3.0, buckets[3].MeanCount, 1e-9)
}

func TestSeasonTotalsMatchGrandTotal(t *testing.T) {
	ds := mustDataset(t, sampleRecords())
	buckets, err := SummarizeSeason(ds)
	require.NoError(t, err)
	require.Len(t, buckets, 4)

	sum := 0
	for i, b := range buckets {
		assert.Equal(t, SeasonNames[i], b.Label)
		sum += b.Count
	}
	assert.Equal(t, ComputeHeadline(ds).Total, sum)
}

func TestHeadline(t *testing.T) {
	ds := mustDataset(t, []DailyRentalRecord{
		{Season: 1, Weekday: 0, Count: 100, Casual: 100},
		{Season: 1, Weekday: 1, WorkingDay: true, Count: 250, Registered: 250},
		{Season: 1, Weekday: 2, WorkingDay: true, Count: 400, Registered: 400},
	})

	h := ComputeHeadline(ds)
	assert.Equal(t, 3, h.Days)
	assert.Equal(t, 750, h.Total)
	assert.InDelta(t, 250.0, h.Mean, 1e-9)
	assert.Equal(t, 400, h.Peak)
}

func TestCorrelation(t *testing.T) {
	ds := mustDataset(t, sampleRecords())
	c := ComputeCorrelation(ds)
	assert.True(t, c.Defined)
	assert.Equal(t, 14, c.N)
	assert.GreaterOrEqual(t, c.R, -1.0)
	assert.LessOrEqual(t, c.R, 1.0)

	r, ok := Pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)

	r, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)
	assert.Zero(t, r)
}

func TestEmptyDataset(t *testing.T) {
	ds := mustDataset(t, nil)

	report, err := Analyze(ds)
	require.NoError(t, err)

	assert.Equal(t, Headline{}, report.Headline)
	assert.False(t, report.Correlation.Defined)
	assert.Len(t, report.DayType, 2)
	assert.Len(t, report.Weekday, 7)
	assert.Len(t, report.Season, 4)
}

func TestNewDatasetAddsLabels(t *testing.T) {
	ds := mustDataset(t, sampleRecords()[:2])
	df := ds.DataFrame()

	assert.Equal(t, []string{"Weekend", "Weekday"}, df.Col(ColDayType).Records())
	assert.Equal(t, []string{"Sunday", "Monday"}, df.Col(ColWeekdayName).Records())
	assert.Equal(t, []string{"Spring", "Summer"}, df.Col(ColSeasonName).Records())

	// 返回的是副本
	recs := ds.Records()
	recs[0].Count = -1
	assert.NotEqual(t, -1, ds.Records()[0].Count)
}

func TestNewDatasetErrors(t *testing.T) {
	cases := []struct {
		name    string
		records [][]string
		want    error
	}{
		{
			name:    "missing column",
			records: [][]string{{"season", "weekday", "cnt"}, {"1", "0", "10"}},
			want:    ErrMissingColumn,
		},
		{
			name:    "season out of range",
			records: [][]string{header(), {"5", "0", "0", "0.3", "1", "2", "3"}},
			want:    ErrCodeOutOfRange,
		},
		{
			name:    "weekday out of range",
			records: [][]string{header(), {"1", "7", "0", "0.3", "1", "2", "3"}},
			want:    ErrCodeOutOfRange,
		},
		{
			name:    "workingday out of range",
			records: [][]string{header(), {"1", "0", "2", "0.3", "1", "2", "3"}},
			want:    ErrCodeOutOfRange,
		},
		{
			name:    "unparsable count",
			records: [][]string{header(), {"1", "0", "0", "0.3", "1", "2", "three"}},
			want:    ErrMalformedValue,
		},
		{
			name:    "fractional casual",
			records: [][]string{header(), {"1", "0", "0", "0.3", "50.7", "2", "53"}},
			want:    ErrMalformedValue,
		},
		{
			name:    "negative count",
			records: [][]string{header(), {"1", "0", "0", "0.3", "-1", "2", "1"}},
			want:    ErrMalformedValue,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDataset(dataframe.LoadRecords(tc.records), "test")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// 未指定类型时 gota 会把 "50.0" 这样的列推断为浮点列
func TestNewDatasetFloatCounts(t *testing.T) {
	ds, err := NewDataset(dataframe.LoadRecords([][]string{
		header(),
		{"1", "0", "0", "0.3", "50.0", "2.5", "52.5"},
	}), "test")
	assert.ErrorIs(t, err, ErrMalformedValue)
	assert.Nil(t, ds)

	ds, err = NewDataset(dataframe.LoadRecords([][]string{
		header(),
		{"1", "0", "0", "0.3", "50.0", "2.0", "52.0"},
	}), "test")
	require.NoError(t, err)
	assert.Equal(t, 50, ds.Records()[0].Casual)
	assert.Equal(t, 52, ds.Records()[0].Count)
}

func header() []string {
	return []string{"season", "weekday", "workingday", "temp", "casual", "registered", "cnt"}
}

func TestLoadAndWrapper(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(strings.Join(append([]string{"dteday"}, header()...), ",") + "\n")
	for _, r := range sampleRecords() {
		wd := 0
		if r.WorkingDay {
			wd = 1
		}
		fmt.Fprintf(&sb, "%s,%d,%d,%d,%f,%d,%d,%d\n", r.Date, r.Season, r.Weekday, wd, r.Temp, r.Casual, r.Registered, r.Count)
	}
	path := filepath.Join(t.TempDir(), "day.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))

	snap, err := Load(path, "", config.DefaultDataConfig())
	require.NoError(t, err)
	assert.Equal(t, 14, snap.Dataset.Len())
	assert.Equal(t, path, snap.Dataset.Source())

	var w SnapshotWrapper
	assert.Nil(t, w.Get())
	w.Set(snap)
	assert.Same(t, snap, w.Get())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), "", nil)
	assert.Error(t, err)
}
