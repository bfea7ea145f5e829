package charts

import (
	"BikeRentalDashboard/src/processor"
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T, records []processor.DailyRentalRecord) *processor.Snapshot {
	t.Helper()
	ds, err := processor.NewDatasetFromRecords(records, "test")
	require.NoError(t, err)
	report, err := processor.Analyze(ds)
	require.NoError(t, err)
	return &processor.Snapshot{Dataset: ds, Report: report}
}

func week() []processor.DailyRentalRecord {
	var out []processor.DailyRentalRecord
	for i := 0; i < 21; i++ {
		casual := 200 + 11*i
		registered := 1500 + 29*(i%6)
		out = append(out, processor.DailyRentalRecord{
			Season:     i%4 + 1,
			Weekday:    i % 7,
			WorkingDay: i%7 != 0 && i%7 != 6,
			Temp:       0.15 + 0.02*float64(i),
			Casual:     casual,
			Registered: registered,
			Count:      casual + registered,
		})
	}
	return out
}

func TestRenderAllCharts(t *testing.T) {
	snap := snapshot(t, week())

	for _, def := range Definitions() {
		t.Run(def.Name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(def.Name, snap, &buf))

			cfg, err := png.DecodeConfig(&buf)
			require.NoError(t, err)
			assert.Equal(t, Width, cfg.Width)
			assert.Equal(t, Height, cfg.Height)
		})
	}
}

func TestRenderUnknownChart(t *testing.T) {
	err := Render("histogram", snapshot(t, week()), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestRenderWithoutData(t *testing.T) {
	empty := snapshot(t, nil)
	for _, def := range Definitions() {
		assert.ErrorIs(t, Render(def.Name, empty, &bytes.Buffer{}), ErrNoData, def.Name)
	}
	assert.ErrorIs(t, Render("temperature", nil, &bytes.Buffer{}), ErrNoData)
}

func TestRenderSingleDay(t *testing.T) {
	snap := snapshot(t, []processor.DailyRentalRecord{
		{Season: 3, Weekday: 2, WorkingDay: true, Temp: 0.5, Casual: 10, Registered: 90, Count: 100},
	})

	var buf bytes.Buffer
	require.NoError(t, Render("season-share", snap, &buf))
	buf.Reset()
	require.NoError(t, Render("temperature", snap, &buf))
}

func TestCorrelationLabel(t *testing.T) {
	assert.Equal(t, "Correlation: 0.63", CorrelationLabel(processor.Correlation{R: 0.6271, Defined: true}))
	assert.Equal(t, "Correlation: n/a", CorrelationLabel(processor.Correlation{}))
}

func TestDefinitionsOrder(t *testing.T) {
	var names []string
	for _, d := range Definitions() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"daytype-share", "daytype-riders", "weekday-share", "weekday-riders", "season-share", "temperature",
	}, names)

	_, ok := Lookup("temperature")
	assert.True(t, ok)
}
