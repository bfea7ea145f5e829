// dataset.go
package processor

import (
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/utils"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	ErrMissingColumn  = errors.New("missing column")
	ErrMalformedValue = errors.New("malformed value")
	ErrCodeOutOfRange = errors.New("code out of range")
)

// DailyRentalRecord 一天的租借记录，Count = Casual + Registered
type DailyRentalRecord struct {
	Date       string
	Season     int
	Weekday    int
	WorkingDay bool
	Temp       float64
	Casual     int
	Registered int
	Count      int
}

var intColumns = []string{
	config.ColSeason, config.ColWeekday, config.ColWorkingDay,
	config.ColCasual, config.ColRegistered, config.ColCount,
}

// RequiredColumns 数据文件必须包含的列
var RequiredColumns = append(append([]string{}, intColumns...), config.ColTemp)

// Dataset 加载后的只读数据集
// df 中除原始列外还带有 workingday_desc / weekday_name / season_desc 三列
type Dataset struct {
	df       dataframe.DataFrame
	records  []DailyRentalRecord
	source   string
	loadedAt time.Time
}

// NewDataset 校验列和编码，统一列类型并添加展示列
func NewDataset(df dataframe.DataFrame, source string) (*Dataset, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if missing := utils.MissingColumns(df, RequiredColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	n := df.Nrow()
	ints := make(map[string][]int, len(intColumns))
	for _, col := range intColumns {
		v, err := intValues(df.Col(col))
		if err != nil {
			return nil, err
		}
		ints[col] = v
		df = df.Mutate(series.New(v, series.Int, col))
	}

	temps := df.Col(config.ColTemp).Float()
	for i, t := range temps {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: %s 第%d行", ErrMalformedValue, config.ColTemp, i+1)
		}
	}
	df = df.Mutate(series.New(temps, series.Float, config.ColTemp))

	dates := make([]string, n)
	if utils.HasColumn(df, config.ColDate) {
		dates = df.Col(config.ColDate).Records()
	}

	records := make([]DailyRentalRecord, n)
	dayTypes := make([]string, n)
	weekdays := make([]string, n)
	seasons := make([]string, n)
	for i := 0; i < n; i++ {
		rec := DailyRentalRecord{
			Date:       dates[i],
			Season:     ints[config.ColSeason][i],
			Weekday:    ints[config.ColWeekday][i],
			Temp:       temps[i],
			Casual:     ints[config.ColCasual][i],
			Registered: ints[config.ColRegistered][i],
			Count:      ints[config.ColCount][i],
		}

		switch wd := ints[config.ColWorkingDay][i]; wd {
		case 0, 1:
			rec.WorkingDay = wd == 1
		default:
			return nil, fmt.Errorf("%w: %s=%d 第%d行", ErrCodeOutOfRange, config.ColWorkingDay, wd, i+1)
		}

		var ok bool
		if weekdays[i], ok = WeekdayName(rec.Weekday); !ok {
			return nil, fmt.Errorf("%w: %s=%d 第%d行", ErrCodeOutOfRange, config.ColWeekday, rec.Weekday, i+1)
		}
		if seasons[i], ok = SeasonName(rec.Season); !ok {
			return nil, fmt.Errorf("%w: %s=%d 第%d行", ErrCodeOutOfRange, config.ColSeason, rec.Season, i+1)
		}
		if rec.Casual < 0 || rec.Registered < 0 || rec.Count < 0 {
			return nil, fmt.Errorf("%w: 第%d行出现负数", ErrMalformedValue, i+1)
		}

		dayTypes[i] = DayTypeLabel(rec.WorkingDay)
		records[i] = rec
	}

	df = df.Mutate(series.New(dayTypes, series.String, ColDayType)).
		Mutate(series.New(weekdays, series.String, ColWeekdayName)).
		Mutate(series.New(seasons, series.String, ColSeasonName))
	if df.Err != nil {
		return nil, df.Err
	}

	return &Dataset{
		df:       df,
		records:  records,
		source:   source,
		loadedAt: time.Now(),
	}, nil
}

// NewDatasetFromRecords 由记录直接构建数据集
func NewDatasetFromRecords(records []DailyRentalRecord, source string) (*Dataset, error) {
	var (
		dates                      []string
		seasons, weekdays, working []int
		casual, registered, count  []int
		temps                      []float64
	)
	for _, r := range records {
		dates = append(dates, r.Date)
		seasons = append(seasons, r.Season)
		weekdays = append(weekdays, r.Weekday)
		wd := 0
		if r.WorkingDay {
			wd = 1
		}
		working = append(working, wd)
		temps = append(temps, r.Temp)
		casual = append(casual, r.Casual)
		registered = append(registered, r.Registered)
		count = append(count, r.Count)
	}

	df := dataframe.New(
		series.New(dates, series.String, config.ColDate),
		series.New(seasons, series.Int, config.ColSeason),
		series.New(weekdays, series.Int, config.ColWeekday),
		series.New(working, series.Int, config.ColWorkingDay),
		series.New(temps, series.Float, config.ColTemp),
		series.New(casual, series.Int, config.ColCasual),
		series.New(registered, series.Int, config.ColRegistered),
		series.New(count, series.Int, config.ColCount),
	)
	return NewDataset(df, source)
}

// intValues 整数列不允许出现缺失或无法解析的值
func intValues(s series.Series) ([]int, error) {
	for i := 0; i < s.Len(); i++ {
		if s.Elem(i).IsNA() {
			return nil, fmt.Errorf("%w: %s 第%d行", ErrMalformedValue, s.Name, i+1)
		}
	}
	// Int() 会直接截断小数，浮点列需先检查
	if s.Type() == series.Float {
		for i, f := range s.Float() {
			if math.IsInf(f, 0) || f != math.Trunc(f) {
				return nil, fmt.Errorf("%w: %s 第%d行不是整数: %v", ErrMalformedValue, s.Name, i+1, f)
			}
		}
	}
	v, err := s.Int()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedValue, s.Name, err)
	}
	return v, nil
}

func (d *Dataset) Len() int            { return len(d.records) }
func (d *Dataset) Source() string      { return d.source }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// DataFrame 返回副本，数据集本身保持不变
func (d *Dataset) DataFrame() dataframe.DataFrame {
	return d.df.Copy()
}

// Records 返回记录副本
func (d *Dataset) Records() []DailyRentalRecord {
	out := make([]DailyRentalRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Column 以 float64 返回数值列
func (d *Dataset) Column(name string) []float64 {
	if !utils.HasColumn(d.df, name) {
		return nil
	}
	return d.df.Col(name).Float()
}
