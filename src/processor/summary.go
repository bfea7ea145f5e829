package processor

import (
	"BikeRentalDashboard/src/config"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// DayTypeBucket 工作日/周末分组的合计
type DayTypeBucket struct {
	Label      string
	Days       int
	Count      int
	Casual     int
	Registered int
}

// WeekdayBucket 星期分组的日均值
type WeekdayBucket struct {
	Label          string
	Days           int
	MeanCount      float64
	MeanCasual     float64
	MeanRegistered float64
}

// SeasonBucket 季节分组的合计
type SeasonBucket struct {
	Label string
	Days  int
	Count int
}

// aggRow 一个分组的聚合结果，键为 "列名_聚合方式"，例如 cnt_SUM
type aggRow map[string]float64

func aggName(col string, typ dataframe.AggregationType) string {
	return fmt.Sprintf("%s_%s", col, typ)
}

// aggregate 按 key 列分组后对 cols 做对应的聚合
// 返回 分组值 -> 聚合结果；数据为空时返回空 map
func aggregate(df dataframe.DataFrame, key string, typs []dataframe.AggregationType, cols []string) (map[string]aggRow, error) {
	out := make(map[string]aggRow)
	if df.Nrow() == 0 {
		return out, nil
	}

	groups := df.GroupBy(key)
	if groups.Err != nil {
		return nil, fmt.Errorf("按 %s 分组失败: %w", key, groups.Err)
	}

	agg := groups.Aggregation(typs, cols)
	if agg.Err != nil {
		return nil, fmt.Errorf("按 %s 聚合失败: %w", key, agg.Err)
	}

	keys := agg.Col(key)
	for i := 0; i < agg.Nrow(); i++ {
		row := make(aggRow, len(cols))
		for j, c := range cols {
			name := aggName(c, typs[j])
			row[name] = agg.Col(name).Elem(i).Float()
		}
		out[keys.Elem(i).String()] = row
	}
	return out, nil
}

func toInt(v float64) int {
	return int(math.Round(v))
}

// SummarizeDayType 按 workingday 分为 Weekday / Weekend
// 对 cnt、casual、registered 求和
func SummarizeDayType(ds *Dataset) ([]DayTypeBucket, error) {
	typs := []dataframe.AggregationType{
		dataframe.Aggregation_SUM,
		dataframe.Aggregation_SUM,
		dataframe.Aggregation_SUM,
		dataframe.Aggregation_COUNT,
	}
	cols := []string{config.ColCount, config.ColCasual, config.ColRegistered, config.ColCount}

	groups, err := aggregate(ds.df, ColDayType, typs, cols)
	if err != nil {
		return nil, err
	}

	buckets := make([]DayTypeBucket, 0, len(DayTypes))
	for _, label := range DayTypes {
		b := DayTypeBucket{Label: label}
		if row, ok := groups[label]; ok {
			b.Days = toInt(row[aggName(config.ColCount, dataframe.Aggregation_COUNT)])
			b.Count = toInt(row[aggName(config.ColCount, dataframe.Aggregation_SUM)])
			b.Casual = toInt(row[aggName(config.ColCasual, dataframe.Aggregation_SUM)])
			b.Registered = toInt(row[aggName(config.ColRegistered, dataframe.Aggregation_SUM)])
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// SummarizeWeekday 按星期分组求 cnt、casual、registered 的日均值
// 顺序固定为 Sunday..Saturday，没有数据的星期均值为 0
func SummarizeWeekday(ds *Dataset) ([]WeekdayBucket, error) {
	typs := []dataframe.AggregationType{
		dataframe.Aggregation_MEAN,
		dataframe.Aggregation_MEAN,
		dataframe.Aggregation_MEAN,
		dataframe.Aggregation_COUNT,
	}
	cols := []string{config.ColCount, config.ColCasual, config.ColRegistered, config.ColCount}

	groups, err := aggregate(ds.df, ColWeekdayName, typs, cols)
	if err != nil {
		return nil, err
	}

	buckets := make([]WeekdayBucket, 0, len(WeekdayNames))
	for _, label := range WeekdayNames {
		b := WeekdayBucket{Label: label}
		if row, ok := groups[label]; ok {
			b.Days = toInt(row[aggName(config.ColCount, dataframe.Aggregation_COUNT)])
			b.MeanCount = row[aggName(config.ColCount, dataframe.Aggregation_MEAN)]
			b.MeanCasual = row[aggName(config.ColCasual, dataframe.Aggregation_MEAN)]
			b.MeanRegistered = row[aggName(config.ColRegistered, dataframe.Aggregation_MEAN)]
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// SummarizeSeason 按季节对 cnt 求和，顺序 Spring, Summer, Fall, Winter
func SummarizeSeason(ds *Dataset) ([]SeasonBucket, error) {
	typs := []dataframe.AggregationType{
		dataframe.Aggregation_SUM,
		dataframe.Aggregation_COUNT,
	}
	cols := []string{config.ColCount, config.ColCount}

	groups, err := aggregate(ds.df, ColSeasonName, typs, cols)
	if err != nil {
		return nil, err
	}

	buckets := make([]SeasonBucket, 0, len(SeasonNames))
	for _, label := range SeasonNames {
		b := SeasonBucket{Label: label}
		if row, ok := groups[label]; ok {
			b.Days = toInt(row[aggName(config.ColCount, dataframe.Aggregation_COUNT)])
			b.Count = toInt(row[aggName(config.ColCount, dataframe.Aggregation_SUM)])
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}
