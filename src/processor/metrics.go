package processor

import (
	"BikeRentalDashboard/src/config"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Headline 页面顶部的三个指标
type Headline struct {
	Days  int
	Total int     // 总租借量
	Mean  float64 // 日均租借量
	Peak  int     // 单日最高租借量
}

// Correlation 温度与总租借量的皮尔逊相关系数
// 少于两行或任一列方差为0时 Defined 为 false，R 为 0
type Correlation struct {
	R       float64
	N       int
	Defined bool
}

func ComputeHeadline(ds *Dataset) Headline {
	h := Headline{Days: ds.Len()}
	if h.Days == 0 {
		return h
	}

	cnt := ds.df.Col(config.ColCount)
	h.Total = toInt(cnt.Sum())
	h.Mean = cnt.Mean()
	h.Peak = toInt(cnt.Max())
	return h
}

func ComputeCorrelation(ds *Dataset) Correlation {
	x := ds.Column(config.ColTemp)
	y := ds.Column(config.ColCount)
	r, ok := Pearson(x, y)
	return Correlation{R: r, N: len(x), Defined: ok}
}

// Pearson 计算 x、y 的相关系数并截断到 [-1, 1]
func Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0, false
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}
