package processor

import (
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/datasource/file"
	"fmt"
	"sync"
	"time"
)

// Report 一次加载对应的全部统计结果
type Report struct {
	Headline    Headline
	DayType     []DayTypeBucket
	Weekday     []WeekdayBucket
	Season      []SeasonBucket
	Correlation Correlation
	GeneratedAt time.Time
}

// Analyze 计算页面需要的全部统计
func Analyze(ds *Dataset) (*Report, error) {
	dayType, err := SummarizeDayType(ds)
	if err != nil {
		return nil, err
	}
	weekday, err := SummarizeWeekday(ds)
	if err != nil {
		return nil, err
	}
	season, err := SummarizeSeason(ds)
	if err != nil {
		return nil, err
	}

	return &Report{
		Headline:    ComputeHeadline(ds),
		DayType:     dayType,
		Weekday:     weekday,
		Season:      season,
		Correlation: ComputeCorrelation(ds),
		GeneratedAt: time.Now(),
	}, nil
}

// Snapshot 数据集与其统计结果，生成后不再修改
type Snapshot struct {
	Dataset *Dataset
	Report  *Report
}

// Load 读取数据文件并生成快照
func Load(filePath, sheetName string, dcfg *config.DataConfig) (*Snapshot, error) {
	df, err := file.ReadDataFrame(filePath, sheetName, dcfg)
	if err != nil {
		return nil, err
	}

	ds, err := NewDataset(df, filePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	report, err := Analyze(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return &Snapshot{Dataset: ds, Report: report}, nil
}

// SnapshotWrapper 保存当前快照，重新加载时整体替换
type SnapshotWrapper struct {
	snap *Snapshot
	mu   sync.RWMutex
}

func (w *SnapshotWrapper) Get() *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap
}

func (w *SnapshotWrapper) Set(s *Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snap = s
}
