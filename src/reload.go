package main

import (
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/processor"
	"BikeRentalDashboard/src/storage"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// reloader 重新读取数据文件，失败时保留旧快照
type reloader struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	snaps  *processor.SnapshotWrapper
	logger *storage.Logger
	mu     sync.Mutex // 文件监控和 SIGHUP 可能同时触发
}

func newReloader(cfg *config.Config, dcfg *config.DataConfig, snaps *processor.SnapshotWrapper, logger *storage.Logger) *reloader {
	return &reloader{cfg: cfg, dcfg: dcfg, snaps: snaps, logger: logger}
}

func (r *reloader) Reload(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t1 := time.Now()
	snap, err := processor.Load(r.cfg.DataFile, r.cfg.SheetName, r.dcfg)
	if err != nil {
		r.logger.Error(fmt.Sprintf("加载数据失败(%s)，保留当前数据: %v", reason, err))
		return fmt.Errorf("加载数据失败: %w", err)
	}

	r.snaps.Set(snap)
	r.logger.Info(fmt.Sprintf("数据已加载(%s): %s，共 %d 天，耗时 %v",
		reason, snap.Dataset.Source(), snap.Dataset.Len(), time.Since(t1)))
	return nil
}

func writePidFile(path string) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return fmt.Errorf("写入pid文件失败: %w", err)
	}
	return nil
}
