package main

import (
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/datapush"
	"BikeRentalDashboard/src/datasource/file"
	"BikeRentalDashboard/src/processor"
	"BikeRentalDashboard/src/storage"
	"BikeRentalDashboard/src/webui"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 初始化日志系统，同时输出到控制台
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.SetMirror(os.Stdout)
	defer logger.Close()

	if err := writePidFile(cfg.PidFile); err != nil {
		return err
	}
	defer os.Remove(cfg.PidFile)

	// 首次加载失败直接退出
	snaps := &processor.SnapshotWrapper{}
	rl := newReloader(cfg, dcfg, snaps, logger)
	if err := rl.Reload("启动"); err != nil {
		return err
	}

	c := cron.New()

	rotateEvery := fmt.Sprintf("@every %s", time.Duration(cfg.RotateCheck).String())
	err = c.AddFunc(rotateEvery, func() {
		rotated, err := logger.CheckRotate(cfg.LogMaxSize)
		if err != nil {
			logger.Error("日志轮转检查失败: " + err.Error())
			return
		}
		if rotated {
			logger.Info("日志文件已轮转")
		}
	})
	if err != nil {
		return fmt.Errorf("创建日志轮转任务失败: %w", err)
	}

	if cfg.Push.WebhookURL != "" {
		pusher := datapush.NewPusher(cfg.Push)
		err = c.AddFunc(cfg.Push.Schedule, func() {
			snap := snaps.Get()
			if snap == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := pusher.Push(ctx, cfg.Branding.Title, snap.Report); err != nil {
				logger.Error("推送摘要失败: " + err.Error())
				return
			}
			logger.Info("摘要已推送")
		})
		if err != nil {
			return fmt.Errorf("创建推送任务失败(%s): %w", cfg.Push.Schedule, err)
		}
	}

	c.Start()
	defer c.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egctx := errgroup.WithContext(ctx)

	if cfg.Watch {
		monitor, err := file.NewFileMonitor(cfg.DataFile)
		if err != nil {
			return fmt.Errorf("创建文件监控失败: %w", err)
		}
		defer monitor.Close()

		eg.Go(func() error {
			err := monitor.Watch(egctx, func(path string) {
				_ = rl.Reload("文件变化: " + path)
			})
			if err != nil {
				// 监控失败不影响页面服务
				logger.Error("文件监控已停止: " + err.Error())
			}
			return nil
		})
	}

	eg.Go(func() error {
		return watchHangup(egctx, logger, rl)
	})

	srv, err := webui.NewServer(cfg, snaps, logger)
	if err != nil {
		return err
	}
	eg.Go(func() error {
		return srv.Serve(egctx)
	})

	logger.Info(fmt.Sprintf("看板已启动(数据: %s, 监听: %s)，按Ctrl+C退出", cfg.DataFile, cfg.ListenAddr))
	if err := eg.Wait(); err != nil {
		logger.Error(err.Error())
		return err
	}
	logger.Info("已退出")
	return nil
}

// watchHangup 收到 SIGHUP 时重新打开日志并重新加载数据
func watchHangup(ctx context.Context, logger *storage.Logger, rl *reloader) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := logger.Reopen(); err != nil {
				log.Println("重新打开日志失败:", err)
			}
			_ = rl.Reload("SIGHUP")
		}
	}
}
