// Package webui 提供看板页面、图表和导出接口
package webui

import (
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/processor"
	"BikeRentalDashboard/src/storage"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// Server 看板 HTTP 服务
type Server struct {
	cfg    *config.Config
	snaps  *processor.SnapshotWrapper
	logger *storage.Logger
	page   *pageRenderer
}

func NewServer(cfg *config.Config, snaps *processor.SnapshotWrapper, logger *storage.Logger) (*Server, error) {
	page, err := newPageRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, snaps: snaps, logger: logger, page: page}, nil
}

// Handler 返回挂好全部路由的 chi 路由器
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		accessLog(s.logger),
		middleware.Recoverer,
	)

	r.Get("/", s.handlePage)
	r.Get("/charts/{name}.png", s.handleChart)
	r.Get("/export.xlsx", s.handleExport)
	if s.cfg.LogStream {
		r.Get("/logs", s.handleLogs)
	}
	return r
}

// Serve 启动服务，ctx 取消后优雅关闭
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("看板服务启动: %s", s.cfg.ListenAddr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP服务异常: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("看板服务关闭中...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// accessLog 将访问记录写入日志
func accessLog(logger *storage.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(fmt.Sprintf("%s %s %d %dB %v [%s]",
				r.Method, r.URL.Path, status, ww.BytesWritten(),
				time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context())))
		})
	}
}
