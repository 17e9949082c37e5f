// Package app 提供导入服务的初始化、运行与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/kitvault/pkg/api"
	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/jobs"
	"github.com/yeisme/kitvault/pkg/internal/model"
	"github.com/yeisme/kitvault/pkg/internal/storage"
	"github.com/yeisme/kitvault/pkg/log"
	"github.com/yeisme/kitvault/pkg/metrics"
	"github.com/yeisme/kitvault/pkg/scheduler"
	"github.com/yeisme/kitvault/pkg/tracing"
)

// App 导入服务进程.
type App struct {
	Engine  *gin.Engine
	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
}

// NewApp 按已加载的配置初始化追踪、指标、存储与定时任务.
func NewApp(ctx context.Context) (*App, error) {
	config := configs.GetConfig()

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx, config, model.Models()...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, manager, config.Jobs); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	return &App{
		Engine:  api.NewEngine(config, manager, sched),
		config:  config,
		manager: manager,
		sched:   sched,
	}, nil
}

// Run 启动 HTTP 服务，ctx 结束后优雅退出并释放资源.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		IdleTimeout:       a.config.Server.IdleTimeout,
	}

	a.sched.Start()

	errCh := make(chan error, 1)

	go func() {
		log.Logger().Info().Str("addr", srv.Addr).Msg("import api listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.Server.ShutdownTimeout)
	defer cancel()

	return errors.Join(
		runErr,
		srv.Shutdown(shutdownCtx),
		a.sched.Shutdown(),
		tracing.ShutdownTracer(shutdownCtx),
		a.manager.Close(),
	)
}
