package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/microblog/internal/config"
	"github.com/simp-lee/microblog/internal/notify"
)

// Worker consumes new-post notification tasks enqueued by the API server.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
	queue  string
}

// NewWorker wires the notification handler onto an asynq server using the
// same redis connection and queue as the API server's dispatcher.
func NewWorker(cfg *config.Config, opts ...Option) (*Worker, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.Redis.Addr == "" {
		return nil, errors.New("redis.addr is required to run the worker")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log, err := config.SetupLogger(&cfg.Log, o.logOpts...)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	handler := notify.NewHandler(log.Logger, config.DurationOr(cfg.Notify.Delay, defaultNotifyDelay))
	srv, mux := notify.NewWorker(AsynqRedisOpt(&cfg.Redis), notify.WorkerConfig{
		Queue:       cfg.Notify.Queue,
		Concurrency: cfg.Notify.Concurrency,
	}, handler, log.Logger)

	return &Worker{srv: srv, mux: mux, logger: log, queue: cfg.Notify.Queue}, nil
}

// Run processes tasks until SIGINT or SIGTERM, then waits for running
// tasks to finish.
func (w *Worker) Run() error {
	defer func() {
		if err := w.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	w.logger.Info("worker started", slog.String("queue", w.queue))
	if err := w.srv.Run(w.mux); err != nil {
		return fmt.Errorf("worker error: %w", err)
	}
	w.logger.Info("worker stopped")
	return nil
}
