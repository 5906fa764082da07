package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// WorkerConfig configures the asynq worker server.
type WorkerConfig struct {
	Queue       string
	Concurrency int
}

// NewWorker creates an asynq server and a mux routing TypeNewPost to handler.
// The caller runs it with srv.Run(mux) and stops it with srv.Shutdown().
func NewWorker(redisOpt asynq.RedisConnOpt, cfg WorkerConfig, handler *Handler, logger *slog.Logger) (*asynq.Server, *asynq.ServeMux) {
	if logger == nil {
		logger = slog.Default()
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	mux := asynq.NewServeMux()
	mux.Handle(TypeNewPost, handler)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Queues:      map[string]int{queue: 1},
		Concurrency: concurrency,
		Logger:      &slogAdapter{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.ErrorContext(ctx, "task failed",
				slog.String("type", task.Type()),
				slog.String("error", err.Error()),
			)
		}),
	})
	return srv, mux
}

// slogAdapter implements asynq.Logger on slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Debug(args ...any) { a.logger.Debug(fmt.Sprint(args...)) }
func (a *slogAdapter) Info(args ...any)  { a.logger.Info(fmt.Sprint(args...)) }
func (a *slogAdapter) Warn(args ...any)  { a.logger.Warn(fmt.Sprint(args...)) }
func (a *slogAdapter) Error(args ...any) { a.logger.Error(fmt.Sprint(args...)) }

// Fatal logs at error level. asynq exits the process itself after calling it.
func (a *slogAdapter) Fatal(args ...any) { a.logger.Error(fmt.Sprint(args...)) }
