package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Handler processes new-post notifications. Delivery is simulated: it
// waits for the configured delay between a start and a finish record.
type Handler struct {
	logger *slog.Logger
	delay  time.Duration
}

// NewHandler creates a Handler. A nil logger means slog.Default().
func NewHandler(logger *slog.Logger, delay time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, delay: delay}
}

// Handle delivers one notification. It returns ctx.Err() if ctx ends first.
func (h *Handler) Handle(ctx context.Context, p NewPostPayload) error {
	h.logger.InfoContext(ctx, "starting new post notification",
		slog.Uint64("post_id", uint64(p.PostID)),
		slog.String("title", p.Title),
	)

	if h.delay > 0 {
		timer := time.NewTimer(h.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			h.logger.WarnContext(ctx, "new post notification interrupted",
				slog.Uint64("post_id", uint64(p.PostID)),
				slog.String("error", ctx.Err().Error()),
			)
			return ctx.Err()
		}
	}

	h.logger.InfoContext(ctx, "finished new post notification", slog.Uint64("post_id", uint64(p.PostID)))
	return nil
}

// ProcessTask implements asynq.Handler. Undecodable payloads are not retried.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p NewPostPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return h.Handle(ctx, p)
}
