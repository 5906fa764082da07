package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/simp-lee/microblog/internal/domain"
)

// InlineDispatcher runs the handler in a goroutine of this process.
// The goroutine keeps the request's context values, including log
// attributes, but not its cancellation.
type InlineDispatcher struct {
	handler *Handler
	wg      sync.WaitGroup
}

var _ domain.PostNotifier = (*InlineDispatcher)(nil)

// NewInlineDispatcher creates an InlineDispatcher for handler.
func NewInlineDispatcher(handler *Handler) *InlineDispatcher {
	return &InlineDispatcher{handler: handler}
}

// NotifyNewPost starts the notification and returns immediately.
func (d *InlineDispatcher) NotifyNewPost(ctx context.Context, postID uint, title string) error {
	detached := context.WithoutCancel(ctx)
	p := NewPostPayload{PostID: postID, Title: title}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.handler.Handle(detached, p); err != nil {
			slog.ErrorContext(detached, "new post notification failed",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// Wait blocks until every started notification has finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

// Enqueuer is the part of *asynq.Client the AsynqDispatcher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqDispatcher enqueues notifications for a worker process.
// Tasks are not retried.
type AsynqDispatcher struct {
	client Enqueuer
	queue  string
}

var _ domain.PostNotifier = (*AsynqDispatcher)(nil)

// NewAsynqDispatcher creates an AsynqDispatcher. An empty queue means "default".
func NewAsynqDispatcher(client Enqueuer, queue string) *AsynqDispatcher {
	if queue == "" {
		queue = "default"
	}
	return &AsynqDispatcher{client: client, queue: queue}
}

// NotifyNewPost enqueues the task. The error only reports a failed enqueue.
func (d *AsynqDispatcher) NotifyNewPost(ctx context.Context, postID uint, title string) error {
	task, err := NewNewPostTask(NewPostPayload{PostID: postID, Title: title})
	if err != nil {
		return err
	}

	info, err := d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue), asynq.MaxRetry(0))
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "new post notification enqueued",
		slog.Uint64("post_id", uint64(postID)),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
	)
	return nil
}
