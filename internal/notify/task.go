// Package notify dispatches and processes new-post notifications, either
// inline in a goroutine or through an asynq queue.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeNewPost is the asynq task type for new-post notifications.
const TypeNewPost = "post:notify_new"

// NewPostPayload is the task payload.
type NewPostPayload struct {
	PostID uint   `json:"post_id"`
	Title  string `json:"title"`
}

// NewNewPostTask builds the asynq task for payload.
func NewNewPostTask(p NewPostPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", TypeNewPost, err)
	}
	return asynq.NewTask(TypeNewPost, raw), nil
}
