package comment

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCommentModuleRegisterRoutes(t *testing.T) {
	r := gin.New()
	api := r.Group("/api/v1")
	authed := r.Group("/authed")

	NewModule(&CommentHandler{}).RegisterRoutes(api, authed)

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+":"+ri.Path] = true
	}
	for _, key := range []string{
		http.MethodGet + ":/api/v1/posts/:id/comments",
		http.MethodPost + ":/authed/posts/:id/comments",
	} {
		if !registered[key] {
			t.Errorf("expected route %s to be registered", key)
		}
	}
}

func TestNewModule_PanicsOnNilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewModule() expected panic for nil handler, got none")
		}
	}()

	_ = NewModule(nil)
}
