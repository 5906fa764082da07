package post

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/middleware"
	"github.com/simp-lee/microblog/internal/pkg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenResolver authenticates "user-1" and "user-2".
type tokenResolver struct{}

func (tokenResolver) Resolve(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case "user-1":
		return &domain.User{BaseModel: domain.BaseModel{ID: 1}, Username: "alice"}, nil
	case "user-2":
		return &domain.User{BaseModel: domain.BaseModel{ID: 2}, Username: "bob"}, nil
	}
	return nil, domain.NewAuthError(domain.AuthMalformed, nil)
}

type testEnv struct {
	router   *gin.Engine
	repo     *mockPostRepo
	notifier *recordingNotifier
}

func setupPostRouter(t *testing.T) *testEnv {
	t.Helper()
	repo := newMockRepo()
	notifier := &recordingNotifier{}
	svc := NewPostService(repo, newMapCache(), time.Minute, notifier)

	r := gin.New()
	api := r.Group("/api/v1")
	authed := api.Group("", middleware.Auth(tokenResolver{}))
	NewModule(NewPostHandler(svc)).RegisterRoutes(api, authed)
	return &testEnv{router: r, repo: repo, notifier: notifier}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) domain.Code {
	t.Helper()
	var resp pkg.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error envelope %q: %v", w.Body.String(), err)
	}
	return resp.Error.Code
}

func TestPostHandler_Create(t *testing.T) {
	env := setupPostRouter(t)

	w := env.do(http.MethodPost, "/api/v1/posts", "user-1", `{"title":"Hi","content":"there"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var got domain.Post
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID == 0 || !got.OwnedBy(1) || got.Title != "Hi" {
		t.Errorf("unexpected post %+v", got)
	}
	if len(env.notifier.calls) != 1 {
		t.Errorf("notifications = %d, want 1", len(env.notifier.calls))
	}
}

func TestPostHandler_Create_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		body       string
		wantStatus int
		wantCode   domain.Code
	}{
		{"no token", "", `{"title":"a","content":"b"}`, http.StatusUnauthorized, domain.CodeUnauthorized},
		{"bad token", "nope", `{"title":"a","content":"b"}`, http.StatusUnauthorized, domain.CodeUnauthorized},
		{"missing content", "user-1", `{"title":"a"}`, http.StatusBadRequest, domain.CodeValidation},
		{"malformed json", "user-1", `{"title":`, http.StatusBadRequest, domain.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupPostRouter(t)
			w := env.do(http.MethodPost, "/api/v1/posts", tt.token, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if code := errorCode(t, w); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if len(env.repo.posts) != 0 {
				t.Error("no post should be stored")
			}
		})
	}
}

func TestPostHandler_GetAndList(t *testing.T) {
	env := setupPostRouter(t)
	env.do(http.MethodPost, "/api/v1/posts", "user-1", `{"title":"first","content":"c"}`)

	w := env.do(http.MethodGet, "/api/v1/posts/1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/v1/posts/2", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing: expected status 404, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/v1/posts/x", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("get bad id: expected status 400, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/v1/posts?page=1&limit=5", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", w.Code)
	}
	var page domain.PageResult[domain.Post]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if page.Total != 1 || page.Limit != 5 || page.Page != 1 || page.HasPrev || page.HasNext {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestPostHandler_List_InvalidQuery(t *testing.T) {
	env := setupPostRouter(t)

	for _, q := range []string{"page=0", "limit=101", "sort_by=likes", "order=up", "page=abc", "author_id=0"} {
		w := env.do(http.MethodGet, "/api/v1/posts?"+q, "", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", q, w.Code)
			continue
		}
		if code := errorCode(t, w); code != domain.CodeValidation {
			t.Errorf("%s: code = %q", q, code)
		}
	}
}

func TestPostHandler_UpdateAndDelete(t *testing.T) {
	env := setupPostRouter(t)
	env.do(http.MethodPost, "/api/v1/posts", "user-1", `{"title":"mine","content":"c"}`)

	w := env.do(http.MethodPut, "/api/v1/posts/1", "user-2", `{"title":"stolen","content":"c"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign update: expected status 403, got %d", w.Code)
	}

	w = env.do(http.MethodPut, "/api/v1/posts/1", "user-1", `{"title":"edited","content":"c2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var got domain.Post
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "edited" {
		t.Errorf("Title = %q", got.Title)
	}

	w = env.do(http.MethodDelete, "/api/v1/posts/1", "user-2", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: expected status 403, got %d", w.Code)
	}

	w = env.do(http.MethodDelete, "/api/v1/posts/1", "user-1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/v1/posts/1", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: expected status 404, got %d", w.Code)
	}
}

func TestPostHandler_WritesRequirePrincipal(t *testing.T) {
	// Registered without the auth middleware, writes still refuse to run.
	h := NewPostHandler(NewPostService(newMockRepo(), nil, 0, nil))
	r := gin.New()
	r.POST("/posts", h.Create)
	r.PUT("/posts/:id", h.Update)
	r.DELETE("/posts/:id", h.Delete)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/posts"},
		{http.MethodPut, "/posts/1"},
		{http.MethodDelete, "/posts/1"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"title":"a","content":"b"}`)))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}
