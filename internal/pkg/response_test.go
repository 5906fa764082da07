package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
)

// newResponseTestContext creates a gin context backed by an httptest.ResponseRecorder.
func newResponseTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// newResponseTestContextWithBody creates a gin context with a JSON request body.
func newResponseTestContextWithBody(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body %s)", err, w.Body.String())
	}
	return resp.Error
}

func TestSuccessHelpers(t *testing.T) {
	c, w := newResponseTestContext()
	Success(c, map[string]string{"greeting": "hello"})
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["greeting"] != "hello" {
		t.Errorf("expected raw body, got %s", w.Body.String())
	}

	c, w = newResponseTestContext()
	Created(c, gin.H{"id": 1})
	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	c, w = newResponseTestContext()
	NoContent(c)
	c.Writer.WriteHeaderNow()
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("expected empty 204, got %d %q", w.Code, w.Body.String())
	}
}

func TestError_AppErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   domain.Code
		wantMsg    string
	}{
		{"not found", domain.NewAppError(domain.CodeNotFound, "post not found", nil), http.StatusNotFound, domain.CodeNotFound, "post not found"},
		{"conflict", domain.NewAppError(domain.CodeAlreadyExists, "username or email already registered", nil), http.StatusBadRequest, domain.CodeAlreadyExists, "username or email already registered"},
		{"validation", domain.NewValidationError("validation error", nil), http.StatusBadRequest, domain.CodeValidation, "validation error"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, domain.CodeForbidden, "forbidden"},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, domain.CodeRateLimited, "too many requests"},
		{"wrapped", fmt.Errorf("load: %w", domain.ErrNotFound), http.StatusNotFound, domain.CodeNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContext()
			Error(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			body := decodeError(t, w)
			if body.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, body.Code)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, body.Message)
			}
			if body.Details == nil {
				t.Error("expected details to be an object, got null")
			}
			if !c.IsAborted() {
				t.Error("expected the chain to be aborted")
			}
		})
	}
}

func TestError_AuthFailuresAreGeneric(t *testing.T) {
	kinds := []domain.AuthFailureKind{
		domain.AuthMissingToken,
		domain.AuthMalformed,
		domain.AuthBadSignature,
		domain.AuthExpired,
		domain.AuthPrincipalNotFound,
		domain.AuthBadCredentials,
	}

	var bodies []string
	for _, kind := range kinds {
		c, w := newResponseTestContext()
		Error(c, domain.NewAuthError(kind, errors.New("secret detail")))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", kind, w.Code)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("%s: expected WWW-Authenticate Bearer, got %q", kind, got)
		}
		body := decodeError(t, w)
		if body.Code != domain.CodeUnauthorized || body.Message != MsgUnauthorized {
			t.Errorf("%s: unexpected body %+v", kind, body)
		}
		if strings.Contains(w.Body.String(), string(kind)) || strings.Contains(w.Body.String(), "secret detail") {
			t.Errorf("%s: failure kind leaked into body %s", kind, w.Body.String())
		}
		bodies = append(bodies, w.Body.String())
	}

	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Errorf("auth failure bodies differ: %s vs %s", bodies[0], b)
		}
	}
}

func TestError_InternalHidesCause(t *testing.T) {
	for name, err := range map[string]error{
		"plain":    errors.New("dial tcp 10.0.0.1:5432: connection refused"),
		"internal": domain.NewAppError(domain.CodeInternal, "database error", errors.New("pq: relation missing")),
		"nil":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			c, w := newResponseTestContext()
			Error(c, err)

			if w.Code != http.StatusInternalServerError {
				t.Errorf("expected status 500, got %d", w.Code)
			}
			body := decodeError(t, w)
			if body.Code != domain.CodeInternal || body.Message != MsgInternal {
				t.Errorf("unexpected body %+v", body)
			}
			if len(body.Details) != 0 {
				t.Errorf("expected empty details, got %v", body.Details)
			}
		})
	}
}

func TestBindAndValidate_InvalidJSON(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"invalid json`)

	type bindInput struct {
		Name string `json:"name" binding:"required"`
	}

	var input bindInput
	if BindAndValidate(c, &input) {
		t.Error("expected BindAndValidate to return false for invalid JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if body := decodeError(t, w); body.Code != domain.CodeValidation {
		t.Errorf("expected validation_error code, got %q", body.Code)
	}
}

func TestBindAndValidate_FieldDetails(t *testing.T) {
	type bindInput struct {
		Username string `json:"username" binding:"required,min=3"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	tests := []struct {
		name  string
		body  string
		wants map[string]string
	}{
		{"missing all", `{}`, map[string]string{"username": "required", "email": "required", "password": "required"}},
		{"bad email and short password", `{"username":"alice","email":"nope","password":"short"}`, map[string]string{"email": "email", "password": "min=8"}},
		{"short username", `{"username":"al","email":"al@example.com","password":"password123"}`, map[string]string{"username": "min=3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContextWithBody(tt.body)
			var input bindInput
			if BindAndValidate(c, &input) {
				t.Fatal("expected BindAndValidate to return false")
			}
			body := decodeError(t, w)
			if body.Code != domain.CodeValidation {
				t.Errorf("expected validation_error, got %q", body.Code)
			}
			if len(body.Details) != len(tt.wants) {
				t.Errorf("expected %d details, got %v", len(tt.wants), body.Details)
			}
			for field, rule := range tt.wants {
				if body.Details[field] != rule {
					t.Errorf("details[%q] = %v; want %q", field, body.Details[field], rule)
				}
			}
		})
	}
}

func TestBindAndValidate_ValidInput(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"name":"Alice","email":"alice@example.com"}`)

	type bindInput struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}

	var input bindInput
	if !BindAndValidate(c, &input) {
		t.Fatal("expected BindAndValidate to return true for valid input")
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body on success, got %q", w.Body.String())
	}
	if input.Name != "Alice" || input.Email != "alice@example.com" {
		t.Errorf("unexpected binding result %+v", input)
	}
}

func TestBuildTagMap(t *testing.T) {
	type sample struct {
		Identifier string `json:"identifier" form:"username"`
		Hidden     string `json:"-" form:"-"`
		Plain      string
	}

	jsonTags := buildTagMap(&sample{}, "json")
	if jsonTags["Identifier"] != "identifier" {
		t.Errorf("json tag: got %q", jsonTags["Identifier"])
	}
	if _, ok := jsonTags["Hidden"]; ok {
		t.Error("json:\"-\" should be skipped")
	}

	formTags := buildTagMap(sample{}, "form")
	if formTags["Identifier"] != "username" {
		t.Errorf("form tag: got %q", formTags["Identifier"])
	}

	if buildTagMap(nil, "json") != nil || buildTagMap(42, "json") != nil {
		t.Error("expected nil map for non-struct input")
	}
}
