package pkg

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/microblog/internal/domain"
)

// Messages returned in the error envelope when the cause must stay private.
const (
	MsgUnauthorized = "could not validate credentials"
	MsgInternal     = "internal error"
)

// ErrorBody is the payload of the error envelope.
type ErrorBody struct {
	Code    domain.Code    `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ErrorResponse is the JSON envelope for every error response:
//
//	{"error": {"code": "...", "message": "...", "details": {}}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Success sends a 200 JSON response with data as the body.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 JSON response with data as the body.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts the request with the envelope matching err.
//
// Authentication failures all render the same generic 401; their kind is
// only logged. Internal errors expose no detail and are logged with the cause.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	ctx := c.Request.Context()
	body := ErrorBody{Code: domain.CodeInternal, Message: MsgInternal, Details: map[string]any{}}

	var appErr *domain.AppError
	if kind, ok := domain.AuthFailureOf(err); ok {
		slog.WarnContext(ctx, "authentication failed",
			slog.String("auth_failure", string(kind)),
			slog.String("path", c.Request.URL.Path),
		)
		body.Code = domain.CodeUnauthorized
		body.Message = MsgUnauthorized
	} else if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		body.Code = appErr.Code
		body.Message = appErr.Message
		if appErr.Code == domain.CodeUnauthorized {
			body.Message = MsgUnauthorized
		}
		if appErr.Details != nil {
			body.Details = appErr.Details
		}
	} else {
		slog.ErrorContext(ctx, "request failed",
			slog.String("error", errString(err)),
			slog.String("path", c.Request.URL.Path),
		)
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}

// BindAndValidate binds the request body to obj and validates it.
// On failure it sends a validation error envelope and returns false.
// Detail keys use the struct's json tags.
// Usage in handlers:
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		Error(c, bindingFailure(err, obj, "json"))
		return false
	}
	return true
}

// fieldErrors maps each failed field to its violated rule, e.g. "min=8".
func fieldErrors(ve validator.ValidationErrors, obj any, tagKey string) map[string]any {
	names := buildTagMap(obj, tagKey)

	details := make(map[string]any, len(ve))
	for _, fe := range ve {
		name, ok := names[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		details[name] = msg
	}
	return details
}

// buildTagMap returns a map from struct field name to its tagKey tag name.
// If obj is nil or not a struct (pointer), it returns nil.
func buildTagMap(obj any, tagKey string) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := parseTagName(f.Tag.Get(tagKey)); name != "" {
			m[f.Name] = name
		}
	}
	return m
}

// parseTagName extracts the field name from a json or form struct tag value.
func parseTagName(tag string) string {
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return ""
	}
	return name
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
