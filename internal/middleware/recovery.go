package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/pkg"
)

// Recovery returns a gin middleware that recovers from panics, logs the value
// with its stack trace and responds with the 500 error envelope.
//
// It replaces gin.Recovery() so that panics are logged with the request's
// context attributes (request_id, user_id).
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", r),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				pkg.Error(c, domain.NewAppError(domain.CodeInternal, "panic", fmt.Errorf("%v", r)))
			}
		}()
		c.Next()
	}
}
