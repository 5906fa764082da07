package pkg

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
)

// ParseID reads the positive integer path parameter name.
// It returns a validation error naming the parameter otherwise.
func ParseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, domain.NewValidationError("invalid "+name, map[string]any{name: "must be a positive integer"})
	}
	return uint(id), nil
}
