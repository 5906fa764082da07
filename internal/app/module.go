package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// Public routes go on api; routes that need a current user go on authed,
// which already runs the authentication middleware.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, authed *gin.RouterGroup)
}
