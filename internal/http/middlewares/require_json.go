package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects bodies that are not application/json. Bodyless
// writes (logout, join) pass.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || mt != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": "Content-Type must be application/json",
					},
				})
				return
			}
		}
		c.Next()
	}
}
