package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireModerator must run after RequireAuth.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "not_authenticated",
					"message": "Missing identity context",
				},
			})
			return
		}
		if !s.Moderator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Moderator access required",
				},
			})
			return
		}
		c.Next()
	}
}
