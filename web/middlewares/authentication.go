package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/security"
	"zentrix.com/portal/web/common"
)

const SessionCookie = "portal.session"

func tokenFrom(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// Try to get from cookie
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie == "" {
			return "", false
		}
		return cookie, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authentication checks for a valid session token and sets the viewer
func Authentication(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := tokenFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("missing session token"))
			return
		}

		claims, err := security.ParseSessionToken(tokenStr, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set("claims", claims)
		common.SetViewer(c, model.Viewer{
			Name:     claims.Name,
			Username: claims.Username,
			Role:     claims.Role,
		})
		c.Next()
	}
}

// RequireAdmin rejects callers whose role is not admin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !common.CurrentViewer(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("admin access required"))
			return
		}
		c.Next()
	}
}
