package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
	"github.com/oksasatya/loan-simulator/pkg/response"
)

const (
	CtxUserID    = "userID"
	CtxUserName  = "userName"
	CtxUserEmail = "userEmail"
	CtxUserRole  = "userRole"
)

func abort(c *gin.Context, status int, msg string, err interface{}) {
	response.Error[any](c, status, msg, err)
	c.Abort()
}

// Auth validates the access token and requires it to belong to the user's
// current session. It sets userID, userName, userEmail and userRole on success.
func Auth(sessions repository.SessionRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.AccessToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		sess, err := sessions.GetCurrentUser(c.Request.Context(), claims.UserID)
		if err != nil || sess.SessionID != claims.SessionID {
			abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set(CtxUserID, sess.UserID)
		c.Set(CtxUserName, sess.Name)
		c.Set(CtxUserEmail, sess.Email)
		c.Set(CtxUserRole, string(sess.Role))
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := entity.Role(c.GetString(CtxUserRole))
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden", nil)
	}
}
