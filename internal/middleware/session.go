package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/internal/service"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/response"
)

// ContextSessionKey is the gin context key storing the console session.
const ContextSessionKey = "consoleSession"

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Session loads the session named by the cookie, starting a fresh anonymous
// one when it is missing or unknown.
func Session(sessions *service.SessionService, cookie CookieConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, _ := c.Cookie(cookie.Name)

		sess, err := sessions.Load(ctx, id)
		if err != nil {
			if !errors.Is(err, appErrors.ErrSessionNotFound) {
				logger.Error("session load failed", zap.Error(err))
				response.Error(c, err)
				c.Abort()
				return
			}
			if sess, err = sessions.Start(ctx); err != nil {
				logger.Error("session start failed", zap.Error(err))
				response.Error(c, err)
				c.Abort()
				return
			}
		}

		if sess.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookie.Name, sess.ID, int(cookie.MaxAge.Seconds()), "/", "", cookie.Secure, true)
		}
		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}

// RequireAuth blocks requests whose session holds no live token. Requests
// under jsonPrefix receive a 401 envelope; pages redirect to the login form.
func RequireAuth(jsonPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFromContext(c)
		if sess.Authenticated(time.Now()) {
			c.Next()
			return
		}
		if WantsJSON(c, jsonPrefix) {
			response.Error(c, appErrors.ErrUnauthorized)
		} else {
			c.Redirect(http.StatusSeeOther, "/")
		}
		c.Abort()
	}
}

// WantsJSON reports whether the request belongs to the JSON API.
func WantsJSON(c *gin.Context, jsonPrefix string) bool {
	if jsonPrefix != "" && strings.HasPrefix(c.Request.URL.Path, jsonPrefix) {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// SessionFromContext returns the session attached by Session, or nil.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	sess, _ := value.(*models.Session)
	return sess
}
