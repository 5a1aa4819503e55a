package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/internal/repository"
	"github.com/noah-isme/account-console/internal/service"
)

var testCookie = CookieConfig{Name: "console_session", MaxAge: time.Hour}

func newSessionRouter(sessions *service.SessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(sessions, testCookie, nil))
	r.GET("/whoami", func(c *gin.Context) {
		sess := SessionFromContext(c)
		c.String(http.StatusOK, sess.ID)
	})
	return r
}

func TestSessionStartsAndReusesSession(t *testing.T) {
	store := repository.NewMemorySessionRepository()
	sessions := service.NewSessionService(store, service.SessionConfig{}, nil)
	r := newSessionRouter(sessions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Body.String()
	require.NotEmpty(t, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "console_session", cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 1, store.Count())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "console_session", Value: id})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Body.String())
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, 1, store.Count())
}

func TestSessionReplacesUnknownCookie(t *testing.T) {
	store := repository.NewMemorySessionRepository()
	r := newSessionRouter(service.NewSessionService(store, service.SessionConfig{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "console_session", Value: "forged"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "forged", w.Body.String())
	require.Len(t, w.Result().Cookies(), 1)
}

func newAuthRouter(sess *models.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if sess != nil {
			c.Set(ContextSessionKey, sess)
		}
		c.Next()
	})
	guarded := r.Group("/", RequireAuth("/api/v1"))
	guarded.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	guarded.GET("/api/v1/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequireAuthRedirectsPages(t *testing.T) {
	r := newAuthRouter(&models.Session{ID: "s"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRequireAuthRejectsJSON(t *testing.T) {
	r := newAuthRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsLapsedToken(t *testing.T) {
	r := newAuthRouter(&models.Session{ID: "s", Token: "t", ExpiresAt: time.Now().Add(-time.Minute)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRequireAuthPassesLiveSession(t *testing.T) {
	r := newAuthRouter(&models.Session{ID: "s", Token: "t", ExpiresAt: time.Now().Add(time.Hour)})

	for _, path := range []string{"/users", "/api/v1/users"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
