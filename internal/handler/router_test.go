package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/repository"
	"github.com/noah-isme/account-console/internal/service"
	"github.com/noah-isme/account-console/pkg/config"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Session:   config.SessionConfig{CookieName: "console_session", TTL: time.Hour},
	}
	sessions := service.NewSessionService(repository.NewMemorySessionRepository(), service.SessionConfig{TTL: time.Hour}, nil)
	metrics := service.NewMetricsService()
	users := newUserServiceMock(t)

	r, err := NewRouter(RouterDeps{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Metrics:  metrics,
		Sessions: sessions,
	}, Handlers{
		Auth:    NewAuthHandler(&authServiceMock{}, sessions),
		Users:   NewUserHandler(users, &exportServiceMock{}, sessions),
		API:     NewAPIHandler(users, sessions),
		Metrics: NewMetricsHandler(metrics, map[string]Pinger{"account_api": pingerStub{}}),
	})
	require.NoError(t, err)
	return r
}

func TestRouterLoginPageIssuesCookie(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sign in")
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, "console_session", w.Result().Cookies()[0].Name)
}

func TestRouterGuardsConsoleAndAPI(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterOpsRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/health", "/ready", "/metrics", "/static/console.css"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Result().Cookies(), path)
	}
}
