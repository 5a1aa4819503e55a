package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/response"
)

type authService interface {
	RequestSystems(ctx context.Context, sess *models.Session, email, password string) ([]models.System, error)
	Login(ctx context.Context, sess *models.Session, systemID string) error
	BackToCredentials(sess *models.Session)
	Logout(sess *models.Session)
}

// AuthHandler serves the two-step login and the theme toggle.
type AuthHandler struct {
	auth     authService
	sessions sessionService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth authService, sessions sessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// LoginPage renders the credential form, or the system choice while a
// login is pending.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess.Authenticated(time.Now()) {
		redirect(c, h.sessions, sess, "/users")
		return
	}
	view := dto.LoginView{LayoutView: layoutFor(sess, "Sign in")}
	if !sess.Pending.Expired(time.Now()) {
		view.Email = sess.Pending.Email
		view.Systems = sess.Pending.Systems
	} else {
		sess.Pending = nil
	}
	render(c, h.sessions, sess, http.StatusOK, "login.html", view)
}

// RequestSystems handles login step one.
func (h *AuthHandler) RequestSystems(c *gin.Context) {
	sess := sessionFromContext(c)
	email := c.PostForm("email")

	if _, err := h.auth.RequestSystems(c.Request.Context(), sess, email, c.PostForm("password")); err != nil {
		appErr := appErrors.FromError(err)
		render(c, h.sessions, sess, appErr.Status, "login.html", dto.LoginView{
			LayoutView: layoutFor(sess, "Sign in"),
			Email:      email,
			Error:      appErr.Message,
		})
		return
	}
	redirect(c, h.sessions, sess, "/")
}

// Login handles login step two.
func (h *AuthHandler) Login(c *gin.Context) {
	sess := sessionFromContext(c)
	err := h.auth.Login(c.Request.Context(), sess, c.PostForm("system"))
	switch {
	case err == nil:
		sess.SetFlash(models.FlashSuccess, "Welcome, "+sess.Email)
		redirect(c, h.sessions, sess, "/users")
	case errors.Is(err, appErrors.ErrLoginNotStarted):
		sess.SetFlash(models.FlashWarning, appErrors.FromError(err).Message)
		redirect(c, h.sessions, sess, "/")
	default:
		appErr := appErrors.FromError(err)
		view := dto.LoginView{LayoutView: layoutFor(sess, "Sign in"), Error: appErr.Message}
		if sess.Pending != nil {
			view.Email = sess.Pending.Email
			view.Systems = sess.Pending.Systems
		}
		render(c, h.sessions, sess, appErr.Status, "login.html", view)
	}
}

// Back returns from the system choice to the credential form.
func (h *AuthHandler) Back(c *gin.Context) {
	sess := sessionFromContext(c)
	h.auth.BackToCredentials(sess)
	redirect(c, h.sessions, sess, "/")
}

// Logout signs the session out.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessionFromContext(c)
	h.auth.Logout(sess)
	sess.SetFlash(models.FlashSuccess, "You have been signed out")
	redirect(c, h.sessions, sess, "/")
}

// ToggleTheme flips the colour scheme and returns to the submitting page.
func (h *AuthHandler) ToggleTheme(c *gin.Context) {
	sess := sessionFromContext(c)
	if err := h.sessions.ToggleTheme(c.Request.Context(), sess); err != nil {
		renderError(c, sess, err)
		return
	}
	back := "/"
	if ref, err := refererPath(c); err == nil {
		back = ref
	}
	response.SeeOther(c, safeLocal(back, "/"))
}
