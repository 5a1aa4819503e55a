package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/middleware"
	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/response"
)

type sessionService interface {
	Save(ctx context.Context, sess *models.Session) error
	Expire(ctx context.Context, sess *models.Session) error
	ToggleTheme(ctx context.Context, sess *models.Session) error
}

func sessionFromContext(c *gin.Context) *models.Session {
	if sess := middleware.SessionFromContext(c); sess != nil {
		return sess
	}
	return &models.Session{Theme: models.ThemeDark}
}

// layoutFor builds the shared page header and consumes the pending flash.
func layoutFor(sess *models.Session, title string) dto.LayoutView {
	return dto.LayoutView{
		Title:      title,
		Theme:      models.ParseTheme(string(sess.Theme)),
		SignedIn:   sess.Token != "",
		Email:      sess.Email,
		SystemName: sess.SystemName,
		Flash:      sess.TakeFlash(),
	}
}

// render saves the session and renders name.
func render(c *gin.Context, sessions sessionService, sess *models.Session, status int, name string, data interface{}) {
	if err := sessions.Save(c.Request.Context(), sess); err != nil {
		_ = c.Error(err)
	}
	response.HTML(c, status, name, data)
}

// redirect saves the session and answers 303 to location.
func redirect(c *gin.Context, sessions sessionService, sess *models.Session, location string) {
	if err := sessions.Save(c.Request.Context(), sess); err != nil {
		renderError(c, sess, err)
		return
	}
	response.SeeOther(c, location)
}

// expiredOrFail signs the session out and returns to the login page when err
// is an upstream session expiry. It reports whether it handled err.
func expiredOrFail(c *gin.Context, sessions sessionService, sess *models.Session, err error) bool {
	if !appErrors.HasCode(err, appErrors.ErrSessionExpired.Code) {
		return false
	}
	if saveErr := sessions.Expire(c.Request.Context(), sess); saveErr != nil {
		_ = c.Error(saveErr)
	}
	response.SeeOther(c, "/")
	return true
}

func renderError(c *gin.Context, sess *models.Session, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	status := appErr.Status
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	response.HTML(c, status, "error.html", dto.ErrorView{
		LayoutView: layoutFor(sess, "Error"),
		Status:     status,
		Message:    appErr.Message,
	})
}

// safeLocal accepts only same-origin absolute paths.
func safeLocal(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// refererPath returns the path of a same-host Referer header.
func refererPath(c *gin.Context) (string, error) {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil {
		return "", err
	}
	if ref.Host != "" && ref.Host != c.Request.Host {
		return "", fmt.Errorf("foreign referer %s", ref.Host)
	}
	if ref.Path == "" {
		return "", fmt.Errorf("empty referer")
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery, nil
	}
	return ref.Path, nil
}
