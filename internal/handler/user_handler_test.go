package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/account-console/internal/forms"
	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/internal/service"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
)

func TestUserHandlerListRendersPage(t *testing.T) {
	users := newUserServiceMock(t)
	users.users = sampleUsers(12)
	sessions := &sessionServiceMock{}
	h := NewUserHandler(users, &exportServiceMock{}, sessions)
	sess := signedInSession()
	sess.SetFlash(models.FlashSuccess, "User created")
	c, w := newPageContext(t, http.MethodGet, "/users?page=2", nil, sess)

	serve(c, h.List)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 2, users.listPage)
	assert.Contains(t, body, "User 11")
	assert.NotContains(t, body, "User 10<")
	assert.Contains(t, body, "Showing 11–12 of 12")
	assert.Contains(t, body, "Operator")
	assert.Contains(t, body, "User created")
	assert.Contains(t, body, "Back office")
	assert.Nil(t, sess.Flash)
	assert.Equal(t, 1, sessions.saved)
}

func TestUserHandlerListClampsPage(t *testing.T) {
	users := newUserServiceMock(t)
	users.users = sampleUsers(3)
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodGet, "/users?page=7", nil, sess)

	serve(c, h.List)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sess.List.Page)
	assert.Contains(t, w.Body.String(), "Showing 1–3 of 3")
}

func TestUserHandlerListEmpty(t *testing.T) {
	users := newUserServiceMock(t)
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodGet, "/users", nil, signedInSession())

	serve(c, h.List)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No users match the current filters.")
	assert.Contains(t, w.Body.String(), "Showing 0–0 of 0")
}

func TestUserHandlerListSessionExpired(t *testing.T) {
	users := newUserServiceMock(t)
	users.listErr = appErrors.Clone(appErrors.ErrSessionExpired, "")
	sessions := &sessionServiceMock{}
	h := NewUserHandler(users, &exportServiceMock{}, sessions)
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodGet, "/users", nil, sess)

	serve(c, h.List)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, 1, sessions.expired)
	assert.Empty(t, sess.Token)
	require.NotNil(t, sess.Flash)
	assert.Equal(t, models.FlashWarning, sess.Flash.Kind)
}

func TestUserHandlerListUpstreamFailure(t *testing.T) {
	users := newUserServiceMock(t)
	users.listErr = appErrors.ErrUpstreamUnavailable
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodGet, "/users", nil, signedInSession())

	serve(c, h.List)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection error, check your network")
}

func TestUserHandlerSearchAndFilters(t *testing.T) {
	h := NewUserHandler(newUserServiceMock(t), &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	sess.List.SetPage(3)

	c, w := newPageContext(t, http.MethodPost, "/users/search", url.Values{"q": {"ana"}}, sess)
	serve(c, h.Search)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
	assert.Equal(t, "ana", sess.List.Filter.NameQuery)
	assert.Equal(t, 1, sess.List.Page)

	sess.List.SetPage(2)
	c, w = newPageContext(t, http.MethodPost, "/users/filters", url.Values{
		"level":  {"lvl-op", "lvl-admin", "lvl-op"},
		"status": {"inactive"},
	}, sess)
	serve(c, h.Filters)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"lvl-op", "lvl-admin"}, sess.List.Filter.Levels)
	assert.Equal(t, models.StatusInactive, sess.List.Filter.Status)
	assert.Equal(t, "ana", sess.List.Filter.NameQuery)
	assert.Equal(t, 1, sess.List.Page)

	c, w = newPageContext(t, http.MethodPost, "/users/filters/clear", url.Values{}, sess)
	serve(c, h.ClearFilters)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, sess.List.Filter.IsZero())
}

func TestUserHandlerExport(t *testing.T) {
	exports := &exportServiceMock{file: &service.ExportFile{
		Filename:    "users-20240101-120000.csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte("Name,Nickname,Email,Level,Status\n"),
	}}
	h := NewUserHandler(newUserServiceMock(t), exports, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodGet, "/users/export?format=csv", nil, signedInSession())

	serve(c, h.Export)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, `attachment; filename="users-20240101-120000.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Name,Nickname,Email,Level,Status\n", w.Body.String())
}

func TestUserHandlerExportFailureFlashes(t *testing.T) {
	exports := &exportServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	h := NewUserHandler(newUserServiceMock(t), exports, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodGet, "/users/export?format=xls", nil, sess)

	serve(c, h.Export)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.NotNil(t, sess.Flash)
	assert.Equal(t, models.FlashError, sess.Flash.Kind)
	assert.Equal(t, "unsupported export format", sess.Flash.Message)
}

func TestUserHandlerNewRendersCreateFields(t *testing.T) {
	h := NewUserHandler(newUserServiceMock(t), &exportServiceMock{}, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodGet, "/users/new", nil, signedInSession())

	serve(c, h.New)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/users"`)
	assert.Contains(t, body, `name="password_confirm"`)
	assert.Contains(t, body, `<option value="lvl-admin" >Administrator</option>`)
	assert.NotContains(t, body, `name="deactivated"`)
}

func createForm() url.Values {
	return url.Values{
		"name":             {" Ana Souza "},
		"email":            {"ana@example.com"},
		"level":            {"lvl-op"},
		"password":         {"secret1"},
		"password_confirm": {"secret1"},
	}
}

func TestUserHandlerCreateSuccess(t *testing.T) {
	users := newUserServiceMock(t)
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodPost, "/users", createForm(), sess)

	serve(c, h.Create)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
	assert.Equal(t, "Ana Souza", users.created.Get("name"))
	assert.Equal(t, "secret1", users.created.Get("password"))
	require.NotNil(t, sess.Flash)
	assert.Equal(t, models.FlashSuccess, sess.Flash.Kind)
	assert.Equal(t, "User created", sess.Flash.Message)
}

func TestUserHandlerCreateFieldErrors(t *testing.T) {
	users := newUserServiceMock(t)
	users.writeErr = forms.FieldErrors{{Field: "level", Label: "Level", Message: "Select a level from the list"}}
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodPost, "/users", createForm(), signedInSession())

	serve(c, h.Create)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Select a level from the list")
	assert.Contains(t, body, `value="Ana Souza"`)
	assert.Contains(t, body, `<option value="lvl-op" selected>Operator</option>`)
	assert.NotContains(t, body, "secret1")
}

func TestUserHandlerCreateConflict(t *testing.T) {
	users := newUserServiceMock(t)
	users.writeErr = appErrors.ErrEmailTaken
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodPost, "/users", createForm(), signedInSession())

	serve(c, h.Create)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email already registered")
}

func TestUserHandlerCreateNotVisibleWarns(t *testing.T) {
	users := newUserServiceMock(t)
	users.writeErr = appErrors.Clone(appErrors.ErrWriteNotVisible, "")
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodPost, "/users", createForm(), sess)

	serve(c, h.Create)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
	require.NotNil(t, sess.Flash)
	assert.Equal(t, models.FlashWarning, sess.Flash.Kind)
	assert.Equal(t, appErrors.ErrWriteNotVisible.Message, sess.Flash.Message)
}

func TestUserHandlerCreateSessionExpired(t *testing.T) {
	users := newUserServiceMock(t)
	users.writeErr = appErrors.Clone(appErrors.ErrSessionExpired, "")
	sessions := &sessionServiceMock{}
	h := NewUserHandler(users, &exportServiceMock{}, sessions)
	c, w := newPageContext(t, http.MethodPost, "/users", createForm(), signedInSession())

	serve(c, h.Create)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, 1, sessions.expired)
}

func TestUserHandlerEditPrefillsForm(t *testing.T) {
	users := newUserServiceMock(t)
	users.user = &models.User{ID: "u1", DisplayName: "Ana Souza", Email: "ana@example.com", LevelID: "lvl-admin", Deactivated: true}
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	c, w := newPageContext(t, http.MethodGet, "/users/u1/edit", nil, signedInSession())
	c.AddParam("id", "u1")

	serve(c, h.Edit)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/users/u1"`)
	assert.Contains(t, body, `value="ana@example.com"`)
	assert.Contains(t, body, "readonly")
	assert.Contains(t, body, `name="deactivated" value="true" checked`)
	assert.Contains(t, body, `<option value="lvl-admin" selected>Administrator</option>`)
	assert.NotContains(t, body, `name="password"`)
}

func TestUserHandlerEditMissingUser(t *testing.T) {
	users := newUserServiceMock(t)
	users.getErr = appErrors.ErrNotFound
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodGet, "/users/nope/edit", nil, sess)
	c.AddParam("id", "nope")

	serve(c, h.Edit)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
	require.NotNil(t, sess.Flash)
	assert.Equal(t, appErrors.ErrNotFound.Message, sess.Flash.Message)
}

func TestUserHandlerUpdate(t *testing.T) {
	users := newUserServiceMock(t)
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodPost, "/users/u1", url.Values{
		"name":  {"Ana Souza"},
		"email": {"ana@example.com"},
		"level": {"lvl-op"},
	}, sess)
	c.AddParam("id", "u1")

	serve(c, h.Update)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "u1", users.updatedID)
	assert.Equal(t, "false", users.updated.Get("deactivated"))
	require.NotNil(t, sess.Flash)
	assert.Equal(t, "User updated", sess.Flash.Message)
}

func TestUserHandlerDeactivateAndReactivate(t *testing.T) {
	users := newUserServiceMock(t)
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})

	sess := signedInSession()
	c, w := newPageContext(t, http.MethodPost, "/users/u1/deactivate", url.Values{}, sess)
	c.AddParam("id", "u1")
	serve(c, h.Deactivate)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "u1", users.deactivated)
	assert.Equal(t, "User deactivated", sess.Flash.Message)

	c, w = newPageContext(t, http.MethodPost, "/users/u1/reactivate", url.Values{}, sess)
	c.AddParam("id", "u1")
	serve(c, h.Reactivate)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "u1", users.reactivated)
	assert.Equal(t, "User reactivated", sess.Flash.Message)
}

func TestUserHandlerDeactivateFailureFlashes(t *testing.T) {
	users := newUserServiceMock(t)
	users.writeErr = appErrors.ErrForbidden
	h := NewUserHandler(users, &exportServiceMock{}, &sessionServiceMock{})
	sess := signedInSession()
	c, w := newPageContext(t, http.MethodPost, "/users/u1/deactivate", url.Values{}, sess)
	c.AddParam("id", "u1")

	serve(c, h.Deactivate)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.NotNil(t, sess.Flash)
	assert.Equal(t, models.FlashError, sess.Flash.Kind)
	assert.Equal(t, appErrors.ErrForbidden.Message, sess.Flash.Message)
}
