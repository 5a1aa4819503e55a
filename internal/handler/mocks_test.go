package handler

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/forms"
	"github.com/noah-isme/account-console/internal/listview"
	"github.com/noah-isme/account-console/internal/middleware"
	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/internal/service"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/web"
)

// newPageContext builds a test context able to render console templates.
func newPageContext(t *testing.T, method, target string, form url.Values, sess *models.Session) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	tmpl, err := web.Templates()
	require.NoError(t, err)
	engine.SetHTMLTemplate(tmpl)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	c.Request = req
	if sess != nil {
		c.Set(middleware.ContextSessionKey, sess)
	}
	return c, w
}

// serve runs handler and flushes the status it set, as the engine does once
// the chain returns. Redirects and bare statuses write no body otherwise.
func serve(c *gin.Context, handler gin.HandlerFunc) {
	handler(c)
	c.Writer.WriteHeaderNow()
}

func signedInSession() *models.Session {
	return &models.Session{
		ID:         "sess-1",
		Theme:      models.ThemeDark,
		Token:      "token-1",
		Email:      "ana@example.com",
		SystemID:   "sys-1",
		SystemName: "Back office",
		ExpiresAt:  time.Now().Add(time.Hour),
		List:       models.NewListState(10),
	}
}

type sessionServiceMock struct {
	saved   int
	saveErr error
	expired int
	toggled int
}

func (m *sessionServiceMock) Save(ctx context.Context, sess *models.Session) error {
	m.saved++
	return m.saveErr
}

func (m *sessionServiceMock) Expire(ctx context.Context, sess *models.Session) error {
	m.expired++
	sess.ClearAuth()
	sess.SetFlash(models.FlashWarning, appErrors.ErrSessionExpired.Message)
	return nil
}

func (m *sessionServiceMock) ToggleTheme(ctx context.Context, sess *models.Session) error {
	m.toggled++
	sess.Theme = sess.Theme.Toggle()
	return nil
}

type authServiceMock struct {
	systems    []models.System
	requestErr error
	loginErr   error
	lastEmail  string
	lastSystem string
}

func (m *authServiceMock) RequestSystems(ctx context.Context, sess *models.Session, email, password string) ([]models.System, error) {
	m.lastEmail = email
	if m.requestErr != nil {
		return nil, m.requestErr
	}
	sess.Pending = &models.PendingLogin{Email: email, Password: []byte(password), Systems: m.systems, ExpiresAt: time.Now().Add(time.Minute)}
	return m.systems, nil
}

func (m *authServiceMock) Login(ctx context.Context, sess *models.Session, systemID string) error {
	m.lastSystem = systemID
	if m.loginErr != nil {
		return m.loginErr
	}
	sess.Token = "token-1"
	sess.Email = sess.Pending.Email
	sess.SystemID = systemID
	sess.ExpiresAt = time.Now().Add(time.Hour)
	sess.Pending = nil
	return nil
}

func (m *authServiceMock) BackToCredentials(sess *models.Session) {
	sess.Pending = nil
}

func (m *authServiceMock) Logout(sess *models.Session) {
	sess.ClearAuth()
}

type userServiceMock struct {
	form        *forms.Form
	users       []models.User
	listErr     error
	user        *models.User
	getErr      error
	levels      []models.Level
	levelsErr   error
	writeErr    error
	listPage    int
	created     forms.Values
	updatedID   string
	updated     forms.Values
	deactivated string
	reactivated string
}

func newUserServiceMock(t *testing.T) *userServiceMock {
	t.Helper()
	form, err := forms.Load(validator.New())
	require.NoError(t, err)
	return &userServiceMock{
		form:   form,
		levels: []models.Level{{ID: "lvl-admin", Description: "Administrator"}, {ID: "lvl-op", Description: "Operator"}},
	}
}

func (m *userServiceMock) Form() *forms.Form {
	return m.form
}

func (m *userServiceMock) List(ctx context.Context, sess *models.Session) (*dto.UserPage, error) {
	m.listPage = sess.List.Page
	if m.listErr != nil {
		return nil, m.listErr
	}
	res := listview.Apply(&sess.List, m.users, sess.List.PageSize)
	return &dto.UserPage{
		Result: res,
		Pager:  listview.NewPager(res.Page, res.TotalPages),
		Filter: sess.List.Filter,
		Levels: m.levels,
	}, nil
}

func (m *userServiceMock) Query(ctx context.Context, token string, q dto.UserQuery) (listview.Result, error) {
	if m.listErr != nil {
		return listview.Result{}, m.listErr
	}
	size := q.PageSize
	if size <= 0 {
		size = 10
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	return listview.Recompute(m.users, q.Filter(), page, size), nil
}

func (m *userServiceMock) Get(ctx context.Context, token, id string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *userServiceMock) Levels(ctx context.Context, sess *models.Session) ([]models.Level, error) {
	if m.levelsErr != nil {
		return nil, m.levelsErr
	}
	return m.levels, nil
}

func (m *userServiceMock) Create(ctx context.Context, sess *models.Session, values forms.Values) error {
	m.created = values
	return m.writeErr
}

func (m *userServiceMock) Update(ctx context.Context, sess *models.Session, id string, values forms.Values) error {
	m.updatedID = id
	m.updated = values
	return m.writeErr
}

func (m *userServiceMock) Deactivate(ctx context.Context, sess *models.Session, id string) error {
	m.deactivated = id
	return m.writeErr
}

func (m *userServiceMock) Reactivate(ctx context.Context, sess *models.Session, id string) error {
	m.reactivated = id
	return m.writeErr
}

type exportServiceMock struct {
	file   *service.ExportFile
	err    error
	format string
}

func (m *exportServiceMock) Export(ctx context.Context, sess *models.Session, format string) (*service.ExportFile, error) {
	m.format = format
	return m.file, m.err
}

func sampleUsers(n int) []models.User {
	users := make([]models.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, models.User{
			ID:          fmt.Sprintf("u%03d", i),
			DisplayName: fmt.Sprintf("User %d", i),
			Email:       fmt.Sprintf("user%d@example.com", i),
			LevelID:     "lvl-op",
			Deactivated: i%4 == 0,
		})
	}
	return users
}
