package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/forms"
	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/internal/service"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/response"
)

type userService interface {
	Form() *forms.Form
	List(ctx context.Context, sess *models.Session) (*dto.UserPage, error)
	Get(ctx context.Context, token, id string) (*models.User, error)
	Levels(ctx context.Context, sess *models.Session) ([]models.Level, error)
	Create(ctx context.Context, sess *models.Session, values forms.Values) error
	Update(ctx context.Context, sess *models.Session, id string, values forms.Values) error
	Deactivate(ctx context.Context, sess *models.Session, id string) error
	Reactivate(ctx context.Context, sess *models.Session, id string) error
}

type exportService interface {
	Export(ctx context.Context, sess *models.Session, format string) (*service.ExportFile, error)
}

// UserHandler serves the user listing and the create and edit forms.
type UserHandler struct {
	users    userService
	exports  exportService
	sessions sessionService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users userService, exports exportService, sessions sessionService) *UserHandler {
	return &UserHandler{users: users, exports: exports, sessions: sessions}
}

// List renders the current page of the listing. A page query parameter moves
// the persisted position.
func (h *UserHandler) List(c *gin.Context) {
	sess := sessionFromContext(c)
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = 1
		}
		sess.List.SetPage(n)
	}

	page, err := h.users.List(c.Request.Context(), sess)
	if err != nil {
		if expiredOrFail(c, h.sessions, sess, err) {
			return
		}
		appErr := appErrors.FromError(err)
		render(c, h.sessions, sess, appErr.Status, "users.html", dto.UserListView{
			LayoutView: layoutFor(sess, "Users"),
			Error:      appErr.Message,
		})
		return
	}

	render(c, h.sessions, sess, http.StatusOK, "users.html", dto.UserListView{
		LayoutView:    layoutFor(sess, "Users"),
		Page:          page,
		StatusOptions: statusOptions(page.Filter.Status),
	})
}

// Search replaces the free-text filter.
func (h *UserHandler) Search(c *gin.Context) {
	sess := sessionFromContext(c)
	sess.List.SetNameQuery(c.PostForm("q"))
	redirect(c, h.sessions, sess, "/users")
}

// Filters replaces the level and status filters.
func (h *UserHandler) Filters(c *gin.Context) {
	sess := sessionFromContext(c)
	sess.List.SetFilters(c.PostFormArray("level"), models.ParseStatusFilter(c.PostForm("status")))
	redirect(c, h.sessions, sess, "/users")
}

// ClearFilters drops every filter.
func (h *UserHandler) ClearFilters(c *gin.Context) {
	sess := sessionFromContext(c)
	sess.List.Reset()
	redirect(c, h.sessions, sess, "/users")
}

// Export downloads the filtered listing.
func (h *UserHandler) Export(c *gin.Context) {
	sess := sessionFromContext(c)
	file, err := h.exports.Export(c.Request.Context(), sess, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		if expiredOrFail(c, h.sessions, sess, err) {
			return
		}
		sess.SetFlash(models.FlashError, appErrors.FromError(err).Message)
		redirect(c, h.sessions, sess, "/users")
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// New renders the empty create form.
func (h *UserHandler) New(c *gin.Context) {
	sess := sessionFromContext(c)
	h.renderForm(c, sess, http.StatusOK, formState{mode: forms.ModeCreate, action: "/users", values: forms.Values{}})
}

// Create submits the create form.
func (h *UserHandler) Create(c *gin.Context) {
	sess := sessionFromContext(c)
	_ = c.Request.ParseForm()
	values := h.users.Form().FromPostForm(forms.ModeCreate, c.Request.PostForm)

	err := h.users.Create(c.Request.Context(), sess, values)
	if h.afterWrite(c, sess, err, "User created") {
		return
	}
	h.renderFailedForm(c, sess, err, formState{mode: forms.ModeCreate, action: "/users", values: values})
}

// Edit renders the edit form for a user.
func (h *UserHandler) Edit(c *gin.Context) {
	sess := sessionFromContext(c)
	user, err := h.users.Get(c.Request.Context(), sess.Token, c.Param("id"))
	if err != nil {
		if expiredOrFail(c, h.sessions, sess, err) {
			return
		}
		sess.SetFlash(models.FlashError, appErrors.FromError(err).Message)
		redirect(c, h.sessions, sess, "/users")
		return
	}
	values := forms.Values{
		"name":        user.DisplayName,
		"nickname":    user.Nickname,
		"email":       user.Email,
		"level":       user.LevelID,
		"deactivated": strconv.FormatBool(user.Deactivated),
	}
	h.renderForm(c, sess, http.StatusOK, formState{mode: forms.ModeEdit, action: "/users/" + user.ID, values: values, user: user})
}

// Update submits the edit form.
func (h *UserHandler) Update(c *gin.Context) {
	sess := sessionFromContext(c)
	id := c.Param("id")
	_ = c.Request.ParseForm()
	values := h.users.Form().FromPostForm(forms.ModeEdit, c.Request.PostForm)

	err := h.users.Update(c.Request.Context(), sess, id, values)
	if h.afterWrite(c, sess, err, "User updated") {
		return
	}
	h.renderFailedForm(c, sess, err, formState{mode: forms.ModeEdit, action: "/users/" + id, values: values})
}

// Deactivate marks a user inactive.
func (h *UserHandler) Deactivate(c *gin.Context) {
	sess := sessionFromContext(c)
	err := h.users.Deactivate(c.Request.Context(), sess, c.Param("id"))
	h.finishActivation(c, sess, err, "User deactivated")
}

// Reactivate marks a user active again.
func (h *UserHandler) Reactivate(c *gin.Context) {
	sess := sessionFromContext(c)
	err := h.users.Reactivate(c.Request.Context(), sess, c.Param("id"))
	h.finishActivation(c, sess, err, "User reactivated")
}

func (h *UserHandler) finishActivation(c *gin.Context, sess *models.Session, err error, success string) {
	if h.afterWrite(c, sess, err, success) {
		return
	}
	sess.SetFlash(models.FlashError, appErrors.FromError(err).Message)
	redirect(c, h.sessions, sess, "/users")
}

// afterWrite redirects to the listing for successful, unverified and
// session-expired writes. It reports whether the response was written.
func (h *UserHandler) afterWrite(c *gin.Context, sess *models.Session, err error, success string) bool {
	switch {
	case err == nil:
		sess.SetFlash(models.FlashSuccess, success)
	case errors.Is(err, appErrors.ErrWriteNotVisible):
		sess.SetFlash(models.FlashWarning, appErrors.FromError(err).Message)
	case expiredOrFail(c, h.sessions, sess, err):
		return true
	default:
		return false
	}
	redirect(c, h.sessions, sess, "/users")
	return true
}

type formState struct {
	mode   forms.Mode
	action string
	values forms.Values
	user   *models.User
	errs   forms.FieldErrors
	err    string
}

func (h *UserHandler) renderFailedForm(c *gin.Context, sess *models.Session, err error, st formState) {
	status := http.StatusUnprocessableEntity
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		st.errs = fe
	} else {
		appErr := appErrors.FromError(err)
		status = appErr.Status
		st.err = appErr.Message
	}
	h.renderForm(c, sess, status, st)
}

func (h *UserHandler) renderForm(c *gin.Context, sess *models.Session, status int, st formState) {
	levels, err := h.users.Levels(c.Request.Context(), sess)
	if err != nil {
		if expiredOrFail(c, h.sessions, sess, err) {
			return
		}
		if st.err == "" {
			st.err = appErrors.FromError(err).Message
		}
	}

	title := "New user"
	if st.mode == forms.ModeEdit {
		title = "Edit user"
	}
	render(c, h.sessions, sess, status, "user_form.html", dto.UserFormView{
		LayoutView: layoutFor(sess, title),
		Mode:       st.mode,
		Action:     st.action,
		User:       st.user,
		Fields:     bindFields(h.users.Form(), st.mode, st.values, st.errs, levels),
		Error:      st.err,
	})
}

func bindFields(form *forms.Form, mode forms.Mode, values forms.Values, errs forms.FieldErrors, levels []models.Level) []dto.FormField {
	fields := form.Fields(mode)
	out := make([]dto.FormField, 0, len(fields))
	for _, f := range fields {
		bound := dto.FormField{
			Field:  f,
			Value:  values.Get(f.Name),
			Locked: f.ReadOnly(mode),
			Error:  errs.For(f.Name),
		}
		switch f.Type {
		case forms.TypeCheckbox:
			bound.Checked = values.Bool(f.Name)
		case forms.TypeSelect:
			for _, l := range levels {
				bound.Options = append(bound.Options, dto.SelectOption{Value: l.ID, Label: l.Label(), Selected: l.ID == bound.Value})
			}
		}
		out = append(out, bound)
	}
	return out
}

func statusOptions(current models.StatusFilter) []dto.StatusOption {
	opts := []dto.StatusOption{
		{Value: models.StatusAny, Label: "All"},
		{Value: models.StatusActive, Label: "Active"},
		{Value: models.StatusInactive, Label: "Inactive"},
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == current
	}
	return opts
}
