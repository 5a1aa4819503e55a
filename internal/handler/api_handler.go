package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/listview"
	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/response"
)

type userQueryService interface {
	Query(ctx context.Context, token string, q dto.UserQuery) (listview.Result, error)
	Get(ctx context.Context, token, id string) (*models.User, error)
	Levels(ctx context.Context, sess *models.Session) ([]models.Level, error)
}

// APIHandler exposes read-only JSON endpoints over the signed-in session.
type APIHandler struct {
	users    userQueryService
	sessions sessionService
}

// NewAPIHandler constructs an APIHandler.
func NewAPIHandler(users userQueryService, sessions sessionService) *APIHandler {
	return &APIHandler{users: users, sessions: sessions}
}

// ListUsers godoc
// @Summary List users
// @Description Filters and paginates the account listing of the signed-in system.
// @Tags Users
// @Produce json
// @Param search query string false "Case-insensitive match on name or e-mail"
// @Param level query []string false "Level IDs" collectionFormat(multi)
// @Param status query string false "active or inactive"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users [get]
func (h *APIHandler) ListUsers(c *gin.Context) {
	sess := sessionFromContext(c)
	var q dto.UserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	res, err := h.users.Query(c.Request.Context(), sess.Token, q)
	if err != nil {
		h.fail(c, sess, err)
		return
	}
	levels, err := h.users.Levels(c.Request.Context(), sess)
	if err != nil {
		_ = c.Error(err)
	}

	items := make([]dto.UserResponse, 0, len(res.Visible))
	for _, u := range res.Visible {
		items = append(items, dto.NewUserResponse(u, levels))
	}
	meta := map[string]interface{}{"from": res.From, "to": res.To}
	if res.Corrected {
		meta["page_corrected"] = true
	}
	response.JSON(c, http.StatusOK, items, res.Pagination(), meta)
}

// GetUser godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *APIHandler) GetUser(c *gin.Context) {
	sess := sessionFromContext(c)
	user, err := h.users.Get(c.Request.Context(), sess.Token, c.Param("id"))
	if err != nil {
		h.fail(c, sess, err)
		return
	}
	levels, err := h.users.Levels(c.Request.Context(), sess)
	if err != nil {
		_ = c.Error(err)
	}
	response.JSON(c, http.StatusOK, dto.NewUserResponse(*user, levels), nil)
}

// ListLevels godoc
// @Summary List access levels
// @Tags Levels
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *APIHandler) ListLevels(c *gin.Context) {
	sess := sessionFromContext(c)
	levels, err := h.users.Levels(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, sess, err)
		return
	}
	items := make([]dto.LevelResponse, 0, len(levels))
	for _, l := range levels {
		items = append(items, dto.LevelResponse{ID: l.ID, Label: l.Label()})
	}
	response.JSON(c, http.StatusOK, items, nil)
}

func (h *APIHandler) fail(c *gin.Context, sess *models.Session, err error) {
	if appErrors.HasCode(err, appErrors.ErrSessionExpired.Code) {
		if saveErr := h.sessions.Expire(c.Request.Context(), sess); saveErr != nil {
			_ = c.Error(saveErr)
		}
	}
	response.Error(c, err)
}
