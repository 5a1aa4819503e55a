package dto

import (
	"github.com/noah-isme/account-console/internal/listview"
	"github.com/noah-isme/account-console/internal/models"
)

// UserQuery captures the JSON API listing parameters.
type UserQuery struct {
	Search   string   `form:"search"`
	Levels   []string `form:"level"`
	Status   string   `form:"status" binding:"omitempty,oneof=active inactive true false"`
	Page     int      `form:"page" binding:"omitempty,min=1"`
	PageSize int      `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Filter converts the query into listing predicates.
func (q UserQuery) Filter() models.UserFilter {
	st := models.ListState{}
	st.SetNameQuery(q.Search)
	st.SetFilters(q.Levels, models.ParseStatusFilter(q.Status))
	return st.Filter
}

// UserPage is one rendered page of the user listing.
type UserPage struct {
	Result listview.Result
	Pager  listview.Pager
	Filter models.UserFilter
	Levels []models.Level
}

// LevelLabel resolves a level ID against the catalogue, falling back to the ID.
func (p UserPage) LevelLabel(id string) string {
	return LevelLabel(p.Levels, id)
}

// LevelLabel resolves id against levels.
func LevelLabel(levels []models.Level, id string) string {
	if id == "" {
		return ""
	}
	for _, l := range levels {
		if l.ID == id {
			return l.Label()
		}
	}
	return id
}

// UserResponse is the JSON API representation of a user record.
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email"`
	LevelID  string `json:"level_id,omitempty"`
	Level    string `json:"level,omitempty"`
	Active   bool   `json:"active"`
}

// NewUserResponse maps a record, labelling its level from levels.
func NewUserResponse(u models.User, levels []models.Level) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.DisplayName,
		Nickname: u.Nickname,
		Email:    u.Email,
		LevelID:  u.LevelID,
		Level:    LevelLabel(levels, u.LevelID),
		Active:   !u.Deactivated,
	}
}

// LevelResponse is the JSON API representation of an access level.
type LevelResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
