package dto

import (
	"github.com/noah-isme/account-console/internal/forms"
	"github.com/noah-isme/account-console/internal/models"
)

// LayoutView is shared by every rendered page.
type LayoutView struct {
	Title      string
	Theme      models.Theme
	SignedIn   bool
	Email      string
	SystemName string
	Flash      *models.Flash
}

// LoginView drives both login steps. Step two is shown when Systems is set.
type LoginView struct {
	LayoutView
	Email   string
	Systems []models.System
	Error   string
}

// StatusOption is one entry of the status filter select.
type StatusOption struct {
	Value    models.StatusFilter
	Label    string
	Selected bool
}

// UserListView renders the listing page.
type UserListView struct {
	LayoutView
	Page          *UserPage
	StatusOptions []StatusOption
	Error         string
}

// SelectOption is one entry of a select field.
type SelectOption struct {
	Value    string
	Label    string
	Selected bool
}

// FormField is a form field bound to its submitted value and error.
type FormField struct {
	forms.Field
	Value    string
	Checked  bool
	Locked   bool
	Error    string
	Options  []SelectOption
}

// UserFormView renders the create and edit forms.
type UserFormView struct {
	LayoutView
	Mode   forms.Mode
	Action string
	User   *models.User
	Fields []FormField
	Error  string
}

// Editing reports whether the form edits an existing user.
func (v UserFormView) Editing() bool {
	return v.Mode == forms.ModeEdit
}

// ErrorView renders a full-page failure.
type ErrorView struct {
	LayoutView
	Status  int
	Message string
}
