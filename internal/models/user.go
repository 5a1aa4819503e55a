package models

import "strings"

// User is one account record as returned by the account API listing.
type User struct {
	ID             string  `json:"id" msgpack:"id"`
	DisplayName    string  `json:"nome" msgpack:"nome"`
	Nickname       string  `json:"apelido,omitempty" msgpack:"apelido"`
	Email          string  `json:"email" msgpack:"email"`
	LevelID        string  `json:"id_Usuario_Nivel,omitempty" msgpack:"nivel"`
	Deactivated    bool    `json:"desativadoSN" msgpack:"desativado"`
	PersonID       *string `json:"id_Pessoa,omitempty" msgpack:"pessoa"`
	CustomMainMenu bool    `json:"menu_Principal_PersonalizadoSN,omitempty" msgpack:"menu"`
}

// HasLevel reports whether the record carries an access level at all.
func (u User) HasLevel() bool {
	return u.LevelID != ""
}

// Initials returns up to two upper-case initials of the display name.
func (u User) Initials() string {
	words := strings.Fields(u.DisplayName)
	if len(words) == 0 {
		return "N/A"
	}
	initials := make([]rune, 0, 2)
	for _, w := range words {
		if len(initials) == 2 {
			break
		}
		initials = append(initials, []rune(w)[0])
	}
	return strings.ToUpper(string(initials))
}

// Level is an access-tier category from the level catalogue.
type Level struct {
	ID          string `json:"id"`
	Description string `json:"descricao"`
	Name        string `json:"nome,omitempty"`
}

// Label returns the most descriptive text available for display.
func (l Level) Label() string {
	switch {
	case l.Description != "":
		return l.Description
	case l.Name != "":
		return l.Name
	default:
		return l.ID
	}
}

// NewUser is the create payload accepted by the account API.
type NewUser struct {
	Name     string `json:"nome"`
	Nickname string `json:"apelido,omitempty"`
	Email    string `json:"email"`
	LevelID  string `json:"id_Usuario_Nivel"`
	Password string `json:"senha"`
}

// UserUpdate is the update payload accepted by the account API.
type UserUpdate struct {
	ID          string `json:"id"`
	Name        string `json:"nome"`
	Nickname    string `json:"apelido,omitempty"`
	LevelID     string `json:"id_Usuario_Nivel"`
	Deactivated bool   `json:"desativadoSN"`
}

// StatusFilter narrows the listing by activation state.
type StatusFilter string

const (
	StatusAny      StatusFilter = ""
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ParseStatusFilter accepts both the named values and the "true"/"false"
// deactivated-flag spelling used by the filter form.
func ParseStatusFilter(raw string) StatusFilter {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "false":
		return StatusActive
	case "inactive", "true":
		return StatusInactive
	default:
		return StatusAny
	}
}

// UserFilter captures the listing filter predicates.
type UserFilter struct {
	NameQuery string       `msgpack:"q"`
	Levels    []string     `msgpack:"levels"`
	Status    StatusFilter `msgpack:"status"`
}

// IsZero reports whether no predicate is active.
func (f UserFilter) IsZero() bool {
	return strings.TrimSpace(f.NameQuery) == "" && len(f.Levels) == 0 && f.Status == StatusAny
}

// HasLevel reports whether id is part of the level predicate.
func (f UserFilter) HasLevel(id string) bool {
	for _, l := range f.Levels {
		if l == id {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
