package models

import (
	"strings"
	"time"
)

// Theme is the console colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme falls back to dark for unknown values.
func ParseTheme(raw string) Theme {
	if Theme(strings.ToLower(raw)) == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// FlashKind classifies one-shot messages shown on the next rendered page.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
	FlashError   FlashKind = "error"
)

// Flash is a message displayed once and then discarded.
type Flash struct {
	Kind    FlashKind `msgpack:"kind"`
	Message string    `msgpack:"msg"`
}

// PendingLogin is the state between login step one and step two. The
// password is only ever stored sealed.
type PendingLogin struct {
	Email     string    `msgpack:"email"`
	Password  []byte    `msgpack:"sealed_password"`
	Systems   []System  `msgpack:"systems"`
	ExpiresAt time.Time `msgpack:"expires_at"`
}

// Expired reports whether the pending login is past its deadline.
func (p *PendingLogin) Expired(now time.Time) bool {
	return p == nil || now.After(p.ExpiresAt)
}

// System finds an offered system by ID.
func (p *PendingLogin) System(id string) (System, bool) {
	if p == nil {
		return System{}, false
	}
	for _, s := range p.Systems {
		if s.ID == id {
			return s, true
		}
	}
	return System{}, false
}

// ListState is the persisted filter and page position of the user listing.
// Any filter or page-size change sends the view back to page one; a page that
// merely falls out of range is clamped by the engine instead.
type ListState struct {
	Filter   UserFilter `msgpack:"filter"`
	Page     int        `msgpack:"page"`
	PageSize int        `msgpack:"page_size"`
}

// NewListState returns a state at page one with no filters.
func NewListState(pageSize int) ListState {
	return ListState{Page: 1, PageSize: pageSize}
}

// SetNameQuery replaces the free-text query.
func (s *ListState) SetNameQuery(q string) {
	s.Filter.NameQuery = q
	s.Page = 1
}

// SetFilters replaces the level and status predicates. Blank and duplicate
// level IDs are dropped.
func (s *ListState) SetFilters(levels []string, status StatusFilter) {
	seen := make(map[string]struct{}, len(levels))
	cleaned := make([]string, 0, len(levels))
	for _, l := range levels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		cleaned = append(cleaned, l)
	}
	if len(cleaned) == 0 {
		cleaned = nil
	}
	s.Filter.Levels = cleaned
	s.Filter.Status = status
	s.Page = 1
}

// SetPage moves to page p; values below one become one.
func (s *ListState) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	s.Page = p
}

// SetPageSize changes the page size, ignoring non-positive values.
func (s *ListState) SetPageSize(size int) {
	if size <= 0 || size == s.PageSize {
		return
	}
	s.PageSize = size
	s.Page = 1
}

// Reset clears every filter and returns to page one.
func (s *ListState) Reset() {
	s.Filter = UserFilter{}
	s.Page = 1
}

// Session is the per-browser console state. It replaces ambient client-side
// storage: the token is set at login and cleared at logout or expiry.
type Session struct {
	ID         string        `msgpack:"id"`
	Theme      Theme         `msgpack:"theme"`
	Token      string        `msgpack:"token"`
	Email      string        `msgpack:"email"`
	SystemID   string        `msgpack:"system_id"`
	SystemName string        `msgpack:"system_name"`
	ClientID   string        `msgpack:"client_id"`
	ExpiresAt  time.Time     `msgpack:"expires_at"`
	Pending    *PendingLogin `msgpack:"pending"`
	List       ListState     `msgpack:"list"`
	Flash      *Flash        `msgpack:"flash"`
	CreatedAt  time.Time     `msgpack:"created_at"`
}

// Authenticated reports whether the session holds a live token.
func (s *Session) Authenticated(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// ClearAuth drops credentials, pending login and list position while keeping
// presentation preferences.
func (s *Session) ClearAuth() {
	s.Token = ""
	s.Email = ""
	s.SystemID = ""
	s.SystemName = ""
	s.ClientID = ""
	s.ExpiresAt = time.Time{}
	s.Pending = nil
	s.List = NewListState(s.List.PageSize)
}

// SetFlash queues a message for the next page.
func (s *Session) SetFlash(kind FlashKind, message string) {
	s.Flash = &Flash{Kind: kind, Message: message}
}

// TakeFlash returns and clears the queued message.
func (s *Session) TakeFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}
