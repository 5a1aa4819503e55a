package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
)

type fakeAccountAPI struct {
	mu sync.Mutex

	systems    []models.System
	systemsErr error
	token      string
	loginErr   error
	loginCalls []string
	passwords  []string

	users      []models.User
	listErr    error
	levels     []models.Level
	levelCalls int
	writeErr   error

	// hideWrites makes accepted writes invisible to later reads.
	hideWrites bool

	created     []models.NewUser
	updates     []models.UserUpdate
	deactivated []string
}

func (f *fakeAccountAPI) ListSystems(_ context.Context, _, _ string) ([]models.System, error) {
	return f.systems, f.systemsErr
}

func (f *fakeAccountAPI) Login(_ context.Context, email, password, systemID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls = append(f.loginCalls, email+"@"+systemID)
	f.passwords = append(f.passwords, password)
	return f.token, f.loginErr
}

func (f *fakeAccountAPI) ListUsers(_ context.Context, _ string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeAccountAPI) GetUser(_ context.Context, _, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeAccountAPI) CreateUser(_ context.Context, _ string, user models.NewUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, user)
	if !f.hideWrites {
		f.users = append(f.users, models.User{
			ID:          "new-" + strings.ToLower(user.Email),
			DisplayName: user.Name,
			Nickname:    user.Nickname,
			Email:       user.Email,
			LevelID:     user.LevelID,
		})
	}
	return nil
}

func (f *fakeAccountAPI) UpdateUser(_ context.Context, _ string, update models.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.updates = append(f.updates, update)
	if f.hideWrites {
		return nil
	}
	for i := range f.users {
		if f.users[i].ID == update.ID {
			f.users[i].DisplayName = update.Name
			f.users[i].Nickname = update.Nickname
			f.users[i].LevelID = update.LevelID
			f.users[i].Deactivated = update.Deactivated
		}
	}
	return nil
}

func (f *fakeAccountAPI) DeactivateUser(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deactivated = append(f.deactivated, id)
	if f.hideWrites {
		return nil
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Deactivated = true
		}
	}
	return nil
}

func (f *fakeAccountAPI) ListLevels(_ context.Context, _ string) ([]models.Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levelCalls++
	return f.levels, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]models.Level
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]models.Level{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*[]models.Level)) = v
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value.([]models.Level)
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

type memorySessions struct {
	mu    sync.Mutex
	items map[string]*models.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{items: map[string]*models.Session{}}
}

func (m *memorySessions) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (m *memorySessions) Save(_ context.Context, sess *models.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *sess
	m.items[sess.ID] = &copied
	return nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
