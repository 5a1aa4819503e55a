package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
)

// SessionStore persists console sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SessionConfig carries the session lifecycle settings.
type SessionConfig struct {
	TTL          time.Duration
	DefaultTheme models.Theme
	PageSize     int
}

// SessionService creates, loads and persists browser sessions.
type SessionService struct {
	store  SessionStore
	cfg    SessionConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a session service.
func NewSessionService(store SessionStore, cfg SessionConfig, logger *zap.Logger) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = 8 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = models.ThemeDark
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// Start creates and stores an anonymous session.
func (s *SessionService) Start(ctx context.Context) (*models.Session, error) {
	sess := &models.Session{
		ID:        uuid.NewString(),
		Theme:     s.cfg.DefaultTheme,
		List:      models.NewListState(s.cfg.PageSize),
		CreatedAt: s.now().UTC(),
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load fetches the session for id. A session whose token has lapsed is
// signed out and carries an expiry flash.
func (s *SessionService) Load(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, appErrors.ErrSessionNotFound
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionNotFound) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if sess.List.PageSize <= 0 {
		sess.List = models.NewListState(s.cfg.PageSize)
	}
	if sess.Token != "" && !sess.Authenticated(s.now()) {
		s.logger.Info("session token expired", zap.String("session", shortID(sess.ID)))
		if err := s.Expire(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// Save persists sess for the configured TTL.
func (s *SessionService) Save(ctx context.Context, sess *models.Session) error {
	if err := s.store.Save(ctx, sess, s.cfg.TTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session")
	}
	return nil
}

// Destroy removes the session.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// Expire signs the session out after the account API rejected its token.
func (s *SessionService) Expire(ctx context.Context, sess *models.Session) error {
	sess.ClearAuth()
	sess.SetFlash(models.FlashWarning, appErrors.ErrSessionExpired.Message)
	return s.Save(ctx, sess)
}

// ToggleTheme flips and stores the colour scheme.
func (s *SessionService) ToggleTheme(ctx context.Context, sess *models.Session) error {
	sess.Theme = sess.Theme.Toggle()
	return s.Save(ctx, sess)
}

// shortID keeps session identifiers out of logs in full.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
