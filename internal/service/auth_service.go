package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/secret"
)

// AuthAPI is the part of the account API used to sign in.
type AuthAPI interface {
	ListSystems(ctx context.Context, email, password string) ([]models.System, error)
	Login(ctx context.Context, email, password, systemID string) (string, error)
}

// AuthConfig carries login timing settings.
type AuthConfig struct {
	PendingTTL time.Duration
	SessionTTL time.Duration
}

// AuthService drives the two-step login against the account API. Token
// verification belongs to the API; claims are only read for display and
// expiry.
type AuthService struct {
	api      AuthAPI
	validate *validator.Validate
	metrics  *MetricsService
	box      *secret.Box
	cfg      AuthConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService. box seals the password carried
// between the two login steps.
func NewAuthService(api AuthAPI, validate *validator.Validate, metrics *MetricsService, box *secret.Box, cfg AuthConfig, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 5 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{api: api, validate: validate, metrics: metrics, box: box, cfg: cfg, logger: logger, now: time.Now}
}

// RequestSystems validates the credentials, asks the API which systems they
// may enter and keeps the pending login on the session.
func (s *AuthService) RequestSystems(ctx context.Context, sess *models.Session, email, password string) ([]models.System, error) {
	creds := models.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(creds); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enter a valid e-mail address and password")
	}

	systems, err := s.api.ListSystems(ctx, creds.Email, creds.Password)
	if err != nil {
		s.metrics.RecordLogin("systems", "error")
		s.logger.Info("system lookup failed", zap.String("email", creds.Email), zap.Error(err))
		return nil, credentialError(err)
	}
	if len(systems) == 0 {
		s.metrics.RecordLogin("systems", "empty")
		return nil, appErrors.ErrNoSystems
	}

	sealed, err := s.box.Seal([]byte(creds.Password))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "seal pending login")
	}

	s.metrics.RecordLogin("systems", "ok")
	sess.Pending = &models.PendingLogin{
		Email:     creds.Email,
		Password:  sealed,
		Systems:   systems,
		ExpiresAt: s.now().Add(s.cfg.PendingTTL),
	}
	return systems, nil
}

// Login completes step two with one of the offered systems.
func (s *AuthService) Login(ctx context.Context, sess *models.Session, systemID string) error {
	pending := sess.Pending
	if pending.Expired(s.now()) {
		sess.Pending = nil
		return appErrors.ErrLoginNotStarted
	}
	system, ok := pending.System(strings.TrimSpace(systemID))
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "select one of the offered systems")
	}

	password, err := s.box.Open(pending.Password)
	if err != nil {
		s.logger.Warn("pending login unreadable", zap.String("email", pending.Email), zap.Error(err))
		sess.Pending = nil
		return appErrors.ErrLoginNotStarted
	}

	token, err := s.api.Login(ctx, pending.Email, string(password), system.ID)
	if err != nil {
		s.metrics.RecordLogin("login", "error")
		s.logger.Info("login rejected", zap.String("email", pending.Email), zap.String("system", system.ID), zap.Error(err))
		return credentialError(err)
	}

	claims, err := ParseTokenClaims(token)
	if err != nil {
		s.logger.Warn("token claims unreadable", zap.Error(err))
	}
	if claims.SystemID != "" && claims.SystemID != system.ID {
		s.metrics.RecordLogin("login", "system_mismatch")
		s.logger.Warn("token issued for another system",
			zap.String("email", pending.Email),
			zap.String("requested", system.ID),
			zap.String("issued", claims.SystemID),
		)
		return appErrors.Clone(appErrors.ErrUpstream, "account service issued a token for another system")
	}
	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.cfg.SessionTTL)
	}

	sess.Token = token
	sess.Email = pending.Email
	sess.SystemID = system.ID
	sess.SystemName = system.Description
	sess.ClientID = claims.ClientID
	sess.ExpiresAt = expiresAt
	sess.Pending = nil
	sess.List = models.NewListState(sess.List.PageSize)

	s.metrics.RecordLogin("login", "ok")
	s.logger.Info("console login", zap.String("email", sess.Email), zap.String("system", sess.SystemID))
	return nil
}

// BackToCredentials abandons step two.
func (s *AuthService) BackToCredentials(sess *models.Session) {
	sess.Pending = nil
}

// Logout drops the credentials held by the session.
func (s *AuthService) Logout(sess *models.Session) {
	sess.ClearAuth()
}

// credentialError rewords a 401 from the sign-in endpoints, which means bad
// credentials rather than an expired session.
func credentialError(err error) error {
	if appErrors.HasCode(err, appErrors.ErrSessionExpired.Code) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid e-mail or password")
	}
	return err
}

// ParseTokenClaims reads the console-relevant claims of a bearer token
// without verifying its signature.
func ParseTokenClaims(token string) (models.TokenClaims, error) {
	var out models.TokenClaims
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return out, fmt.Errorf("parse token: %w", err)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	out.SystemID = claimString(claims, "idSistema")
	out.ClientID = claimString(claims, "idCliente")
	return out, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	v, ok := claims[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.0f", val)
	default:
		return fmt.Sprint(val)
	}
}
