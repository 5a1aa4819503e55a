package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/forms"
	"github.com/noah-isme/account-console/internal/listview"
	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/pkg/config"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
)

type userAPI interface {
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	GetUser(ctx context.Context, token, id string) (*models.User, error)
	CreateUser(ctx context.Context, token string, user models.NewUser) error
	UpdateUser(ctx context.Context, token string, update models.UserUpdate) error
	DeactivateUser(ctx context.Context, token, id string) error
	ListLevels(ctx context.Context, token string) ([]models.Level, error)
}

// LevelsCachePattern matches every cached level catalogue.
const LevelsCachePattern = "levels:*"

// UserServiceConfig selects listing and write policies.
type UserServiceConfig struct {
	PageSize          int
	LevelsTTL         time.Duration
	WriteVerification string
	DeactivateMode    string
}

// UserService orchestrates listing and mutations of account records.
type UserService struct {
	api     userAPI
	form    *forms.Form
	cache   *CacheService
	metrics *MetricsService
	cfg     UserServiceConfig
	logger  *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(api userAPI, form *forms.Form, cache *CacheService, metrics *MetricsService, cfg UserServiceConfig, logger *zap.Logger) *UserService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.WriteVerification == "" {
		cfg.WriteVerification = config.WriteVerificationOff
	}
	if cfg.DeactivateMode == "" {
		cfg.DeactivateMode = config.DeactivateModeUpdate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{api: api, form: form, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

// Form exposes the user form definition.
func (s *UserService) Form() *forms.Form {
	return s.form
}

// List renders the session's current page, clamping its page position.
func (s *UserService) List(ctx context.Context, sess *models.Session) (*dto.UserPage, error) {
	users, err := s.api.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	res := listview.Apply(&sess.List, users, s.cfg.PageSize)
	return &dto.UserPage{
		Result: res,
		Pager:  listview.NewPager(res.Page, res.TotalPages),
		Filter: sess.List.Filter,
		Levels: s.levelsOrEmpty(ctx, sess),
	}, nil
}

// Query is the stateless listing used by the JSON API.
func (s *UserService) Query(ctx context.Context, token string, q dto.UserQuery) (listview.Result, error) {
	users, err := s.api.ListUsers(ctx, token)
	if err != nil {
		return listview.Result{}, err
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.PageSize
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	return listview.Recompute(users, q.Filter(), page, pageSize), nil
}

// Filtered returns every record matching the session's filters, ignoring
// pagination.
func (s *UserService) Filtered(ctx context.Context, sess *models.Session) ([]models.User, error) {
	users, err := s.api.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	return listview.Filter(users, sess.List.Filter), nil
}

// Get returns a single record.
func (s *UserService) Get(ctx context.Context, token, id string) (*models.User, error) {
	return s.api.GetUser(ctx, token, id)
}

// Levels returns the access-level catalogue of the signed-in system.
func (s *UserService) Levels(ctx context.Context, sess *models.Session) ([]models.Level, error) {
	key := levelsCacheKey(sess.SystemID)
	var cached []models.Level
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	levels, err := s.api.ListLevels(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	if levels == nil {
		levels = []models.Level{}
	}
	s.cache.Set(ctx, key, levels, s.cfg.LevelsTTL)
	return levels, nil
}

func (s *UserService) levelsOrEmpty(ctx context.Context, sess *models.Session) []models.Level {
	levels, err := s.Levels(ctx, sess)
	if err != nil {
		s.logger.Warn("level catalogue unavailable", zap.String("system", sess.SystemID), zap.Error(err))
		return []models.Level{}
	}
	return levels
}

// Create validates values and submits a new account. On success the listing
// filters are cleared so the new record is reachable.
func (s *UserService) Create(ctx context.Context, sess *models.Session, values forms.Values) error {
	if fe := s.form.Validate(forms.ModeCreate, values); len(fe) > 0 {
		return fe
	}
	if err := s.checkLevel(ctx, sess, values.Get("level")); err != nil {
		return err
	}

	user := models.NewUser{
		Name:     values.Get("name"),
		Nickname: values.Get("nickname"),
		Email:    values.Get("email"),
		LevelID:  values.Get("level"),
		Password: values.Get("password"),
	}
	if err := s.api.CreateUser(ctx, sess.Token, user); err != nil {
		return err
	}
	sess.List.Reset()
	s.logger.Info("user created", zap.String("email", user.Email), zap.String("system", sess.SystemID))

	if !s.verifying() {
		return nil
	}
	users, err := s.api.ListUsers(ctx, sess.Token)
	if err != nil {
		return s.notVisible("create", user.Email, err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil
		}
	}
	return s.notVisible("create", user.Email, nil)
}

// Update validates values and replaces the editable attributes of id. The
// activation flag is kept unless the form submits one.
func (s *UserService) Update(ctx context.Context, sess *models.Session, id string, values forms.Values) error {
	if fe := s.form.Validate(forms.ModeEdit, values); len(fe) > 0 {
		return fe
	}
	if err := s.checkLevel(ctx, sess, values.Get("level")); err != nil {
		return err
	}

	current, err := s.api.GetUser(ctx, sess.Token, id)
	if err != nil {
		return err
	}
	update := models.UserUpdate{
		ID:          current.ID,
		Name:        values.Get("name"),
		Nickname:    values.Get("nickname"),
		LevelID:     values.Get("level"),
		Deactivated: current.Deactivated,
	}
	if _, ok := values["deactivated"]; ok {
		update.Deactivated = values.Bool("deactivated")
	}
	return s.applyUpdate(ctx, sess, "update", update)
}

// Deactivate marks id inactive, either through an update carrying the flag
// or through the dedicated endpoint depending on the configured mode.
func (s *UserService) Deactivate(ctx context.Context, sess *models.Session, id string) error {
	if s.cfg.DeactivateMode == config.DeactivateModeEndpoint {
		if err := s.api.DeactivateUser(ctx, sess.Token, id); err != nil {
			return err
		}
		s.logger.Info("user deactivated", zap.String("user", id), zap.String("mode", s.cfg.DeactivateMode))
		return s.verifyFlag(ctx, sess, id, true)
	}
	return s.setActivation(ctx, sess, id, true)
}

// Reactivate marks id active again.
func (s *UserService) Reactivate(ctx context.Context, sess *models.Session, id string) error {
	return s.setActivation(ctx, sess, id, false)
}

func (s *UserService) setActivation(ctx context.Context, sess *models.Session, id string, deactivated bool) error {
	current, err := s.api.GetUser(ctx, sess.Token, id)
	if err != nil {
		return err
	}
	operation := "reactivate"
	if deactivated {
		operation = "deactivate"
	}
	return s.applyUpdate(ctx, sess, operation, models.UserUpdate{
		ID:          current.ID,
		Name:        current.DisplayName,
		Nickname:    current.Nickname,
		LevelID:     current.LevelID,
		Deactivated: deactivated,
	})
}

func (s *UserService) applyUpdate(ctx context.Context, sess *models.Session, operation string, update models.UserUpdate) error {
	if err := s.api.UpdateUser(ctx, sess.Token, update); err != nil {
		return err
	}
	s.logger.Info("user updated", zap.String("user", update.ID), zap.String("operation", operation))

	if !s.verifying() {
		return nil
	}
	stored, err := s.api.GetUser(ctx, sess.Token, update.ID)
	if err != nil {
		return s.notVisible(operation, update.ID, err)
	}
	if stored.DisplayName != update.Name || stored.Nickname != update.Nickname ||
		stored.LevelID != update.LevelID || stored.Deactivated != update.Deactivated {
		return s.notVisible(operation, update.ID, nil)
	}
	return nil
}

func (s *UserService) verifyFlag(ctx context.Context, sess *models.Session, id string, deactivated bool) error {
	if !s.verifying() {
		return nil
	}
	stored, err := s.api.GetUser(ctx, sess.Token, id)
	if err != nil {
		return s.notVisible("deactivate", id, err)
	}
	if stored.Deactivated != deactivated {
		return s.notVisible("deactivate", id, nil)
	}
	return nil
}

func (s *UserService) checkLevel(ctx context.Context, sess *models.Session, levelID string) error {
	levels, err := s.Levels(ctx, sess)
	if err != nil {
		return err
	}
	for _, l := range levels {
		if l.ID == levelID {
			return nil
		}
	}
	label := "Level"
	if f, ok := s.form.Field("level"); ok {
		label = f.Label
	}
	return forms.FieldErrors{{Field: "level", Label: label, Message: "Select a level from the list"}}
}

func (s *UserService) verifying() bool {
	return s.cfg.WriteVerification == config.WriteVerificationVerify
}

func (s *UserService) notVisible(operation, subject string, cause error) error {
	s.metrics.RecordWriteNotVisible(operation)
	s.logger.Warn("write not visible after re-read",
		zap.String("operation", operation),
		zap.String("subject", subject),
		zap.Error(cause),
	)
	if cause != nil {
		return appErrors.Wrap(cause, appErrors.ErrWriteNotVisible.Code, appErrors.ErrWriteNotVisible.Status, appErrors.ErrWriteNotVisible.Message)
	}
	return appErrors.Clone(appErrors.ErrWriteNotVisible, "")
}

func levelsCacheKey(systemID string) string {
	if systemID == "" {
		systemID = "default"
	}
	return "levels:" + systemID
}
