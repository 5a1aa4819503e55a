package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/middleware/requestid"
)

// Account API paths relative to the configured base URL.
const (
	pathSystems    = "/Auth/Sistema"
	pathLogin      = "/Auth/Login"
	pathUsers      = "/Account/Usuario/Listar"
	pathCreateUser = "/Account/Usuario/criar"
	pathUpdateUser = "/Account/Usuario/Atualizar"
	pathDeactivate = "/Account/Usuario/Desativar"
	pathLevels     = "/Account/Usuario_Nivel/Listar"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// UpstreamObserver receives timing for every account API call.
type UpstreamObserver interface {
	ObserveUpstream(operation string, status int, duration time.Duration)
}

// AccountAPI is the REST client for the remote account-management API.
type AccountAPI struct {
	baseURL  string
	client   *http.Client
	observer UpstreamObserver
	logger   *zap.Logger
}

// NewAccountAPI constructs a client rooted at baseURL.
func NewAccountAPI(baseURL string, timeout time.Duration, observer UpstreamObserver, logger *zap.Logger) *AccountAPI {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountAPI{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// ListSystems returns the tenants the credentials may sign into.
func (a *AccountAPI) ListSystems(ctx context.Context, email, password string) ([]models.System, error) {
	var systems []models.System
	body := models.Credentials{Email: email, Password: password}
	if err := a.do(ctx, "list_systems", http.MethodPost, pathSystems, "", body, &systems); err != nil {
		return nil, err
	}
	return systems, nil
}

// Login signs into systemID and returns the bearer token.
func (a *AccountAPI) Login(ctx context.Context, email, password, systemID string) (string, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"senha"`
		SystemID string `json:"id_Sistema"`
	}{email, password, systemID}

	var resp models.LoginResponse
	if err := a.do(ctx, "login", http.MethodPost, pathLogin, "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", appErrors.Clone(appErrors.ErrUpstream, "login response carried no token")
	}
	return resp.Token, nil
}

// ListUsers returns the complete user listing of the signed-in system.
func (a *AccountAPI) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := a.do(ctx, "list_users", http.MethodGet, pathUsers, token, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser fetches a single user through the filtered listing endpoint.
func (a *AccountAPI) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	var users []models.User
	path := pathUsers + "?" + url.Values{"Id": {id}}.Encode()
	if err := a.do(ctx, "get_user", http.MethodGet, path, token, nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// CreateUser submits a new account. The API expects a collection.
func (a *AccountAPI) CreateUser(ctx context.Context, token string, user models.NewUser) error {
	return a.do(ctx, "create_user", http.MethodPost, pathCreateUser, token, []models.NewUser{user}, nil)
}

// UpdateUser replaces the editable attributes of an account.
func (a *AccountAPI) UpdateUser(ctx context.Context, token string, update models.UserUpdate) error {
	return a.do(ctx, "update_user", http.MethodPut, pathUpdateUser, token, []models.UserUpdate{update}, nil)
}

// DeactivateUser calls the dedicated deactivation endpoint.
func (a *AccountAPI) DeactivateUser(ctx context.Context, token, id string) error {
	body := []struct {
		ID string `json:"id"`
	}{{ID: id}}
	return a.do(ctx, "deactivate_user", http.MethodPut, pathDeactivate, token, body, nil)
}

// ListLevels returns the access-level catalogue.
func (a *AccountAPI) ListLevels(ctx context.Context, token string) ([]models.Level, error) {
	var levels []models.Level
	if err := a.do(ctx, "list_levels", http.MethodGet, pathLevels, token, nil, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// Ping checks that the API host answers below 500.
func (a *AccountAPI) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build ping request")
	}
	start := time.Now()
	resp, err := a.client.Do(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
	}
	a.observe("ping", status, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	if status >= http.StatusInternalServerError {
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("account service answered %d", status))
	}
	return nil
}

func (a *AccountAPI) do(ctx context.Context, operation, method, path, token string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.observe(operation, 0, time.Since(start))
		a.logger.Warn("account api unreachable", zap.String("operation", operation), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	a.observe(operation, resp.StatusCode, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read account service response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp.StatusCode, raw)
		a.logger.Info("account api rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
		)
		return apiErr
	}

	if disguised := decodeDisguisedError(raw); disguised != nil {
		a.logger.Warn("account api reported failure with success status",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("code", disguised.Code),
		)
		return disguised
	}

	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unexpected account service response")
	}
	return nil
}

func (a *AccountAPI) observe(operation string, status int, d time.Duration) {
	if a.observer != nil {
		a.observer.ObserveUpstream(operation, status, d)
	}
}
