package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/account-console/pkg/errors"
)

// Internal codes reported by the account API.
const (
	internalCodeEmailTaken = 207
	internalCodeUserExists = 214
)

// apiErrorBody is the v2 error envelope. Legacy validation failures use the
// Errors/Title pair instead.
type apiErrorBody struct {
	Message      string              `json:"message"`
	StatusCode   *int                `json:"status_Code"`
	InternalCode *int                `json:"internal_Code"`
	Details      json.RawMessage     `json:"details"`
	Errors       map[string][]string `json:"errors"`
	Title        string              `json:"title"`
}

func parseErrorBody(raw []byte) (apiErrorBody, bool) {
	var body apiErrorBody
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body, false
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return body, false
	}
	return body, true
}

func decodeError(status int, raw []byte) *appErrors.Error {
	body, ok := parseErrorBody(raw)
	if !ok {
		return statusError(status, "")
	}
	return bodyError(status, body)
}

// decodeDisguisedError reports a failure hidden inside a 2xx response. A
// success envelope (status_Code below 400, internal_Code absent or 0) is not
// a failure.
func decodeDisguisedError(raw []byte) *appErrors.Error {
	body, ok := parseErrorBody(raw)
	if !ok {
		return nil
	}
	failedStatus := body.StatusCode != nil && *body.StatusCode >= http.StatusBadRequest
	failedCode := body.InternalCode != nil && *body.InternalCode != 0
	if !failedStatus && !failedCode {
		return nil
	}
	status := http.StatusBadRequest
	if failedStatus {
		status = *body.StatusCode
	}
	return bodyError(status, body)
}

func bodyError(status int, body apiErrorBody) *appErrors.Error {
	if body.InternalCode != nil {
		switch *body.InternalCode {
		case internalCodeEmailTaken:
			return appErrors.Clone(appErrors.ErrEmailTaken, "")
		case internalCodeUserExists:
			return appErrors.Clone(appErrors.ErrUserExists, "")
		}
	}
	if len(body.Errors) > 0 && status == http.StatusBadRequest {
		return appErrors.Clone(appErrors.ErrValidation, validationMessage(body.Errors, body.Title))
	}
	message := strings.TrimSpace(body.Message)
	if message == "" {
		message = strings.TrimSpace(body.Title)
	}
	return statusError(status, message)
}

func validationMessage(fields map[string][]string, title string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], ", ")))
	}
	if len(lines) == 0 {
		return title
	}
	return strings.Join(lines, "\n")
}

func statusError(status int, message string) *appErrors.Error {
	var base *appErrors.Error
	switch {
	case status == http.StatusUnauthorized:
		base = appErrors.ErrSessionExpired
	case status == http.StatusForbidden:
		base = appErrors.ErrForbidden
	case status == http.StatusNotFound:
		base = appErrors.ErrNotFound
	case status == http.StatusConflict:
		base = appErrors.ErrConflict
	case status >= http.StatusInternalServerError:
		base = appErrors.ErrUpstream
	default:
		base = appErrors.ErrValidation
	}
	// Upstream 401 bodies are never shown.
	if base == appErrors.ErrSessionExpired {
		message = ""
	}
	return appErrors.Clone(base, message)
}
