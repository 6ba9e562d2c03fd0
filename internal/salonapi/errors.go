package salonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxErrorBody = 300

// APIError is returned for any non-2xx response from the salon API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("salon API %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// newAPIError extracts the backend's {"status":"error","message":"..."}
// envelope when present and falls back to the truncated raw body.
func newAPIError(method, path string, status int, body []byte) *APIError {
	var envelope struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		msg = envelope.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	msg = truncate(msg, maxErrorBody)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Method: method, Path: path, Message: msg}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from an HTTP response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsValidation reports whether the backend rejected the request body.
func IsValidation(err error) bool {
	code := StatusCode(err)
	return code == http.StatusBadRequest || code == http.StatusUnprocessableEntity || code == http.StatusConflict
}
