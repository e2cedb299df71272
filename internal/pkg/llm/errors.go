package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuth means the credential was rejected.
	ErrAuth = errors.New("authentication with the provider failed")
	// ErrQuota means the account ran out of quota or credit.
	ErrQuota = errors.New("provider quota exceeded")
	// ErrUnknown covers every other provider failure.
	ErrUnknown = errors.New("provider request failed")
)

// APIError is a classified provider failure.
type APIError struct {
	Provider string
	Status   int
	Message  string
	Kind     error
	Hint     string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// Classify maps an HTTP status and provider message to ErrAuth, ErrQuota or
// ErrUnknown. Model-not-found failures stay unknown but carry a hint.
func Classify(status int, message string) (error, string) {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "insufficient_quota"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "billing"),
		strings.Contains(msg, "resource_exhausted"),
		status == http.StatusTooManyRequests,
		strings.Contains(msg, "429"):
		return ErrQuota, ""
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "incorrect api key"),
		strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "invalid_api_key"):
		return ErrAuth, ""
	case strings.Contains(msg, "invalid model"),
		strings.Contains(msg, "model_not_found"),
		strings.Contains(msg, "does not exist"),
		status == http.StatusNotFound:
		return ErrUnknown, "The selected model is not available for this API key. Try gpt-3.5-turbo."
	}
	return ErrUnknown, ""
}

func newAPIError(provider string, status int, message string) *APIError {
	kind, hint := Classify(status, message)
	return &APIError{
		Provider: provider,
		Status:   status,
		Message:  message,
		Kind:     kind,
		Hint:     hint,
	}
}

// transportError wraps network and context failures as unknown.
func transportError(provider string, err error) *APIError {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &APIError{Provider: provider, Message: msg, Kind: ErrUnknown}
}

// HintOf returns the user hint of a classified error, if any.
func HintOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Hint
	}
	return ""
}
