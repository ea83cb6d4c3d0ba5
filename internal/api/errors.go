// ABOUTME: Error taxonomy for backend calls: sentinels plus APIError with status and message
// ABOUTME: Extracts FastAPI-style detail/message bodies into user-presentable text

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors. APIError matches the status-based ones via errors.Is.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrNoCredentials = errors.New("no credential token stored")
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match status-based sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// Message returns the backend's message for err when it has one, or fallback.
// Views use it to show "Email o contraseña incorrectos" instead of a raw error.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Error()
	}
	return fallback
}

// errorBody covers the shapes the backend uses for failures.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// validationDetail is one entry of a 422 detail list.
type validationDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// newAPIError reads the response body and builds an APIError.
func newAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    parseErrorMessage(data),
	}
}

// parseErrorMessage pulls a human message out of an error body.
func parseErrorMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}

	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
		var details []validationDetail
		if err := json.Unmarshal(body.Detail, &details); err == nil {
			msgs := make([]string, 0, len(details))
			for _, d := range details {
				if field := lastLoc(d.Loc); field != "" {
					msgs = append(msgs, field+": "+d.Msg)
				} else {
					msgs = append(msgs, d.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}
