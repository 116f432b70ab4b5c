package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	msgGeneric        = "An error occurred."
	msgNetwork        = "Network error, please try again."
	msgAddFailed      = "Failed to add expense."
	msgStatusTemplate = "Request failed with status: %d"
)

var (
	ErrMalformedPayload = errors.New("malformed response payload")
	ErrMissingToken     = errors.New("token response has no access_token")
)

// APIError is a non-2xx response reduced to one readable message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return msgNetwork
	}
	return err.Error()
}

type envelope struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
}

// errorMessage extracts the message of an error envelope:
// {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}.
func errorMessage(status int, body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Sprintf(msgStatusTemplate, status)
	}
	if msg, ok := detailMessage(env.Detail); ok {
		return msg
	}
	return msgGeneric
}

func detailMessage(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var issues []validationIssue
	if err := json.Unmarshal(raw, &issues); err == nil && len(issues) > 0 && issues[0].Msg != "" {
		return issues[0].Msg, true
	}
	return "", false
}
