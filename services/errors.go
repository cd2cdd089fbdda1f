package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind int

const (
	KindRequest ErrorKind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindExpired
	KindConnectivity
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	case KindConnectivity:
		return "connectivity"
	case KindServer:
		return "server"
	}
	return "request"
}

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrGone         = errors.New("gone")
	ErrConnectivity = errors.New("connection failed")
	ErrServer       = errors.New("server error")
)

var kindSentinels = map[ErrorKind]error{
	KindValidation:     ErrValidation,
	KindAuthentication: ErrUnauthorized,
	KindAuthorization:  ErrForbidden,
	KindNotFound:       ErrNotFound,
	KindConflict:       ErrConflict,
	KindExpired:        ErrGone,
	KindConnectivity:   ErrConnectivity,
	KindServer:         ErrServer,
}

// APIError is returned for every failed backend call. Status is 0 when the
// request never produced a response. Message holds the server's own text and
// is empty when the body carried none.
type APIError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.Status)
	}
	if e.Status == 0 {
		return message
	}
	return fmt.Sprintf("%s (%d)", message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// ValidationError blocks a submission before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func KindForStatus(status int) ErrorKind {
	switch {
	case status == 0:
		return KindConnectivity
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusGone:
		return KindExpired
	case status >= 500:
		return KindServer
	}
	return KindRequest
}

// errorFromResponse builds an APIError from a non-2xx body. The backend
// answers {"error": "..."} on auth failures and {"message": "..."} elsewhere.
func errorFromResponse(status int, body []byte) *APIError {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		message = decodeErrorField(payload.Error)
		if message == "" {
			message = payload.Message
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		message = text
	}
	return &APIError{Status: status, Kind: KindForStatus(status), Message: message}
}

// decodeErrorField accepts both "error": "text" and "error": {"message": "text"}.
func decodeErrorField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func connectivityError(err error) *APIError {
	return &APIError{Kind: KindConnectivity, Message: "Unable to connect to the server", Err: err}
}

// ServerMessageOr returns the server message carried by err, or fallback when
// err has none (transport failures, unexpected errors).
func ServerMessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.Message != "" {
		return apiErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	return fallback
}

// MessageOr is ServerMessageOr, except that a backend that could not be
// reached is reported with the generic connection text.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindConnectivity && apiErr.Message != "" {
		return apiErr.Message
	}
	return ServerMessageOr(err, fallback)
}

// StatusOf reports the HTTP status of err, 0 when there was none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
