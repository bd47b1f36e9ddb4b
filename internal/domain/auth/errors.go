package auth

import "fmt"

// Bearer token error codes (RFC 6750 section 3.1).
const (
	BearerInvalidRequest    = "invalid_request"
	BearerInvalidToken      = "invalid_token"
	BearerInsufficientScope = "insufficient_scope"
)

var bearerDescriptions = map[string]string{
	BearerInvalidRequest:    "The request is otherwise malformed",
	BearerInvalidToken:      "The access token provided is expired, revoked, malformed, or otherwise invalid",
	BearerInsufficientScope: "The request requires higher privileges than provided by the access token",
}

// BearerError is raised when a bearer-token protected resource rejects the presented token.
type BearerError struct {
	Code        string
	Description string
}

// NewBearerError builds a BearerError with the standard description for code.
func NewBearerError(code string) *BearerError {
	return &BearerError{Code: code, Description: bearerDescriptions[code]}
}

func (e *BearerError) Error() string {
	return fmt.Sprintf("bearer token error: %s: %s", e.Code, e.Description)
}

// FlowErrorKind classifies failures of the third-party login exchange.
type FlowErrorKind string

const (
	FlowCanceled         FlowErrorKind = "auth_canceled"
	FlowFailed           FlowErrorKind = "auth_failed"
	FlowStateMissing     FlowErrorKind = "auth_state_missing"
	FlowStateForbidden   FlowErrorKind = "auth_state_forbidden"
	FlowMissingParameter FlowErrorKind = "auth_missing_parameter"
	FlowUnknownBackend   FlowErrorKind = "auth_unknown_backend"
)

// FlowError is raised by the social login views. Only errors of this type are
// translated into login redirects; anything else propagates.
type FlowError struct {
	Kind    FlowErrorKind
	Backend string
	Message string
	Cause   error
}

func (e *FlowError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FlowError) Unwrap() error { return e.Cause }

// NewFlowError builds a FlowError with a human message.
func NewFlowError(kind FlowErrorKind, backend, message string) *FlowError {
	return &FlowError{Kind: kind, Backend: backend, Message: message}
}
