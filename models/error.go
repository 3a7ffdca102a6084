package models

// Stable error kinds returned with every failure response
const (
	ErrKindNotFound              = "not_found"
	ErrKindInvalidState          = "invalid_state"
	ErrKindUnauthorized          = "unauthorized"
	ErrKindValidationFailed      = "validation_failed"
	ErrKindConflict              = "conflict"
	ErrKindDependencyUnavailable = "dependency_unavailable"
	ErrKindInternal              = "internal"
)

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError `json:"response"`
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HealthCheckResponse is the body served by the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
