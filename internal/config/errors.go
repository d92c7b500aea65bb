package config

import "errors"

type ErrorKind string

const (
	KindMissingCredential ErrorKind = "missing_credential"
	KindInvalidParameter  ErrorKind = "invalid_parameter"
	KindMissingEndpoint   ErrorKind = "missing_endpoint"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrMissingEndpoint   = errors.New("missing endpoint")
)

// ConfigError reports why a model configuration was rejected.
type ConfigError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

func (e *ConfigError) Unwrap() error {
	switch e.Kind {
	case KindMissingCredential:
		return ErrMissingCredential
	case KindMissingEndpoint:
		return ErrMissingEndpoint
	}
	return ErrInvalidParameter
}

func invalid(field, msg string) *ConfigError {
	return &ConfigError{Kind: KindInvalidParameter, Field: field, Message: msg}
}
