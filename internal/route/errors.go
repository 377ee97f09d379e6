package route

import "fmt"

// ConfigError reports a descriptor that cannot participate in linking.
//
// Configuration errors are fatal to the offending route's link entry only:
// BuildGraph skips the descriptor and keeps going. They are never surfaced
// to API callers.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Template is the offending descriptor's path template.
	Template string

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeMalformedTemplate indicates unbalanced braces in a path template.
	ErrCodeMalformedTemplate ConfigErrorCode = "MALFORMED_TEMPLATE"

	// ErrCodeMalformedMarker indicates a maxversion marker whose date does
	// not parse.
	ErrCodeMalformedMarker ConfigErrorCode = "MALFORMED_VERSION_MARKER"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("%s: %s (template=%s)", e.Code, e.Message, e.Template)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
