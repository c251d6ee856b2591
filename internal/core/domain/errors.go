package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure crossing the core boundary wraps exactly one of
// these so the transport layer can map it to a user-facing code with errors.Is.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrConnection       = errors.New("connection error")
	ErrAuthentication   = errors.New("authentication error")
	ErrResourceNotFound = errors.New("resource not found")
	ErrBadRequest       = errors.New("bad request")
	ErrGuardCheckFailed = errors.New("guard check failed")
	ErrCompressor       = errors.New("compressor error")
	ErrUnknown          = errors.New("unknown error")
)

// Sub-kinds. Each wraps its parent kind, so errors.Is matches both.
var (
	ErrUnknownProviderSetting = fmt.Errorf("%w: unknown provider setting", ErrConfiguration)
	ErrModelNotFound          = fmt.Errorf("%w: model", ErrResourceNotFound)
	ErrDeploymentNotFound     = fmt.Errorf("%w: deployment", ErrResourceNotFound)
	ErrIndexNotFound          = fmt.Errorf("%w: index", ErrResourceNotFound)
	ErrContextLengthExceeded  = fmt.Errorf("%w: context length exceeded", ErrBadRequest)
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ProviderError is produced at a capability call site when a provider request
// fails. It records which provider was involved and the exact upstream request
// so a caller can tell a broken configuration from a provider outage.
type ProviderError struct {
	Kind       error
	Provider   string
	Operation  string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	msg := fmt.Sprintf("%s %s", e.Provider, e.Operation)
	if e.Method != "" && e.URL != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Method, e.URL)
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// GuardError carries the reasons a guard or guardrail rejected an answer.
type GuardError struct {
	Reasons []string
}

func (e *GuardError) Error() string {
	if e == nil || len(e.Reasons) == 0 {
		return "guard check failed"
	}
	msg := "guard check failed: " + e.Reasons[0]
	for _, r := range e.Reasons[1:] {
		msg += "; " + r
	}
	return msg
}

func (e *GuardError) Unwrap() error {
	return ErrGuardCheckFailed
}
