package translate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingConfiguration is wrapped by every ConfigError.
var ErrMissingConfiguration = errors.New("missing configuration")

// ConfigError is returned at construction when required provider settings are absent.
type ConfigError struct {
	Provider string
	Missing  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s requires %s: %v", e.Provider, strings.Join(e.Missing, ", "), ErrMissingConfiguration)
}

func (e *ConfigError) Unwrap() error {
	return ErrMissingConfiguration
}

// Kind names the failure class.
func (e *ConfigError) Kind() string {
	return "ConfigurationMissing"
}

// TranslationError is the single error shape returned by Machine.Translate for
// failures past negotiation. Kind is the class of the underlying error.
type TranslationError struct {
	Kind    string
	Message string
	Err     error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

func newTranslationError(err error) *TranslationError {
	return &TranslationError{
		Kind:    errorKind(err),
		Message: err.Error(),
		Err:     err,
	}
}

// errorKind names the class of err: the Kind() of the first error in the chain
// that has one, otherwise the Go type name.
func errorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
