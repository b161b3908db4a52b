package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failure kinds. Match with errors.Is.
var (
	ErrUnknownFeature               = errors.New("unknown feature")
	ErrUndeclaredCustomProvider     = errors.New("undeclared custom provider")
	ErrMissingCustomProviderSection = errors.New("missing custom provider section")
)

// ValidationError reports the first structural violation found in a document.
type ValidationError struct {
	Kind error
	Name string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrUnknownFeature:
		return fmt.Sprintf("CFG_UNKNOWN_FEATURE: invalid feature %q; valid features are: %s", e.Name, strings.Join(KnownFeatures, ", "))
	case ErrUndeclaredCustomProvider:
		return fmt.Sprintf("CFG_CUSTOM_PROVIDER: custom target %q is defined in targets but has no provider configuration", e.Name)
	case ErrMissingCustomProviderSection:
		return "CFG_CUSTOM_PROVIDER: custom targets are defined but the providers.custom section is missing"
	}
	return fmt.Sprintf("CFG_INVALID: %v", e.Kind)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// DocumentError reports a document that could not be decoded.
type DocumentError struct {
	Source string
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("DOC_CONFIG_PARSE: malformed document %s: %v", e.Source, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
