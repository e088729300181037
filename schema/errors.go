package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ConfigurationError reports a malformed schema declaration: a selector that
// is not a member access, an entry-set without an identifier, duplicate
// sibling segments, or a wrapper type without a usable constructor.
type ConfigurationError struct {
	// Model is the schema type name, when known
	Model string
	// Path is the dotted declaration path of the offending node
	Path string
	// Problems lists every violation found; a single-problem error has one entry
	Problems []string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("hyperspace: invalid configuration")
	if e.Model != "" {
		b.WriteString(" of ")
		b.WriteString(e.Model)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	switch len(e.Problems) {
	case 0:
	case 1:
		b.WriteString(": ")
		b.WriteString(e.Problems[0])
	default:
		b.WriteString(fmt.Sprintf(" (%d problems):", len(e.Problems)))
		for _, p := range e.Problems {
			b.WriteString("\n  - ")
			b.WriteString(p)
		}
	}
	return b.String()
}

// InvalidStateError reports an operation attempted in the wrong lifecycle
// state: mutating frozen metadata, freezing twice, resolving against
// unfrozen metadata, or building a model reentrantly.
type InvalidStateError struct {
	Op     string
	Reason string
}

// Error implements the error interface
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("hyperspace: invalid state for %s: %s", e.Op, e.Reason)
}

// TypeMismatchError reports a cached instance or identifier whose runtime
// type disagrees with the type requested at the call site.
type TypeMismatchError struct {
	Name     string
	Expected reflect.Type
	Actual   reflect.Type
}

// Error implements the error interface
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("hyperspace: type mismatch for %q: requested %s, found %s",
		e.Name, typeName(e.Expected), typeName(e.Actual))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err is or wraps an InvalidStateError
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsTypeMismatch reports whether err is or wraps a TypeMismatchError
func IsTypeMismatch(err error) bool {
	var target *TypeMismatchError
	return errors.As(err, &target)
}

func configErr(path, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Path: path, Problems: []string{fmt.Sprintf(format, args...)}}
}

func frozenErr(op string) *InvalidStateError {
	return &InvalidStateError{Op: op, Reason: "metadata is frozen"}
}
