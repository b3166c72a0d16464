// Package errs defines the error kinds distinguished by the core, per the
// error handling design: syntax, resolution, type, cardinality, backend,
// and unsupported-feature errors.
package errs

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors callers may match with errors.Is.
var (
	ErrQuadExists     = stderrors.New("rdfstore: quad already exists")
	ErrQuadNotExist   = stderrors.New("rdfstore: quad does not exist")
	ErrDatabaseExists = stderrors.New("rdfstore: database already initialized")
	ErrNotInitialized = stderrors.New("rdfstore: store not initialized")
	ErrNotFound       = stderrors.New("rdfstore: key not found")
)

// SyntaxError carries a line/column-bearing parse failure. The parser never
// recovers from one — it is the first and only error returned for a given
// parse.
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ResolutionError covers unknown prefixes, unresolvable relative IRIs, and
// malformed escapes.
type ResolutionError struct {
	Line, Col int
	Msg       string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// TypeError is an expression-level error raised during SPARQL evaluation.
// Under FILTER it becomes an effective boolean value of false; under BIND
// and aggregates it fails the row.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return "type error: " + e.Msg }

// CardinalityError is raised when a query tries to project a required
// variable that SPARQL semantics leave unbound in a context that disallows
// it.
type CardinalityError struct {
	Var string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("cardinality error: variable %q is unbound", e.Var)
}

// BackendError wraps a storage-layer failure (I/O, corruption, transaction
// conflict). Cause retains the original error's stack via pkg/errors.
type BackendError struct {
	Op    string
	Cause error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error during %s: %v", e.Op, e.Cause)
}
func (e *BackendError) Unwrap() error { return e.Cause }

// WrapBackend wraps a raw backend error with operation context, adding a
// stack trace if one isn't already attached.
func WrapBackend(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Cause: errors.WithStack(err)}
}

// Unsupported marks a syntactically accepted but unimplemented feature
// (e.g. SERVICE). Silent indicates the caller asked to swallow the error
// rather than propagate it.
type Unsupported struct {
	Feature string
	Silent  bool
}

func (e *Unsupported) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}
