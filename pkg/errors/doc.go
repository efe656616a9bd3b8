// Package errors provides the small set of error helpers shared across
// the evaluator, export pipeline and diff engine.
//
// # Overview
//
// [CreateError] builds a plain sentinel-style error from a message;
// [New] and [Wrap] attach context to an existing error while keeping it
// unwrappable via errors.Is/errors.As. [ParseErrors] aggregates the
// multiple errors YAML/Jsonnet decoding can produce into one value.
//
// # Wrapping
//
//	err := errors.New(cause, "reading spec.json")
//	if errors.Is(err, kerrors.ErrNamespaceNotFound) { ... }
//
// # Sentinels
//
// A handful of sentinel errors are predeclared for conditions shared by
// more than one package (ErrGVKNotFound, ErrExportConflict,
// ErrTemplateFatal, and others); wrap them with New/Wrap rather than
// constructing ad hoc error strings so callers can distinguish them with
// errors.Is.
package errors
