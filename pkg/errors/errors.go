package errors

import "fmt"

// CreateError returns an error that formats as the given text.
// Each call to CreateError returns a distinct error value even if the text is identical.
func CreateError(text string) error {
    return &errorString{text}
}

func New(err error, message string) error {
    return &KubeError{err, message}
}

// errorString is a trivial implementation of error.
type errorString struct {
    s string
}

type KubeError struct {
    err     error
    message string
}

func (e *errorString) Error() string {
    return e.s
}
func (e *KubeError) Error() string {
    return fmt.Sprintf("%s: %s", e.err, e.message)
}

// Wrap attaches a message to err using the same formatting as New, returning
// nil when err is nil so callers can write `return errors.Wrap(err, "...")`
// unconditionally after an `if err != nil` guard has already fired.
func Wrap(err error, message string) error {
    if err == nil {
        return nil
    }
    return New(err, message)
}

func (e *KubeError) Unwrap() error { return e.err }

// Sentinel errors shared by the evaluator, the exporter and the diff engine.
var (
    ErrGVKNotFound   = CreateError("could not determine GroupVersionKind")
    ErrGVKNotAllowed = CreateError("GroupVersionKind is not allowed")
    ErrNilObject     = CreateError("provided object is nil")

    ErrNoSuchField       = CreateError("no such field")
    ErrImportNotFound    = CreateError("import not found")
    ErrImportCycle       = CreateError("import cycle detected")
    ErrStackOverflow     = CreateError("max stack frames exceeded")
    ErrInfiniteRecursion = CreateError("infinite recursion detected")
    ErrDivisionByZero    = CreateError("division by zero")
    ErrArrayBounds       = CreateError("array index out of bounds")
    ErrFractionalIndex   = CreateError("array index is not an integer")
    ErrCantIndexInto     = CreateError("value does not support indexing")
    ErrUndefinedExtVar   = CreateError("undefined external variable")
    ErrMissingAPIVersion = CreateError("object has kind/metadata but no apiVersion")
    ErrExportConflict    = CreateError("export conflict")
    ErrTemplateFatal     = CreateError("filename template error")
    ErrNamespaceNotFound = CreateError("target namespace does not exist")
)
