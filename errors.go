package idlc

import "fmt"

// backtrackingError is an internal error caught and discarded by Choice
// and the ZeroOrMore/OneOrMore loops so alternative rules can be tried.
// It never reaches the caller of Parse.
type backtrackingError struct {
	Expected string
	Message  string
	Span     Span
}

func (e *backtrackingError) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Span)
}

// SyntaxError is raised when the grammar fails to match at all and no
// further alternative remains. It carries the location at which the
// failing rule gave up (Throw records the current cursor; the furthest
// point reached by abandoned alternatives is not tracked).
type SyntaxError struct {
	Expected string
	Message  string
	Span     Span
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s @ %s", e.Message, e.Span)
}

func isBacktracking(err error) bool {
	_, ok := err.(*backtrackingError)
	return ok
}

// ResolveError is raised when a scoped name does not resolve to an
// entity of the expected kind.
type ResolveError struct {
	Name string
	Span Span
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("could not resolve name %q @ %s", e.Name, e.Span)
}

// RedefinitionError is raised when a declaration would shadow an
// existing symbol and the active policy disallows it.
type RedefinitionError struct {
	Name     string
	Module   string
	Previous Span
	Span     Span
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("%q already declared in module %q @ %s (previously declared @ %s)",
		e.Name, e.Module, e.Span, e.Previous)
}

// EvalTypeError is raised when a constant expression uses an operator
// against operand kinds that are not valid for it.
type EvalTypeError struct {
	Op   string
	Kind DynKind
	Span Span
}

func (e *EvalTypeError) Error() string {
	return fmt.Sprintf("operator %q is not valid for operand kind %s @ %s", e.Op, e.Kind, e.Span)
}

// EvalRangeError is raised when a reduced constant does not fit into
// its declared type.
type EvalRangeError struct {
	Value   string
	ToKind  DynKind
	Span    Span
	Message string
}

func (e *EvalRangeError) Error() string {
	return fmt.Sprintf("value %s does not fit in %s @ %s: %s", e.Value, e.ToKind, e.Span, e.Message)
}

// AnnotationParamError is raised when annotation parameters do not match
// the declared annotation's members.
type AnnotationParamError struct {
	Annotation string
	Message    string
	Span       Span
}

func (e *AnnotationParamError) Error() string {
	return fmt.Sprintf("annotation @%s: %s @ %s", e.Annotation, e.Message, e.Span)
}

// UnsupportedError is raised when the grammar matched a construct whose
// semantic mapping is not implemented.
type UnsupportedError struct {
	Construct string
	Span      Span
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct %q @ %s", e.Construct, e.Span)
}

// PreprocessorError is raised when the external preprocessor fails to
// spawn or reports a non-zero exit.
type PreprocessorError struct {
	Command string
	Cause   error
}

func (e *PreprocessorError) Error() string {
	return fmt.Sprintf("preprocessor command %q failed: %v", e.Command, e.Cause)
}

func (e *PreprocessorError) Unwrap() error { return e.Cause }

// Diagnostic is a single entry in a ParseContext's diagnostic list: an
// error (fatal, aborts the parse) or a warning (non-fatal, recorded and
// parsing continues).
type Diagnostic struct {
	Severity DiagnosticSeverity
	Err      error
	Span     Span
}

type DiagnosticSeverity int

const (
	SeverityWarning DiagnosticSeverity = iota
	SeverityError
)

func (d Diagnostic) String() string {
	prefix := "warning"
	if d.Severity == SeverityError {
		prefix = "error"
	}
	return fmt.Sprintf("%s: %v", prefix, d.Err)
}
