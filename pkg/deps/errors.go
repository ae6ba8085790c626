package deps

import "fmt"

// DependencyError is a problem attached to an unresolved or partially
// resolved subproject. Implementations are ParserError and ResolutionError.
type DependencyError interface {
	error
	// SourcePath is the file the problem is scoped to.
	SourcePath() string
	// Record returns the serializable form of the error.
	Record() ErrorRecord
}

// ParserError is a file-scoped parse problem.
type ParserError struct {
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason"`
}

func (e ParserError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e ParserError) SourcePath() string { return e.Path }

func (e ParserError) Record() ErrorRecord {
	return ErrorRecord{Type: recordParser, Path: e.Path, Line: e.Line, Column: e.Column, Text: e.Text, Reason: e.Reason}
}

// ResolutionErrorKind classifies a dynamic-resolution failure.
type ResolutionErrorKind string

const (
	UnsupportedManifest ResolutionErrorKind = "unsupported_manifest"
	ToolFailure         ResolutionErrorKind = "tool_failure"
	Timeout             ResolutionErrorKind = "timeout"
	TransportFailure    ResolutionErrorKind = "transport"
	InvalidResponse     ResolutionErrorKind = "invalid_response"
)

// ResolutionError is a manifest-scoped resolution problem.
type ResolutionError struct {
	Path    string              `json:"path"`
	Kind    ResolutionErrorKind `json:"kind"`
	Message string              `json:"message"`
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Message)
}

func (e ResolutionError) SourcePath() string { return e.Path }

func (e ResolutionError) Record() ErrorRecord {
	return ErrorRecord{Type: recordResolution, Path: e.Path, Kind: e.Kind, Message: e.Message}
}

const (
	recordParser     = "parser"
	recordResolution = "resolution"
)

// ErrorRecord is the wire form shared by both error types.
type ErrorRecord struct {
	Type    string              `json:"type"`
	Path    string              `json:"path"`
	Line    int                 `json:"line,omitempty"`
	Column  int                 `json:"column,omitempty"`
	Text    string              `json:"text,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	Kind    ResolutionErrorKind `json:"kind,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Err converts the record back into its concrete error type.
func (r ErrorRecord) Err() DependencyError {
	if r.Type == recordParser {
		return ParserError{Path: r.Path, Line: r.Line, Column: r.Column, Text: r.Text, Reason: r.Reason}
	}
	return ResolutionError{Path: r.Path, Kind: r.Kind, Message: r.Message}
}

// Records converts errs to their wire form.
func Records(errs []DependencyError) []ErrorRecord {
	out := make([]ErrorRecord, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Record())
	}
	return out
}

// ParserErrors widens a parser error slice to DependencyErrors.
func ParserErrors(errs []ParserError) []DependencyError {
	out := make([]DependencyError, 0, len(errs))
	for _, e := range errs {
		out = append(out, e)
	}
	return out
}
