package song

import "fmt"

// Severity represents how serious a parse diagnostic is.
type Severity string

// Severity constants.
const (
	// SeverityWarning marks a recoverable observation (unused part,
	// ambiguous chord alignment). The result is fully usable.
	SeverityWarning Severity = "warning"

	// SeverityError marks a structural problem the parser recovered from
	// with a documented fallback (unresolved reference, duplicate part).
	// A strict caller may choose to reject the result.
	SeverityError Severity = "error"
)

// Diagnostic is one parse observation carried alongside the parsed result
// instead of aborting processing. Diagnostics are never thrown away silently.
type Diagnostic struct {
	// Severity is warning or error.
	Severity Severity `json:"severity"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Line is the 1-indexed source line the diagnostic refers to,
	// 0 if no single line applies.
	Line int `json:"line,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", d.Severity, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Warningf builds a warning diagnostic for the given source line.
func Warningf(line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error diagnostic for the given source line.
func Errorf(line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Line: line, Message: fmt.Sprintf(format, args...)}
}

// CountSeverity returns how many diagnostics carry the given severity.
func CountSeverity(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors returns true if any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	return CountSeverity(diags, SeverityError) > 0
}
