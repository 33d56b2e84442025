// Package diagnostic collects warnings and errors raised while generating
// artifacts so they can be reported together at the end of a run.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category classifies diagnostics for filtering.
type Category string

const (
	CategoryUnsupportedSchema Category = "unsupported-schema"
	CategoryUnknownReference  Category = "unknown-reference"
	CategoryCyclicReference   Category = "cyclic-reference"
	CategoryFileSystem        Category = "file-system"
	CategoryStaleArtifact     Category = "stale-artifact"
	CategoryDocument          Category = "document"
)

// Diagnostic represents a structured diagnostic message.
type Diagnostic struct {
	Severity  Severity
	Category  Category
	Operation string // e.g. "GET /users/{id}" (empty = document level)
	Pointer   string // schema location, e.g. "#/components/schemas/User"
	Message   string
	Hint      string // optional suggestion for fixing the issue
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.Operation != "" {
		sb.WriteString(d.Operation)
		if d.Pointer != "" {
			sb.WriteString(" (")
			sb.WriteString(d.Pointer)
			sb.WriteString(")")
		}
		sb.WriteString(" - ")
	} else if d.Pointer != "" {
		sb.WriteString(d.Pointer)
		sb.WriteString(" - ")
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")

	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}

	sb.WriteString(d.Message)

	if d.Hint != "" {
		sb.WriteString("\n  hint: ")
		sb.WriteString(d.Hint)
	}

	return sb.String()
}

// Collector collects diagnostics during a run.
type Collector struct {
	diagnostics []Diagnostic
	strict      bool // if true, warnings become errors
	quiet       bool // if true, suppress warnings and info
}

// NewCollector creates a new diagnostic collector.
func NewCollector(strict, quiet bool) *Collector {
	return &Collector{
		strict: strict,
		quiet:  quiet,
	}
}

// Warn adds a warning diagnostic.
func (c *Collector) Warn(category Category, operation, pointer, message string) {
	c.WarnWithHint(category, operation, pointer, message, "")
}

// WarnWithHint adds a warning with a suggestion.
func (c *Collector) WarnWithHint(category Category, operation, pointer, message, hint string) {
	if c == nil || c.quiet {
		return
	}
	sev := SeverityWarning
	if c.strict {
		sev = SeverityError
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity:  sev,
		Category:  category,
		Operation: operation,
		Pointer:   pointer,
		Message:   message,
		Hint:      hint,
	})
}

// Report records err as an error diagnostic for operation. The category is
// derived from the sentinel the error is marked with and any hints attached
// to it are carried over.
func (c *Collector) Report(operation string, err error) {
	if c == nil || err == nil {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity:  SeverityError,
		Category:  categoryOf(err),
		Operation: operation,
		Message:   err.Error(),
		Hint:      errors.FlattenHints(err),
	})
}

func categoryOf(err error) Category {
	switch errors.Kind(err) {
	case errors.ErrUnsupportedSchema:
		return CategoryUnsupportedSchema
	case errors.ErrUnknownReference:
		return CategoryUnknownReference
	case errors.ErrCyclicReference:
		return CategoryCyclicReference
	case errors.ErrFileSystem:
		return CategoryFileSystem
	default:
		return CategoryDocument
	}
}

// Info adds an informational diagnostic.
func (c *Collector) Info(category Category, operation, message string) {
	if c == nil || c.quiet {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity:  SeverityInfo,
		Category:  category,
		Operation: operation,
		Message:   message,
	})
}

// Diagnostics returns all collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return c.diagnostics
}

// ErrorCount returns the number of error diagnostics.
func (c *Collector) ErrorCount() int {
	return c.count(SeverityError)
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Summary returns a summary line like "1 error(s), 2 warning(s)".
func (c *Collector) Summary() string {
	if c == nil {
		return ""
	}
	warnings := c.WarningCount()
	errs := c.ErrorCount()

	parts := []string{}
	if errs > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errs))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}
