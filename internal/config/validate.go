package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tsgonest/apitypes/internal/source"
	"github.com/tsgonest/apitypes/internal/typegen"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	// Output
	switch {
	case strings.TrimSpace(c.Output.Path) == "":
		result.Errors = append(result.Errors, "output.path: must not be empty")
	case source.IsRemote(c.Output.Path):
		result.Errors = append(result.Errors,
			fmt.Sprintf("output.path: %q is a URL, expected a local directory", c.Output.Path))
	case filepath.Ext(c.Output.Path) == typegen.FileExtension:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("output.path: %q looks like a file; artifacts are written below it as a directory", c.Output.Path))
	}

	// Cycles
	if _, err := typegen.ParseCyclePolicy(c.Cycles); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("cycles: invalid value %q, must be %q or %q", c.Cycles, typegen.CycleError, typegen.CycleAlias))
	}

	// Unrecognized keys are ignored
	for _, key := range c.unknown {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: unknown key is ignored", key))
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}
