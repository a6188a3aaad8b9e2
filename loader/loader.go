// Package loader parses DLG source, validates it and projects the result
// into the graph and export documents used by external tools.
package loader

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/engine/parser"
	"github.com/nathoo/dlgforge/types"
)

// Options tunes validation.
type Options struct {
	// PlayerIDs are speaker ids accepted without a [characters] entry,
	// in addition to "narrator".
	PlayerIDs []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{PlayerIDs: []string{"hero", "player", "[PlayerName]"}}
}

// Report holds every diagnostic for one dialogue, parser output first.
type Report struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether there are no errors. Warnings do not count.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// Err returns a *ValidationError when the report has errors, else nil.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Errors: r.Errors, Warnings: r.Warnings}
}

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Load parses and validates DLG source. The Dialogue is always returned,
// even when the report carries errors.
func Load(text string, opts Options) (*types.Dialogue, Report) {
	d := parser.Parse(text)
	r := Validate(d, opts)
	zap.L().Debug("dialogue loaded",
		zap.Int("nodes", len(d.Nodes)),
		zap.Int("errors", len(r.Errors)),
		zap.Int("warnings", len(r.Warnings)))
	return d, r
}
