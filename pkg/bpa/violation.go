// Package bpa implements the best-practice naming rules for TMDL semantic
// models: pattern-based violation detection over raw file text plus
// span-exact automated fixes that preserve every surrounding byte.
package bpa

import (
	"errors"

	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
)

// ConstructType identifies the kind of declaration a violation was found on.
type ConstructType string

// Construct types reported by the checkers.
const (
	ConstructTable                 ConstructType = "table"
	ConstructCalculatedTable       ConstructType = "calculated table"
	ConstructMeasure               ConstructType = "measure"
	ConstructColumn                ConstructType = "column"
	ConstructCalculatedColumn      ConstructType = "calculated column"
	ConstructDataColumn            ConstructType = "data column"
	ConstructCalculatedTableColumn ConstructType = "calculated table column"
	ConstructHierarchy             ConstructType = "hierarchy"
)

// Violation is one naming-convention finding. It is ephemeral: produced by
// a checker against the file content current at that moment and consumed
// by the paired fixer before the content changes again.
type Violation struct {
	RuleID    string
	Construct ConstructType
	Name      string
	FilePath  string
	Line      int // 1-based
	Quoted    bool

	// NameStart and NameEnd delimit the identifier token in the scanned
	// content, including the surrounding quotes when Quoted. Fixers
	// revalidate this span against fresh content before rewriting.
	NameStart int
	NameEnd   int
}

// ErrStaleViolation means a fixer found file content that no longer
// matches the span recorded at detection time. The caller should re-run
// the checker and retry with fresh violations.
var ErrStaleViolation = errors.New("violation is stale: file content changed since detection")

// Checker scans model files for violations of one rule.
type Checker interface {
	Scan(files []*tmdl.ModelFile) []Violation
}

// Fixer applies automated rewrites for violations produced by its paired
// checker. Implementations write files back; callers reload afterwards.
type Fixer interface {
	Apply(violations []Violation) error
}

// Rewriter is implemented by fixers that can show the replacement token
// for a violation without touching the file. Used for dry runs.
type Rewriter interface {
	Rewrite(v Violation) string
}
