// Package engine ties the model tree, the naming-rule registry, and the
// annotation store into one session over a semantic-model folder.
// It is the surface the CLI layer talks to: resolve the folder, run
// checkers and fixers, and read or rewrite the embedded BPA rule list.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/modelstack-labs/tmdlint/pkg/bpa"
	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
)

// Engine holds the tracked model files of one semantic-model session.
// It is single-operator and synchronous: no two operations run
// concurrently against the same file tree, and the only consistency
// mechanism is a full reload after every mutation.
type Engine struct {
	root     string
	mainPath string
	files    []*tmdl.ModelFile
	store    *tmdl.AnnotationStore
	logger   *slog.Logger
}

// New resolves the semantic-model folder structure and loads every
// tracked file's content. Files that cannot be read are dropped from the
// session with a warning; the structure checks themselves are fatal.
func New(root string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mainPath, err := tmdl.Resolve(root)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		root:     root,
		mainPath: mainPath,
		store:    tmdl.NewBPAStore(),
		logger:   logger,
	}
	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// MainPath returns the absolute path of the main definition file.
func (e *Engine) MainPath() string {
	return e.mainPath
}

// Files returns the tracked model files with their current contents.
func (e *Engine) Files() []*tmdl.ModelFile {
	return e.files
}

// Reload re-enumerates the model tree and re-reads every file from disk.
// The main file must load; a table file that fails to read is skipped
// with a warning so one broken file does not abort the whole scan.
func (e *Engine) Reload() error {
	listed, err := tmdl.ListModelFiles(e.mainPath)
	if err != nil {
		return err
	}

	files := make([]*tmdl.ModelFile, 0, len(listed))
	for _, f := range listed {
		if err := f.Reload(); err != nil {
			if f.Role == tmdl.RoleMain {
				return err
			}
			e.logger.Warn("skipping unreadable table file",
				"path", f.Path, "error", err)
			continue
		}
		files = append(files, f)
	}
	e.files = files
	return nil
}

// RunChecker scans all tracked files with the named rule's checker.
func (e *Engine) RunChecker(ruleID string) ([]bpa.Violation, error) {
	rule, ok := bpa.Get(ruleID)
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", ruleID)
	}
	return rule.Checker.Scan(e.files), nil
}

// RunFixer applies the named rule's fixer to the given violations, then
// reloads all tracked files so subsequent checker calls see the corrected
// text. A failure partway through a batch may leave some files corrected;
// callers must re-run the checker for an accurate residual list.
func (e *Engine) RunFixer(ruleID string, violations []bpa.Violation) error {
	rule, ok := bpa.Get(ruleID)
	if !ok {
		return fmt.Errorf("unknown rule %q", ruleID)
	}
	if len(violations) == 0 {
		return nil
	}

	fixErr := rule.Fixer.Apply(violations)
	if err := e.Reload(); err != nil {
		if fixErr != nil {
			return fmt.Errorf("fix failed (%v); reload failed: %w", fixErr, err)
		}
		return err
	}
	if fixErr != nil {
		return fmt.Errorf("fix batch for %s incomplete: %w", ruleID, fixErr)
	}
	return nil
}

// LoadRules decodes the BPA rule records embedded in the main file.
func (e *Engine) LoadRules() ([]tmdl.RuleRecord, error) {
	return e.store.Load(e.mainPath)
}

// SaveRules rewrites the embedded BPA rule array with the given records,
// leaving all other bytes of the main file untouched, and reloads.
func (e *Engine) SaveRules(records []tmdl.RuleRecord) error {
	if err := e.store.Save(e.mainPath, records); err != nil {
		return err
	}
	return e.Reload()
}
