package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/modelstack-labs/tmdlint/internal/cli/config"
	"github.com/modelstack-labs/tmdlint/internal/cli/output"
	"github.com/modelstack-labs/tmdlint/internal/engine"
	"github.com/modelstack-labs/tmdlint/pkg/bpa"
	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
	"github.com/spf13/cobra"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Rule   string // Run only this rule ID
	Format string // Output format: text, markdown, json
	Watch  bool   // Re-run on file changes
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [model-folder]",
		Short: "Run naming-convention checks on a semantic model",
		Long: `Scan the TMDL files of a semantic model for naming-convention
violations and report them with file and line provenance.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check the model in the current directory
  tmdlint check

  # Check a specific model folder
  tmdlint check ./Sales.SemanticModel

  # Run a single rule
  tmdlint check --rule UPPERCASE_OBJECT_NAMES

  # Re-run checks whenever a .tmdl file changes
  tmdlint check --watch

  # Output as JSON
  tmdlint check --format json`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "Run only the rule with this ID")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run checks when model files change")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	eng, err := newEngine(cmdCtx, args)
	if err != nil {
		return err
	}

	rules, err := selectRules(opts.Rule, cmdCtx.Cfg)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchAndCheck(cmd, eng, rules, r)
	}

	violations, err := scanAll(eng, rules)
	if err != nil {
		return err
	}
	found, err := renderCheckResults(r, violations)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("naming violations found")
	}
	return nil
}

// selectRules resolves the rule set to run: a single rule when requested,
// otherwise the full registry minus rules disabled in configuration.
func selectRules(ruleID string, cfg *config.Config) ([]bpa.Rule, error) {
	if ruleID != "" {
		rule, ok := bpa.Get(ruleID)
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", ruleID)
		}
		return []bpa.Rule{rule}, nil
	}

	var rules []bpa.Rule
	for _, rule := range bpa.Rules() {
		if cfg.IsRuleDisabled(rule.ID) {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// scanAll runs every selected rule's checker over the engine's files.
func scanAll(eng *engine.Engine, rules []bpa.Rule) ([]bpa.Violation, error) {
	var violations []bpa.Violation
	for _, rule := range rules {
		vs, err := eng.RunChecker(rule.ID)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)
	}
	return violations, nil
}

// checkFileResult holds violations for a single file.
type checkFileResult struct {
	Path       string           `json:"path"`
	Violations []checkViolation `json:"violations"`
}

type checkViolation struct {
	RuleID    string `json:"rule_id"`
	Construct string `json:"construct"`
	Name      string `json:"name"`
	Line      int    `json:"line"`
	Quoted    bool   `json:"quoted"`
}

// CheckOutput is the JSON output structure for the check command.
type CheckOutput struct {
	Files   []checkFileResult `json:"files"`
	Summary struct {
		TotalViolations int `json:"total_violations"`
		FilesAffected   int `json:"files_affected"`
	} `json:"summary"`
}

func groupByFile(violations []bpa.Violation) []checkFileResult {
	byPath := make(map[string][]checkViolation)
	for _, v := range violations {
		byPath[v.FilePath] = append(byPath[v.FilePath], checkViolation{
			RuleID:    v.RuleID,
			Construct: string(v.Construct),
			Name:      v.Name,
			Line:      v.Line,
			Quoted:    v.Quoted,
		})
	}

	results := make([]checkFileResult, 0, len(byPath))
	for path, vs := range byPath {
		sort.Slice(vs, func(i, j int) bool { return vs[i].Line < vs[j].Line })
		results = append(results, checkFileResult{Path: path, Violations: vs})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results
}

// renderCheckResults renders violations and reports whether any exist.
func renderCheckResults(r *output.Renderer, violations []bpa.Violation) (bool, error) {
	if len(violations) == 0 {
		r.Success("No naming violations found")
		return false, nil
	}

	results := groupByFile(violations)

	if r.EffectiveMode() == output.ModeJSON {
		out := CheckOutput{Files: results}
		out.Summary.TotalViolations = len(violations)
		out.Summary.FilesAffected = len(results)
		return true, r.JSON(out)
	}

	for _, res := range results {
		r.Println(r.Styles().FilePath.Render(res.Path))
		for _, v := range res.Violations {
			form := ""
			if v.Quoted {
				form = " (quoted)"
			}
			r.Printf("  %s  %s  %s %q%s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-5d", v.Line)),
				r.Styles().Bold.Render(v.RuleID),
				v.Construct,
				v.Name,
				form,
			)
		}
		r.Println("")
	}

	r.Printf("Summary: %d violations in %d files\n", len(violations), len(results))
	return true, nil
}

// watchAndCheck re-runs the checkers whenever a .tmdl file under the
// model's definition folder changes. Events are debounced so an editor
// save burst triggers one re-scan.
func watchAndCheck(cmd *cobra.Command, eng *engine.Engine, rules []bpa.Rule, r *output.Renderer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	definitionDir := filepath.Dir(eng.MainPath())
	if err := watcher.Add(definitionDir); err != nil {
		return fmt.Errorf("watching %s: %w", definitionDir, err)
	}
	tablesDir := filepath.Join(definitionDir, tmdl.TablesDir)
	if _, err := os.Stat(tablesDir); err == nil {
		if err := watcher.Add(tablesDir); err != nil {
			return fmt.Errorf("watching %s: %w", tablesDir, err)
		}
	}

	rescan := func() {
		if err := eng.Reload(); err != nil {
			r.Warning(err.Error())
			return
		}
		violations, err := scanAll(eng, rules)
		if err != nil {
			r.Warning(err.Error())
			return
		}
		if _, err := renderCheckResults(r, violations); err != nil {
			r.Warning(err.Error())
		}
	}

	rescan()
	r.Println(r.Styles().Muted.Render("Watching for changes (ctrl-c to stop)"))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasSuffix(ev.Name, tmdl.FileExt) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				debounce = time.After(250 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Warning(err.Error())
		case <-debounce:
			debounce = nil
			rescan()
		}
	}
}
