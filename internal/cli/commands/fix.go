package commands

import (
	"fmt"

	"github.com/modelstack-labs/tmdlint/internal/cli/output"
	"github.com/modelstack-labs/tmdlint/pkg/bpa"
	"github.com/spf13/cobra"
)

// FixOptions holds options for the fix command.
type FixOptions struct {
	Rule   string // Fix only this rule ID
	DryRun bool   // Show rewrites without writing
	Format string // Output format: text, markdown, json
}

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	opts := &FixOptions{}
	cmd := &cobra.Command{
		Use:   "fix [model-folder]",
		Short: "Apply automated fixes for naming-convention violations",
		Long: `Run the naming checkers, apply each rule's paired fixer, and
re-run the checkers to confirm the model converged to zero violations.

Fixes rewrite only the declared identifier; every other byte of the file
is preserved. Files are re-read fresh before each rewrite and the
recorded violation span is validated against the current content.`,
		Example: `  # Fix all violations
  tmdlint fix ./Sales.SemanticModel

  # Fix a single rule
  tmdlint fix --rule SPACES_IN_VISIBLE_OBJECT_NAMES

  # Preview rewrites without touching any file
  tmdlint fix --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "Fix only the rule with this ID")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show planned rewrites without writing files")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runFix(cmd *cobra.Command, args []string, opts *FixOptions) error {
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

	fixed := 0
	residual := 0
	for _, rule := range rules {
		violations, err := eng.RunChecker(rule.ID)
		if err != nil {
			return err
		}
		if len(violations) == 0 {
			continue
		}

		if opts.DryRun {
			renderPlannedRewrites(r, rule, violations)
			fixed += len(violations)
			continue
		}

		if err := eng.RunFixer(rule.ID, violations); err != nil {
			return err
		}
		fixed += len(violations)

		// Convergence check against the reloaded content.
		remaining, err := eng.RunChecker(rule.ID)
		if err != nil {
			return err
		}
		residual += len(remaining)
	}

	switch {
	case fixed == 0:
		r.Success("No naming violations to fix")
	case opts.DryRun:
		r.Printf("Dry run: %d violations would be fixed\n", fixed)
	case residual > 0:
		r.Warning(fmt.Sprintf("%d violations fixed, %d remain", fixed, residual))
		return fmt.Errorf("violations remain after fix; re-run check")
	default:
		r.Success(fmt.Sprintf("%d violations fixed", fixed))
	}
	return nil
}

// renderPlannedRewrites prints the rewrites a fixer would apply.
func renderPlannedRewrites(r *output.Renderer, rule bpa.Rule, violations []bpa.Violation) {
	rewriter, ok := rule.Fixer.(bpa.Rewriter)
	if !ok {
		r.Warning(fmt.Sprintf("rule %s cannot preview its fixes", rule.ID))
		return
	}

	r.Println(r.Styles().Bold.Render(rule.ID))
	for _, v := range violations {
		current := v.Name
		if v.Quoted {
			current = "'" + v.Name + "'"
		}
		r.Printf("  %s:%d  %s %s -> %s\n",
			v.FilePath, v.Line, v.Construct, current, rewriter.Rewrite(v))
	}
	r.Println("")
}
