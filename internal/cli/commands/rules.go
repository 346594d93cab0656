package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/modelstack-labs/tmdlint/internal/cli/output"
	"github.com/modelstack-labs/tmdlint/pkg/bpa"
	"github.com/spf13/cobra"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Verbose bool   // Show descriptions
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the available naming rules",
		Long: `List the naming-convention rules tmdlint can check and fix,
in their fixed registry order.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  tmdlint rules

  # Show details for a specific rule
  tmdlint rules UPPERCASE_OBJECT_NAMES

  # Output as JSON
  tmdlint rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show rule descriptions")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

// RuleInfo is the JSON shape of a registry entry.
type RuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
}

func ruleInfo(r bpa.Rule) RuleInfo {
	return RuleInfo{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Severity:    r.Severity,
	}
}

// severityLabel maps the BPA 1-3 scale to a display word.
func severityLabel(severity int) string {
	switch severity {
	case 1:
		return "info"
	case 2:
		return "warning"
	case 3:
		return "error"
	default:
		return fmt.Sprintf("severity %d", severity)
	}
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	rules := bpa.Rules()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		infos := make([]RuleInfo, 0, len(rules))
		for _, rule := range rules {
			infos = append(infos, ruleInfo(rule))
		}
		return r.JSON(map[string]any{"rules": infos, "count": len(infos)})

	case output.ModeMarkdown:
		t := rulesTable(rules, opts.Verbose)
		t.SetOutputMirror(r.Writer())
		t.RenderMarkdown()
		return nil

	default:
		r.Println("")
		r.Println(r.Styles().Header1.Render(fmt.Sprintf("Naming Rules (%d)", len(rules))))
		r.Println("")
		t := rulesTable(rules, opts.Verbose)
		t.SetOutputMirror(r.Writer())
		t.SetStyle(table.StyleLight)
		t.Render()
		r.Println("")
		r.Println(r.Styles().Muted.Render("Use 'tmdlint rules <rule-id>' for details"))
		return nil
	}
}

func rulesTable(rules []bpa.Rule, verbose bool) table.Writer {
	t := table.NewWriter()
	if verbose {
		t.AppendHeader(table.Row{"ID", "Name", "Category", "Severity", "Description"})
	} else {
		t.AppendHeader(table.Row{"ID", "Name", "Category", "Severity"})
	}
	for _, rule := range rules {
		if verbose {
			t.AppendRow(table.Row{rule.ID, rule.Name, rule.Category, severityLabel(rule.Severity), rule.Description})
		} else {
			t.AppendRow(table.Row{rule.ID, rule.Name, rule.Category, severityLabel(rule.Severity)})
		}
	}
	return t
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	rule, ok := bpa.Get(ruleID)
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(ruleInfo(rule))

	case output.ModeMarkdown:
		r.Printf("# %s\n\n", rule.ID)
		r.Printf("**%s** | %s | `%s`\n\n", rule.Name, rule.Category, severityLabel(rule.Severity))
		r.Println(rule.Description)
		return nil

	default:
		styles := r.Styles()
		r.Println("")
		r.Println(styles.Header1.Render(rule.ID))
		r.Println("")
		r.Printf("  %s: %s\n", styles.Bold.Render("Name"), rule.Name)
		r.Printf("  %s: %s\n", styles.Bold.Render("Category"), rule.Category)
		r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), severityLabel(rule.Severity))
		r.Println("")
		r.Println(styles.Bold.Render("Description"))
		r.Println("  " + rule.Description)
		r.Println("")
		return nil
	}
}
