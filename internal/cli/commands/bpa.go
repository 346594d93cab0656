package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/modelstack-labs/tmdlint/internal/cli/output"
	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewBPACommand creates the bpa command group.
func NewBPACommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bpa",
		Short: "Manage Best Practice Analyzer rules embedded in the model",
		Long: `Manage the Best Practice Analyzer rule records stored in the
BestPracticeAnalyzer annotation of the model's main file.

The annotation holds a JSON array of rule records. tmdlint reads and
rewrites that array in place without touching any other byte of the file.`,
	}

	cmd.AddCommand(NewBPAListCommand())
	cmd.AddCommand(NewBPAApplyCommand())

	return cmd
}

// BPAListOptions holds options for the bpa list command.
type BPAListOptions struct {
	Format string
}

// NewBPAListCommand creates the bpa list command.
func NewBPAListCommand() *cobra.Command {
	opts := &BPAListOptions{}
	cmd := &cobra.Command{
		Use:   "list [model-dir]",
		Short: "List the BPA rules embedded in the model",
		Example: `  # List rules in the model under the current directory
  tmdlint bpa list

  # List rules for a specific model
  tmdlint bpa list ./reports/Sales

  # Output as JSON
  tmdlint bpa list --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBPAList(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func runBPAList(cmd *cobra.Command, args []string, opts *BPAListOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	eng, err := newEngine(cmdCtx, args)
	if err != nil {
		return err
	}

	records, err := eng.LoadRules()
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(map[string]any{
			"model": eng.MainPath(),
			"rules": records,
			"count": len(records),
		})

	case output.ModeMarkdown:
		for _, category := range recordCategories(records) {
			r.Printf("## %s\n\n", categoryCaption(category))
			t := bpaRecordsTable(recordsInCategory(records, category))
			t.SetOutputMirror(r.Writer())
			t.RenderMarkdown()
			r.Println("")
		}
		return nil

	default:
		styles := r.Styles()
		r.Println("")
		r.Println(styles.Header1.Render(fmt.Sprintf("BPA Rules (%d)", len(records))))
		r.Println(styles.Muted.Render(eng.MainPath()))
		for _, category := range recordCategories(records) {
			r.Println("")
			r.Println(styles.Header2.Render(categoryCaption(category)))
			t := bpaRecordsTable(recordsInCategory(records, category))
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			t.Render()
		}
		r.Println("")
		return nil
	}
}

// recordCategories returns the distinct categories in first-seen order.
func recordCategories(records []tmdl.RuleRecord) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, rec := range records {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			categories = append(categories, rec.Category)
		}
	}
	return categories
}

func recordsInCategory(records []tmdl.RuleRecord, category string) []tmdl.RuleRecord {
	var out []tmdl.RuleRecord
	for _, rec := range records {
		if rec.Category == category {
			out = append(out, rec)
		}
	}
	return out
}

// categoryCaption normalizes a category string for display headers.
func categoryCaption(category string) string {
	if category == "" {
		return "Uncategorized"
	}
	return cases.Title(language.English, cases.NoLower).String(category)
}

func bpaRecordsTable(records []tmdl.RuleRecord) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Name", "Severity"})
	for _, rec := range records {
		t.AppendRow(table.Row{rec.ID, rec.Name, severityLabel(rec.Severity)})
	}
	return t
}

// BPAApplyOptions holds options for the bpa apply command.
type BPAApplyOptions struct {
	IDs      []string
	Category string
}

// NewBPAApplyCommand creates the bpa apply command.
func NewBPAApplyCommand() *cobra.Command {
	opts := &BPAApplyOptions{}
	cmd := &cobra.Command{
		Use:   "apply [model-dir]",
		Short: "Rewrite the model's BPA annotation to a selection of its rules",
		Long: `Select rule records already present in the model's
BestPracticeAnalyzer annotation and rewrite the array to exactly that
selection. Records outside the selection are dropped; the records kept
are written back unchanged, extra fields included.`,
		Example: `  # Keep only specific rules
  tmdlint bpa apply --ids UPPERCASE_OBJECT_NAMES,SPACES_IN_VISIBLE_OBJECT_NAMES

  # Keep every rule in a category
  tmdlint bpa apply --category "Naming Conventions"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBPAApply(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "Comma-separated IDs of records to keep")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Keep all records in this category")

	return cmd
}

func runBPAApply(cmd *cobra.Command, args []string, opts *BPAApplyOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	eng, err := newEngine(cmdCtx, args)
	if err != nil {
		return err
	}

	records, err := eng.LoadRules()
	if err != nil {
		return err
	}

	selected, err := selectRecords(records, opts)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no rules selected; pass --ids or --category")
	}

	dropped := len(records) - len(selected)
	if err := eng.SaveRules(selected); err != nil {
		return err
	}

	cmdCtx.Logger.Debug("rewrote BPA rules", "kept", len(selected), "dropped", dropped)
	r.Success(fmt.Sprintf("Annotation in %s now holds %d of %d rule(s)",
		eng.MainPath(), len(selected), len(records)))
	return nil
}

// selectRecords filters the loaded records down to the --ids / --category
// selection, keeping the records' original order. Every requested ID must
// exist in the model.
func selectRecords(records []tmdl.RuleRecord, opts *BPAApplyOptions) ([]tmdl.RuleRecord, error) {
	if len(opts.IDs) > 0 && opts.Category != "" {
		return nil, fmt.Errorf("--ids and --category are mutually exclusive")
	}

	if len(opts.IDs) > 0 {
		keep := make(map[string]bool, len(opts.IDs))
		for _, id := range opts.IDs {
			keep[strings.TrimSpace(id)] = true
		}

		var selected []tmdl.RuleRecord
		for _, rec := range records {
			if keep[rec.ID] {
				selected = append(selected, rec)
				delete(keep, rec.ID)
			}
		}
		for id := range keep {
			return nil, fmt.Errorf("rule %q not found in the model; run 'tmdlint bpa list' to see its rules", id)
		}
		return selected, nil
	}

	if opts.Category != "" {
		var selected []tmdl.RuleRecord
		for _, rec := range records {
			if strings.EqualFold(rec.Category, opts.Category) {
				selected = append(selected, rec)
			}
		}
		return selected, nil
	}

	return nil, nil
}
