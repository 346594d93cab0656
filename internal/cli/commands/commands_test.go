package commands_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelstack-labs/tmdlint/internal/cli/commands"
	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
)

// buildModel lays out a semantic-model folder for command tests.
func buildModel(t *testing.T, mainContent string, tables map[string]string) string {
	t.Helper()
	root := t.TempDir()
	definition := filepath.Join(root, tmdl.DefinitionDir)
	require.NoError(t, os.MkdirAll(filepath.Join(definition, tmdl.TablesDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(definition, tmdl.MainFileName), []byte(mainContent), 0o644))
	for name, content := range tables {
		require.NoError(t, os.WriteFile(filepath.Join(definition, tmdl.TablesDir, name), []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := commands.NewCheckCommand()

	assert.Equal(t, "check [model-folder]", cmd.Use)
	for _, name := range []string{"rule", "format", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestCheckCommandReportsViolations(t *testing.T) {
	root := buildModel(t, "model Model\n", map[string]string{
		"dimSales.tmdl": "table dimSales\n\n\tcolumn SalesAmount\n",
	})

	out, _, err := execute(t, commands.NewCheckCommand(), root, "--format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "naming violations found")

	var decoded struct {
		Files []struct {
			Path       string `json:"path"`
			Violations []struct {
				RuleID string `json:"rule_id"`
				Name   string `json:"name"`
				Line   int    `json:"line"`
			} `json:"violations"`
		} `json:"files"`
		Summary struct {
			TotalViolations int `json:"total_violations"`
			FilesAffected   int `json:"files_affected"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, 2, decoded.Summary.TotalViolations)
	assert.Equal(t, 1, decoded.Summary.FilesAffected)
	require.Len(t, decoded.Files, 1)
	assert.Equal(t, "dimSales", decoded.Files[0].Violations[0].Name)
	assert.Equal(t, 1, decoded.Files[0].Violations[0].Line)
}

func TestCheckCommandCleanModel(t *testing.T) {
	root := buildModel(t, "model Model\n", map[string]string{
		"DimSales.tmdl": "table DimSales\n\n\tcolumn 'Sales Amount'\n",
	})

	out, _, err := execute(t, commands.NewCheckCommand(), root)
	require.NoError(t, err)
	assert.Contains(t, out, "No naming violations found")
}

func TestCheckCommandSingleRule(t *testing.T) {
	root := buildModel(t, "model Model\n", map[string]string{
		"dimSales.tmdl": "table dimSales\n\n\tcolumn SalesAmount\n",
	})

	out, _, err := execute(t, commands.NewCheckCommand(), root,
		"--rule", "UPPERCASE_OBJECT_NAMES", "--format", "json")
	require.Error(t, err)

	var decoded struct {
		Summary struct {
			TotalViolations int `json:"total_violations"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Summary.TotalViolations)
}

// brokenWriter fails every write.
type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("pipe closed")
}

func TestCheckCommandSurfacesJSONWriteError(t *testing.T) {
	root := buildModel(t, "model Model\n", map[string]string{
		"dimSales.tmdl": "table dimSales\n",
	})

	cmd := commands.NewCheckCommand()
	cmd.SetOut(brokenWriter{})
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{root, "--format", "json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipe closed")
}

func TestCheckCommandUnknownRule(t *testing.T) {
	root := buildModel(t, "model Model\n", nil)

	_, _, err := execute(t, commands.NewCheckCommand(), root, "--rule", "BOGUS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule")
}

func TestFixCommandFlags(t *testing.T) {
	cmd := commands.NewFixCommand()

	for _, name := range []string{"rule", "dry-run", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestFixCommandRewritesFiles(t *testing.T) {
	root := buildModel(t, "model Model\n", map[string]string{
		"dimSales.tmdl": "table dimSales\n\n\tcolumn SalesAmountUSD\n",
	})

	out, _, err := execute(t, commands.NewFixCommand(), root)
	require.NoError(t, err)
	assert.Contains(t, out, "2 violations fixed")

	data, err := os.ReadFile(filepath.Join(root, tmdl.DefinitionDir, tmdl.TablesDir, "dimSales.tmdl"))
	require.NoError(t, err)
	assert.Equal(t, "table DimSales\n\n\tcolumn 'Sales Amount USD'\n", string(data))

	// A second run has nothing left to do.
	out, _, err = execute(t, commands.NewFixCommand(), root)
	require.NoError(t, err)
	assert.Contains(t, out, "No naming violations to fix")
}

func TestFixCommandDryRun(t *testing.T) {
	content := "table dimSales\n\n\tcolumn SalesAmountUSD\n"
	root := buildModel(t, "model Model\n", map[string]string{"dimSales.tmdl": content})

	out, _, err := execute(t, commands.NewFixCommand(), root, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: 2 violations would be fixed")
	assert.Contains(t, out, "'Sales Amount USD'")

	data, err := os.ReadFile(filepath.Join(root, tmdl.DefinitionDir, tmdl.TablesDir, "dimSales.tmdl"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data), "dry run must not write files")
}

func TestRulesCommandListsRegistry(t *testing.T) {
	out, _, err := execute(t, commands.NewRulesCommand(), "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		Rules []struct {
			ID       string `json:"id"`
			Category string `json:"category"`
		} `json:"rules"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, "UPPERCASE_OBJECT_NAMES", decoded.Rules[0].ID)
	assert.Equal(t, "Naming Conventions", decoded.Rules[0].Category)
}

func TestRulesCommandShowsSingleRule(t *testing.T) {
	out, _, err := execute(t, commands.NewRulesCommand(), "SPACES_IN_VISIBLE_OBJECT_NAMES", "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		ID       string `json:"id"`
		Severity int    `json:"severity"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "SPACES_IN_VISIBLE_OBJECT_NAMES", decoded.ID)
	assert.Equal(t, 2, decoded.Severity)

	_, _, err = execute(t, commands.NewRulesCommand(), "BOGUS")
	require.Error(t, err)
}

func modelWithAnnotation(t *testing.T, records []tmdl.RuleRecord) string {
	t.Helper()
	serialized, err := tmdl.SerializeRecords(records)
	require.NoError(t, err)
	return "model Model\n\n" + tmdl.BPAMarker + " " + serialized + "\n"
}

func TestBPAListCommand(t *testing.T) {
	records := []tmdl.RuleRecord{{
		ID:       "UPPERCASE_OBJECT_NAMES",
		Name:     "Start case",
		Category: "Naming Conventions",
		Severity: 2,
	}}
	root := buildModel(t, modelWithAnnotation(t, records), nil)

	out, _, err := execute(t, commands.NewBPAListCommand(), root, "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		Count int `json:"count"`
		Rules []struct {
			ID string `json:"ID"`
		} `json:"rules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Count)
	assert.Equal(t, "UPPERCASE_OBJECT_NAMES", decoded.Rules[0].ID)
}

// applyFixtureRecords is a model annotation holding the two built-in
// naming rules plus a vendor record outside any selection below.
func applyFixtureRecords() []tmdl.RuleRecord {
	return []tmdl.RuleRecord{
		{ID: "UPPERCASE_OBJECT_NAMES", Name: "Start case", Category: "Naming Conventions", Severity: 2},
		{ID: "SPACES_IN_VISIBLE_OBJECT_NAMES", Name: "Spaced names", Category: "Naming Conventions", Severity: 2},
		{ID: "VENDOR_DAX_STYLE", Name: "Vendor rule", Category: "DAX Expressions", Severity: 1},
	}
}

func loadSavedRecords(t *testing.T, root string) []tmdl.RuleRecord {
	t.Helper()
	mainPath := filepath.Join(root, tmdl.DefinitionDir, tmdl.MainFileName)
	records, err := tmdl.NewBPAStore().Load(mainPath)
	require.NoError(t, err)
	return records
}

func TestBPAApplyCommand(t *testing.T) {
	t.Run("requires a selection", func(t *testing.T) {
		root := buildModel(t, modelWithAnnotation(t, applyFixtureRecords()), nil)

		_, _, err := execute(t, commands.NewBPAApplyCommand(), root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no rules selected")
	})

	t.Run("keeps only the selected ids", func(t *testing.T) {
		root := buildModel(t, modelWithAnnotation(t, applyFixtureRecords()), nil)

		_, _, err := execute(t, commands.NewBPAApplyCommand(), root,
			"--ids", "UPPERCASE_OBJECT_NAMES")
		require.NoError(t, err)

		records := loadSavedRecords(t, root)
		require.Len(t, records, 1)
		assert.Equal(t, "UPPERCASE_OBJECT_NAMES", records[0].ID)

		for _, rec := range records {
			assert.NotEqual(t, "VENDOR_DAX_STYLE", rec.ID,
				"records outside the selection must be dropped")
		}
	})

	t.Run("keeps a category in record order", func(t *testing.T) {
		root := buildModel(t, modelWithAnnotation(t, applyFixtureRecords()), nil)

		_, _, err := execute(t, commands.NewBPAApplyCommand(), root,
			"--category", "Naming Conventions")
		require.NoError(t, err)

		records := loadSavedRecords(t, root)
		require.Len(t, records, 2)
		assert.Equal(t, "UPPERCASE_OBJECT_NAMES", records[0].ID)
		assert.Equal(t, "SPACES_IN_VISIBLE_OBJECT_NAMES", records[1].ID)
	})

	t.Run("selection is over the model's own records", func(t *testing.T) {
		vendorOnly := []tmdl.RuleRecord{
			{ID: "VENDOR_DAX_STYLE", Name: "Vendor rule", Category: "DAX Expressions", Severity: 1},
		}
		root := buildModel(t, modelWithAnnotation(t, vendorOnly), nil)

		_, _, err := execute(t, commands.NewBPAApplyCommand(), root,
			"--ids", "VENDOR_DAX_STYLE")
		require.NoError(t, err)

		records := loadSavedRecords(t, root)
		require.Len(t, records, 1)
		assert.Equal(t, "VENDOR_DAX_STYLE", records[0].ID)
	})

	t.Run("id absent from the model is rejected", func(t *testing.T) {
		root := buildModel(t, modelWithAnnotation(t, applyFixtureRecords()), nil)

		_, _, err := execute(t, commands.NewBPAApplyCommand(), root, "--ids", "BOGUS")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found in the model")

		// The rejected run must not rewrite the annotation.
		assert.Len(t, loadSavedRecords(t, root), 3)
	})

	t.Run("ids and category are mutually exclusive", func(t *testing.T) {
		root := buildModel(t, modelWithAnnotation(t, applyFixtureRecords()), nil)

		_, _, err := execute(t, commands.NewBPAApplyCommand(), root,
			"--ids", "UPPERCASE_OBJECT_NAMES", "--category", "Naming Conventions")
		require.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, commands.NewVersionCommand("1.2.3"))
	require.NoError(t, err)
	assert.Contains(t, out, "tmdlint v1.2.3")
}
