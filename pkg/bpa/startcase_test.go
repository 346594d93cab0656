package bpa_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelstack-labs/tmdlint/pkg/bpa"
	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
)

func memFile(path, content string) *tmdl.ModelFile {
	return &tmdl.ModelFile{Path: path, Role: tmdl.RoleTable, Content: content}
}

func diskFile(t *testing.T, name, content string) *tmdl.ModelFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	f := &tmdl.ModelFile{Path: path, Role: tmdl.RoleTable}
	require.NoError(t, f.Reload())
	return f
}

func mustRule(t *testing.T, id string) bpa.Rule {
	t.Helper()
	rule, ok := bpa.Get(id)
	require.True(t, ok, "rule %s must be registered", id)
	return rule
}

func TestStartCaseCheckerTables(t *testing.T) {
	rule := mustRule(t, "UPPERCASE_OBJECT_NAMES")

	tests := []struct {
		name          string
		content       string
		wantNames     []string
		wantConstruct bpa.ConstructType
		wantQuoted    bool
	}{
		{
			name:          "lowercase unquoted table",
			content:       "table dimSales\n\n\tcolumn Region\n",
			wantNames:     []string{"dimSales"},
			wantConstruct: bpa.ConstructTable,
		},
		{
			name:          "lowercase quoted table",
			content:       "table 'dim sales'\n",
			wantNames:     []string{"dim sales"},
			wantConstruct: bpa.ConstructTable,
			wantQuoted:    true,
		},
		{
			name:    "uppercase table passes",
			content: "table DimSales\n\n\tcolumn region\n",
		},
		{
			name: "calculated table reported as such",
			content: "table dimDates\n\n" +
				"\tpartition dimDates = calculated\n" +
				"\t\tmode: import\n",
			wantNames:     []string{"dimDates"},
			wantConstruct: bpa.ConstructCalculatedTable,
		},
		{
			name: "partition in next table block does not leak back",
			content: "table dimSales\n\n\tcolumn Region\n\n" +
				"table DimDates\n\n\tpartition DimDates = calculated\n",
			wantNames:     []string{"dimSales"},
			wantConstruct: bpa.ConstructTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := rule.Checker.Scan([]*tmdl.ModelFile{memFile("t.tmdl", tt.content)})

			if len(tt.wantNames) == 0 {
				assert.Empty(t, violations)
				return
			}

			require.Len(t, violations, len(tt.wantNames))
			for i, v := range violations {
				assert.Equal(t, "UPPERCASE_OBJECT_NAMES", v.RuleID)
				assert.Equal(t, tt.wantNames[i], v.Name)
				assert.Equal(t, tt.wantConstruct, v.Construct)
				assert.Equal(t, tt.wantQuoted, v.Quoted)
				assert.Equal(t, "t.tmdl", v.FilePath)
			}
		})
	}
}

func TestStartCaseCheckerMeasures(t *testing.T) {
	rule := mustRule(t, "UPPERCASE_OBJECT_NAMES")

	content := "table Sales\n\n" +
		"\tmeasure totalRevenue = SUM(Sales[Amount])\n\n" +
		"\tmeasure 'salesAmount' = SUM(Sales[Amount])\n\n" +
		"\tmeasure NetProfit = [totalRevenue] - [Costs]\n"

	violations := rule.Checker.Scan([]*tmdl.ModelFile{memFile("t.tmdl", content)})
	require.Len(t, violations, 2)

	assert.Equal(t, "totalRevenue", violations[0].Name)
	assert.Equal(t, bpa.ConstructMeasure, violations[0].Construct)
	assert.False(t, violations[0].Quoted)

	assert.Equal(t, "salesAmount", violations[1].Name)
	assert.True(t, violations[1].Quoted)
}

func TestStartCaseCheckerLineNumbers(t *testing.T) {
	rule := mustRule(t, "UPPERCASE_OBJECT_NAMES")

	content := "table Sales\n\n\tmeasure lowProfit = 1\n"
	violations := rule.Checker.Scan([]*tmdl.ModelFile{memFile("t.tmdl", content)})
	require.Len(t, violations, 1)
	assert.Equal(t, 3, violations[0].Line)
}

func TestStartCaseFixer(t *testing.T) {
	rule := mustRule(t, "UPPERCASE_OBJECT_NAMES")

	t.Run("unquoted table", func(t *testing.T) {
		f := diskFile(t, "t.tmdl", "table dimSales\n\n\tcolumn Region\n")

		violations := rule.Checker.Scan([]*tmdl.ModelFile{f})
		require.Len(t, violations, 1)
		require.NoError(t, rule.Fixer.Apply(violations))

		require.NoError(t, f.Reload())
		assert.Equal(t, "table DimSales\n\n\tcolumn Region\n", f.Content)
	})

	t.Run("quoted measure keeps quotes", func(t *testing.T) {
		f := diskFile(t, "t.tmdl", "table Sales\n\n\tmeasure 'salesAmount' = SUM(Sales[Amount])\n")

		violations := rule.Checker.Scan([]*tmdl.ModelFile{f})
		require.Len(t, violations, 1)
		require.NoError(t, rule.Fixer.Apply(violations))

		require.NoError(t, f.Reload())
		assert.Equal(t, "table Sales\n\n\tmeasure 'SalesAmount' = SUM(Sales[Amount])\n", f.Content)
	})

	t.Run("multiple violations in one file", func(t *testing.T) {
		f := diskFile(t, "t.tmdl",
			"table dimSales\n\n"+
				"\tmeasure totalRevenue = 1\n\n"+
				"\tmeasure netProfit = 2\n")

		violations := rule.Checker.Scan([]*tmdl.ModelFile{f})
		require.Len(t, violations, 3)
		require.NoError(t, rule.Fixer.Apply(violations))

		require.NoError(t, f.Reload())
		assert.Equal(t,
			"table DimSales\n\n"+
				"\tmeasure TotalRevenue = 1\n\n"+
				"\tmeasure NetProfit = 2\n",
			f.Content)

		// Converged: a second scan finds nothing.
		assert.Empty(t, rule.Checker.Scan([]*tmdl.ModelFile{f}))
	})
}

func TestStartCaseFixerStaleSpan(t *testing.T) {
	rule := mustRule(t, "UPPERCASE_OBJECT_NAMES")

	f := diskFile(t, "t.tmdl", "table dimSales\n")
	violations := rule.Checker.Scan([]*tmdl.ModelFile{f})
	require.Len(t, violations, 1)

	// The file changes underneath the recorded span.
	require.NoError(t, os.WriteFile(f.Path, []byte("table renamedSales\n"), 0o644))

	err := rule.Fixer.Apply(violations)
	require.ErrorIs(t, err, bpa.ErrStaleViolation)

	// And the changed file is left alone.
	data, readErr := os.ReadFile(f.Path)
	require.NoError(t, readErr)
	assert.Equal(t, "table renamedSales\n", string(data))
}
