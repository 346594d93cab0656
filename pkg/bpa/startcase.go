package bpa

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
)

const startCaseRuleID = "UPPERCASE_OBJECT_NAMES"

// Declaration patterns are line-anchored and match both the quoted and
// unquoted textual forms. Trailing tokens on the same line (property
// continuations, measure expressions) do not defeat the match.
var (
	tableDeclPattern   = regexp.MustCompile(`(?m)^[ \t]*table[ \t]+(?:'([^']+)'|([^\s']+))`)
	measureDeclPattern = regexp.MustCompile(`(?m)^[ \t]*measure[ \t]+(?:'([^']+)'|([^\s'=]+))[ \t]*=`)

	calculatedPartitionPattern = regexp.MustCompile(`(?m)^[ \t]*partition[ \t]+.*=[ \t]*calculated\b`)
)

// startCaseChecker flags table and measure declarations whose name starts
// with a lowercase letter.
type startCaseChecker struct{}

func (c *startCaseChecker) Scan(files []*tmdl.ModelFile) []Violation {
	var violations []Violation
	for _, f := range files {
		violations = append(violations, c.scanTables(f)...)
		violations = append(violations, c.scanMeasures(f)...)
	}
	return violations
}

func (c *startCaseChecker) scanTables(f *tmdl.ModelFile) []Violation {
	var violations []Violation
	matches := tableDeclPattern.FindAllStringSubmatchIndex(f.Content, -1)
	for i, m := range matches {
		name, quoted, nameStart, nameEnd := declName(f.Content, m)
		if !startsLower(name) {
			continue
		}

		// A table whose block declares a calculated partition is reported
		// as a calculated table.
		blockEnd := len(f.Content)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		construct := ConstructTable
		if calculatedPartitionPattern.MatchString(f.Content[m[0]:blockEnd]) {
			construct = ConstructCalculatedTable
		}

		violations = append(violations, Violation{
			RuleID:    startCaseRuleID,
			Construct: construct,
			Name:      name,
			FilePath:  f.Path,
			Line:      lineNumber(f.Content, m[0]),
			Quoted:    quoted,
			NameStart: nameStart,
			NameEnd:   nameEnd,
		})
	}
	return violations
}

func (c *startCaseChecker) scanMeasures(f *tmdl.ModelFile) []Violation {
	var violations []Violation
	for _, m := range measureDeclPattern.FindAllStringSubmatchIndex(f.Content, -1) {
		name, quoted, nameStart, nameEnd := declName(f.Content, m)
		if !startsLower(name) {
			continue
		}
		violations = append(violations, Violation{
			RuleID:    startCaseRuleID,
			Construct: ConstructMeasure,
			Name:      name,
			FilePath:  f.Path,
			Line:      lineNumber(f.Content, m[0]),
			Quoted:    quoted,
			NameStart: nameStart,
			NameEnd:   nameEnd,
		})
	}
	return violations
}

// startCaseFixer uppercases the first letter of the declared identifier,
// keeping the quoted or unquoted shape recorded in the violation.
type startCaseFixer struct{}

func (x *startCaseFixer) Rewrite(v Violation) string {
	fixed := upperFirst(v.Name)
	if v.Quoted {
		return "'" + fixed + "'"
	}
	return fixed
}

func (x *startCaseFixer) Apply(violations []Violation) error {
	return applySpanRewrites(violations, x.Rewrite)
}

// declName extracts the declared identifier from a two-alternative
// submatch index slice: group 1 quoted, group 2 unquoted. The returned
// span includes the quotes when the quoted form matched.
func declName(content string, m []int) (name string, quoted bool, start, end int) {
	if m[2] != -1 {
		return content[m[2]:m[3]], true, m[2] - 1, m[3] + 1
	}
	return content[m[4]:m[5]], false, m[4], m[5]
}

// lineNumber converts a byte offset to a 1-based line number.
func lineNumber(content string, offset int) int {
	return 1 + strings.Count(content[:offset], "\n")
}

func startsLower(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r)
}

func upperFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
