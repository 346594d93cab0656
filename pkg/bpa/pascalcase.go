package bpa

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/modelstack-labs/tmdlint/pkg/tmdl"
)

const pascalCaseRuleID = "SPACES_IN_VISIBLE_OBJECT_NAMES"

var (
	// Longer keywords come first so the alternation never stops at a
	// prefix of the actual keyword.
	columnBlockPattern = regexp.MustCompile(`(?m)^[ \t]*(calculatedTableColumn|calculatedColumn|dataColumn|column|hierarchy)[ \t]+(?:'([^']+)'|([^\s']+))`)

	hiddenTokenPattern = regexp.MustCompile(`\bisHidden\b`)

	// Multi-word PascalCase: an uppercase run, a lowercase run, then
	// uppercase again, or the symmetric lowercase-first shape.
	pascalTransitionPattern = regexp.MustCompile(`[A-Z][a-z]+[A-Z]|[a-z][A-Z]+[a-z]`)
)

var constructByKeyword = map[string]ConstructType{
	"column":                ConstructColumn,
	"calculatedColumn":      ConstructCalculatedColumn,
	"dataColumn":            ConstructDataColumn,
	"calculatedTableColumn": ConstructCalculatedTableColumn,
	"hierarchy":             ConstructHierarchy,
}

// pascalCaseChecker flags visible columns and hierarchies whose declared
// name is multi-word PascalCase with no spaces. The file is split into
// per-declaration blocks; a block containing an isHidden token is exempt.
type pascalCaseChecker struct{}

func (c *pascalCaseChecker) Scan(files []*tmdl.ModelFile) []Violation {
	var violations []Violation
	for _, f := range files {
		violations = append(violations, c.scanFile(f)...)
	}
	return violations
}

func (c *pascalCaseChecker) scanFile(f *tmdl.ModelFile) []Violation {
	var violations []Violation
	matches := columnBlockPattern.FindAllStringSubmatchIndex(f.Content, -1)
	for i, m := range matches {
		blockEnd := len(f.Content)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		if hiddenTokenPattern.MatchString(f.Content[m[0]:blockEnd]) {
			continue
		}

		keyword := f.Content[m[2]:m[3]]
		name, quoted, nameStart, nameEnd := columnDeclName(f.Content, m)
		if !IsUnspacedPascalCase(name) {
			continue
		}

		violations = append(violations, Violation{
			RuleID:    pascalCaseRuleID,
			Construct: constructByKeyword[keyword],
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

// pascalCaseFixer rewrites the unspaced identifier as its spaced, quoted
// form.
type pascalCaseFixer struct{}

func (x *pascalCaseFixer) Rewrite(v Violation) string {
	return "'" + SpaceWords(v.Name) + "'"
}

func (x *pascalCaseFixer) Apply(violations []Violation) error {
	return applySpanRewrites(violations, x.Rewrite)
}

// columnDeclName extracts the identifier from a keyword+name submatch
// index slice: group 1 keyword, group 2 quoted name, group 3 unquoted.
func columnDeclName(content string, m []int) (name string, quoted bool, start, end int) {
	if m[4] != -1 {
		return content[m[4]:m[5]], true, m[4] - 1, m[5] + 1
	}
	return content[m[6]:m[7]], false, m[6], m[7]
}

// IsUnspacedPascalCase reports whether name reads as multiple PascalCase
// word segments concatenated without spaces.
func IsUnspacedPascalCase(name string) bool {
	return !strings.Contains(name, " ") && pascalTransitionPattern.MatchString(name)
}

// SpaceWords inserts a single space before every uppercase letter that
// begins a new word segment. The first character never gets a space, and
// letters preceded by a non-word character are left alone. Acronym runs
// stay intact: SalesAmountUSD becomes "Sales Amount USD".
func SpaceWords(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && isWordRune(runes[i-1]) {
			prev := runes[i-1]
			startsSegment := unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]))
			if startsSegment {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
