package bpa

import (
	"fmt"
	"os"
	"sort"
)

// applySpanRewrites rewrites each violation's recorded identifier span in
// its owning file. Violations are grouped per file; each file is re-read
// fresh, spans are revalidated against the current content, and rewrites
// are applied back-to-front so earlier offsets stay valid when replacement
// lengths differ. Each file is written back whole once all its rewrites
// succeed, so a failure in a later file leaves earlier files corrected and
// the failing file untouched.
func applySpanRewrites(violations []Violation, rewrite func(Violation) string) error {
	byFile := make(map[string][]Violation)
	var order []string
	for _, v := range violations {
		if _, seen := byFile[v.FilePath]; !seen {
			order = append(order, v.FilePath)
		}
		byFile[v.FilePath] = append(byFile[v.FilePath], v)
	}

	for _, path := range order {
		vs := byFile[path]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		content := string(data)

		sort.Slice(vs, func(i, j int) bool { return vs[i].NameStart > vs[j].NameStart })
		for _, v := range vs {
			token := declToken(v)
			if v.NameStart < 0 || v.NameEnd > len(content) ||
				content[v.NameStart:v.NameEnd] != token {
				return fmt.Errorf("%w: %s %q in %s", ErrStaleViolation, v.Construct, v.Name, path)
			}
			content = content[:v.NameStart] + rewrite(v) + content[v.NameEnd:]
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// declToken is the identifier text as it appears in the source, quotes
// included for the quoted form.
func declToken(v Violation) string {
	if v.Quoted {
		return "'" + v.Name + "'"
	}
	return v.Name
}
