package bpa

// Rule describes one registry entry pairing a checker with its fixer.
// Severity uses the BPA scale: 1 info, 2 warning, 3 error.
type Rule struct {
	ID          string
	Name        string
	Category    string
	Description string
	Severity    int
	Checker     Checker
	Fixer       Fixer
}

// registry is the fixed, ordered rule list. Order is the order rules run
// in and the order they are listed to the operator.
var registry = []Rule{
	{
		ID:          "UPPERCASE_OBJECT_NAMES",
		Name:        "Table and measure names should start with an uppercase letter",
		Category:    "Naming Conventions",
		Description: "Tables and measures whose names start with a lowercase letter are harder to tell apart from columns in client tools. The fix uppercases the first letter, keeping the quoted or unquoted declaration form.",
		Severity:    2,
		Checker:     &startCaseChecker{},
		Fixer:       &startCaseFixer{},
	},
	{
		ID:          "SPACES_IN_VISIBLE_OBJECT_NAMES",
		Name:        "Visible columns and hierarchies should not use unspaced PascalCase",
		Category:    "Naming Conventions",
		Description: "Visible columns and hierarchies named in PascalCase without spaces read poorly in report field lists. Hidden objects are exempt. The fix inserts spaces between word segments and quotes the name.",
		Severity:    2,
		Checker:     &pascalCaseChecker{},
		Fixer:       &pascalCaseFixer{},
	},
}

// Rules returns the registry in its fixed order.
func Rules() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	return out
}

// Get returns the rule with the given ID.
func Get(id string) (Rule, bool) {
	for _, r := range registry {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
