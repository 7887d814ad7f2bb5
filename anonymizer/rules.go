// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package anonymizer

import (
	"github.com/hashicorp/sqlscrub/redact"
)

// Placeholder tokens substituted for redacted fragments.
const (
	ValueRedacted  = "value-redacted"
	ValuesRedacted = "values-redacted"
	NumberRedacted = "number-redacted"
	ArgsRedacted   = "args-redacted"
	AliasRedacted  = "alias-redacted"
)

// regexp2's \s and \w also match Unicode, so the classes are spelled out to keep them ASCII-only.
const (
	space = `[ \t\n\v\f\r]`
	word  = `[A-Za-z0-9_]`
)

// The guards sit right after SELECT so they are only tried where a SELECT matched. The FROM guard scans the rest of
// the text, across lines, and stops at the nearest FROM. Every other dot stays on the current line, including the AS
// guard.
const (
	noLaterFrom   = `(?!(?s:.*?FROM))`
	noAliasOnLine = `(?!.*AS)`
	notFunction   = `(?!` + word + `+\()`
)

// builtin is the ordered SQL rule table. Each rule sees the output of the rule before it.
var builtin = []*redact.Redact{
	// IN lists go first so their contents are not picked apart by the literal rules.
	redact.MustNew(redact.Config{
		ID:      "in-list",
		Matcher: space + `IN` + space + `\(.*\)`,
		Replace: " IN (" + ValuesRedacted + ")",
	}),
	redact.MustNew(redact.Config{
		ID:      "string-literal",
		Matcher: `([ \t\n\v\f\r(])'.*'`,
		Replace: "${1}'" + ValueRedacted + "'",
	}),
	redact.MustNew(redact.Config{
		ID:      "mssql-unicode-literal",
		Matcher: `N''.*''`,
		Replace: "N''" + ValueRedacted + "''",
	}),
	redact.MustNew(redact.Config{
		ID:      "numeric-comparison",
		Matcher: space + `+(!=|=|<|>|<=|>=)` + space + `+[0-9]+`,
		Replace: " ${1} " + NumberRedacted,
	}),
	redact.MustNew(redact.Config{
		ID:      "values-clause",
		Matcher: space + `+VALUES` + space + `+\(.+\)`,
		Replace: " VALUES (" + ValuesRedacted + ")",
	}),

	// Constant SELECT expressions: only statements with no FROM anywhere after the SELECT.
	redact.MustNew(redact.Config{
		ID:      "aliased-function-expression",
		Matcher: `SELECT` + noLaterFrom + ` (` + word + `+)\((.+)\) AS (.+)`,
		Replace: "SELECT ${1}(" + ArgsRedacted + ") AS " + AliasRedacted,
	}),
	redact.MustNew(redact.Config{
		ID:      "aliased-constant-expression",
		Matcher: `SELECT` + noLaterFrom + ` ` + notFunction + `(.+) AS (.+)`,
		Replace: "SELECT " + ValueRedacted + " AS " + AliasRedacted,
	}),
	redact.MustNew(redact.Config{
		ID:      "function-expression",
		Matcher: `SELECT` + noLaterFrom + noAliasOnLine + ` (` + word + `+)\((.+)\)`,
		Replace: "SELECT ${1}(" + ArgsRedacted + ")",
	}),
	redact.MustNew(redact.Config{
		ID:      "constant-expression",
		Matcher: `SELECT` + noLaterFrom + noAliasOnLine + ` ` + notFunction + `(.+)`,
		Replace: "SELECT " + ValueRedacted,
	}),
}

// Rules returns the built-in rules in the order they are applied.
func Rules() []*redact.Redact {
	rules := make([]*redact.Redact, len(builtin))
	copy(rules, builtin)
	return rules
}
