// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package anonymizer redacts literal values from SQL statement text while keeping the statement's shape, so the
// result can be logged or grouped without exposing user data. It is a heuristic made of ordered text substitutions,
// not a SQL parser.
package anonymizer

import (
	"bufio"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/sqlscrub/redact"
)

// maxLineSize bounds a single statement in line mode.
const maxLineSize = 4 * 1024 * 1024

var defaultAnonymizer = New(nil)

// Anonymize applies the built-in SQL rules to sql. It never fails; text that no rule recognises is returned as is.
func Anonymize(sql string) string {
	return defaultAnonymizer.Anonymize(sql)
}

// Anonymizer applies the built-in SQL rules followed by any extra redactions. It holds no mutable state and is safe
// for concurrent use.
type Anonymizer struct {
	redactions []*redact.Redact
	l          hclog.Logger
}

// New returns an Anonymizer that runs extra after the built-in rules. A nil logger discards output.
func New(l hclog.Logger, extra ...*redact.Redact) *Anonymizer {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &Anonymizer{
		redactions: redact.Flatten(builtin, extra),
		l:          l,
	}
}

// Redactions returns every rule the Anonymizer applies, in order.
func (a *Anonymizer) Redactions() []*redact.Redact {
	return redact.Flatten(a.redactions)
}

// Anonymize applies each rule to the output of the previous one. A rule that fails to match in time is skipped.
func (a *Anonymizer) Anonymize(sql string) string {
	out := sql
	for _, r := range a.redactions {
		res, err := r.Replacement(out)
		if err != nil {
			a.l.Warn("skipping redaction", "id", r.ID, "error", err)
			continue
		}
		out = res
	}
	return out
}

// Statement wraps sql so that it is anonymized only when formatted, for use as a structured log value.
func (a *Anonymizer) Statement(sql string) redact.RedactedString {
	return redact.NewRedactedString(sql, a.redactions)
}

// AnonymizeReader treats everything read from r as a single statement.
func (a *Anonymizer) AnonymizeReader(w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, a.Anonymize(string(bts)))
	return err
}

// AnonymizeLines treats every line read from r as an independent statement, as found in query logs.
func (a *Anonymizer) AnonymizeLines(w io.Writer, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var n int
	for scanner.Scan() {
		n++
		if _, err := io.WriteString(w, a.Anonymize(scanner.Text())+"\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	a.l.Trace("anonymized lines", "count", n)
	return nil
}
