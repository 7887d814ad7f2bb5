// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const DefaultReplace = "<REDACTED>"

// ErrMatchFailed is returned when a matcher gives up, usually on its timeout. The matcher's own error is dropped
// because it quotes the input being redacted.
var ErrMatchFailed = errors.New("match failed")

// Config holds the parameters used to build a Redact. Only Matcher is required.
type Config struct {
	Matcher string
	ID      string
	Replace string

	// Literal treats Matcher as plain text rather than a pattern.
	Literal bool

	// Timeout bounds a single match attempt. Zero means no limit.
	Timeout time.Duration
}

// Redact is a single compiled redaction rule. Its Replace template may reference capture groups with $1 or ${1}.
type Redact struct {
	ID      string `json:"ID"`
	matcher *regexp2.Regexp
	Replace string `json:"replace"`
}

// New takes a Config and returns a compiled and ready-to-use redactor. ID and Replace are optional and can be left
// empty.
func New(cfg Config) (*Redact, error) {
	if cfg.Matcher == "" {
		return nil, errors.New("redact: matcher must not be empty")
	}
	expr := cfg.Matcher
	if cfg.Literal {
		expr = regexp2.Escape(expr)
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("redact: could not compile matcher=%q: %w", cfg.Matcher, err)
	}
	if cfg.Timeout > 0 {
		re.MatchTimeout = cfg.Timeout
	}

	id := cfg.ID
	if id == "" {
		sum := md5.Sum([]byte(cfg.Matcher))
		id = hex.EncodeToString(sum[:])
	}
	replace := cfg.Replace
	if replace == "" {
		replace = DefaultReplace
	}
	return &Redact{ID: id, matcher: re, Replace: replace}, nil
}

// MustNew is like New but panics if the Config cannot be compiled. It is meant for rule tables defined in code.
func MustNew(cfg Config) *Redact {
	r, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// Matcher returns the source pattern of the compiled matcher.
func (x *Redact) Matcher() string {
	return x.matcher.String()
}

// Replacement applies the redaction to every non-overlapping match in s.
func (x *Redact) Replacement(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	out, err := x.matcher.Replace(s, x.Replace, -1, -1)
	if err != nil {
		return s, fmt.Errorf("redact: id=%s: %w", x.ID, ErrMatchFailed)
	}
	return out, nil
}

func (x *Redact) Apply(w io.Writer, r io.Reader) error {
	return ApplyMany([]*Redact{x}, w, r)
}

// ApplyMany takes a slice of redactions and a writer + reader, reading everything in and applying redactions in
// sequential order before writing. Therefore, each Redact that appears earlier in the list takes precedence over later
// Redacts. It is possible for redactions to collide with one another if a matcher can match with the Replace string
// of an earlier Redact.
func ApplyMany(redactions []*Redact, w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s := string(bts)
	for _, redact := range redactions {
		s, err = redact.Replacement(s)
		if err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, s)
	return err
}

// Flatten joins the given redaction slices into one, preserving their order. Nil and empty slices are skipped.
func Flatten(redactions ...[]*Redact) []*Redact {
	flat := make([]*Redact, 0)
	for _, rs := range redactions {
		flat = append(flat, rs...)
	}
	return flat
}

// String takes a string result and a slice of redactions, and wraps it with a reader and writer to apply the
// redactions, returning a string back.
func String(result string, redactions []*Redact) (string, error) {
	r := strings.NewReader(result)
	buf := new(bytes.Buffer)
	err := ApplyMany(redactions, buf, r)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
