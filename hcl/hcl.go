// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/mitchellh/go-homedir"

	"github.com/hashicorp/sqlscrub/redact"
)

const (
	// ModeStatement treats each input as a single SQL statement.
	ModeStatement = "statement"
	// ModeLines treats each line of an input as its own statement.
	ModeLines = "lines"
)

type HCL struct {
	Anonymizer *Anonymizer `hcl:"anonymizer,block" json:"anonymizer"`
}

// Anonymizer configures how inputs are split and which redactions run after the built-in SQL rules.
type Anonymizer struct {
	Mode       string   `hcl:"mode,optional" json:"mode"`
	Redactions []Redact `hcl:"redact,block" json:"redactions"`
}

type Redact struct {
	Label   string `hcl:"name,label" json:"name"`
	ID      string `hcl:"id,optional" json:"id"`
	Match   string `hcl:"match" json:"match"`
	Replace string `hcl:"replace,optional" json:"replace"`
	Timeout string `hcl:"timeout,optional" json:"timeout"`
}

// Parse takes a file path and decodes the file from disk into HCL types. A leading ~ is expanded to the user's
// home directory.
func Parse(path string) (HCL, error) {
	var h HCL
	expanded, err := homedir.Expand(path)
	if err != nil {
		return HCL{}, err
	}
	err = hclsimple.DecodeFile(expanded, nil, &h)
	if err != nil {
		return HCL{}, err
	}
	return h, nil
}

// Mode returns the configured mode, defaulting to ModeStatement.
func (h HCL) Mode() string {
	if h.Anonymizer == nil || h.Anonymizer.Mode == "" {
		return ModeStatement
	}
	return h.Anonymizer.Mode
}

// Redactions maps the configured redact blocks to redactions. A config without an anonymizer block has none.
func (h HCL) Redactions() ([]*redact.Redact, error) {
	if h.Anonymizer == nil {
		return nil, nil
	}
	return MapRedacts(h.Anonymizer.Redactions)
}

// Validate checks the whole configuration and reports every problem found.
func Validate(h HCL) error {
	var errs *multierror.Error
	if err := ValidateMode(h.Mode()); err != nil {
		errs = multierror.Append(errs, err)
	}
	if h.Anonymizer != nil {
		if err := ValidateRedactions(h.Anonymizer.Redactions); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// ValidateMode returns an error unless mode is one of the supported modes.
func ValidateMode(mode string) error {
	switch mode {
	case ModeStatement, ModeLines:
		return nil
	default:
		return fmt.Errorf("invalid mode, mode=%s", mode)
	}
}

// MapRedacts maps HCL redactions to "real" `redact.Redact`s
func MapRedacts(redactions []Redact) ([]*redact.Redact, error) {
	err := ValidateRedactions(redactions)
	if err != nil {
		return nil, err
	}

	s := make([]*redact.Redact, len(redactions))
	for i, r := range redactions {
		cfg, err := redactConfig(r)
		if err != nil {
			return nil, err
		}
		red, err := redact.New(cfg)
		if err != nil {
			return nil, err
		}
		s[i] = red
	}
	return s, nil
}

// ValidateRedactions takes a slice of redactions and ensures they have valid names, matchers and timeouts.
func ValidateRedactions(redactions []Redact) error {
	hclog.L().Trace("hcl.ValidateRedactions()", "redactions", redactions)
	var errs *multierror.Error
	for _, r := range redactions {
		switch r.Label {
		case "regex", "literal":
		default:
			errs = multierror.Append(errs, fmt.Errorf("invalid redact name, name=%s", r.Label))
			continue
		}
		cfg, err := redactConfig(r)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, err := redact.New(cfg); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("could not compile %s, matcher=%s, err=%w", r.Label, r.Match, err))
		}
	}
	return errs.ErrorOrNil()
}

func redactConfig(r Redact) (redact.Config, error) {
	cfg := redact.Config{
		Matcher: r.Match,
		ID:      r.ID,
		Replace: r.Replace,
		Literal: r.Label == "literal",
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return redact.Config{}, fmt.Errorf("invalid redact timeout, timeout=%s, err=%w", r.Timeout, err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}
