// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/sqlscrub/anonymizer"
	"github.com/hashicorp/sqlscrub/redact"
)

var _ cli.Command = &RulesCommand{}

type RulesCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// HCL file location
	config string
}

func (c *RulesCommand) init() {
	const configUsageText = "Path to HCL configuration file. Configured redactions are listed after the built-in rules."

	c.flags = flag.NewFlagSet("rules", flag.ContinueOnError)
	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.SetOutput(io.Discard)
}

func NewRulesCommand(ui cli.Ui) *RulesCommand {
	c := &RulesCommand{ui: ui}
	c.init()
	return c
}

// RulesCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func RulesCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewRulesCommand(ui), nil
	}
}

func (c *RulesCommand) Help() string {
	helpText := `Usage: sqlscrub rules [options]

Lists the redaction rules in the order they are applied.
`
	return Usage(helpText, c.flags)
}

func (c *RulesCommand) Synopsis() string {
	return "List the redaction rules in the order they are applied"
}

func (c *RulesCommand) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		c.ui.Warn(err.Error())
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("sqlscrub")

	var extra []*redact.Redact
	if c.config != "" {
		cfg, err := loadConfig(c.config)
		if err != nil {
			l.Error("Failed to load configuration", "config", c.config, "error", err)
			c.ui.Error(err.Error())
			return ConfigError
		}
		extra, err = cfg.Redactions()
		if err != nil {
			c.ui.Error(err.Error())
			return ConfigError
		}
	}

	out, err := writeRules(anonymizer.New(l, extra...).Redactions())
	if err != nil {
		c.ui.Error(err.Error())
		return RunError
	}
	c.ui.Output(out)

	return Success
}

// writeRules renders redactions as a table with one row per rule.
func writeRules(redactions []*redact.Redact) (string, error) {
	buf := new(bytes.Buffer)
	t := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(t, "#\tID\tMatcher\tReplace"); err != nil {
		return "", err
	}
	for i, r := range redactions {
		if _, err := fmt.Fprintf(t, "%d\t%s\t%s\t%s\n", i+1, r.ID, r.Matcher(), r.Replace); err != nil {
			return "", err
		}
	}
	if err := t.Flush(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
