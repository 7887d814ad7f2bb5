// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/cli"
	"github.com/mitchellh/go-homedir"

	"github.com/hashicorp/sqlscrub/anonymizer"
	"github.com/hashicorp/sqlscrub/hcl"
)

// stdinArg is the file argument that stands for standard input.
const stdinArg = "-"

var _ cli.Command = &AnonymizeCommand{}

type AnonymizeCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// in and out replace standard input and output in tests.
	in  io.Reader
	out io.Writer

	// HCL file location
	config string

	// lines treats every input line as its own statement, overriding the configured mode.
	lines bool
}

func (c *AnonymizeCommand) init() {
	const (
		configUsageText = "Path to HCL configuration file"
		linesUsageText  = "Anonymize each line of input as an independent statement, as found in query logs. Overrides the mode set in -config."
	)

	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	c.flags = flag.NewFlagSet("anonymize", flag.ContinueOnError)

	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.BoolVar(&c.lines, "lines", false, linesUsageText)

	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	c.flags.SetOutput(io.Discard)
}

// NewAnonymizeCommand produces a new *AnonymizeCommand reading from stdin and writing to stdout.
func NewAnonymizeCommand(ui cli.Ui) *AnonymizeCommand {
	c := &AnonymizeCommand{
		ui:  ui,
		in:  os.Stdin,
		out: os.Stdout,
	}
	c.init()
	return c
}

// AnonymizeCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func AnonymizeCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewAnonymizeCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *AnonymizeCommand) Help() string {
	helpText := `Usage: sqlscrub anonymize [options] [FILE...]

Redacts literal values from SQL statements and writes the result to standard output. Each FILE is read as one
statement unless -lines is set. With no FILE, or when FILE is -, standard input is read.
`

	return Usage(helpText, c.flags,
		`sqlscrub anonymize query.sql`,
		`tail -f postgresql.log | sqlscrub anonymize -lines`,
		`sqlscrub anonymize -config ~/.sqlscrub.hcl slow.log`,
	)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *AnonymizeCommand) Synopsis() string {
	return "Redact literal values from SQL statements"
}

// Run executes the command.
func (c *AnonymizeCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		// Output the specific error to help the user understand what went wrong.
		c.ui.Warn(err.Error())
		// Since there was an issue in input, let's show our Help to try and assist the user.
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("sqlscrub")

	var cfg hcl.HCL
	if c.config != "" {
		var err error
		cfg, err = loadConfig(c.config)
		if err != nil {
			l.Error("Failed to load configuration", "config", c.config, "error", err)
			c.ui.Error(err.Error())
			return ConfigError
		}
		l.Debug("HCL config is", "hcl", cfg)
	}

	redactions, err := cfg.Redactions()
	if err != nil {
		l.Error("Failed to build redactions", "config", c.config, "error", err)
		c.ui.Error(err.Error())
		return ConfigError
	}

	mode := cfg.Mode()
	if c.lines {
		mode = hcl.ModeLines
	}

	a := anonymizer.New(l.Named("anonymizer"), redactions...)

	inputs := c.flags.Args()
	if len(inputs) == 0 {
		inputs = []string{stdinArg}
	}

	var errs *multierror.Error
	for _, input := range inputs {
		if err := c.anonymize(l, a, mode, input); err != nil {
			l.Error("Failed to anonymize input", "input", input, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", input, err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		c.ui.Error(err.Error())
		return RunError
	}

	return Success
}

func (c *AnonymizeCommand) parseFlags(args []string) error {
	return c.flags.Parse(args)
}

// anonymize streams a single input through the anonymizer into c.out.
func (c *AnonymizeCommand) anonymize(l hclog.Logger, a *anonymizer.Anonymizer, mode, input string) error {
	r := c.in
	if input != stdinArg {
		path, err := homedir.Expand(input)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	l.Debug("anonymizing input", "input", input, "mode", mode)
	if mode == hcl.ModeLines {
		return a.AnonymizeLines(c.out, r)
	}

	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	// Terminate every statement so that consecutive inputs don't run together.
	res := a.Anonymize(string(bts))
	if !strings.HasSuffix(res, "\n") {
		res += "\n"
	}
	_, err = io.WriteString(c.out, res)
	return err
}

// loadConfig parses and validates the HCL file at path.
func loadConfig(path string) (hcl.HCL, error) {
	cfg, err := hcl.Parse(path)
	if err != nil {
		return hcl.HCL{}, err
	}
	if err := hcl.Validate(cfg); err != nil {
		return hcl.HCL{}, err
	}
	return cfg, nil
}
