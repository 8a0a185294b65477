/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the homerelay command line: flag parsing, subcommand dispatch and
// the commands themselves.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	defaultConfigFile  = "config.json"
	defaultExampleFile = "config.example.json"

	cmdRun           = "run"
	cmdTestDest      = "test-destination"
	cmdTestBLE       = "test-ble"
	cmdWriteExample  = "write-example-config"
	cmdVersion       = "version"
	bleActionScan    = "scan"
	bleActionConnect = "connect"
	bleActionList    = "list"
)

// SubcommandHandler parses the flags of one subcommand into cfg.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// RunHandler handles flags for the run subcommand.
type RunHandler struct{}

func (RunHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(cmdRun, flag.ContinueOnError)
	once := fs.Bool("once", false, "run a single poll cycle and exit")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing run flags: %w", err)
	}

	cfg.Once = *once
	cfg.Args = fs.Args()

	return nil
}

// TestDestinationHandler handles the test-destination subcommand, which takes no flags.
type TestDestinationHandler struct{}

func (TestDestinationHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(cmdTestDest, flag.ContinueOnError)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing test-destination flags: %w", err)
	}

	cfg.Args = fs.Args()

	return nil
}

// TestBLEHandler handles "test-ble <scan|connect|list> [flags]".
type TestBLEHandler struct{}

func (TestBLEHandler) Parse(args []string, cfg *CmdConfig) error {
	if len(args) == 0 {
		return errUnknownBLEAction
	}

	action := args[0]
	switch action {
	case bleActionScan, bleActionConnect, bleActionList:
	default:
		return fmt.Errorf("%w (got %q)", errUnknownBLEAction, action)
	}

	fs := flag.NewFlagSet(cmdTestBLE+" "+action, flag.ContinueOnError)
	duration := fs.Duration("duration", 0, "scan duration (default from config, 10s)")
	address := fs.String("address", "", "device address, e.g. AA:BB:CC:DD:EE:FF")
	timeout := fs.Duration("timeout", 0, "connect timeout, 0 waits until interrupted")

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("parsing test-ble flags: %w", err)
	}

	if action == bleActionConnect && *address == "" {
		return errAddressRequired
	}

	cfg.BLEAction = action
	cfg.Duration = *duration
	cfg.Address = *address
	cfg.Timeout = *timeout
	cfg.Args = fs.Args()

	return nil
}

// WriteExampleConfigHandler handles flags for the write-example-config subcommand.
type WriteExampleConfigHandler struct{}

func (WriteExampleConfigHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(cmdWriteExample, flag.ContinueOnError)
	out := fs.String("out", defaultExampleFile, "where to write the example, - for stdout")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing write-example-config flags: %w", err)
	}

	cfg.OutFile = *out

	return nil
}

type noFlagsHandler struct{}

func (noFlagsHandler) Parse(args []string, cfg *CmdConfig) error {
	cfg.Args = args

	return nil
}

// ParseFlags parses the global flags and the subcommand with its flags. A missing
// subcommand means run. flag.ErrHelp is returned as is for -h.
func ParseFlags(args []string, output io.Writer) (*CmdConfig, error) {
	fs := flag.NewFlagSet("homerelay", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() { printUsage(fs) }

	configFile := fs.String("config", defaultConfigFile, "path to the relay config file (JSON or YAML)")
	verbose := fs.Bool("verbose", false, "log at debug level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &CmdConfig{
		ConfigFile: *configFile,
		Verbose:    *verbose,
		SubCmd:     cmdRun,
	}

	rest := fs.Args()
	if len(rest) > 0 {
		cfg.SubCmd = rest[0]
		rest = rest[1:]
	}

	subcommands := map[string]SubcommandHandler{
		cmdRun:          RunHandler{},
		cmdTestDest:     TestDestinationHandler{},
		cmdTestBLE:      TestBLEHandler{},
		cmdWriteExample: WriteExampleConfigHandler{},
		cmdVersion:      noFlagsHandler{},
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		fs.Usage()

		return nil, fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(rest, cfg); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, flag.ErrHelp
		}

		return nil, err
	}

	return cfg, nil
}

func printUsage(fs *flag.FlagSet) {
	styles := newLogStyles()
	out := fs.Output()

	_, _ = fmt.Fprintln(out, styles.title.Render("homerelay")+" polls sources and relays readings to destinations")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Usage: homerelay [-config file] [-verbose] <command> [flags]")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Commands:")

	commands := [][2]string{
		{"run [-once]", "poll sources and report to destinations (default)"},
		{"test-destination", "check that every destination is reachable"},
		{"test-ble scan|connect|list", "exercise the bluetooth adapter [-duration d] [-address a] [-timeout d]"},
		{"write-example-config [-out f]", "write a config listing every plugin"},
		{"version", "print the version"},
	}

	for _, c := range commands {
		_, _ = fmt.Fprintf(out, "  %-32s %s\n", c[0], styles.hint.Render(c[1]))
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Flags:")

	var b strings.Builder

	fs.SetOutput(&b)
	fs.PrintDefaults()
	fs.SetOutput(out)

	_, _ = fmt.Fprint(out, b.String())
}
