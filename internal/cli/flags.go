package cli

import (
	"flag"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port       int
	ConfigPath string
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
// A zero port keeps the configured one.
func ParseServeFlags(args []string) (*ServeFlags, error) {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	flags := &ServeFlags{}
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (overrides config)")
	fs.StringVar(&flags.ConfigPath, "config", "config.yaml", "Configuration file path")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// DryRunFlags are the flags of the split-dry-run command.
type DryRunFlags struct {
	ExtractionPath  string
	AssignmentsPath string
	Verbose         bool
}

// ParseDryRunFlags parses command line flags for split-dry-run.
func ParseDryRunFlags(args []string) (*DryRunFlags, error) {
	fs := flag.NewFlagSet("split-dry-run", flag.ContinueOnError)
	flags := &DryRunFlags{}
	fs.StringVar(&flags.ExtractionPath, "extraction", "", "File with the OCR JSON of a receipt")
	fs.StringVar(&flags.AssignmentsPath, "assignments", "", "File with a JSON object of user to item list")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.ExtractionPath == "" || flags.AssignmentsPath == "" {
		return nil, errMissingInputs
	}
	return flags, nil
}
