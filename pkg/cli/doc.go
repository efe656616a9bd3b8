// Package cli provides shared utilities and abstractions for building the
// rtk command-line interface.
//
// # Overview
//
// The cli package provides the foundational components for CLI commands:
//
//   - [Factory]: Dependency injection container for commands
//   - [IOStreams]: Abstraction for stdin/stdout/stderr
//   - [Printer]: Output formatting for manifest batches, diff batches and export results
//   - [Config]: Configuration file handling
//
// # Factory Pattern
//
// The [Factory] interface provides dependency injection for CLI commands,
// making them easier to test and configure:
//
//	factory := cli.NewFactory(globalOpts)
//
//	cmd := &cobra.Command{
//	    RunE: func(cmd *cobra.Command, args []string) error {
//	        streams := factory.IOStreams()
//	        opts := factory.GlobalOptions()
//
//	        fmt.Fprintf(streams.Out, "Running with verbose=%v\n", opts.Verbose)
//	        return nil
//	    },
//	}
//
// # IOStreams
//
// [IOStreams] abstracts the standard I/O streams, enabling testable commands:
//
//	// Production usage
//	streams := cli.NewIOStreams()  // Uses os.Stdin/Stdout/Stderr
//
//	// Test usage
//	var buf bytes.Buffer
//	streams := cli.IOStreams{
//	    In:     strings.NewReader("input"),
//	    Out:    &buf,
//	    ErrOut: &buf,
//	}
//
// # Output Formatting
//
// [Printer] renders the three result shapes the CLI produces: a raw
// manifest batch from the eval command, a batch of [diff.ResourceDiff]
// from the diff command, and an [export.Result] from the export command. NewPrinter picks an implementation from the global
// output flag:
//
//	printer := cli.NewPrinter(globalOpts)
//	err := printer.PrintDiffs(diffs, streams.Out)
//
// Supported formats:
//   - YAML (default)
//   - JSON
//   - Table
//   - Name (resource name only)
//
// # Configuration
//
// The [Config] type handles configuration file loading and merging:
//
//	cfg, err := cli.LoadConfig("~/.rtk.yaml")
//	if err != nil {
//	    // handle error
//	}
//
// Configuration is merged from multiple sources:
//  1. Default values
//  2. Configuration file
//  3. Environment variables (RTK_*)
//  4. Command-line flags
package cli
