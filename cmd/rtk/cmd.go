package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-rtk/rtk/pkg/cmd/shared"
	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
)

// NewRootCommand creates the root command for the rtk CLI.
func NewRootCommand() *cobra.Command {
	globalOpts := options.NewGlobalOptions()

	cmd := &cobra.Command{
		Use:   "rtk",
		Short: "Evaluate, export and diff Jsonnet-described Kubernetes environments",
		Long: `rtk evaluates lazy, pure-functional Jsonnet environments into Kubernetes
manifests, exports them to a file tree, and computes or applies the
difference between a rendered environment and a live cluster.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return globalOpts.Complete()
		},
	}

	globalOpts.AddFlags(cmd.PersistentFlags())

	shared.InitConfig("rtk", globalOpts)

	cmd.AddCommand(
		NewExportCommand(globalOpts),
		NewDiffCommand(globalOpts),
		NewApplyCommand(globalOpts),
		NewEvalCommand(globalOpts),
		shared.NewCompletionCommand(),
		shared.NewVersionCommand("rtk"),
	)

	return cmd
}

// Execute runs the root command, printing any error to stderr and
// exiting non-zero on failure.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
