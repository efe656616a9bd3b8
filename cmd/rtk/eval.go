package main

import (
	"github.com/spf13/cobra"

	"github.com/go-rtk/rtk/internal/config"
	"github.com/go-rtk/rtk/pkg/cli"
	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
)

// NewEvalCommand creates the eval subcommand.
func NewEvalCommand(globalOpts *options.GlobalOptions) *cobra.Command {
	factory := cli.NewFactory(globalOpts)

	var name string
	vars := &config.VarFlags{}

	cmd := &cobra.Command{
		Use:   "eval PATH...",
		Short: "Evaluate an environment and print its rendered manifests",
		Long: `Eval discovers every environment reachable from PATH..., evaluates and
extracts its manifests, and prints them without writing a file tree or
talking to a cluster.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(globalOpts, factory.IOStreams().ErrOut)

			processed, err := evaluateManifests(args, name, *vars, log)
			if err != nil {
				return err
			}

			manifests := make([]map[string]interface{}, len(processed))
			for i, pm := range processed {
				manifests[i] = pm.Manifest
			}

			return cli.PrintManifests(manifests, globalOpts, factory.IOStreams().Out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "evaluate only the named sub-environment")
	config.AddVarFlags(flags, vars)

	return cmd
}
