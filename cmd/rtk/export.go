package main

import (
	"github.com/spf13/cobra"

	"github.com/go-rtk/rtk/internal/config"
	"github.com/go-rtk/rtk/pkg/cli"
	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
	"github.com/go-rtk/rtk/pkg/export"
)

// NewExportCommand creates the export subcommand.
func NewExportCommand(globalOpts *options.GlobalOptions) *cobra.Command {
	factory := cli.NewFactory(globalOpts)
	flags := &config.ExportFlags{}

	cmd := &cobra.Command{
		Use:   "export OUTPUT_DIR PATH...",
		Short: "Render every discovered environment to a file tree",
		Long: `Export discovers every environment reachable from PATH..., evaluates
each one, and writes its rendered manifests under OUTPUT_DIR as
YAML or JSON files named from a template.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.OutputDir = args[0]
			paths := args[1:]

			defaults, err := cli.LoadConfig(globalOpts.ConfigFile)
			if err != nil {
				return err
			}
			opts, err := flags.Resolve(defaults)
			if err != nil {
				return err
			}

			res, err := export.Export(cmd.Context(), paths, opts)
			if err != nil {
				return err
			}
			return cli.PrintExportResult(res, globalOpts, factory.IOStreams().Out)
		},
	}

	config.AddExportFlags(cmd.Flags(), flags)

	return cmd
}
