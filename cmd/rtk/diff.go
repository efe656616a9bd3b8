package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-rtk/rtk/internal/config"
	"github.com/go-rtk/rtk/pkg/cli"
	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
	"github.com/go-rtk/rtk/pkg/diff"
	"github.com/go-rtk/rtk/pkg/manifest"
	"github.com/go-rtk/rtk/pkg/spec"
)

// NewDiffCommand creates the diff subcommand.
func NewDiffCommand(globalOpts *options.GlobalOptions) *cobra.Command {
	factory := cli.NewFactory(globalOpts)
	flags := &config.DiffFlags{}

	cmd := &cobra.Command{
		Use:   "diff PATH...",
		Short: "Compute the difference between an environment and a live cluster",
		Long: `Diff evaluates every environment reachable from PATH..., then compares
its rendered manifests against the cluster named by --kubeconfig and
--context, one resource at a time.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(globalOpts, factory.IOStreams().ErrOut)

			processed, err := evaluateManifests(args, flags.Name, flags.Vars, log)
			if err != nil {
				return err
			}

			defaults, err := cli.LoadConfig(globalOpts.ConfigFile)
			if err != nil {
				return err
			}
			opts := flags.Resolve(defaults)
			opts.Log = log

			client, disc, err := config.BuildClusterClient(globalOpts.Kubeconfig, globalOpts.KubeContext)
			if err != nil {
				return err
			}

			if opts.Strategy == "" {
				atLeast113, err := config.ClusterAtLeast113(disc)
				if err != nil {
					return err
				}
				opts.Strategy = diff.SelectStrategy(primaryEnv(processed), atLeast113)
			}

			if opts.WithPrune {
				if env := primaryEnv(processed); env != nil {
					opts.EnvLabel = manifest.GenerateEnvironmentLabel(env)
					opts.InjectLabelsEnabled = env.Spec.InjectLabels
				}
			}

			engine := diff.New(client, opts, processed)
			diffs, err := engine.Run(cmd.Context(), processed)
			if err != nil {
				return err
			}

			if flags.Diffstat {
				return printDiffstat(diffs, factory.IOStreams().Out)
			}

			return cli.PrintDiffs(diffs, globalOpts, factory.IOStreams().Out)
		},
	}

	config.AddDiffFlags(cmd.Flags(), flags)

	return cmd
}

// printDiffstat concatenates every resource's unified diff and prints
// the histogram summary produced by diff.Diffstat, the --diffstat
// equivalent of Tanka's DiffOpts.Summarize.
func printDiffstat(diffs []diff.ResourceDiff, out io.Writer) error {
	var unified strings.Builder
	for _, d := range diffs {
		unified.WriteString(d.Unified)
	}
	stat, err := diff.Diffstat(unified.String())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, stat)
	return err
}

// primaryEnv returns the environment spec of the first processed
// manifest, the strategy-selection and prune-labeling rule's stand-in
// for "the environment being diffed" when a single invocation spans
// more than one discovered sub-environment.
func primaryEnv(processed []manifest.ProcessedManifest) *spec.Environment {
	for _, pm := range processed {
		if pm.Env != nil {
			return pm.Env
		}
	}
	return nil
}
