package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-rtk/rtk/internal/config"
	"github.com/go-rtk/rtk/pkg/cli"
	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
	"github.com/go-rtk/rtk/pkg/diff"
	"github.com/go-rtk/rtk/pkg/manifest"
)

// NewApplyCommand creates the apply subcommand.
func NewApplyCommand(globalOpts *options.GlobalOptions) *cobra.Command {
	factory := cli.NewFactory(globalOpts)
	flags := &config.ApplyFlags{}

	cmd := &cobra.Command{
		Use:   "apply PATH...",
		Short: "Apply an environment's manifests to a live cluster",
		Long: `Apply evaluates every environment reachable from PATH..., diffs it
against the cluster named by --kubeconfig and --context, prints the
diff, prompts for confirmation unless --auto-approve is set, and then
creates, patches or (with --with-prune) deletes resources to match.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := factory.IOStreams()
			log := newLogger(globalOpts, out.ErrOut)

			processed, err := evaluateManifests(args, flags.Name, flags.Vars, log)
			if err != nil {
				return err
			}

			defaults, err := cli.LoadConfig(globalOpts.ConfigFile)
			if err != nil {
				return err
			}
			diffOpts := flags.Resolve(defaults)
			diffOpts.Log = log

			client, disc, err := config.BuildClusterClient(globalOpts.Kubeconfig, globalOpts.KubeContext)
			if err != nil {
				return err
			}

			if diffOpts.Strategy == "" {
				atLeast113, err := config.ClusterAtLeast113(disc)
				if err != nil {
					return err
				}
				diffOpts.Strategy = diff.SelectStrategy(primaryEnv(processed), atLeast113)
			}
			if flags.Validate {
				preflight := diffOpts
				preflight.Strategy = diff.StrategyValidate
				if _, err := diff.New(client, preflight, processed).Run(cmd.Context(), processed); err != nil {
					return fmt.Errorf("validation failed: %w", err)
				}
			}
			if diffOpts.WithPrune {
				if env := primaryEnv(processed); env != nil {
					diffOpts.EnvLabel = manifest.GenerateEnvironmentLabel(env)
					diffOpts.InjectLabelsEnabled = env.Spec.InjectLabels
				}
			}

			engine := diff.New(client, diffOpts, processed)
			diffs, err := engine.Run(cmd.Context(), processed)
			if err != nil {
				return err
			}

			if err := cli.PrintDiffs(diffs, globalOpts, out.Out); err != nil {
				return err
			}

			if flags.DryRun {
				return nil
			}
			if !flags.AutoApprove {
				approved, err := confirm(out.In, out.Out, "Apply the above changes?")
				if err != nil {
					return err
				}
				if !approved {
					fmt.Fprintln(out.Out, "apply cancelled")
					return nil
				}
			}

			manifests := make([]map[string]interface{}, len(processed))
			for i, pm := range processed {
				manifests[i] = pm.Manifest
			}

			return diff.Apply(cmd.Context(), client, diffs, manifests, flags.ResolveApply())
		},
	}

	config.AddApplyFlags(cmd.Flags(), flags)

	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
