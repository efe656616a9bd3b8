package config

import (
	"github.com/spf13/pflag"

	"github.com/go-rtk/rtk/pkg/cli"
	"github.com/go-rtk/rtk/pkg/diff"
)

// DiffFlags holds the diff/apply subcommands' shared raw flag values.
type DiffFlags struct {
	Strategy    string
	Parallelism int
	WithPrune   bool
	Name        string
	Diffstat    bool
	Vars        VarFlags
}

// AddDiffFlags registers the diff subcommand's flags, modeled on the
// original CLI's Diff variant (diff_strategy, with_prune, target/name).
func AddDiffFlags(flags *pflag.FlagSet, f *DiffFlags) {
	flags.StringVar(&f.Strategy, "diff-strategy", "", "diff strategy (native|server|validate|subset); auto-selected when unset")
	flags.IntVar(&f.Parallelism, "parallel", 0, "maximum concurrent resource diffs")
	flags.BoolVarP(&f.WithPrune, "with-prune", "p", false, "include resources removed from the configuration in the diff")
	flags.StringVar(&f.Name, "name", "", "diff only the named sub-environment")
	flags.BoolVar(&f.Diffstat, "diffstat", false, "summarize the diff as a per-resource change histogram instead of printing it in full")
	AddVarFlags(flags, &f.Vars)
}

// Resolve builds diff.Options from f, layering config file defaults
// underneath explicitly-set flags. Strategy is left empty when neither
// source sets it, letting diff.SelectStrategy apply its own
// environment/cluster-version rule.
func (f *DiffFlags) Resolve(defaults *cli.Config) diff.Options {
	return diff.Options{
		Strategy:    diff.Strategy(firstNonEmpty(f.Strategy, defaults.Diff.Strategy)),
		Parallelism: firstPositive(f.Parallelism, defaults.Diff.Parallelism),
		WithPrune:   f.WithPrune || defaults.Diff.WithPrune,
	}
}
