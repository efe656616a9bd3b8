package config

import (
	"github.com/spf13/pflag"

	"github.com/go-rtk/rtk/pkg/diff"
)

// ApplyFlags holds the apply subcommand's flags. It embeds DiffFlags
// since apply always computes a diff batch first, then acts on it.
type ApplyFlags struct {
	DiffFlags

	// ApplyStrategy selects server-side apply ("server") over the
	// default strategic-merge-with-CRD-fallback patch; mirrors
	// spec.Environment.Spec.ApplyStrategy for a command-line override.
	ApplyStrategy string
	AutoApprove   bool
	DryRun        bool
	Force         bool
	// Validate runs the Validate strategy's dry-run pre-flight over
	// every manifest before any write; on by default.
	Validate bool
}

// AddApplyFlags registers the apply subcommand's flags, modeled on the
// original CLI's Apply variant (apply_strategy, auto_approve, dry_run,
// force, validate) layered over the shared diff flags.
func AddApplyFlags(flags *pflag.FlagSet, f *ApplyFlags) {
	AddDiffFlags(flags, &f.DiffFlags)
	flags.StringVar(&f.ApplyStrategy, "apply-strategy", "", "apply strategy (server|native); strategic-merge patching when unset")
	flags.BoolVar(&f.AutoApprove, "auto-approve", false, "apply without prompting for confirmation")
	flags.BoolVar(&f.DryRun, "dry-run", false, "compute and print the diff without applying it")
	flags.BoolVar(&f.Force, "force", false, "force-conflicts on server-side-apply patches")
	f.Validate = true
	flags.BoolVar(&f.Validate, "validate", true, "dry-run every manifest through a server-side-apply pre-flight before applying")
}

// ResolveApply builds diff.ApplyOptions from f.
func (f *ApplyFlags) ResolveApply() diff.ApplyOptions {
	return diff.ApplyOptions{
		ServerSide: f.ApplyStrategy == "server",
		Force:      f.Force,
		Prune:      f.WithPrune,
	}
}
