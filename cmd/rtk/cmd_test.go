package main

import (
	"testing"

	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
)

func TestNewRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "rtk" {
		t.Errorf("expected Use 'rtk', got %s", cmd.Use)
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"export", "diff", "apply", "eval", "completion", "version"} {
		if !names[want] {
			t.Errorf("expected subcommand %q to be registered", want)
		}
	}
}

func TestNewRootCommandSilencesUsageAndErrors(t *testing.T) {
	cmd := NewRootCommand()
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Error("expected SilenceUsage and SilenceErrors to be true")
	}
}

func TestNewExportCommandRequiresOutputDirAndPath(t *testing.T) {
	cmd := NewExportCommand(options.NewGlobalOptions())
	if err := cmd.Args(cmd, []string{"onlyonearg"}); err == nil {
		t.Error("expected error with fewer than two args")
	}
	if err := cmd.Args(cmd, []string{"out", "path"}); err != nil {
		t.Errorf("expected no error with two args, got %v", err)
	}
}

func TestNewDiffCommandRequiresPath(t *testing.T) {
	cmd := NewDiffCommand(options.NewGlobalOptions())
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("expected error with no path arguments")
	}
}

func TestNewApplyCommandFlags(t *testing.T) {
	cmd := NewApplyCommand(options.NewGlobalOptions())
	for _, name := range []string{"apply-strategy", "auto-approve", "dry-run", "force", "validate", "with-prune"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag %q to be registered", name)
		}
	}
}

func TestNewEvalCommandRequiresPath(t *testing.T) {
	cmd := NewEvalCommand(options.NewGlobalOptions())
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("expected error with no path arguments")
	}
	if cmd.Flags().Lookup("name") == nil {
		t.Error("expected --name flag to be registered")
	}
}
