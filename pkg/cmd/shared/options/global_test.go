package options

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestNewGlobalOptions(t *testing.T) {
	opts := NewGlobalOptions()
	if opts == nil {
		t.Fatal("expected non-nil GlobalOptions")
	}
	if opts.Output != "yaml" {
		t.Errorf("expected default output to be 'yaml', got %s", opts.Output)
	}
	if opts.LogFormat != "text" {
		t.Errorf("expected default log format to be 'text', got %s", opts.LogFormat)
	}
	if opts.Verbose || opts.Debug || opts.NoHeaders || opts.ShowLabels {
		t.Error("expected all boolean flags to default to false")
	}
}

func TestGlobalOptions_AddFlags(t *testing.T) {
	opts := NewGlobalOptions()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(flags)

	expectedFlags := []string{
		"config", "verbose", "debug", "output", "log-format",
		"no-headers", "show-labels", "kubeconfig", "context",
	}
	for _, flagName := range expectedFlags {
		if flags.Lookup(flagName) == nil {
			t.Errorf("expected flag %s to be added", flagName)
		}
	}

	if flags.ShorthandLookup("c") == nil {
		t.Error("expected shorthand 'c' for config flag")
	}
	if flags.ShorthandLookup("v") == nil {
		t.Error("expected shorthand 'v' for verbose flag")
	}
	if flags.ShorthandLookup("o") == nil {
		t.Error("expected shorthand 'o' for output flag")
	}
}

func TestGlobalOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{"valid yaml", "yaml", false},
		{"valid json", "json", false},
		{"valid table", "table", false},
		{"valid name", "name", false},
		{"invalid format", "invalid", true},
		{"empty format", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&GlobalOptions{Output: tt.output}).Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGlobalOptions_ValidateLogFormat(t *testing.T) {
	tests := []struct {
		name      string
		logFormat string
		wantErr   bool
	}{
		{"empty defaults to text", "", false},
		{"text", "text", false},
		{"json", "json", false},
		{"invalid", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&GlobalOptions{Output: "yaml", LogFormat: tt.logFormat}).Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGlobalOptions_Complete(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("verbose", true)
	viper.Set("output", "json")
	viper.Set("kubeconfig", "/tmp/kubeconfig")

	opts := NewGlobalOptions()
	if err := opts.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.Verbose {
		t.Error("expected viper's verbose value to be applied")
	}
	if opts.Output != "json" {
		t.Errorf("expected Output to be overridden to json, got %s", opts.Output)
	}
	if opts.Kubeconfig != "/tmp/kubeconfig" {
		t.Errorf("expected Kubeconfig to be overridden, got %s", opts.Kubeconfig)
	}
}

func TestGlobalOptions_CompleteRejectsInvalidOutput(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("output", "invalid")

	opts := NewGlobalOptions()
	if err := opts.Complete(); err == nil {
		t.Error("expected Complete to reject an invalid output format via Validate")
	}
}

func TestGlobalOptions_DebugImpliesVerboseAndSetsEnv(t *testing.T) {
	original := os.Getenv("RTK_DEBUG")
	defer os.Setenv("RTK_DEBUG", original)

	viper.Reset()
	defer viper.Reset()

	opts := &GlobalOptions{Output: "yaml", Debug: true}
	if err := opts.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.Verbose {
		t.Error("expected Debug to imply Verbose")
	}
	if os.Getenv("RTK_DEBUG") != "1" {
		t.Error("expected RTK_DEBUG=1 when debug is enabled")
	}
}

func TestGlobalOptions_OutputPredicates(t *testing.T) {
	tests := []struct {
		output          string
		table, json, yaml bool
	}{
		{"table", true, false, false},
		{"name", true, false, false},
		{"json", false, true, false},
		{"yaml", false, false, true},
	}
	for _, tt := range tests {
		opts := &GlobalOptions{Output: tt.output}
		if opts.IsTableOutput() != tt.table {
			t.Errorf("%s: IsTableOutput = %v, want %v", tt.output, opts.IsTableOutput(), tt.table)
		}
		if opts.IsJSONOutput() != tt.json {
			t.Errorf("%s: IsJSONOutput = %v, want %v", tt.output, opts.IsJSONOutput(), tt.json)
		}
		if opts.IsYAMLOutput() != tt.yaml {
			t.Errorf("%s: IsYAMLOutput = %v, want %v", tt.output, opts.IsYAMLOutput(), tt.yaml)
		}
	}
}

func TestGlobalOptions_FlagIntegration(t *testing.T) {
	opts := NewGlobalOptions()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(flags)

	args := []string{
		"--verbose", "--debug", "--output", "json",
		"--kubeconfig", "/tmp/kc", "--context", "staging",
		"--no-headers", "--show-labels",
	}
	if err := flags.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	if !opts.Verbose || !opts.Debug || !opts.NoHeaders || !opts.ShowLabels {
		t.Error("expected all boolean flags to be set")
	}
	if opts.Output != "json" {
		t.Errorf("expected Output 'json', got %s", opts.Output)
	}
	if opts.Kubeconfig != "/tmp/kc" {
		t.Errorf("expected Kubeconfig '/tmp/kc', got %s", opts.Kubeconfig)
	}
	if opts.KubeContext != "staging" {
		t.Errorf("expected KubeContext 'staging', got %s", opts.KubeContext)
	}
}
