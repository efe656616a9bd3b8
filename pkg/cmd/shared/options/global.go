package options

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

// GlobalOptions contains the flags shared by every rtk subcommand.
type GlobalOptions struct {
	// Configuration
	ConfigFile string
	Verbose    bool
	Debug      bool

	// LogFormat selects the diagnostic logger's encoding: "text" (the
	// default, human-readable) or "json" (structured, zap-backed).
	LogFormat string

	// Output options
	Output     string
	NoHeaders  bool
	ShowLabels bool

	// Cluster access, used by diff/apply (export never talks to a
	// live cluster).
	Kubeconfig  string
	KubeContext string
}

// NewGlobalOptions creates a new GlobalOptions with defaults.
func NewGlobalOptions() *GlobalOptions {
	return &GlobalOptions{
		Output:    "yaml",
		LogFormat: "text",
	}
}

// AddFlags adds global flags to the provided FlagSet.
func (o *GlobalOptions) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "config file (default is $HOME/.rtk.yaml)")
	flags.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "verbose output")
	flags.BoolVar(&o.Debug, "debug", o.Debug, "debug output")
	flags.StringVar(&o.LogFormat, "log-format", o.LogFormat, "diagnostic log encoding (text|json)")

	flags.StringVarP(&o.Output, "output", "o", o.Output, "output format (yaml|json|table|name)")
	flags.BoolVar(&o.NoHeaders, "no-headers", o.NoHeaders, "don't print headers (for table output)")
	flags.BoolVar(&o.ShowLabels, "show-labels", o.ShowLabels, "show resource labels in table output")

	flags.StringVar(&o.Kubeconfig, "kubeconfig", o.Kubeconfig, "path to kubeconfig (default is $KUBECONFIG or ~/.kube/config)")
	flags.StringVar(&o.KubeContext, "context", o.KubeContext, "kubeconfig context to use")
}

// Complete completes the global options by reading from configuration.
func (o *GlobalOptions) Complete() error {
	if viper.IsSet("verbose") {
		o.Verbose = viper.GetBool("verbose")
	}
	if viper.IsSet("debug") {
		o.Debug = viper.GetBool("debug")
	}
	if viper.IsSet("output") {
		o.Output = viper.GetString("output")
	}
	if viper.IsSet("kubeconfig") {
		o.Kubeconfig = viper.GetString("kubeconfig")
	}
	if viper.IsSet("log-format") {
		o.LogFormat = viper.GetString("log-format")
	}

	if o.Debug {
		_ = os.Setenv("RTK_DEBUG", "1")
		o.Verbose = true
	}

	return o.Validate()
}

// Validate validates the global options.
func (o *GlobalOptions) Validate() error {
	validOutputs := []string{"yaml", "json", "table", "name"}
	valid := false
	for _, format := range validOutputs {
		if o.Output == format {
			valid = true
			break
		}
	}
	if !valid {
		return kureerrors.CreateError("invalid output format " + o.Output + ", must be one of yaml|json|table|name")
	}
	if o.LogFormat != "" && o.LogFormat != "text" && o.LogFormat != "json" {
		return kureerrors.CreateError("invalid log format " + o.LogFormat + ", must be one of text|json")
	}
	return nil
}

// IsTableOutput returns true if output format requires table formatting.
func (o *GlobalOptions) IsTableOutput() bool {
	return o.Output == "table" || o.Output == "name"
}

// IsJSONOutput returns true if output format is JSON.
func (o *GlobalOptions) IsJSONOutput() bool {
	return o.Output == "json"
}

// IsYAMLOutput returns true if output format is YAML.
func (o *GlobalOptions) IsYAMLOutput() bool {
	return o.Output == "yaml"
}
