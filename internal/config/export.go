package config

import (
	"github.com/spf13/pflag"

	"github.com/go-rtk/rtk/pkg/cli"
	"github.com/go-rtk/rtk/pkg/export"
)

// ExportFlags holds the export subcommand's raw flag values before
// Resolve merges them with any values loaded from ~/.rtk.yaml.
type ExportFlags struct {
	OutputDir     string
	Extension     string
	Format        string
	Parallelism   int
	Recursive     bool
	Name          string
	SkipManifest  bool
	MergeStrategy string
	Vars          VarFlags
}

// AddExportFlags registers the export subcommand's flags, modeled on
// the original CLI's Export variant (extension, format, parallel,
// recursive, name, merge_strategy). output_dir is positional in the
// original CLI, not a flag; cmd/rtk sets f.OutputDir directly from
// the command's first argument.
func AddExportFlags(flags *pflag.FlagSet, f *ExportFlags) {
	flags.StringVar(&f.Extension, "extension", "", "file extension for exported manifests (yaml|json)")
	flags.StringVar(&f.Format, "format", "", "filename template")
	flags.IntVarP(&f.Parallelism, "parallel", "p", 0, "maximum concurrent environment exports")
	flags.BoolVarP(&f.Recursive, "recursive", "r", false, "descend into every environment under the given paths")
	flags.StringVar(&f.Name, "name", "", "export only the named sub-environment")
	flags.BoolVar(&f.SkipManifest, "skip-manifest", false, "don't write or update the output manifest index")
	flags.StringVar(&f.MergeStrategy, "merge-strategy", "", "merge strategy for a pre-existing output tree (none|fail-on-conflicts|replace-envs)")
	AddVarFlags(flags, &f.Vars)
}

// Resolve builds export.Options from f, layering config file defaults
// underneath explicitly-set flags.
func (f *ExportFlags) Resolve(defaults *cli.Config) (export.Options, error) {
	opts := export.Options{
		OutputDir:     f.OutputDir,
		Extension:     firstNonEmpty(f.Extension, defaults.Export.Extension),
		Format:        firstNonEmpty(f.Format, defaults.Export.Format),
		Parallelism:   firstPositive(f.Parallelism, defaults.Export.Parallelism),
		Recursive:     f.Recursive,
		Name:          f.Name,
		SkipManifest:  f.SkipManifest,
		MergeStrategy: export.MergeStrategy(firstNonEmpty(f.MergeStrategy, defaults.Export.MergeStrategy)),
	}

	tlas, err := f.Vars.ParseTLAs()
	if err != nil {
		return export.Options{}, err
	}
	opts.TLAs = tlas

	extVars, err := f.Vars.ParseExtVars()
	if err != nil {
		return export.Options{}, err
	}
	opts.ExtVars = extVars

	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
