// Package config binds cobra/pflag flags shared by every cmd/rtk
// subcommand to export.Options and diff.Options, and resolves the
// top-level-argument and external-variable flags (-A/--tla-str,
// --tla-code, -V/--ext-str, --ext-code) the original rtk CLI exposed
// as repeatable key=value pairs.
package config

import (
	"strings"

	"github.com/spf13/pflag"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// VarFlags holds the raw repeatable flag values for top-level
// arguments and external variables before they are parsed into
// value.Value maps.
type VarFlags struct {
	TLAStr  []string
	TLACode []string
	ExtStr  []string
	ExtCode []string
}

// AddVarFlags registers -A/--tla-str, --tla-code, -V/--ext-str and
// --ext-code the way the original CLI's clap definitions did.
func AddVarFlags(flags *pflag.FlagSet, v *VarFlags) {
	flags.StringArrayVarP(&v.TLAStr, "tla-str", "A", nil, "top-level string argument (key=value)")
	flags.StringArrayVar(&v.TLACode, "tla-code", nil, "top-level code argument (key=expr)")
	flags.StringArrayVarP(&v.ExtStr, "ext-str", "V", nil, "external string variable (key=value)")
	flags.StringArrayVar(&v.ExtCode, "ext-code", nil, "external code variable (key=expr)")
}

// ParseTLAs resolves v's TLA flags into the map export.Options/
// discover.Options expect. --tla-code is rejected for now: evaluating
// an arbitrary expression here would require a standalone parser
// entrypoint this package has no evaluator to run against, so only
// plain string TLAs are supported until a caller needs more.
func (v *VarFlags) ParseTLAs() (map[string]value.Value, error) {
	out, err := parsePairs(v.TLAStr)
	if err != nil {
		return nil, err
	}
	if len(v.TLACode) > 0 {
		return nil, kureerrors.CreateError("--tla-code is not supported, use --tla-str")
	}
	return out, nil
}

// ParseExtVars resolves v's ext-var flags the same way ParseTLAs does.
func (v *VarFlags) ParseExtVars() (map[string]value.Value, error) {
	out, err := parsePairs(v.ExtStr)
	if err != nil {
		return nil, err
	}
	if len(v.ExtCode) > 0 {
		return nil, kureerrors.CreateError("--ext-code is not supported, use --ext-str")
	}
	return out, nil
}

func parsePairs(pairs []string) (map[string]value.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]value.Value, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, kureerrors.CreateError("invalid key=value pair: " + pair)
		}
		out[key] = value.String(val)
	}
	return out, nil
}
