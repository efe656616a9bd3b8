package main

import (
	"io"

	"github.com/go-rtk/rtk/internal/config"
	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
	"github.com/go-rtk/rtk/pkg/discover"
	"github.com/go-rtk/rtk/pkg/export"
	"github.com/go-rtk/rtk/pkg/logger"
	"github.com/go-rtk/rtk/pkg/manifest"
)

// newLogger builds the logger every subcommand runs its pipeline
// with, writing to errOut so stdout stays reserved for rendered
// output. Debug mode lowers the level to show evaluation and
// discovery detail; otherwise only warnings and errors are shown.
// --log-format=json switches to the zap-backed structured encoder.
func newLogger(globalOpts *options.GlobalOptions, errOut io.Writer) logger.Logger {
	level := logger.LevelWarn
	if globalOpts.Debug || globalOpts.Verbose {
		level = logger.LevelDebug
	}
	opts := logger.Options{Output: errOut, Level: level, Prefix: "rtk: "}
	if globalOpts.LogFormat == "json" {
		return logger.NewZap(opts)
	}
	return logger.New(opts)
}

// evaluateManifests discovers every environment reachable from paths
// and runs each through the same evaluate-extract-inject pipeline
// pkg/export uses, without writing anything to disk. diff, apply and
// eval all need this batch of processed manifests rather than a file
// tree.
func evaluateManifests(paths []string, name string, vars config.VarFlags, log logger.Logger) ([]manifest.ProcessedManifest, error) {
	tlas, err := vars.ParseTLAs()
	if err != nil {
		return nil, err
	}
	extVars, err := vars.ParseExtVars()
	if err != nil {
		return nil, err
	}

	discovered, err := discover.Discover(paths, discover.Options{
		TLAs:    tlas,
		ExtVars: extVars,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	discovered = export.FilterByName(discovered, name)

	exportOpts := export.Options{TLAs: tlas, ExtVars: extVars, Logger: log}

	var out []manifest.ProcessedManifest
	for _, d := range discovered {
		defaultEnv, err := export.StaticEnvironment(d)
		if err != nil {
			return nil, err
		}
		root, err := export.EvaluateEntrypoint(d, exportOpts)
		if err != nil {
			return nil, err
		}
		processed, err := manifest.Process(root, defaultEnv)
		if err != nil {
			return nil, err
		}
		out = append(out, export.FilterBySubEnv(processed, d.Name)...)
	}
	return out, nil
}
