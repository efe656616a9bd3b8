package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/go-rtk/rtk/pkg/ast"
	"github.com/go-rtk/rtk/pkg/discover"
	"github.com/go-rtk/rtk/pkg/eval"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/filename"
	"github.com/go-rtk/rtk/pkg/manifest"
	"github.com/go-rtk/rtk/pkg/parser"
	"github.com/go-rtk/rtk/pkg/spec"
	"github.com/go-rtk/rtk/pkg/stdlib"
	"github.com/go-rtk/rtk/pkg/value"
)

// processEnv evaluates one discovered environment, extracts and injects
// its manifests, renders filenames, serializes and writes them. The
// first return value is always populated; the second is non-nil only
// for a Fatal condition, matching Export's Fatal-vs-EnvError split.
// Each environment gets its own Evaluator (spec §5's "fresh OS thread
// per env" requirement is satisfied by the caller's errgroup-per-item
// fan-out; a fresh Evaluator per call is this function's half of that
// "release evaluator caches" guarantee).
func processEnv(ctx context.Context, d spec.Discovered, opts Options) (EnvResult, error) {
	id := envID(d)
	res := EnvResult{ID: id, Path: d.Path}

	defaultEnv, err := StaticEnvironment(d)
	if err != nil {
		res.Err = err
		return res, nil
	}

	root, err := EvaluateEntrypoint(d, opts)
	if err != nil {
		res.Err = err
		return res, nil
	}

	processed, err := manifest.Process(root, defaultEnv)
	if err != nil {
		res.Err = err
		return res, nil
	}
	processed = FilterBySubEnv(processed, d.Name)

	type rendered struct {
		path string
		data []byte
	}
	outputs := make([]rendered, len(processed))
	templates := map[*spec.Environment]*template.Template{}

	g, _ := errgroup.WithContext(ctx)
	for i, pm := range processed {
		i, pm := i, pm
		tmpl, ok := templates[pm.Env]
		if !ok {
			tmpl, err = filename.Parse(opts.Format, pm.Env)
			if err != nil {
				return res, kureerrors.New(err, "parsing filename template")
			}
			templates[pm.Env] = tmpl
		}
		g.Go(func() error {
			path, err := filename.Render(tmpl, pm.Manifest, pm.Env, opts.Extension)
			if err != nil {
				return err
			}
			data, err := serializeManifest(pm.Manifest, opts.Extension)
			if err != nil {
				return err
			}
			outputs[i] = rendered{path: path, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		res.Err = err
		return res, nil
	}

	files := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if err := writeIfChanged(opts.OutputDir, o.path, o.data); err != nil {
			res.Err = err
			return res, nil
		}
		files = append(files, o.path)
	}
	res.Files = files
	return res, nil
}

// StaticEnvironment reads spec.json's full Environment document for a
// static-spec environment; inline environments carry their own
// Environment object(s) within the evaluated tree, so they have no
// default (manifest.Process finds them via ExtractEnvironments).
// Exported so cmd/rtk's diff and eval commands can share the same
// discover-then-evaluate pipeline this package uses for export.
func StaticEnvironment(d spec.Discovered) (*spec.Environment, error) {
	if !d.Static {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(d.Path, "spec.json"))
	if err != nil {
		return nil, kureerrors.New(err, "reading spec.json")
	}
	var env spec.Environment
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, kureerrors.New(err, "parsing spec.json")
	}
	return &env, nil
}

// EvaluateEntrypoint evaluates d's Jsonnet entrypoint to a plain Go
// value tree, ready for manifest.Process. Exported for cmd/rtk's diff
// and eval commands.
func EvaluateEntrypoint(d spec.Discovered, opts Options) (interface{}, error) {
	importer := discover.NewFileImporter(d.Path)
	ev := eval.New(importer)
	if opts.TLAs != nil {
		ev.TLAs = opts.TLAs
	}
	if opts.ExtVars != nil {
		for k, v := range opts.ExtVars {
			if s, ok := v.(value.String); ok {
				ev.ExtVars[k] = string(s)
			}
		}
	}
	stdlib.Build(ev, opts.Natives)

	v, err := ev.EvalFile(d.Entrypoint, func() (ast.Node, error) {
		src, readErr := importer.Read(d.Entrypoint)
		if readErr != nil {
			return nil, readErr
		}
		return parser.Parse(d.Entrypoint, src)
	})
	if err != nil {
		return nil, err
	}
	return stdlib.ToGo(v)
}

// FilterBySubEnv keeps only the manifests belonging to the named
// sub-environment when a directory's inline entrypoint produced more
// than one; a discovered entry with no sub-name keeps everything
// (the single-environment case). Exported for cmd/rtk's diff and eval
// commands, which share this package's discover-then-evaluate pipeline.
func FilterBySubEnv(processed []manifest.ProcessedManifest, name string) []manifest.ProcessedManifest {
	if name == "" {
		return processed
	}
	var out []manifest.ProcessedManifest
	for _, pm := range processed {
		if pm.Env != nil && pm.Env.Metadata.Name == name {
			out = append(out, pm)
		}
	}
	return out
}

func writeIfChanged(outputDir, relPath string, data []byte) error {
	full := filepath.Join(outputDir, filepath.FromSlash(relPath))
	if existing, err := os.ReadFile(full); err == nil && string(existing) == string(data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return kureerrors.New(err, "creating output directory for "+relPath)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return kureerrors.New(err, "writing "+relPath)
	}
	return nil
}
