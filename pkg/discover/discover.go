// Package discover walks directory trees looking for environments: a
// directory holding either a static spec.json or an inline main.jsonnet
// entrypoint that itself evaluates to one or more Environment objects
// (spec §4.D). Grounded on original_source's discover.rs (env markers,
// skip-dir list, no-descend-once-found, single-vs-multi sub-environment
// naming) and on the teacher's pkg/launcher/loader.go for the
// filepath.Walk-with-skip-predicate idiom.
package discover

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/eval"
	"github.com/go-rtk/rtk/pkg/logger"
	"github.com/go-rtk/rtk/pkg/parser"
	"github.com/go-rtk/rtk/pkg/spec"
	"github.com/go-rtk/rtk/pkg/stdlib"
	"github.com/go-rtk/rtk/pkg/value"
)

var envMarkers = []string{"spec.json", "main.jsonnet"}
var skipDirs = map[string]bool{"vendor": true, "node_modules": true, "lib": true}

// Options configures discovery; TLAs are applied to inline main.jsonnet
// entrypoints that evaluate to a function before metadata is extracted.
type Options struct {
	TLAs    map[string]value.Value
	ExtVars map[string]value.Value
	Natives stdlib.Natives
	Logger  logger.Logger
}

// Discover finds every environment reachable from paths, deduplicated by
// resolved directory.
func Discover(paths []string, opts Options) ([]spec.Discovered, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	seen := map[string]bool{}
	var out []spec.Discovered

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, kureerrors.New(err, "resolving path "+p)
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			abs = filepath.Dir(abs)
		}

		if isEnvironment(abs) {
			if err := addEnvironment(abs, seen, &out, opts); err != nil {
				return nil, err
			}
			continue
		}

		walkErr := filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() {
				return nil
			}
			name := info.Name()
			if path != abs && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			if isEnvironment(path) {
				if addErr := addEnvironment(path, seen, &out, opts); addErr != nil {
					return addErr
				}
				return filepath.SkipDir
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return out, nil
}

func isEnvironment(dir string) bool {
	for _, marker := range envMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func addEnvironment(dir string, seen map[string]bool, out *[]spec.Discovered, opts Options) error {
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		canonical = dir
	}
	if seen[canonical] {
		return nil
	}
	seen[canonical] = true

	specPath := filepath.Join(canonical, "spec.json")
	if _, err := os.Stat(specPath); err == nil {
		d, err := readStaticSpec(canonical, specPath)
		if err != nil {
			return err
		}
		*out = append(*out, d)
		return nil
	}

	envs, err := discoverInline(canonical, opts)
	if err != nil {
		opts.Logger.Warn("inline discovery failed for %s: %v", canonical, err)
		*out = append(*out, spec.Discovered{Path: canonical, Entrypoint: filepath.Join(canonical, "main.jsonnet"), Inline: true})
		return nil
	}
	*out = append(*out, envs...)
	return nil
}

type staticSpecFile struct {
	Metadata struct {
		Labels map[string]string `json:"labels"`
	} `json:"metadata"`
	Spec struct {
		ExportJsonnetImplementation string `json:"exportJsonnetImplementation"`
	} `json:"spec"`
}

func readStaticSpec(dir, specPath string) (spec.Discovered, error) {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return spec.Discovered{}, kureerrors.New(err, "reading "+specPath)
	}
	var s staticSpecFile
	if err := json.Unmarshal(data, &s); err != nil {
		return spec.Discovered{}, kureerrors.New(err, "parsing "+specPath)
	}
	return spec.Discovered{
		Path:                        dir,
		Entrypoint:                  filepath.Join(dir, "main.jsonnet"),
		Inline:                      false,
		Static:                      true,
		ExportJsonnetImplementation: s.Spec.ExportJsonnetImplementation,
		Labels:                      s.Metadata.Labels,
	}, nil
}

// discoverInline evaluates main.jsonnet and walks the resulting value
// tree for Environment objects with a metadata.name, matching the
// noDataEnv extraction the original tool ran as a Jsonnet snippet --
// done here directly over the already-evaluated value tree instead of a
// second embedded Jsonnet program, since the evaluator and its result are
// already in hand.
func discoverInline(dir string, opts Options) ([]spec.Discovered, error) {
	entrypoint := filepath.Join(dir, "main.jsonnet")
	if _, err := os.Stat(entrypoint); err != nil {
		return []spec.Discovered{{Path: dir, Entrypoint: entrypoint, Inline: true}}, nil
	}

	importer := NewFileImporter(dir)
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
	if opts.Natives != nil {
		ev.SetNatives(opts.Natives)
	}

	v, err := ev.EvalFile(entrypoint, func() (ast.Node, error) {
		src, readErr := importer.Read(entrypoint)
		if readErr != nil {
			return nil, readErr
		}
		return parser.Parse(entrypoint, src)
	})
	if err != nil {
		return nil, err
	}

	metas := extractEnvironmentMetadata(v)
	if len(metas) == 0 {
		return []spec.Discovered{{Path: dir, Entrypoint: entrypoint, Inline: true}}, nil
	}

	var shared string
	for _, m := range metas {
		if m.exportImpl != "" {
			shared = m.exportImpl
			break
		}
	}

	envs := make([]spec.Discovered, 0, len(metas))
	single := len(metas) == 1
	for _, m := range metas {
		impl := m.exportImpl
		if impl == "" {
			impl = shared
		}
		name := ""
		if !single {
			name = m.name
		}
		envs = append(envs, spec.Discovered{
			Path:                        dir,
			Entrypoint:                  entrypoint,
			Inline:                      true,
			Name:                        name,
			ExportJsonnetImplementation: impl,
			Labels:                      m.labels,
		})
	}
	return envs, nil
}

type envMeta struct {
	name       string
	exportImpl string
	labels     map[string]string
}

// extractEnvironmentMetadata walks a Value tree collecting every object
// with kind=="Environment" and a metadata.name, recursing into object
// fields and array elements otherwise.
func extractEnvironmentMetadata(v value.Value) []envMeta {
	var out []envMeta
	var walk func(value.Value)
	walk = func(v value.Value) {
		switch t := v.(type) {
		case *value.Object:
			kindV, kindErr := value.GetField(t, "kind")
			apiErr := value.HasField(t, "apiVersion")
			if kindErr == nil && apiErr {
				if kindStr, ok := kindV.(value.String); ok && string(kindStr) == "Environment" {
					if meta, err := value.GetField(t, "metadata"); err == nil {
						if metaObj, ok := meta.(*value.Object); ok {
							if nameV, err := value.GetField(metaObj, "name"); err == nil {
								if nameStr, ok := nameV.(value.String); ok && nameStr != "" {
									m := envMeta{name: string(nameStr), labels: map[string]string{}}
									if specV, err := value.GetField(t, "spec"); err == nil {
										if specObj, ok := specV.(*value.Object); ok {
											if implV, err := value.GetField(specObj, "exportJsonnetImplementation"); err == nil {
												if implStr, ok := implV.(value.String); ok {
													m.exportImpl = string(implStr)
												}
											}
										}
									}
									if labelsV, err := value.GetField(metaObj, "labels"); err == nil {
										if labelsObj, ok := labelsV.(*value.Object); ok {
											for _, ln := range value.VisibleFields(labelsObj) {
												if lv, err := value.GetField(labelsObj, ln); err == nil {
													if ls, ok := lv.(value.String); ok {
														m.labels[ln] = string(ls)
													}
												}
											}
										}
									}
									out = append(out, m)
									return
								}
							}
						}
					}
				}
			}
			for _, name := range value.VisibleFields(t) {
				if fv, err := value.GetField(t, name); err == nil {
					walk(fv)
				}
			}
		case *value.Array:
			for _, el := range t.Elements {
				if ev, err := el.Force(); err == nil {
					walk(ev)
				}
			}
		}
	}
	walk(v)
	return out
}

