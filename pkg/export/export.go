// Package export orchestrates the full export pipeline (spec §4.H):
// discover environments, evaluate and extract their manifests, render
// filenames, serialize and write them to an output tree, and maintain
// an output manifest index mapping written files back to the
// environment that produced them. Grounded on the teacher's
// pkg/launcher (OS-thread-per-unit worker pool, fresh evaluator state
// per unit) and pkg/workflow (sequential-after-parallel phase
// structure), generalized from launching Kubernetes jobs to exporting
// Jsonnet environments.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/go-rtk/rtk/pkg/discover"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/filename"
	"github.com/go-rtk/rtk/pkg/logger"
	"github.com/go-rtk/rtk/pkg/spec"
	"github.com/go-rtk/rtk/pkg/stdlib"
	"github.com/go-rtk/rtk/pkg/value"
)

// MergeStrategy selects how an export interacts with a pre-existing
// output tree.
type MergeStrategy string

const (
	MergeNone             MergeStrategy = "none"
	MergeFailOnConflicts  MergeStrategy = "fail-on-conflicts"
	MergeReplaceEnvs      MergeStrategy = "replace-envs"
)

const defaultParallelism = 8

// Options configures one export run; field names and defaults mirror
// the options table in spec §4.H.
type Options struct {
	OutputDir        string
	Extension        string // "yaml" or "json"
	Format           string // filename template
	Parallelism      int
	Recursive        bool
	Name             string
	SkipManifest     bool
	MergeStrategy    MergeStrategy
	MergeDeletedEnvs []string

	TLAs    map[string]value.Value
	ExtVars map[string]value.Value
	Natives stdlib.Natives
	Logger  logger.Logger
}

// EnvResult is the outcome of exporting one discovered environment.
type EnvResult struct {
	ID      string
	Path    string
	Files   []string // relative paths written by this environment
	Err     error    // non-nil on an EnvError (this env's own failure)
	Skipped bool      // true when a prior Fatal error aborted the batch first
}

// Result is the aggregate outcome of one Export call.
type Result struct {
	Envs []EnvResult
	// FilesWritten maps every relative output path written this run to
	// the id of the environment that wrote it.
	FilesWritten map[string]string
	// Deleted lists relative paths removed because they were in the
	// previously-exported set but not rewritten this run.
	Deleted []string
}

// Export runs the full pipeline against paths. A Fatal condition (bad
// filename template, ambiguous discovery, export conflict, merge
// violation) returns a non-nil error and aborts immediately; a single
// environment's own failure (EnvError) is instead recorded on that
// environment's EnvResult and does not stop the others.
func Export(ctx context.Context, paths []string, opts Options) (*Result, error) {
	if opts.Parallelism <= 0 {
		opts.Parallelism = defaultParallelism
	}
	if opts.Extension == "" {
		opts.Extension = "yaml"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.MergeStrategy == "" {
		opts.MergeStrategy = MergeNone
	}

	if err := filename.Validate(opts.Format); err != nil {
		return nil, kureerrors.New(err, "validating filename template")
	}

	discovered, err := discover.Discover(paths, discover.Options{
		TLAs:    opts.TLAs,
		ExtVars: opts.ExtVars,
		Natives: opts.Natives,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	if len(discovered) > 1 && !opts.Recursive && opts.Name == "" {
		return nil, kureerrors.CreateError("multiple environments found; pass --recursive or filter with --name")
	}

	targets := FilterByName(discovered, opts.Name)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, kureerrors.New(err, "creating output directory")
	}
	if opts.MergeStrategy == MergeNone {
		empty, err := dirIsEmpty(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		if !empty {
			return nil, kureerrors.CreateError("output directory is not empty and merge_strategy is none")
		}
	}

	index, err := LoadIndex(indexPath(opts.OutputDir))
	if err != nil {
		return nil, err
	}

	var previouslyExported map[string]bool
	if opts.MergeStrategy == MergeReplaceEnvs {
		targetIDs := make([]string, 0, len(targets)+len(opts.MergeDeletedEnvs))
		for _, d := range targets {
			targetIDs = append(targetIDs, envID(d))
		}
		targetIDs = append(targetIDs, opts.MergeDeletedEnvs...)
		previouslyExported = previouslyExportedPaths(index, targetIDs)
	}

	results := make([]EnvResult, len(targets))
	var aborted atomic.Bool
	var fatalErr atomic.Value // holds error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, d := range targets {
		i, d := i, d
		g.Go(func() error {
			if aborted.Load() {
				results[i] = EnvResult{ID: envID(d), Path: d.Path, Skipped: true}
				return nil
			}
			res, fatal := processEnv(gctx, d, opts)
			if fatal != nil {
				aborted.Store(true)
				fatalErr.Store(fatal)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if v := fatalErr.Load(); v != nil {
		return nil, v.(error)
	}

	filesWritten := map[string]string{}
	for _, r := range results {
		if r.Skipped || r.Err != nil {
			continue
		}
		for _, path := range r.Files {
			if existing, ok := filesWritten[path]; ok && existing != r.ID {
				return nil, exportConflict(path, existing, r.ID)
			}
			filesWritten[path] = r.ID
			if owner, ok := index[path]; ok && owner != r.ID && !isTarget(targets, owner) {
				return nil, exportConflict(path, owner, r.ID)
			}
		}
	}

	var deleted []string
	if previouslyExported != nil {
		for path := range previouslyExported {
			if _, rewritten := filesWritten[path]; rewritten {
				continue
			}
			if err := os.Remove(filepath.Join(opts.OutputDir, filepath.FromSlash(path))); err == nil {
				deleted = append(deleted, path)
			}
		}
		removeEmptyDirs(opts.OutputDir)
	}
	sort.Strings(deleted)

	if !opts.SkipManifest {
		newIndex := map[string]string{}
		for path, id := range index {
			if _, wasDeleted := isDeleted(deleted, path); wasDeleted {
				continue
			}
			if _, ok := filesWritten[path]; !ok {
				newIndex[path] = id
			}
		}
		for path, id := range filesWritten {
			newIndex[path] = id
		}
		if err := WriteIndex(indexPath(opts.OutputDir), newIndex); err != nil {
			return nil, err
		}
	}

	return &Result{Envs: results, FilesWritten: filesWritten, Deleted: deleted}, nil
}

func exportConflict(path, ownerA, ownerB string) error {
	return fmt.Errorf("%w: %s written by both %q and %q", kureerrors.ErrExportConflict, path, ownerA, ownerB)
}

func isDeleted(deleted []string, path string) (int, bool) {
	for i, d := range deleted {
		if d == path {
			return i, true
		}
	}
	return -1, false
}

func isTarget(targets []spec.Discovered, id string) bool {
	for _, d := range targets {
		if envID(d) == id {
			return true
		}
	}
	return false
}

// FilterByName keeps only the discovered environments whose name or
// path contains name; an empty name keeps everything. Exported for
// cmd/rtk's diff, apply and eval commands, which apply the same
// --name filter before evaluation.
func FilterByName(discovered []spec.Discovered, name string) []spec.Discovered {
	if name == "" {
		return discovered
	}
	var out []spec.Discovered
	for _, d := range discovered {
		if strings.Contains(d.Name, name) || strings.Contains(d.Path, name) {
			out = append(out, d)
		}
	}
	return out
}

func dirIsEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, kureerrors.New(err, "reading output directory")
	}
	for _, e := range entries {
		if e.Name() == "manifest.json" {
			continue
		}
		return false, nil
	}
	return true, nil
}

// envID is the identifier previously-exported lookups and conflict
// detection key on: "path:name" when the discovered sub-environment has
// a name, otherwise the environment directory path.
func envID(d spec.Discovered) string {
	if d.Name != "" {
		return d.Path + ":" + d.Name
	}
	return d.Path
}

func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	// Deepest first so a parent empties out after its child is removed.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(d)
		}
	}
}
