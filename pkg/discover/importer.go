package discover

import (
	"os"
	"path/filepath"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

// FileImporter resolves Jsonnet imports against the filesystem: relative
// to the importing file's directory first, then against each configured
// library path (in order), matching the original tool's jpath resolution
// (project-root `lib/` and `vendor/` directories alongside any paths the
// caller adds explicitly).
type FileImporter struct {
	LibPaths []string
}

// NewFileImporter builds an importer seeded with the environment
// directory itself plus lib/vendor directories found by walking upward
// from it to a jsonnetfile.json (or filesystem root).
func NewFileImporter(envDir string) *FileImporter {
	paths := []string{envDir}
	if root, ok := findProjectRoot(envDir); ok {
		for _, sub := range []string{"lib", "vendor"} {
			dir := filepath.Join(root, sub)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				paths = append(paths, dir)
			}
		}
	}
	return &FileImporter{LibPaths: paths}
}

func findProjectRoot(start string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		if _, err := os.Stat(filepath.Join(dir, "jsonnetfile.json")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (f *FileImporter) Resolve(fromFile, path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if fromFile != "" {
		candidate := filepath.Join(filepath.Dir(fromFile), path)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Clean(candidate), nil
		}
	}
	for _, lib := range f.LibPaths {
		candidate := filepath.Join(lib, path)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Clean(candidate), nil
		}
	}
	return "", kureerrors.New(kureerrors.ErrImportNotFound, path)
}

func (f *FileImporter) Read(canonical string) (string, error) {
	data, err := os.ReadFile(canonical)
	if err != nil {
		return "", kureerrors.New(err, "reading import "+canonical)
	}
	return string(data), nil
}

func (f *FileImporter) ReadBinary(canonical string) ([]byte, error) {
	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, kureerrors.New(err, "reading binary import "+canonical)
	}
	return data, nil
}
