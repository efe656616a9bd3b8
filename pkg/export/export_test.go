package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeStaticEnv(t *testing.T, dir, namespace, manifestBody string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "main.jsonnet"), manifestBody)
	writeFile(t, filepath.Join(dir, "spec.json"), `{"apiVersion":"rtk.dev/v1alpha1","kind":"Environment","metadata":{"name":"env"},"spec":{"namespace":"`+namespace+`"}}`)
}

const configMapBody = `{
  "apiVersion": "v1",
  "kind": "ConfigMap",
  "metadata": { "name": "c" },
  "data": { "k": "v" }
}`

func TestExportSimpleStaticEnvironment(t *testing.T) {
	root := t.TempDir()
	envDir := filepath.Join(root, "env")
	writeStaticEnv(t, envDir, "default", configMapBody)

	outDir := filepath.Join(root, "out")
	res, err := Export(context.Background(), []string{envDir}, Options{
		OutputDir: outDir,
		Format:    "{{.kind}}-{{.metadata.name}}",
		Extension: "yaml",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.FilesWritten) != 1 {
		t.Fatalf("expected exactly one file written, got %+v", res.FilesWritten)
	}

	wantPath := "ConfigMap-c.yaml"
	data, err := os.ReadFile(filepath.Join(outDir, wantPath))
	if err != nil {
		t.Fatalf("expected %s to exist: %v", wantPath, err)
	}
	if !strings.Contains(string(data), "kind: ConfigMap") {
		t.Fatalf("expected rendered YAML to contain the manifest, got %q", data)
	}

	index, err := LoadIndex(indexPath(outDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(index) != 1 {
		t.Fatalf("expected manifest.json to have one entry, got %+v", index)
	}
	if _, ok := index[wantPath]; !ok {
		t.Fatalf("expected manifest.json to map %s, got %+v", wantPath, index)
	}
}

func TestExportRoundTripIsByteIdenticalOnNoChanges(t *testing.T) {
	root := t.TempDir()
	envDir := filepath.Join(root, "env")
	writeStaticEnv(t, envDir, "default", configMapBody)

	outDir := filepath.Join(root, "out")
	opts := Options{OutputDir: outDir, Format: "{{.kind}}-{{.metadata.name}}", Extension: "yaml", MergeStrategy: MergeReplaceEnvs}

	if _, err := Export(context.Background(), []string{envDir}, opts); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(filepath.Join(outDir, "ConfigMap-c.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	indexBefore, err := os.ReadFile(indexPath(outDir))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Export(context.Background(), []string{envDir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Deleted) != 0 {
		t.Fatalf("expected nothing deleted on an unchanged re-export, got %+v", res.Deleted)
	}

	after, err := os.ReadFile(filepath.Join(outDir, "ConfigMap-c.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatalf("expected byte-identical re-export, before=%q after=%q", before, after)
	}
	indexAfter, err := os.ReadFile(indexPath(outDir))
	if err != nil {
		t.Fatal(err)
	}
	if string(indexBefore) != string(indexAfter) {
		t.Fatalf("expected byte-identical manifest.json, before=%q after=%q", indexBefore, indexAfter)
	}
}

func TestExportConflictBetweenTwoEnvironments(t *testing.T) {
	root := t.TempDir()
	envA := filepath.Join(root, "a")
	envB := filepath.Join(root, "b")
	writeStaticEnv(t, envA, "default", configMapBody)
	writeStaticEnv(t, envB, "default", configMapBody)

	outDir := filepath.Join(root, "out")
	_, err := Export(context.Background(), []string{envA, envB}, Options{
		OutputDir: outDir,
		Format:    "{{.kind}}-{{.metadata.name}}",
		Extension: "yaml",
		Recursive: true,
	})
	if err == nil {
		t.Fatal("expected a conflict error when two environments write the same path")
	}
	if !errors.Is(err, kureerrors.ErrExportConflict) {
		t.Fatalf("expected ErrExportConflict, got %v", err)
	}
}

func TestExportMergeNoneRejectsNonEmptyOutputDir(t *testing.T) {
	root := t.TempDir()
	envDir := filepath.Join(root, "env")
	writeStaticEnv(t, envDir, "default", configMapBody)

	outDir := filepath.Join(root, "out")
	writeFile(t, filepath.Join(outDir, "stale.yaml"), "stale: true\n")

	_, err := Export(context.Background(), []string{envDir}, Options{
		OutputDir: outDir,
		Format:    "{{.kind}}-{{.metadata.name}}",
		Extension: "yaml",
	})
	if err == nil {
		t.Fatal("expected merge_strategy=none to reject a non-empty output directory")
	}
}

func TestExportReplaceEnvsDeletesStaleFiles(t *testing.T) {
	root := t.TempDir()
	envDir := filepath.Join(root, "env")
	writeStaticEnv(t, envDir, "default", configMapBody)

	outDir := filepath.Join(root, "out")
	opts := Options{OutputDir: outDir, Format: "{{.metadata.namespace}}/{{.kind}}-{{.metadata.name}}", Extension: "yaml", MergeStrategy: MergeReplaceEnvs}
	if _, err := Export(context.Background(), []string{envDir}, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "default", "ConfigMap-c.yaml")); err != nil {
		t.Fatalf("expected first export to land under default/: %v", err)
	}

	// Same environment, new manifest name -- the old file should be swept
	// away and the renamed one written beside it under "default".
	writeFile(t, filepath.Join(envDir, "main.jsonnet"), `{
  "apiVersion": "v1",
  "kind": "ConfigMap",
  "metadata": { "name": "renamed" },
  "data": { "k": "v" }
}`)

	res, err := Export(context.Background(), []string{envDir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != filepath.ToSlash(filepath.Join("default", "ConfigMap-c.yaml")) {
		t.Fatalf("expected the stale file to be listed as deleted, got %+v", res.Deleted)
	}
	if _, err := os.Stat(filepath.Join(outDir, "default", "ConfigMap-c.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected stale file to be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "default", "ConfigMap-renamed.yaml")); err != nil {
		t.Fatalf("expected renamed file to exist: %v", err)
	}
}

func TestExportAmbiguousDiscoveryWithoutRecursiveOrName(t *testing.T) {
	root := t.TempDir()
	writeStaticEnv(t, filepath.Join(root, "a"), "default", configMapBody)
	writeStaticEnv(t, filepath.Join(root, "b"), "default", configMapBody)

	_, err := Export(context.Background(), []string{filepath.Join(root, "a"), filepath.Join(root, "b")}, Options{
		OutputDir: filepath.Join(root, "out"),
		Format:    "{{.kind}}-{{.metadata.name}}",
		Extension: "yaml",
	})
	if err == nil {
		t.Fatal("expected ambiguous discovery (two environments, no --recursive/--name) to fail fast")
	}
}

func TestExportFailsFastOnBadFilenameTemplate(t *testing.T) {
	root := t.TempDir()
	envDir := filepath.Join(root, "env")
	writeStaticEnv(t, envDir, "default", configMapBody)

	_, err := Export(context.Background(), []string{envDir}, Options{
		OutputDir: filepath.Join(root, "out"),
		Format:    "{{range .items}}{{.}}{{end}}",
		Extension: "yaml",
	})
	if err == nil {
		t.Fatal("expected a range-using filename template to be rejected before any environment is evaluated")
	}
}
