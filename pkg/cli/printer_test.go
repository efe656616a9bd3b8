package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
	"github.com/go-rtk/rtk/pkg/diff"
	"github.com/go-rtk/rtk/pkg/export"
)

func sampleDiffs() []diff.ResourceDiff {
	return []diff.ResourceDiff{
		{
			GVK:       schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"},
			Namespace: "default",
			Name:      "web",
			Status:    diff.StatusChanged,
			Unified:   "--- old\n+++ new\n",
		},
	}
}

func TestNewPrinter_SelectsImplementationByFormat(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"yaml", "*cli.yamlPrinter"},
		{"json", "*cli.jsonPrinter"},
		{"table", "*cli.tablePrinter"},
		{"name", "*cli.namePrinter"},
		{"", "*cli.yamlPrinter"},
	}
	for _, tt := range tests {
		globalOpts := &options.GlobalOptions{Output: tt.output}
		p := NewPrinter(globalOpts)
		if got := typeName(p); got != tt.want {
			t.Errorf("output=%q: got printer type %s, want %s", tt.output, got, tt.want)
		}
	}
}

func typeName(p Printer) string {
	switch p.(type) {
	case *yamlPrinter:
		return "*cli.yamlPrinter"
	case *jsonPrinter:
		return "*cli.jsonPrinter"
	case *tablePrinter:
		return "*cli.tablePrinter"
	case *namePrinter:
		return "*cli.namePrinter"
	default:
		return "unknown"
	}
}

func TestYAMLPrinterPrintDiffs(t *testing.T) {
	var buf bytes.Buffer
	if err := (&yamlPrinter{}).PrintDiffs(sampleDiffs(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: web") {
		t.Errorf("expected YAML output to contain the diff's name, got %q", buf.String())
	}
}

func TestJSONPrinterPrintDiffs(t *testing.T) {
	var buf bytes.Buffer
	if err := (&jsonPrinter{}).PrintDiffs(sampleDiffs(), &buf); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON array, got %q: %v", buf.String(), err)
	}
	if len(decoded) != 1 || decoded[0]["Name"] != "web" {
		t.Fatalf("unexpected decoded JSON: %+v", decoded)
	}
}

func TestJSONPrinterPrintDiffsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&jsonPrinter{}).PrintDiffs(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", buf.String())
	}
}

func TestTablePrinterPrintDiffs(t *testing.T) {
	var buf bytes.Buffer
	p := &tablePrinter{options: PrinterOptions{}}
	if err := p.PrintDiffs(sampleDiffs(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "STATUS") || !strings.Contains(out, "web") {
		t.Errorf("expected table header and row, got %q", out)
	}
}

func TestTablePrinterPrintDiffsNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	p := &tablePrinter{options: PrinterOptions{NoHeaders: true}}
	if err := p.PrintDiffs(sampleDiffs(), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "STATUS") {
		t.Errorf("expected no header row, got %q", buf.String())
	}
}

func TestNamePrinterPrintDiffs(t *testing.T) {
	var buf bytes.Buffer
	if err := (&namePrinter{}).PrintDiffs(sampleDiffs(), &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "Deployment/web\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func sampleExportResult() *export.Result {
	return &export.Result{
		Envs: []export.EnvResult{
			{ID: "env-a", Files: []string{"ConfigMap-c.yaml"}},
			{ID: "env-b", Skipped: true},
		},
		FilesWritten: map[string]string{"ConfigMap-c.yaml": "env-a"},
	}
}

func TestNamePrinterPrintExportResultSortsPaths(t *testing.T) {
	res := &export.Result{FilesWritten: map[string]string{
		"b.yaml": "env",
		"a.yaml": "env",
	}}
	var buf bytes.Buffer
	if err := (&namePrinter{}).PrintExportResult(res, &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "a.yaml\nb.yaml\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTablePrinterPrintExportResult(t *testing.T) {
	var buf bytes.Buffer
	p := &tablePrinter{options: PrinterOptions{}}
	if err := p.PrintExportResult(sampleExportResult(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "env-a") || !strings.Contains(out, "skipped") {
		t.Errorf("expected table rows for both environments, got %q", out)
	}
}

func TestJSONPrinterPrintExportResult(t *testing.T) {
	var buf bytes.Buffer
	if err := (&jsonPrinter{}).PrintExportResult(sampleExportResult(), &buf); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON object, got %q: %v", buf.String(), err)
	}
}

func TestPrintDiffsConvenienceFunction(t *testing.T) {
	var buf bytes.Buffer
	globalOpts := &options.GlobalOptions{Output: "name"}
	if err := PrintDiffs(sampleDiffs(), globalOpts, &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "Deployment/web\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintExportResultConvenienceFunction(t *testing.T) {
	var buf bytes.Buffer
	globalOpts := &options.GlobalOptions{Output: "json"}
	if err := PrintExportResult(sampleExportResult(), globalOpts, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "env-a") {
		t.Errorf("expected JSON output to contain env-a, got %q", buf.String())
	}
}

func sampleManifests() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"apiVersion": "v1",
			"kind":       "ConfigMap",
			"metadata":   map[string]interface{}{"name": "c", "namespace": "default"},
		},
	}
}

func TestManifestsToObjectsRoundTripsContent(t *testing.T) {
	objs := ManifestsToObjects(sampleManifests())
	if len(objs) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objs))
	}
	if objs[0].GetName() != "c" {
		t.Errorf("expected name 'c', got %s", objs[0].GetName())
	}
	if objs[0].GetObjectKind().GroupVersionKind().Kind != "ConfigMap" {
		t.Errorf("expected kind ConfigMap, got %s", objs[0].GetObjectKind().GroupVersionKind().Kind)
	}
}

func TestYAMLPrinterPrintManifests(t *testing.T) {
	var buf bytes.Buffer
	objs := ManifestsToObjects(sampleManifests())
	if err := (&yamlPrinter{}).PrintManifests(objs, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: c") {
		t.Errorf("expected YAML output to contain the manifest's name, got %q", buf.String())
	}
}

func TestJSONPrinterPrintManifestsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&jsonPrinter{}).PrintManifests(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", buf.String())
	}
}

func TestTablePrinterPrintManifests(t *testing.T) {
	var buf bytes.Buffer
	p := &tablePrinter{options: PrinterOptions{}}
	objs := ManifestsToObjects(sampleManifests())
	if err := p.PrintManifests(objs, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "KIND") || !strings.Contains(out, "c") {
		t.Errorf("expected table header and row, got %q", out)
	}
}

func TestNamePrinterPrintManifests(t *testing.T) {
	var buf bytes.Buffer
	objs := ManifestsToObjects(sampleManifests())
	if err := (&namePrinter{}).PrintManifests(objs, &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "ConfigMap/c\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintManifestsConvenienceFunction(t *testing.T) {
	var buf bytes.Buffer
	globalOpts := &options.GlobalOptions{Output: "name"}
	if err := PrintManifests(sampleManifests(), globalOpts, &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "ConfigMap/c\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
