package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/go-rtk/rtk/pkg/cmd/shared/options"
	"github.com/go-rtk/rtk/pkg/diff"
	"github.com/go-rtk/rtk/pkg/export"
)

// Printer formats the three result shapes the CLI produces: a raw
// manifest batch (eval/show), a diff batch, and an export run's
// outcome.
type Printer interface {
	PrintManifests(objs []client.Object, writer io.Writer) error
	PrintDiffs(diffs []diff.ResourceDiff, writer io.Writer) error
	PrintExportResult(res *export.Result, writer io.Writer) error
}

// ManifestsToObjects wraps the evaluator's plain manifests as
// client.Object so eval/show can reuse the same printers diff/export
// use, keeping one output-formatting surface for the whole CLI.
func ManifestsToObjects(manifests []map[string]interface{}) []client.Object {
	objs := make([]client.Object, len(manifests))
	for i, m := range manifests {
		objs[i] = &unstructured.Unstructured{Object: m}
	}
	return objs
}

// PrinterOptions mirrors the subset of GlobalOptions a printer reads.
type PrinterOptions struct {
	OutputFormat string
	NoHeaders    bool
}

// NewPrinter creates a new printer based on global options.
func NewPrinter(globalOpts *options.GlobalOptions) Printer {
	opts := PrinterOptions{
		OutputFormat: globalOpts.Output,
		NoHeaders:    globalOpts.NoHeaders,
	}

	switch globalOpts.Output {
	case "json":
		return &jsonPrinter{}
	case "table":
		return &tablePrinter{options: opts}
	case "name":
		return &namePrinter{}
	default:
		return &yamlPrinter{}
	}
}

type yamlPrinter struct{}

func (p *yamlPrinter) PrintManifests(objs []client.Object, writer io.Writer) error {
	for i, obj := range objs {
		if i > 0 {
			fmt.Fprintln(writer, "---")
		}
		data, err := yaml.Marshal(objectContent(obj))
		if err != nil {
			return fmt.Errorf("failed to marshal manifest to YAML: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("failed to write YAML: %w", err)
		}
	}
	return nil
}

func (p *yamlPrinter) PrintDiffs(diffs []diff.ResourceDiff, writer io.Writer) error {
	for i, d := range diffs {
		if i > 0 {
			fmt.Fprintln(writer, "---")
		}
		data, err := yaml.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal diff to YAML: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("failed to write YAML: %w", err)
		}
	}
	return nil
}

func (p *yamlPrinter) PrintExportResult(res *export.Result, writer io.Writer) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal export result to YAML: %w", err)
	}
	_, err = writer.Write(data)
	return err
}

type jsonPrinter struct{}

func (p *jsonPrinter) PrintManifests(objs []client.Object, writer io.Writer) error {
	if len(objs) == 0 {
		fmt.Fprint(writer, "[]\n")
		return nil
	}
	contents := make([]map[string]interface{}, len(objs))
	for i, obj := range objs {
		contents[i] = objectContent(obj)
	}
	return json.NewEncoder(writer).Encode(contents)
}

func (p *jsonPrinter) PrintDiffs(diffs []diff.ResourceDiff, writer io.Writer) error {
	if len(diffs) == 0 {
		fmt.Fprint(writer, "[]\n")
		return nil
	}
	return json.NewEncoder(writer).Encode(diffs)
}

func (p *jsonPrinter) PrintExportResult(res *export.Result, writer io.Writer) error {
	return json.NewEncoder(writer).Encode(res)
}

type tablePrinter struct {
	options PrinterOptions
}

func (p *tablePrinter) PrintManifests(objs []client.Object, writer io.Writer) error {
	if len(objs) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if !p.options.NoHeaders {
		fmt.Fprintln(w, joinTabs([]string{"KIND", "NAMESPACE", "NAME"}))
	}
	for _, obj := range objs {
		gvk := obj.GetObjectKind().GroupVersionKind()
		row := []string{gvk.Kind, obj.GetNamespace(), obj.GetName()}
		fmt.Fprintln(w, joinTabs(row))
	}
	return nil
}

func (p *tablePrinter) PrintDiffs(diffs []diff.ResourceDiff, writer io.Writer) error {
	if len(diffs) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if !p.options.NoHeaders {
		fmt.Fprintln(w, joinTabs([]string{"STATUS", "KIND", "NAMESPACE", "NAME"}))
	}
	for _, d := range diffs {
		row := []string{string(d.Status), d.GVK.Kind, d.Namespace, d.Name}
		fmt.Fprintln(w, joinTabs(row))
	}
	return nil
}

func (p *tablePrinter) PrintExportResult(res *export.Result, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if !p.options.NoHeaders {
		fmt.Fprintln(w, joinTabs([]string{"ENV", "STATUS", "FILES"}))
	}
	for _, e := range res.Envs {
		status := "ok"
		if e.Skipped {
			status = "skipped"
		} else if e.Err != nil {
			status = "error: " + e.Err.Error()
		}
		fmt.Fprintln(w, joinTabs([]string{e.ID, status, fmt.Sprintf("%d", len(e.Files))}))
	}
	return nil
}

type namePrinter struct{}

func (p *namePrinter) PrintManifests(objs []client.Object, writer io.Writer) error {
	for _, obj := range objs {
		gvk := obj.GetObjectKind().GroupVersionKind()
		fmt.Fprintf(writer, "%s/%s\n", gvk.Kind, obj.GetName())
	}
	return nil
}

func (p *namePrinter) PrintDiffs(diffs []diff.ResourceDiff, writer io.Writer) error {
	for _, d := range diffs {
		fmt.Fprintf(writer, "%s/%s\n", d.GVK.Kind, d.Name)
	}
	return nil
}

func (p *namePrinter) PrintExportResult(res *export.Result, writer io.Writer) error {
	paths := make([]string, 0, len(res.FilesWritten))
	for path := range res.FilesWritten {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintln(writer, path)
	}
	return nil
}

// objectContent unwraps the unstructured content ManifestsToObjects
// wraps manifests in, so printers marshal the manifest itself rather
// than the wrapper struct's reflected fields.
func objectContent(obj client.Object) map[string]interface{} {
	if u, ok := obj.(*unstructured.Unstructured); ok {
		return u.UnstructuredContent()
	}
	return map[string]interface{}{
		"kind": obj.GetObjectKind().GroupVersionKind().Kind,
		"metadata": map[string]interface{}{
			"name":      obj.GetName(),
			"namespace": obj.GetNamespace(),
		},
	}
}

func joinTabs(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for _, s := range strs[1:] {
		result += "\t" + s
	}
	return result
}

// PrintManifests is a convenience function for printing a raw manifest
// batch (used by the eval/show command).
func PrintManifests(manifests []map[string]interface{}, globalOpts *options.GlobalOptions, writer io.Writer) error {
	return NewPrinter(globalOpts).PrintManifests(ManifestsToObjects(manifests), writer)
}

// PrintDiffs is a convenience function for printing a diff batch.
func PrintDiffs(diffs []diff.ResourceDiff, globalOpts *options.GlobalOptions, writer io.Writer) error {
	return NewPrinter(globalOpts).PrintDiffs(diffs, writer)
}

// PrintExportResult is a convenience function for printing an export run's outcome.
func PrintExportResult(res *export.Result, globalOpts *options.GlobalOptions, writer io.Writer) error {
	return NewPrinter(globalOpts).PrintExportResult(res, writer)
}
