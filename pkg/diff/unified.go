package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

const contextLines = 3

// renderUnified builds a standard unified diff with "a/<header>" and
// "b/<header>" paths; /dev/null substitutes for the missing side of an
// Added/Deleted resource, exactly as spec.md's Output Formats section
// describes.
func renderUnified(d ResourceDiff, current, desired string) (string, error) {
	fromFile := "a/" + d.Header()
	toFile := "b/" + d.Header()
	if current == "" {
		fromFile = "/dev/null"
	}
	if desired == "" {
		toFile = "/dev/null"
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(current),
		B:        difflib.SplitLines(desired),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  contextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff: rendering unified diff for %s: %w", d.Header(), err)
	}
	return text, nil
}
