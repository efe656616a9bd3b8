package diff

import (
	"bufio"
	"fmt"
	"strings"
)

// Diffstat pipes a unified diff through a histogram summarizer, the
// native equivalent of shelling out to `diffstat(1)` the way Tanka's
// `util.Diffstat` (gated by `DiffOpts.Summarize`) does (SPEC_FULL.md §5
// feature #2). It expects the concatenation of one or more unified
// diffs in the "--- a/x\n+++ b/x\n@@ ...\n..." form renderUnified
// produces, and reports per-file insertion/deletion counts plus a
// totals line.
func Diffstat(unifiedDiff string) (string, error) {
	type fileStat struct {
		name                  string
		insertions, deletions int
	}
	var stats []fileStat
	var current *fileStat

	scanner := bufio.NewScanner(strings.NewReader(unifiedDiff))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "--- "):
			stats = append(stats, fileStat{name: strings.TrimPrefix(line, "--- ")})
			current = &stats[len(stats)-1]
		case strings.HasPrefix(line, "+++ "):
			if current != nil && current.name == "/dev/null" {
				current.name = strings.TrimPrefix(line, "+++ ")
			}
		case strings.HasPrefix(line, "+"):
			if current != nil {
				current.insertions++
			}
		case strings.HasPrefix(line, "-"):
			if current != nil {
				current.deletions++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("diffstat: %w", err)
	}

	maxChanges := 0
	for _, s := range stats {
		if c := s.insertions + s.deletions; c > maxChanges {
			maxChanges = c
		}
	}

	const barWidth = 40
	var b strings.Builder
	var totalIns, totalDel int
	for _, s := range stats {
		total := s.insertions + s.deletions
		var bar string
		if maxChanges > 0 && total > 0 {
			scaled := total * barWidth / maxChanges
			if scaled == 0 {
				scaled = 1
			}
			plus := s.insertions * scaled / total
			bar = strings.Repeat("+", plus) + strings.Repeat("-", scaled-plus)
		}
		fmt.Fprintf(&b, " %s | %d %s\n", s.name, total, bar)
		totalIns += s.insertions
		totalDel += s.deletions
	}
	fmt.Fprintf(&b, " %d file(s) changed, %d insertion(+), %d deletion(-)\n", len(stats), totalIns, totalDel)
	return b.String(), nil
}
