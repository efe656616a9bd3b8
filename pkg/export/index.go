package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

func indexPath(outputDir string) string {
	return filepath.Join(outputDir, "manifest.json")
}

// LoadIndex reads the output manifest index (relative path -> owning
// env id); a missing file is not an error, it just means no prior
// export has happened yet.
func LoadIndex(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, kureerrors.New(err, "reading output manifest index")
	}
	var index map[string]string
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, kureerrors.New(err, "parsing output manifest index")
	}
	return index, nil
}

// WriteIndex rewrites the output manifest index with sorted keys,
// 4-space indentation and a trailing newline, matching the original
// tool's own manifest.json formatting so a round trip with no changes
// leaves the file byte-identical.
func WriteIndex(path string, index map[string]string) error {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := orderedIndex{keys: keys, index: index}
	data, err := json.MarshalIndent(ordered, "", "    ")
	if err != nil {
		return kureerrors.New(err, "encoding output manifest index")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return kureerrors.New(err, "writing output manifest index")
	}
	return nil
}

// orderedIndex implements json.Marshaler to emit its keys in the
// pre-sorted order Go's map-keyed json.Marshal already produces --
// named explicitly here (rather than relying on encoding/json's own
// alphabetical map sort) so the sort order is documented as
// deliberate, not incidental.
type orderedIndex struct {
	keys  []string
	index map[string]string
}

func (o orderedIndex) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.index[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// previouslyExportedPaths returns the set of index paths owned by any
// of targetIDs -- the "previously-exported" set a replace-envs merge
// deletes from if not rewritten this run.
func previouslyExportedPaths(index map[string]string, targetIDs []string) map[string]bool {
	targets := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		targets[id] = true
	}
	out := map[string]bool{}
	for path, id := range index {
		if targets[id] {
			out[path] = true
		}
	}
	return out
}
