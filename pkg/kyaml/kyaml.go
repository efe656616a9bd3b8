// Package kyaml serializes the plain Go data produced by pkg/stdlib.ToGo
// (map[string]interface{} / []interface{} / scalars) to YAML text that
// matches go-yaml.v3's own rendering conventions: keys sorted with a
// natural-sort tie-break, integer-valued floats rendered without a
// decimal point, and an optional Kubernetes top-level field order.
// Grounded on the teacher's pkg/io/order.go (key ordering, float
// rendering) and pkg/io/yaml.go (encoder wiring).
package kyaml

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Options controls key ordering and indentation. export uses Indent 2;
// std.manifestYamlDoc uses Indent 4 to match jsonnet's own default.
type Options struct {
	Indent int
	// KubernetesFieldOrder emits apiVersion/kind/metadata/spec/... first
	// and status last at the top level; all other levels sort naturally.
	KubernetesFieldOrder bool
}

var kubernetesKeyPriority = map[string]int{
	"apiVersion": 0,
	"kind":       1,
	"metadata":   2,
	"spec":       3,
	"data":       4,
	"stringData": 5,
	"type":       6,
}

const (
	priorityDefault = 100
	priorityStatus  = 999
)

// Marshal renders v (the root of a document) as YAML bytes.
func Marshal(v interface{}, opts Options) ([]byte, error) {
	if opts.Indent == 0 {
		opts.Indent = 2
	}
	node := toNode(v, opts, true)
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(opts.Indent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("kyaml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("kyaml: close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalStream renders docs as a `---`-separated multi-document stream.
func MarshalStream(docs []interface{}, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	for i, d := range docs {
		out, err := Marshal(d, opts)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

func toNode(v interface{}, opts Options, topLevel bool) *yaml.Node {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: "null", Tag: "!!null"}
	case bool:
		s := "false"
		if val {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Value: s, Tag: "!!bool"}
	case float64:
		return numberNode(val)
	case string:
		return stringNode(val)
	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		if len(val) == 0 {
			node.Style = yaml.FlowStyle
		}
		for _, item := range val {
			node.Content = append(node.Content, toNode(item, opts, false))
		}
		return node
	case map[string]interface{}:
		node := &yaml.Node{Kind: yaml.MappingNode}
		if len(val) == 0 {
			node.Style = yaml.FlowStyle
		}
		for _, k := range sortedKeys(val, topLevel && opts.KubernetesFieldOrder) {
			node.Content = append(node.Content,
				stringNode(k),
				toNode(val[k], opts, false))
		}
		return node
	default:
		return stringNode(fmt.Sprintf("%v", val))
	}
}

func numberNode(f float64) *yaml.Node {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) < 1e15 {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatInt(int64(f), 10), Tag: "!!int"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(f, 'g', -1, 64), Tag: "!!float"}
}

func stringNode(s string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode, Value: s, Tag: "!!str"}
	if needsQuote(s) {
		node.Style = yaml.DoubleQuotedStyle
	} else if strings.Contains(s, "\n") {
		node.Style = yaml.LiteralStyle
	}
	return node
}

var looksNumeric = regexp.MustCompile(`^[-+]?(\.inf|\.nan|[0-9][0-9_]*(\.[0-9]+)?([eE][-+]?[0-9]+)?)$`)

// ambiguousScalars are strings that YAML 1.1 would otherwise parse as a
// non-string type; they must be quoted to round-trip as strings.
var ambiguousScalars = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true, "on": true, "off": true,
	"True": true, "False": true, "Yes": true, "No": true, "On": true, "Off": true,
	"TRUE": true, "FALSE": true, "YES": true, "NO": true, "ON": true, "OFF": true,
	"null": true, "Null": true, "NULL": true, "~": true, "": true,
}

func needsQuote(s string) bool {
	if ambiguousScalars[s] {
		return true
	}
	if looksNumeric.MatchString(s) {
		return true
	}
	switch s[0] {
	case '!', '&', '*', '?', '|', '>', '%', '@', '`', '"', '\'', '#', ' ', '-', ':', '[', ']', '{', '}', ',':
		return true
	}
	if strings.HasSuffix(s, " ") {
		return true
	}
	if strings.Contains(s, ": ") || strings.HasSuffix(s, ":") || strings.Contains(s, " #") {
		return true
	}
	return false
}

// sortedKeys returns m's keys in natural-sort order, falling back to
// Kubernetes top-level priority when useK8sOrder is true.
func sortedKeys(m map[string]interface{}, useK8sOrder bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if useK8sOrder {
		sort.Slice(keys, func(i, j int) bool {
			pi, pj := keyPriority(keys[i]), keyPriority(keys[j])
			if pi != pj {
				return pi < pj
			}
			return naturalLess(keys[i], keys[j])
		})
		return keys
	}
	sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
	return keys
}

func keyPriority(key string) int {
	if key == "status" {
		return priorityStatus
	}
	if p, ok := kubernetesKeyPriority[key]; ok {
		return p
	}
	return priorityDefault
}

// naturalLess implements go-yaml.v3's own key comparison (sorter.go):
// letters compare case-sensitively, numeric runs compare by value with
// leading-zero awareness, and a digit run immediately before a
// letter/non-letter split decides which side wins. Ported rune-by-rune
// rather than run-split, matching sorter.go's own single-pass structure
// exactly instead of approximating it with a digit/non-digit split.
func naturalLess(a, b string) bool {
	return compareKeys(a, b) < 0
}

func compareKeys(a, b string) int {
	ar, br := []rune(a), []rune(b)
	digits := false
	minLen := len(ar)
	if len(br) < minLen {
		minLen = len(br)
	}

	for i := 0; i < minLen; i++ {
		if ar[i] == br[i] {
			digits = isASCIIDigit(ar[i])
			continue
		}

		al, bl := isLetter(ar[i]), isLetter(br[i])
		if al && bl {
			return runeCompare(ar[i], br[i])
		}
		if al || bl {
			if digits {
				if al {
					return -1
				}
				return 1
			}
			if bl {
				return -1
			}
			return 1
		}

		// both non-letters: compare as numeric sequences starting at i
		var an, bn int64
		if ar[i] == '0' || br[i] == '0' {
			j := i
			for j > 0 && isASCIIDigit(ar[j-1]) {
				j--
				if ar[j] != '0' {
					an, bn = 1, 1
					break
				}
			}
		}

		ai := i
		for ai < len(ar) && isASCIIDigit(ar[ai]) {
			an = an*10 + int64(ar[ai]-'0')
			ai++
		}
		bi := i
		for bi < len(br) && isASCIIDigit(br[bi]) {
			bn = bn*10 + int64(br[bi]-'0')
			bi++
		}

		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
		return runeCompare(ar[i], br[i])
	}

	if len(ar) < len(br) {
		return -1
	}
	if len(ar) > len(br) {
		return 1
	}
	return 0
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		unicode.IsLetter(r)
}

func runeCompare(a, b rune) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
