package export

import (
	"encoding/json"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/kyaml"
)

// serializeManifest renders m in the configured output extension.
// "yaml" goes through pkg/kyaml for go-yaml.v3-compatible, Kubernetes-
// field-ordered output (spec §4.G); "json" uses plain indented JSON --
// this project has no spec'd JSON serializer, unlike the YAML one, so
// encoding/json's own (alphabetical) map-key order is used as-is rather
// than inventing a bespoke ordering rule for a format nobody specified.
func serializeManifest(m map[string]interface{}, extension string) ([]byte, error) {
	switch extension {
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, kureerrors.New(err, "serializing manifest as JSON")
		}
		return append(data, '\n'), nil
	default:
		return kyaml.Marshal(m, kyaml.Options{Indent: 2, KubernetesFieldOrder: true})
	}
}
