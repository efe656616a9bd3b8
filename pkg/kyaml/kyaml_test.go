package kyaml

import (
	"strings"
	"testing"
)

func TestMarshalKubernetesFieldOrder(t *testing.T) {
	doc := map[string]interface{}{
		"status":     map[string]interface{}{"ready": true},
		"kind":       "Deployment",
		"apiVersion": "apps/v1",
		"metadata":   map[string]interface{}{"name": "web"},
	}
	out, err := Marshal(doc, Options{KubernetesFieldOrder: true})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	iAPI := strings.Index(s, "apiVersion")
	iKind := strings.Index(s, "kind")
	iMeta := strings.Index(s, "metadata")
	iStatus := strings.Index(s, "status")
	if !(iAPI < iKind && iKind < iMeta && iMeta < iStatus) {
		t.Fatalf("unexpected field order:\n%s", s)
	}
}

func TestMarshalIntegerFloat(t *testing.T) {
	out, err := Marshal(map[string]interface{}{"port": float64(8080)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "port: 8080\n") {
		t.Fatalf("expected integer rendering, got %q", out)
	}
}

func TestNaturalLess(t *testing.T) {
	cases := []struct{ a, b string }{
		{"item2", "item10"},
		{"a", "b"},
		{"k8s", "k9s"},
	}
	for _, c := range cases {
		if !naturalLess(c.a, c.b) {
			t.Errorf("expected %q < %q", c.a, c.b)
		}
		if naturalLess(c.b, c.a) {
			t.Errorf("expected %q !< %q", c.b, c.a)
		}
	}
}

func TestNeedsQuote(t *testing.T) {
	for _, s := range []string{"true", "null", "123", "-1", "yes", ""} {
		if !needsQuote(s) {
			t.Errorf("expected %q to need quoting", s)
		}
	}
	for _, s := range []string{"hello", "web-app", "default"} {
		if needsQuote(s) {
			t.Errorf("did not expect %q to need quoting", s)
		}
	}
}
