package config

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/go-rtk/rtk/pkg/value"
)

func TestParseTLAsEmpty(t *testing.T) {
	v := &VarFlags{}
	got, err := v.ParseTLAs()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil map for no flags, got %v", got)
	}
}

func TestParseTLAsParsesKeyValue(t *testing.T) {
	v := &VarFlags{TLAStr: []string{"env=prod", "region=us-east-1"}}
	got, err := v.ParseTLAs()
	if err != nil {
		t.Fatal(err)
	}
	if got["env"] != value.String("prod") {
		t.Errorf("expected env=prod, got %v", got["env"])
	}
	if got["region"] != value.String("us-east-1") {
		t.Errorf("expected region=us-east-1, got %v", got["region"])
	}
}

func TestParseTLAsRejectsMissingEquals(t *testing.T) {
	v := &VarFlags{TLAStr: []string{"noequals"}}
	if _, err := v.ParseTLAs(); err == nil {
		t.Fatal("expected error for malformed pair")
	}
}

func TestParseTLAsRejectsCode(t *testing.T) {
	v := &VarFlags{TLACode: []string{"env=std.extVar('x')"}}
	if _, err := v.ParseTLAs(); err == nil {
		t.Fatal("expected --tla-code to be rejected")
	}
}

func TestParseExtVarsParsesKeyValue(t *testing.T) {
	v := &VarFlags{ExtStr: []string{"token=abc"}}
	got, err := v.ParseExtVars()
	if err != nil {
		t.Fatal(err)
	}
	if got["token"] != value.String("abc") {
		t.Errorf("expected token=abc, got %v", got["token"])
	}
}

func TestAddVarFlagsRegistersAllFour(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	v := &VarFlags{}
	AddVarFlags(flags, v)

	for _, name := range []string{"tla-str", "tla-code", "ext-str", "ext-code"} {
		if flags.Lookup(name) == nil {
			t.Errorf("expected flag %q to be registered", name)
		}
	}
}
