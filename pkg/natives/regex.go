package natives

import (
	"regexp"
	"strings"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

func (r *Registry) escapeStringRegex(s string) (string, error) {
	return regexp.QuoteMeta(s), nil
}

func (r *Registry) regexMatch(pattern value.Value, s string) (value.Value, error) {
	ps, ok := pattern.(value.String)
	if !ok {
		return nil, kureerrors.CreateError("regexMatch: pattern must be a string")
	}
	re, err := regexp.Compile(string(ps))
	if err != nil {
		return nil, kureerrors.CreateError("invalid regex: " + err.Error())
	}
	return value.Bool(re.MatchString(s)), nil
}

func (r *Registry) regexSubst(pattern, s, repl string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", kureerrors.CreateError("invalid regex: " + err.Error())
	}
	// Jsonnet's regexSubst uses $1-style group refs like Go's ReplaceAll,
	// but accepts a bare backslash-digit form too; translate \N -> $N.
	goRepl := translateBackrefs(repl)
	return re.ReplaceAllString(s, goRepl), nil
}

func translateBackrefs(repl string) string {
	var b strings.Builder
	runes := []rune(repl)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9' {
			b.WriteString("${" + string(runes[i+1]) + "}")
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
