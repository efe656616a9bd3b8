package stdlib

import (
	"strings"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

func stdSubstr(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "substr")
	if err != nil {
		return nil, err
	}
	from, err := requireNumber(args[1], "substr")
	if err != nil {
		return nil, err
	}
	ln, err := requireNumber(args[2], "substr")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	start := int(from)
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := start + int(ln)
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return value.Intern(string(runes[start:end])), nil
}

func stdChar(args []*value.Thunk) (value.Value, error) {
	n, err := requireNumber(args[0], "char")
	if err != nil {
		return nil, err
	}
	return value.Intern(string(rune(int(n)))), nil
}

func stdCodepoint(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "codepoint")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return nil, kureerrors.CreateError("std.codepoint requires a single-character string")
	}
	return value.Number(float64(runes[0])), nil
}

func stdAsciiUpper(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "asciiUpper")
	if err != nil {
		return nil, err
	}
	return value.Intern(strings.ToUpper(s)), nil
}

func stdAsciiLower(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "asciiLower")
	if err != nil {
		return nil, err
	}
	return value.Intern(strings.ToLower(s)), nil
}

func stdJoin(args []*value.Thunk) (value.Value, error) {
	sepV, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "join")
	if err != nil {
		return nil, err
	}
	if sep, ok := sepV.(value.String); ok {
		parts := make([]string, 0, len(arr.Elements))
		for _, el := range arr.Elements {
			v, err := el.Force()
			if err != nil {
				return nil, err
			}
			if _, isNull := v.(value.Null); isNull {
				continue
			}
			s, ok := v.(value.String)
			if !ok {
				return nil, typeErr("join (element must be a string)")
			}
			parts = append(parts, string(s))
		}
		return value.Intern(strings.Join(parts, string(sep))), nil
	}
	sepArr, ok := sepV.(*value.Array)
	if !ok {
		return nil, typeErr("join")
	}
	var out []*value.Thunk
	first := true
	for _, el := range arr.Elements {
		v, err := el.Force()
		if err != nil {
			return nil, err
		}
		if _, isNull := v.(value.Null); isNull {
			continue
		}
		sub, ok := v.(*value.Array)
		if !ok {
			return nil, typeErr("join (element must be an array)")
		}
		if !first {
			out = append(out, sepArr.Elements...)
		}
		out = append(out, sub.Elements...)
		first = false
	}
	return &value.Array{Elements: out}, nil
}

func stdSplit(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "split")
	if err != nil {
		return nil, err
	}
	c, err := requireString(args[1], "split")
	if err != nil {
		return nil, err
	}
	return stringArray(strings.Split(s, c)), nil
}

func stdSplitLimit(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "splitLimit")
	if err != nil {
		return nil, err
	}
	c, err := requireString(args[1], "splitLimit")
	if err != nil {
		return nil, err
	}
	maxV, err := requireNumber(args[2], "splitLimit")
	if err != nil {
		return nil, err
	}
	limit := int(maxV)
	if limit < 0 {
		return stringArray(strings.Split(s, c)), nil
	}
	return stringArray(strings.SplitN(s, c, limit+1)), nil
}

func stdStrReplace(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "strReplace")
	if err != nil {
		return nil, err
	}
	from, err := requireString(args[1], "strReplace")
	if err != nil {
		return nil, err
	}
	to, err := requireString(args[2], "strReplace")
	if err != nil {
		return nil, err
	}
	return value.Intern(strings.ReplaceAll(s, from, to)), nil
}

func stdLstripChars(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "lstripChars")
	if err != nil {
		return nil, err
	}
	chars, err := requireString(args[1], "lstripChars")
	if err != nil {
		return nil, err
	}
	return value.Intern(strings.TrimLeft(s, chars)), nil
}

func stdRstripChars(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "rstripChars")
	if err != nil {
		return nil, err
	}
	chars, err := requireString(args[1], "rstripChars")
	if err != nil {
		return nil, err
	}
	return value.Intern(strings.TrimRight(s, chars)), nil
}

func stdStripChars(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "stripChars")
	if err != nil {
		return nil, err
	}
	chars, err := requireString(args[1], "stripChars")
	if err != nil {
		return nil, err
	}
	return value.Intern(strings.Trim(s, chars)), nil
}

func stdStartsWith(args []*value.Thunk) (value.Value, error) {
	a, err := requireString(args[0], "startsWith")
	if err != nil {
		return nil, err
	}
	b, err := requireString(args[1], "startsWith")
	if err != nil {
		return nil, err
	}
	return value.Bool(strings.HasPrefix(a, b)), nil
}

func stdEndsWith(args []*value.Thunk) (value.Value, error) {
	a, err := requireString(args[0], "endsWith")
	if err != nil {
		return nil, err
	}
	b, err := requireString(args[1], "endsWith")
	if err != nil {
		return nil, err
	}
	return value.Bool(strings.HasSuffix(a, b)), nil
}

// stdFormat implements a practical subset of std.format's printf-style
// directives (%s %d %f %g %x %%), sufficient for the manifest templates
// this tool renders; unsupported verbs fall back to %v-style rendering
// via ManifestJSON.
func stdFormat(args []*value.Thunk) (value.Value, error) {
	format, err := requireString(args[0], "format")
	if err != nil {
		return nil, err
	}
	v, err := args[1].Force()
	if err != nil {
		return nil, err
	}
	var vals []value.Value
	if arr, ok := v.(*value.Array); ok {
		for _, el := range arr.Elements {
			ev, err := el.Force()
			if err != nil {
				return nil, err
			}
			vals = append(vals, ev)
		}
	} else {
		vals = []value.Value{v}
	}

	var b strings.Builder
	vi := 0
	next := func() value.Value {
		if vi >= len(vals) {
			return value.Null{}
		}
		val := vals[vi]
		vi++
		return val
	}
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '%' {
			b.WriteRune(c)
			continue
		}
		i++
		if i >= len(runes) {
			break
		}
		verb := runes[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		arg := next()
		switch verb {
		case 's':
			b.WriteString(formatAsString(arg))
		case 'd':
			n, _ := arg.(value.Number)
			b.WriteString(formatNumber(float64(int64(n))))
		case 'f', 'g':
			n, _ := arg.(value.Number)
			b.WriteString(formatNumber(float64(n)))
		case 'x':
			n, _ := arg.(value.Number)
			b.WriteString(strings.ToLower(formatHex(int64(n))))
		default:
			b.WriteString(formatAsString(arg))
		}
	}
	return value.Intern(b.String()), nil
}

func formatAsString(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	s, err := ManifestJSON(v, "")
	if err != nil {
		return ""
	}
	return s
}

func formatHex(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	digits := "0123456789abcdef"
	var b []byte
	for n > 0 {
		b = append([]byte{digits[n%16]}, b...)
		n /= 16
	}
	if neg {
		return "-" + string(b)
	}
	return string(b)
}
