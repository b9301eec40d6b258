package extract

import (
	"strings"

	"bennypowers.dev/csslift/internal/collections"
)

// normalize floats sheets to the front without duplicates, merges adjacent
// unconditional items and drops repeated variables
func normalize(o *Output) *Output {
	out := &Output{}
	seenSheets := collections.NewSet[string]()
	var rest []Item
	for _, it := range o.CSS {
		switch it := it.(type) {
		case *Sheet:
			if seenSheets.Insert(it.CSS) {
				out.CSS = append(out.CSS, it)
			}
		case *Unconditional:
			if it.CSS == "" {
				continue
			}
			if n := len(rest); n > 0 {
				if prev, ok := rest[n-1].(*Unconditional); ok {
					rest[n-1] = &Unconditional{CSS: joinCSS(prev.CSS, it.CSS)}
					continue
				}
			}
			rest = append(rest, it)
		default:
			rest = append(rest, it)
		}
	}
	out.CSS = append(out.CSS, rest...)

	seenVars := collections.NewSet[string]()
	for _, v := range o.Variables {
		if seenVars.Insert(v.Name) {
			out.Variables = append(out.Variables, v)
		}
	}
	return out
}

// joinCSS concatenates two CSS fragments, terminating a trailing
// declaration that lacks its semicolon
func joinCSS(a, b string) string {
	a = strings.TrimRight(a, " \t\n")
	if a != "" && !strings.HasSuffix(a, ";") && !strings.HasSuffix(a, "}") && !strings.HasSuffix(a, "{") {
		a += ";"
	}
	return a + b
}
