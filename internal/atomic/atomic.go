// Package atomic splits CSS into one rule per declaration. Every rule gets a
// class token `_GGGGVVVV`: the group hash covers the at-rules, selector and
// property the declaration governs, the value hash covers its value.
package atomic

import (
	"strings"

	"bennypowers.dev/csslift/ax"
	"bennypowers.dev/csslift/internal/hash"
	"bennypowers.dev/csslift/internal/parser/css"
)

const (
	groupWidth = 4
	valueWidth = 4
	nesting    = "&"
)

// Rule is a single atomic rule
type Rule struct {
	// Class is the full token, e.g. _1x2y3z4w
	Class string
	// Group is the token's group key, e.g. _1x2y
	Group     string
	Selector  string
	AtRules   []string
	Property  string
	Value     string
	Important bool
	// CSS is the serialized rule, at-rules outermost
	CSS string
}

// Stylesheet is the atomized form of one CSS text
type Stylesheet struct {
	Rules []*Rule
	// Sheets are rules passed through verbatim, such as @keyframes
	Sheets []string
}

// Classes returns the class tokens of the stylesheet, merged so that the last
// declaration of every group wins
func (s *Stylesheet) Classes() string {
	classes := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		classes = append(classes, r.Class)
	}
	return ax.Merge(strings.Join(classes, " "))
}

// CSS returns every rule and sheet, one per line, without duplicates
func (s *Stylesheet) CSS() []string {
	seen := map[string]bool{}
	var out []string
	for _, sheet := range s.Sheets {
		if !seen[sheet] {
			seen[sheet] = true
			out = append(out, sheet)
		}
	}
	for _, r := range s.Rules {
		if !seen[r.CSS] {
			seen[r.CSS] = true
			out = append(out, r.CSS)
		}
	}
	return out
}

// Atomize parses a declaration block (possibly with nested rules and
// at-rules) and returns one atomic rule per declaration
func Atomize(block string) (*Stylesheet, error) {
	parsed, err := css.ParseBlock(block)
	if err != nil {
		return nil, err
	}
	return FromResult(parsed), nil
}

// FromResult atomizes an already parsed block
func FromResult(parsed *css.ParseResult) *Stylesheet {
	s := &Stylesheet{Sheets: parsed.Passthrough}
	for _, d := range parsed.Declarations {
		s.Rules = append(s.Rules, NewRule(d.AtRules, d.Selectors, d.Property, d.Value, d.Important))
	}
	return s
}

// NewRule builds the atomic rule for one declaration. selectors is the chain
// of nested selectors, outermost first.
func NewRule(atRules, selectors []string, property, value string, important bool) *Rule {
	selector := ExpandSelectors(selectors)
	group := "_" + hash.Fixed(strings.Join(atRules, "")+selector+property, groupWidth)
	v := value
	if important {
		v += "!important"
	}
	class := group + hash.Fixed(v, valueWidth)

	r := &Rule{
		Class:     class,
		Group:     group,
		Selector:  strings.ReplaceAll(selector, nesting, "."+class),
		AtRules:   atRules,
		Property:  property,
		Value:     value,
		Important: important,
	}
	r.CSS = r.serialize()
	return r
}

func (r *Rule) serialize() string {
	var sb strings.Builder
	sb.WriteString(r.Selector)
	sb.WriteByte('{')
	sb.WriteString(r.Property)
	sb.WriteByte(':')
	sb.WriteString(r.Value)
	if r.Important {
		sb.WriteString("!important")
	}
	sb.WriteByte('}')
	out := sb.String()
	for i := len(r.AtRules) - 1; i >= 0; i-- {
		out = r.AtRules[i] + "{" + out + "}"
	}
	return out
}

// ExpandSelectors resolves a chain of nested selectors into one selector in
// which & stands for the atomic class. Pseudo selectors attach to their
// parent, other selectors without & become descendants, and selector lists
// expand to every combination.
func ExpandSelectors(chain []string) string {
	parents := []string{nesting}
	for _, link := range chain {
		var next []string
		for _, part := range splitList(link) {
			part = normalize(part)
			for _, p := range parents {
				next = append(next, strings.ReplaceAll(part, nesting, p))
			}
		}
		if len(next) > 0 {
			parents = next
		}
	}
	return strings.Join(parents, ", ")
}

func normalize(sel string) string {
	sel = strings.TrimSpace(sel)
	switch {
	case sel == "":
		return nesting
	case strings.Contains(sel, nesting):
		return sel
	case strings.HasPrefix(sel, ":"):
		return nesting + sel
	default:
		return nesting + " " + sel
	}
}

// splitList splits a selector list on commas outside parentheses and brackets
func splitList(sel string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(sel); i++ {
		switch sel[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, sel[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, sel[start:])
}

// Compress shortens a class token to `_GGGG_v` when the compression map
// holds a short value for it. Map keys are tokens without the sigil.
func Compress(class string, compression map[string]string) string {
	if len(class) != 1+groupWidth+valueWidth || class[0] != ax.Sigil {
		return class
	}
	short, ok := compression[class[1:]]
	if !ok {
		return class
	}
	return class[:1+groupWidth] + "_" + short
}
