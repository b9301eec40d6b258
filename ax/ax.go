// Package ax joins atomic class names at render time.
//
// Atomic tokens start with an underscore and carry a four character group
// hash followed by a value hash (`_GGGGVVVV`, or `_GGGG_v` when compressed).
// Two tokens with the same group set the same property under the same
// selector and at-rules, so only the last one survives a merge. Tokens
// without the sigil are kept as-is and only collapse with exact repeats.
package ax

import (
	"fmt"
	"strings"

	"bennypowers.dev/csslift/internal/cache"
	"github.com/elliotchance/orderedmap/v3"
)

const (
	// Sigil marks an atomic token
	Sigil = '_'
	// GroupLength is the width of an atomic token's group key, sigil included
	GroupLength = 5
)

// Result is a merged set of class names in first-seen group order
type Result struct {
	groups *orderedmap.OrderedMap[string, string]
}

// Group returns the key a token is deduplicated by
func Group(token string) string {
	if len(token) > 0 && token[0] == Sigil && len(token) > GroupLength {
		return token[:GroupLength]
	}
	return token
}

// Build merges values into a Result. Values may be strings (split on
// whitespace), *Result, fmt.Stringer, bool or nil; falsy values are skipped.
func Build(values ...any) *Result {
	r := &Result{groups: orderedmap.NewOrderedMap[string, string]()}
	for _, v := range values {
		r.add(v)
	}
	return r
}

func (r *Result) add(v any) {
	switch v := v.(type) {
	case nil, bool:
	case string:
		for _, token := range strings.Fields(v) {
			r.groups.Set(Group(token), token)
		}
	case *Result:
		if v == nil {
			return
		}
		for el := v.groups.Front(); el != nil; el = el.Next() {
			r.groups.Set(el.Key, el.Value)
		}
	case []string:
		for _, s := range v {
			r.add(s)
		}
	case fmt.Stringer:
		r.add(v.String())
	}
}

// Tokens returns the surviving tokens in first-seen group order
func (r *Result) Tokens() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, r.groups.Len())
	for el := r.groups.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

func (r *Result) String() string {
	return strings.Join(r.Tokens(), " ")
}

// Merge joins class names, keeping the last token of every atomic group.
// A single whitespace-free string is returned unchanged; no values or a
// single falsy value yield "".
func Merge(values ...any) string {
	if len(values) <= 1 {
		if len(values) == 0 {
			return ""
		}
		switch v := values[0].(type) {
		case nil, bool:
			return ""
		case string:
			if !strings.ContainsAny(v, " \t\n\r\f") {
				return v
			}
		}
	}
	return Build(values...).String()
}

const memoNamespace = "ax"

// Memo is a Merge that remembers its results. It is safe for concurrent use.
type Memo struct {
	cache *cache.Cache
}

// NewMemo creates a Memo holding at most capacity results
func NewMemo(capacity int) *Memo {
	return &Memo{cache: cache.New(capacity)}
}

// Merge is Merge over strings, memoized on the argument list
func (m *Memo) Merge(values ...string) string {
	key := strings.Join(values, "\x00")
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	out, _ := cache.Load(m.cache, memoNamespace, key, func() (string, error) {
		return Merge(args...), nil
	})
	return out
}

// Len reports how many results are memoized
func (m *Memo) Len() int {
	return m.cache.Len()
}
