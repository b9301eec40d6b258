package ax_test

import (
	"strings"
	"sync"
	"testing"

	"bennypowers.dev/csslift/ax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{"last write wins", []any{"_aaaabbbb", "_aaaacccc"}, "_aaaacccc"},
		{"last write wins in one string", []any{"_aaaabbbb _aaaacccc"}, "_aaaacccc"},
		{"first seen order", []any{"_bbbbcccc", "_aaaabbbb"}, "_bbbbcccc _aaaabbbb"},
		{"overwrite keeps position", []any{"_aaaa1111 _bbbb2222", "_aaaa3333"}, "_aaaa3333 _bbbb2222"},
		{"plain tokens collapse on repeat", []any{"foo bar", "foo"}, "foo bar"},
		{"plain tokens never collide", []any{"button", "buttons"}, "button buttons"},
		{"falsy skipped", []any{nil, "_aaaabbbb", false, "", "_ccccdddd"}, "_aaaabbbb _ccccdddd"},
		{"compressed form shares group", []any{"_aaaabbbb", "_aaaa_c"}, "_aaaa_c"},
		{"single token unchanged", []any{"_aaaabbbb"}, "_aaaabbbb"},
		{"single falsy", []any{false}, ""},
		{"single nil", []any{nil}, ""},
		{"empty", nil, ""},
		{"extra whitespace", []any{"  _aaaabbbb \n _aaaacccc "}, "_aaaacccc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ax.Merge(tt.values...))
		})
	}
}

func TestMergeChaining(t *testing.T) {
	sequences := [][]string{
		{"_aaaabbbb", "_ccccdddd", "_aaaaeeee"},
		{"plain _aaaabbbb", "_aaaacccc plain", "other"},
		{"_aaaa1111 _bbbb2222", "_bbbb3333", "_cccc4444 _aaaa5555"},
	}
	for _, seq := range sequences {
		x, y, z := seq[0], seq[1], seq[2]
		t.Run(strings.Join(seq, "|"), func(t *testing.T) {
			flat := ax.Merge(x, y, z)
			assert.Equal(t, flat, ax.Merge(ax.Merge(x, y), z))
			assert.Equal(t, flat, ax.Merge(ax.Build(x, y), z))
			assert.Equal(t, flat, ax.Merge(x, ax.Merge(y, z)))
		})
	}
}

func TestBuildTokens(t *testing.T) {
	r := ax.Build("_aaaabbbb foo", []string{"_aaaacccc"}, ax.Build("bar"))
	assert.Equal(t, []string{"_aaaacccc", "foo", "bar"}, r.Tokens())
	assert.Equal(t, "_aaaacccc foo bar", r.String())
}

func TestGroup(t *testing.T) {
	assert.Equal(t, "_aaaa", ax.Group("_aaaabbbb"))
	assert.Equal(t, "_aaaa", ax.Group("_aaaa_b"))
	assert.Equal(t, "_ab", ax.Group("_ab"))
	assert.Equal(t, "button", ax.Group("button"))
}

func TestMemo(t *testing.T) {
	m := ax.NewMemo(10)
	assert.Equal(t, "_aaaacccc", m.Merge("_aaaabbbb", "_aaaacccc"))
	assert.Equal(t, "_aaaacccc", m.Merge("_aaaabbbb", "_aaaacccc"))
	assert.Equal(t, 1, m.Len())

	// argument boundaries are part of the key
	assert.Equal(t, "_aaaab _bbbbc", m.Merge("_aaaab", "_bbbbc"))
	assert.Equal(t, 2, m.Len())
}

func TestMemoConcurrent(t *testing.T) {
	m := ax.NewMemo(100)
	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.Merge("_aaaabbbb", "_ccccdddd", "_aaaaeeee")
		}()
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(t, "_aaaaeeee _ccccdddd", r)
	}
}
