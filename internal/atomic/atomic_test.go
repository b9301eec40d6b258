package atomic_test

import (
	"strings"
	"testing"

	"bennypowers.dev/csslift/ax"
	"bennypowers.dev/csslift/internal/atomic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleTokenShape(t *testing.T) {
	r := atomic.NewRule(nil, nil, "color", "red", false)
	require.Len(t, r.Class, 9)
	assert.True(t, strings.HasPrefix(r.Class, "_"))
	assert.Equal(t, r.Class[:5], r.Group)
	assert.Equal(t, ax.Group(r.Class), r.Group)
	assert.Equal(t, "."+r.Class+"{color:red}", r.CSS)
}

func TestGroupIgnoresValue(t *testing.T) {
	red := atomic.NewRule(nil, nil, "color", "red", false)
	blue := atomic.NewRule(nil, nil, "color", "blue", false)
	assert.Equal(t, red.Group, blue.Group)
	assert.NotEqual(t, red.Class, blue.Class)

	hover := atomic.NewRule(nil, []string{"&:hover"}, "color", "red", false)
	assert.NotEqual(t, red.Group, hover.Group)

	media := atomic.NewRule([]string{"@media (min-width: 500px)"}, nil, "color", "red", false)
	assert.NotEqual(t, red.Group, media.Group)

	important := atomic.NewRule(nil, nil, "color", "red", true)
	assert.Equal(t, red.Group, important.Group)
	assert.NotEqual(t, red.Class, important.Class)
}

func TestSerialize(t *testing.T) {
	r := atomic.NewRule([]string{"@media (min-width: 500px)", "@supports (display: grid)"}, []string{":hover"}, "color", "red", true)
	want := "@media (min-width: 500px){@supports (display: grid){." + r.Class + ":hover{color:red!important}}}"
	assert.Equal(t, want, r.CSS)
}

func TestExpandSelectors(t *testing.T) {
	tests := []struct {
		name  string
		chain []string
		want  string
	}{
		{"none", nil, "&"},
		{"pseudo", []string{":hover"}, "&:hover"},
		{"explicit", []string{"&:hover"}, "&:hover"},
		{"descendant", []string{"span"}, "& span"},
		{"child", []string{"& > span"}, "& > span"},
		{"nested", []string{"&:hover", "& span"}, "&:hover span"},
		{"list", []string{":hover, :focus"}, "&:hover, &:focus"},
		{"list with function", []string{":is(a, b)"}, "&:is(a, b)"},
		{"parent reference", []string{"div &"}, "div &"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, atomic.ExpandSelectors(tt.chain))
		})
	}
}

func TestAtomize(t *testing.T) {
	s, err := atomic.Atomize("color: red; &:hover { color: blue; } @media (min-width: 500px) { color: green; }")
	require.NoError(t, err)
	require.Len(t, s.Rules, 3)

	assert.Equal(t, "."+s.Rules[0].Class+"{color:red}", s.Rules[0].CSS)
	assert.Equal(t, "."+s.Rules[1].Class+":hover{color:blue}", s.Rules[1].CSS)
	assert.Equal(t, "@media (min-width: 500px){."+s.Rules[2].Class+"{color:green}}", s.Rules[2].CSS)
	assert.Len(t, strings.Fields(s.Classes()), 3)
}

func TestAtomizeLastDeclarationWins(t *testing.T) {
	s, err := atomic.Atomize("color: red; color: blue;")
	require.NoError(t, err)
	require.Len(t, s.Rules, 2)
	assert.Equal(t, s.Rules[1].Class, s.Classes())
}

func TestCSSDeduplicates(t *testing.T) {
	s, err := atomic.Atomize("color: red; color: red;")
	require.NoError(t, err)
	assert.Len(t, s.CSS(), 1)
}

func TestCompress(t *testing.T) {
	r := atomic.NewRule(nil, nil, "color", "red", false)
	compressed := atomic.Compress(r.Class, map[string]string{r.Class[1:]: "a"})
	assert.Equal(t, r.Group+"_a", compressed)
	assert.Equal(t, r.Group, ax.Group(compressed))

	assert.Equal(t, r.Class, atomic.Compress(r.Class, nil))
	assert.Equal(t, "plain", atomic.Compress("plain", map[string]string{"lain": "x"}))
}
