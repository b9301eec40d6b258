package compiler_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"bennypowers.dev/csslift/internal/atomic"
	"bennypowers.dev/csslift/internal/cache"
	"bennypowers.dev/csslift/internal/compiler"
	"bennypowers.dev/csslift/internal/config"
	"bennypowers.dev/csslift/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "import { css, cssMap, keyframes, styled } from '@csslift/react';\n"

func compile(t *testing.T, src string) *compiler.FileResult {
	t.Helper()
	r, err := compiler.Compile("/virtual/app.tsx", []byte(header+src), compiler.Options{})
	require.NoError(t, err)
	return r
}

func class(property, value string) string {
	return atomic.NewRule(nil, nil, property, value, false).Class
}

func find(t *testing.T, r *compiler.FileResult, name string) *compiler.Definition {
	t.Helper()
	for _, d := range r.Definitions {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("no definition named %s", name)
	return nil
}

func TestCompileStatic(t *testing.T) {
	r := compile(t, `const styles = css({ color: 'red', padding: 0 });`)
	require.NoError(t, r.Err)
	require.Len(t, r.Definitions, 1)

	def := r.Definitions[0]
	assert.Equal(t, compiler.KindCSS, def.Kind)
	assert.Equal(t, "styles", def.Name)
	assert.Equal(t, uint(2), def.Line)
	assert.Equal(t, uint(16), def.Column)

	red, pad := class("color", "red"), class("padding", "0")
	assert.Equal(t, red+" "+pad, def.ClassName)
	assert.Equal(t, "'"+red+" "+pad+"'", def.Expression)
	assert.Equal(t, []string{"." + red + "{color:red}", "." + pad + "{padding:0}"}, def.Rules)
	assert.Equal(t, def.Rules, r.CSS)
}

func TestCompileRuntimeExpressions(t *testing.T) {
	red, blue := class("color", "red"), class("color", "blue")
	tests := []struct {
		name      string
		src       string
		className string
		want      string
	}{
		{
			name:      "logical",
			src:       `const styles = css({ color: 'red' }, isActive && { color: 'blue' });`,
			className: red,
			want:      "ax(['" + red + "', isActive && '" + blue + "'])",
		},
		{
			name: "conditional",
			src:  `const styles = css(isActive ? { color: 'red' } : { color: 'blue' });`,
			want: "ax([isActive ? '" + red + "' : '" + blue + "'])",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := compile(t, tt.src)
			require.NoError(t, r.Err)
			def := find(t, r, "styles")
			assert.Equal(t, tt.className, def.ClassName)
			assert.Equal(t, tt.want, def.Expression)
			assert.ElementsMatch(t, []string{"." + red + "{color:red}", "." + blue + "{color:blue}"}, def.Rules)
		})
	}
}

func TestCompileVariables(t *testing.T) {
	r := compile(t, `const styles = css({ color: props.color });`)
	require.NoError(t, r.Err)
	def := find(t, r, "styles")
	require.Len(t, def.Variables, 1)
	v := def.Variables[0]
	assert.Equal(t, "props.color", v.Expression)
	assert.True(t, strings.HasPrefix(v.Name, "--_"))
	require.Len(t, def.Rules, 1)
	assert.Contains(t, def.Rules[0], "{color:var("+v.Name+")}")
}

func TestCompileKeyframes(t *testing.T) {
	r := compile(t, `
const fade = keyframes({ from: { opacity: 0 }, to: { opacity: 1 } });
const styles = css({ animationName: fade });
`)
	require.NoError(t, r.Err)
	fade := find(t, r, "fade")
	assert.Equal(t, compiler.KindKeyframes, fade.Kind)
	assert.Regexp(t, regexp.MustCompile(`^k[0-9a-z]{6}$`), fade.Animation)
	require.Len(t, fade.Sheets, 1)
	assert.True(t, strings.HasPrefix(fade.Sheets[0], "@keyframes "+fade.Animation+"{"))

	styles := find(t, r, "styles")
	assert.Equal(t, fade.Sheets, styles.Sheets)
	anim := class("animation-name", fade.Animation)
	assert.Equal(t, anim, styles.ClassName)

	// the shared sheet is emitted once, ahead of the rules
	assert.Equal(t, []string{fade.Sheets[0], "." + anim + "{animation-name:" + fade.Animation + "}"}, r.CSS)
}

func TestCompileCSSMap(t *testing.T) {
	r := compile(t, `const variants = cssMap({ primary: { color: 'red' }, 'danger': { color: 'blue' } });`)
	require.NoError(t, r.Err)
	require.Len(t, r.Definitions, 2)
	assert.Equal(t, "variants.primary", r.Definitions[0].Name)
	assert.Equal(t, class("color", "red"), r.Definitions[0].ClassName)
	assert.Equal(t, "variants.danger", r.Definitions[1].Name)
	assert.Equal(t, class("color", "blue"), r.Definitions[1].ClassName)
	for _, d := range r.Definitions {
		assert.Equal(t, compiler.KindCSSMap, d.Kind)
	}
}

func TestCompileStyled(t *testing.T) {
	r := compile(t, `
const Button = styled.button({ color: 'red' });
const Link = styled(Anchor)({ color: 'red' });
const Title = styled.h1`+"`color: red;`"+`;
`)
	require.NoError(t, r.Err)
	require.Len(t, r.Definitions, 3, "styled(Anchor) alone is not a definition")
	red := class("color", "red")
	for _, d := range r.Definitions {
		assert.Equal(t, compiler.KindStyled, d.Kind)
		assert.Equal(t, red, d.ClassName)
	}
	assert.Len(t, r.CSS, 1)
}

func TestCompileJSXAttribute(t *testing.T) {
	src := "import '@csslift/react';\nexport const App = () => <div css={{ color: 'red' }} />;\n"
	r, err := compiler.Compile("/virtual/app.tsx", []byte(src), compiler.Options{})
	require.NoError(t, err)
	require.NoError(t, r.Err)
	require.Len(t, r.Definitions, 1)
	assert.Equal(t, compiler.KindJSX, r.Definitions[0].Kind)
	assert.Equal(t, "div", r.Definitions[0].Name)
	assert.Equal(t, class("color", "red"), r.Definitions[0].ClassName)
}

func TestCompileNestedDefinitions(t *testing.T) {
	r := compile(t, `
const base = css({ color: 'red' });
const styles = css([base, css({ padding: 0 })]);
`)
	require.NoError(t, r.Err)
	require.Len(t, r.Definitions, 2)
	styles := find(t, r, "styles")
	assert.Equal(t, class("color", "red")+" "+class("padding", "0"), styles.ClassName)
}

func TestCompileWithoutStyleImport(t *testing.T) {
	r, err := compiler.Compile("/virtual/app.js", []byte(`const styles = css({ color: 'red' });`), compiler.Options{})
	require.NoError(t, err)
	assert.Empty(t, r.Definitions)
	assert.Empty(t, r.CSS)
}

func TestCompileAccumulatesErrors(t *testing.T) {
	r := compile(t, `
const broken = css(unknown);
const good = css({ color: 'red' });
const spread = css({ ...missing });
`)
	require.Error(t, r.Err)
	assert.ErrorIs(t, r.Err, extract.ErrUnresolvedIdentifier)
	assert.ErrorIs(t, r.Err, extract.ErrSpreadTarget)
	assert.Len(t, r.Errors, 2)
	require.Len(t, r.Definitions, 1)
	assert.Equal(t, "good", r.Definitions[0].Name)
	assert.Contains(t, r.Errors[0], "/virtual/app.tsx:3:20")
}

func TestCompileCompression(t *testing.T) {
	red := class("color", "red")
	cfg := config.Default("")
	cfg.ClassNameCompressionMap = map[string]string{red[1:]: "a"}

	r, err := compiler.Compile("/virtual/app.tsx", []byte(header+`const styles = css({ color: 'red', padding: 0 });`), compiler.Options{Config: cfg})
	require.NoError(t, err)
	def := find(t, r, "styles")
	short := red[:5] + "_a"
	assert.Equal(t, short+" "+class("padding", "0"), def.ClassName)
	assert.Equal(t, "."+short+"{color:red}", def.Rules[0])
}

func TestCompileIncludedFiles(t *testing.T) {
	dir := t.TempDir()
	tokens := filepath.Join(dir, "tokens.ts")
	require.NoError(t, os.WriteFile(tokens, []byte(`export const brand = 'red';`), 0o644))
	app := filepath.Join(dir, "app.tsx")
	src := header + "import { brand } from './tokens';\nconst styles = css({ color: brand });"

	r, err := compiler.Compile(app, []byte(src), compiler.Options{Config: config.Default(dir)})
	require.NoError(t, err)
	require.NoError(t, r.Err)
	assert.Equal(t, class("color", "red"), find(t, r, "styles").ClassName)
	assert.Equal(t, []string{tokens}, r.IncludedFiles)
}

func TestCompileSharedCache(t *testing.T) {
	dir := t.TempDir()
	colors := filepath.Join(dir, "colors.js")
	theme := filepath.Join(dir, "theme.js")
	require.NoError(t, os.WriteFile(colors, []byte(`export const red = 'red';`), 0o644))
	require.NoError(t, os.WriteFile(theme, []byte("import { red } from './colors';\nexport const primary = red;"), 0o644))
	src := []byte(header + "import { primary } from './theme';\nconst styles = css({ color: primary });")

	shared := cache.New(100)
	for _, name := range []string{"a.tsx", "b.tsx"} {
		t.Run(name, func(t *testing.T) {
			r, err := compiler.Compile(filepath.Join(dir, name), src, compiler.Options{Config: config.Default(dir), Cache: shared})
			require.NoError(t, err)
			require.NoError(t, r.Err)
			assert.Equal(t, class("color", "red"), find(t, r, "styles").ClassName)
			// a cached export still reports the files behind it
			assert.Equal(t, []string{theme, colors}, r.IncludedFiles)
		})
	}
	assert.Contains(t, shared.Keys(), "export:"+theme+"#primary")
}
