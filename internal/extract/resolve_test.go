package extract_test

import (
	"errors"
	"path/filepath"
	"testing"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/cache"
	"bennypowers.dev/csslift/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossFileResolution(t *testing.T) {
	dir := project(t, map[string]string{
		"tokens.js": `
export const colors = { primary: 'red' };
const size = 12;
export default size;
export function double(n) { return n * 2; }
`,
		"theme.js": `
export * from './tokens';
export { default as size } from './tokens';
`,
		"app.js": header + `
import { colors, size, double } from './theme';
import * as tokens from './tokens';
export const styles = css({
	color: colors.primary,
	padding: size,
	margin: tokens.default,
	top: double(3),
	borderColor: tokens.colors.primary,
});
`,
	})
	pass, ctx := open(t, dir, "app.js")

	out, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"color:red;padding:12px;margin:12px;top:6px;border-color:red;"}, describe(out.CSS))
	assert.Empty(t, out.Variables)

	// each file is recorded once, in first-read order
	assert.Equal(t, []string{
		filepath.Join(dir, "theme.js"),
		filepath.Join(dir, "tokens.js"),
	}, pass.IncludedFiles())
}

func TestResolutionUsesCache(t *testing.T) {
	dir := project(t, map[string]string{
		"tokens.js": `export const color = 'red';`,
		"app.js":    header + "import { color } from './tokens';\nexport const styles = css({ color, borderColor: color });",
	})
	c := cache.New(10)
	pass := extract.NewPass(extract.Options{Cache: c})
	path := filepath.Join(dir, "app.js")
	f, err := pass.ParseFile(path, []byte(header+"import { color } from './tokens';\nexport const styles = css({ color, borderColor: color });"))
	require.NoError(t, err)
	ctx := pass.Context(f)

	out, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"color:red;border-color:red;"}, describe(out.CSS))

	tokens := filepath.Join(dir, "tokens.js")
	assert.ElementsMatch(t, []string{
		"resolve:" + dir + "\x00./tokens",
		"source:" + tokens,
		"parse:" + tokens,
		"export:" + tokens + "#color",
	}, c.Keys())
}

func TestResolverHook(t *testing.T) {
	dir := project(t, map[string]string{
		"lib/tokens.ts": `export const color = 'red' as const;`,
	})
	var requests []string
	pass := extract.NewPass(extract.Options{
		Resolver: func(from, request string) (string, error) {
			requests = append(requests, request)
			return filepath.Join(dir, "lib", "tokens.ts"), nil
		},
	})
	f, err := pass.ParseFile(filepath.Join(dir, "app.tsx"), []byte(header+"import { color } from '~tokens';\nconst styles = css({ color });"))
	require.NoError(t, err)
	ctx := pass.Context(f)

	out, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"color:red;"}, describe(out.CSS))
	assert.Equal(t, []string{"~tokens"}, requests)
}

func TestImportsAreRefused(t *testing.T) {
	dir := project(t, map[string]string{
		"data.json": `{"color": "red"}`,
		"app.js":    header + "import data from './data.json';\nimport { missing } from './nowhere';\nconst styles = css({ color: data.color, background: missing });",
	})
	pass, ctx := open(t, dir, "app.js")
	out, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.NoError(t, err)
	// unresolvable imports stay runtime references of this file
	require.Len(t, out.Variables, 2)
	assert.Equal(t, "data.color", ast.Print(out.Variables[0].Expression))
	assert.Equal(t, "missing", ast.Print(out.Variables[1].Expression))
	assert.Empty(t, pass.IncludedFiles())
}

func TestCircularImport(t *testing.T) {
	dir := project(t, map[string]string{
		"a.js":   "import { b } from './b';\nexport const a = b;",
		"b.js":   "import { a } from './a';\nexport const b = a;",
		"app.js": header + "import { a } from './a';\nconst styles = css({ color: a });",
	})
	_, ctx := open(t, dir, "app.js")
	_, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrCircularImport)

	var cycle *extract.CircularImportError
	require.True(t, errors.As(err, &cycle))
	a := filepath.Join(dir, "a.js") + "#a"
	assert.Equal(t, []string{a, filepath.Join(dir, "b.js") + "#b", a}, cycle.Chain)
}

func TestImportedVariable(t *testing.T) {
	dir := project(t, map[string]string{
		"tokens.js": "export const brand = window.brandColor;",
		"app.js":    header + "import { brand } from './tokens';\nconst styles = css({ color: brand });",
	})
	_, ctx := open(t, dir, "app.js")
	_, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrImportedVariable)

	var imported *extract.ImportedVariableError
	require.True(t, errors.As(err, &imported))
	assert.Equal(t, filepath.Join(dir, "tokens.js"), imported.Location.File)
	assert.Equal(t, "window.brandColor", imported.Source)
}

func TestMutationSafety(t *testing.T) {
	out, err := buildDefinition(t, `
let color = 'red';
color = 'blue';
const theme = { primary: 'red' };
theme.primary = 'green';
let base = 'red';
base += 'x';
const derived = base;
let count = 1;
count++;
const fixed = 'black';
const styles = css({ color, borderColor: theme.primary, outlineColor: derived, zIndex: count, backgroundColor: fixed });
`, "styles")
	require.NoError(t, err)

	exprs := make([]string, 0, len(out.Variables))
	for _, v := range out.Variables {
		exprs = append(exprs, ast.Print(v.Expression))
	}
	assert.Equal(t, []string{"color", "theme.primary", "derived", "count"}, exprs)
	assert.Equal(t, []string{
		withVars(out, "color:var($0);border-color:var($1);outline-color:var($2);z-index:var($3);background-color:black;"),
	}, describe(out.CSS))
}

func TestCallEvaluation(t *testing.T) {
	out, err := buildDefinition(t, `
const size = (n) => n * 4;
const pad = ({ x = 1 }) => x + 'px';
const border = (c) => `+"`1px solid ${c}`"+`;
const mixin = (c) => ({ color: c });
function half(n) {
	const h = n / 2;
	return h;
}
const styles = css({
	padding: size(2),
	margin: pad({}),
	top: pad({ x: 3 }),
	border: border('red'),
	...mixin('blue'),
	left: half(8),
	right: size(props.gap),
});
`, "styles")
	require.NoError(t, err)
	require.Len(t, out.Variables, 1)
	assert.Equal(t, "size(props.gap)", ast.Print(out.Variables[0].Expression))
	assert.Equal(t, []string{
		withVars(out, "padding:8px;margin:1px;top:3px;border:1px solid red;color:blue;left:4px;right:var($0);"),
	}, describe(out.CSS))
}

func TestRecursionIsBounded(t *testing.T) {
	out, err := buildDefinition(t, `
const loop = (n) => loop(n + 1);
const styles = css({ width: loop(0) });
`, "styles")
	require.NoError(t, err)
	require.Len(t, out.Variables, 1)
	assert.Equal(t, "loop(0)", ast.Print(out.Variables[0].Expression))
}

func TestCallRuntimeArguments(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		exprs []string
		css   string
	}{
		{
			name: "object body",
			src: `
const mixin = (c) => ({ color: c });
const styles = css({ ...mixin(props.color) });
`,
			exprs: []string{"props.color"},
			css:   "color:var($0);",
		},
		{
			name: "template body",
			src: `
const border = (c) => ` + "`1px solid ${c}`" + `;
const styles = css({ border: border(props.c) });
`,
			exprs: []string{"props.c"},
			css:   "border:1px solid var($0);",
		},
		{
			name: "negated parameter",
			src: `
const offset = (n) => ({ margin: -n });
const styles = css(offset(props.m));
`,
			exprs: []string{"-1 * props.m"},
			css:   "margin:var($0);",
		},
		{
			name: "distinct calls",
			src: `
const solid = (c) => ` + "`1px solid ${c}`" + `;
const styles = css({ borderTop: solid(props.a), borderBottom: solid(props.b) });
`,
			exprs: []string{"props.a", "props.b"},
			css:   "border-top:1px solid var($0);border-bottom:1px solid var($1);",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := buildDefinition(t, tt.src, "styles")
			require.NoError(t, err)
			exprs := make([]string, 0, len(out.Variables))
			for _, v := range out.Variables {
				exprs = append(exprs, ast.Print(v.Expression))
			}
			assert.Equal(t, tt.exprs, exprs)
			assert.Equal(t, []string{withVars(out, tt.css)}, describe(out.CSS))
			if len(out.Variables) == 2 {
				assert.NotEqual(t, out.Variables[0].Name, out.Variables[1].Name)
			}
		})
	}
}
