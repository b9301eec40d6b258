package js_test

import (
	"testing"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/parser/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, path, src string) *ast.File {
	t.Helper()
	f, err := js.Parse(path, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, f.Program)
	return f
}

// initOf returns the initializer of the first declarator named name
func initOf(t *testing.T, f *ast.File, name string) ast.Expr {
	t.Helper()
	b := f.Scope.Own(name)
	require.NotNil(t, b, "binding %s", name)
	require.NotNil(t, b.Declarator, "declarator for %s", name)
	return b.Declarator.Init
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		path string
		want js.Language
	}{
		{"a.js", js.JavaScript},
		{"a.jsx", js.JavaScript},
		{"a.mjs", js.JavaScript},
		{"a.ts", js.TypeScript},
		{"a.MTS", js.TypeScript},
		{"a.tsx", js.TSX},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, js.LanguageFor(tt.path))
		})
	}
}

func TestParseLiterals(t *testing.T) {
	f := parse(t, "lit.js", `
const s = 'a\'b\n';
const n = 0x10;
const m = 1_000;
const b = true;
const z = null;
const u = undefined;
`)
	assert.Equal(t, "a'b\n", initOf(t, f, "s").(*ast.StringLit).Value)
	assert.Equal(t, float64(16), initOf(t, f, "n").(*ast.NumberLit).Value)
	assert.Equal(t, float64(1000), initOf(t, f, "m").(*ast.NumberLit).Value)
	assert.True(t, initOf(t, f, "b").(*ast.BoolLit).Value)
	assert.IsType(t, &ast.NullLit{}, initOf(t, f, "z"))
	assert.True(t, ast.Undefined(initOf(t, f, "u")))
}

func TestParseTemplateKeepsRawQuasis(t *testing.T) {
	f := parse(t, "tpl.js", "const t = css`color: ${c}; content: \"\\201C\";`;")
	tagged, ok := initOf(t, f, "t").(*ast.TaggedTemplate)
	require.True(t, ok)
	assert.Equal(t, "css", tagged.Tag.(*ast.Ident).Name)
	assert.Equal(t, []string{"color: ", `; content: "\201C";`}, tagged.Quasi.Quasis)
	require.Len(t, tagged.Quasi.Exprs, 1)
	assert.Equal(t, "c", tagged.Quasi.Exprs[0].(*ast.Ident).Name)
}

func TestParseObjectProps(t *testing.T) {
	f := parse(t, "obj.js", `
const key = 'k';
const o = { a: 1, 'b-c': 2, [key]: 3, d, ...rest, m() { return 1 } };
`)
	obj, ok := initOf(t, f, "o").(*ast.ObjectLit)
	require.True(t, ok)
	require.Len(t, obj.Props, 6)

	kv := obj.Props[0].(*ast.KeyValue)
	assert.Equal(t, "a", kv.Key.(*ast.Ident).Name)
	assert.False(t, kv.Computed)

	assert.Equal(t, "b-c", obj.Props[1].(*ast.KeyValue).Key.(*ast.StringLit).Value)
	assert.True(t, obj.Props[2].(*ast.KeyValue).Computed)
	assert.True(t, obj.Props[3].(*ast.KeyValue).Shorthand)
	assert.IsType(t, &ast.Spread{}, obj.Props[4])
	assert.IsType(t, &ast.Func{}, obj.Props[5].(*ast.KeyValue).Value)
}

func TestParseArrayHoles(t *testing.T) {
	f := parse(t, "arr.js", `const a = [1, , 3,];`)
	arr := initOf(t, f, "a").(*ast.ArrayLit)
	require.Len(t, arr.Elems, 3)
	assert.Nil(t, arr.Elems[1])
}

func TestParseOperators(t *testing.T) {
	f := parse(t, "ops.js", `
const a = x && y;
const b = x + y * 2;
const c = x ? 'a' : 'b';
const d = -x;
const e = a?.b;
const g = a[0];
`)
	assert.Equal(t, "&&", initOf(t, f, "a").(*ast.Logical).Op)
	bin := initOf(t, f, "b").(*ast.Binary)
	assert.Equal(t, "+", bin.Op)
	assert.Equal(t, "*", bin.Y.(*ast.Binary).Op)
	assert.IsType(t, &ast.Conditional{}, initOf(t, f, "c"))
	assert.Equal(t, "-", initOf(t, f, "d").(*ast.Unary).Op)

	opt := initOf(t, f, "e").(*ast.Member)
	assert.True(t, opt.Optional)
	assert.Equal(t, "b", opt.Property)

	idx := initOf(t, f, "g").(*ast.Member)
	assert.Equal(t, float64(0), idx.Computed.(*ast.NumberLit).Value)
}

func TestParseStripsTypeScript(t *testing.T) {
	f := parse(t, "ts.ts", `
interface Props { color: string }
type Size = 'sm' | 'lg';
const primary = 'red' as const;
const size = (value! satisfies number);
export const fn = (p: Props, n: number = 2): string => p.color;
`)
	assert.Equal(t, "red", initOf(t, f, "primary").(*ast.StringLit).Value)
	assert.Equal(t, "value", initOf(t, f, "size").(*ast.Ident).Name)

	fn, ok := initOf(t, f, "fn").(*ast.Func)
	require.True(t, ok)
	assert.True(t, fn.Arrow)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "p", fn.Params[0].(*ast.Ident).Name)
	assert.IsType(t, &ast.AssignPattern{}, fn.Params[1])
	assert.Equal(t, "color", fn.Expr.(*ast.Member).Property)
}

func TestParseImportsAndExports(t *testing.T) {
	f := parse(t, "mod.js", `
import def, { a, b as c } from './a';
import * as ns from './ns';
export { c as d };
export * from './star';
export * as all from './all';
export default 'x';
`)
	var imports []*ast.Import
	var exports []*ast.Export
	for _, s := range f.Program.Body {
		switch s := s.(type) {
		case *ast.Import:
			imports = append(imports, s)
		case *ast.Export:
			exports = append(exports, s)
		}
	}
	require.Len(t, imports, 2)
	assert.Equal(t, "./a", imports[0].Source)
	require.Len(t, imports[0].Specs, 3)
	assert.Equal(t, "default", imports[0].Specs[0].Imported)
	assert.Equal(t, "b", imports[0].Specs[2].Imported)
	assert.Equal(t, "c", imports[0].Specs[2].Local.Name)
	assert.Equal(t, "*", imports[1].Specs[0].Imported)

	require.Len(t, exports, 4)
	assert.Equal(t, []*ast.ExportSpec{{Span: exports[0].Specs[0].Span, Local: "c", Exported: "d"}}, exports[0].Specs)
	assert.True(t, exports[1].Star)
	assert.Equal(t, "./star", exports[1].Source)
	assert.Equal(t, "all", exports[2].StarAs)
	assert.Equal(t, "x", exports[3].Default.(*ast.StringLit).Value)

	b := f.Scope.Own("c")
	require.NotNil(t, b)
	assert.Equal(t, ast.ImportBinding, b.Kind)
	assert.Equal(t, "./a", b.Source)
}

func TestParseJSX(t *testing.T) {
	f := parse(t, "c.tsx", `
const el = <div css={{ color: 'red' }} id="x" {...rest}>{child}</div>;
`)
	el, ok := initOf(t, f, "el").(*ast.JSXElement)
	require.True(t, ok)
	assert.Equal(t, "div", el.Name)
	require.Len(t, el.Attrs, 3)
	assert.Equal(t, "css", el.Attrs[0].Name)
	assert.IsType(t, &ast.ObjectLit{}, el.Attrs[0].Value)
	assert.Equal(t, "x", el.Attrs[1].Value.(*ast.StringLit).Value)
	assert.True(t, el.Attrs[2].Spread)
	require.Len(t, el.Children, 1)
}

func TestScopeAnalysis(t *testing.T) {
	f := parse(t, "scope.js", `
const { a, b: { c = 1 }, ...others } = obj;
const [first, , third] = list;
let counter = 0;
counter++;
const mutated = {};
mutated.x = 1;
function outer(p) {
  var hoisted = p;
  { let inner = 1; }
  return hoisted;
}
`)
	a := f.Scope.Own("a")
	require.NotNil(t, a)
	assert.Equal(t, []ast.PathStep{{Key: "a", Index: -1}}, a.Path)

	c := f.Scope.Own("c")
	require.NotNil(t, c)
	assert.Equal(t, []ast.PathStep{{Key: "b", Index: -1}, {Key: "c", Index: -1}}, c.Path)
	assert.Equal(t, float64(1), c.Default.(*ast.NumberLit).Value)

	others := f.Scope.Own("others")
	require.NotNil(t, others)
	assert.True(t, others.Path[len(others.Path)-1].Rest)

	third := f.Scope.Own("third")
	require.NotNil(t, third)
	assert.Equal(t, 2, third.Path[0].Index)

	assert.False(t, f.Scope.Own("counter").Constant())
	assert.False(t, f.Scope.Own("mutated").Constant())
	assert.True(t, f.Scope.Own("a").Constant())

	outer := f.Scope.Own("outer")
	require.NotNil(t, outer)
	fs := f.ScopeOf(outer.Func)
	require.NotNil(t, fs)
	assert.NotNil(t, fs.Own("hoisted"))
	assert.NotNil(t, fs.Own("p"))
	assert.Nil(t, fs.Own("inner"))
	assert.Nil(t, f.Scope.Own("hoisted"))
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`\x41`, "A"},
		{`\u0041`, "A"},
		{`\u{1F600}`, "\U0001F600"},
		{`\q`, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, js.Unescape(tt.in))
		})
	}
}

func TestPrintRoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`const v = a.b.c;`, "a.b.c"},
		{`const v = (a + b) * 2;`, "(a + b) * 2"},
		{`const v = fn(x, 'y');`, "fn(x, 'y')"},
		{`const v = p => p.color;`, "(p) => p.color"},
		{`const v = x ? 1 : 2;`, "x ? 1 : 2"},
		{"const v = `a${b}c`;", "`a${b}c`"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := parse(t, "print.js", tt.src)
			assert.Equal(t, tt.want, ast.Print(initOf(t, f, "v")))
		})
	}
}
