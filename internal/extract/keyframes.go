package extract

import (
	"strings"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/hash"
)

// BuildKeyframes builds a keyframes definition, a keyframes(...) call or a
// keyframes`...` template. It returns the generated animation name and an
// output holding the @keyframes sheet. The name hashes the built body, so
// identical bodies share one sheet.
func BuildKeyframes(e ast.Expr, ctx *Context) (string, *Output, error) {
	var body []ast.Expr
	switch x := e.(type) {
	case *ast.Call:
		body = x.Args
	case *ast.TaggedTemplate:
		body = []ast.Expr{x.Quasi}
	default:
		return "", nil, NewKeyframesError(e, ctx, "expected a keyframes call or template")
	}
	if len(body) == 0 {
		return "", nil, NewKeyframesError(e, ctx, "missing keyframes body")
	}

	kctx := ctx.withKind(KeyframesKind)
	var css strings.Builder
	for _, arg := range body {
		built, err := Build(arg, kctx)
		if err != nil {
			return "", nil, err
		}
		for _, it := range built.CSS {
			u, ok := it.(*Unconditional)
			if !ok {
				return "", nil, NewKeyframesError(arg, ctx, "keyframes must be static CSS")
			}
			css.WriteString(u.CSS)
		}
	}

	text := css.String()
	name := "k" + hash.Fixed(text, 6)
	return name, &Output{CSS: []Item{&Sheet{CSS: "@keyframes " + name + "{" + text + "}"}}}, nil
}
