package extract

import (
	"strings"

	"bennypowers.dev/csslift/internal/ast"
)

// buildObject builds a style object. Keys become properties, or nested
// rules when their value is itself a style; spreads are spliced in place.
func buildObject(o *ast.ObjectLit, ctx *Context) (*Output, error) {
	out := &Output{}
	for _, prop := range o.Props {
		switch p := prop.(type) {
		case *ast.Spread:
			sub, err := buildSpread(p, ctx)
			if err != nil {
				return nil, err
			}
			out.add(sub)
		case *ast.KeyValue:
			key, err := propertyKey(p, ctx)
			if err != nil {
				return nil, err
			}
			sub, err := buildValue(key, p.Value, ctx)
			if err != nil {
				return nil, err
			}
			out.add(sub)
		}
	}
	return out, nil
}

func buildSpread(s *ast.Spread, ctx *Context) (*Output, error) {
	v, vctx, err := evaluate(s.Arg, ctx)
	if err != nil {
		return nil, err
	}
	if ast.Falsy(v) {
		return &Output{}, nil
	}
	switch x := v.(type) {
	case *ast.ObjectLit, *ast.Logical, *ast.Conditional, *ast.ArrayLit:
		return build(v, vctx)
	case *ast.Call:
		if vctx.StyleAPI(x.Callee) != "" {
			return build(v, vctx)
		}
	case *ast.TaggedTemplate:
		if vctx.StyleAPI(x.Tag) != "" {
			return build(v, vctx)
		}
	}
	return nil, NewSpreadTargetError(s.Arg, ctx)
}

// propertyKey returns the name of an object key. Computed keys must reduce
// to a string or number.
func propertyKey(kv *ast.KeyValue, ctx *Context) (string, error) {
	if !kv.Computed {
		name, ok, err := staticKey(kv, ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", NewComputedKeyError(kv.Key, ctx, "unsupported key")
		}
		return name, nil
	}

	switch k := kv.Key.(type) {
	case *ast.StringLit, *ast.NumberLit, *ast.Ident, *ast.Member, *ast.TemplateLit:
	case *ast.Binary:
		if k.Op != "+" {
			return "", NewComputedKeyError(k, ctx, "only + concatenation is supported")
		}
	case *ast.Call:
		if m, ok := k.Callee.(*ast.Member); !ok || m.Property != "concat" {
			return "", NewComputedKeyError(k, ctx, "only string concat calls are supported")
		}
	default:
		return "", NewComputedKeyError(kv.Key, ctx, "unsupported key expression")
	}

	v, vctx, err := evaluate(kv.Key, ctx)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case *ast.StringLit:
		return v.Value, nil
	case *ast.NumberLit:
		return ast.FormatNumber(v.Value), nil
	case *ast.Call:
		// a keyframes definition used as a key names the animation
		if vctx.StyleAPI(v.Callee) == "keyframes" {
			name, _, err := BuildKeyframes(v, vctx)
			return name, err
		}
	}
	return "", NewComputedKeyError(kv.Key, ctx, "key does not reduce to a static string")
}

// buildValue builds the declaration or nested rule for one object property
func buildValue(key string, value ast.Expr, ctx *Context) (*Output, error) {
	v, vctx, err := evaluate(value, ctx)
	if err != nil {
		return nil, err
	}
	if isNothing(v) {
		return &Output{}, nil
	}

	switch x := v.(type) {
	case *ast.StringLit:
		return declaration(key, x.Value), nil
	case *ast.NumberLit:
		return declaration(key, withUnit(cssProperty(key), x)), nil
	case *ast.ObjectLit:
		return nested(key, v, vctx)
	case *ast.TemplateLit:
		text, out, err := templateValue(x, vctx)
		if err != nil {
			return nil, err
		}
		out.add(declaration(key, text))
		return out, nil
	case *ast.Call:
		switch vctx.StyleAPI(x.Callee) {
		case "css":
			return nested(key, v, vctx)
		case "keyframes":
			return keyframesDeclaration(key, v, vctx)
		}
	case *ast.TaggedTemplate:
		switch vctx.StyleAPI(x.Tag) {
		case "css":
			return nested(key, v, vctx)
		case "keyframes":
			return keyframesDeclaration(key, v, vctx)
		}
	case *ast.Logical:
		if x.Op == "&&" {
			inner, err := buildValue(key, x.Y, vctx)
			if err != nil {
				return nil, err
			}
			inner = normalize(inner)
			out := &Output{Variables: inner.Variables}
			for _, it := range inner.CSS {
				out.CSS = append(out.CSS, guard(it, x.X)...)
			}
			return out, nil
		}
	case *ast.Conditional:
		cons, err := buildValue(key, x.Cons, vctx)
		if err != nil {
			return nil, err
		}
		alt, err := buildValue(key, x.Alt, vctx)
		if err != nil {
			return nil, err
		}
		return conditional(x.Test, normalize(cons), normalize(alt), x.Cons, x.Alt, vctx)
	case *ast.ArrayLit:
		out := &Output{}
		for _, el := range x.Elems {
			if el == nil {
				continue
			}
			if _, ok := el.(*ast.Spread); ok {
				return nil, NewArrayElementError(el, vctx)
			}
			sub, err := buildValue(key, el, vctx)
			if err != nil {
				return nil, err
			}
			out.add(sub)
		}
		return out, nil
	case *ast.Func:
		if body := returnedExpr(x); body != nil {
			fctx := vctx.withFrame(vctx.env, vctx.File.ScopeOf(x))
			if r, _, err := evaluate(body, fctx); err != nil {
				return nil, err
			} else if ast.Literal(r) {
				return buildValue(key, r, fctx)
			}
		}
	}

	name, out, err := variable(v, vctx, "", "")
	if err != nil {
		return nil, err
	}
	out.add(declaration(key, "var("+name+")"))
	return out, nil
}

// nested wraps the CSS built from a style value in a rule keyed by the
// selector or at-rule key
func nested(key string, v ast.Expr, ctx *Context) (*Output, error) {
	inner, err := Build(v, ctx)
	if err != nil {
		return nil, err
	}
	out := &Output{Variables: inner.Variables}
	for _, it := range inner.CSS {
		out.CSS = append(out.CSS, wrapRule(key, it))
	}
	return out, nil
}

func wrapRule(key string, it Item) Item {
	switch it := it.(type) {
	case *Unconditional:
		return &Unconditional{CSS: key + "{" + it.CSS + "}"}
	case *Logical:
		return &Logical{CSS: key + "{" + it.CSS + "}", Expression: it.Expression, Operator: it.Operator}
	case *Conditional:
		return &Conditional{Test: it.Test, Consequent: wrapRule(key, it.Consequent), Alternate: wrapRule(key, it.Alternate)}
	}
	return it
}

func keyframesDeclaration(key string, v ast.Expr, ctx *Context) (*Output, error) {
	name, out, err := BuildKeyframes(v, ctx)
	if err != nil {
		return nil, err
	}
	out.add(declaration(key, name))
	return out, nil
}

func declaration(key, value string) *Output {
	out := &Output{}
	out.css(cssProperty(key) + ":" + value + ";")
	return out
}

// isNothing reports values that drop their property: null, undefined and false
func isNothing(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.NullLit:
		return true
	case *ast.BoolLit:
		return !x.Value
	}
	return ast.Undefined(e)
}

// selectorKey reports keys that name nested rules rather than properties
func selectorKey(key string) bool {
	if key == "" {
		return false
	}
	switch key[0] {
	case '@', ':', '&', '>', '+', '~', '[', '.', '#', '*':
		return true
	}
	return strings.ContainsAny(key, " ,")
}
