package extract

import (
	"strconv"

	"bennypowers.dev/csslift/internal/ast"
)

// evaluateMember reduces a member chain such as a.b.c, a['b'] or a.b().c by
// resolving its root and stepping into object literals, arrays and
// namespace imports. The original expression is returned when any step
// cannot be taken.
func evaluateMember(m *ast.Member, ctx *Context) (ast.Expr, *Context, error) {
	v, vctx, ok, err := memberValue(m, ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return m, ctx, nil
	}
	return v, vctx, nil
}

func memberValue(m *ast.Member, ctx *Context) (ast.Expr, *Context, bool, error) {
	key, ok, err := memberKey(m, ctx)
	if err != nil || !ok {
		return nil, nil, false, err
	}

	if root, isIdent := m.Object.(*ast.Ident); isIdent {
		r, err := resolveBinding(root, ctx)
		if err != nil {
			return nil, nil, false, err
		}
		if r != nil && r.Namespace {
			exp, err := findExport(r.Ctx, key)
			if err != nil || exp == nil || exp.Node == nil {
				return nil, nil, false, err
			}
			if !exp.Constant {
				// a mutable export is still a usable reference of the
				// exporting file, but not a value
				return exp.Node, exp.Ctx, true, nil
			}
			v, vctx, err := evaluate(exp.Node, exp.Ctx)
			return v, vctx, err == nil, err
		}
	}

	obj, octx, err := evaluate(m.Object, ctx)
	if err != nil {
		return nil, nil, false, err
	}
	v, vctx, ok, err := property(obj, octx, key)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	v, vctx, err = evaluate(v, vctx)
	return v, vctx, err == nil, err
}

// memberKey returns the static property name of a member expression
func memberKey(m *ast.Member, ctx *Context) (string, bool, error) {
	if m.Computed == nil {
		return m.Property, true, nil
	}
	k, _, err := evaluate(m.Computed, ctx)
	if err != nil {
		return "", false, err
	}
	switch k := k.(type) {
	case *ast.StringLit:
		return k.Value, true, nil
	case *ast.NumberLit:
		return ast.FormatNumber(k.Value), true, nil
	}
	return "", false, nil
}

// property reads key from an evaluated object, array or string. Object
// spreads are followed and the last matching property wins.
func property(obj ast.Expr, ctx *Context, key string) (ast.Expr, *Context, bool, error) {
	switch o := obj.(type) {
	case *ast.ObjectLit:
		var (
			found  ast.Expr
			fctx   *Context
			exists bool
		)
		for _, prop := range o.Props {
			switch p := prop.(type) {
			case *ast.KeyValue:
				name, ok, err := staticKey(p, ctx)
				if err != nil {
					return nil, nil, false, err
				}
				if ok && name == key {
					found, fctx, exists = p.Value, ctx, true
				}
			case *ast.Spread:
				spread, sctx, err := evaluate(p.Arg, ctx)
				if err != nil {
					return nil, nil, false, err
				}
				v, vctx, ok, err := property(spread, sctx, key)
				if err != nil {
					return nil, nil, false, err
				}
				if ok {
					found, fctx, exists = v, vctx, true
				}
			}
		}
		return found, fctx, exists, nil
	case *ast.ArrayLit:
		if key == "length" {
			return number(float64(len(o.Elems))), ctx, true, nil
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(o.Elems) {
			return nil, nil, false, nil
		}
		for _, el := range o.Elems[:i+1] {
			if _, isSpread := el.(*ast.Spread); isSpread {
				return nil, nil, false, nil
			}
		}
		if o.Elems[i] == nil {
			return nil, nil, false, nil
		}
		return o.Elems[i], ctx, true, nil
	case *ast.StringLit:
		if key == "length" {
			return number(float64(len([]rune(o.Value)))), ctx, true, nil
		}
	}
	return nil, nil, false, nil
}

// staticKey returns the name of an object property when it is known
// without running the program
func staticKey(kv *ast.KeyValue, ctx *Context) (string, bool, error) {
	if !kv.Computed {
		switch k := kv.Key.(type) {
		case *ast.Ident:
			return k.Name, true, nil
		case *ast.StringLit:
			return k.Value, true, nil
		case *ast.NumberLit:
			return ast.FormatNumber(k.Value), true, nil
		}
		return "", false, nil
	}
	k, _, err := evaluate(kv.Key, ctx)
	if err != nil {
		return "", false, err
	}
	switch k := k.(type) {
	case *ast.StringLit:
		return k.Value, true, nil
	case *ast.NumberLit:
		return ast.FormatNumber(k.Value), true, nil
	}
	return "", false, nil
}
