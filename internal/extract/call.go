package extract

import (
	"strings"

	"bennypowers.dev/csslift/internal/ast"
)

// evaluateCall evaluates a call to a statically known function by binding
// its arguments in a fresh frame and evaluating the returned expression.
// Style API calls are left for the builder.
func evaluateCall(c *ast.Call, ctx *Context) (ast.Expr, *Context, error) {
	if ctx.StyleAPI(c.Callee) != "" {
		return c, ctx, nil
	}
	if v, ok, err := evaluateConcat(c, ctx); err != nil || ok {
		return v, ctx, err
	}

	fn, fctx, err := calleeFunc(c.Callee, ctx)
	if err != nil {
		return nil, nil, err
	}
	if fn == nil {
		return c, ctx, nil
	}

	args := make([]envValue, 0, len(c.Args))
	for _, a := range c.Args {
		if _, isSpread := a.(*ast.Spread); isSpread {
			return c, ctx, nil
		}
		v, vctx, err := evaluate(a, ctx)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, envValue{expr: v, ctx: vctx})
	}

	scope := fctx.File.ScopeOf(fn)
	env := newFrame(fctx.env)
	callCtx := fctx.withFrame(env, scope)
	for i, param := range fn.Params {
		if _, isRest := param.(*ast.RestPattern); isRest {
			var rest []envValue
			if i < len(args) {
				rest = args[i:]
			}
			if err := bindRest(param.(*ast.RestPattern), rest, scope, env, ctx); err != nil {
				return nil, nil, err
			}
			break
		}
		var arg *envValue
		if i < len(args) {
			arg = &args[i]
		}
		if err := bindParam(param, arg, scope, env, callCtx); err != nil {
			return nil, nil, err
		}
	}

	body := returnedExpr(fn)
	if body == nil {
		return c, ctx, nil
	}
	v, vctx, err := evaluate(body, callCtx)
	if err != nil {
		return nil, nil, err
	}
	if reducible(v, vctx) {
		return v, vctx, nil
	}
	return c, ctx, nil
}

// evaluateConcat folds 'a'.concat('b', 1) when every operand is a literal
func evaluateConcat(c *ast.Call, ctx *Context) (ast.Expr, bool, error) {
	m, ok := c.Callee.(*ast.Member)
	if !ok || m.Property != "concat" {
		return nil, false, nil
	}
	obj, _, err := evaluate(m.Object, ctx)
	if err != nil {
		return nil, false, err
	}
	s, ok := obj.(*ast.StringLit)
	if !ok {
		return nil, false, nil
	}
	var sb strings.Builder
	sb.WriteString(s.Value)
	for _, a := range c.Args {
		v, _, err := evaluate(a, ctx)
		if err != nil {
			return nil, false, err
		}
		if !ast.Literal(v) {
			return nil, false, nil
		}
		sb.WriteString(stringify(v))
	}
	return &ast.StringLit{Span: c.Span, Value: sb.String()}, true, nil
}

// calleeFunc resolves a callee to the function it names
func calleeFunc(e ast.Expr, ctx *Context) (*ast.Func, *Context, error) {
	for range maxDepth {
		switch x := e.(type) {
		case *ast.Func:
			return x, ctx, nil
		case *ast.Ident:
			r, err := resolveBinding(x, ctx)
			if err != nil || r == nil || !r.Constant || r.Node == nil {
				return nil, nil, err
			}
			if id, ok := r.Node.(*ast.Ident); ok && id == x {
				return nil, nil, nil
			}
			if r.Binding != nil && r.Node == ast.Expr(r.Binding.Ident) {
				return nil, nil, nil
			}
			e, ctx = r.Node, r.Ctx
		case *ast.Member:
			v, vctx, ok, err := memberValue(x, ctx)
			if err != nil || !ok {
				return nil, nil, err
			}
			if v == ast.Expr(x) {
				return nil, nil, nil
			}
			e, ctx = v, vctx
		default:
			return nil, nil, nil
		}
	}
	return nil, nil, nil
}

// bindParam binds one parameter pattern to an argument. Parameters left
// unbound resolve to themselves.
func bindParam(p ast.Pattern, arg *envValue, scope *ast.Scope, env *frame, callCtx *Context) error {
	switch p := p.(type) {
	case *ast.Ident:
		if arg == nil || ast.Undefined(arg.expr) {
			return nil
		}
		if b := ownBinding(scope, p.Name); b != nil {
			env.set(b, arg.expr, arg.ctx)
		}
	case *ast.AssignPattern:
		if arg == nil || ast.Undefined(arg.expr) {
			v, vctx, err := evaluate(p.Default, callCtx)
			if err != nil {
				return err
			}
			arg = &envValue{expr: v, ctx: vctx}
		}
		return bindParam(p.Target, arg, scope, env, callCtx)
	case *ast.ObjectPattern:
		if arg == nil {
			return nil
		}
		for _, prop := range p.Props {
			key := prop.Key
			if prop.Computed != nil {
				k, _, err := evaluate(prop.Computed, callCtx)
				if err != nil {
					return err
				}
				if !ast.Literal(k) {
					continue
				}
				key = stringify(k)
			}
			v, vctx, ok, err := property(arg.expr, arg.ctx, key)
			if err != nil {
				return err
			}
			var next *envValue
			if ok {
				ev, ectx, err := evaluate(v, vctx)
				if err != nil {
					return err
				}
				next = &envValue{expr: ev, ctx: ectx}
			}
			if err := bindParam(prop.Value, next, scope, env, callCtx); err != nil {
				return err
			}
		}
	case *ast.ArrayPattern:
		if arg == nil {
			return nil
		}
		for i, el := range p.Elems {
			if el == nil {
				continue
			}
			if _, isRest := el.(*ast.RestPattern); isRest {
				break
			}
			v, vctx, ok, err := property(arg.expr, arg.ctx, ast.FormatNumber(float64(i)))
			if err != nil {
				return err
			}
			var next *envValue
			if ok {
				ev, ectx, err := evaluate(v, vctx)
				if err != nil {
					return err
				}
				next = &envValue{expr: ev, ctx: ectx}
			}
			if err := bindParam(el, next, scope, env, callCtx); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindRest binds ...args to an array of the remaining arguments when they
// all come from the calling context
func bindRest(p *ast.RestPattern, rest []envValue, scope *ast.Scope, env *frame, caller *Context) error {
	id, ok := p.Arg.(*ast.Ident)
	if !ok {
		return nil
	}
	arr := &ast.ArrayLit{}
	for _, a := range rest {
		if a.ctx != caller && !ast.Literal(a.expr) {
			return nil
		}
		arr.Elems = append(arr.Elems, a.expr)
	}
	if b := ownBinding(scope, id.Name); b != nil {
		env.set(b, arr, caller)
	}
	return nil
}

func ownBinding(scope *ast.Scope, name string) *ast.Binding {
	if scope == nil {
		return nil
	}
	return scope.Own(name)
}

// returnedExpr is the expression body of an arrow function or the argument
// of the first return statement reachable without branching
func returnedExpr(fn *ast.Func) ast.Expr {
	if fn.Expr != nil {
		return fn.Expr
	}
	if fn.Block == nil {
		return nil
	}
	return firstReturn(fn.Block.Body)
}

func firstReturn(stmts []ast.Stmt) ast.Expr {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Return:
			return s.Arg
		case *ast.Block:
			if r := firstReturn(s.Body); r != nil {
				return r
			}
		}
	}
	return nil
}
