package extract

import (
	"math"
	"strings"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/parser/js"
)

// Evaluate reduces an expression as far as static analysis allows. It
// returns the reduced expression and the context owning it. An expression
// that cannot be reduced comes back unchanged; only structural problems
// such as import cycles are errors.
func Evaluate(e ast.Expr, ctx *Context) (ast.Expr, *Context, error) {
	return evaluate(e, ctx)
}

func evaluate(e ast.Expr, ctx *Context) (ast.Expr, *Context, error) {
	p := ctx.pass
	if p.depth > maxDepth {
		return e, ctx, nil
	}
	p.depth++
	defer func() { p.depth-- }()

	switch x := e.(type) {
	case *ast.Ident:
		return evaluateIdent(x, ctx)
	case *ast.Member:
		return evaluateMember(x, ctx)
	case *ast.Call:
		return evaluateCall(x, ctx)
	case *ast.Binary:
		return evaluateBinary(x, ctx)
	case *ast.Unary:
		return evaluateUnary(x, ctx)
	case *ast.Logical:
		return evaluateLogical(x, ctx)
	case *ast.Conditional:
		test, _, err := evaluate(x.Test, ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ast.Literal(test) && !ast.Undefined(test) {
			return x, ctx, nil
		}
		if truthy(test) {
			return evaluate(x.Cons, ctx)
		}
		return evaluate(x.Alt, ctx)
	case *ast.TemplateLit:
		return evaluateTemplate(x, ctx)
	case *ast.Sequence:
		if len(x.Exprs) == 0 {
			return x, ctx, nil
		}
		return evaluate(x.Exprs[len(x.Exprs)-1], ctx)
	}
	return e, ctx, nil
}

// reducible reports whether an evaluated value is worth substituting for the
// name that led to it
func reducible(e ast.Expr, ctx *Context) bool {
	switch x := e.(type) {
	case *ast.StringLit, *ast.NumberLit, *ast.BoolLit, *ast.NullLit,
		*ast.ObjectLit, *ast.ArrayLit, *ast.TemplateLit,
		*ast.Logical, *ast.Conditional:
		return true
	case *ast.Call:
		return ctx.StyleAPI(x.Callee) != ""
	case *ast.TaggedTemplate:
		return ctx.StyleAPI(x.Tag) != ""
	}
	return false
}

func evaluateIdent(id *ast.Ident, ctx *Context) (ast.Expr, *Context, error) {
	r, err := resolveBinding(id, ctx)
	if err != nil {
		return nil, nil, err
	}
	if r == nil || r.Namespace || !r.Constant || r.Node == nil {
		return id, ctx, nil
	}
	if r.Binding != nil && r.Node == ast.Expr(r.Binding.Ident) {
		return id, ctx, nil
	}
	if b := r.Binding; b != nil && !r.Imported {
		if !ctx.pass.evaluating.Insert(b) {
			return id, ctx, nil
		}
		defer ctx.pass.evaluating.Delete(b)
	}

	v, vctx, err := evaluate(r.Node, r.Ctx)
	if err != nil {
		return nil, nil, err
	}
	if reducible(v, vctx) {
		return v, vctx, nil
	}
	if r.Argument {
		// a parameter means nothing at the call site, its argument does
		return v, vctx, nil
	}
	if r.Imported {
		// the local name is not a value the importing file can bind to a
		// variable, so hand back the foreign expression and let the builder
		// report it
		return v, vctx, nil
	}
	return id, ctx, nil
}

func evaluateBinary(b *ast.Binary, ctx *Context) (ast.Expr, *Context, error) {
	x, _, err := evaluate(b.X, ctx)
	if err != nil {
		return nil, nil, err
	}
	y, _, err := evaluate(b.Y, ctx)
	if err != nil {
		return nil, nil, err
	}
	if v := foldBinary(b.Op, x, y); v != nil {
		return v, ctx, nil
	}
	return b, ctx, nil
}

func foldBinary(op string, x, y ast.Expr) ast.Expr {
	if !ast.Literal(x) || !ast.Literal(y) {
		return nil
	}
	xs, xIsString := x.(*ast.StringLit)
	ys, yIsString := y.(*ast.StringLit)
	xn, xIsNum := x.(*ast.NumberLit)
	yn, yIsNum := y.(*ast.NumberLit)

	switch op {
	case "+":
		if xIsString || yIsString {
			return &ast.StringLit{Value: stringify(x) + stringify(y)}
		}
		if xIsNum && yIsNum {
			return number(xn.Value + yn.Value)
		}
		return nil
	case "===", "==":
		return &ast.BoolLit{Value: literalEqual(x, y)}
	case "!==", "!=":
		return &ast.BoolLit{Value: !literalEqual(x, y)}
	}

	if xIsString && yIsString {
		switch op {
		case "<":
			return &ast.BoolLit{Value: xs.Value < ys.Value}
		case ">":
			return &ast.BoolLit{Value: xs.Value > ys.Value}
		case "<=":
			return &ast.BoolLit{Value: xs.Value <= ys.Value}
		case ">=":
			return &ast.BoolLit{Value: xs.Value >= ys.Value}
		}
		return nil
	}
	if !xIsNum || !yIsNum {
		return nil
	}
	a, c := xn.Value, yn.Value
	switch op {
	case "-":
		return number(a - c)
	case "*":
		return number(a * c)
	case "/":
		if c == 0 {
			return nil
		}
		return number(a / c)
	case "%":
		if c == 0 {
			return nil
		}
		return number(math.Mod(a, c))
	case "**":
		return number(math.Pow(a, c))
	case "<":
		return &ast.BoolLit{Value: a < c}
	case ">":
		return &ast.BoolLit{Value: a > c}
	case "<=":
		return &ast.BoolLit{Value: a <= c}
	case ">=":
		return &ast.BoolLit{Value: a >= c}
	case "&":
		return number(float64(toInt32(a) & toInt32(c)))
	case "|":
		return number(float64(toInt32(a) | toInt32(c)))
	case "^":
		return number(float64(toInt32(a) ^ toInt32(c)))
	case "<<":
		return number(float64(toInt32(a) << (uint32(toInt32(c)) & 31)))
	case ">>":
		return number(float64(toInt32(a) >> (uint32(toInt32(c)) & 31)))
	case ">>>":
		return number(float64(uint32(toInt32(a)) >> (uint32(toInt32(c)) & 31)))
	}
	return nil
}

func evaluateUnary(u *ast.Unary, ctx *Context) (ast.Expr, *Context, error) {
	x, xctx, err := evaluate(u.X, ctx)
	if err != nil {
		return nil, nil, err
	}
	switch u.Op {
	case "-":
		if n, ok := x.(*ast.NumberLit); ok {
			return number(-n.Value), ctx, nil
		}
		return &ast.Binary{Span: u.Span, Op: "*", X: &ast.NumberLit{Value: -1, Raw: "-1"}, Y: x}, xctx, nil
	case "+":
		if n, ok := x.(*ast.NumberLit); ok {
			return n, ctx, nil
		}
	case "!":
		if ast.Literal(x) || ast.Undefined(x) {
			return &ast.BoolLit{Value: !truthy(x)}, ctx, nil
		}
	case "typeof":
		switch x.(type) {
		case *ast.StringLit, *ast.TemplateLit:
			return &ast.StringLit{Value: "string"}, ctx, nil
		case *ast.NumberLit:
			return &ast.StringLit{Value: "number"}, ctx, nil
		case *ast.BoolLit:
			return &ast.StringLit{Value: "boolean"}, ctx, nil
		case *ast.NullLit, *ast.ObjectLit, *ast.ArrayLit:
			return &ast.StringLit{Value: "object"}, ctx, nil
		case *ast.Func:
			return &ast.StringLit{Value: "function"}, ctx, nil
		}
	}
	return u, ctx, nil
}

func evaluateLogical(l *ast.Logical, ctx *Context) (ast.Expr, *Context, error) {
	x, xctx, err := evaluate(l.X, ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ast.Literal(x) && !ast.Undefined(x) {
		return l, ctx, nil
	}
	switch l.Op {
	case "&&":
		if !truthy(x) {
			return x, xctx, nil
		}
	case "||":
		if truthy(x) {
			return x, xctx, nil
		}
	case "??":
		if !nullish(x) {
			return x, xctx, nil
		}
	}
	return evaluate(l.Y, ctx)
}

// evaluateTemplate folds a template literal whose interpolations all reduce
// to literals
func evaluateTemplate(t *ast.TemplateLit, ctx *Context) (ast.Expr, *Context, error) {
	var sb strings.Builder
	for i, q := range t.Quasis {
		sb.WriteString(js.Unescape(q))
		if i >= len(t.Exprs) {
			break
		}
		v, _, err := evaluate(t.Exprs[i], ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ast.Literal(v) {
			return t, ctx, nil
		}
		sb.WriteString(stringify(v))
	}
	return &ast.StringLit{Span: t.Span, Value: sb.String()}, ctx, nil
}

// stringify converts a literal the way JavaScript string conversion does
func stringify(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.StringLit:
		return x.Value
	case *ast.NumberLit:
		return ast.FormatNumber(x.Value)
	case *ast.BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *ast.NullLit:
		return "null"
	}
	if ast.Undefined(e) {
		return "undefined"
	}
	return ""
}

func truthy(e ast.Expr) bool {
	return !ast.Falsy(e)
}

func nullish(e ast.Expr) bool {
	_, isNull := e.(*ast.NullLit)
	return isNull || ast.Undefined(e)
}

func literalEqual(x, y ast.Expr) bool {
	switch a := x.(type) {
	case *ast.StringLit:
		b, ok := y.(*ast.StringLit)
		return ok && a.Value == b.Value
	case *ast.NumberLit:
		b, ok := y.(*ast.NumberLit)
		return ok && a.Value == b.Value
	case *ast.BoolLit:
		b, ok := y.(*ast.BoolLit)
		return ok && a.Value == b.Value
	case *ast.NullLit:
		_, ok := y.(*ast.NullLit)
		return ok
	}
	return false
}

func number(v float64) *ast.NumberLit {
	return &ast.NumberLit{Value: v}
}

func toInt32(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int32(int64(v))
}
