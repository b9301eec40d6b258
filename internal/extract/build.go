package extract

import (
	"bennypowers.dev/csslift/internal/ast"
)

// Item is one unit of built CSS: *Unconditional, *Logical, *Conditional or
// *Sheet
type Item interface {
	item()
}

type (
	// Unconditional CSS always applies
	Unconditional struct {
		CSS string
	}

	// Logical CSS applies when Expression, joined with Operator, selects it:
	// Expression && css, Expression || css or Expression ?? css
	Logical struct {
		CSS        string
		Expression ast.Expr
		Operator   string
	}

	// Conditional picks Consequent or Alternate at runtime
	Conditional struct {
		Test       ast.Expr
		Consequent Item
		Alternate  Item
	}

	// Sheet is a standalone rule such as @keyframes, emitted as is
	Sheet struct {
		CSS string
	}
)

func (*Unconditional) item() {}
func (*Logical) item()       {}
func (*Conditional) item()   {}
func (*Sheet) item()         {}

// Variable binds a generated custom property to the runtime expression that
// sets it
type Variable struct {
	Name       string
	Expression ast.Expr
	// Prefix and Suffix wrap the runtime value, e.g. a unit or quotes taken
	// from the surrounding template
	Prefix string
	Suffix string
}

// Output is the built form of a style definition
type Output struct {
	CSS       []Item
	Variables []*Variable
}

func (o *Output) add(other *Output) {
	if other == nil {
		return
	}
	o.CSS = append(o.CSS, other.CSS...)
	o.Variables = append(o.Variables, other.Variables...)
}

func (o *Output) css(text string) {
	if text != "" {
		o.CSS = append(o.CSS, &Unconditional{CSS: text})
	}
}

// Build turns a style value into normalized CSS items and variables
func Build(e ast.Expr, ctx *Context) (*Output, error) {
	out, err := build(e, ctx)
	if err != nil {
		return nil, err
	}
	return normalize(out), nil
}

func build(e ast.Expr, ctx *Context) (*Output, error) {
	if e == nil || (ast.Falsy(e) && !isZero(e)) {
		return &Output{}, nil
	}
	switch x := e.(type) {
	case *ast.StringLit:
		out := &Output{}
		out.css(x.Value)
		return out, nil
	case *ast.BoolLit:
		return &Output{}, nil
	case *ast.TemplateLit:
		return buildTemplate(x, ctx, false)
	case *ast.ObjectLit:
		return buildObject(x, ctx)
	case *ast.ArrayLit:
		return buildArray(x, ctx)
	case *ast.Logical:
		return buildLogical(x, ctx)
	case *ast.Conditional:
		return buildConditional(x, ctx)
	case *ast.TaggedTemplate:
		return buildStyleTag(x, ctx)
	case *ast.Call:
		return buildCall(x, ctx)
	case *ast.Func:
		body := returnedExpr(x)
		if body == nil {
			return nil, NewUnhandledValueError(x, ctx)
		}
		return build(body, ctx.withFrame(ctx.env, ctx.File.ScopeOf(x)))
	case *ast.Ident:
		v, vctx, err := evaluate(x, ctx)
		if err != nil {
			return nil, err
		}
		if v != ast.Expr(x) {
			return build(v, vctx)
		}
		r, err := resolveBinding(x, ctx)
		if err != nil {
			return nil, err
		}
		if r != nil && r.Constant {
			if fn, ok := r.Node.(*ast.Func); ok {
				return build(fn, r.Ctx)
			}
		}
		return nil, NewUnresolvedIdentifierError(x, ctx)
	case *ast.Member:
		v, vctx, err := evaluate(x, ctx)
		if err != nil {
			return nil, err
		}
		if v == ast.Expr(x) {
			return nil, NewUnresolvedIdentifierError(x, ctx)
		}
		return build(v, vctx)
	case *ast.Binary, *ast.Unary, *ast.Sequence:
		v, vctx, err := evaluate(x, ctx)
		if err != nil {
			return nil, err
		}
		if v == e {
			return nil, NewUnhandledValueError(x, ctx)
		}
		return build(v, vctx)
	}
	return nil, NewUnhandledValueError(e, ctx)
}

func isZero(e ast.Expr) bool {
	n, ok := e.(*ast.NumberLit)
	return ok && n.Value == 0
}

func buildArray(a *ast.ArrayLit, ctx *Context) (*Output, error) {
	out := &Output{}
	for _, el := range a.Elems {
		if el == nil {
			continue
		}
		if s, ok := el.(*ast.Spread); ok {
			v, vctx, err := evaluate(s.Arg, ctx)
			if err != nil {
				return nil, err
			}
			arr, ok := v.(*ast.ArrayLit)
			if !ok {
				return nil, NewArrayElementError(s, ctx)
			}
			sub, err := buildArray(arr, vctx)
			if err != nil {
				return nil, err
			}
			out.add(sub)
			continue
		}
		if _, ok := el.(*ast.NumberLit); ok {
			return nil, NewArrayElementError(el, ctx)
		}
		sub, err := build(el, ctx)
		if err != nil {
			return nil, err
		}
		out.add(sub)
	}
	return out, nil
}

// buildCall unwraps style API calls and evaluates anything else
func buildCall(c *ast.Call, ctx *Context) (*Output, error) {
	switch ctx.StyleAPI(c.Callee) {
	case "css", "styled":
		out := &Output{}
		for _, a := range c.Args {
			sub, err := build(a, ctx)
			if err != nil {
				return nil, err
			}
			out.add(sub)
		}
		return out, nil
	case "keyframes":
		return buildKeyframesValue(c, ctx)
	case "":
		v, vctx, err := evaluate(c, ctx)
		if err != nil {
			return nil, err
		}
		if v == ast.Expr(c) {
			return nil, NewUnhandledValueError(c, ctx)
		}
		return build(v, vctx)
	}
	return nil, NewUnhandledValueError(c, ctx)
}

func buildStyleTag(t *ast.TaggedTemplate, ctx *Context) (*Output, error) {
	switch ctx.StyleAPI(t.Tag) {
	case "css", "styled":
		return buildTemplate(t.Quasi, ctx, true)
	case "keyframes":
		return buildKeyframesValue(t, ctx)
	}
	return nil, NewUnhandledValueError(t, ctx)
}

// buildKeyframesValue builds a keyframes definition used where CSS text is
// expected: the animation name, plus the @keyframes sheet
func buildKeyframesValue(e ast.Expr, ctx *Context) (*Output, error) {
	name, out, err := BuildKeyframes(e, ctx)
	if err != nil {
		return nil, err
	}
	out.css(name)
	return out, nil
}

// buildLogical builds `x && style` and its || and ?? forms. The guarded
// style must build to CSS; each of its items ends up guarded by x.
func buildLogical(l *ast.Logical, ctx *Context) (*Output, error) {
	v, vctx, err := evaluate(l, ctx)
	if err != nil {
		return nil, err
	}
	if v != ast.Expr(l) {
		return build(v, vctx)
	}
	inner, err := Build(l.Y, ctx)
	if err != nil {
		return nil, err
	}
	out := &Output{Variables: inner.Variables}
	for _, it := range inner.CSS {
		if u, ok := it.(*Unconditional); ok {
			out.CSS = append(out.CSS, &Logical{CSS: u.CSS, Expression: l.X, Operator: l.Op})
			continue
		}
		out.CSS = append(out.CSS, guard(it, guardExpr(l.X, l.Op))...)
	}
	return out, nil
}

// buildConditional builds `test ? a : b`. Each branch must build to at most
// one item; a missing branch degrades the result to a logical item.
func buildConditional(c *ast.Conditional, ctx *Context) (*Output, error) {
	v, vctx, err := evaluate(c, ctx)
	if err != nil {
		return nil, err
	}
	if v != ast.Expr(c) {
		return build(v, vctx)
	}
	cons, err := Build(c.Cons, ctx)
	if err != nil {
		return nil, err
	}
	alt, err := Build(c.Alt, ctx)
	if err != nil {
		return nil, err
	}
	return conditional(c.Test, cons, alt, c.Cons, c.Alt, ctx)
}

// conditional combines two built branches under a test
func conditional(test ast.Expr, cons, alt *Output, consExpr, altExpr ast.Expr, ctx *Context) (*Output, error) {
	out := &Output{}
	out.Variables = append(append(out.Variables, cons.Variables...), alt.Variables...)

	c, sheets, n := branch(cons)
	if n > 1 {
		return nil, NewConditionalBranchError(consExpr, ctx, n)
	}
	out.CSS = append(out.CSS, sheets...)
	a, sheets, n := branch(alt)
	if n > 1 {
		return nil, NewConditionalBranchError(altExpr, ctx, n)
	}
	out.CSS = append(out.CSS, sheets...)

	switch {
	case c != nil && a != nil:
		out.CSS = append(out.CSS, &Conditional{Test: test, Consequent: c, Alternate: a})
	case c != nil:
		out.CSS = append(out.CSS, guard(c, test)...)
	case a != nil:
		out.CSS = append(out.CSS, guard(a, not(test))...)
	}
	return out, nil
}

// branch splits a normalized branch into its single CSS item, its sheets and
// the number of non-sheet items
func branch(o *Output) (Item, []Item, int) {
	var (
		item   Item
		sheets []Item
		n      int
	)
	for _, it := range o.CSS {
		if _, ok := it.(*Sheet); ok {
			sheets = append(sheets, it)
			continue
		}
		item = it
		n++
	}
	return item, sheets, n
}

// guard applies an && condition to an item
func guard(it Item, cond ast.Expr) []Item {
	switch it := it.(type) {
	case *Unconditional:
		return []Item{&Logical{CSS: it.CSS, Expression: cond, Operator: "&&"}}
	case *Logical:
		return []Item{&Logical{CSS: it.CSS, Expression: and(cond, guardExpr(it.Expression, it.Operator)), Operator: "&&"}}
	case *Conditional:
		out := guard(it.Consequent, and(cond, it.Test))
		return append(out, guard(it.Alternate, and(cond, not(it.Test)))...)
	}
	return []Item{it}
}

// guardExpr rewrites the left side of a logical style into the condition
// under which its right side applies
func guardExpr(x ast.Expr, op string) ast.Expr {
	switch op {
	case "||":
		return not(x)
	case "??":
		return &ast.Binary{Op: "==", X: x, Y: &ast.NullLit{}}
	}
	return x
}

func and(x, y ast.Expr) ast.Expr {
	return &ast.Logical{Op: "&&", X: x, Y: y}
}

func not(x ast.Expr) ast.Expr {
	return &ast.Unary{Op: "!", X: x}
}
