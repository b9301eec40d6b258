package extract

import (
	"bennypowers.dev/csslift/internal/ast"
	"go.uber.org/zap"
)

// BindingResult is what a name resolves to
type BindingResult struct {
	// Node is the value expression. It is nil for namespace imports.
	Node ast.Expr
	// Ctx owns Node; for namespace imports it is the imported file
	Ctx *Context
	// Constant is set when neither the binding nor anything its value
	// references is ever reassigned
	Constant bool
	// Imported is set when the value lives in another file
	Imported bool
	// Namespace is set for import * as ns
	Namespace bool
	// Argument is set when Node is the argument bound to a parameter of an
	// inlined call
	Argument bool
	Binding  *ast.Binding
}

// resolveBinding finds the value behind an identifier. It returns nil, nil
// when the identifier cannot be resolved.
func resolveBinding(id *ast.Ident, ctx *Context) (*BindingResult, error) {
	b := ctx.lookup(id)
	if b == nil {
		return nil, nil
	}
	if v, ok := ctx.env.get(b); ok {
		return &BindingResult{Node: v.expr, Ctx: v.ctx, Constant: true, Argument: true, Binding: b}, nil
	}
	return resolveFromBinding(b, ctx)
}

func resolveFromBinding(b *ast.Binding, ctx *Context) (*BindingResult, error) {
	switch b.Kind {
	case ast.VarBinding, ast.LetBinding, ast.ConstBinding:
		return resolveDeclarator(b, ctx)
	case ast.FuncBinding:
		return &BindingResult{Node: b.Func, Ctx: ctx, Constant: b.Constant(), Binding: b}, nil
	case ast.ImportBinding:
		return resolveImport(b, ctx)
	case ast.ParamBinding:
		if b.Destructured() {
			return nil, nil
		}
	}
	return &BindingResult{Node: b.Ident, Ctx: ctx, Binding: b}, nil
}

// resolveDeclarator returns the initializer of a variable, following a
// destructuring path into it
func resolveDeclarator(b *ast.Binding, ctx *Context) (*BindingResult, error) {
	raw := &BindingResult{Node: b.Ident, Ctx: ctx, Binding: b}
	if b.Declarator == nil || b.Declarator.Init == nil {
		return raw, nil
	}
	init := b.Declarator.Init
	constant := b.Constant() && !mutated(init, ctx)
	if !b.Destructured() {
		return &BindingResult{Node: init, Ctx: ctx, Constant: constant, Binding: b}, nil
	}

	value, vctx := ast.Expr(init), ctx
	for _, step := range b.Path {
		if step.Rest {
			return raw, nil
		}
		obj, octx, err := evaluate(value, vctx)
		if err != nil {
			return nil, err
		}
		key := step.Key
		if step.Index >= 0 {
			key = ast.FormatNumber(float64(step.Index))
		}
		next, nctx, ok, err := property(obj, octx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			if b.Default != nil {
				return &BindingResult{Node: b.Default, Ctx: ctx, Constant: constant, Binding: b}, nil
			}
			return raw, nil
		}
		value, vctx = next, nctx
	}
	return &BindingResult{Node: value, Ctx: vctx, Constant: constant && !mutated(value, vctx), Binding: b}, nil
}

// resolveImport follows an import binding into the file it names
func resolveImport(b *ast.Binding, ctx *Context) (*BindingResult, error) {
	p := ctx.pass
	if ctx.File == nil || ctx.File.Path == "" || p.isImportSource(b.Source) {
		return nil, nil
	}
	target, err := p.resolvePath(ctx.File.Path, b.Source)
	if err != nil {
		p.logger.Debug("unresolved import", zap.String("from", ctx.File.Path), zap.String("request", b.Source), zap.Error(err))
		return nil, nil
	}
	if !p.sourceExtension(target) {
		return nil, nil
	}
	f, err := p.load(target)
	if err != nil {
		p.logger.Debug("failed to load import", zap.String("path", target), zap.Error(err))
		return nil, nil
	}
	p.touch(target)
	fctx := p.fragment(f)

	if b.Import.Imported == "*" {
		return &BindingResult{Ctx: fctx, Constant: true, Imported: true, Namespace: true, Binding: b}, nil
	}
	r, err := findExport(fctx, b.Import.Imported)
	if err != nil || r == nil {
		return nil, err
	}
	res := *r
	res.Imported = true
	return &res, nil
}

// mutated reports whether an expression references a binding that is ever
// reassigned. Function bodies are not inspected: they run later, if at all.
func mutated(e ast.Expr, ctx *Context) bool {
	if ctx.File == nil {
		return false
	}
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *ast.Func:
			return false
		case *ast.Ident:
			if b := ctx.File.Lookup(n); b != nil && !b.Constant() {
				found = true
			}
		}
		return true
	})
	return found
}
