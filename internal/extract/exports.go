package extract

import (
	"errors"
	"slices"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/cache"
)

var (
	// errNotExported keeps negative lookups out of the cache
	errNotExported = errors.New("not exported")
	// errPassBound keeps results tied to a call frame out of the cache
	errPassBound = errors.New("bound to an evaluation frame")
)

// exportEntry is the cached form of an export. It holds only what stays
// valid across passes: nodes of the cached parse, and the files that must
// be recorded as included whenever the export is used.
type exportEntry struct {
	node      ast.Expr
	file      *ast.File
	binding   *ast.Binding
	constant  bool
	imported  bool
	namespace bool
	files     []string
}

func (e *exportEntry) result(p *Pass) *BindingResult {
	return &BindingResult{
		Node:      e.node,
		Ctx:       p.fragment(e.file),
		Constant:  e.constant,
		Imported:  e.imported,
		Namespace: e.namespace,
		Binding:   e.binding,
	}
}

// findExport locates the value of an export of the file owned by fctx.
// name is "default" for the default export. It returns nil, nil when the
// file has no such export.
func findExport(fctx *Context, name string) (*BindingResult, error) {
	p := fctx.pass
	key := fctx.File.Path + "#" + name
	if p.inProgress.Has(key) {
		return nil, NewCircularImportError(append(slices.Clone(p.stack), key))
	}
	p.inProgress.Add(key)
	p.stack = append(p.stack, key)
	defer func() {
		p.inProgress.Delete(key)
		p.stack = p.stack[:len(p.stack)-1]
	}()

	var fresh *BindingResult
	entry, err := cache.Load(p.cache, exportNamespace, key, func() (*exportEntry, error) {
		rec := p.record()
		defer p.stopRecording()
		r, err := lookupExport(fctx, name)
		if err == nil {
			r, err = chaseAlias(r)
		}
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, errNotExported
		}
		fresh = r
		if !portable(r.Ctx) {
			return nil, errPassBound
		}
		return &exportEntry{
			node:      r.Node,
			file:      r.Ctx.File,
			binding:   r.Binding,
			constant:  r.Constant,
			imported:  r.Imported,
			namespace: r.Namespace,
			files:     slices.Clone(*rec),
		}, nil
	})
	switch {
	case fresh != nil:
		return fresh, nil
	case errors.Is(err, errNotExported):
		return nil, nil
	case err != nil:
		return nil, err
	}
	for _, path := range entry.files {
		p.touch(path)
	}
	return entry.result(p), nil
}

// portable reports whether a result context can be rebuilt from its file
// alone
func portable(ctx *Context) bool {
	return ctx != nil && ctx.File != nil && ctx.env == nil &&
		ctx.Kind == FragmentKind && ctx.Scope == ctx.File.Scope
}

func lookupExport(fctx *Context, name string) (*BindingResult, error) {
	f := fctx.File
	if f.Program == nil {
		return nil, nil
	}
	var stars []*ast.Export
	for _, stmt := range f.Program.Body {
		exp, ok := stmt.(*ast.Export)
		if !ok {
			continue
		}
		if exp.Star {
			stars = append(stars, exp)
			continue
		}
		if name == "default" && exp.Default != nil {
			if id, ok := exp.Default.(*ast.Ident); ok {
				return resolveBinding(id, fctx)
			}
			return &BindingResult{Node: exp.Default, Ctx: fctx, Constant: !mutated(exp.Default, fctx)}, nil
		}
		if exp.Decl != nil && exp.Default == nil {
			if r, ok, err := declExport(exp.Decl, name, fctx); ok || err != nil {
				return r, err
			}
		}
		if exp.StarAs == name && exp.Source != "" {
			target, ok := reexportTarget(fctx, exp.Source)
			if !ok {
				return nil, nil
			}
			return &BindingResult{Ctx: target, Constant: true, Imported: true, Namespace: true}, nil
		}
		for _, spec := range exp.Specs {
			if spec.Exported != name {
				continue
			}
			if exp.Source != "" {
				target, ok := reexportTarget(fctx, exp.Source)
				if !ok {
					return nil, nil
				}
				return findExport(target, spec.Local)
			}
			b := f.Scope.Own(spec.Local)
			if b == nil {
				return nil, nil
			}
			return resolveFromBinding(b, fctx)
		}
	}

	if name == "default" {
		return nil, nil
	}
	for _, exp := range stars {
		target, ok := reexportTarget(fctx, exp.Source)
		if !ok {
			continue
		}
		r, err := findExport(target, name)
		if err != nil || r != nil {
			return r, err
		}
	}
	return nil, nil
}

// chaseAlias follows an export whose value is another name, such as
// export const a = b, while the export is still marked in progress, so
// that alias loops across files surface as circular imports
func chaseAlias(r *BindingResult) (*BindingResult, error) {
	for range maxDepth {
		if r == nil || !r.Constant {
			return r, nil
		}
		id, ok := r.Node.(*ast.Ident)
		if !ok {
			return r, nil
		}
		next, err := resolveBinding(id, r.Ctx)
		if err != nil {
			return nil, err
		}
		if next == nil || next.Namespace || next.Node == r.Node {
			return r, nil
		}
		if next.Binding != nil && next.Node == ast.Expr(next.Binding.Ident) {
			return r, nil
		}
		r = next
	}
	return r, nil
}

// declExport checks whether an exported declaration declares name
func declExport(decl ast.Stmt, name string, fctx *Context) (*BindingResult, bool, error) {
	switch d := decl.(type) {
	case *ast.VarDecl:
		b := fctx.File.Scope.Own(name)
		if b == nil || b.Declarator == nil || !slices.Contains(d.Decls, b.Declarator) {
			return nil, false, nil
		}
		r, err := resolveFromBinding(b, fctx)
		return r, true, err
	case *ast.FuncDecl:
		if d.Name != nil && d.Name.Name == name {
			b := fctx.File.Scope.Own(name)
			constant := b == nil || b.Constant()
			return &BindingResult{Node: d.Func, Ctx: fctx, Constant: constant, Binding: b}, true, nil
		}
	case *ast.ClassDecl:
		if d.Name != nil && d.Name.Name == name {
			return &BindingResult{Node: d.Name, Ctx: fctx}, true, nil
		}
	}
	return nil, false, nil
}

// reexportTarget loads the module named by a re-export
func reexportTarget(fctx *Context, request string) (*Context, bool) {
	p := fctx.pass
	if p.isImportSource(request) {
		return nil, false
	}
	target, err := p.resolvePath(fctx.File.Path, request)
	if err != nil || !p.sourceExtension(target) {
		return nil, false
	}
	f, err := p.load(target)
	if err != nil {
		return nil, false
	}
	p.touch(target)
	return p.fragment(f), true
}
