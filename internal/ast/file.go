package ast

// File is a parsed source file together with its scope analysis
type File struct {
	Path    string
	Source  []byte
	Program *Program
	// Scope is the module scope
	Scope *Scope

	// StyleImports maps local names to the style API export they are bound
	// to ("css", "keyframes", "*" for a namespace import, ...). It is filled
	// by the import pre-pass of the extractor.
	StyleImports map[string]string

	scopes map[Node]*Scope
	refs   map[*Ident]*Scope
}

// NewFile analyzes the scopes of program and returns the resulting File
func NewFile(path string, source []byte, program *Program) *File {
	f := &File{
		Path:    path,
		Source:  source,
		Program: program,
		scopes:  map[Node]*Scope{},
		refs:    map[*Ident]*Scope{},
	}
	analyze(f)
	return f
}

// ScopeOf returns the scope an identifier reference appears in, or the scope
// opened by a function, block or statement node. It returns nil for
// identifiers in declaration position and for synthesized nodes.
func (f *File) ScopeOf(n Node) *Scope {
	if id, ok := n.(*Ident); ok {
		return f.refs[id]
	}
	return f.scopes[n]
}

// Lookup resolves an identifier reference to its binding
func (f *File) Lookup(id *Ident) *Binding {
	sc := f.refs[id]
	if sc == nil {
		return nil
	}
	return sc.Lookup(id.Name)
}

// IsReference reports whether id was seen as a reference during analysis
func (f *File) IsReference(id *Ident) bool {
	_, ok := f.refs[id]
	return ok
}

// Text returns the source text of n
func (f *File) Text(n Node) string {
	sp := n.Pos()
	if sp.End > uint(len(f.Source)) || sp.Start > sp.End {
		return ""
	}
	return string(f.Source[sp.Start:sp.End])
}

type write struct {
	id    *Ident
	scope *Scope
}

type analyzer struct {
	f      *File
	writes []write
}

func analyze(f *File) {
	a := &analyzer{f: f}
	module := newScope(ModuleScope, nil, f.Program)
	f.Scope = module
	f.scopes[f.Program] = module
	if f.Program == nil {
		return
	}
	a.declare(f.Program.Body, module)
	for _, s := range f.Program.Body {
		a.node(s, module)
	}
	// writes resolve after every declaration is known, since var and
	// function declarations hoist
	for _, w := range a.writes {
		if b := w.scope.Lookup(w.id.Name); b != nil {
			b.Mutations++
		}
	}
}

// declare binds the declarations of a statement list into scope
func (a *analyzer) declare(stmts []Stmt, scope *Scope) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *VarDecl:
			target := scope
			kind := LetBinding
			switch s.Kind {
			case "var":
				target = scope.function()
				kind = VarBinding
			case "const":
				kind = ConstBinding
			case "catch":
				kind = CatchBinding
			}
			for _, d := range s.Decls {
				a.declarePattern(d.Target, Binding{Kind: kind, Declarator: d}, nil, nil, target)
			}
		case *FuncDecl:
			if s.Name != nil {
				scope.declare(&Binding{Name: s.Name.Name, Kind: FuncBinding, Ident: s.Name, Func: s.Func})
			}
		case *ClassDecl:
			if s.Name != nil {
				scope.declare(&Binding{Name: s.Name.Name, Kind: ClassBinding, Ident: s.Name})
			}
		case *Import:
			for _, spec := range s.Specs {
				scope.declare(&Binding{
					Name:   spec.Local.Name,
					Kind:   ImportBinding,
					Ident:  spec.Local,
					Import: spec,
					Source: s.Source,
				})
			}
		case *Export:
			if s.Decl != nil {
				a.declare([]Stmt{s.Decl}, scope)
			}
		}
	}
}

func (a *analyzer) declarePattern(p Pattern, tmpl Binding, path []PathStep, def Expr, scope *Scope) {
	switch p := p.(type) {
	case *Ident:
		b := tmpl
		b.Name = p.Name
		b.Ident = p
		b.Path = append([]PathStep(nil), path...)
		b.Default = def
		scope.declare(&b)
	case *ObjectPattern:
		for _, prop := range p.Props {
			step := PathStep{Key: prop.Key, Index: -1}
			if prop.Computed != nil {
				step.Rest = true
			}
			a.declarePattern(prop.Value, tmpl, append(path, step), nil, scope)
		}
		if p.Rest != nil {
			a.declarePattern(p.Rest, tmpl, append(path, PathStep{Index: -1, Rest: true}), nil, scope)
		}
	case *ArrayPattern:
		for i, el := range p.Elems {
			if el == nil {
				continue
			}
			a.declarePattern(el, tmpl, append(path, PathStep{Index: i}), nil, scope)
		}
	case *AssignPattern:
		a.declarePattern(p.Target, tmpl, path, p.Default, scope)
	case *RestPattern:
		a.declarePattern(p.Arg, tmpl, append(path, PathStep{Index: -1, Rest: true}), nil, scope)
	}
}

func (a *analyzer) node(n Node, scope *Scope) {
	if n == nil || isNilNode(n) {
		return
	}
	switch n := n.(type) {
	case *Ident:
		a.f.refs[n] = scope
	case *Func:
		a.function(n, scope)
	case *FuncDecl:
		a.function(n.Func, scope)
	case *VarDecl:
		for _, d := range n.Decls {
			a.pattern(d.Target, scope)
			a.node(d.Init, scope)
		}
	case *ClassDecl:
		a.node(n.Body, scope)
	case *Import:
	case *Export:
		a.node(n.Decl, scope)
		a.node(n.Default, scope)
	case *Block:
		bs := newScope(BlockScope, scope, n)
		a.f.scopes[n] = bs
		a.declare(n.Body, bs)
		for _, s := range n.Body {
			a.node(s, bs)
		}
	case *OpaqueStmt:
		bs := newScope(BlockScope, scope, n)
		a.f.scopes[n] = bs
		var stmts []Stmt
		for _, c := range n.Children {
			if s, ok := c.(Stmt); ok {
				stmts = append(stmts, s)
			}
		}
		a.declare(stmts, bs)
		for _, c := range n.Children {
			a.node(c, bs)
		}
	case *KeyValue:
		if n.Computed {
			a.node(n.Key, scope)
		}
		a.node(n.Value, scope)
	case *Assign:
		a.target(n.Target, scope)
		a.node(n.Value, scope)
	case *Update:
		a.write(rootIdent(n.X), scope)
		a.node(n.X, scope)
	case *Unary:
		if n.Op == "delete" {
			a.write(rootIdent(n.X), scope)
		}
		a.node(n.X, scope)
	case *Call:
		if isObjectAssign(n.Callee) && len(n.Args) > 0 {
			a.write(rootIdent(n.Args[0]), scope)
		}
		for _, c := range Children(n) {
			a.node(c, scope)
		}
	case Pattern:
		if _, isMember := n.(*Member); isMember {
			for _, c := range Children(n) {
				a.node(c, scope)
			}
			return
		}
		a.pattern(n, scope)
	default:
		for _, c := range Children(n) {
			a.node(c, scope)
		}
	}
}

func (a *analyzer) function(fn *Func, scope *Scope) {
	fs := newScope(FunctionScope, scope, fn)
	a.f.scopes[fn] = fs
	for _, p := range fn.Params {
		a.declarePattern(p, Binding{Kind: ParamBinding, Func: fn, Param: p}, nil, nil, fs)
	}
	for _, p := range fn.Params {
		a.pattern(p, fs)
	}
	if fn.Expr != nil {
		a.node(fn.Expr, fs)
	}
	if fn.Block != nil {
		a.f.scopes[fn.Block] = fs
		a.declare(fn.Block.Body, fs)
		for _, s := range fn.Block.Body {
			a.node(s, fs)
		}
	}
}

// pattern visits the expressions inside a pattern in declaration position:
// defaults and computed keys. The bound identifiers are not references.
func (a *analyzer) pattern(p Pattern, scope *Scope) {
	switch p := p.(type) {
	case *AssignPattern:
		a.pattern(p.Target, scope)
		a.node(p.Default, scope)
	case *ObjectPattern:
		for _, prop := range p.Props {
			a.node(prop.Computed, scope)
			a.pattern(prop.Value, scope)
		}
		if p.Rest != nil {
			a.pattern(p.Rest, scope)
		}
	case *ArrayPattern:
		for _, el := range p.Elems {
			if el != nil {
				a.pattern(el, scope)
			}
		}
	case *RestPattern:
		a.pattern(p.Arg, scope)
	case *Member:
		a.node(p.Object, scope)
		a.node(p.Computed, scope)
	}
}

// target visits an assignment target, recording every written binding
func (a *analyzer) target(t Node, scope *Scope) {
	switch t := t.(type) {
	case *Ident:
		a.f.refs[t] = scope
		a.write(t, scope)
	case *Member:
		a.write(rootIdent(t), scope)
		a.node(t, scope)
	case *AssignPattern:
		a.target(t.Target, scope)
		a.node(t.Default, scope)
	case *ObjectPattern:
		for _, prop := range t.Props {
			a.node(prop.Computed, scope)
			a.target(prop.Value, scope)
		}
		if t.Rest != nil {
			a.target(t.Rest, scope)
		}
	case *ArrayPattern:
		for _, el := range t.Elems {
			if el != nil {
				a.target(el, scope)
			}
		}
	case *RestPattern:
		a.target(t.Arg, scope)
	default:
		a.node(t, scope)
	}
}

func (a *analyzer) write(id *Ident, scope *Scope) {
	if id != nil {
		a.writes = append(a.writes, write{id: id, scope: scope})
	}
}

// rootIdent returns the identifier at the root of a member chain
func rootIdent(e Node) *Ident {
	for {
		switch x := e.(type) {
		case *Ident:
			return x
		case *Member:
			e = x.Object
		default:
			return nil
		}
	}
}

func isObjectAssign(callee Expr) bool {
	m, ok := callee.(*Member)
	if !ok || m.Property != "assign" {
		return false
	}
	obj, ok := m.Object.(*Ident)
	return ok && obj.Name == "Object"
}
