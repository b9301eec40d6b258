package ast

// Inspect traverses the tree rooted at n depth-first, calling f for each
// node. Children are skipped when f returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) {
		return
	}
	if !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Children returns the direct child nodes of n in source order
func Children(n Node) []Node {
	var out []Node
	add := func(cs ...Node) {
		for _, c := range cs {
			if c != nil && !isNilNode(c) {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *TemplateLit:
		for _, e := range n.Exprs {
			add(e)
		}
	case *TaggedTemplate:
		add(n.Tag, n.Quasi)
	case *ObjectLit:
		for _, p := range n.Props {
			add(p)
		}
	case *KeyValue:
		add(n.Key, n.Value)
	case *Spread:
		add(n.Arg)
	case *ArrayLit:
		for _, e := range n.Elems {
			add(e)
		}
	case *Member:
		add(n.Object, n.Computed)
	case *Call:
		add(n.Callee)
		for _, a := range n.Args {
			add(a)
		}
	case *New:
		add(n.Callee)
		for _, a := range n.Args {
			add(a)
		}
	case *Func:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Expr, n.Block)
	case *Unary:
		add(n.X)
	case *Update:
		add(n.X)
	case *Binary:
		add(n.X, n.Y)
	case *Logical:
		add(n.X, n.Y)
	case *Conditional:
		add(n.Test, n.Cons, n.Alt)
	case *Assign:
		add(n.Target, n.Value)
	case *Sequence:
		for _, e := range n.Exprs {
			add(e)
		}
	case *JSXElement:
		for _, a := range n.Attrs {
			add(a)
		}
		for _, c := range n.Children {
			add(c)
		}
	case *JSXAttr:
		add(n.Value)
	case *Opaque:
		add(n.Children...)
	case *Program:
		for _, s := range n.Body {
			add(s)
		}
	case *VarDecl:
		for _, d := range n.Decls {
			add(d)
		}
	case *Declarator:
		add(n.Target, n.Init)
	case *FuncDecl:
		add(n.Name, n.Func)
	case *ClassDecl:
		add(n.Name, n.Body)
	case *Return:
		add(n.Arg)
	case *ExprStmt:
		add(n.X)
	case *Block:
		for _, s := range n.Body {
			add(s)
		}
	case *If:
		add(n.Test, n.Cons, n.Alt)
	case *Import:
		for _, s := range n.Specs {
			add(s)
		}
	case *ImportSpec:
		add(n.Local)
	case *Export:
		add(n.Decl, n.Default)
	case *OpaqueStmt:
		add(n.Children...)
	case *ObjectPattern:
		for _, p := range n.Props {
			add(p)
		}
		add(n.Rest)
	case *PatternProp:
		add(n.Computed, n.Value)
	case *ArrayPattern:
		for _, e := range n.Elems {
			add(e)
		}
	case *AssignPattern:
		add(n.Target, n.Default)
	case *RestPattern:
		add(n.Arg)
	}
	return out
}

// isNilNode catches typed nil pointers stored in interfaces
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Ident:
		return n == nil
	case *TemplateLit:
		return n == nil
	case *Block:
		return n == nil
	case *Func:
		return n == nil
	case *Opaque:
		return n == nil
	case *JSXAttr:
		return n == nil
	case *Declarator:
		return n == nil
	case *ImportSpec:
		return n == nil
	case *PatternProp:
		return n == nil
	case *KeyValue:
		return n == nil
	}
	return false
}
