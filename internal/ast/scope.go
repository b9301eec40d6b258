package ast

// ScopeKind distinguishes the lexical scopes of a file
type ScopeKind int

const (
	// ModuleScope is the top level of a file
	ModuleScope ScopeKind = iota
	// FunctionScope holds parameters and var declarations of a function
	FunctionScope
	// BlockScope holds let, const, class and block-level function declarations
	BlockScope
)

// BindingKind is the construct that declares a binding
type BindingKind int

const (
	VarBinding BindingKind = iota
	LetBinding
	ConstBinding
	ParamBinding
	FuncBinding
	ClassBinding
	ImportBinding
	CatchBinding
)

var bindingKindNames = [...]string{
	VarBinding:    "var",
	LetBinding:    "let",
	ConstBinding:  "const",
	ParamBinding:  "param",
	FuncBinding:   "function",
	ClassBinding:  "class",
	ImportBinding: "import",
	CatchBinding:  "catch",
}

func (k BindingKind) String() string { return bindingKindNames[k] }

// PathStep is one step from a destructuring source to a bound name
type PathStep struct {
	// Key is the property name for object patterns
	Key string
	// Index is the element index for array patterns, -1 otherwise
	Index int
	// Rest marks a ...rest element, which the resolver does not follow
	Rest bool
}

// Binding ties a declared name to the construct that declares it
type Binding struct {
	Name  string
	Kind  BindingKind
	Ident *Ident
	Scope *Scope

	// Declarator is set for var, let and const bindings
	Declarator *Declarator
	// Func is the declared function for FuncBinding, or the owning
	// function for ParamBinding
	Func *Func
	// Param is the top-level parameter pattern for ParamBinding
	Param Pattern
	// Import is set for ImportBinding; Source is its module request
	Import *ImportSpec
	Source string

	// Path leads from the declarator init (or parameter) to this name when
	// the binding comes from destructuring
	Path []PathStep
	// Default is the default value of the innermost pattern, if any
	Default Expr

	// Mutations counts reassignments, updates and member writes
	Mutations int
}

// Constant reports whether the binding is never written after declaration
func (b *Binding) Constant() bool { return b.Mutations == 0 }

// Destructured reports whether the binding comes from a pattern
func (b *Binding) Destructured() bool { return len(b.Path) > 0 }

// Scope is a lexical scope
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Node     Node
	bindings map[string]*Binding
}

func newScope(kind ScopeKind, parent *Scope, node Node) *Scope {
	return &Scope{Kind: kind, Parent: parent, Node: node, bindings: map[string]*Binding{}}
}

// Lookup finds name in this scope or its ancestors
func (s *Scope) Lookup(name string) *Binding {
	for sc := s; sc != nil; sc = sc.Parent {
		if b, ok := sc.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Own returns a binding declared directly in this scope
func (s *Scope) Own(name string) *Binding {
	return s.bindings[name]
}

// Bindings returns the bindings declared directly in this scope
func (s *Scope) Bindings() map[string]*Binding {
	return s.bindings
}

func (s *Scope) function() *Scope {
	sc := s
	for sc.Kind == BlockScope && sc.Parent != nil {
		sc = sc.Parent
	}
	return sc
}

func (s *Scope) declare(b *Binding) {
	b.Scope = s
	s.bindings[b.Name] = b
}
