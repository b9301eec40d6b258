// Package ast is the syntax tree the extractor evaluates. It is a small,
// closed model of JavaScript/TypeScript: every expression kind the evaluator
// understands has its own type, and everything else is lowered to Opaque or
// OpaqueStmt nodes that keep their converted children for walkers.
package ast

// Span locates a node in its source file
type Span struct {
	// Start and End are byte offsets
	Start uint
	End   uint
	// Line and Column are the 0-indexed row and byte column of Start
	Line   uint
	Column uint
}

// Pos returns the span itself, letting node types embed Span to satisfy Node
func (s Span) Pos() Span { return s }

// Node is any syntax tree node
type Node interface {
	Pos() Span
}

// Expr is an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Pattern is a binding target: an identifier or a destructuring pattern
type Pattern interface {
	Node
	patternNode()
}

// Prop is an object literal member: *KeyValue or *Spread
type Prop interface {
	Node
	propNode()
}

type (
	// Ident is an identifier reference or declaration
	Ident struct {
		Span
		Name string
	}

	// StringLit is a string literal with escapes decoded
	StringLit struct {
		Span
		Value string
	}

	// NumberLit is a numeric literal
	NumberLit struct {
		Span
		Value float64
		// Raw is the source spelling, empty for synthesized literals
		Raw string
	}

	// BoolLit is true or false
	BoolLit struct {
		Span
		Value bool
	}

	// NullLit is null
	NullLit struct {
		Span
	}

	// RegExpLit is a regular expression literal
	RegExpLit struct {
		Span
		Raw string
	}

	// TemplateLit is a template literal. Quasis holds the raw text between
	// substitutions, so len(Quasis) == len(Exprs)+1.
	TemplateLit struct {
		Span
		Quasis []string
		Exprs  []Expr
	}

	// TaggedTemplate is tag`...`
	TaggedTemplate struct {
		Span
		Tag   Expr
		Quasi *TemplateLit
	}

	// ObjectLit is an object literal
	ObjectLit struct {
		Span
		Props []Prop
	}

	// KeyValue is a property of an object literal. Non-computed keys are
	// *Ident, *StringLit or *NumberLit.
	KeyValue struct {
		Span
		Key       Expr
		Computed  bool
		Value     Expr
		Shorthand bool
	}

	// Spread is ...x in an array, call arguments or an object literal
	Spread struct {
		Span
		Arg Expr
	}

	// ArrayLit is an array literal; holes are nil
	ArrayLit struct {
		Span
		Elems []Expr
	}

	// Member is a.b or a[b]. Exactly one of Property and Computed is set.
	Member struct {
		Span
		Object   Expr
		Property string
		Computed Expr
		Optional bool
	}

	// Call is a function call
	Call struct {
		Span
		Callee   Expr
		Args     []Expr
		Optional bool
	}

	// New is a constructor call
	New struct {
		Span
		Callee Expr
		Args   []Expr
	}

	// Func is a function expression, arrow function, method or the function of
	// a declaration. Exactly one of Expr and Block is the body.
	Func struct {
		Span
		Name   string
		Params []Pattern
		Expr   Expr
		Block  *Block
		Arrow  bool
		Async  bool
	}

	// Unary is a prefix operator expression (-, +, !, ~, typeof, void, delete)
	Unary struct {
		Span
		Op string
		X  Expr
	}

	// Update is ++ or --
	Update struct {
		Span
		Op     string
		Prefix bool
		X      Expr
	}

	// Binary is an arithmetic, comparison or bitwise expression
	Binary struct {
		Span
		Op string
		X  Expr
		Y  Expr
	}

	// Logical is &&, || or ??
	Logical struct {
		Span
		Op string
		X  Expr
		Y  Expr
	}

	// Conditional is test ? cons : alt
	Conditional struct {
		Span
		Test Expr
		Cons Expr
		Alt  Expr
	}

	// Assign is an assignment; Target is a Pattern or a *Member
	Assign struct {
		Span
		Op     string
		Target Node
		Value  Expr
	}

	// Sequence is a comma expression
	Sequence struct {
		Span
		Exprs []Expr
	}

	// JSXElement is a JSX element or fragment
	JSXElement struct {
		Span
		Name     string
		Attrs    []*JSXAttr
		Children []Expr
		Text     string
	}

	// JSXAttr is name={value}; Value is nil for a bare attribute.
	// Spread attributes have Spread set and no Name.
	JSXAttr struct {
		Span
		Name   string
		Value  Expr
		Spread bool
	}

	// Opaque is an expression the evaluator does not model. It keeps the
	// source text and converted children.
	Opaque struct {
		Span
		Kind     string
		Text     string
		Children []Node
	}
)

type (
	// Program is the root of a file
	Program struct {
		Span
		Body []Stmt
	}

	// VarDecl is a var, let, const or catch-parameter declaration
	VarDecl struct {
		Span
		Kind  string
		Decls []*Declarator
	}

	// Declarator is one target = init pair of a VarDecl
	Declarator struct {
		Span
		Target Pattern
		Init   Expr
	}

	// FuncDecl is a function declaration
	FuncDecl struct {
		Span
		Name *Ident
		Func *Func
	}

	// ClassDecl is a class declaration
	ClassDecl struct {
		Span
		Name *Ident
		Body *Opaque
	}

	// Return is a return statement
	Return struct {
		Span
		Arg Expr
	}

	// ExprStmt is an expression statement
	ExprStmt struct {
		Span
		X Expr
	}

	// Block is a braced statement list
	Block struct {
		Span
		Body []Stmt
	}

	// If is an if statement
	If struct {
		Span
		Test Expr
		Cons Stmt
		Alt  Stmt
	}

	// Import is an import declaration
	Import struct {
		Span
		Source string
		Specs  []*ImportSpec
	}

	// ImportSpec binds Local to an export of the source module. Imported is
	// "default", "*" for a namespace import, or the exported name.
	ImportSpec struct {
		Span
		Local    *Ident
		Imported string
	}

	// Export is an export declaration. One of Decl, Default, Specs or Star
	// describes what is exported; Source is set for re-exports.
	Export struct {
		Span
		Decl    Stmt
		Default Expr
		Specs   []*ExportSpec
		Source  string
		Star    bool
		StarAs  string
	}

	// ExportSpec exports Local under the name Exported
	ExportSpec struct {
		Span
		Local    string
		Exported string
	}

	// OpaqueStmt is a statement the evaluator does not model (loops, try,
	// switch, TypeScript declarations). It opens a block scope over Children.
	OpaqueStmt struct {
		Span
		Kind     string
		Children []Node
	}
)

type (
	// ObjectPattern is {a, b: c, ...rest}
	ObjectPattern struct {
		Span
		Props []*PatternProp
		Rest  Pattern
	}

	// PatternProp is one property of an ObjectPattern
	PatternProp struct {
		Span
		Key      string
		Computed Expr
		Value    Pattern
	}

	// ArrayPattern is [a, , b]; holes are nil
	ArrayPattern struct {
		Span
		Elems []Pattern
	}

	// AssignPattern is target = default
	AssignPattern struct {
		Span
		Target  Pattern
		Default Expr
	}

	// RestPattern is ...arg
	RestPattern struct {
		Span
		Arg Pattern
	}
)

func (*Ident) exprNode()          {}
func (*StringLit) exprNode()      {}
func (*NumberLit) exprNode()      {}
func (*BoolLit) exprNode()        {}
func (*NullLit) exprNode()        {}
func (*RegExpLit) exprNode()      {}
func (*TemplateLit) exprNode()    {}
func (*TaggedTemplate) exprNode() {}
func (*ObjectLit) exprNode()      {}
func (*Spread) exprNode()         {}
func (*ArrayLit) exprNode()       {}
func (*Member) exprNode()         {}
func (*Call) exprNode()           {}
func (*New) exprNode()            {}
func (*Func) exprNode()           {}
func (*Unary) exprNode()          {}
func (*Update) exprNode()         {}
func (*Binary) exprNode()         {}
func (*Logical) exprNode()        {}
func (*Conditional) exprNode()    {}
func (*Assign) exprNode()         {}
func (*Sequence) exprNode()       {}
func (*JSXElement) exprNode()     {}
func (*Opaque) exprNode()         {}

func (*KeyValue) propNode() {}
func (*Spread) propNode()   {}

func (*Program) stmtNode()    {}
func (*VarDecl) stmtNode()    {}
func (*FuncDecl) stmtNode()   {}
func (*ClassDecl) stmtNode()  {}
func (*Return) stmtNode()     {}
func (*ExprStmt) stmtNode()   {}
func (*Block) stmtNode()      {}
func (*If) stmtNode()         {}
func (*Import) stmtNode()     {}
func (*Export) stmtNode()     {}
func (*OpaqueStmt) stmtNode() {}

func (*Ident) patternNode()         {}
func (*ObjectPattern) patternNode() {}
func (*ArrayPattern) patternNode()  {}
func (*AssignPattern) patternNode() {}
func (*RestPattern) patternNode()   {}
func (*Member) patternNode()        {}

// Undefined reports whether e is the identifier undefined or void 0
func Undefined(e Expr) bool {
	switch e := e.(type) {
	case *Ident:
		return e.Name == "undefined"
	case *Unary:
		return e.Op == "void"
	}
	return false
}

// Falsy reports whether e is a literal that is falsy at runtime
func Falsy(e Expr) bool {
	switch e := e.(type) {
	case *NullLit:
		return true
	case *BoolLit:
		return !e.Value
	case *StringLit:
		return e.Value == ""
	case *NumberLit:
		return e.Value == 0
	}
	return Undefined(e)
}

// Literal reports whether e is a primitive literal
func Literal(e Expr) bool {
	switch e.(type) {
	case *StringLit, *NumberLit, *BoolLit, *NullLit:
		return true
	}
	return false
}
