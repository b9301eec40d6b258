package js

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"bennypowers.dev/csslift/internal/ast"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// converter lowers a tree-sitter concrete syntax tree into the ast package.
// TypeScript-only syntax is stripped: type annotations are never visited and
// expression wrappers like `x as T` or `x!` lower to their operand.
type converter struct {
	src []byte
}

var statementKinds = map[string]bool{
	"expression_statement":           true,
	"lexical_declaration":            true,
	"variable_declaration":           true,
	"function_declaration":           true,
	"generator_function_declaration": true,
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"return_statement":               true,
	"statement_block":                true,
	"if_statement":                   true,
	"import_statement":               true,
	"export_statement":               true,
	"for_statement":                  true,
	"for_in_statement":               true,
	"while_statement":                true,
	"do_statement":                   true,
	"try_statement":                  true,
	"switch_statement":               true,
	"switch_body":                    true,
	"switch_case":                    true,
	"switch_default":                 true,
	"throw_statement":                true,
	"break_statement":                true,
	"continue_statement":             true,
	"labeled_statement":              true,
	"debugger_statement":             true,
	"with_statement":                 true,
	"empty_statement":                true,
	"else_clause":                    true,
	"finally_clause":                 true,
	"interface_declaration":          true,
	"type_alias_declaration":         true,
	"enum_declaration":               true,
	"ambient_declaration":            true,
	"module":                         true,
	"internal_module":                true,
	"function_signature":             true,
	"import_alias":                   true,
}

// typeOnlyKinds carry no runtime values
var typeOnlyKinds = map[string]bool{
	"interface_declaration":  true,
	"type_alias_declaration": true,
	"ambient_declaration":    true,
	"function_signature":     true,
	"type_annotation":        true,
	"type_arguments":         true,
	"type_parameters":        true,
	"accessibility_modifier": true,
	"override_modifier":      true,
	"decorator":              true,
}

func (c *converter) span(n *sitter.Node) ast.Span {
	pos := n.StartPosition()
	return ast.Span{Start: n.StartByte(), End: n.EndByte(), Line: pos.Row, Column: pos.Column}
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

// named returns the named children of n, skipping comments
func (c *converter) named(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasToken reports whether n has an anonymous child spelled tok
func (c *converter) hasToken(n *sitter.Node, tok string) bool {
	for i := range n.ChildCount() {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == tok {
			return true
		}
	}
	return false
}

func (c *converter) program(root *sitter.Node) *ast.Program {
	p := &ast.Program{Span: c.span(root)}
	for _, child := range c.named(root) {
		if s := c.stmt(child); s != nil {
			p.Body = append(p.Body, s)
		}
	}
	return p
}

// node converts a child of an unmodelled construct, choosing between the
// statement and expression lowering by kind
func (c *converter) node(n *sitter.Node) ast.Node {
	switch {
	case n == nil:
		return nil
	case statementKinds[n.Kind()]:
		if s := c.stmt(n); s != nil {
			return s
		}
		return nil
	case n.Kind() == "catch_clause":
		return c.catchClause(n)
	case typeOnlyKinds[n.Kind()]:
		return nil
	}
	if e := c.expr(n); e != nil {
		return e
	}
	return nil
}

func (c *converter) nodes(ns []*sitter.Node) []ast.Node {
	var out []ast.Node
	for _, n := range ns {
		if converted := c.node(n); converted != nil {
			out = append(out, converted)
		}
	}
	return out
}

func (c *converter) stmt(n *sitter.Node) ast.Stmt {
	if n == nil {
		return nil
	}
	sp := c.span(n)
	switch n.Kind() {
	case "comment", "empty_statement", "hash_bang_line":
		return nil
	case "expression_statement":
		named := c.named(n)
		if len(named) == 0 {
			return nil
		}
		return &ast.ExprStmt{Span: sp, X: c.expr(named[0])}
	case "lexical_declaration", "variable_declaration":
		return c.varDecl(n)
	case "function_declaration", "generator_function_declaration":
		return &ast.FuncDecl{Span: sp, Name: c.ident(n.ChildByFieldName("name")), Func: c.function(n)}
	case "class_declaration", "abstract_class_declaration":
		return &ast.ClassDecl{Span: sp, Name: c.ident(n.ChildByFieldName("name")), Body: c.classBody(n.ChildByFieldName("body"))}
	case "return_statement":
		ret := &ast.Return{Span: sp}
		if named := c.named(n); len(named) > 0 {
			ret.Arg = c.expr(named[0])
		}
		return ret
	case "statement_block":
		return c.block(n)
	case "if_statement":
		s := &ast.If{
			Span: sp,
			Test: c.expr(n.ChildByFieldName("condition")),
			Cons: c.stmt(n.ChildByFieldName("consequence")),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if named := c.named(alt); len(named) > 0 {
				s.Alt = c.stmt(named[0])
			}
		}
		return s
	case "import_statement":
		return c.importDecl(n)
	case "export_statement":
		return c.exportDecl(n)
	case "for_in_statement":
		return c.forIn(n)
	case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
		return &ast.OpaqueStmt{Span: sp, Kind: n.Kind()}
	}
	return &ast.OpaqueStmt{Span: sp, Kind: n.Kind(), Children: c.nodes(c.named(n))}
}

func (c *converter) block(n *sitter.Node) *ast.Block {
	b := &ast.Block{Span: c.span(n)}
	for _, child := range c.named(n) {
		if s := c.stmt(child); s != nil {
			b.Body = append(b.Body, s)
		}
	}
	return b
}

func (c *converter) varDecl(n *sitter.Node) *ast.VarDecl {
	kind := "var"
	if k := n.ChildByFieldName("kind"); k != nil {
		kind = c.text(k)
	} else if n.ChildCount() > 0 {
		kind = c.text(n.Child(0))
	}
	d := &ast.VarDecl{Span: c.span(n), Kind: kind}
	for _, child := range c.named(n) {
		if child.Kind() != "variable_declarator" {
			continue
		}
		decl := &ast.Declarator{Span: c.span(child), Target: c.pattern(child.ChildByFieldName("name"))}
		if v := child.ChildByFieldName("value"); v != nil {
			decl.Init = c.expr(v)
		}
		d.Decls = append(d.Decls, decl)
	}
	return d
}

func (c *converter) catchClause(n *sitter.Node) ast.Node {
	s := &ast.OpaqueStmt{Span: c.span(n), Kind: n.Kind()}
	if param := n.ChildByFieldName("parameter"); param != nil {
		s.Children = append(s.Children, &ast.VarDecl{
			Span:  c.span(param),
			Kind:  "catch",
			Decls: []*ast.Declarator{{Span: c.span(param), Target: c.pattern(param)}},
		})
	}
	if body := n.ChildByFieldName("body"); body != nil {
		s.Children = append(s.Children, c.block(body))
	}
	return s
}

// forIn lowers for-in/for-of loops to an opaque statement whose loop variable
// is either declared in the loop scope or recorded as a write
func (c *converter) forIn(n *sitter.Node) ast.Stmt {
	s := &ast.OpaqueStmt{Span: c.span(n), Kind: n.Kind()}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if kind := n.ChildByFieldName("kind"); kind != nil && left != nil {
		s.Children = append(s.Children, &ast.VarDecl{
			Span:  c.span(left),
			Kind:  c.text(kind),
			Decls: []*ast.Declarator{{Span: c.span(left), Target: c.pattern(left)}},
		})
	} else if left != nil {
		s.Children = append(s.Children, &ast.ExprStmt{
			Span: c.span(left),
			X:    &ast.Assign{Span: c.span(left), Op: "=", Target: c.assignTarget(left), Value: c.expr(right)},
		})
	}
	if right != nil {
		s.Children = append(s.Children, c.expr(right))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if b := c.stmt(body); b != nil {
			s.Children = append(s.Children, b)
		}
	}
	return s
}

func (c *converter) classBody(n *sitter.Node) *ast.Opaque {
	if n == nil {
		return nil
	}
	body := &ast.Opaque{Span: c.span(n), Kind: n.Kind(), Text: c.text(n)}
	for _, member := range c.named(n) {
		switch member.Kind() {
		case "method_definition":
			body.Children = append(body.Children, c.function(member))
		case "field_definition", "public_field_definition":
			if v := member.ChildByFieldName("value"); v != nil {
				body.Children = append(body.Children, c.expr(v))
			}
		case "class_static_block":
			if b := member.ChildByFieldName("body"); b != nil {
				body.Children = append(body.Children, c.block(b))
			}
		}
	}
	return body
}

func (c *converter) importDecl(n *sitter.Node) *ast.Import {
	imp := &ast.Import{Span: c.span(n), Source: c.stringValue(n.ChildByFieldName("source"))}
	for _, child := range c.named(n) {
		if child.Kind() != "import_clause" {
			continue
		}
		for _, part := range c.named(child) {
			switch part.Kind() {
			case "identifier":
				imp.Specs = append(imp.Specs, &ast.ImportSpec{Span: c.span(part), Local: c.ident(part), Imported: "default"})
			case "namespace_import":
				for _, id := range c.named(part) {
					if id.Kind() == "identifier" {
						imp.Specs = append(imp.Specs, &ast.ImportSpec{Span: c.span(part), Local: c.ident(id), Imported: "*"})
					}
				}
			case "named_imports":
				for _, spec := range c.named(part) {
					if spec.Kind() != "import_specifier" {
						continue
					}
					name := spec.ChildByFieldName("name")
					local := name
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						local = alias
					}
					imp.Specs = append(imp.Specs, &ast.ImportSpec{
						Span:     c.span(spec),
						Local:    c.ident(local),
						Imported: c.moduleExportName(name),
					})
				}
			}
		}
	}
	return imp
}

func (c *converter) exportDecl(n *sitter.Node) *ast.Export {
	exp := &ast.Export{Span: c.span(n)}
	if src := n.ChildByFieldName("source"); src != nil {
		exp.Source = c.stringValue(src)
	}
	isDefault := c.hasToken(n, "default")

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		exp.Decl = c.stmt(decl)
		if isDefault {
			switch d := exp.Decl.(type) {
			case *ast.FuncDecl:
				exp.Default = d.Func
			case *ast.ClassDecl:
				if d.Body != nil {
					exp.Default = d.Body
				}
			}
		}
		return exp
	}
	if v := n.ChildByFieldName("value"); v != nil {
		exp.Default = c.expr(v)
		return exp
	}

	for _, child := range c.named(n) {
		switch child.Kind() {
		case "export_clause":
			for _, spec := range c.named(child) {
				if spec.Kind() != "export_specifier" {
					continue
				}
				local := c.moduleExportName(spec.ChildByFieldName("name"))
				exported := local
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					exported = c.moduleExportName(alias)
				}
				exp.Specs = append(exp.Specs, &ast.ExportSpec{Span: c.span(spec), Local: local, Exported: exported})
			}
		case "namespace_export":
			for _, name := range c.named(child) {
				exp.StarAs = c.moduleExportName(name)
			}
		}
	}
	if exp.Specs == nil && exp.StarAs == "" && c.hasToken(n, "*") {
		exp.Star = true
	}
	return exp
}

// moduleExportName reads an identifier or a string export name
func (c *converter) moduleExportName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() == "string" {
		return c.stringValue(n)
	}
	return c.text(n)
}

func (c *converter) ident(n *sitter.Node) *ast.Ident {
	if n == nil {
		return nil
	}
	return &ast.Ident{Span: c.span(n), Name: c.text(n)}
}

func (c *converter) function(n *sitter.Node) *ast.Func {
	fn := &ast.Func{
		Span:  c.span(n),
		Arrow: n.Kind() == "arrow_function",
		Async: c.hasToken(n, "async"),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = c.text(name)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range c.named(params) {
			if pat := c.param(p); pat != nil {
				fn.Params = append(fn.Params, pat)
			}
		}
	} else if param := n.ChildByFieldName("parameter"); param != nil {
		fn.Params = append(fn.Params, c.pattern(param))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if body.Kind() == "statement_block" {
			fn.Block = c.block(body)
		} else {
			fn.Expr = c.expr(body)
		}
	}
	return fn
}

func (c *converter) param(n *sitter.Node) ast.Pattern {
	switch n.Kind() {
	case "required_parameter", "optional_parameter":
		target := c.pattern(n.ChildByFieldName("pattern"))
		if v := n.ChildByFieldName("value"); v != nil {
			return &ast.AssignPattern{Span: c.span(n), Target: target, Default: c.expr(v)}
		}
		return target
	case "this", "decorator":
		return nil
	}
	return c.pattern(n)
}

func (c *converter) pattern(n *sitter.Node) ast.Pattern {
	if n == nil {
		return nil
	}
	sp := c.span(n)
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier_pattern", "undefined":
		return &ast.Ident{Span: sp, Name: c.text(n)}
	case "object_pattern":
		return c.objectPattern(n)
	case "array_pattern":
		p := &ast.ArrayPattern{Span: sp}
		c.elements(n, func(i int, el *sitter.Node) {
			for len(p.Elems) < i {
				p.Elems = append(p.Elems, nil)
			}
			p.Elems = append(p.Elems, c.pattern(el))
		})
		return p
	case "assignment_pattern":
		return &ast.AssignPattern{Span: sp, Target: c.pattern(n.ChildByFieldName("left")), Default: c.expr(n.ChildByFieldName("right"))}
	case "rest_pattern":
		named := c.named(n)
		if len(named) == 0 {
			return nil
		}
		return &ast.RestPattern{Span: sp, Arg: c.pattern(named[0])}
	case "member_expression", "subscript_expression":
		if m, ok := c.expr(n).(*ast.Member); ok {
			return m
		}
	case "parenthesized_expression", "non_null_expression", "as_expression", "satisfies_expression":
		if named := c.named(n); len(named) > 0 {
			return c.pattern(named[0])
		}
	case "required_parameter", "optional_parameter":
		return c.param(n)
	}
	return &ast.Ident{Span: sp, Name: c.text(n)}
}

func (c *converter) objectPattern(n *sitter.Node) *ast.ObjectPattern {
	p := &ast.ObjectPattern{Span: c.span(n)}
	for _, child := range c.named(n) {
		sp := c.span(child)
		switch child.Kind() {
		case "shorthand_property_identifier_pattern":
			name := c.text(child)
			p.Props = append(p.Props, &ast.PatternProp{Span: sp, Key: name, Value: &ast.Ident{Span: sp, Name: name}})
		case "pair_pattern":
			prop := &ast.PatternProp{Span: sp, Value: c.pattern(child.ChildByFieldName("value"))}
			c.propertyKey(child.ChildByFieldName("key"), &prop.Key, &prop.Computed)
			p.Props = append(p.Props, prop)
		case "object_assignment_pattern":
			left := c.pattern(child.ChildByFieldName("left"))
			prop := &ast.PatternProp{
				Span:  sp,
				Value: &ast.AssignPattern{Span: sp, Target: left, Default: c.expr(child.ChildByFieldName("right"))},
			}
			if id, ok := left.(*ast.Ident); ok {
				prop.Key = id.Name
			}
			p.Props = append(p.Props, prop)
		case "rest_pattern":
			if rest, ok := c.pattern(child).(*ast.RestPattern); ok {
				p.Rest = rest.Arg
			}
		}
	}
	return p
}

// propertyKey fills a static key name, or the computed key expression
func (c *converter) propertyKey(n *sitter.Node, key *string, computed *ast.Expr) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "string":
		*key = c.stringValue(n)
	case "number":
		*key = ast.FormatNumber(parseNumber(c.text(n)))
	case "computed_property_name":
		if named := c.named(n); len(named) > 0 {
			e := c.expr(named[0])
			if s, ok := e.(*ast.StringLit); ok {
				*key = s.Value
				return
			}
			*computed = e
		}
	default:
		*key = c.text(n)
	}
}

// elements walks the items of an array or array pattern, passing the index
// each item sits at so holes are preserved
func (c *converter) elements(n *sitter.Node, f func(int, *sitter.Node)) {
	idx := 0
	for i := range n.ChildCount() {
		child := n.Child(i)
		switch {
		case child == nil:
		case !child.IsNamed() && child.Kind() == ",":
			idx++
		case child.IsNamed() && child.Kind() != "comment":
			f(idx, child)
		}
	}
}

func (c *converter) assignTarget(n *sitter.Node) ast.Node {
	switch n.Kind() {
	case "parenthesized_expression":
		if named := c.named(n); len(named) > 0 {
			return c.assignTarget(named[0])
		}
	case "member_expression", "subscript_expression":
		return c.expr(n)
	}
	return c.pattern(n)
}

func (c *converter) expr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	sp := c.span(n)
	switch n.Kind() {
	case "identifier", "property_identifier", "shorthand_property_identifier", "private_property_identifier":
		return &ast.Ident{Span: sp, Name: c.text(n)}
	case "undefined":
		return &ast.Ident{Span: sp, Name: "undefined"}
	case "string":
		return &ast.StringLit{Span: sp, Value: c.stringValue(n)}
	case "number":
		raw := c.text(n)
		return &ast.NumberLit{Span: sp, Value: parseNumber(raw), Raw: raw}
	case "true", "false":
		return &ast.BoolLit{Span: sp, Value: n.Kind() == "true"}
	case "null":
		return &ast.NullLit{Span: sp}
	case "regex":
		return &ast.RegExpLit{Span: sp, Raw: c.text(n)}
	case "template_string":
		return c.template(n)
	case "object":
		return c.object(n)
	case "array":
		arr := &ast.ArrayLit{Span: sp}
		c.elements(n, func(i int, el *sitter.Node) {
			for len(arr.Elems) < i {
				arr.Elems = append(arr.Elems, nil)
			}
			arr.Elems = append(arr.Elems, c.expr(el))
		})
		return arr
	case "spread_element":
		if named := c.named(n); len(named) > 0 {
			return &ast.Spread{Span: sp, Arg: c.expr(named[0])}
		}
	case "member_expression":
		return &ast.Member{
			Span:     sp,
			Object:   c.expr(n.ChildByFieldName("object")),
			Property: c.text(n.ChildByFieldName("property")),
			Optional: c.optional(n),
		}
	case "subscript_expression":
		m := &ast.Member{
			Span:     sp,
			Object:   c.expr(n.ChildByFieldName("object")),
			Computed: c.expr(n.ChildByFieldName("index")),
			Optional: c.optional(n),
		}
		return m
	case "call_expression":
		callee := c.expr(n.ChildByFieldName("function"))
		args := n.ChildByFieldName("arguments")
		if args != nil && args.Kind() == "template_string" {
			return &ast.TaggedTemplate{Span: sp, Tag: callee, Quasi: c.template(args)}
		}
		return &ast.Call{Span: sp, Callee: callee, Args: c.arguments(args), Optional: c.optional(n)}
	case "new_expression":
		return &ast.New{Span: sp, Callee: c.expr(n.ChildByFieldName("constructor")), Args: c.arguments(n.ChildByFieldName("arguments"))}
	case "arrow_function", "function_expression", "function", "generator_function":
		return c.function(n)
	case "unary_expression":
		return &ast.Unary{Span: sp, Op: c.text(n.ChildByFieldName("operator")), X: c.expr(n.ChildByFieldName("argument"))}
	case "update_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		return &ast.Update{
			Span:   sp,
			Op:     c.text(op),
			Prefix: op != nil && arg != nil && op.StartByte() < arg.StartByte(),
			X:      c.expr(arg),
		}
	case "binary_expression":
		op := c.text(n.ChildByFieldName("operator"))
		x := c.expr(n.ChildByFieldName("left"))
		y := c.expr(n.ChildByFieldName("right"))
		switch op {
		case "&&", "||", "??":
			return &ast.Logical{Span: sp, Op: op, X: x, Y: y}
		}
		return &ast.Binary{Span: sp, Op: op, X: x, Y: y}
	case "ternary_expression":
		return &ast.Conditional{
			Span: sp,
			Test: c.expr(n.ChildByFieldName("condition")),
			Cons: c.expr(n.ChildByFieldName("consequence")),
			Alt:  c.expr(n.ChildByFieldName("alternative")),
		}
	case "assignment_expression":
		return &ast.Assign{Span: sp, Op: "=", Target: c.assignTarget(n.ChildByFieldName("left")), Value: c.expr(n.ChildByFieldName("right"))}
	case "augmented_assignment_expression":
		return &ast.Assign{
			Span:   sp,
			Op:     c.text(n.ChildByFieldName("operator")),
			Target: c.assignTarget(n.ChildByFieldName("left")),
			Value:  c.expr(n.ChildByFieldName("right")),
		}
	case "sequence_expression":
		seq := &ast.Sequence{Span: sp}
		c.flattenSequence(n, seq)
		return seq
	case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression", "instantiation_expression":
		if named := c.named(n); len(named) > 0 {
			return c.expr(named[0])
		}
	case "type_assertion":
		if named := c.named(n); len(named) > 0 {
			return c.expr(named[len(named)-1])
		}
	case "jsx_element", "jsx_self_closing_element":
		return c.jsx(n)
	case "jsx_expression":
		if named := c.named(n); len(named) > 0 {
			return c.expr(named[0])
		}
		return nil
	}
	return &ast.Opaque{Span: sp, Kind: n.Kind(), Text: c.text(n), Children: c.nodes(c.named(n))}
}

// optional reports an optional chain (?.) directly on n
func (c *converter) optional(n *sitter.Node) bool {
	for i := range n.ChildCount() {
		if child := n.Child(i); child != nil && child.Kind() == "optional_chain" {
			return true
		}
	}
	return false
}

func (c *converter) flattenSequence(n *sitter.Node, seq *ast.Sequence) {
	for _, child := range c.named(n) {
		if child.Kind() == "sequence_expression" {
			c.flattenSequence(child, seq)
			continue
		}
		seq.Exprs = append(seq.Exprs, c.expr(child))
	}
}

func (c *converter) arguments(n *sitter.Node) []ast.Expr {
	if n == nil {
		return nil
	}
	var args []ast.Expr
	for _, child := range c.named(n) {
		if e := c.expr(child); e != nil {
			args = append(args, e)
		}
	}
	return args
}

func (c *converter) object(n *sitter.Node) *ast.ObjectLit {
	obj := &ast.ObjectLit{Span: c.span(n)}
	for _, child := range c.named(n) {
		sp := c.span(child)
		switch child.Kind() {
		case "pair":
			obj.Props = append(obj.Props, c.pair(child, child.ChildByFieldName("key"), c.expr(child.ChildByFieldName("value"))))
		case "shorthand_property_identifier":
			name := c.text(child)
			obj.Props = append(obj.Props, &ast.KeyValue{
				Span:      sp,
				Key:       &ast.Ident{Span: sp, Name: name},
				Value:     &ast.Ident{Span: sp, Name: name},
				Shorthand: true,
			})
		case "spread_element":
			if s, ok := c.expr(child).(*ast.Spread); ok {
				obj.Props = append(obj.Props, s)
			}
		case "method_definition":
			obj.Props = append(obj.Props, c.pair(child, child.ChildByFieldName("name"), c.function(child)))
		}
	}
	return obj
}

func (c *converter) pair(n, key *sitter.Node, value ast.Expr) *ast.KeyValue {
	kv := &ast.KeyValue{Span: c.span(n), Value: value}
	if key == nil {
		return kv
	}
	ksp := c.span(key)
	switch key.Kind() {
	case "string":
		kv.Key = &ast.StringLit{Span: ksp, Value: c.stringValue(key)}
	case "number":
		raw := c.text(key)
		kv.Key = &ast.NumberLit{Span: ksp, Value: parseNumber(raw), Raw: raw}
	case "computed_property_name":
		if named := c.named(key); len(named) > 0 {
			kv.Key = c.expr(named[0])
			kv.Computed = true
		}
	default:
		kv.Key = &ast.Ident{Span: ksp, Name: c.text(key)}
	}
	return kv
}

// template keeps the raw text of each quasi, taken from the source bytes
// between substitutions
func (c *converter) template(n *sitter.Node) *ast.TemplateLit {
	t := &ast.TemplateLit{Span: c.span(n)}
	start := n.StartByte() + 1
	end := n.EndByte() - 1
	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child == nil || child.Kind() != "template_substitution" {
			continue
		}
		t.Quasis = append(t.Quasis, string(c.src[start:child.StartByte()]))
		var e ast.Expr
		if named := c.named(child); len(named) > 0 {
			e = c.expr(named[0])
		}
		t.Exprs = append(t.Exprs, e)
		start = child.EndByte()
	}
	if end < start {
		end = start
	}
	t.Quasis = append(t.Quasis, string(c.src[start:end]))
	return t
}

func (c *converter) jsx(n *sitter.Node) *ast.JSXElement {
	el := &ast.JSXElement{Span: c.span(n), Text: c.text(n)}
	opening := n
	if n.Kind() == "jsx_element" {
		opening = n.ChildByFieldName("open_tag")
		for _, child := range c.named(n) {
			switch child.Kind() {
			case "jsx_opening_element", "jsx_closing_element", "jsx_text", "html_character_reference":
			default:
				if e := c.expr(child); e != nil {
					el.Children = append(el.Children, e)
				}
			}
		}
	}
	if opening == nil {
		return el
	}
	if name := opening.ChildByFieldName("name"); name != nil {
		el.Name = c.text(name)
	}
	for _, attr := range c.named(opening) {
		switch attr.Kind() {
		case "jsx_attribute":
			parts := c.named(attr)
			if len(parts) == 0 {
				continue
			}
			a := &ast.JSXAttr{Span: c.span(attr), Name: c.text(parts[0])}
			if len(parts) > 1 {
				a.Value = c.expr(parts[1])
			}
			el.Attrs = append(el.Attrs, a)
		case "jsx_expression":
			named := c.named(attr)
			if len(named) == 0 {
				continue
			}
			a := &ast.JSXAttr{Span: c.span(attr), Spread: true}
			if s, ok := c.expr(named[0]).(*ast.Spread); ok {
				a.Value = s.Arg
			} else {
				a.Value = c.expr(named[0])
			}
			el.Attrs = append(el.Attrs, a)
		}
	}
	return el
}

// stringValue decodes a string literal node, or returns "" for nil
func (c *converter) stringValue(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	raw := c.text(n)
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') {
		raw = raw[1 : len(raw)-1]
	}
	if n.Parent() != nil && n.Parent().Kind() == "jsx_attribute" {
		return raw
	}
	return Unescape(raw)
}

// Unescape decodes JavaScript string escape sequences
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 >= len(s) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					sb.WriteRune(rune(v))
					i += 2
					continue
				}
			}
			sb.WriteByte('x')
		case 'u':
			r, width := unicodeEscape(s[i+1:])
			if width == 0 {
				sb.WriteByte('u')
				continue
			}
			sb.WriteRune(r)
			i += width
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// unicodeEscape reads the digits after \u, either XXXX or {X...}
func unicodeEscape(s string) (rune, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, 0
		}
		return rune(v), end + 1
	}
	if len(s) < 4 {
		return 0, 0
	}
	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, 0
	}
	return rune(v), 4
}

// parseNumber reads a JavaScript numeric literal
func parseNumber(raw string) float64 {
	s := strings.ReplaceAll(raw, "_", "")
	s = strings.TrimSuffix(s, "n")
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			if v, err := strconv.ParseInt(s, 0, 64); err == nil {
				return float64(v)
			}
			return math.NaN()
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
