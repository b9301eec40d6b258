package css

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

// rootSelector wraps a declaration block so nested CSS parses as a rule set
const rootSelector = ".__csslift_root"

// conditionalAtRules are grouping at-rules whose contents are atomized.
// Every other at-rule with a block is passed through untouched.
var conditionalAtRules = map[string]bool{
	"@media":          true,
	"@supports":       true,
	"@container":      true,
	"@layer":          true,
	"@scope":          true,
	"@document":       true,
	"@starting-style": true,
}

var cssLanguage = sitter.NewLanguage(tree_sitter_css.Language())

// Parser handles parsing CSS with tree-sitter
type Parser struct {
	parser *sitter.Parser
}

var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(cssLanguage); err != nil {
			panic(fmt.Sprintf("failed to set CSS language: %v", err))
		}
		return &Parser{parser: parser}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close releases the parser's resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// Parse parses a stylesheet and extracts its declarations, custom property
// declarations and var() calls
func (p *Parser) Parse(source string) (*ParseResult, error) {
	src := []byte(source)
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse CSS")
	}
	defer tree.Close()

	w := &walker{src: src, result: &ParseResult{}}
	root := tree.RootNode()
	w.walk(root, nil, nil)
	w.varCalls(root)
	return w.result, nil
}

// ParseBlock parses the body of a rule: declarations optionally mixed with
// nested rules and at-rules. Declarations directly in the body have no
// selectors.
func (p *Parser) ParseBlock(body string) (*ParseResult, error) {
	prefix := rootSelector + "{"
	result, err := p.Parse(prefix + body + "\n}")
	if err != nil {
		return nil, err
	}
	shift := func(r *Range) {
		if r.Start.Line == 0 {
			r.Start.Character -= min(r.Start.Character, uint32(len(prefix)))
		}
		if r.End.Line == 0 {
			r.End.Character -= min(r.End.Character, uint32(len(prefix)))
		}
	}
	for _, d := range result.Declarations {
		if len(d.Selectors) > 0 && d.Selectors[0] == rootSelector {
			d.Selectors = d.Selectors[1:]
		}
		shift(&d.Range)
	}
	for _, v := range result.Variables {
		shift(&v.Range)
	}
	for _, c := range result.VarCalls {
		shift(&c.Range)
	}
	return result, nil
}

// ParseBlock parses a rule body with a pooled parser
func ParseBlock(body string) (*ParseResult, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	return p.ParseBlock(body)
}

type walker struct {
	src    []byte
	result *ParseResult
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *walker) rangeOf(n *sitter.Node) Range {
	return Range{
		Start: Position{Line: uint32(n.StartPosition().Row), Character: uint32(n.StartPosition().Column)},
		End:   Position{Line: uint32(n.EndPosition().Row), Character: uint32(n.EndPosition().Column)},
	}
}

// walk visits statements, carrying the enclosing selector and at-rule chains
func (w *walker) walk(node *sitter.Node, selectors, atRules []string) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "stylesheet", "block":
		for i := range node.ChildCount() {
			w.walk(node.Child(i), selectors, atRules)
		}
	case "declaration":
		w.declaration(node, selectors, atRules)
	case "rule_set":
		var sel string
		var block *sitter.Node
		for i := range node.ChildCount() {
			child := node.Child(i)
			switch child.Kind() {
			case "selectors":
				sel = collapseSpace(w.text(child))
			case "block":
				block = child
			}
		}
		if block != nil {
			w.walk(block, append(clone(selectors), sel), atRules)
		}
	case "media_statement", "supports_statement", "at_rule", "scope_statement":
		block := childOfKind(node, "block")
		keyword := atKeyword(w.text(node))
		if block == nil || !conditionalAtRules[keyword] {
			w.result.Passthrough = append(w.result.Passthrough, w.text(node))
			return
		}
		prelude := collapseSpace(string(w.src[node.StartByte():block.StartByte()]))
		w.walk(block, selectors, append(clone(atRules), prelude))
	case "keyframes_statement", "import_statement", "charset_statement", "namespace_statement":
		w.result.Passthrough = append(w.result.Passthrough, w.text(node))
	}
}

func (w *walker) declaration(node *sitter.Node, selectors, atRules []string) {
	var property string
	var valueStart, valueEnd uint
	valueEnd = node.EndByte()
	important := false
	for i := range node.ChildCount() {
		child := node.Child(i)
		switch child.Kind() {
		case "property_name":
			property = w.text(child)
		case ":":
			if valueStart == 0 {
				valueStart = child.EndByte()
			}
		case "important":
			important = true
			valueEnd = min(valueEnd, child.StartByte())
		case ";":
			valueEnd = min(valueEnd, child.StartByte())
		}
	}
	if property == "" || valueStart == 0 || valueStart > valueEnd {
		return
	}
	value := strings.TrimSpace(string(w.src[valueStart:valueEnd]))
	r := w.rangeOf(node)

	w.result.Declarations = append(w.result.Declarations, &Declaration{
		Property:  property,
		Value:     value,
		Important: important,
		Selectors: clone(selectors),
		AtRules:   clone(atRules),
		Range:     r,
	})
	if strings.HasPrefix(property, "--") {
		w.result.Variables = append(w.result.Variables, &Variable{Name: property, Value: value, Range: r})
	}
}

// varCalls collects every var() call in the tree
func (w *walker) varCalls(node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Kind() == "call_expression" {
		w.varCall(node)
	}
	for i := range node.ChildCount() {
		w.varCalls(node.Child(i))
	}
}

func (w *walker) varCall(node *sitter.Node) {
	name := childOfKind(node, "function_name")
	args := childOfKind(node, "arguments")
	if name == nil || args == nil || w.text(name) != "var" {
		return
	}
	var first, comma, closing *sitter.Node
	for i := range args.ChildCount() {
		child := args.Child(i)
		switch child.Kind() {
		case "(":
		case ",":
			if comma == nil {
				comma = child
			}
		case ")":
			closing = child
		default:
			if first == nil {
				first = child
			}
		}
	}
	if first == nil {
		return
	}
	call := &VarCall{Name: strings.TrimSpace(w.text(first)), Range: w.rangeOf(node)}
	if comma != nil && closing != nil && comma.EndByte() <= closing.StartByte() {
		fb := strings.TrimSpace(string(w.src[comma.EndByte():closing.StartByte()]))
		call.Fallback = &fb
	}
	w.result.VarCalls = append(w.result.VarCalls, call)
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := range node.ChildCount() {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// atKeyword returns the leading @keyword of an at-rule's text
func atKeyword(text string) string {
	end := strings.IndexFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '(' || r == '{' || r == ';'
	})
	if end < 0 {
		return strings.ToLower(text)
	}
	return strings.ToLower(text[:end])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
