package js

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/log"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language selects the grammar used to parse a file
type Language int

const (
	// JavaScript covers .js, .jsx, .mjs and .cjs (the grammar includes JSX)
	JavaScript Language = iota
	// TypeScript covers .ts, .mts and .cts
	TypeScript
	// TSX covers .tsx
	TSX
)

func (l Language) String() string {
	switch l {
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	default:
		return "javascript"
	}
}

// LanguageFor picks a grammar from a file extension
func LanguageFor(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return JavaScript
	}
}

var languages = map[Language]*sitter.Language{
	JavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
	TypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
	TSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
}

// Parser lowers JS/TS source into an analyzed ast.File
type Parser struct {
	parser *sitter.Parser
	lang   Language
}

// parserPools holds one pool of reusable parsers per grammar
var parserPools = map[Language]*sync.Pool{
	JavaScript: newPool(JavaScript),
	TypeScript: newPool(TypeScript),
	TSX:        newPool(TSX),
}

func newPool(lang Language) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			parser := sitter.NewParser()
			if err := parser.SetLanguage(languages[lang]); err != nil {
				panic(fmt.Sprintf("failed to set %s language: %v", lang, err))
			}
			return &Parser{parser: parser, lang: lang}
		},
	}
}

// AcquireParser gets a parser for lang from the pool
func AcquireParser(lang Language) *Parser {
	p := parserPools[lang].Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPools[p.lang].Put(p)
	}
}

// Close releases the parser's resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ClosePool closes pooled parsers of every grammar
func ClosePool() {
	for _, pool := range parserPools {
		for range 100 {
			if p, ok := pool.Get().(*Parser); ok && p != nil {
				p.Close()
			}
		}
	}
}

// Parse parses source and returns the analyzed file. Syntax errors do not
// fail the parse: tree-sitter recovers and the unparseable regions become
// opaque nodes.
func (p *Parser) Parse(path string, source []byte) (*ast.File, error) {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		log.Debug("Syntax errors in %s, continuing with recovered tree", path)
	}

	c := &converter{src: source}
	program := c.program(root)
	return ast.NewFile(path, source, program), nil
}

// Parse parses a file with a pooled parser chosen by its extension
func Parse(path string, source []byte) (*ast.File, error) {
	p := AcquireParser(LanguageFor(path))
	defer ReleaseParser(p)
	return p.Parse(path, source)
}
