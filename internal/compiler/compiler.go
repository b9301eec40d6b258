// Package compiler drives the extractor over one source file. It finds every
// style definition in the file, builds it, splits the CSS into atomic rules
// and reports the class names and runtime glue each definition needs.
package compiler

import (
	"fmt"
	"strings"

	"bennypowers.dev/csslift/ax"
	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/atomic"
	"bennypowers.dev/csslift/internal/cache"
	"bennypowers.dev/csslift/internal/config"
	"bennypowers.dev/csslift/internal/extract"
	"bennypowers.dev/csslift/internal/log"
	"bennypowers.dev/csslift/internal/parser/css"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Definition kinds
const (
	KindCSS       = "css"
	KindKeyframes = "keyframes"
	KindCSSMap    = "cssMap"
	KindStyled    = "styled"
	KindJSX       = "jsx"
)

// variablePrefix marks custom properties generated for runtime values
const variablePrefix = "--_"

// Options configure a compilation
type Options struct {
	// Config supplies import sources, extensions, aliases, cache settings and
	// the class name compression map. Defaults apply when nil.
	Config *config.Config
	// Cache overrides the cache built from Config
	Cache *cache.Cache
	// Resolver overrides module resolution
	Resolver func(fromFile, request string) (string, error)
	// ReadFile overrides how imported files are read
	ReadFile func(path string) ([]byte, error)
}

// Variable is a custom property the runtime sets on the styled element
type Variable struct {
	Name       string `json:"name" yaml:"name"`
	Expression string `json:"expression" yaml:"expression"`
	Prefix     string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix     string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

// Definition is the compiled form of one style definition
type Definition struct {
	Kind string `json:"kind" yaml:"kind"`
	// Name is the declared name, name.variant for cssMap variants, or the
	// element name for JSX attributes
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Line   uint   `json:"line" yaml:"line"`
	Column uint   `json:"column" yaml:"column"`
	// ClassName holds the classes that always apply
	ClassName string `json:"className,omitempty" yaml:"className,omitempty"`
	// Expression computes the class name at runtime. It is the quoted
	// ClassName when nothing is conditional.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
	// Animation is the generated name of a keyframes definition
	Animation string     `json:"animation,omitempty" yaml:"animation,omitempty"`
	Rules     []string   `json:"rules,omitempty" yaml:"rules,omitempty"`
	Sheets    []string   `json:"sheets,omitempty" yaml:"sheets,omitempty"`
	Variables []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// FileResult is everything compiled from one file
type FileResult struct {
	Path        string        `json:"path" yaml:"path"`
	Definitions []*Definition `json:"definitions" yaml:"definitions"`
	// CSS is the file's stylesheet: sheets first, then atomic rules, without
	// duplicates
	CSS []string `json:"css" yaml:"css"`
	// IncludedFiles are the imported files the output depends on
	IncludedFiles []string `json:"includedFiles,omitempty" yaml:"includedFiles,omitempty"`
	Errors        []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	// Err combines the errors of every failed definition
	Err error `json:"-" yaml:"-"`
}

// Compile compiles the style definitions of one file. Definitions that fail
// are reported in the result's Err and do not stop the others; the returned
// error is reserved for files that cannot be parsed.
func Compile(path string, source []byte, opts Options) (*FileResult, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default("")
	}
	c := opts.Cache
	if c == nil {
		if cfg.CacheEnabled() {
			c = cache.New(cfg.Cache.Size)
		} else {
			c = cache.Disabled()
		}
	}

	pass := extract.NewPass(extract.Options{
		Resolver:      opts.Resolver,
		Extensions:    cfg.Extensions,
		Aliases:       cfg.Aliases,
		Root:          cfg.Root,
		ImportSources: cfg.ImportSources,
		Cache:         c,
		ReadFile:      opts.ReadFile,
	})
	f, err := pass.ParseFile(path, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cp := &compilation{
		ctx:      pass.Context(f),
		cfg:      cfg,
		logger:   log.Named("compiler").With(zap.String("path", path)),
		result:   &FileResult{Path: path},
		names:    declaredNames(f.Program),
		seen:     map[string]bool{},
		consumed: map[ast.Node]bool{},
	}
	if importsStyleAPI(f.Program, cfg) {
		cp.walk(f.Program)
	}

	r := cp.result
	r.IncludedFiles = pass.IncludedFiles()
	r.Err = cp.errs
	for _, e := range multierr.Errors(cp.errs) {
		r.Errors = append(r.Errors, e.Error())
	}
	cp.logger.Debug("compiled",
		zap.Int("definitions", len(r.Definitions)),
		zap.Int("rules", len(r.CSS)),
		zap.Int("errors", len(r.Errors)))
	return r, nil
}

type compilation struct {
	ctx    *extract.Context
	cfg    *config.Config
	logger *zap.Logger
	result *FileResult
	errs   error
	// names maps declarator initializers to the declared name
	names map[ast.Node]string
	// seen dedupes the file stylesheet
	seen map[string]bool
	// consumed marks nodes compiled as part of an enclosing definition
	consumed map[ast.Node]bool
}

// walk finds style definitions. Definitions nested in another definition
// are built as part of it and not reported separately.
func (cp *compilation) walk(root ast.Node) {
	ast.Inspect(root, func(n ast.Node) bool {
		if cp.consumed[n] {
			return false
		}
		switch x := n.(type) {
		case *ast.Call:
			return cp.call(x)
		case *ast.TaggedTemplate:
			return cp.tag(x)
		case *ast.JSXElement:
			for _, attr := range x.Attrs {
				if attr.Name != "css" || attr.Value == nil || attr.Spread {
					continue
				}
				cp.consumed[attr.Value] = true
				cp.define(KindJSX, x.Name, attr.Value)
			}
		}
		return true
	})
}

func (cp *compilation) call(c *ast.Call) bool {
	switch cp.ctx.StyleAPI(c.Callee) {
	case "css":
		cp.define(KindCSS, cp.names[c], c)
	case "keyframes":
		cp.keyframes(cp.names[c], c)
	case "cssMap":
		cp.cssMap(c)
	case "styled":
		if cp.isStyledFactory(c.Callee) {
			// styled(Component) on its own only picks the element
			return true
		}
		cp.define(KindStyled, cp.names[c], c)
	default:
		return true
	}
	return false
}

func (cp *compilation) tag(t *ast.TaggedTemplate) bool {
	switch cp.ctx.StyleAPI(t.Tag) {
	case "css":
		cp.define(KindCSS, cp.names[t], t)
	case "keyframes":
		cp.keyframes(cp.names[t], t)
	case "styled":
		cp.define(KindStyled, cp.names[t], t)
	default:
		return true
	}
	return false
}

// isStyledFactory reports whether callee is styled itself rather than
// styled.tag or styled(Component)
func (cp *compilation) isStyledFactory(callee ast.Expr) bool {
	switch x := callee.(type) {
	case *ast.Ident:
		return true
	case *ast.Member:
		ns, ok := x.Object.(*ast.Ident)
		return ok && cp.ctx.File.StyleImports[ns.Name] == "*"
	}
	return false
}

func (cp *compilation) fail(err error) {
	cp.logger.Debug("definition failed", zap.Error(err))
	cp.errs = multierr.Append(cp.errs, err)
}

// define builds e and records the resulting definition
func (cp *compilation) define(kind, name string, e ast.Expr) {
	out, err := extract.Build(e, cp.ctx)
	if err != nil {
		cp.fail(err)
		return
	}
	def, err := cp.definition(kind, name, e, out)
	if err != nil {
		cp.fail(err)
		return
	}
	cp.add(def)
}

func (cp *compilation) keyframes(name string, e ast.Expr) {
	animation, out, err := extract.BuildKeyframes(e, cp.ctx)
	if err != nil {
		cp.fail(err)
		return
	}
	def, err := cp.definition(KindKeyframes, name, e, out)
	if err != nil {
		cp.fail(err)
		return
	}
	def.Animation = animation
	def.Expression = ast.Quote(animation)
	cp.add(def)
}

// cssMap compiles every variant of cssMap({ variant: styles, ... })
func (cp *compilation) cssMap(c *ast.Call) {
	if len(c.Args) == 0 {
		cp.fail(extract.NewUnhandledValueError(c, cp.ctx))
		return
	}
	v, vctx, err := extract.Evaluate(c.Args[0], cp.ctx)
	if err != nil {
		cp.fail(err)
		return
	}
	obj, ok := v.(*ast.ObjectLit)
	if !ok {
		cp.fail(extract.NewUnhandledValueError(c.Args[0], cp.ctx))
		return
	}
	prefix := cp.names[c]
	for _, p := range obj.Props {
		kv, ok := p.(*ast.KeyValue)
		if !ok || kv.Computed {
			cp.fail(extract.NewUnhandledValueError(p, vctx))
			continue
		}
		variant := variantName(kv.Key)
		if prefix != "" {
			variant = prefix + "." + variant
		}
		out, err := extract.Build(kv.Value, vctx)
		if err != nil {
			cp.fail(err)
			continue
		}
		def, err := cp.definition(KindCSSMap, variant, kv.Value, out)
		if err != nil {
			cp.fail(err)
			continue
		}
		cp.add(def)
	}
}

func variantName(key ast.Expr) string {
	switch k := key.(type) {
	case *ast.Ident:
		return k.Name
	case *ast.StringLit:
		return k.Value
	case *ast.NumberLit:
		if k.Raw != "" {
			return k.Raw
		}
		return ast.FormatNumber(k.Value)
	}
	return ast.Print(key)
}

func (cp *compilation) add(def *Definition) {
	cp.result.Definitions = append(cp.result.Definitions, def)
	for _, s := range def.Sheets {
		if !cp.seen[s] {
			cp.seen[s] = true
			cp.result.CSS = append(cp.result.CSS, s)
		}
	}
	for _, r := range def.Rules {
		if !cp.seen[r] {
			cp.seen[r] = true
			cp.result.CSS = append(cp.result.CSS, r)
		}
	}
	cp.logger.Debug("definition",
		zap.String("kind", def.Kind),
		zap.String("name", def.Name),
		zap.String("expression", def.Expression))
}

// definition atomizes a built output
func (cp *compilation) definition(kind, name string, e ast.Expr, out *extract.Output) (*Definition, error) {
	loc := extract.Locate(e, cp.ctx)
	def := &Definition{Kind: kind, Name: name, Line: loc.Line, Column: loc.Column}

	known := map[string]bool{}
	for _, v := range out.Variables {
		known[v.Name] = true
		def.Variables = append(def.Variables, Variable{
			Name:       v.Name,
			Expression: ast.Print(v.Expression),
			Prefix:     v.Prefix,
			Suffix:     v.Suffix,
		})
	}

	a := &atomizer{cp: cp, def: def, known: known, rules: map[string]bool{}}
	var parts []ast.Expr
	var static []string
	dynamic := false
	for _, it := range out.CSS {
		if s, ok := it.(*extract.Sheet); ok {
			def.Sheets = append(def.Sheets, s.CSS)
			continue
		}
		part, err := a.classes(it)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", loc, err)
		}
		if u, ok := part.(*ast.StringLit); ok {
			static = append(static, u.Value)
		} else {
			dynamic = true
		}
		parts = append(parts, part)
	}

	def.ClassName = ax.Merge(strings.Join(static, " "))
	switch {
	case dynamic:
		def.Expression = ast.Print(&ast.Call{
			Callee: &ast.Ident{Name: "ax"},
			Args:   []ast.Expr{&ast.ArrayLit{Elems: parts}},
		})
	case def.ClassName != "":
		def.Expression = ast.Quote(def.ClassName)
	}
	return def, nil
}

// atomizer turns CSS items into atomic rules and class expressions
type atomizer struct {
	cp    *compilation
	def   *Definition
	known map[string]bool
	rules map[string]bool
}

// classes returns the class expression of an item: a string literal for
// unconditional CSS, a logical or conditional expression otherwise
func (a *atomizer) classes(it extract.Item) (ast.Expr, error) {
	switch it := it.(type) {
	case *extract.Unconditional:
		return a.atomize(it.CSS)
	case *extract.Logical:
		cls, err := a.atomize(it.CSS)
		if err != nil {
			return nil, err
		}
		return &ast.Logical{Op: it.Operator, X: it.Expression, Y: cls}, nil
	case *extract.Conditional:
		cons, err := a.classes(it.Consequent)
		if err != nil {
			return nil, err
		}
		alt, err := a.classes(it.Alternate)
		if err != nil {
			return nil, err
		}
		return &ast.Conditional{Test: it.Test, Cons: cons, Alt: alt}, nil
	case *extract.Sheet:
		a.def.Sheets = append(a.def.Sheets, it.CSS)
	}
	return &ast.StringLit{}, nil
}

func (a *atomizer) atomize(text string) (*ast.StringLit, error) {
	parsed, err := css.ParseBlock(text)
	if err != nil {
		return nil, err
	}
	for _, call := range parsed.VarCalls {
		if strings.HasPrefix(call.Name, variablePrefix) && !a.known[call.Name] {
			a.cp.logger.Warn("reference to an undefined generated variable",
				zap.String("name", a.def.Name),
				zap.String("variable", call.Name))
		}
	}

	sheet := atomic.FromResult(parsed)
	a.def.Sheets = append(a.def.Sheets, sheet.Sheets...)
	classes := make([]string, 0, len(sheet.Rules))
	for _, r := range sheet.Rules {
		class, rule := a.compress(r)
		classes = append(classes, class)
		if !a.rules[rule] {
			a.rules[rule] = true
			a.def.Rules = append(a.def.Rules, rule)
		}
	}
	return &ast.StringLit{Value: ax.Merge(strings.Join(classes, " "))}, nil
}

// compress applies the class name compression map to a rule
func (a *atomizer) compress(r *atomic.Rule) (string, string) {
	short := atomic.Compress(r.Class, a.cp.cfg.ClassNameCompressionMap)
	if short == r.Class {
		return r.Class, r.CSS
	}
	return short, strings.ReplaceAll(r.CSS, "."+r.Class, "."+short)
}

// importsStyleAPI reports whether the file imports the style API. A bare
// import is enough to enable css props on JSX elements.
func importsStyleAPI(p *ast.Program, cfg *config.Config) bool {
	if p == nil {
		return false
	}
	for _, stmt := range p.Body {
		if imp, ok := stmt.(*ast.Import); ok && cfg.IsImportSource(imp.Source) {
			return true
		}
	}
	return false
}

// declaredNames maps the initializers of top-level declarations to their
// names, looking through exports
func declaredNames(p *ast.Program) map[ast.Node]string {
	names := map[ast.Node]string{}
	if p == nil {
		return names
	}
	for _, stmt := range p.Body {
		if exp, ok := stmt.(*ast.Export); ok {
			if exp.Default != nil {
				names[exp.Default] = "default"
				continue
			}
			stmt = exp.Decl
		}
		decl, ok := stmt.(*ast.VarDecl)
		if !ok {
			continue
		}
		for _, d := range decl.Decls {
			if id, ok := d.Target.(*ast.Ident); ok && d.Init != nil {
				names[d.Init] = id.Name
			}
		}
	}
	return names
}
