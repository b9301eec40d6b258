// Package extract statically evaluates style definitions and builds the CSS
// they describe. It has three cooperating parts sharing a *Context:
//
//   - the binding resolver, which finds the declaration behind a name and
//     follows imports into other files
//   - the evaluator, a partial evaluator over the closed set of ast.Expr kinds
//   - the builder, which turns evaluated values into ordered CSS items and
//     runtime variable bindings
//
// Anything the evaluator cannot reduce stays as it is and becomes a CSS
// custom property set at runtime. Only structural problems are errors.
package extract

import (
	"path/filepath"
	"slices"
	"strings"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/cache"
	"bennypowers.dev/csslift/internal/collections"
	"bennypowers.dev/csslift/internal/config"
	"bennypowers.dev/csslift/internal/log"
	"bennypowers.dev/csslift/internal/modpath"
	"go.uber.org/zap"
)

// maxDepth bounds nested identifier and call evaluation
const maxDepth = 100

// Kind tags what a context is building
type Kind int

const (
	// RootKind builds the file being compiled
	RootKind Kind = iota
	// KeyframesKind builds the body of a keyframes definition
	KeyframesKind
	// FragmentKind evaluates code of an imported file. Runtime values found
	// there cannot become variables of the root file.
	FragmentKind
)

func (k Kind) String() string {
	switch k {
	case KeyframesKind:
		return "keyframes"
	case FragmentKind:
		return "fragment"
	default:
		return "root"
	}
}

// Options configure a pass
type Options struct {
	// Resolver overrides module resolution. It returns the absolute path of
	// request imported from fromFile.
	Resolver func(fromFile, request string) (string, error)
	// Extensions are the source extensions imports may resolve to
	Extensions []string
	// Aliases and Root configure the default resolver
	Aliases map[string]string
	Root    string
	// ImportSources are the modules exporting the style API
	ImportSources []string
	// Cache memoizes reads, parses and lookups. A nil cache disables caching.
	Cache *cache.Cache
	// ReadFile reads imported files, os.ReadFile by default
	ReadFile func(path string) ([]byte, error)
}

// Pass holds the state of one compilation of one root file
type Pass struct {
	opts    Options
	cache   *cache.Cache
	modules *modpath.Resolver
	logger  *zap.Logger

	included []string
	touched  collections.Set[string]
	// files read while each enclosing export lookup runs, innermost last
	recording []*[]string

	// exports being resolved, innermost last
	stack      []string
	inProgress collections.Set[string]
	// local bindings being evaluated
	evaluating collections.Set[*ast.Binding]
	depth      int
}

// NewPass creates the state for compiling one file
func NewPass(opts Options) *Pass {
	if len(opts.Extensions) == 0 {
		opts.Extensions = modpath.DefaultExtensions
	}
	if len(opts.ImportSources) == 0 {
		opts.ImportSources = []string{config.DefaultImportSource}
	}
	modules := modpath.New(opts.Extensions)
	modules.Aliases = opts.Aliases
	modules.Root = opts.Root
	return &Pass{
		opts:       opts,
		cache:      opts.Cache,
		modules:    modules,
		logger:     log.Named("extract"),
		touched:    collections.NewSet[string](),
		inProgress: collections.NewSet[string](),
		evaluating: collections.NewSet[*ast.Binding](),
	}
}

// IncludedFiles lists the files read while resolving imports, in the order
// they were first read
func (p *Pass) IncludedFiles() []string {
	return slices.Clone(p.included)
}

func (p *Pass) touch(path string) {
	if p.touched.Insert(path) {
		p.included = append(p.included, path)
	}
	for _, rec := range p.recording {
		if !slices.Contains(*rec, path) {
			*rec = append(*rec, path)
		}
	}
}

// record starts collecting the files touched until the matching
// stopRecording
func (p *Pass) record() *[]string {
	rec := &[]string{}
	p.recording = append(p.recording, rec)
	return rec
}

func (p *Pass) stopRecording() {
	p.recording = p.recording[:len(p.recording)-1]
}

// isImportSource reports whether request names the style API
func (p *Pass) isImportSource(request string) bool {
	for _, src := range p.opts.ImportSources {
		if request == src || strings.HasPrefix(request, src+"/") {
			return true
		}
	}
	return false
}

func (p *Pass) sourceExtension(path string) bool {
	return slices.Contains(p.opts.Extensions, filepath.Ext(path))
}

// Context returns a root context for a file parsed by ParseFile
func (p *Pass) Context(f *ast.File) *Context {
	return &Context{pass: p, File: f, Scope: f.Scope, Kind: RootKind}
}

func (p *Pass) fragment(f *ast.File) *Context {
	return &Context{pass: p, File: f, Scope: f.Scope, Kind: FragmentKind}
}

// Context is where an expression is evaluated: its file and scope, the
// arguments bound by enclosing calls and what is being built. Contexts are
// never mutated; operations needing isolation derive a new one.
type Context struct {
	pass  *Pass
	File  *ast.File
	Scope *ast.Scope
	Kind  Kind
	env   *frame
}

// Pass returns the pass the context belongs to
func (ctx *Context) Pass() *Pass {
	return ctx.pass
}

func (ctx *Context) withKind(kind Kind) *Context {
	c := *ctx
	c.Kind = kind
	return &c
}

func (ctx *Context) withFrame(f *frame, scope *ast.Scope) *Context {
	c := *ctx
	c.env = f
	if scope != nil {
		c.Scope = scope
	}
	return &c
}

// lookup finds the binding an identifier refers to
func (ctx *Context) lookup(id *ast.Ident) *ast.Binding {
	if ctx.File != nil && ctx.File.IsReference(id) {
		return ctx.File.Lookup(id)
	}
	if ctx.Scope != nil {
		return ctx.Scope.Lookup(id.Name)
	}
	if ctx.File != nil && ctx.File.Scope != nil {
		return ctx.File.Scope.Lookup(id.Name)
	}
	return nil
}

// StyleAPI returns the style API export a callee or tag refers to ("css",
// "keyframes", "cssMap", "styled"), or "" when it is not part of the API.
// styled.div and styled(Component) both report "styled".
func (ctx *Context) StyleAPI(e ast.Expr) string {
	if ctx.File == nil || len(ctx.File.StyleImports) == 0 {
		return ""
	}
	switch x := e.(type) {
	case *ast.Ident:
		name, ok := ctx.File.StyleImports[x.Name]
		if !ok || name == "*" {
			return ""
		}
		if b := ctx.lookup(x); b == nil || b.Kind != ast.ImportBinding {
			return ""
		}
		return name
	case *ast.Member:
		if x.Computed != nil {
			return ""
		}
		if ns, ok := x.Object.(*ast.Ident); ok && ctx.File.StyleImports[ns.Name] == "*" {
			return x.Property
		}
		if ctx.StyleAPI(x.Object) == "styled" {
			return "styled"
		}
	case *ast.Call:
		if ctx.StyleAPI(x.Callee) == "styled" {
			return "styled"
		}
	}
	return ""
}

// frame binds function parameters to the arguments of one call
type frame struct {
	parent *frame
	values map[*ast.Binding]envValue
}

type envValue struct {
	expr ast.Expr
	ctx  *Context
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, values: map[*ast.Binding]envValue{}}
}

func (f *frame) get(b *ast.Binding) (envValue, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.values[b]; ok {
			return v, true
		}
	}
	return envValue{}, false
}

func (f *frame) set(b *ast.Binding, expr ast.Expr, ctx *Context) {
	f.values[b] = envValue{expr: expr, ctx: ctx}
}
