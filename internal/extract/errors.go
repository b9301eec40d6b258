package extract

import (
	"errors"
	"fmt"
	"strings"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/position"
)

// Sentinel errors for error type checking
var (
	// ErrUnresolvedIdentifier indicates a style value names something that
	// cannot be resolved to CSS
	ErrUnresolvedIdentifier = errors.New("unresolved identifier")

	// ErrUnhandledValue indicates a value shape the builder does not support
	ErrUnhandledValue = errors.New("unhandled value")

	// ErrSpreadTarget indicates a spread of something that is not an object
	ErrSpreadTarget = errors.New("invalid spread target")

	// ErrComputedKey indicates a computed property key that is not static
	ErrComputedKey = errors.New("unsupported computed key")

	// ErrConditionalBranch indicates a conditional branch that does not
	// reduce to exactly one CSS item
	ErrConditionalBranch = errors.New("conditional branch contains unexpected expression")

	// ErrArrayElement indicates an array element the builder cannot handle
	ErrArrayElement = errors.New("unhandled array element")

	// ErrKeyframes indicates a keyframes body that is not static CSS
	ErrKeyframes = errors.New("invalid keyframes")

	// ErrImportedVariable indicates a runtime value that comes from another
	// file and so cannot become a custom property of this one
	ErrImportedVariable = errors.New("imported variable")

	// ErrCircularImport indicates an export that depends on itself
	ErrCircularImport = errors.New("circular import")
)

// Location is a 1-indexed source position. Column counts UTF-16 code units,
// the unit editors and source maps use.
type Location struct {
	File   string
	Line   uint
	Column uint
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Locate returns the location of n in the context's file
func Locate(n ast.Node, ctx *Context) Location {
	if n == nil || ctx == nil || ctx.File == nil {
		return Location{}
	}
	sp := n.Pos()
	loc := Location{File: ctx.File.Path, Line: sp.Line + 1, Column: sp.Column + 1}
	src := ctx.File.Source
	if sp.Start <= uint(len(src)) && sp.Column <= sp.Start {
		loc.Column = uint(position.Column(src, int(sp.Start-sp.Column), int(sp.Start)))
	}
	return loc
}

// source returns the source text of n, or its printed form for synthesized
// expressions
func source(n ast.Node, ctx *Context) string {
	if ctx != nil && ctx.File != nil {
		if text := ctx.File.Text(n); text != "" {
			return text
		}
	}
	if e, ok := n.(ast.Expr); ok {
		return ast.Print(e)
	}
	return ""
}

// UnresolvedIdentifierError is returned when an identifier or member chain
// used as a style cannot be reduced
type UnresolvedIdentifierError struct {
	Location Location
	Name     string
}

func (e *UnresolvedIdentifierError) Error() string {
	return fmt.Sprintf("%s: cannot resolve %q to a style", e.Location, e.Name)
}

func (e *UnresolvedIdentifierError) Unwrap() error {
	return ErrUnresolvedIdentifier
}

// NewUnresolvedIdentifierError creates a new unresolved identifier error
func NewUnresolvedIdentifierError(n ast.Node, ctx *Context) error {
	return &UnresolvedIdentifierError{Location: Locate(n, ctx), Name: source(n, ctx)}
}

// UnhandledValueError is returned for value shapes the builder cannot turn
// into CSS
type UnhandledValueError struct {
	Location Location
	Kind     string
	Source   string
}

func (e *UnhandledValueError) Error() string {
	return fmt.Sprintf("%s: cannot build CSS from %s %q", e.Location, e.Kind, e.Source)
}

func (e *UnhandledValueError) Unwrap() error {
	return ErrUnhandledValue
}

// NewUnhandledValueError creates a new unhandled value error
func NewUnhandledValueError(n ast.Node, ctx *Context) error {
	return &UnhandledValueError{Location: Locate(n, ctx), Kind: kindOf(n), Source: source(n, ctx)}
}

// SpreadTargetError is returned when a spread does not resolve to an object
// or a style
type SpreadTargetError struct {
	Location Location
	Source   string
}

func (e *SpreadTargetError) Error() string {
	return fmt.Sprintf("%s: spread of %q does not resolve to an object", e.Location, e.Source)
}

func (e *SpreadTargetError) Unwrap() error {
	return ErrSpreadTarget
}

// NewSpreadTargetError creates a new spread target error
func NewSpreadTargetError(n ast.Node, ctx *Context) error {
	return &SpreadTargetError{Location: Locate(n, ctx), Source: source(n, ctx)}
}

// ComputedKeyError is returned when a computed key is not a static string
type ComputedKeyError struct {
	Location Location
	Source   string
	Reason   string
}

func (e *ComputedKeyError) Error() string {
	return fmt.Sprintf("%s: computed key [%s]: %s", e.Location, e.Source, e.Reason)
}

func (e *ComputedKeyError) Unwrap() error {
	return ErrComputedKey
}

// NewComputedKeyError creates a new computed key error
func NewComputedKeyError(n ast.Node, ctx *Context, reason string) error {
	return &ComputedKeyError{Location: Locate(n, ctx), Source: source(n, ctx), Reason: reason}
}

// ConditionalBranchError is returned when a branch of a conditional style
// builds to anything but a single CSS item
type ConditionalBranchError struct {
	Location Location
	Source   string
	Items    int
}

func (e *ConditionalBranchError) Error() string {
	if e.Items > 1 {
		return fmt.Sprintf("%s: conditional branch %q builds %d separate rules, expected one", e.Location, e.Source, e.Items)
	}
	return fmt.Sprintf("%s: conditional branch contains unexpected expression %q", e.Location, e.Source)
}

func (e *ConditionalBranchError) Unwrap() error {
	return ErrConditionalBranch
}

// NewConditionalBranchError creates a new conditional branch error
func NewConditionalBranchError(n ast.Node, ctx *Context, items int) error {
	return &ConditionalBranchError{Location: Locate(n, ctx), Source: source(n, ctx), Items: items}
}

// ArrayElementError is returned for array elements that are not styles
type ArrayElementError struct {
	Location Location
	Source   string
}

func (e *ArrayElementError) Error() string {
	return fmt.Sprintf("%s: array element %q is not a style", e.Location, e.Source)
}

func (e *ArrayElementError) Unwrap() error {
	return ErrArrayElement
}

// NewArrayElementError creates a new array element error
func NewArrayElementError(n ast.Node, ctx *Context) error {
	return &ArrayElementError{Location: Locate(n, ctx), Source: source(n, ctx)}
}

// KeyframesError is returned when a keyframes body does not build to
// unconditional CSS
type KeyframesError struct {
	Location Location
	Reason   string
}

func (e *KeyframesError) Error() string {
	return fmt.Sprintf("%s: keyframes: %s", e.Location, e.Reason)
}

func (e *KeyframesError) Unwrap() error {
	return ErrKeyframes
}

// NewKeyframesError creates a new keyframes error
func NewKeyframesError(n ast.Node, ctx *Context, reason string) error {
	return &KeyframesError{Location: Locate(n, ctx), Reason: reason}
}

// ImportedVariableError is returned when a value that must become a runtime
// custom property lives in another file
type ImportedVariableError struct {
	Location Location
	Source   string
}

func (e *ImportedVariableError) Error() string {
	return fmt.Sprintf("%s: %q is not static and comes from another module; runtime values must be defined in the file that uses them", e.Location, e.Source)
}

func (e *ImportedVariableError) Unwrap() error {
	return ErrImportedVariable
}

// NewImportedVariableError creates a new imported variable error
func NewImportedVariableError(n ast.Node, ctx *Context) error {
	return &ImportedVariableError{Location: Locate(n, ctx), Source: source(n, ctx)}
}

// CircularImportError is returned when resolving an export re-enters itself
type CircularImportError struct {
	// Chain lists the file#export pairs being resolved, ending with the
	// repeated one
	Chain []string
}

func (e *CircularImportError) Error() string {
	return fmt.Sprintf("circular import: %s", strings.Join(e.Chain, " -> "))
}

func (e *CircularImportError) Unwrap() error {
	return ErrCircularImport
}

// NewCircularImportError creates a new circular import error
func NewCircularImportError(chain []string) error {
	return &CircularImportError{Chain: chain}
}

// kindOf names a node kind for messages
func kindOf(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Ident:
		return "identifier"
	case *ast.StringLit:
		return "string"
	case *ast.NumberLit:
		return "number"
	case *ast.BoolLit:
		return "boolean"
	case *ast.NullLit:
		return "null"
	case *ast.TemplateLit:
		return "template literal"
	case *ast.TaggedTemplate:
		return "tagged template"
	case *ast.ObjectLit:
		return "object"
	case *ast.ArrayLit:
		return "array"
	case *ast.Member:
		return "member expression"
	case *ast.Call:
		return "call"
	case *ast.New:
		return "new expression"
	case *ast.Func:
		return "function"
	case *ast.Unary, *ast.Binary, *ast.Update:
		return "operator expression"
	case *ast.Logical:
		return "logical expression"
	case *ast.Conditional:
		return "conditional expression"
	case *ast.JSXElement:
		return "JSX element"
	case *ast.Opaque:
		return strings.ReplaceAll(n.Kind, "_", " ")
	}
	return "expression"
}
