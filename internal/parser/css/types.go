package css

// Position is a 0-indexed line and byte column in the parsed text
type Position struct {
	Line      uint32
	Character uint32
}

// Range represents a range in the parsed text
type Range struct {
	Start Position
	End   Position
}

// Declaration is one property: value pair together with the rules it is
// nested in
type Declaration struct {
	Property  string
	Value     string
	Important bool
	// Selectors is the chain of enclosing rule selectors, outermost first.
	// Selectors may contain the nesting selector &.
	Selectors []string
	// AtRules is the chain of enclosing conditional at-rules, outermost
	// first, e.g. "@media (min-width: 500px)"
	AtRules []string
	Range   Range
}

// Variable is a custom property declaration (--name: value)
type Variable struct {
	Name  string
	Value string
	Range Range
}

// VarCall is a var() reference
type VarCall struct {
	Name     string
	Fallback *string
	Range    Range
}

// ParseResult contains the results of parsing a block of CSS
type ParseResult struct {
	Declarations []*Declaration
	Variables    []*Variable
	VarCalls     []*VarCall
	// Passthrough holds rules that cannot be split into declarations
	// (@keyframes, @font-face, @import, ...) as raw text
	Passthrough []string
}
