package ast

import (
	"strconv"
	"strings"
)

// Print renders an expression as JavaScript source. It is used for runtime
// expressions in the extractor output, for stable hashing keys and for
// diagnostics, so the output is deterministic and fully parenthesized where
// precedence could be ambiguous.
func Print(e Expr) string {
	var sb strings.Builder
	printExpr(&sb, e)
	return sb.String()
}

// Quote renders s as a single-quoted JavaScript string literal
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// FormatNumber renders a float the way JavaScript prints numbers
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case nil:
		sb.WriteString("undefined")
	case *Ident:
		sb.WriteString(e.Name)
	case *StringLit:
		sb.WriteString(Quote(e.Value))
	case *NumberLit:
		if e.Raw != "" {
			sb.WriteString(e.Raw)
		} else {
			sb.WriteString(FormatNumber(e.Value))
		}
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(e.Value))
	case *NullLit:
		sb.WriteString("null")
	case *RegExpLit:
		sb.WriteString(e.Raw)
	case *TemplateLit:
		printTemplate(sb, e)
	case *TaggedTemplate:
		printOperand(sb, e.Tag)
		printTemplate(sb, e.Quasi)
	case *ObjectLit:
		printObject(sb, e)
	case *Spread:
		sb.WriteString("...")
		printOperand(sb, e.Arg)
	case *ArrayLit:
		sb.WriteByte('[')
		for i, el := range e.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			if el != nil {
				printExpr(sb, el)
			}
		}
		sb.WriteByte(']')
	case *Member:
		printOperand(sb, e.Object)
		switch {
		case e.Computed != nil:
			if e.Optional {
				sb.WriteString("?.")
			}
			sb.WriteByte('[')
			printExpr(sb, e.Computed)
			sb.WriteByte(']')
		case e.Optional:
			sb.WriteString("?." + e.Property)
		default:
			sb.WriteString("." + e.Property)
		}
	case *Call:
		printOperand(sb, e.Callee)
		if e.Optional {
			sb.WriteString("?.")
		}
		printArgs(sb, e.Args)
	case *New:
		sb.WriteString("new ")
		printOperand(sb, e.Callee)
		printArgs(sb, e.Args)
	case *Func:
		printFunc(sb, e)
	case *Unary:
		sb.WriteString(e.Op)
		if len(e.Op) > 1 {
			sb.WriteByte(' ')
		}
		switch e.X.(type) {
		case *Unary, *Update:
			sb.WriteByte('(')
			printExpr(sb, e.X)
			sb.WriteByte(')')
		default:
			printOperand(sb, e.X)
		}
	case *Update:
		if e.Prefix {
			sb.WriteString(e.Op)
			printOperand(sb, e.X)
		} else {
			printOperand(sb, e.X)
			sb.WriteString(e.Op)
		}
	case *Binary:
		printOperand(sb, e.X)
		sb.WriteString(" " + e.Op + " ")
		printOperand(sb, e.Y)
	case *Logical:
		printOperand(sb, e.X)
		sb.WriteString(" " + e.Op + " ")
		printOperand(sb, e.Y)
	case *Conditional:
		printOperand(sb, e.Test)
		sb.WriteString(" ? ")
		printOperand(sb, e.Cons)
		sb.WriteString(" : ")
		printOperand(sb, e.Alt)
	case *Assign:
		if t, ok := e.Target.(Expr); ok {
			printOperand(sb, t)
		}
		sb.WriteString(" " + e.Op + " ")
		printExpr(sb, e.Value)
	case *Sequence:
		for i, x := range e.Exprs {
			if i > 0 {
				sb.WriteString(", ")
			}
			printOperand(sb, x)
		}
	case *JSXElement:
		sb.WriteString(e.Text)
	case *Opaque:
		sb.WriteString(e.Text)
	}
}

// printOperand parenthesizes compound expressions
func printOperand(sb *strings.Builder, e Expr) {
	switch e.(type) {
	case *Binary, *Logical, *Conditional, *Assign, *Sequence, *Func, *ObjectLit:
		sb.WriteByte('(')
		printExpr(sb, e)
		sb.WriteByte(')')
	default:
		printExpr(sb, e)
	}
}

func printArgs(sb *strings.Builder, args []Expr) {
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		printExpr(sb, a)
	}
	sb.WriteByte(')')
}

func printTemplate(sb *strings.Builder, t *TemplateLit) {
	sb.WriteByte('`')
	for i, q := range t.Quasis {
		sb.WriteString(q)
		if i < len(t.Exprs) {
			sb.WriteString("${")
			printExpr(sb, t.Exprs[i])
			sb.WriteByte('}')
		}
	}
	sb.WriteByte('`')
}

func printObject(sb *strings.Builder, o *ObjectLit) {
	if len(o.Props) == 0 {
		sb.WriteString("{}")
		return
	}
	sb.WriteString("{ ")
	for i, p := range o.Props {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch p := p.(type) {
		case *Spread:
			printExpr(sb, p)
		case *KeyValue:
			if p.Shorthand {
				printExpr(sb, p.Value)
				continue
			}
			if p.Computed {
				sb.WriteByte('[')
				printExpr(sb, p.Key)
				sb.WriteByte(']')
			} else {
				printExpr(sb, p.Key)
			}
			sb.WriteString(": ")
			printExpr(sb, p.Value)
		}
	}
	sb.WriteString(" }")
}

func printFunc(sb *strings.Builder, f *Func) {
	if f.Async {
		sb.WriteString("async ")
	}
	if !f.Arrow {
		sb.WriteString("function ")
		sb.WriteString(f.Name)
	}
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		printPattern(sb, p)
	}
	sb.WriteByte(')')
	if f.Arrow {
		sb.WriteString(" => ")
	} else {
		sb.WriteByte(' ')
	}
	if f.Expr != nil {
		printOperand(sb, f.Expr)
		return
	}
	sb.WriteString("{ ... }")
}

func printPattern(sb *strings.Builder, p Pattern) {
	switch p := p.(type) {
	case *Ident:
		sb.WriteString(p.Name)
	case *Member:
		printExpr(sb, p)
	case *AssignPattern:
		printPattern(sb, p.Target)
		sb.WriteString(" = ")
		printExpr(sb, p.Default)
	case *RestPattern:
		sb.WriteString("...")
		printPattern(sb, p.Arg)
	case *ArrayPattern:
		sb.WriteByte('[')
		for i, el := range p.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			if el != nil {
				printPattern(sb, el)
			}
		}
		sb.WriteByte(']')
	case *ObjectPattern:
		sb.WriteString("{ ")
		for i, prop := range p.Props {
			if i > 0 {
				sb.WriteString(", ")
			}
			if id, ok := prop.Value.(*Ident); ok && id.Name == prop.Key {
				sb.WriteString(prop.Key)
				continue
			}
			sb.WriteString(prop.Key + ": ")
			printPattern(sb, prop.Value)
		}
		if p.Rest != nil {
			if len(p.Props) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
			printPattern(sb, p.Rest)
		}
		sb.WriteString(" }")
	}
}
