package extract

import (
	"slices"
	"strings"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/hash"
	"bennypowers.dev/csslift/internal/parser/js"
)

// buildTemplate builds CSS written as a template literal. Interpolations
// that reduce to literals are inlined, keyframes insert their name, styles
// in rule position are spliced in, and anything else in value position
// becomes a variable. Tagged css keeps the raw text so CSS escapes survive;
// a plain template literal is cooked like any JavaScript string.
func buildTemplate(t *ast.TemplateLit, ctx *Context, tagged bool) (*Output, error) {
	out := &Output{}
	var text strings.Builder
	flush := func() {
		out.css(strings.TrimSpace(text.String()))
		text.Reset()
	}

	quasis := slices.Clone(t.Quasis)
	if !tagged {
		quasis = cooked(t)
	}
	for i := range quasis {
		text.WriteString(quasis[i])
		if i >= len(t.Exprs) {
			break
		}
		expr := t.Exprs[i]
		v, vctx, err := evaluate(expr, ctx)
		if err != nil {
			return nil, err
		}

		switch {
		case ast.Literal(v):
			text.WriteString(stringify(v))
			continue
		case isNothing(v):
			continue
		case isKeyframes(v, vctx):
			name, kf, err := BuildKeyframes(v, vctx)
			if err != nil {
				return nil, err
			}
			out.add(kf)
			text.WriteString(name)
			continue
		}

		if !valuePosition(text.String()) {
			flush()
			sub, err := build(v, vctx)
			if err != nil {
				return nil, err
			}
			out.add(sub)
			continue
		}

		before := text.String()
		prefix := variablePrefix(before)
		suffix := variableSuffix(quasis[i+1])
		text.Reset()
		text.WriteString(before[:len(before)-len(prefix)])
		quasis[i+1] = quasis[i+1][len(suffix):]

		name, vars, err := variable(v, vctx, prefix, suffix)
		if err != nil {
			return nil, err
		}
		out.Variables = append(out.Variables, vars.Variables...)
		text.WriteString("var(" + name + ")")
	}
	flush()
	return out, nil
}

// templateValue builds a template literal used as a property value
func templateValue(t *ast.TemplateLit, ctx *Context) (string, *Output, error) {
	out := &Output{}
	var text strings.Builder
	quasis := cooked(t)
	for i := range quasis {
		text.WriteString(quasis[i])
		if i >= len(t.Exprs) {
			break
		}
		v, vctx, err := evaluate(t.Exprs[i], ctx)
		if err != nil {
			return "", nil, err
		}
		switch {
		case ast.Literal(v):
			text.WriteString(stringify(v))
			continue
		case isKeyframes(v, vctx):
			name, kf, err := BuildKeyframes(v, vctx)
			if err != nil {
				return "", nil, err
			}
			out.add(kf)
			text.WriteString(name)
			continue
		}
		before := text.String()
		prefix := variablePrefix(before)
		suffix := variableSuffix(quasis[i+1])
		text.Reset()
		text.WriteString(before[:len(before)-len(prefix)])
		quasis[i+1] = quasis[i+1][len(suffix):]

		name, vars, err := variable(v, vctx, prefix, suffix)
		if err != nil {
			return "", nil, err
		}
		out.add(vars)
		text.WriteString("var(" + name + ")")
	}
	return strings.TrimSpace(text.String()), out, nil
}

// cooked returns the quasis of an untagged template with escapes decoded
func cooked(t *ast.TemplateLit) []string {
	quasis := make([]string, len(t.Quasis))
	for i, q := range t.Quasis {
		quasis[i] = js.Unescape(q)
	}
	return quasis
}

// valuePosition reports whether text ends inside a declaration value, that
// is after a colon with no later semicolon or brace
func valuePosition(text string) bool {
	colon := strings.LastIndexByte(text, ':')
	if colon < 0 {
		return false
	}
	end := strings.LastIndexAny(text, ";{}")
	if end > colon {
		return false
	}
	// a colon followed by an opening brace later would be a selector such
	// as &:hover, which the check above already excludes
	return true
}

// variablePrefix is the text before an interpolation that belongs to the
// runtime value: an opening quote, or a minus sign starting the value
func variablePrefix(before string) string {
	if before == "" {
		return ""
	}
	last := before[len(before)-1]
	switch last {
	case '"', '\'':
		return string(last)
	case '-':
		if len(before) == 1 {
			return "-"
		}
		switch before[len(before)-2] {
		case ' ', '\t', '\n', ':', '(', ',':
			return "-"
		}
	}
	return ""
}

// variableSuffix is the text after an interpolation that belongs to the
// runtime value: a closing quote, a unit or a percent sign
func variableSuffix(after string) string {
	if after == "" {
		return ""
	}
	switch after[0] {
	case '"', '\'':
		return after[:1]
	case '%':
		return "%"
	}
	n := 0
	for n < len(after) && isLetter(after[n]) {
		n++
	}
	return after[:n]
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// variable binds a runtime expression to a generated custom property. The
// name hashes the printed expression together with its prefix and suffix,
// so the same value in the same position always shares a property.
func variable(e ast.Expr, ctx *Context, prefix, suffix string) (string, *Output, error) {
	switch ctx.Kind {
	case FragmentKind:
		return "", nil, NewImportedVariableError(e, ctx)
	case KeyframesKind:
		return "", nil, NewKeyframesError(e, ctx, "runtime values are not supported in keyframes")
	}
	key := variableKey(e, ctx)
	name := "--_" + hash.Fixed(key+"|"+prefix+"|"+suffix, 6)
	return name, &Output{Variables: []*Variable{{Name: name, Expression: e, Prefix: prefix, Suffix: suffix}}}, nil
}

func variableKey(e ast.Expr, ctx *Context) string {
	if fn, ok := e.(*ast.Func); ok && fn.Block != nil && ctx.File != nil {
		if text := ctx.File.Text(fn); text != "" {
			return text
		}
	}
	return ast.Print(e)
}

func isKeyframes(e ast.Expr, ctx *Context) bool {
	switch x := e.(type) {
	case *ast.Call:
		return ctx.StyleAPI(x.Callee) == "keyframes"
	case *ast.TaggedTemplate:
		return ctx.StyleAPI(x.Tag) == "keyframes"
	}
	return false
}
