package css_test

import (
	"testing"

	"bennypowers.dev/csslift/internal/parser/css"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockDeclarations(t *testing.T) {
	result, err := css.ParseBlock("color: red; padding: 4px 8px;")
	require.NoError(t, err)
	require.Len(t, result.Declarations, 2)

	d := result.Declarations[0]
	assert.Equal(t, "color", d.Property)
	assert.Equal(t, "red", d.Value)
	assert.Empty(t, d.Selectors)
	assert.Empty(t, d.AtRules)

	assert.Equal(t, "padding", result.Declarations[1].Property)
	assert.Equal(t, "4px 8px", result.Declarations[1].Value)
}

func TestParseBlockLastDeclarationWithoutSemicolon(t *testing.T) {
	result, err := css.ParseBlock("color: red")
	require.NoError(t, err)
	require.Len(t, result.Declarations, 1)
	assert.Equal(t, "red", result.Declarations[0].Value)
}

func TestParseBlockImportant(t *testing.T) {
	result, err := css.ParseBlock("color: red !important;")
	require.NoError(t, err)
	require.Len(t, result.Declarations, 1)
	assert.Equal(t, "red", result.Declarations[0].Value)
	assert.True(t, result.Declarations[0].Important)
}

func TestParseBlockNesting(t *testing.T) {
	result, err := css.ParseBlock(`
color: red;
&:hover { color: blue; }
@media (min-width: 500px) {
  color: green;
  & > span { color: black; }
}
`)
	require.NoError(t, err)
	require.Len(t, result.Declarations, 4)

	hover := result.Declarations[1]
	assert.Equal(t, []string{"&:hover"}, hover.Selectors)
	assert.Equal(t, "blue", hover.Value)

	media := result.Declarations[2]
	assert.Equal(t, []string{"@media (min-width: 500px)"}, media.AtRules)
	assert.Empty(t, media.Selectors)

	nested := result.Declarations[3]
	assert.Equal(t, []string{"& > span"}, nested.Selectors)
	assert.Equal(t, []string{"@media (min-width: 500px)"}, nested.AtRules)
}

func TestParseVariablesAndVarCalls(t *testing.T) {
	result, err := css.ParseBlock("--_1a2b: 10px; margin: var(--_1a2b); color: var(--brand, rgb(0, 0, 0));")
	require.NoError(t, err)

	require.Len(t, result.Variables, 1)
	assert.Equal(t, "--_1a2b", result.Variables[0].Name)
	assert.Equal(t, "10px", result.Variables[0].Value)

	require.Len(t, result.VarCalls, 2)
	assert.Equal(t, "--_1a2b", result.VarCalls[0].Name)
	assert.Nil(t, result.VarCalls[0].Fallback)

	assert.Equal(t, "--brand", result.VarCalls[1].Name)
	require.NotNil(t, result.VarCalls[1].Fallback)
	assert.Equal(t, "rgb(0, 0, 0)", *result.VarCalls[1].Fallback)
}

func TestParseStylesheetPassthrough(t *testing.T) {
	parser := css.AcquireParser()
	defer css.ReleaseParser(parser)

	result, err := parser.Parse(`
@keyframes kabc { from { opacity: 0 } to { opacity: 1 } }
.a { color: red; }
`)
	require.NoError(t, err)
	require.Len(t, result.Passthrough, 1)
	assert.Contains(t, result.Passthrough[0], "@keyframes kabc")

	require.Len(t, result.Declarations, 1)
	assert.Equal(t, []string{".a"}, result.Declarations[0].Selectors)
}

func TestParseBlockRanges(t *testing.T) {
	result, err := css.ParseBlock("color: red;")
	require.NoError(t, err)
	require.Len(t, result.Declarations, 1)
	assert.Equal(t, uint32(0), result.Declarations[0].Range.Start.Line)
	assert.Equal(t, uint32(0), result.Declarations[0].Range.Start.Character)
}
