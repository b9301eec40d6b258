package extract_test

import (
	"regexp"
	"testing"

	"bennypowers.dev/csslift/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyframesSource = `
const fadeIn = keyframes({ from: { opacity: 0 }, to: { opacity: 1 } });
const fadeCopy = keyframes({ from: { opacity: 0 }, to: { opacity: 1 } });
const slide = keyframes` + "`from { transform: translateX(0); } to { transform: translateX(${distance}px); }`" + `;
const distance = 10;
const styles = css({ animationName: fadeIn, animationDuration: '1s' });
const inTemplate = css` + "`animation: ${fadeIn} 1s;`" + `;
const broken = keyframes({ from: { opacity: props.start } });
`

var keyframesName = regexp.MustCompile(`^k[0-9a-z]{6}$`)

func TestKeyframesDeterministic(t *testing.T) {
	ctx := source(t, keyframesSource)

	name, out, err := extract.BuildKeyframes(definition(t, ctx, "fadeIn"), ctx)
	require.NoError(t, err)
	assert.Regexp(t, keyframesName, name)
	assert.Equal(t, []string{"sheet @keyframes " + name + "{from{opacity:0;}to{opacity:1;}}"}, describe(out.CSS))

	again, _, err := extract.BuildKeyframes(definition(t, ctx, "fadeIn"), ctx)
	require.NoError(t, err)
	assert.Equal(t, name, again)

	copied, _, err := extract.BuildKeyframes(definition(t, ctx, "fadeCopy"), ctx)
	require.NoError(t, err)
	assert.Equal(t, name, copied, "identical bodies share a name")

	slide, out, err := extract.BuildKeyframes(definition(t, ctx, "slide"), ctx)
	require.NoError(t, err)
	assert.NotEqual(t, name, slide)
	assert.Equal(t, []string{"sheet @keyframes " + slide + "{from { transform: translateX(0); } to { transform: translateX(10px); }}"}, describe(out.CSS))
}

func TestKeyframesAsValue(t *testing.T) {
	ctx := source(t, keyframesSource)
	name, _, err := extract.BuildKeyframes(definition(t, ctx, "fadeIn"), ctx)
	require.NoError(t, err)
	sheet := "sheet @keyframes " + name + "{from{opacity:0;}to{opacity:1;}}"

	out, err := extract.Build(definition(t, ctx, "styles"), ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{sheet, "animation-name:" + name + ";animation-duration:1s;"}, describe(out.CSS))

	out, err = extract.Build(definition(t, ctx, "inTemplate"), ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{sheet, "animation: " + name + " 1s;"}, describe(out.CSS))
}

func TestKeyframesRejectRuntimeValues(t *testing.T) {
	ctx := source(t, keyframesSource)
	_, _, err := extract.BuildKeyframes(definition(t, ctx, "broken"), ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrKeyframes)
}
