package extract

import (
	"strings"
	"unicode"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/collections"
)

// unitless lists the properties whose numeric values take no unit
var unitless = collections.NewSet(
	"animation-iteration-count",
	"aspect-ratio",
	"border-image-outset",
	"border-image-slice",
	"border-image-width",
	"box-flex",
	"box-flex-group",
	"box-ordinal-group",
	"column-count",
	"columns",
	"fill-opacity",
	"flex",
	"flex-grow",
	"flex-negative",
	"flex-order",
	"flex-positive",
	"flex-shrink",
	"flood-opacity",
	"font-weight",
	"grid-area",
	"grid-column",
	"grid-column-end",
	"grid-column-span",
	"grid-column-start",
	"grid-row",
	"grid-row-end",
	"grid-row-span",
	"grid-row-start",
	"initial-letter",
	"line-clamp",
	"line-height",
	"opacity",
	"order",
	"orphans",
	"scale",
	"stop-opacity",
	"stroke-dasharray",
	"stroke-dashoffset",
	"stroke-miterlimit",
	"stroke-opacity",
	"stroke-width",
	"tab-size",
	"widows",
	"z-index",
	"zoom",
)

// cssProperty converts an object key to a CSS property name. Custom
// properties and selector keys keep their spelling; camelCase becomes
// kebab-case, with vendor prefixes such as WebkitX and msX becoming
// -webkit-x and -ms-x.
func cssProperty(key string) string {
	if strings.HasPrefix(key, "--") || selectorKey(key) {
		return key
	}
	var sb strings.Builder
	if strings.HasPrefix(key, "ms") && len(key) > 2 && unicode.IsUpper(rune(key[2])) {
		sb.WriteByte('-')
	}
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 || isVendor(key) {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isVendor(key string) bool {
	for _, prefix := range []string{"Webkit", "Moz", "O"} {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) && unicode.IsUpper(rune(key[len(prefix)])) {
			return true
		}
	}
	return false
}

// withUnit renders a number for a property, appending px where a unit is
// expected
func withUnit(property string, n *ast.NumberLit) string {
	value := ast.FormatNumber(n.Value)
	if n.Value == 0 || strings.HasPrefix(property, "--") || unitless.Has(property) {
		return value
	}
	return value + "px"
}
