// Package position converts byte positions in source text to UTF-16 code
// units, the unit editors and source maps count columns in.
package position

import (
	"unicode/utf16"
	"unicode/utf8"
)

// ByteOffsetToUTF16 returns the number of UTF-16 code units in s[:byteOffset].
// An offset inside a multi-byte rune counts up to the start of that rune;
// invalid bytes count as one unit each.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	units := 0
	for i := 0; i < byteOffset; {
		r, size := utf8.DecodeRuneInString(s[i:])
		if i+size > byteOffset {
			break
		}
		if r == utf8.RuneError && size == 1 {
			units++
		} else {
			units += utf16.RuneLen(r)
		}
		i += size
	}
	return units
}

// Column returns the 1-based UTF-16 column of byte offset off in src, given
// the byte offset of the start of its line. Out of range offsets are
// clamped.
func Column(src []byte, lineStart, off int) int {
	if off > len(src) {
		off = len(src)
	}
	if lineStart < 0 || lineStart > off {
		lineStart = off
	}
	return ByteOffsetToUTF16(string(src[lineStart:off]), off-lineStart) + 1
}
