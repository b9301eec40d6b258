// Package hash provides the content hashes used for cache keys and for
// generated CSS names (atomic classes, custom properties, keyframes).
package hash

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the 64-bit xxhash of s
func Sum(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Key hashes a (namespace, key) pair. The separator byte keeps
// ("ab", "c") and ("a", "bc") apart.
func Key(namespace, key string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(namespace)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(key)
	return d.Sum64()
}

// Base36 renders the hash of s in base 36
func Base36(s string) string {
	return strconv.FormatUint(Sum(s), 36)
}

// Fixed returns exactly n base-36 characters derived from the hash of s,
// taken from the low-order end so every character is uniformly distributed.
func Fixed(s string, n int) string {
	h := Base36(s)
	if len(h) < n {
		h = strings.Repeat("0", n-len(h)) + h
	}
	return h[len(h)-n:]
}
