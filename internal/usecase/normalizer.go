package usecase

import "strings"

// Normalization rules for grouping offers into canonical products. All
// functions are pure; semantically equal inputs must normalize identically
// since the group key is built from their output.

// sizeRewrites maps unit spellings onto one canonical form. Order matters:
// longer spellings rewrite before their substrings.
var sizeRewrites = [][2]string{
	{"fluid ounces", "fl oz"},
	{"fluid ounce", "fl oz"},
	{"ounces", "oz"},
	{"ounce", "oz"},
	{"fl. oz", "fl oz"},
	{"fl-oz", "fl oz"},
	{"packs", "pack"},
	{" ct", " count"},
	{"ct", "count"},
}

// nameNoiseTokens are filler words dropped from product names when they stand
// alone between other words.
var nameNoiseTokens = []string{"brand", "original", "the"}

// NormText lowercases and trims.
func NormText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormName canonicalizes a product name: noise tokens removed, hyphens become
// spaces, whitespace collapsed.
func NormName(s string) string {
	n := NormText(s)
	for _, tok := range nameNoiseTokens {
		n = strings.ReplaceAll(n, " "+tok+" ", " ")
	}
	n = strings.ReplaceAll(n, "-", " ")
	return strings.Join(strings.Fields(n), " ")
}

// NormSize canonicalizes a size string so that different unit spellings of
// the same size compare equal, e.g. "12 Fluid Ounces" and "12 fl oz".
func NormSize(s string) string {
	n := NormText(s)
	for _, rw := range sizeRewrites {
		n = strings.ReplaceAll(n, rw[0], rw[1])
	}
	return strings.Join(strings.Fields(n), " ")
}

// GroupKey is the canonical product identity: two offers share a product iff
// their normalized brand, name and size agree.
func GroupKey(brand, name, size string) string {
	return NormText(brand) + "|" + NormName(name) + "|" + NormSize(size)
}
