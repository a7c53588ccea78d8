// Package text provides helpers for measuring post text.
package text

import "unicode/utf8"

// PostLengthLimit is the maximum post length accepted by Bluesky, in graphemes.
const PostLengthLimit = 300

// CountRunes counts the Unicode code points in text. It equals the grapheme
// count for plain text and overcounts combined sequences such as flag or
// family emoji.
//
//	CountRunes("hello")   // 5
//	CountRunes("日本語")   // 3
//	CountRunes("Hello👋") // 6
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// ExceedsPostLimit reports whether text is certainly longer than
// PostLengthLimit. A rune count over the limit may still be accepted if the
// text contains multi-rune graphemes, so callers should warn, not reject.
func ExceedsPostLimit(text string) bool {
	return CountRunes(text) > PostLengthLimit
}
