// Package evaluation measures how often hybrid retrieval surfaces the rule a
// labelled sentence violates.
package evaluation

import (
	"strings"
	"unicode"
)

const cjkPunctuation = "，。、“”‘’：；！？”（）—-、《》…【】〔〕·"

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var dropped = func() map[rune]bool {
	m := make(map[rune]bool)
	for _, r := range cjkPunctuation + asciiPunctuation {
		m[r] = true
	}
	return m
}()

// toHalfWidth maps the ideographic space and the full-width ASCII block to
// their ASCII forms.
func toHalfWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x3000:
			return ' '
		case r >= 0xFF01 && r <= 0xFF5E:
			return r - 0xFEE0
		}
		return r
	}, s)
}

// NormalizeText prepares text for a containment match: half width, lower
// case, no whitespace and no ASCII or common Chinese punctuation.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	half := strings.ToLower(toHalfWidth(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || dropped[r] {
			return -1
		}
		return r
	}, half)
}

//Personal.AI order the ending
