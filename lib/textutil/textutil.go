package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

// \p{Zs} catches the non-breaking spaces scraped html loves
var whitespaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)

// CollapseWhitespace trims a string and folds any run of whitespace
// into a single space.
func CollapseWhitespace(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}

// TitleCase uppercases the first letter of every space-separated word
// and lowercases the rest. Names come back from the council website in
// inconsistent all-caps.
func TitleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func RemoveNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}
