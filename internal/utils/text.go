package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromSlug turns a file slug into a display title:
// "getting-started" -> "Getting Started". Only hyphens separate words and
// letters after the first of each word keep their case, so "iOS-setup"
// becomes "IOS Setup".
func TitleFromSlug(slug string) string {
	s := strings.Join(strings.Fields(strings.ReplaceAll(slug, "-", " ")), " ")
	return cases.Title(language.English, cases.NoLower).String(s)
}

// StripMarkdownExt removes a trailing ".md" (case-insensitive) from name and
// reports whether it was present.
func StripMarkdownExt(name string) (string, bool) {
	if len(name) >= 3 && strings.EqualFold(name[len(name)-3:], ".md") {
		return name[:len(name)-3], true
	}
	return name, false
}
