package toc

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugger produces heading anchors the way GitHub does: lower-cased,
// punctuation removed, spaces turned into dashes. Repeated slugs get a
// numeric suffix in first-seen order.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: map[string]int{}}
}

// Slug returns a slug for s that has not been returned before.
func (s *Slugger) Slug(text string) string {
	base := Slugify(text)
	result := base
	for {
		if _, taken := s.seen[result]; !taken {
			break
		}
		s.seen[base]++
		result = base + "-" + strconv.Itoa(s.seen[base])
	}
	s.seen[result] = 0
	return result
}

// Slugify converts text to an anchor without uniqueness tracking.
func Slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
