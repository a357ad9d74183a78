package entity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenthesized = regexp.MustCompile(`\([^)]+\)`)
	bracketed     = regexp.MustCompile(`\[[^\]]+\]`)
	whitespace    = regexp.MustCompile(`\s+`)
	nonSlug       = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeTitle cleans catalog title noise: enclosing brackets, bracketed
// remarks, ISBD punctuation and repeated whitespace.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimLeft(title, "[(")
	title = strings.TrimRight(title, "])")

	title = parenthesized.ReplaceAllString(title, "")
	title = bracketed.ReplaceAllString(title, "")

	title = whitespace.ReplaceAllString(title, " ")
	title = strings.ReplaceAll(title, " : ", ": ")
	title = strings.ReplaceAll(title, " ; ", ": ")

	return strings.Trim(title, " .,/")
}

// NormalizeName collapses whitespace, drops one-letter fragments and strips
// trailing dots from words longer than an initial.
func NormalizeName(name string) string {
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), " ")
	var parts []string
	for _, frag := range strings.Split(name, " ") {
		n := len([]rune(frag))
		if n < 2 {
			continue
		}
		if n > 2 {
			frag = strings.TrimRight(frag, ".")
		}
		parts = append(parts, frag)
	}
	return strings.TrimRight(strings.Join(parts, " "), ",")
}

// Fold lower-cases s and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Slugify turns a display name into a URL-safe slug.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(Fold(s), "-"), "-")
}

// NameTag identifies an entity by kind and folded name for linkage of
// related records that lack identifiers.
func NameTag(e *Entity) string {
	name := e.DisplayName()
	if e.Kind == Person {
		name = NormalizeName(name)
	}
	return string(e.Kind) + ":" + strings.Join(strings.Fields(Fold(name)), " ")
}
