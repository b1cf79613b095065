package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	nonWordChars  = regexp.MustCompile(`[^\w-]+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a title into a URL-safe identifier fragment.
// Accents are folded first ("Café" becomes "cafe"); any other non-word character is dropped.
func Slugify(text string) string {
	s := strings.ToLower(foldDiacritics(text))
	s = strings.TrimSpace(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonWordChars.ReplaceAllString(s, "")
	return hyphenRun.ReplaceAllString(s, "-")
}

// FallbackSlug is used when a title slugifies to nothing
func FallbackSlug(t time.Time) string {
	return fmt.Sprintf("post-%d", t.UnixMilli())
}

// SlugOrFallback slugifies title, falling back to a timestamped slug
func SlugOrFallback(title string, t time.Time) string {
	if s := Slugify(title); s != "" {
		return s
	}
	return FallbackSlug(t)
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
