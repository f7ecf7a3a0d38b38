package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type ITextService interface {
	RemoveTags(input string) string
	CollapseSpaces(input string) string
	FoldDiacritics(input string) string
	Slugify(name, itemCode string) string
}

var (
	tagsRe       = regexp.MustCompile(`<[^>]*>`)
	spacesRe     = regexp.MustCompile(`\s+`)
	slugStripRe  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugHyphenRe = regexp.MustCompile(`-{2,}`)
)

type TextService struct{}

func NewTextService() *TextService {
	return &TextService{}
}

// RemoveTags убирает html-разметку из описаний поставщика.
func (ts *TextService) RemoveTags(input string) string {
	return tagsRe.ReplaceAllString(html.UnescapeString(input), "")
}

func (ts *TextService) CollapseSpaces(input string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(input, " "))
}

// FoldDiacritics переводит "Maceta Ñandú" в "Maceta Nandu".
func (ts *TextService) FoldDiacritics(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

// Slugify строит URL-безопасный slug из названия и кода товара.
// Код товара в конце делает slug уникальным при одинаковых названиях.
func (ts *TextService) Slugify(name, itemCode string) string {
	s := strings.ToLower(ts.FoldDiacritics(name))
	s = slugStripRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = spacesRe.ReplaceAllString(s, "-")
	s = slugHyphenRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	code := slugCode(itemCode)
	switch {
	case s == "":
		return code
	case code == "":
		return s
	}
	return s + "-" + code
}

// slugCode приводит код к нижнему регистру без потери символов: "AB.1" и "AB1"
// дают разные суффиксы, прочие символы кодируются как _<hex>.
func slugCode(itemCode string) string {
	code := spacesRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(itemCode)), "-")
	var b strings.Builder
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_', r == '~':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%x", r)
		}
	}
	return b.String()
}
