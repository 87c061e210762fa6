package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

var nonSlugRunes = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a human title into the lowercased, transliterated,
// dash-separated form used for output paths.
// "Configuración del entorno" -> "configuracion-del-entorno"
func Slugify(title string) string {
	flat, _, err := transform.String(stripDiacritics, title)
	if err != nil {
		flat = title
	}
	flat = strings.ToLower(flat)
	flat = nonSlugRunes.ReplaceAllString(flat, "-")
	return strings.Trim(flat, "-")
}
