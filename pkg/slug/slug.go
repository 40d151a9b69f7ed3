package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// latinFold maps the accented letters common in artist, album and user names
// to ASCII.
var latinFold = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ı", "i",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ñ", "n", "ç", "c", "ş", "s", "ğ", "g", "ý", "y", "ÿ", "y",
	"æ", "ae", "œ", "oe", "ß", "ss",
	"&", " and ",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Sigur Rós" → "sigur-ros"
//   - "Simon & Garfunkel" → "simon-and-garfunkel"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	return join(name, "-")
}

// Handle derives a user handle from a display name: lower case ASCII words
// joined by underscores, e.g. "Björk Guðmundsdóttir" → "bjork_gu_mundsdottir".
func Handle(displayName string) string {
	return join(displayName, "_")
}

func join(name, sep string) string {
	s := latinFold.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = nonAlnum.ReplaceAllString(s, sep)
	return strings.Trim(s, sep)
}
