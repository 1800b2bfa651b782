package slug

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var translit = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
	"ä", "a", "ë", "e", "ï", "i", "ß", "ss",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Home & Garden" → "home-garden"
//   - "Çocuk Ürünleri" → "cocuk-urunleri"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = translit.Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Filename slugs the base name of an uploaded file while preserving its
// lowercased extension. "Red Shirt.PNG" becomes "red-shirt.png".
func Filename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(original, filepath.Ext(original))
	return Generate(base) + ext
}
