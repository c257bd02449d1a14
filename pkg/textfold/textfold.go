// Package textfold normaliza texto para búsquedas sin distinguir mayúsculas ni tildes.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold devuelve s en minúsculas (case folding Unicode) y sin marcas diacríticas.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}

// Contains reporta si needle aparece en haystack tras normalizar ambos.
// Un needle vacío siempre coincide.
func Contains(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), n)
}
