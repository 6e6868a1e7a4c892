// Package catalog holds the pure identifier generators for catalog entities.
// None of them touch the database: callers pass a taken-check so collision
// handling stays testable.
package catalog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// GenerateSlug parameterizes name into a URL slug and, on collision, appends
// -1, -2, ... until taken reports the candidate free.
func GenerateSlug(name string, taken func(string) bool) string {
	base := slug.Make(name)
	candidate := base
	for i := 1; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return candidate
}

// GenerateSKU builds a product SKU as <CAT>-<NAME>-<HEXHEX>: the first three
// letters of the category, the first four alphanumerics of the product name,
// and six random hex characters. Uniqueness is enforced by the database
// constraint, not by the generator.
func GenerateSKU(categoryName, productName string) string {
	categoryCode := letterPrefix(categoryName, 3)
	if categoryCode == "" {
		categoryCode = "PRD"
	}
	nameCode := alnumPrefix(productName, 4)
	if nameCode == "" {
		nameCode = "ITEM"
	}
	return fmt.Sprintf("%s-%s-%s", categoryCode, nameCode, randomHex(3))
}

// GenerateVariantSKU derives a variant SKU from its parent's: the initials of
// the set attributes (color, size, style), or the first three alphanumerics
// of the variant name when no attribute is set. Unlike products there is no
// collision retry; a duplicate surfaces as a constraint violation on save.
func GenerateVariantSKU(parentSKU, color, size, style, name string) string {
	var code strings.Builder
	for _, attr := range []string{color, size, style} {
		if attr != "" {
			code.WriteString(strings.ToUpper(attr[:1]))
		}
	}
	suffix := code.String()
	if suffix == "" {
		suffix = alnumPrefix(name, 3)
	}
	if suffix == "" {
		suffix = "VAR"
	}
	return parentSKU + "-" + suffix
}

func letterPrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= n {
			break
		}
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func alnumPrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= n {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func randomHex(bytes int) string {
	b := make([]byte, bytes)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}
