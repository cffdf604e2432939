package roster

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Doctor name length bounds, counted in normalized runes.
const (
	minNameLen = 2
	maxNameLen = 100
)

// ValidationError reports a locally rejected input. It never involves the
// remote store.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid doctor name %q: %s", e.Name, e.Reason)
}

var titleCaser = cases.Title(language.Italian)

// Normalize canonicalizes a raw doctor name: surrounding whitespace is
// trimmed, internal runs collapsed to single spaces, the result is
// NFC-normalized and title-cased. Allowed characters are letters of any
// script, combining marks, spaces, apostrophes, periods and hyphens;
// length must be between 2 and 100 runes after normalization.
func Normalize(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	name = norm.NFC.String(name)

	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return "", &ValidationError{
			Name:   raw,
			Reason: fmt.Sprintf("length must be %d-%d characters, got %d", minNameLen, maxNameLen, n),
		}
	}

	for _, r := range name {
		if !allowedRune(r) {
			return "", &ValidationError{
				Name:   raw,
				Reason: fmt.Sprintf("character %q is not allowed", r),
			}
		}
	}

	return titleCaser.String(name), nil
}

func allowedRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.Is(unicode.Mn, r):
		return true
	case r == ' ', r == '\'', r == '.', r == '-':
		return true
	}
	return false
}

// FoldKey derives the key used for duplicate detection: case folded with
// diacritics stripped, so "Rossi Mario", "ROSSI MARIO" and "Róssi Màrio"
// all collide.
func FoldKey(name string) string {
	decomposed := norm.NFD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	return cases.Fold().String(b.String())
}
