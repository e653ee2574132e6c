// Package topic canonicalizes topic strings for identity comparisons.
//
// Two raw strings that normalize identically name the same concept. The
// normal form lower-cases, trims, collapses internal whitespace, strips
// punctuation (hyphens survive, they carry meaning in compound terms),
// and folds accented characters to their base letters.
package topic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nodelearn/nodelearn/internal/models"
)

// foldDiacritics decomposes to NFD, drops combining marks, recomposes to NFC.
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize canonicalizes raw into a Topic. The display form keeps the
// trimmed original text; equality is defined on the normal form only.
// Returns models.ErrInvalidTopic when nothing survives normalization.
func Normalize(raw string) (models.Topic, error) {
	display := strings.Join(strings.Fields(raw), " ")

	folded, _, err := transform.String(foldDiacritics, display)
	if err != nil {
		// Malformed UTF-8; fall back to the unfolded text.
		folded = display
	}

	var b strings.Builder

	lastSpace := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) && r != '-':
			// Dropped entirely, matching word boundaries like "Calvin Cycle:".
		case unicode.IsSymbol(r):
			// Same treatment as punctuation.
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	normed := strings.TrimRight(b.String(), " ")
	if normed == "" {
		return models.Topic{}, models.ErrInvalidTopic
	}

	return models.Topic{Norm: normed, Display: display}, nil
}
