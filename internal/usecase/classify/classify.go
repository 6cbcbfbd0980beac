// Package classify detects query intent and extracts known entity names from free text.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
)

// FuzzyMatchThreshold is the minimum ratio for a two-token query to resolve to a name.
const FuzzyMatchThreshold = 0.80

// Candidate length window relative to the query, inclusive.
const (
	minLengthRatio = 0.6
	maxLengthRatio = 1.4
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z]+[- ]?\d+$`)

// IsIdentifierQuery reports whether the trimmed text looks like a catalog code:
// letters, an optional hyphen or space, then digits.
func IsIdentifierQuery(text string) bool {
	return identifierPattern.MatchString(strings.TrimSpace(text))
}

// Extraction is the classifier output for the semantic and symbolic channels.
type Extraction struct {
	// Residual is the text left for the semantic channel. It is empty when the
	// query consisted only of entity names.
	Residual string
	// Entities are matched display names in match order.
	Entities []string
}

// Matched reports whether any entity was found.
func (e Extraction) Matched() bool { return len(e.Entities) > 0 }

// ExtractEntities finds dictionary names in text. It never fails: unmatched
// input yields no entities and the trimmed text as residual.
func ExtractEntities(text string, dict *entity.Dictionary) Extraction {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || dict.Len() == 0 {
		return Extraction{Residual: trimmed}
	}

	if name, ok := fuzzyTwoTokens(trimmed, dict); ok {
		return Extraction{Entities: []string{name}}
	}

	remaining := entity.Fold(trimmed)
	var matched []string
	for _, e := range dict.Entries() {
		for _, form := range e.Forms {
			if !strings.Contains(remaining, form) {
				continue
			}
			matched = append(matched, e.DisplayName)
			// erase every occurrence so shorter names cannot match inside it
			remaining = strings.ReplaceAll(remaining, form, " ")
			break
		}
	}

	if len(matched) == 0 {
		return Extraction{Residual: trimmed}
	}
	return Extraction{
		Residual: strings.Join(strings.Fields(remaining), " "),
		Entities: matched,
	}
}

// fuzzyTwoTokens resolves "first last" or "last first" queries against multi-word
// names within the length window. Ties keep the earlier (longer) dictionary entry.
func fuzzyTwoTokens(text string, dict *entity.Dictionary) (string, bool) {
	tokens := strings.Fields(text)
	if len(tokens) != 2 {
		return "", false
	}
	forward := entity.Fold(tokens[0] + " " + tokens[1])
	reversed := entity.Fold(tokens[1] + " " + tokens[0])
	qlen := float64(utf8.RuneCountInString(forward))

	best, bestName := 0.0, ""
	for _, e := range dict.Entries() {
		if !e.MultiWord() {
			continue
		}
		for _, form := range e.Forms {
			flen := float64(utf8.RuneCountInString(form))
			if flen < minLengthRatio*qlen || flen > maxLengthRatio*qlen {
				continue
			}
			r := max(Ratio(forward, form), Ratio(reversed, form))
			if r > best {
				best, bestName = r, e.DisplayName
			}
		}
	}
	if best >= FuzzyMatchThreshold {
		return bestName, true
	}
	return "", false
}

// Ratio is the normalized indel similarity of two strings in [0,1]:
// (len(a)+len(b)-indel(a,b)) / (len(a)+len(b)), with substitutions priced as
// one deletion plus one insertion. Lengths count runes, so one kanji costs the
// same as one latin letter.
func Ratio(a, b string) float64 {
	ca, cb := runesAsBytes(a, b)
	total := len(ca) + len(cb)
	if total == 0 {
		return 1
	}
	d := smetrics.WagnerFischer(ca, cb, 1, 1, 2)
	return float64(total-d) / float64(total)
}

// runesAsBytes re-encodes a and b over a shared one-byte alphabet, one byte per
// rune, so byte-wise edit distance equals rune-wise edit distance. Inputs with
// more than 256 distinct runes are returned unchanged.
func runesAsBytes(a, b string) (string, string) {
	codes := make(map[rune]byte)
	encode := func(s string) ([]byte, bool) {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			c, ok := codes[r]
			if !ok {
				if len(codes) == 256 {
					return nil, false
				}
				c = byte(len(codes))
				codes[r] = c
			}
			out = append(out, c)
		}
		return out, true
	}
	ea, ok := encode(a)
	if !ok {
		return a, b
	}
	eb, ok := encode(b)
	if !ok {
		return a, b
	}
	return string(ea), string(eb)
}
