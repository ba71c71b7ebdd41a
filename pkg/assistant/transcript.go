package assistant

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Transcript is one recognition event. Results are in delivery order and each
// result lists its alternatives in confidence order.
type Transcript struct {
	Results [][]string
}

func NewTranscript(alternatives ...string) Transcript {
	return Transcript{Results: [][]string{alternatives}}
}

// Normalize returns a copy with every alternative normalized.
func (t Transcript) Normalize() Transcript {
	out := Transcript{Results: make([][]string, 0, len(t.Results))}
	for _, result := range t.Results {
		alts := make([]string, 0, len(result))
		for _, alt := range result {
			alts = append(alts, NormalizeText(alt))
		}
		out.Results = append(out.Results, alts)
	}
	return out
}

func (t Transcript) IsBlank() bool {
	for _, result := range t.Results {
		for _, alt := range result {
			if strings.TrimSpace(alt) != "" {
				return false
			}
		}
	}
	return true
}

// Best is the first alternative of the most recent result.
func (t Transcript) Best() string {
	for i := len(t.Results) - 1; i >= 0; i-- {
		if len(t.Results[i]) > 0 {
			return t.Results[i][0]
		}
	}
	return ""
}

// FirstMatch walks results then alternatives and returns the first that matches.
func (t Transcript) FirstMatch(match func(string) bool) (string, bool) {
	for _, result := range t.Results {
		for _, alt := range result {
			if alt != "" && match(alt) {
				return alt, true
			}
		}
	}
	return "", false
}

// NormalizeText lower-cases, strips combining marks, trims and collapses whitespace.
func NormalizeText(text string) string {
	text = strings.ToLower(text)

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	return strings.Join(strings.Fields(result), " ")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
