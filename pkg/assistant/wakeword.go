package assistant

import "strings"

var DefaultWakeWords = []string{
	"hey webby", "hey webbe", "hey web",
	"hey website", "hey web5", "hey baby",
	"hey webbie", "hey with", "hey web 5",
}

var fuzzyWakeTargets = []string{"web", "website", "webby", "webbie"}

// WakeWordSet is immutable after construction.
type WakeWordSet struct {
	phrases []string
}

func NewWakeWordSet(phrases []string) WakeWordSet {
	seen := make(map[string]bool, len(phrases))
	normalized := make([]string, 0, len(phrases))

	for _, p := range phrases {
		p = NormalizeText(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		normalized = append(normalized, p)
	}

	return WakeWordSet{phrases: normalized}
}

func (w WakeWordSet) Phrases() []string {
	out := make([]string, len(w.phrases))
	copy(out, w.phrases)
	return out
}

// Matches applies the exact substring check, then the fuzzy "hey" + "web…" rule.
// The fuzzy rule also accepts phrases like "hey, i like the web".
func (w WakeWordSet) Matches(text string) bool {
	if text == "" {
		return false
	}

	for _, phrase := range w.phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	if !strings.Contains(text, "hey") {
		return false
	}

	for _, target := range fuzzyWakeTargets {
		if strings.Contains(text, target) {
			return true
		}
	}

	return false
}
