package assistant

import "strings"

// Natural sounding voices shipped by the major browsers, best first.
var preferredVoices = []string{
	"Samantha",
	"Alex",
	"Microsoft Jessa",
	"Microsoft Guy",
	"Microsoft Zira",
	"Microsoft David",
	"Google US English",
	"Google UK English Female",
	"Google UK English Male",
}

// SelectVoice picks the utterance voice from what the client offers. It returns
// nil when the list is empty and the client should use its default.
func SelectVoice(voices []Voice) *Voice {
	if len(voices) == 0 {
		return nil
	}

	for _, name := range preferredVoices {
		for _, v := range voices {
			if strings.Contains(v.Name, name) && (v.Lang == "en-US" || v.Lang == "en-GB") {
				return pick(v)
			}
		}
	}

	for _, v := range voices {
		if v.Lang == "en-US" && !isInternational(v) {
			return pick(v)
		}
	}

	for _, v := range voices {
		if strings.HasPrefix(v.Lang, "en-") && !isInternational(v) {
			return pick(v)
		}
	}

	return pick(voices[0])
}

func isInternational(v Voice) bool {
	return strings.Contains(strings.ToLower(v.Name), "international")
}

func pick(v Voice) *Voice {
	return &v
}
