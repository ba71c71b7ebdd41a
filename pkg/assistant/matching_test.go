package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWakeWordSet_Matches(t *testing.T) {
	set := NewWakeWordSet(DefaultWakeWords)

	tests := []struct {
		text string
		want bool
	}{
		{"hey webby", true},
		{"okay hey webby what's up", true},
		{"hey baby", true},
		{"hey web 5", true},
		{"hey there website", true},
		{"hey webbie", true},
		{"hello there", false},
		{"webby", false},
		{"hey you", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, set.Matches(tt.text))
		})
	}
}

func TestNewWakeWordSet(t *testing.T) {
	set := NewWakeWordSet([]string{"Hey  Webby", "hey webby", " ", "Hé Web"})
	assert.Equal(t, []string{"hey webby", "he web"}, set.Phrases())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"can I buy sandals", IntentSearch},
		{"I want to buy new shoes", IntentSearch},
		{"buy footwear please", IntentSearch},
		{"hello", IntentGreeting},
		{"is this it", IntentGreeting},
		{"how are you", IntentStatus},
		{"what time is it", IntentTime},
		{"weather today", IntentWeather},
		{"what is your name", IntentName},
		{"thank you", IntentThanks},
		{"bye", IntentFarewell},
		{"goodbye", IntentFarewell},
		{"sandals", IntentUnknown},
		{"blue", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestReply(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, "The current time is 2:05:09 PM.", Reply(IntentTime, now))
	assert.Equal(t, "I'm not sure how to respond to that.", Reply(IntentUnknown, now))
	assert.Equal(t, "Goodbye! Have a great day!", Reply(IntentFarewell, now))
	assert.Empty(t, Reply(IntentSearch, now))
}

func TestTranscript(t *testing.T) {
	t.Run("first match walks results then alternatives", func(t *testing.T) {
		tr := Transcript{Results: [][]string{
			{"hello", "hey web"},
			{"hey webby", "nothing"},
		}}

		got, ok := tr.FirstMatch(NewWakeWordSet(DefaultWakeWords).Matches)
		assert.True(t, ok)
		assert.Equal(t, "hey web", got)
	})

	t.Run("best is the top alternative of the last result", func(t *testing.T) {
		tr := Transcript{Results: [][]string{{"first"}, {"second", "other"}, {}}}
		assert.Equal(t, "second", tr.Best())
	})

	t.Run("normalize and blank", func(t *testing.T) {
		tr := NewTranscript("  Héy   WEBBY ", "   ").Normalize()
		assert.Equal(t, "hey webby", tr.Best())
		assert.False(t, tr.IsBlank())
		assert.True(t, NewTranscript(" ", "").IsBlank())
	})
}

func TestSelectVoice(t *testing.T) {
	t.Run("prefers known natural voices", func(t *testing.T) {
		v := SelectVoice([]Voice{
			{Name: "Google Deutsch", Lang: "de-DE"},
			{Name: "Fred", Lang: "en-US"},
			{Name: "Microsoft Zira Desktop", Lang: "en-US"},
		})
		assert.Equal(t, "Microsoft Zira Desktop", v.Name)
	})

	t.Run("falls back to a plain english voice", func(t *testing.T) {
		v := SelectVoice([]Voice{
			{Name: "International English", Lang: "en-US"},
			{Name: "Karen", Lang: "en-AU"},
		})
		assert.Equal(t, "Karen", v.Name)
	})

	t.Run("first voice otherwise, nil when empty", func(t *testing.T) {
		v := SelectVoice([]Voice{{Name: "Thomas", Lang: "fr-FR"}})
		assert.Equal(t, "Thomas", v.Name)
		assert.Nil(t, SelectVoice(nil))
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MessageCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.WakeWords = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ThinkingDelay = -time.Second
	assert.Error(t, cfg.Validate())
}
