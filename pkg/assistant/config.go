package assistant

import (
	"fmt"
	"time"
)

const (
	EntityCardContainer  = "card-container"
	EntityCategoriesMenu = "categories-menu"
	EntityMainCard       = "main-card"
	EntityProductModel   = "product-model"
	EntityShoesButton    = "shoes-button"
	EntityAssistant      = "camera-assistant"

	SoundActivation = "activation"
)

type Config struct {
	UserName  string
	WakeWords []string

	MessageCapacity int
	MessageFade     time.Duration
	MessageFadeOut  time.Duration

	ThinkingDelay     time.Duration
	FarewellDelay     time.Duration
	InactivityTimeout time.Duration

	SearchStepDelay  time.Duration
	RevealReplyDelay time.Duration

	RestartAfterEnd   time.Duration
	RestartAfterError time.Duration

	ActivationPulse time.Duration
	ReplyPulse      time.Duration

	SpeechLang   string
	SpeechRate   float64
	SpeechPitch  float64
	SpeechVolume float64

	CardPosition       Vec3
	CategoriesPosition Vec3
}

func DefaultConfig() Config {
	return Config{
		WakeWords: DefaultWakeWords,

		MessageCapacity: 5,
		MessageFade:     10 * time.Second,
		MessageFadeOut:  500 * time.Millisecond,

		ThinkingDelay:     time.Second,
		FarewellDelay:     2 * time.Second,
		InactivityTimeout: 30 * time.Second,

		SearchStepDelay:  2 * time.Second,
		RevealReplyDelay: time.Second,

		RestartAfterEnd:   300 * time.Millisecond,
		RestartAfterError: time.Second,

		ActivationPulse: 3 * time.Second,
		ReplyPulse:      2 * time.Second,

		SpeechLang:   "en-US",
		SpeechRate:   0.95,
		SpeechPitch:  1.05,
		SpeechVolume: 1.0,

		CardPosition:       Vec3{X: 3, Y: 1.5, Z: -5},
		CategoriesPosition: Vec3{X: 2, Y: 1.5, Z: -2},
	}
}

func (c Config) Validate() error {
	if c.MessageCapacity <= 0 {
		return fmt.Errorf("message capacity must be positive, got %d", c.MessageCapacity)
	}
	if c.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity timeout must be positive, got %s", c.InactivityTimeout)
	}
	if len(c.WakeWords) == 0 {
		return fmt.Errorf("at least one wake word is required")
	}

	durations := map[string]time.Duration{
		"message_fade":        c.MessageFade,
		"message_fade_out":    c.MessageFadeOut,
		"thinking_delay":      c.ThinkingDelay,
		"farewell_delay":      c.FarewellDelay,
		"search_step_delay":   c.SearchStepDelay,
		"reveal_reply_delay":  c.RevealReplyDelay,
		"restart_after_end":   c.RestartAfterEnd,
		"restart_after_error": c.RestartAfterError,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}

	return nil
}

func (c Config) greeting() string {
	if c.UserName == "" {
		return "Hi! How can I help you?"
	}
	return fmt.Sprintf("Hi %s! How can I help you?", c.UserName)
}
