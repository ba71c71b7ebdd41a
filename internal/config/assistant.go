package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"webby-assistant/pkg/assistant"
)

// assistantFile is the on-disk shape of the assistant tuning file. Every field
// is optional; durations use time.ParseDuration syntax ("1.5s", "300ms").
type assistantFile struct {
	UserName  string   `yaml:"user_name"`
	WakeWords []string `yaml:"wake_words"`

	MessageCapacity *int   `yaml:"message_capacity"`
	MessageFade     string `yaml:"message_fade"`
	MessageFadeOut  string `yaml:"message_fade_out"`

	ThinkingDelay     string `yaml:"thinking_delay"`
	FarewellDelay     string `yaml:"farewell_delay"`
	InactivityTimeout string `yaml:"inactivity_timeout"`

	SearchStepDelay  string `yaml:"search_step_delay"`
	RevealReplyDelay string `yaml:"reveal_reply_delay"`

	RestartAfterEnd   string `yaml:"restart_after_end"`
	RestartAfterError string `yaml:"restart_after_error"`

	Speech struct {
		Lang   string   `yaml:"lang"`
		Rate   *float64 `yaml:"rate"`
		Pitch  *float64 `yaml:"pitch"`
		Volume *float64 `yaml:"volume"`
	} `yaml:"speech"`

	Scene struct {
		Card       *assistant.Vec3 `yaml:"card"`
		Categories *assistant.Vec3 `yaml:"categories"`
	} `yaml:"scene"`
}

// LoadAssistantConfig starts from the defaults, applies the YAML file at path
// when path is non-empty, then ASSISTANT_USER_NAME and
// ASSISTANT_INACTIVITY_TIMEOUT. The result is validated.
func LoadAssistantConfig(fs afero.Fs, path string) (assistant.Config, error) {
	cfg := assistant.DefaultConfig()

	if path != "" {
		raw, err := afero.ReadFile(fs, path)
		if err != nil {
			return cfg, fmt.Errorf("read assistant config %s: %w", path, err)
		}

		var file assistantFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return cfg, fmt.Errorf("parse assistant config %s: %w", path, err)
		}

		if err := file.apply(&cfg); err != nil {
			return cfg, fmt.Errorf("assistant config %s: %w", path, err)
		}
	}

	if name := os.Getenv("ASSISTANT_USER_NAME"); name != "" {
		cfg.UserName = name
	}

	if raw := os.Getenv("ASSISTANT_INACTIVITY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("ASSISTANT_INACTIVITY_TIMEOUT: %w", err)
		}
		cfg.InactivityTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (f assistantFile) apply(cfg *assistant.Config) error {
	if f.UserName != "" {
		cfg.UserName = f.UserName
	}
	if len(f.WakeWords) > 0 {
		cfg.WakeWords = f.WakeWords
	}
	if f.MessageCapacity != nil {
		cfg.MessageCapacity = *f.MessageCapacity
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"message_fade", f.MessageFade, &cfg.MessageFade},
		{"message_fade_out", f.MessageFadeOut, &cfg.MessageFadeOut},
		{"thinking_delay", f.ThinkingDelay, &cfg.ThinkingDelay},
		{"farewell_delay", f.FarewellDelay, &cfg.FarewellDelay},
		{"inactivity_timeout", f.InactivityTimeout, &cfg.InactivityTimeout},
		{"search_step_delay", f.SearchStepDelay, &cfg.SearchStepDelay},
		{"reveal_reply_delay", f.RevealReplyDelay, &cfg.RevealReplyDelay},
		{"restart_after_end", f.RestartAfterEnd, &cfg.RestartAfterEnd},
		{"restart_after_error", f.RestartAfterError, &cfg.RestartAfterError},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if f.Speech.Lang != "" {
		cfg.SpeechLang = f.Speech.Lang
	}
	if f.Speech.Rate != nil {
		cfg.SpeechRate = *f.Speech.Rate
	}
	if f.Speech.Pitch != nil {
		cfg.SpeechPitch = *f.Speech.Pitch
	}
	if f.Speech.Volume != nil {
		cfg.SpeechVolume = *f.Speech.Volume
	}

	if f.Scene.Card != nil {
		cfg.CardPosition = *f.Scene.Card
	}
	if f.Scene.Categories != nil {
		cfg.CategoriesPosition = *f.Scene.Categories
	}

	return nil
}
