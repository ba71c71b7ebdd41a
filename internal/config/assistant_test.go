package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webby-assistant/pkg/assistant"
)

const tuning = `
user_name: Ofir
wake_words: ["hey webby", "okay webby"]
message_capacity: 8
thinking_delay: 1.5s
search_step_delay: 500ms
speech:
  rate: 1.1
scene:
  card: {x: 1, y: 2, z: -3}
`

func TestLoadAssistantConfig(t *testing.T) {
	t.Setenv("ASSISTANT_USER_NAME", "")
	t.Setenv("ASSISTANT_INACTIVITY_TIMEOUT", "")

	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := LoadAssistantConfig(afero.NewMemMapFs(), "")
		require.NoError(t, err)
		assert.Equal(t, assistant.DefaultConfig(), cfg)
	})

	t.Run("file overrides only what it sets", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/etc/webby/assistant.yaml", []byte(tuning), 0o644))

		cfg, err := LoadAssistantConfig(fs, "/etc/webby/assistant.yaml")
		require.NoError(t, err)

		assert.Equal(t, "Ofir", cfg.UserName)
		assert.Equal(t, []string{"hey webby", "okay webby"}, cfg.WakeWords)
		assert.Equal(t, 8, cfg.MessageCapacity)
		assert.Equal(t, 1500*time.Millisecond, cfg.ThinkingDelay)
		assert.Equal(t, 500*time.Millisecond, cfg.SearchStepDelay)
		assert.Equal(t, 1.1, cfg.SpeechRate)
		assert.Equal(t, assistant.Vec3{X: 1, Y: 2, Z: -3}, cfg.CardPosition)

		assert.Equal(t, 30*time.Second, cfg.InactivityTimeout)
		assert.Equal(t, 1.05, cfg.SpeechPitch)
	})

	t.Run("env wins over the file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "assistant.yaml", []byte(tuning), 0o644))
		t.Setenv("ASSISTANT_USER_NAME", "Dana")
		t.Setenv("ASSISTANT_INACTIVITY_TIMEOUT", "45s")

		cfg, err := LoadAssistantConfig(fs, "assistant.yaml")
		require.NoError(t, err)
		assert.Equal(t, "Dana", cfg.UserName)
		assert.Equal(t, 45*time.Second, cfg.InactivityTimeout)
	})

	t.Run("bad durations and values are errors", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("farewell_delay: soon\n"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "zero.yaml", []byte("message_capacity: 0\n"), 0o644))

		_, err := LoadAssistantConfig(fs, "bad.yaml")
		assert.ErrorContains(t, err, "farewell_delay")

		_, err = LoadAssistantConfig(fs, "zero.yaml")
		assert.Error(t, err)

		_, err = LoadAssistantConfig(fs, "missing.yaml")
		assert.Error(t, err)
	})
}
