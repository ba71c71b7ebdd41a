package assistant_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webby-assistant/pkg/assistant"
)

var fullCaps = assistant.Capabilities{
	Recognition: true,
	Synthesis:   true,
	Microphone:  true,
	Voices: []assistant.Voice{
		{Name: "Google US English", Lang: "en-US"},
	},
}

func TestController_Start(t *testing.T) {
	t.Run("hides the product scene and starts listening", func(t *testing.T) {
		h := newHarness(t)

		h.ctrl.Start(fullCaps)

		visible := h.rec.CallsOf("set_visible")
		require.Len(t, visible, 2)
		assert.False(t, visible[0].Visible)
		assert.False(t, visible[1].Visible)
		assert.Equal(t, 1, h.rec.Starts())
		assert.Equal(t, []string{"Say 'Hey Webby' to activate"}, h.rec.Texts("notify"))

		h.say("hey webby")
		utterances := h.rec.Utterances()
		require.Len(t, utterances, 1)
		require.NotNil(t, utterances[0].Voice)
		assert.Equal(t, "Google US English", utterances[0].Voice.Name)
	})

	t.Run("without recognition the channel is disabled", func(t *testing.T) {
		h := newHarness(t)

		caps := fullCaps
		caps.Recognition = false
		h.ctrl.Start(caps)

		assert.Zero(t, h.rec.Starts())
		assert.Equal(t, []string{"Speech recognition not supported in this browser"}, h.rec.Texts("notify"))

		h.ctrl.OnRecognitionEnd()
		h.clock.Advance(time.Second)
		assert.Zero(t, h.rec.Starts())
	})

	t.Run("without synthesis replies are still logged", func(t *testing.T) {
		h := newHarness(t)

		caps := fullCaps
		caps.Synthesis = false
		h.ctrl.Start(caps)
		h.say("hey webby")

		assert.Contains(t, h.rec.Texts("notify"), "Speech synthesis not supported in this browser")
		assert.Empty(t, h.rec.Utterances())
		assert.True(t, h.ctrl.State().Activated)
		assert.Len(t, h.ctrl.State().Messages, 1)
	})

	t.Run("microphone denied is reported once", func(t *testing.T) {
		h := newHarness(t)

		caps := fullCaps
		caps.Microphone = false
		h.ctrl.Start(caps)
		h.ctrl.OnRecognitionError("not-allowed")

		assert.Zero(t, h.rec.Starts())
		assert.Equal(t, []string{"Microphone access denied. Voice assistant disabled."}, h.rec.Texts("notify"))
	})
}

func TestController_RecognitionLifecycle(t *testing.T) {
	t.Run("restarts shortly after recognition ends", func(t *testing.T) {
		h := newHarness(t)
		h.ctrl.Start(fullCaps)
		h.ctrl.OnRecognitionStart()
		assert.True(t, h.ctrl.State().Listening)

		h.ctrl.OnRecognitionEnd()
		assert.False(t, h.ctrl.State().Listening)

		h.clock.Advance(299 * time.Millisecond)
		assert.Equal(t, 1, h.rec.Starts())

		h.clock.Advance(time.Millisecond)
		assert.Equal(t, 2, h.rec.Starts())
	})

	t.Run("transient errors restart with backoff", func(t *testing.T) {
		h := newHarness(t)
		h.ctrl.Start(fullCaps)

		h.ctrl.OnRecognitionError("network")
		h.ctrl.OnRecognitionEnd()

		h.clock.Advance(500 * time.Millisecond)
		assert.Equal(t, 1, h.rec.Starts())

		h.clock.Advance(500 * time.Millisecond)
		assert.Equal(t, 2, h.rec.Starts())

		var warned bool
		for _, e := range h.hook.AllEntries() {
			if e.Level == logrus.WarnLevel && e.Data["error"] == "network" {
				warned = true
			}
		}
		assert.True(t, warned)
	})

	t.Run("permission errors stop listening for good", func(t *testing.T) {
		h := newHarness(t)
		h.ctrl.Start(fullCaps)

		h.ctrl.OnRecognitionError("not-allowed")
		h.ctrl.OnRecognitionEnd()
		h.ctrl.OnRecognitionError("service-not-allowed")
		h.clock.Advance(time.Minute)

		assert.Equal(t, 1, h.rec.Starts())
		notices := h.rec.Texts("notify")
		assert.Equal(t, "Microphone access denied. Please allow microphone access.", notices[len(notices)-1])
		assert.Len(t, notices, 2)
	})

	t.Run("already running recognition is tolerated", func(t *testing.T) {
		h := newHarness(t)
		h.rec.StartErr = assistant.ErrAlreadyListening

		h.ctrl.Start(fullCaps)
		h.ctrl.OnRecognitionEnd()
		h.clock.Advance(time.Second)

		assert.Equal(t, 2, h.rec.Starts())
	})

	t.Run("stop listening cancels restarts", func(t *testing.T) {
		h := newHarness(t)
		h.ctrl.Start(fullCaps)

		h.ctrl.OnRecognitionEnd()
		h.ctrl.StopListening()
		h.clock.Advance(time.Second)

		assert.Equal(t, 1, h.rec.Starts())
		assert.Equal(t, 1, h.rec.Stops())
	})
}
