package assistant

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	activatePrompt      = "Say 'Hey Webby' to activate"
	listeningNotice     = "Voice assistant is listening..."
	noRecognitionNotice = "Speech recognition not supported in this browser"
	noSynthesisNotice   = "Speech synthesis not supported in this browser"
	micDisabledNotice   = "Microphone access denied. Voice assistant disabled."
	micPermissionNotice = "Microphone access denied. Please allow microphone access."
)

// Start brings the voice channel up according to what the client supports.
// Missing capabilities disable the matching channel; the rest keeps working.
func (c *Controller) Start(caps Capabilities) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.ui.SetVisible(EntityCardContainer, false, nil)
	c.ui.SetVisible(EntityCategoriesMenu, false, nil)

	if caps.Synthesis {
		c.voice = SelectVoice(caps.Voices)
	} else {
		c.synthesisDisabled = true
		c.log.Warn("speech synthesis not supported by client")
		c.ui.Notify(noSynthesisNotice)
	}

	if !caps.Recognition || c.input == nil {
		c.recognitionDisabled = true
		c.log.Error("speech recognition not supported by client")
		c.ui.Notify(noRecognitionNotice)
		return
	}

	if !caps.Microphone {
		c.recognitionDisabled = true
		c.reportPermissionDenied(micDisabledNotice)
		return
	}

	c.startListening()
	c.log.Info("microphone access granted, voice assistant ready")
	c.ui.Notify(activatePrompt)
}

// SetVoices updates the voice used for later utterances.
func (c *Controller) SetVoices(voices []Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.synthesisDisabled {
		return
	}

	c.voice = SelectVoice(voices)
}

func (c *Controller) StopListening() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.wantListening = false
	c.restart.stop()

	if c.input == nil {
		return
	}
	if err := c.input.Stop(); err != nil {
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("error stopping speech recognition")
	}
}

func (c *Controller) OnRecognitionStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.listening = true
	c.log.Debug("voice assistant is listening")
	c.ui.Notify(listeningNotice)
}

// OnRecognitionEnd restarts continuous listening unless it was stopped. A
// restart already pending from an error keeps its longer backoff.
func (c *Controller) OnRecognitionEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.listening = false
	if !c.wantListening || c.restart.armed() {
		return
	}

	c.log.Debug("voice recognition stopped, restarting")
	c.scheduleRestart(c.cfg.RestartAfterEnd)
}

func (c *Controller) OnRecognitionError(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if isPermissionError(code) {
		c.wantListening = false
		c.recognitionDisabled = true
		c.restart.stop()
		c.reportPermissionDenied(micPermissionNotice)
		return
	}

	c.log.WithFields(logrus.Fields{
		"error": code,
	}).Warn("speech recognition error")

	if c.wantListening {
		c.scheduleRestart(c.cfg.RestartAfterError)
	}
}

// OnSpeechEnd clears the speaking flag when id is still the active utterance.
func (c *Controller) OnSpeechEnd(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != "" && id == c.activeUtterance {
		c.speaking = false
		c.activeUtterance = ""
		c.log.Debug("speech finished")
	}
}

func (c *Controller) OnSpeechError(id string, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"utterance_id": id,
		"error":        reason,
	}).Error("speech error")

	if id != "" && id == c.activeUtterance {
		c.speaking = false
		c.activeUtterance = ""
	}
}

func (c *Controller) startListening() {
	if c.input == nil || c.recognitionDisabled {
		return
	}

	err := c.input.Start()
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyListening):
		c.log.Debug("recognition already running, continuing")
	default:
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("error starting speech recognition")
		return
	}

	c.wantListening = true
}

func (c *Controller) scheduleRestart(d time.Duration) {
	c.restart.arm(c.scheduleSession, d, func() {
		if c.wantListening && !c.listening {
			c.startListening()
		}
	})
}

func (c *Controller) reportPermissionDenied(notice string) {
	c.log.Error("microphone access denied")
	if c.permissionReported {
		return
	}
	c.permissionReported = true
	c.ui.Notify(notice)
}

func isPermissionError(code string) bool {
	return code == "not-allowed" || code == "service-not-allowed"
}
