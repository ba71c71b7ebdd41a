package assistant

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	idlePrompt        = `Say "Hey Webby" to activate`
	deactivatedNotice = "Assistant deactivated. Say 'Hey Webby' to activate again."
	inactivityNotice  = "I'll be here if you need me. Just say 'Hey Webby' again."

	searchAcknowledge = "I'd be happy to help you find the perfect sandals. Let me search for some options."
	searchSearching   = "Searching our collection for the best options..."
	searchAnalyzing   = "I'm analyzing your preferences based on your previous selections..."
	searchFound       = "I've found these sandals that would be perfect for you! What do you think?"
)

type Options struct {
	Config       Config
	Logger       *logrus.Logger
	Clock        IClock
	Input        ISpeechInput
	Output       ISpeechOutput
	Presentation IPresentation
	Observer     IObserver
}

// Controller owns the conversation state of one assistant session. Every
// exported method and every timer callback runs under mu, so the state has a
// single writer at any instant.
type Controller struct {
	mu sync.Mutex

	cfg       Config
	log       *logrus.Logger
	clock     IClock
	input     ISpeechInput
	output    ISpeechOutput
	ui        IPresentation
	observer  IObserver
	wakeWords WakeWordSet

	activated bool
	listening bool
	searching bool
	speaking  bool
	closed    bool

	wantListening       bool
	recognitionDisabled bool
	synthesisDisabled   bool
	permissionReported  bool
	voice               *Voice

	messages        *chatLog
	messageSeq      uint64
	utteranceSeq    uint64
	activeUtterance string

	// epoch changes on every deactivation; activation-scoped callbacks from an
	// older epoch are ignored.
	epoch              uint64
	inactivity         timerSlot
	inactivityDeadline time.Time
	pendingReply       timerSlot
	farewell           timerSlot
	restart            timerSlot
	search             *sequence
}

func New(opts Options) (*Controller, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if opts.Presentation == nil {
		return nil, fmt.Errorf("presentation is nil")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assistant config: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = NewRealClock()
	}

	return &Controller{
		cfg:       opts.Config,
		log:       opts.Logger,
		clock:     clock,
		input:     opts.Input,
		output:    opts.Output,
		ui:        opts.Presentation,
		observer:  opts.Observer,
		wakeWords: NewWakeWordSet(opts.Config.WakeWords),
		messages:  newChatLog(opts.Config.MessageCapacity),
	}, nil
}

func (c *Controller) State() ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ConversationState{
		Activated:          c.activated,
		Listening:          c.listening,
		Searching:          c.searching,
		Speaking:           c.speaking,
		Messages:           c.messages.snapshot(),
		InactivityDeadline: c.inactivityDeadline,
	}
}

// OnTranscript handles one finalized recognition event.
func (c *Controller) OnTranscript(t Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	t = t.Normalize()
	if t.IsBlank() {
		c.log.Debug("ignoring blank transcript")
		return
	}

	if !c.activated {
		phrase, ok := t.FirstMatch(c.wakeWords.Matches)
		if !ok {
			return
		}

		c.log.WithFields(logrus.Fields{
			"phrase": phrase,
		}).Info("wake word detected")
		c.activate()
		return
	}

	if phrase, ok := t.FirstMatch(c.wakeWords.Matches); ok {
		c.log.WithFields(logrus.Fields{
			"phrase": phrase,
		}).Debug("wake word while activated, skipping")
		return
	}

	if text := t.Best(); text != "" {
		c.processUserMessage(text)
	}
}

func (c *Controller) ProcessUserMessage(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	text = NormalizeText(text)
	if text == "" {
		return
	}

	c.processUserMessage(text)
}

func (c *Controller) StartSearchSequence() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return c.startSearchSequence()
}

func (c *Controller) RespondToUser(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.respond(text)
}

func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.deactivate()
}

// Close tears the session down. Later calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.cancelActivationTimers()
	c.cancelSpeech()

	c.restart.stop()
	if c.wantListening && c.input != nil {
		if err := c.input.Stop(); err != nil {
			c.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("failed to stop recognition on close")
		}
	}
	c.wantListening = false

	c.messages.clear()
	c.activated = false
	c.closed = true
	c.epoch++
}

func (c *Controller) processUserMessage(text string) {
	if c.searching {
		c.log.WithFields(logrus.Fields{
			"utterance": text,
		}).Info("search in progress, dropping message")
		c.observeInteraction(Interaction{Utterance: text, Intent: IntentSearch, Dropped: true})
		return
	}

	if c.wakeWords.Matches(text) {
		c.log.WithFields(logrus.Fields{
			"utterance": text,
		}).Debug("skipping wake word as command")
		return
	}

	c.appendMessage(text, SenderUser)
	c.armInactivity()
	c.cancelSpeech()

	c.pendingReply.stop()
	intent := Classify(text)

	c.log.WithFields(logrus.Fields{
		"utterance": text,
		"intent":    intent,
	}).Debug("processing user message")

	c.pendingReply.arm(c.schedule, c.cfg.ThinkingDelay, func() {
		c.dispatch(intent, text)
	})
}

func (c *Controller) dispatch(intent Intent, text string) {
	switch intent {
	case IntentSearch:
		if err := c.startSearchSequence(); err != nil {
			c.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("could not start search sequence")
		}
		c.observeInteraction(Interaction{Utterance: text, Intent: intent, Reply: searchAcknowledge})
		return

	case IntentFarewell:
		reply := Reply(intent, c.clock.Now())
		c.respond(reply)
		c.observeInteraction(Interaction{Utterance: text, Intent: intent, Reply: reply})

		c.farewell.arm(c.schedule, c.cfg.FarewellDelay, c.deactivate)
		return
	}

	reply := Reply(intent, c.clock.Now())
	c.respond(reply)
	c.observeInteraction(Interaction{Utterance: text, Intent: intent, Reply: reply})
}

func (c *Controller) startSearchSequence() error {
	if c.searching {
		return ErrSearchInProgress
	}

	c.searching = true
	c.log.Info("search sequence started")

	seq := newSequence(c.searchSteps(), c.schedule, c.onStepError, func() {
		c.searching = false
		c.search = nil
		c.log.Info("search sequence finished")
	})
	c.search = seq
	seq.start()

	return nil
}

func (c *Controller) searchSteps() []Step {
	say := func(text string) func() error {
		return func() error {
			c.respond(text)
			return nil
		}
	}

	return []Step{
		{Name: "acknowledge", Action: say(searchAcknowledge)},
		{Name: "searching", Delay: c.cfg.SearchStepDelay, Action: say(searchSearching)},
		{Name: "analyzing", Delay: c.cfg.SearchStepDelay, Action: say(searchAnalyzing)},
		{Name: "reveal", Delay: c.cfg.SearchStepDelay, Action: func() error {
			card, categories := c.cfg.CardPosition, c.cfg.CategoriesPosition
			c.ui.SetVisible(EntityCardContainer, true, &card)
			c.ui.SetVisible(EntityCategoriesMenu, true, &categories)
			return nil
		}},
		{Name: "present", Delay: c.cfg.RevealReplyDelay, Action: func() error {
			c.respond(searchFound)
			c.ui.Highlight(EntityMainCard)
			c.ui.Highlight(EntityProductModel)
			c.ui.Highlight(EntityShoesButton)
			return nil
		}},
	}
}

func (c *Controller) onStepError(step Step, err error) {
	c.log.WithFields(logrus.Fields{
		"step":  step.Name,
		"error": err.Error(),
	}).Error("search step failed")
}

func (c *Controller) activate() {
	c.activated = true
	greeting := c.cfg.greeting()

	c.ui.SetSpeechBubble(greeting)
	c.ui.Pulse(EntityAssistant, c.cfg.ActivationPulse)
	c.ui.Notify(greeting)
	c.appendMessage(greeting, SenderAssistant)
	c.speak(greeting)
	c.ui.PlaySound(SoundActivation)
	c.armInactivity()
}

func (c *Controller) deactivate() {
	if !c.activated {
		return
	}

	c.activated = false
	c.epoch++
	c.cancelActivationTimers()
	c.cancelSpeech()

	c.ui.SetSpeechBubble(idlePrompt)
	c.ui.Notify(deactivatedNotice)
	c.log.Info("assistant deactivated")
}

func (c *Controller) cancelActivationTimers() {
	c.inactivity.stop()
	c.inactivityDeadline = time.Time{}
	c.pendingReply.stop()
	c.farewell.stop()

	if c.search != nil {
		c.search.cancel()
		c.search = nil
	}
	c.searching = false
}

func (c *Controller) armInactivity() {
	c.inactivityDeadline = c.clock.Now().Add(c.cfg.InactivityTimeout)
	c.inactivity.arm(c.schedule, c.cfg.InactivityTimeout, func() {
		c.inactivityDeadline = time.Time{}
		if !c.activated {
			return
		}

		c.log.Info("inactivity timeout reached")
		c.deactivate()
		c.appendMessage(inactivityNotice, SenderAssistant)
		c.speak(inactivityNotice)
	})
}

func (c *Controller) respond(text string) {
	c.appendMessage(text, SenderAssistant)
	c.ui.SetSpeechBubble(text)
	c.speak(text)
	c.ui.Pulse(EntityAssistant, c.cfg.ReplyPulse)
}

func (c *Controller) appendMessage(text string, sender Sender) ChatMessage {
	c.messageSeq++
	msg := ChatMessage{
		ID:        "m-" + strconv.FormatUint(c.messageSeq, 10),
		Text:      text,
		Sender:    sender,
		Timestamp: c.clock.Now(),
	}

	expiry := c.scheduleSession(c.cfg.MessageFade+c.cfg.MessageFadeOut, func() {
		if c.messages.remove(msg.ID) {
			c.ui.EvictMessage(msg.ID)
		}
	})

	evicted := c.messages.push(msg, expiry)
	c.ui.AppendMessage(msg)
	for _, old := range evicted {
		c.ui.EvictMessage(old.ID)
	}

	if c.observer != nil {
		c.observer.OnMessage(msg)
	}

	return msg
}

func (c *Controller) speak(text string) {
	if c.output == nil || c.synthesisDisabled {
		return
	}

	c.cancelSpeech()

	c.utteranceSeq++
	u := Utterance{
		ID:     "u-" + strconv.FormatUint(c.utteranceSeq, 10),
		Text:   text,
		Lang:   c.cfg.SpeechLang,
		Rate:   c.cfg.SpeechRate,
		Pitch:  c.cfg.SpeechPitch,
		Volume: c.cfg.SpeechVolume,
		Voice:  c.voice,
	}

	if err := c.output.Speak(u); err != nil {
		c.log.WithFields(logrus.Fields{
			"utterance_id": u.ID,
			"error":        err.Error(),
		}).Error("speech synthesis failed")
		return
	}

	c.speaking = true
	c.activeUtterance = u.ID
}

func (c *Controller) cancelSpeech() {
	if !c.speaking || c.output == nil {
		return
	}

	if err := c.output.Cancel(); err != nil {
		c.log.WithFields(logrus.Fields{
			"utterance_id": c.activeUtterance,
			"error":        err.Error(),
		}).Warn("failed to cancel speech")
	}

	c.speaking = false
	c.activeUtterance = ""
}

func (c *Controller) observeInteraction(in Interaction) {
	if c.observer == nil {
		return
	}
	in.At = c.clock.Now()
	c.observer.OnInteraction(in)
}

// schedule runs f under the lock unless the controller was deactivated or
// closed after scheduling.
func (c *Controller) schedule(d time.Duration, f func()) ITimer {
	epoch := c.epoch
	return c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.epoch != epoch {
			return
		}
		f()
	})
}

// scheduleSession runs f under the lock unless the controller was closed.
func (c *Controller) scheduleSession(d time.Duration, f func()) ITimer {
	return c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed {
			return
		}
		f()
	})
}
