package assistanttest

import (
	"fmt"
	"sync"
	"time"

	"webby-assistant/pkg/assistant"
)

// Call is one recorded collaborator invocation, e.g. "notify" or "speak".
type Call struct {
	Kind     string
	Text     string
	Target   string
	Visible  bool
	Position *assistant.Vec3
	Duration time.Duration
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%s%s)", c.Kind, c.Target, c.Text)
}

// Recorder implements every collaborator interface of the controller and
// records what it was asked to do.
type Recorder struct {
	mu sync.Mutex

	calls        []Call
	messages     []assistant.ChatMessage
	interactions []assistant.Interaction
	utterances   []assistant.Utterance

	active    int
	maxActive int

	StartErr error
	SpeakErr error
	starts   int
	stops    int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.calls = append(r.calls, Call{Kind: "start_listening"})
	return r.StartErr
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	r.calls = append(r.calls, Call{Kind: "stop_listening"})
	return nil
}

func (r *Recorder) Speak(u assistant.Utterance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Kind: "speak", Text: u.Text})
	if r.SpeakErr != nil {
		return r.SpeakErr
	}

	r.utterances = append(r.utterances, u)
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	return nil
}

func (r *Recorder) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Kind: "cancel_speech"})
	r.active = 0
	return nil
}

// Finish marks the current utterance as played out.
func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active > 0 {
		r.active--
	}
}

func (r *Recorder) AppendMessage(msg assistant.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Kind: "chat_append", Target: msg.ID, Text: msg.Text})
}

func (r *Recorder) EvictMessage(id string) {
	r.record(Call{Kind: "chat_evict", Target: id})
}

func (r *Recorder) Notify(text string) {
	r.record(Call{Kind: "notify", Text: text})
}

func (r *Recorder) SetSpeechBubble(text string) {
	r.record(Call{Kind: "speech_bubble", Text: text})
}

func (r *Recorder) SetVisible(entity string, visible bool, position *assistant.Vec3) {
	r.record(Call{Kind: "set_visible", Target: entity, Visible: visible, Position: position})
}

func (r *Recorder) Pulse(target string, d time.Duration) {
	r.record(Call{Kind: "pulse", Target: target, Duration: d})
}

func (r *Recorder) Highlight(target string) {
	r.record(Call{Kind: "highlight", Target: target})
}

func (r *Recorder) PlaySound(name string) {
	r.record(Call{Kind: "play_sound", Target: name})
}

func (r *Recorder) OnMessage(msg assistant.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *Recorder) OnInteraction(in assistant.Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions = append(r.interactions, in)
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf returns the recorded calls of one kind, in order.
func (r *Recorder) CallsOf(kind string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns the Text of every call of one kind.
func (r *Recorder) Texts(kind string) []string {
	var out []string
	for _, c := range r.CallsOf(kind) {
		out = append(out, c.Text)
	}
	return out
}

// Messages returns every message the observer saw, including evicted ones.
func (r *Recorder) Messages() []assistant.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]assistant.ChatMessage(nil), r.messages...)
}

func (r *Recorder) Interactions() []assistant.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]assistant.Interaction(nil), r.interactions...)
}

func (r *Recorder) Utterances() []assistant.Utterance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]assistant.Utterance(nil), r.utterances...)
}

// MaxActiveUtterances is the highest number of utterances that were playing
// at the same time.
func (r *Recorder) MaxActiveUtterances() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive
}

func (r *Recorder) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

func (r *Recorder) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.messages = nil
	r.interactions = nil
	r.utterances = nil
	r.maxActive = r.active
}
