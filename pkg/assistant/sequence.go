package assistant

import (
	"fmt"
	"time"
)

// Step is one stage of a scripted dialogue. Delay is measured from the previous step.
type Step struct {
	Name   string
	Delay  time.Duration
	Action func() error
}

type scheduleFunc func(d time.Duration, f func()) ITimer

// sequence runs steps strictly in order. It does not lock; the scheduler it is
// given is expected to serialize callbacks with the rest of the controller.
type sequence struct {
	steps     []Step
	schedule  scheduleFunc
	onError   func(step Step, err error)
	onDone    func()
	next      int
	timer     ITimer
	cancelled bool
}

func newSequence(steps []Step, schedule scheduleFunc, onError func(Step, error), onDone func()) *sequence {
	return &sequence{
		steps:    steps,
		schedule: schedule,
		onError:  onError,
		onDone:   onDone,
	}
}

func (s *sequence) start() {
	s.advance()
}

func (s *sequence) cancel() {
	s.cancelled = true
	stopTimer(s.timer)
	s.timer = nil
}

func (s *sequence) advance() {
	if s.cancelled {
		return
	}

	if s.next >= len(s.steps) {
		if s.onDone != nil {
			s.onDone()
		}
		return
	}

	step := s.steps[s.next]
	if step.Delay <= 0 {
		s.run()
		return
	}

	s.timer = s.schedule(step.Delay, func() {
		s.timer = nil
		s.run()
	})
}

func (s *sequence) run() {
	if s.cancelled {
		return
	}

	step := s.steps[s.next]
	s.next++

	if err := s.invoke(step); err != nil && s.onError != nil {
		s.onError(step, err)
	}

	s.advance()
}

func (s *sequence) invoke(step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %q panicked: %v", step.Name, r)
		}
	}()

	if step.Action == nil {
		return nil
	}
	return step.Action()
}
