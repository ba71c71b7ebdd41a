package assistant

import "time"

type ITimer interface {
	Stop() bool
}

// IClock schedules every delay the controller uses. Tests swap in a virtual clock.
type IClock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) ITimer
}

type realClock struct{}

func NewRealClock() IClock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) ITimer {
	return time.AfterFunc(d, f)
}

func stopTimer(t ITimer) {
	if t != nil {
		t.Stop()
	}
}

// timerSlot holds at most one live timer. Every stop or rearm bumps gen, so a
// callback that already fired but is still waiting for the controller lock
// sees a newer generation and does nothing.
type timerSlot struct {
	timer ITimer
	gen   uint64
}

func (s *timerSlot) armed() bool {
	return s.timer != nil
}

func (s *timerSlot) stop() {
	stopTimer(s.timer)
	s.timer = nil
	s.gen++
}

// arm replaces the slot's timer. f runs through schedule, so it is serialized
// with the controller and only while the slot still belongs to this arming.
func (s *timerSlot) arm(schedule scheduleFunc, d time.Duration, f func()) {
	s.stop()
	gen := s.gen
	s.timer = schedule(d, func() {
		if s.gen != gen {
			return
		}
		s.timer = nil
		f()
	})
}
