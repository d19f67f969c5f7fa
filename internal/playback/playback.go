// Package playback paces a reply's fragments onto a revealed-text value,
// one fragment per tick, producing the typewriter effect the presentation
// layer renders.
//
// A Scheduler runs at most one playback at a time. Starting a new playback
// invalidates any pending schedule and resets the revealed text before the
// first new fragment is queued, so fragments from a superseded reply can
// never interleave with the new one.
package playback

import (
	"strings"
	"sync"
	"time"

	"github.com/glzhang/soupbot/internal/segment"
)

// DefaultInterval is the delay between fragment reveals.
const DefaultInterval = 500 * time.Millisecond

// UpdateFunc receives the full revealed-so-far text after each fragment is
// appended. DoneFunc is invoked once when a playback runs to completion;
// a cancelled playback never reports completion.
//
// Both callbacks run on the scheduler's timer goroutine while its internal
// lock is held, which is what makes a superseding Start unable to slip in
// between a fragment append and its notification. Callbacks must therefore
// not call back into the Scheduler.
type (
	UpdateFunc func(revealed string)
	DoneFunc   func()
)

// Scheduler turns a reply into a timed sequence of partial-text updates.
// All methods are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	onUpdate UpdateFunc
	onDone   DoneFunc

	mu        sync.Mutex
	gen       uint64 // bumped on every Start/Cancel; stale ticks check it
	timer     *time.Timer
	active    *Handle
	fragments []string
	next      int
	revealed  strings.Builder
}

// Handle identifies one playback. Cancel invalidates it; cancelling a
// handle that is no longer current is a no-op.
type Handle struct {
	s   *Scheduler
	gen uint64
}

// Cancel stops this playback if it is still the scheduler's current one.
// The revealed text is left as already revealed; no further fragments are
// appended and completion is never reported.
func (h *Handle) Cancel() {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.s.active != h {
		return
	}
	h.s.invalidateLocked()
	h.s.active = nil
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the inter-fragment delay. Default is DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// OnUpdate registers the partial-text callback.
func OnUpdate(fn UpdateFunc) Option {
	return func(s *Scheduler) { s.onUpdate = fn }
}

// OnDone registers the completion callback.
func OnDone(fn DoneFunc) Option {
	return func(s *Scheduler) { s.onDone = fn }
}

// New creates a Scheduler. Without options it uses DefaultInterval and no
// callbacks; Revealed can still be polled.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{interval: DefaultInterval}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start begins revealing text, discarding any playback already in
// progress. The superseded schedule is invalidated and the revealed text
// reset before the new schedule is armed; both happen under the same lock
// acquisition, so no fragment of the old reply can land afterwards.
//
// The first fragment appears after one interval. Empty text completes
// after one interval with nothing revealed.
func (s *Scheduler) Start(text string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	s.revealed.Reset()
	s.fragments = segment.Split(text)
	s.next = 0

	h := &Handle{s: s, gen: s.gen}
	s.active = h
	s.timer = time.AfterFunc(s.interval, func() { s.tick(h.gen) })
	return h
}

// Cancel discards the current playback, if any, and clears the revealed
// text. Completion is not reported.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.active = nil
	s.revealed.Reset()
	s.fragments = nil
	s.next = 0
}

// Revealed returns the text revealed so far by the current (or most
// recently completed) playback.
func (s *Scheduler) Revealed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed.String()
}

// Active reports whether a playback still has fragments pending.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// invalidateLocked bumps the generation and stops any pending timer. A
// tick that already fired but has not yet acquired the lock will see the
// new generation and drop out without touching state.
func (s *Scheduler) invalidateLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// tick appends the next fragment and either re-arms the timer or reports
// completion. Callbacks fire under the lock; see the type doc for why.
func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return // superseded
	}

	if s.next < len(s.fragments) {
		s.revealed.WriteString(s.fragments[s.next])
		s.next++
		if s.onUpdate != nil {
			s.onUpdate(s.revealed.String())
		}
	}

	if s.next < len(s.fragments) {
		s.timer = time.AfterFunc(s.interval, func() { s.tick(gen) })
		return
	}

	s.timer = nil
	s.active = nil
	if s.onDone != nil {
		s.onDone()
	}
}
