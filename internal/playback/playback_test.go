package playback_test

import (
	"sync"
	"testing"
	"time"

	"github.com/glzhang/soupbot/internal/playback"
)

// recorder collects callback invocations for inspection.
type recorder struct {
	mu      sync.Mutex
	updates []string
	done    int
	doneCh  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{doneCh: make(chan struct{}, 8)}
}

func (r *recorder) onUpdate(revealed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, revealed)
}

func (r *recorder) onDone() {
	r.mu.Lock()
	r.done++
	r.mu.Unlock()
	r.doneCh <- struct{}{}
}

func (r *recorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.updates))
	copy(out, r.updates)
	return out, r.done
}

func (r *recorder) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-r.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not complete")
	}
}

func TestStart_RevealsIncrementally(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s := playback.New(
		playback.WithInterval(time.Millisecond),
		playback.OnUpdate(rec.onUpdate),
		playback.OnDone(rec.onDone),
	)

	s.Start("他死了。为什么？")
	rec.waitDone(t)

	updates, done := rec.snapshot()
	want := []string{"他死了。", "他死了。为什么？"}
	if len(updates) != len(want) {
		t.Fatalf("updates = %q, want %q", updates, want)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update %d = %q, want %q", i, updates[i], want[i])
		}
	}
	if done != 1 {
		t.Errorf("done count = %d, want 1", done)
	}
	if got := s.Revealed(); got != "他死了。为什么？" {
		t.Errorf("Revealed() = %q, want the full text", got)
	}
	if s.Active() {
		t.Error("Active() = true after completion")
	}
}

func TestStart_EmptyTextCompletes(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s := playback.New(
		playback.WithInterval(time.Millisecond),
		playback.OnUpdate(rec.onUpdate),
		playback.OnDone(rec.onDone),
	)

	s.Start("")
	rec.waitDone(t)

	updates, done := rec.snapshot()
	if len(updates) != 0 {
		t.Errorf("updates = %q, want none", updates)
	}
	if done != 1 {
		t.Errorf("done count = %d, want 1", done)
	}
	if got := s.Revealed(); got != "" {
		t.Errorf("Revealed() = %q, want empty", got)
	}
}

// A Start while a playback is in flight must fully supersede it: no
// fragment of the old reply may appear in later updates, and the old
// playback never reports completion.
func TestStart_SupersedesInFlightPlayback(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s := playback.New(
		playback.WithInterval(time.Millisecond),
		playback.OnUpdate(rec.onUpdate),
		playback.OnDone(rec.onDone),
	)

	s.Start("旧的。回复。还在。播。")
	s.Start("新回复。完毕。")
	rec.waitDone(t)

	if got := s.Revealed(); got != "新回复。完毕。" {
		t.Errorf("Revealed() = %q, want only the new reply", got)
	}

	updates, done := rec.snapshot()
	if done != 1 {
		t.Errorf("done count = %d, want 1 (old playback must not complete)", done)
	}
	// Updates recorded after the second Start must never mix fragments of
	// the superseded reply.
	for _, u := range updates {
		if u != "新回复。" && u != "新回复。完毕。" {
			t.Errorf("update %q contains superseded content", u)
		}
	}
}

func TestCancel_StopsAndClears(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s := playback.New(
		playback.WithInterval(10*time.Millisecond),
		playback.OnUpdate(rec.onUpdate),
		playback.OnDone(rec.onDone),
	)

	s.Start("不会播完的。回复。")
	s.Cancel()

	if s.Active() {
		t.Error("Active() = true after Cancel")
	}
	if got := s.Revealed(); got != "" {
		t.Errorf("Revealed() = %q after Cancel, want empty", got)
	}

	// Give any stray timer a chance to fire, then confirm silence.
	time.Sleep(50 * time.Millisecond)
	_, done := rec.snapshot()
	if done != 0 {
		t.Errorf("done count = %d after Cancel, want 0", done)
	}
}

func TestHandle_CancelIsScopedToItsPlayback(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s := playback.New(
		playback.WithInterval(time.Millisecond),
		playback.OnUpdate(rec.onUpdate),
		playback.OnDone(rec.onDone),
	)

	old := s.Start("第一条。")
	s.Start("第二条。")

	// Cancelling the superseded handle must not disturb the current one.
	old.Cancel()
	rec.waitDone(t)

	if got := s.Revealed(); got != "第二条。" {
		t.Errorf("Revealed() = %q, want the second reply", got)
	}
}

func TestSingleFragmentText(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s := playback.New(
		playback.WithInterval(time.Millisecond),
		playback.OnUpdate(rec.onUpdate),
		playback.OnDone(rec.onDone),
	)

	s.Start("没有标点")
	rec.waitDone(t)

	updates, _ := rec.snapshot()
	if len(updates) != 1 || updates[0] != "没有标点" {
		t.Errorf("updates = %q, want one full-text update", updates)
	}
}
