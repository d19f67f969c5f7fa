// Package mock provides a scripted oracle.Judge for tests.
package mock

import (
	"context"
	"sync"

	"github.com/glzhang/soupbot/internal/oracle"
	"github.com/glzhang/soupbot/internal/puzzle"
)

// Call records the arguments of one Judge invocation.
type Call struct {
	UserText string
	Puzzle   puzzle.Puzzle
	History  []oracle.Exchange
}

// Judge returns scripted verdicts in order and records every call.
// Safe for concurrent use.
type Judge struct {
	mu sync.Mutex

	// Verdicts are returned one per call. When exhausted (or empty), the
	// zero verdict (KindYes) is returned unless Err is set.
	Verdicts []oracle.Verdict

	// Err, when non-nil, is returned by every call instead of a verdict.
	Err error

	calls []Call
}

// Compile-time check that *Judge satisfies [oracle.Judge].
var _ oracle.Judge = (*Judge)(nil)

// Judge implements [oracle.Judge].
func (j *Judge) Judge(_ context.Context, userText string, p puzzle.Puzzle, history []oracle.Exchange) (oracle.Verdict, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	hist := make([]oracle.Exchange, len(history))
	copy(hist, history)
	j.calls = append(j.calls, Call{UserText: userText, Puzzle: p, History: hist})

	if j.Err != nil {
		return oracle.Verdict{}, j.Err
	}

	idx := len(j.calls) - 1
	if idx < len(j.Verdicts) {
		return j.Verdicts[idx], nil
	}
	return oracle.Verdict{}, nil
}

// Calls returns a copy of all recorded invocations.
func (j *Judge) Calls() []Call {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Call, len(j.calls))
	copy(out, j.calls)
	return out
}

// CallCount returns the number of Judge invocations so far.
func (j *Judge) CallCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.calls)
}
