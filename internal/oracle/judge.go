package oracle

import (
	"context"

	"github.com/glzhang/soupbot/internal/puzzle"
)

// Exchange pairs one judged user question with the reply it produced.
// The dialogue engine extracts these from its transcript so every judge
// call replays the round's history in order.
type Exchange struct {
	Question string
	Answer   string
}

// Judge is the boundary client for the remote referee.
//
// Judge makes exactly one network attempt; retry policy belongs to the
// caller. Request construction is deterministic given the arguments.
// Failures are *TransportError (unreachable, non-2xx, timeout) or
// *ProtocolError (malformed or unrecognised response). Implementations
// must not hold state across calls and must be safe for concurrent use.
type Judge interface {
	Judge(ctx context.Context, userText string, p puzzle.Puzzle, history []Exchange) (Verdict, error)
}

// JudgeFunc adapts a function to the Judge interface.
type JudgeFunc func(ctx context.Context, userText string, p puzzle.Puzzle, history []Exchange) (Verdict, error)

func (f JudgeFunc) Judge(ctx context.Context, userText string, p puzzle.Puzzle, history []Exchange) (Verdict, error) {
	return f(ctx, userText, p, history)
}
