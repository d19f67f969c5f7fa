// Package oracle defines the boundary to the remote judge that knows each
// puzzle's solution: the Judge interface, the closed Verdict set it must
// produce, and the error taxonomy for everything that can go wrong on the
// way there.
//
// Adapters live in subpackages (glm, anyllm); they make exactly one
// network attempt per call and never touch engine state.
package oracle

import (
	"fmt"
	"strings"
)

// Kind enumerates the categorical verdicts the judge may return.
type Kind int

const (
	// KindYes — the guess is consistent with the hidden truth.
	KindYes Kind = iota

	// KindNo — the guess contradicts the hidden truth.
	KindNo

	// KindIrrelevant — the guess neither helps nor hurts.
	KindIrrelevant

	// KindSolved — the player has reconstructed the key elements of the
	// truth; the round is won.
	KindSolved

	// KindHint — the judge volunteered a free-text hint instead of a
	// categorical answer.
	KindHint
)

// String returns the wire answer word for k, or the hint marker for
// KindHint.
func (k Kind) String() string {
	switch k {
	case KindYes:
		return answerYes
	case KindNo:
		return answerNo
	case KindIrrelevant:
		return answerIrrelevant
	case KindSolved:
		return answerSolved
	case KindHint:
		return HintPrefix
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// The exact answer words the judge is instructed to emit.
const (
	answerYes        = "是"
	answerNo         = "不是"
	answerIrrelevant = "不相关"
	answerSolved     = "成功"
)

// HintPrefix marks a free-text hint verdict on the wire.
const HintPrefix = "提示："

// Verdict is the judge's structured answer to one user question.
type Verdict struct {
	Kind Kind

	// Hint carries the hint text, marker included, when Kind is KindHint.
	// Empty otherwise.
	Hint string
}

// ParseAnswer maps a wire answer string onto a Verdict. The match is
// exact after whitespace trimming — anything outside the closed set is a
// *ProtocolError. Loose containment matching is deliberately not used, so
// an unrecognised answer fails loudly instead of being misread.
func ParseAnswer(answer string) (Verdict, error) {
	trimmed := strings.TrimSpace(answer)
	switch trimmed {
	case answerYes:
		return Verdict{Kind: KindYes}, nil
	case answerNo:
		return Verdict{Kind: KindNo}, nil
	case answerIrrelevant:
		return Verdict{Kind: KindIrrelevant}, nil
	case answerSolved:
		return Verdict{Kind: KindSolved}, nil
	}
	if strings.HasPrefix(trimmed, HintPrefix) {
		return Verdict{Kind: KindHint, Hint: trimmed}, nil
	}
	return Verdict{}, &ProtocolError{Reason: fmt.Sprintf("unrecognised answer %q", answer)}
}
