package dialogue

import (
	"time"

	"github.com/google/uuid"
)

// State is the engine's externally observable mode. Exactly one holder
// (the Engine) mutates it; the presentation layer only reads.
type State int

const (
	// StateIdle — no turn in flight; Submit is accepted.
	StateIdle State = iota

	// StateAwaitingOracle — a submitted question is with the judge.
	StateAwaitingOracle

	// StateRevealing — a reply is being streamed by the playback
	// scheduler.
	StateRevealing
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingOracle:
		return "awaiting_oracle"
	case StateRevealing:
		return "revealing"
	default:
		return "unknown"
	}
}

// Scenario tells the presentation layer how to style the current reply.
type Scenario int

const (
	// ScenarioDialogue — a reply inside the question/answer round.
	ScenarioDialogue Scenario = iota

	// ScenarioNotification — an unsolicited announcement delivered via
	// PresentMessage.
	ScenarioNotification
)

// String returns the lower-case scenario name.
func (s Scenario) String() string {
	switch s {
	case ScenarioDialogue:
		return "dialogue"
	case ScenarioNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Speaker identifies who produced a transcript message.
type Speaker int

const (
	SpeakerUser Speaker = iota
	SpeakerOracle
)

// String returns the lower-case speaker name.
func (s Speaker) String() string {
	switch s {
	case SpeakerUser:
		return "user"
	case SpeakerOracle:
		return "oracle"
	default:
		return "unknown"
	}
}

// Message is one transcript entry. Immutable once created; the engine
// appends messages and only ever removes them wholesale on Reset.
type Message struct {
	// ID is an opaque unique token.
	ID string

	// Time is when the engine created the message.
	Time time.Time

	// Speaker is who the message belongs to.
	Speaker Speaker

	// Content is the display text.
	Content string

	// RawUserText, set only on oracle-side replies produced by Submit,
	// preserves the exact question phrasing that produced the reply so
	// later judge calls can replay the pair as conversation history.
	RawUserText string
}

// newMessage stamps a fresh transcript entry.
func newMessage(speaker Speaker, content, rawUserText string) Message {
	return Message{
		ID:          uuid.NewString(),
		Time:        time.Now(),
		Speaker:     speaker,
		Content:     content,
		RawUserText: rawUserText,
	}
}
