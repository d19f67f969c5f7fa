// Package dialogue implements the interrogation engine: the state machine
// that runs one question/answer round between the player and the judge,
// owns the transcript and turn ledger, and streams replies through the
// playback scheduler.
//
// One Engine serves one presentation context. Construct it explicitly and
// inject collaborators; there is no package-level instance. The Engine is
// the sole mutator of its transcript, ledger, and state — the
// presentation layer only reads, via State, Scenario, Transcript,
// Revealed, and Stats.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/glzhang/soupbot/internal/entitle"
	"github.com/glzhang/soupbot/internal/ledger"
	"github.com/glzhang/soupbot/internal/observe"
	"github.com/glzhang/soupbot/internal/oracle"
	"github.com/glzhang/soupbot/internal/playback"
	"github.com/glzhang/soupbot/internal/puzzle"
	"github.com/glzhang/soupbot/internal/track"
)

// Local validation errors. These are the only errors the Engine returns;
// judge failures never escape — they become transcript replies.
var (
	// ErrEmptyInput — the submitted text was empty or whitespace-only.
	ErrEmptyInput = errors.New("dialogue: empty input")

	// ErrBusy — a turn is already in flight; Submit is rejected, never
	// queued or interleaved.
	ErrBusy = errors.New("dialogue: a turn is already in flight")

	// ErrTurnDenied — the entitlement gate refused the turn.
	ErrTurnDenied = errors.New("dialogue: turn denied by entitlement gate")

	// ErrNotIdle — PresentMessage is only valid from the idle state.
	ErrNotIdle = errors.New("dialogue: engine is not idle")

	// ErrNoPuzzle — Reset was handed an invalid puzzle, or Submit was
	// called before any Reset. A caller hitting this has a programming
	// error on its side.
	ErrNoPuzzle = errors.New("dialogue: no valid puzzle loaded")
)

// Engine runs one interrogation round at a time. All exported methods are
// safe for concurrent use, but the engine is designed for a single
// presentation context: a Submit that races another turn is rejected with
// ErrBusy rather than queued.
type Engine struct {
	judge   oracle.Judge
	gate    entitle.Gate
	tracker track.Tracker
	logger  *slog.Logger
	metrics *observe.Metrics
	sched   *playback.Scheduler

	// Presentation hooks, forwarded from the scheduler. They run on the
	// scheduler's timer context and must not call back into the Engine.
	onUpdate func(revealed string)
	onDone   func()

	// startMu serialises every scheduler start against Reset: a playback
	// may only begin while its round is still current. Acquired before
	// e.mu, never while holding it.
	startMu sync.Mutex

	mu         sync.Mutex
	round      uint64 // bumped on Reset; stale oracle results check it
	state      State
	scenario   Scenario
	puz        puzzle.Puzzle
	hasPuzzle  bool
	transcript []Message
	led        *ledger.Ledger
}

// Option configures an Engine during construction.
type Option func(*Engine, *engineConfig)

// engineConfig collects construction-only settings.
type engineConfig struct {
	budget   int
	interval time.Duration
}

// WithGate sets the entitlement gate. Default: allow every turn.
func WithGate(g entitle.Gate) Option {
	return func(e *Engine, _ *engineConfig) { e.gate = g }
}

// WithTracker sets the first-run tracker. Default: in-memory, so the
// extended instructions appear on the first round of every process.
func WithTracker(t track.Tracker) Option {
	return func(e *Engine, _ *engineConfig) { e.tracker = t }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine, _ *engineConfig) { e.logger = l }
}

// WithMetrics sets the metrics instance. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine, _ *engineConfig) { e.metrics = m }
}

// WithTurnBudget sets the number of scored questions per round.
// Default: ledger.DefaultBudget.
func WithTurnBudget(n int) Option {
	return func(_ *Engine, c *engineConfig) { c.budget = n }
}

// WithRevealInterval sets the delay between revealed fragments.
// Default: playback.DefaultInterval.
func WithRevealInterval(d time.Duration) Option {
	return func(_ *Engine, c *engineConfig) { c.interval = d }
}

// OnUpdate registers a hook receiving the revealed-so-far text after each
// fragment. The hook runs on the playback scheduler's timer context and
// must not call back into the Engine.
func OnUpdate(fn func(revealed string)) Option {
	return func(e *Engine, _ *engineConfig) { e.onUpdate = fn }
}

// OnDone registers a hook invoked when a reply finishes revealing, after
// the engine has returned to idle. Same execution-context caveat as
// OnUpdate.
func OnDone(fn func()) Option {
	return func(e *Engine, _ *engineConfig) { e.onDone = fn }
}

// New creates an Engine around the given judge. Call Reset before Submit.
func New(judge oracle.Judge, opts ...Option) *Engine {
	e := &Engine{
		judge:    judge,
		gate:     entitle.AllowAll{},
		tracker:  &track.Memory{},
		logger:   slog.Default(),
		state:    StateIdle,
		scenario: ScenarioDialogue,
	}
	cfg := &engineConfig{}
	for _, o := range opts {
		o(e, cfg)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}

	e.led = ledger.New(cfg.budget)

	schedOpts := []playback.Option{playback.OnDone(e.playbackFinished)}
	if cfg.interval > 0 {
		schedOpts = append(schedOpts, playback.WithInterval(cfg.interval))
	}
	if e.onUpdate != nil {
		schedOpts = append(schedOpts, playback.OnUpdate(e.onUpdate))
	}
	e.sched = playback.New(schedOpts...)

	return e
}

// Reset starts a fresh round on p. Valid from any state: it cancels any
// playback, discards any in-flight oracle result, clears the transcript,
// zeroes the ledger, and seeds a welcome message stating the puzzle's
// prompt. The extended instructions paragraph is included only if the
// tracker has never shown it.
func (e *Engine) Reset(p puzzle.Puzzle) error {
	if !p.Valid() {
		return ErrNoPuzzle
	}

	withIntro := !e.tracker.IntroShown()
	if withIntro {
		e.tracker.MarkIntroShown()
	}

	// Holding startMu from cancel through start closes the window in which
	// a verdict goroutine that already passed its round check could slip
	// its reply in behind the new round's welcome.
	e.startMu.Lock()

	// Invalidate the old playback before seeding so no stale fragment can
	// land after the transcript is replaced.
	e.sched.Cancel()

	e.mu.Lock()
	e.round++
	e.puz = p
	e.hasPuzzle = true
	e.led.Reset()
	welcome := newMessage(SpeakerOracle, welcomeMessage(p.Prompt, e.led.Budget(), withIntro), "")
	e.transcript = []Message{welcome}
	e.scenario = ScenarioDialogue
	e.state = StateRevealing
	e.mu.Unlock()

	e.sched.Start(welcome.Content)
	e.startMu.Unlock()

	e.metrics.RoundsStarted.Add(context.Background(), 1)
	e.logger.Info("round reset", "puzzle_id", p.ID, "intro", withIntro)
	return nil
}

// Submit runs one player turn. It returns quickly: the judge round trip,
// if one is needed, happens on its own goroutine and re-enters the
// engine's mutation path when the verdict arrives.
//
// Local rejections (empty input, busy engine, denied turn) come back as
// errors and leave all state untouched. Judge failures do not: they are
// converted into a fixed apology reply, and the question still counts
// against the budget.
func (e *Engine) Submit(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyInput
	}

	e.mu.Lock()
	if !e.hasPuzzle {
		e.mu.Unlock()
		return ErrNoPuzzle
	}
	if e.state != StateIdle {
		e.mu.Unlock()
		return ErrBusy
	}
	// The presentation layer is expected to have short-circuited an
	// exhausted gate already; this check is defensive.
	if !e.gate.AllowTurn(ctx) {
		e.mu.Unlock()
		return ErrTurnDenied
	}

	e.transcript = append(e.transcript, newMessage(SpeakerUser, trimmed, ""))
	e.scenario = ScenarioDialogue
	e.state = StateAwaitingOracle
	round := e.round

	// Canned replies skip the ledger and the judge; they cost nothing
	// from the turn budget.
	if reply, ok := cannedReplyFor(trimmed); ok {
		content := e.composeReplyLocked(reply, trimmed)
		e.mu.Unlock()
		e.countTurn("canned")
		e.startReveal(round, content)
		return nil
	}

	// A won round stays won: the reply is fixed and the ledger is not
	// touched again.
	if e.led.Solved() {
		content := e.composeReplyLocked(replyAlreadySolved, trimmed)
		e.mu.Unlock()
		e.countTurn("solved")
		e.startReveal(round, content)
		return nil
	}

	e.led.RecordQuestion()

	if e.led.ShouldTerminate() {
		content := e.composeReplyLocked(e.led.TerminationSummary(), trimmed)
		e.mu.Unlock()
		e.countTurn("terminated")
		e.startReveal(round, content)
		return nil
	}

	p := e.puz
	history := e.historyLocked()
	e.mu.Unlock()

	go e.consultOracle(ctx, round, trimmed, p, history)
	return nil
}

// PresentMessage streams an unsolicited announcement, bypassing the
// ledger and the judge. Valid from the idle state only.
func (e *Engine) PresentMessage(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyInput
	}

	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return ErrNotIdle
	}
	e.transcript = append(e.transcript, newMessage(SpeakerOracle, trimmed, ""))
	e.scenario = ScenarioNotification
	e.state = StateRevealing
	round := e.round
	e.mu.Unlock()

	e.startReveal(round, trimmed)
	return nil
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Scenario returns the styling hint for the current reply.
func (e *Engine) Scenario() Scenario {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenario
}

// Transcript returns a copy of the conversation so far.
func (e *Engine) Transcript() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// Revealed returns the partially revealed text of the active playback.
func (e *Engine) Revealed() string {
	return e.sched.Revealed()
}

// RoundStats is a read-only snapshot of the ledger.
type RoundStats struct {
	QuestionsAsked int
	CorrectGuesses int
	Budget         int
	Solved         bool
}

// Stats returns the current round's ledger snapshot.
func (e *Engine) Stats() RoundStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RoundStats{
		QuestionsAsked: e.led.QuestionsAsked(),
		CorrectGuesses: e.led.CorrectGuesses(),
		Budget:         e.led.Budget(),
		Solved:         e.led.Solved(),
	}
}

// consultOracle performs the judge round trip and applies the verdict.
// Runs on its own goroutine; the engine state stays AwaitingOracle until
// the result (or failure) is applied. A Reset while the call is in flight
// bumps the round counter, and the stale result is dropped.
func (e *Engine) consultOracle(ctx context.Context, round uint64, ask string, p puzzle.Puzzle, history []oracle.Exchange) {
	verdict, err := e.judge.Judge(ctx, ask, p, history)

	e.mu.Lock()
	if round != e.round {
		e.mu.Unlock()
		e.logger.Debug("dropping stale oracle result", "round", round)
		return
	}

	var content string
	outcome := "judged"
	switch {
	case err != nil:
		// Transport and protocol failures alike collapse to the apology
		// reply. The question stays counted; the correctness counters are
		// untouched.
		content = replyJudgeUnavailable
		outcome = "failed"
		e.logger.Warn("oracle call failed", "err", err)
	case verdict.Kind == oracle.KindYes:
		e.led.RecordCorrect()
		content = oracle.KindYes.String()
	case verdict.Kind == oracle.KindNo:
		content = oracle.KindNo.String()
	case verdict.Kind == oracle.KindIrrelevant:
		content = oracle.KindIrrelevant.String()
	case verdict.Kind == oracle.KindSolved:
		e.led.RecordCorrect()
		e.led.MarkSolved()
		content = replySolved
		outcome = "won"
	case verdict.Kind == oracle.KindHint:
		content = verdict.Hint
	default:
		content = replyJudgeUnavailable
		outcome = "failed"
		e.logger.Warn("oracle returned unknown verdict kind", "kind", int(verdict.Kind))
	}

	reply := e.composeReplyLocked(content, ask)
	e.mu.Unlock()

	e.countTurn(outcome)
	e.startReveal(round, reply)
}

// startReveal starts playback for content unless round has been
// superseded. The staleness re-check and the scheduler start are atomic
// with respect to Reset, which holds startMu across its own
// cancel-and-start.
func (e *Engine) startReveal(round uint64, content string) {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	e.mu.Lock()
	current := e.round
	e.mu.Unlock()
	if round != current {
		e.logger.Debug("dropping superseded playback", "round", round)
		return
	}
	e.sched.Start(content)
}

// composeReplyLocked appends the oracle-side reply to the transcript and
// moves the engine to Revealing. Caller holds e.mu and must start the
// playback after releasing it.
func (e *Engine) composeReplyLocked(content, rawUserText string) string {
	e.transcript = append(e.transcript, newMessage(SpeakerOracle, content, rawUserText))
	e.state = StateRevealing
	return content
}

// historyLocked extracts the judged exchanges to replay: every
// oracle-side message that recorded its originating question, paired with
// its own content, in transcript order.
func (e *Engine) historyLocked() []oracle.Exchange {
	var out []oracle.Exchange
	for _, m := range e.transcript {
		if m.Speaker == SpeakerOracle && m.RawUserText != "" {
			out = append(out, oracle.Exchange{Question: m.RawUserText, Answer: m.Content})
		}
	}
	return out
}

// playbackFinished is the scheduler's completion callback: the reply is
// fully revealed, so the engine returns to idle.
func (e *Engine) playbackFinished() {
	e.mu.Lock()
	if e.state == StateRevealing {
		e.state = StateIdle
	}
	e.mu.Unlock()

	e.metrics.RepliesRevealed.Add(context.Background(), 1)
	if e.onDone != nil {
		e.onDone()
	}
}

// countTurn records one accepted turn by outcome.
func (e *Engine) countTurn(outcome string) {
	e.metrics.TurnsSubmitted.Add(context.Background(), 1,
		metric.WithAttributes(observe.Attr("outcome", outcome)))
}
