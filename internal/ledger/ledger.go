// Package ledger tracks per-round question bookkeeping for the
// interrogation engine: how many questions have been asked, how many were
// answered "yes", and whether the puzzle has been solved.
//
// A Ledger is owned and mutated exclusively by the dialogue engine. It
// performs no I/O and no locking; the engine serialises access.
package ledger

// DefaultBudget is the number of scored questions allowed per round.
const DefaultBudget = 10

// Canned closing messages, one per accuracy band.
const (
	summaryMostlyCorrect = "本轮的提问机会用完啦！你的推理相当出色，大部分猜测都切中了真相，翻开卡片对对答案吧！"
	summaryPartlyCorrect = "本轮的提问机会用完啦！你已经摸到了一部分真相，翻开卡片看看完整的汤底吧！"
	summaryKeepTrying    = "本轮的提问机会用完啦！这碗汤有点深，别灰心，翻开卡片看看真相，下次再战！"
)

// Ledger tracks the turn budget for a single round.
type Ledger struct {
	budget         int
	questionsAsked int
	correctGuesses int
	solved         bool
}

// New returns a Ledger with the given question budget. A budget of zero or
// less falls back to DefaultBudget.
func New(budget int) *Ledger {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Ledger{budget: budget}
}

// RecordQuestion counts one scored question.
func (l *Ledger) RecordQuestion() {
	l.questionsAsked++
}

// RecordCorrect counts one "yes" verdict. The correct count never exceeds
// the question count.
func (l *Ledger) RecordCorrect() {
	if l.correctGuesses < l.questionsAsked {
		l.correctGuesses++
	}
}

// MarkSolved latches the solved flag. Only Reset clears it.
func (l *Ledger) MarkSolved() {
	l.solved = true
}

// Reset zeroes all counters and the solved flag. The budget is kept.
func (l *Ledger) Reset() {
	l.questionsAsked = 0
	l.correctGuesses = 0
	l.solved = false
}

// Solved reports whether the puzzle has been solved this round.
func (l *Ledger) Solved() bool { return l.solved }

// QuestionsAsked returns the number of scored questions so far.
func (l *Ledger) QuestionsAsked() int { return l.questionsAsked }

// CorrectGuesses returns the number of "yes" verdicts so far.
func (l *Ledger) CorrectGuesses() int { return l.correctGuesses }

// Budget returns the question budget for this round.
func (l *Ledger) Budget() int { return l.budget }

// ShouldTerminate reports whether the round must end: true once the
// question count exceeds the budget.
func (l *Ledger) ShouldTerminate() bool {
	return l.questionsAsked > l.budget
}

// TerminationSummary picks the closing message for the player's accuracy
// band: ≥0.6 mostly correct, ≥0.3 partially correct, otherwise keep trying.
func (l *Ledger) TerminationSummary() string {
	rate := l.correctRate()
	switch {
	case rate >= 0.6:
		return summaryMostlyCorrect
	case rate >= 0.3:
		return summaryPartlyCorrect
	default:
		return summaryKeepTrying
	}
}

// correctRate divides by questionsAsked−1: the ledger is consulted before
// the final, budget-busting question is scored, so that question is
// excluded from the denominator. A denominator of zero yields rate 0.
func (l *Ledger) correctRate() float64 {
	n := l.questionsAsked - 1
	if n <= 0 {
		return 0
	}
	return float64(l.correctGuesses) / float64(n)
}
