package dialogue

import (
	"fmt"
	"strings"
)

// cannedReplies short-circuits trivial inputs straight to playback: these
// do not consult the judge and do not count against the turn budget.
// Lookup keys are lower-cased, trimmed exact matches.
var cannedReplies = map[string]string{
	"你好":    "你好呀！我是这锅海龟汤的评审官，针对汤面提问吧，我只会回答“是”、“不是”或“不相关”。",
	"hello": "你好呀！我是这锅海龟汤的评审官，针对汤面提问吧，我只会回答“是”、“不是”或“不相关”。",
	"hi":    "你好呀！我是这锅海龟汤的评审官，针对汤面提问吧，我只会回答“是”、“不是”或“不相关”。",
	"你是谁":   "我是海龟汤评审官，汤底就藏在我心里，用提问把它还原出来吧。",
	"谢谢":    "不客气，继续推理吧！",
	"再见":    "再见啦，期待下次一起喝汤！",
	"bye":   "再见啦，期待下次一起喝汤！",
}

// Fixed replies synthesised by the engine without consulting the judge.
const (
	// replyAlreadySolved answers any question after the round is won.
	replyAlreadySolved = "你已经猜出汤底啦，翻开卡片看看完整的真相吧！"

	// replySolved overrides the judge's bare "成功" with a friendlier close.
	replySolved = "恭喜！你已经还原了真相的关键部分，这碗汤算你喝到了。翻开卡片看看完整的汤底吧！"

	// replyJudgeUnavailable covers transport and protocol failures alike;
	// the player just sees the referee losing focus for a moment.
	replyJudgeUnavailable = "抱歉，我刚才愣了下神，没听清这个问题，请再问我一次吧。"
)

// welcomeIntro is the extended instructions paragraph, shown only on the
// player's very first round across the app's lifetime.
const welcomeIntro = "海龟汤是一种“是/不是”推理游戏：我心里藏着事件完整的真相（汤底），你可以提出能用“是”、“不是”或“不相关”回答的问题，一步步还原事情的原貌。想不出来的时候，直接说“提示”就行。"

// welcomeMessage renders the seeded system message for a new round.
func welcomeMessage(prompt string, budget int, withIntro bool) string {
	var b strings.Builder
	b.WriteString("欢迎来喝这碗海龟汤！\n")
	if withIntro {
		b.WriteString(welcomeIntro)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "【汤面】%s\n", prompt)
	fmt.Fprintf(&b, "开始提问吧，你有%d次提问机会。", budget)
	return b.String()
}

// cannedReplyFor returns the canned reply for input, if any. Matching is
// case-insensitive on the trimmed input.
func cannedReplyFor(input string) (string, bool) {
	reply, ok := cannedReplies[strings.ToLower(strings.TrimSpace(input))]
	return reply, ok
}
