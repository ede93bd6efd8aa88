package engine

import "quiz-session-engine/internal/domain"

// Evaluate judges a selection against a question.
//
// Single-answer questions are correct iff exactly one key is chosen and that
// key is flagged correct. Multi-answer questions are correct iff the chosen set
// equals the correct set; subsets and supersets are wrong. An empty selection
// is always wrong, which is what a timed-out question evaluates to. Keys the
// question does not present make the answer wrong.
func Evaluate(q domain.Question, sel domain.Selection) bool {
	chosen := sel.Keys()
	if len(chosen) == 0 {
		return false
	}
	for _, key := range chosen {
		if _, ok := q.Option(key); !ok {
			return false
		}
	}

	if !q.MultipleCorrect {
		if len(chosen) != 1 {
			return false
		}
		opt, _ := q.Option(chosen[0])
		return opt.Correct
	}

	correct := q.CorrectKeys()
	if len(correct) != len(chosen) {
		return false
	}
	want := make(map[domain.OptionKey]struct{}, len(correct))
	for _, key := range correct {
		want[key] = struct{}{}
	}
	for _, key := range chosen {
		if _, ok := want[key]; !ok {
			return false
		}
	}
	return true
}
