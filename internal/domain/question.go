package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// OptionKey identifies one answer choice within a question, e.g. "answer_a".
type OptionKey string

const (
	AnswerA OptionKey = "answer_a"
	AnswerB OptionKey = "answer_b"
	AnswerC OptionKey = "answer_c"
	AnswerD OptionKey = "answer_d"
	AnswerE OptionKey = "answer_e"
	AnswerF OptionKey = "answer_f"
)

const flagSuffix = "_correct"

// FlagKey is the key carrying this option's correctness flag in correct_answers.
func (k OptionKey) FlagKey() string {
	return string(k) + flagSuffix
}

// Label is the short display label, "answer_c" -> "C".
func (k OptionKey) Label() string {
	s := string(k)
	if i := strings.LastIndexByte(s, '_'); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	return strings.ToUpper(s)
}

// Difficulty is a backend supplied label. The engine records it, never computes it.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalises a raw label; unknown labels are kept as-is (lower case).
func ParseDifficulty(raw string) Difficulty {
	return Difficulty(strings.ToLower(strings.TrimSpace(raw)))
}

// Option is one presented answer choice.
type Option struct {
	Key     OptionKey `json:"key"`
	Text    string    `json:"text"`
	Correct bool      `json:"-"`
}

// Question is a decoded question. Options only contains choices with text;
// correctness flags are already booleans.
type Question struct {
	ID              int64
	Category        string
	Difficulty      Difficulty
	Text            string
	Description     string
	Explanation     string
	Options         []Option
	MultipleCorrect bool
}

// Option returns the presented option for key.
func (q Question) Option(key OptionKey) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// CorrectKeys lists presented options flagged correct, in key order.
func (q Question) CorrectKeys() []OptionKey {
	keys := make([]OptionKey, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.Correct {
			keys = append(keys, opt.Key)
		}
	}
	return keys
}

// wireQuestion is the backend JSON schema.
type wireQuestion struct {
	ID                     int64              `json:"id"`
	Category               string             `json:"category"`
	Difficulty             string             `json:"difficulty"`
	Question               string             `json:"question"`
	Description            *string            `json:"description,omitempty"`
	Answers                map[string]*string `json:"answers"`
	CorrectAnswers         map[string]string  `json:"correct_answers"`
	MultipleCorrectAnswers looseBool          `json:"multiple_correct_answers"`
	Explanation            *string            `json:"explanation,omitempty"`
}

// UnmarshalJSON decodes the wire schema. Null answers are dropped and
// correctness flags other than "true" decode as false.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}

	options := make([]Option, 0, len(w.Answers))
	for key, text := range w.Answers {
		if text == nil || key == "" {
			continue
		}
		k := OptionKey(key)
		options = append(options, Option{
			Key:     k,
			Text:    *text,
			Correct: parseFlag(w.CorrectAnswers[k.FlagKey()]),
		})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Key < options[j].Key })

	*q = Question{
		ID:              w.ID,
		Category:        w.Category,
		Difficulty:      ParseDifficulty(w.Difficulty),
		Text:            w.Question,
		Description:     deref(w.Description),
		Explanation:     deref(w.Explanation),
		Options:         options,
		MultipleCorrect: bool(w.MultipleCorrectAnswers),
	}
	return nil
}

// MarshalJSON encodes back to the wire schema with "true"/"false" flags.
func (q Question) MarshalJSON() ([]byte, error) {
	w := wireQuestion{
		ID:                     q.ID,
		Category:               q.Category,
		Difficulty:             string(q.Difficulty),
		Question:               q.Text,
		Answers:                make(map[string]*string, len(q.Options)),
		CorrectAnswers:         make(map[string]string, len(q.Options)),
		MultipleCorrectAnswers: looseBool(q.MultipleCorrect),
	}
	if q.Description != "" {
		w.Description = &q.Description
	}
	if q.Explanation != "" {
		w.Explanation = &q.Explanation
	}
	for _, opt := range q.Options {
		text := opt.Text
		w.Answers[string(opt.Key)] = &text
		w.CorrectAnswers[opt.Key.FlagKey()] = formatFlag(opt.Correct)
	}
	return json.Marshal(w)
}

func parseFlag(raw string) bool {
	return raw == "true"
}

func formatFlag(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// looseBool accepts both JSON booleans and the "true"/"false" strings some
// question backends send for multiple_correct_answers.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = looseBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = looseBool(parseFlag(strings.ToLower(s)))
		return nil
	}
	*b = false
	return nil
}
