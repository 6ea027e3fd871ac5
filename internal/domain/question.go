package domain

import (
	"fmt"
	"sort"
)

// Kind tells single-answer questions from multiple-answer ones.
type Kind string

const (
	KindSingle   Kind = "single"
	KindMultiple Kind = "multiple"
)

// Question is a closed variant: SingleChoice or MultipleChoice.
// Option indices are 1-based to match what users type.
type Question interface {
	Prompt() string
	Choices() []string
	Kind() Kind
	// CorrectIndices returns the correct option indices sorted ascending.
	CorrectIndices() Indices
	isQuestion()
}

// SingleChoice has exactly one correct option.
type SingleChoice struct {
	Text    string
	Options []string
	Answer  int
}

func (q SingleChoice) Prompt() string          { return q.Text }
func (q SingleChoice) Choices() []string       { return q.Options }
func (q SingleChoice) Kind() Kind              { return KindSingle }
func (q SingleChoice) CorrectIndices() Indices { return Indices{q.Answer} }
func (SingleChoice) isQuestion()               {}

// MultipleChoice has two or more correct options, all of which must be picked.
type MultipleChoice struct {
	Text    string
	Options []string
	Answers Indices
}

func (q MultipleChoice) Prompt() string    { return q.Text }
func (q MultipleChoice) Choices() []string { return q.Options }
func (q MultipleChoice) Kind() Kind        { return KindMultiple }
func (q MultipleChoice) CorrectIndices() Indices {
	return q.Answers.Sorted()
}
func (MultipleChoice) isQuestion() {}

// NewQuestion builds the matching variant from the authored fields.
// One correct index yields a SingleChoice, more yield a MultipleChoice.
func NewQuestion(text string, options []string, correct []int) (Question, error) {
	var q Question
	switch len(correct) {
	case 0:
		return nil, fmt.Errorf("%w: no correct answer given", ErrInvalidQuestion)
	case 1:
		q = SingleChoice{Text: text, Options: options, Answer: correct[0]}
	default:
		q = MultipleChoice{Text: text, Options: options, Answers: Indices(correct).Sorted()}
	}
	if err := ValidateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

// ValidateQuestion checks option count, index range and index uniqueness.
func ValidateQuestion(q Question) error {
	if q == nil {
		return fmt.Errorf("%w: nil question", ErrInvalidQuestion)
	}
	options := q.Choices()
	if len(options) < 2 {
		return fmt.Errorf("%w: %q has %d options, need at least 2", ErrInvalidQuestion, q.Prompt(), len(options))
	}
	correct := q.CorrectIndices()
	switch q.(type) {
	case SingleChoice:
		if len(correct) != 1 {
			return fmt.Errorf("%w: %q must have exactly one correct answer", ErrInvalidQuestion, q.Prompt())
		}
	case MultipleChoice:
		if len(correct) < 2 {
			return fmt.Errorf("%w: %q must have at least two correct answers", ErrInvalidQuestion, q.Prompt())
		}
	}
	seen := make(map[int]struct{}, len(correct))
	for _, idx := range correct {
		if idx < 1 || idx > len(options) {
			return fmt.Errorf("%w: %q correct index %d outside [1, %d]", ErrInvalidQuestion, q.Prompt(), idx, len(options))
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: %q repeats correct index %d", ErrInvalidQuestion, q.Prompt(), idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

// CorrectOptions returns the text of every correct option in index order.
func CorrectOptions(q Question) []string {
	options := q.Choices()
	correct := q.CorrectIndices()
	out := make([]string, 0, len(correct))
	for _, idx := range correct {
		if idx >= 1 && idx <= len(options) {
			out = append(out, options[idx-1])
		}
	}
	return out
}

// Sorted returns an ascending copy.
func (ix Indices) Sorted() Indices {
	out := make(Indices, len(ix))
	copy(out, ix)
	sort.Ints(out)
	return out
}
