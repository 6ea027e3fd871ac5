package app

import (
	"context"
	"errors"
	"fmt"

	"qcm-app/internal/domain"
)

// Prompter is the input side of the console.
// PromptInt returns domain.ErrInvalidInput for non-numeric input; any other
// error (io.EOF included) ends collection.
type Prompter interface {
	PromptInt(label string) (int, error)
	// Reject tells the user why the last input was refused.
	Reject(reason error)
}

// Collector obtains one validated response per question.
type Collector struct {
	prompter Prompter
}

func NewCollector(prompter Prompter) *Collector {
	return &Collector{prompter: prompter}
}

// Collect re-prompts until the response is valid for q. Input errors are
// handled here and never reach the caller.
func (c *Collector) Collect(ctx context.Context, q domain.Question) (domain.Indices, error) {
	switch q := q.(type) {
	case domain.SingleChoice:
		return c.single(ctx, len(q.Options))
	case domain.MultipleChoice:
		return c.multiple(ctx, len(q.Options), len(q.Answers))
	default:
		return nil, fmt.Errorf("collect: unsupported question type %T", q)
	}
}

func (c *Collector) single(ctx context.Context, optionCount int) (domain.Indices, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		choice, ok, err := c.read("Your answer (number)", optionCount)
		if err != nil {
			return nil, err
		}
		if ok {
			return domain.Indices{choice}, nil
		}
	}
}

func (c *Collector) multiple(ctx context.Context, optionCount, needed int) (domain.Indices, error) {
	picked := make(domain.Indices, 0, needed)
	seen := make(map[int]struct{}, needed)
	for len(picked) < needed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := fmt.Sprintf("Enter answer #%d (%d more needed)", len(picked)+1, needed-len(picked))
		choice, ok, err := c.read(label, optionCount)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, dup := seen[choice]; dup {
			c.prompter.Reject(fmt.Errorf("%w: %d", domain.ErrDuplicateChoice, choice))
			continue
		}
		seen[choice] = struct{}{}
		picked = append(picked, choice)
	}
	return picked.Sorted(), nil
}

// read returns ok=false when the input was rejected and should be asked again.
func (c *Collector) read(label string, optionCount int) (int, bool, error) {
	choice, err := c.prompter.PromptInt(label)
	if errors.Is(err, domain.ErrInvalidInput) {
		c.prompter.Reject(err)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if choice < 1 || choice > optionCount {
		c.prompter.Reject(fmt.Errorf("%w: enter a number between 1 and %d", domain.ErrOutOfRange, optionCount))
		return 0, false, nil
	}
	return choice, true, nil
}
