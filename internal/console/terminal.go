package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"qcm-app/internal/domain"
)

// Terminal is the line-based console. It implements app.Prompter and
// app.Presenter.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int

	ctx        context.Context
	pending    chan lineResult
	isTerminal func(fd int) bool
}

type lineResult struct {
	line string
	err  error
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), out: out, fd: -1, ctx: context.Background(), isTerminal: term.IsTerminal}
	if f, ok := in.(*os.File); ok {
		t.fd = int(f.Fd())
	}
	return t
}

func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) Println(args ...any) {
	fmt.Fprintln(t.out, args...)
}

// Bind makes reads give up with io.EOF once ctx is done.
func (t *Terminal) Bind(ctx context.Context) {
	t.ctx = ctx
}

// ReadLine prints label and returns the next input line without its line
// ending. io.EOF is returned once no text is left or the bound context is
// done.
func (t *Terminal) ReadLine(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	line, err := t.next()
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// next waits for one line from a background read. A read abandoned on
// cancel stays pending and its line is handed to the following call.
func (t *Terminal) next() (string, error) {
	if t.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := t.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		t.pending = ch
	}
	select {
	case <-t.ctx.Done():
		return "", io.EOF
	case r := <-t.pending:
		t.pending = nil
		return r.line, r.err
	}
}

// ReadPassword reads without echo when attached to a terminal. Input that
// is already buffered (pasted ahead) is taken from the buffer instead.
func (t *Terminal) ReadPassword(label string) (string, error) {
	if t.fd < 0 || t.pending != nil || t.in.Buffered() > 0 || !t.isTerminal(t.fd) {
		return t.ReadLine(label)
	}
	state, err := term.GetState(t.fd)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(t.out, "%s: ", label)
	ch := make(chan lineResult, 1)
	go func() {
		b, err := term.ReadPassword(t.fd)
		ch <- lineResult{line: string(b), err: err}
	}()
	select {
	case <-t.ctx.Done():
		// echo is still off while the read is abandoned
		_ = term.Restore(t.fd, state)
		fmt.Fprintln(t.out)
		return "", io.EOF
	case r := <-ch:
		fmt.Fprintln(t.out)
		return r.line, r.err
	}
}

// PromptInt implements app.Prompter.
func (t *Terminal) PromptInt(label string) (int, error) {
	line, err := t.ReadLine(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, domain.ErrInvalidInput
	}
	return n, nil
}

// Reject implements app.Prompter.
func (t *Terminal) Reject(reason error) {
	fmt.Fprintf(t.out, "Invalid answer: %v\n", reason)
}

func (t *Terminal) Start(quiz domain.Quiz, timeLimit time.Duration) {
	fmt.Fprintf(t.out, "\nStarting QCM: %s\n", quiz.Title)
	fmt.Fprintf(t.out, "Category: %s\n", quiz.Category)
	fmt.Fprintf(t.out, "Total questions: %d\n", len(quiz.Questions))
	if timeLimit > 0 {
		fmt.Fprintf(t.out, "You have %s to complete the quiz.\n", formatLimit(timeLimit))
	}
}

func (t *Terminal) Question(q domain.Question, index, total int, remaining time.Duration) {
	fmt.Fprintf(t.out, "\nQuestion %d/%d\n", index, total)
	fmt.Fprintf(t.out, "%s\n\n", q.Prompt())
	for i, option := range q.Choices() {
		fmt.Fprintf(t.out, "%d. %s\n", i+1, option)
	}
	if remaining > 0 {
		fmt.Fprintf(t.out, "\nTime remaining: %d seconds\n", int(remaining.Seconds()))
	}
	if mc, ok := q.(domain.MultipleChoice); ok {
		fmt.Fprintf(t.out, "This is a multiple choice question. Select %d answers.\n", len(mc.Answers))
	}
}

func (t *Terminal) Graded(q domain.Question, correct bool) {
	if correct {
		fmt.Fprintln(t.out, "Correct!")
		return
	}
	fmt.Fprintln(t.out, "Incorrect!")
	fmt.Fprintf(t.out, "The correct answer(s): %s\n", strings.Join(domain.CorrectOptions(q), ", "))
}

func (t *Terminal) TimeUp() {
	fmt.Fprintln(t.out, "\nTime's up!")
}

func formatLimit(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return fmt.Sprintf("%d seconds", int(d.Seconds()))
}
