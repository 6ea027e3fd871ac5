package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"qcm-app/internal/domain"
)

var errScriptExhausted = errors.New("script exhausted")

func TestCollectSingleRepromptsUntilValid(t *testing.T) {
	q := mustQuestion("Pick one", []string{"a", "b", "c"}, 2)
	p := &scriptedPrompter{inputs: []promptInput{
		{err: domain.ErrInvalidInput},
		{n: 0},
		{n: 4},
		{n: 3},
	}}

	got, err := NewCollector(p).Collect(context.Background(), q)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !got.Equal(domain.Indices{3}) {
		t.Fatalf("expected [3], got %v", got)
	}
	if len(p.rejected) != 3 {
		t.Fatalf("expected 3 rejections, got %v", p.rejected)
	}
	if !errors.Is(p.rejected[0], domain.ErrInvalidInput) || !errors.Is(p.rejected[1], domain.ErrOutOfRange) {
		t.Fatalf("unexpected rejection reasons %v", p.rejected)
	}
}

func TestCollectMultipleNeedsDistinctIndices(t *testing.T) {
	q := mustQuestion("Pick two", []string{"a", "b", "c", "d"}, 1, 4)
	p := &scriptedPrompter{inputs: []promptInput{
		{n: 4},
		{n: 4},
		{n: 9},
		{err: domain.ErrInvalidInput},
		{n: 2},
	}}

	got, err := NewCollector(p).Collect(context.Background(), q)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !got.Equal(domain.Indices{2, 4}) {
		t.Fatalf("expected sorted [2 4], got %v", got)
	}
	if !errors.Is(p.rejected[0], domain.ErrDuplicateChoice) {
		t.Fatalf("expected duplicate rejection first, got %v", p.rejected)
	}
	if p.labels[0] != "Enter answer #1 (2 more needed)" || p.labels[1] != "Enter answer #2 (1 more needed)" {
		t.Fatalf("unexpected labels %q", p.labels)
	}
}

func TestCollectNeverReturnsWrongSize(t *testing.T) {
	q := mustQuestion("Pick three", []string{"a", "b", "c", "d", "e"}, 1, 2, 5)
	inputs := []promptInput{{n: 5}, {n: 5}, {n: 5}, {n: 1}, {n: 1}, {n: 6}, {n: 3}}
	got, err := NewCollector(&scriptedPrompter{inputs: inputs}).Collect(context.Background(), q)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 3 || !got.Equal(domain.Indices{1, 3, 5}) {
		t.Fatalf("expected three distinct sorted indices, got %v", got)
	}
}

func TestCollectPropagatesEndOfInput(t *testing.T) {
	q := mustQuestion("Pick one", []string{"a", "b"}, 1)
	p := &scriptedPrompter{inputs: []promptInput{{n: 7}, {err: io.EOF}}}
	if _, err := NewCollector(p).Collect(context.Background(), q); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := mustQuestion("Pick one", []string{"a", "b"}, 1)
	if _, err := NewCollector(&scriptedPrompter{}).Collect(ctx, q); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
