package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qcm-app/internal/domain"
)

func newTestStore(t *testing.T, dir string, reset bool) *Store {
	t.Helper()
	files, err := NewFiles(dir, reset, nil)
	if err != nil {
		t.Fatalf("new files: %v", err)
	}
	store, err := Open(files)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func sampleResult() domain.Result {
	return domain.Result{
		Date:           domain.NewTimestamp(time.Date(2026, 10, 19, 9, 30, 15, 0, time.Local)),
		Category:       "Math",
		Title:          "Basics",
		Score:          75,
		TimeTaken:      42.125,
		CorrectAnswers: 3,
		TotalQuestions: 4,
		Answers:        []domain.Indices{{1}, {2, 3}, {4}, {1}},
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newTestStore(t, dir, false)

	if err := store.CreateUser(ctx, "alice", "pw"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.EnsureHistory(ctx, "alice"); err != nil {
		t.Fatalf("ensure history: %v", err)
	}
	if err := store.EnsureStats(ctx, "alice"); err != nil {
		t.Fatalf("ensure stats: %v", err)
	}
	want := sampleResult()
	if err := store.AppendResult(ctx, "alice", want); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AddScore(ctx, "alice", want.Score); err != nil {
		t.Fatalf("add score: %v", err)
	}

	reopened := newTestStore(t, dir, false)
	results, ok, err := reopened.History(ctx, "alice")
	if err != nil || !ok || len(results) != 1 {
		t.Fatalf("history after reopen: ok=%v len=%d err=%v", ok, len(results), err)
	}
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(results[0])
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Fatalf("result changed across reload:\n%s\n%s", wantJSON, gotJSON)
	}

	stats, _ := reopened.AllStats(ctx)
	if len(stats) != 1 || stats[0].User != "alice" || stats[0].TotalScore != 75 || stats[0].QuizzesTaken != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	password, ok, _ := reopened.Password(ctx, "alice")
	if !ok || password != "pw" {
		t.Fatalf("expected stored password, got %q ok=%v", password, ok)
	}
}

func TestStoreDuplicateUserKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, t.TempDir(), false)
	if err := store.CreateUser(ctx, "bob", "first"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateUser(ctx, "bob", "second"); !errors.Is(err, domain.ErrDuplicateUser) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if password, _, _ := store.Password(ctx, "bob"); password != "first" {
		t.Fatalf("password overwritten: %q", password)
	}
}

func TestStoreAutoInitializesUnknownUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, t.TempDir(), false)
	if err := store.AppendResult(ctx, "ghost", sampleResult()); err != nil {
		t.Fatalf("append: %v", err)
	}
	stats, err := store.AddScore(ctx, "ghost", 50)
	if err != nil {
		t.Fatalf("add score: %v", err)
	}
	if stats.QuizzesTaken != 1 || stats.TotalScore != 50 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStoreKeepsUserOrder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newTestStore(t, dir, false)
	for _, u := range []string{"zoe", "adam", "mia"} {
		if err := store.EnsureStats(ctx, u); err != nil {
			t.Fatalf("ensure stats: %v", err)
		}
	}
	stats, _ := newTestStore(t, dir, false).AllStats(ctx)
	if len(stats) != 3 || stats[0].User != "zoe" || stats[1].User != "adam" || stats[2].User != "mia" {
		t.Fatalf("order lost: %+v", stats)
	}
}

func TestCorruptDocumentPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ScoresFile), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, _ := NewFiles(dir, false, nil)
	if _, err := Open(files); !errors.Is(err, domain.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}

	store := newTestStore(t, dir, true)
	stats, _ := store.AllStats(context.Background())
	if len(stats) != 0 {
		t.Fatalf("expected empty defaults after reset, got %+v", stats)
	}
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newTestStore(t, dir, false)

	// A directory in place of the target makes the final rename fail.
	if err := os.Mkdir(filepath.Join(dir, HistoryFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, HistoryFile, "keep"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := store.AppendResult(ctx, "alice", sampleResult())
	if !errors.Is(err, domain.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	results, ok, _ := store.History(ctx, "alice")
	if !ok || len(results) != 1 {
		t.Fatalf("in-memory append should survive a failed write, got ok=%v len=%d", ok, len(results))
	}
}

func TestCatalogSourceAddAndLoad(t *testing.T) {
	ctx := context.Background()
	files, _ := NewFiles(t.TempDir(), true, nil)
	source := NewCatalogSource(files, "")

	empty, err := source.LoadCatalog(ctx)
	if err != nil || len(empty.Categories) != 0 {
		t.Fatalf("expected empty catalog for missing file, got %+v err=%v", empty, err)
	}

	q, _ := domain.NewQuestion("2 + 2?", []string{"3", "4"}, []int{2})
	quiz := domain.Quiz{Category: "Math", Title: "Basics", Questions: []domain.Question{q}}
	if err := source.AddQuiz(ctx, quiz); err != nil {
		t.Fatalf("add quiz: %v", err)
	}
	if err := source.AddQuiz(ctx, quiz); !errors.Is(err, domain.ErrQuizExists) {
		t.Fatalf("expected ErrQuizExists, got %v", err)
	}

	catalog, err := source.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := catalog.Quiz("Math", "Basics")
	if err != nil || len(got.Questions) != 1 {
		t.Fatalf("quiz not persisted: %+v err=%v", got, err)
	}
}

func TestCatalogSourceSkipsMalformedQuiz(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	doc := `{
    "Math": {
        "Good": [{"question": "1 + 1?", "options": ["1", "2"], "correct": 2}],
        "Typo": [{"question": "q", "options": ["a", "b"], "correct": 5}]
    },
    "Broken": {
        "Only": [{"question": "q", "options": ["a"], "correct": 1}]
    },
    "Geo": {
        "Capitals": [{"question": "Capital of Peru?", "options": ["Lima", "Quito"], "correct": 1}]
    }
}`
	path := filepath.Join(dir, DefaultCatalogFile)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	files, _ := NewFiles(dir, false, nil)
	source := NewCatalogSource(files, "")

	catalog, err := source.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if names := catalog.CategoryNames(); len(names) != 2 || names[0] != "Math" || names[1] != "Geo" {
		t.Fatalf("unexpected categories %v", names)
	}
	if titles, _ := catalog.Titles("Math"); len(titles) != 1 || titles[0] != "Good" {
		t.Fatalf("expected only the valid Math quiz, got %v", titles)
	}

	q, _ := domain.NewQuestion("2 + 3?", []string{"5", "6"}, []int{1})
	if err := source.AddQuiz(ctx, domain.Quiz{Category: "Math", Title: "More", Questions: []domain.Question{q}}); err != nil {
		t.Fatalf("add quiz: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !bytes.Contains(raw, []byte(`"Typo"`)) || !bytes.Contains(raw, []byte(`"Broken"`)) {
		t.Fatalf("skipped quizzes should stay in the file:\n%s", raw)
	}
	catalog, err = source.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if titles, _ := catalog.Titles("Math"); len(titles) != 2 || titles[1] != "More" {
		t.Fatalf("expected new quiz after the valid one, got %v", titles)
	}
}

func TestCatalogSourceNeverResetsBrokenJSON(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultCatalogFile)
	if err := os.WriteFile(path, []byte(`{"Math": {"Basics": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	files, _ := NewFiles(dir, true, nil)
	source := NewCatalogSource(files, "")

	if _, err := source.LoadCatalog(ctx); !errors.Is(err, domain.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
	q, _ := domain.NewQuestion("q", []string{"a", "b"}, []int{1})
	if err := source.AddQuiz(ctx, domain.Quiz{Category: "Math", Title: "New", Questions: []domain.Question{q}}); !errors.Is(err, domain.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore on add, got %v", err)
	}
	if raw, _ := os.ReadFile(path); string(raw) != `{"Math": {"Basics": [` {
		t.Fatalf("broken catalog was rewritten: %s", raw)
	}
}
