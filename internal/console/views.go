package console

import (
	"strings"

	"qcm-app/internal/domain"
)

func (t *Terminal) ShowResult(result domain.Result) {
	t.Println("\nQuiz Completed!")
	t.Printf("Score: %.1f%%\n", result.Score)
	t.Printf("Time taken: %.1f seconds\n", result.TimeTaken)
	t.Printf("Correct answers: %d/%d\n", result.CorrectAnswers, result.TotalQuestions)
}

func (t *Terminal) ShowLeaderboard(standings []domain.Standing) {
	t.Println("\nLEADERBOARD")
	if len(standings) == 0 {
		t.Println("No scores yet.")
		return
	}
	for _, s := range standings {
		t.Printf("%d. %s: %.1f%%\n", s.Rank, s.User, s.Average)
	}
}

func (t *Terminal) ShowHistory(results []domain.Result) {
	t.Println("\nYour QCM History:")
	for _, r := range results {
		t.Printf("\nDate: %s\n", r.Date.Format(domain.TimestampLayout))
		t.Printf("QCM: %s - %s\n", r.Category, r.Title)
		t.Printf("Score: %.1f%%\n", r.Score)
		t.Printf("Correct answers: %d/%d\n", r.CorrectAnswers, r.TotalQuestions)
		t.Printf("Time taken: %.1f seconds\n", r.TimeTaken)
	}
}

func (t *Terminal) ShowAnswers(title string, keys []domain.AnswerKey) {
	t.Printf("\nCorrect answers for %s:\n", title)
	for i, k := range keys {
		t.Printf("\nQuestion %d: %s\n", i+1, k.Question.Prompt())
		t.Printf("Answer: %s\n", strings.Join(k.Correct, ", "))
	}
}

func (t *Terminal) ShowAllResults(histories []domain.UserHistory) {
	t.Println("\nStudent Results")
	if len(histories) == 0 {
		t.Println("No results found!")
		return
	}
	for _, h := range histories {
		t.Printf("\nStudent: %s\n", h.User)
		if len(h.Results) == 0 {
			t.Println("  No QCM completed.")
			continue
		}
		for _, r := range h.Results {
			t.Printf("  - Date: %s\n", r.Date.Format(domain.TimestampLayout))
			t.Printf("    QCM: %s - %s\n", r.Category, r.Title)
			t.Printf("    Score: %.1f%% (%d/%d)\n", r.Score, r.CorrectAnswers, r.TotalQuestions)
		}
	}
}

func (t *Terminal) showList(heading string, items []string) {
	t.Printf("\n%s\n", heading)
	for _, item := range items {
		t.Printf("- %s\n", item)
	}
}
