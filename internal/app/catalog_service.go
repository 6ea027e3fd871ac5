package app

import (
	"context"
	"fmt"
	"strings"

	"qcm-app/internal/domain"
)

// CatalogSource is where quiz content lives (qcms.json, Postgres).
type CatalogSource interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
	AddQuiz(ctx context.Context, quiz domain.Quiz) error
}

// CatalogStore is a CatalogRepository that also accepts new quizzes.
type CatalogStore interface {
	CatalogRepository
	AddQuiz(ctx context.Context, quiz domain.Quiz) error
}

// QuestionDraft is a question as typed by an instructor.
type QuestionDraft struct {
	Text    string
	Options []string
	Correct []int
}

// CatalogService covers browsing, answer reveal and authoring.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) Titles(ctx context.Context, category string) ([]string, error) {
	return s.store.ListTitles(ctx, category)
}

// RevealAnswers lists each question of a quiz with its correct option text.
func (s *CatalogService) RevealAnswers(ctx context.Context, category, title string) ([]domain.AnswerKey, error) {
	quiz, err := s.store.GetQuiz(ctx, category, title)
	if err != nil {
		return nil, err
	}
	keys := make([]domain.AnswerKey, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		keys = append(keys, domain.AnswerKey{Question: q, Correct: domain.CorrectOptions(q)})
	}
	return keys, nil
}

// AddQuiz validates the drafts and appends the quiz to the catalog.
func (s *CatalogService) AddQuiz(ctx context.Context, category, title string, drafts []QuestionDraft) error {
	quiz := domain.Quiz{
		Category:  strings.TrimSpace(category),
		Title:     strings.TrimSpace(title),
		Questions: make([]domain.Question, 0, len(drafts)),
	}
	for i, d := range drafts {
		q, err := domain.NewQuestion(d.Text, d.Options, d.Correct)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return err
	}
	return s.store.AddQuiz(ctx, quiz)
}
