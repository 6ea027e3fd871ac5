package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"qcm-app/internal/domain"
	"qcm-app/internal/infra/jsondoc"
)

// CatalogSource keeps one row per quiz with its questions as JSONB, in the
// same shape as a qcms.json question list.
type CatalogSource struct {
	pool *pgxpool.Pool
}

func NewCatalogSource(pool *pgxpool.Pool) *CatalogSource {
	return &CatalogSource{pool: pool}
}

// LoadCatalog rebuilds the catalog in authoring order. A malformed row fails
// the whole load.
func (s *CatalogSource) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, title, data FROM quizzes ORDER BY position`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var catalog domain.Catalog
	for rows.Next() {
		var (
			category, title string
			raw             []byte
		)
		if err := rows.Scan(&category, &title, &raw); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan quiz: %w", err)
		}
		questions, err := jsondoc.DecodeQuestions(category, title, raw)
		if err != nil {
			return domain.Catalog{}, err
		}
		if err := catalog.Add(domain.Quiz{Category: category, Title: title, Questions: questions}); err != nil {
			return domain.Catalog{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

// AddQuiz inserts quiz after every existing one. An existing (category,
// title) row is left untouched and reported as domain.ErrQuizExists.
func (s *CatalogSource) AddQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := domain.ValidateQuiz(quiz); err != nil {
		return err
	}
	data, err := jsondoc.EncodeQuestions(quiz.Questions)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (category, title, position, data)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1, $3::jsonb FROM quizzes
		ON CONFLICT (category, title) DO NOTHING`,
		quiz.Category, quiz.Title, string(data))
	if err != nil {
		return fmt.Errorf("%w: insert quiz: %w", domain.ErrPersist, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q in %q", domain.ErrQuizExists, quiz.Title, quiz.Category)
	}
	return nil
}

// Import adds every quiz of catalog, skipping ones already stored. It
// returns how many were added.
func (s *CatalogSource) Import(ctx context.Context, catalog domain.Catalog) (int, error) {
	added := 0
	for _, cat := range catalog.Categories {
		for _, quiz := range cat.Quizzes {
			err := s.AddQuiz(ctx, quiz)
			if errors.Is(err, domain.ErrQuizExists) {
				continue
			}
			if err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}
