package file

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"qcm-app/internal/domain"
	"qcm-app/internal/infra/jsondoc"
)

// DefaultCatalogFile is the catalog document name.
const DefaultCatalogFile = "qcms.json"

// CatalogSource reads and appends to qcms.json. The catalog is never
// replaced by an empty one: broken JSON is an error, and a malformed quiz is
// skipped on load but kept in the file.
type CatalogSource struct {
	files *Files
	name  string
	mu    sync.Mutex
}

func NewCatalogSource(files *Files, name string) *CatalogSource {
	if name == "" {
		name = DefaultCatalogFile
	}
	return &CatalogSource{files: files.Strict(), name: name}
}

// LoadCatalog returns an empty catalog when the file does not exist. Quizzes
// that fail validation are logged and left out.
func (c *CatalogSource) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var catalog domain.Catalog
	_, err := c.files.Load(c.name, func(b []byte) error {
		decoded, err := jsondoc.DecodeCatalogSkipping(b, func(category, title string, err error) {
			c.files.log.Warn("skipping malformed quiz",
				zap.String("file", c.files.Path(c.name)),
				zap.String("category", category),
				zap.String("title", title),
				zap.Error(err),
			)
		})
		if err != nil {
			return err
		}
		catalog = decoded
		return nil
	})
	return catalog, err
}

// AddQuiz appends the quiz to the stored document and rewrites it. Entries
// already in the file, skipped ones included, are written back unchanged.
func (c *CatalogSource) AddQuiz(_ context.Context, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var current []byte
	if _, err := c.files.Load(c.name, func(b []byte) error {
		current = b
		return nil
	}); err != nil {
		return err
	}
	data, err := jsondoc.AppendQuiz(current, quiz)
	if err != nil {
		if errors.Is(err, domain.ErrQuizExists) || errors.Is(err, domain.ErrInvalidQuestion) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", domain.ErrCorruptStore, c.files.Path(c.name), err)
	}
	return c.files.Save(c.name, data)
}
