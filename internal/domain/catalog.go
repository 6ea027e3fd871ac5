package domain

import "fmt"

// Quiz is an ordered question list identified by (Category, Title).
type Quiz struct {
	Category  string
	Title     string
	Questions []Question
}

// Category groups quizzes under one name, in authoring order.
type Category struct {
	Name    string
	Quizzes []Quiz
}

// Catalog is the full set of authored quizzes. Category and title order
// follow the order in which they were authored.
type Catalog struct {
	Categories []Category
}

func (c Catalog) category(name string) (int, bool) {
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Quiz resolves a (category, title) key.
func (c Catalog) Quiz(category, title string) (Quiz, error) {
	ci, ok := c.category(category)
	if !ok {
		return Quiz{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}
	for _, q := range c.Categories[ci].Quizzes {
		if q.Title == title {
			return q, nil
		}
	}
	return Quiz{}, fmt.Errorf("%w: %q in %q", ErrQuizNotFound, title, category)
}

// CategoryNames lists categories in catalog order.
func (c Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Titles lists the quiz titles of a category in catalog order.
func (c Catalog) Titles(category string) ([]string, error) {
	ci, ok := c.category(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}
	titles := make([]string, 0, len(c.Categories[ci].Quizzes))
	for _, q := range c.Categories[ci].Quizzes {
		titles = append(titles, q.Title)
	}
	return titles, nil
}

// Add appends a validated quiz, creating its category when missing.
func (c *Catalog) Add(quiz Quiz) error {
	if err := ValidateQuiz(quiz); err != nil {
		return err
	}
	ci, ok := c.category(quiz.Category)
	if !ok {
		c.Categories = append(c.Categories, Category{Name: quiz.Category})
		ci = len(c.Categories) - 1
	}
	for _, existing := range c.Categories[ci].Quizzes {
		if existing.Title == quiz.Title {
			return fmt.Errorf("%w: %q in %q", ErrQuizExists, quiz.Title, quiz.Category)
		}
	}
	c.Categories[ci].Quizzes = append(c.Categories[ci].Quizzes, quiz)
	return nil
}

// ValidateQuiz rejects empty keys, empty quizzes and malformed questions.
func ValidateQuiz(quiz Quiz) error {
	if quiz.Category == "" || quiz.Title == "" {
		return fmt.Errorf("%w: quiz needs a category and a title", ErrInvalidQuestion)
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q/%q has no questions", ErrInvalidQuestion, quiz.Category, quiz.Title)
	}
	for i, q := range quiz.Questions {
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("%s/%s question %d: %w", quiz.Category, quiz.Title, i+1, err)
		}
	}
	return nil
}
