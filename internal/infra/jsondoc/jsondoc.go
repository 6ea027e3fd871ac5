// Package jsondoc holds the on-disk JSON shapes (qcms.json, users.json,
// history.json, scores.json) and converts them to domain types. Object key
// order is kept on read and write because categories, titles and the
// leaderboard tie order all depend on it.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"qcm-app/internal/domain"
)

// Question is one entry of a quiz list in qcms.json.
type Question struct {
	Question string         `json:"question"`
	Options  []string       `json:"options"`
	Correct  domain.Indices `json:"correct"`
	Type     domain.Kind    `json:"type,omitempty"`
}

type (
	Users   = orderedmap.OrderedMap[string, string]
	History = orderedmap.OrderedMap[string, []domain.Result]
	Scores  = orderedmap.OrderedMap[string, domain.UserStats]
)

func NewUsers() *Users     { return orderedmap.New[string, string]() }
func NewHistory() *History { return orderedmap.New[string, []domain.Result]() }
func NewScores() *Scores   { return orderedmap.New[string, domain.UserStats]() }

// Marshal writes v with four-space indentation and without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToDomain converts a stored question, checking the declared type against
// the number of correct indices.
func (q Question) ToDomain() (domain.Question, error) {
	built, err := domain.NewQuestion(q.Question, q.Options, q.Correct)
	if err != nil {
		return nil, err
	}
	if q.Type != "" && q.Type != built.Kind() {
		return nil, fmt.Errorf("%w: %q is typed %q but has %d correct answers",
			domain.ErrInvalidQuestion, q.Question, q.Type, len(q.Correct))
	}
	return built, nil
}

// FromDomain converts a question to its stored shape.
func FromDomain(q domain.Question) Question {
	return Question{
		Question: q.Prompt(),
		Options:  q.Choices(),
		Correct:  q.CorrectIndices(),
		Type:     q.Kind(),
	}
}

// DecodeQuestions parses one quiz's question list.
func DecodeQuestions(category, title string, data []byte) ([]domain.Question, error) {
	var stored []Question
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", category, title, err)
	}
	return toQuestions(category, title, stored)
}

// EncodeQuestions is the inverse of DecodeQuestions.
func EncodeQuestions(questions []domain.Question) ([]byte, error) {
	stored := make([]Question, 0, len(questions))
	for _, q := range questions {
		stored = append(stored, FromDomain(q))
	}
	return json.Marshal(stored)
}

func toQuestions(category, title string, stored []Question) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(stored))
	for i, sq := range stored {
		q, err := sq.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("%s/%s question %d: %w", category, title, i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// DecodeCatalog parses qcms.json (category -> title -> questions) and
// validates every quiz. Any malformed quiz fails the whole document.
func DecodeCatalog(data []byte) (domain.Catalog, error) {
	return decodeCatalog(data, nil)
}

// DecodeCatalogSkipping is DecodeCatalog but drops malformed quizzes,
// reporting each one to skip. Broken JSON still fails. A category whose
// quizzes were all dropped is left out.
func DecodeCatalogSkipping(data []byte, skip func(category, title string, err error)) (domain.Catalog, error) {
	if skip == nil {
		skip = func(string, string, error) {}
	}
	return decodeCatalog(data, skip)
}

func decodeCatalog(data []byte, skip func(category, title string, err error)) (domain.Catalog, error) {
	top := orderedmap.New[string, *orderedmap.OrderedMap[string, json.RawMessage]]()
	if err := json.Unmarshal(data, top); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	var catalog domain.Catalog
	for cat := top.Oldest(); cat != nil; cat = cat.Next() {
		category := domain.Category{Name: cat.Key}
		skipped := 0
		if cat.Value != nil {
			for t := cat.Value.Oldest(); t != nil; t = t.Next() {
				quiz, err := decodeQuiz(cat.Key, t.Key, t.Value)
				if err != nil {
					if skip == nil {
						return domain.Catalog{}, err
					}
					skip(cat.Key, t.Key, err)
					skipped++
					continue
				}
				category.Quizzes = append(category.Quizzes, quiz)
			}
		}
		if skipped > 0 && len(category.Quizzes) == 0 {
			continue
		}
		catalog.Categories = append(catalog.Categories, category)
	}
	return catalog, nil
}

func decodeQuiz(category, title string, raw json.RawMessage) (domain.Quiz, error) {
	questions, err := DecodeQuestions(category, title, raw)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{Category: category, Title: title, Questions: questions}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// AppendQuiz adds quiz to a qcms.json document and returns the new
// document. Existing entries are carried over as stored, malformed ones
// included. An empty data starts a new document.
func AppendQuiz(data []byte, quiz domain.Quiz) ([]byte, error) {
	if err := domain.ValidateQuiz(quiz); err != nil {
		return nil, err
	}
	top := orderedmap.New[string, *orderedmap.OrderedMap[string, json.RawMessage]]()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, top); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	}
	titles, ok := top.Get(quiz.Category)
	if !ok || titles == nil {
		titles = orderedmap.New[string, json.RawMessage]()
		top.Set(quiz.Category, titles)
	}
	if _, exists := titles.Get(quiz.Title); exists {
		return nil, fmt.Errorf("%w: %q in %q", domain.ErrQuizExists, quiz.Title, quiz.Category)
	}
	questions, err := EncodeQuestions(quiz.Questions)
	if err != nil {
		return nil, err
	}
	titles.Set(quiz.Title, questions)
	return Marshal(top)
}

// EncodeCatalog writes the catalog in qcms.json form.
func EncodeCatalog(catalog domain.Catalog) ([]byte, error) {
	top := orderedmap.New[string, *orderedmap.OrderedMap[string, []Question]]()
	for _, cat := range catalog.Categories {
		titles := orderedmap.New[string, []Question]()
		for _, quiz := range cat.Quizzes {
			stored := make([]Question, 0, len(quiz.Questions))
			for _, q := range quiz.Questions {
				stored = append(stored, FromDomain(q))
			}
			titles.Set(quiz.Title, stored)
		}
		top.Set(cat.Name, titles)
	}
	return Marshal(top)
}

// StatsList flattens scores.json into insertion order, filling in User.
func StatsList(scores *Scores) []domain.UserStats {
	out := make([]domain.UserStats, 0, scores.Len())
	for p := scores.Oldest(); p != nil; p = p.Next() {
		s := p.Value
		s.User = p.Key
		out = append(out, s)
	}
	return out
}

// HistoryList flattens history.json into insertion order.
func HistoryList(history *History) []domain.UserHistory {
	out := make([]domain.UserHistory, 0, history.Len())
	for p := history.Oldest(); p != nil; p = p.Next() {
		results := make([]domain.Result, len(p.Value))
		copy(results, p.Value)
		out = append(out, domain.UserHistory{User: p.Key, Results: results})
	}
	return out
}
