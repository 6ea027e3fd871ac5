package app

import "qcm-app/internal/domain"

// Grade reports whether response answers q. Multiple-choice questions need
// the exact correct set; there is no partial credit.
func Grade(q domain.Question, response domain.Indices) bool {
	switch q := q.(type) {
	case domain.SingleChoice:
		return len(response) == 1 && response[0] == q.Answer
	case domain.MultipleChoice:
		return response.Sorted().Equal(q.Answers.Sorted())
	default:
		return false
	}
}
