package domain

import "errors"

var (
	// ErrCategoryNotFound is returned when a category is not in the catalog.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrQuizNotFound indicates the (category, title) pair does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizExists is returned when authoring a title that already exists in its category.
	ErrQuizExists = errors.New("quiz already exists in category")
	// ErrInvalidQuestion marks a question that breaks the catalog invariants.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrInvalidInput is returned for non-numeric or malformed answers.
	ErrInvalidInput = errors.New("please enter a number")
	// ErrOutOfRange is returned for an option index outside [1, len(options)].
	ErrOutOfRange = errors.New("choice out of range")
	// ErrDuplicateChoice is returned when the same index is picked twice for one question.
	ErrDuplicateChoice = errors.New("choice already selected")

	// ErrPersist wraps a failed write to the backing store.
	ErrPersist = errors.New("persist failed")
	// ErrCorruptStore indicates a store document exists but could not be parsed.
	ErrCorruptStore = errors.New("store document is corrupt")

	// ErrDuplicateUser is returned when registering a taken username.
	ErrDuplicateUser = errors.New("username already exists")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUsername is returned for an empty username.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrAttemptInProgress is returned when a user already has a running attempt.
	ErrAttemptInProgress = errors.New("attempt already in progress for user")
)
