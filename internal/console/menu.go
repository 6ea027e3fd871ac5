package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"qcm-app/internal/app"
	"qcm-app/internal/domain"
)

// Services are the use cases the menus drive.
type Services struct {
	Accounts *app.Accounts
	Catalog  *app.CatalogService
	Runner   *app.Runner
	Reports  *app.Reports
}

// Menu is the interactive session: a main menu leading to the student and
// instructor spaces. The logged-in student lives only for the session.
type Menu struct {
	term *Terminal
	svc  Services
	log  *zap.Logger
	user string
}

func NewMenu(term *Terminal, svc Services, log *zap.Logger) *Menu {
	if log == nil {
		log = zap.NewNop()
	}
	return &Menu{term: term, svc: svc, log: log}
}

// Run loops until the user exits, input ends or ctx is cancelled. Failed
// actions are reported and the menu is shown again.
func (m *Menu) Run(ctx context.Context) error {
	m.term.Bind(ctx)
	for {
		m.term.Println("\nQCM Application")
		m.term.Println("1. Student space")
		m.term.Println("2. Instructor space")
		m.term.Println("3. Exit")
		choice, err := m.term.ReadLine("\nEnter your choice (1-3)")
		if err != nil {
			return m.finish(ctx, err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = m.student(ctx)
		case "2":
			err = m.instructor(ctx)
		case "3":
			m.term.Println("\nThank you for using the QCM Application! Goodbye!")
			return nil
		default:
			m.term.Println("Invalid choice! Please try again.")
		}
		if err != nil {
			return m.finish(ctx, err)
		}
	}
}

// finish treats end of input and cancellation (Ctrl-C, SIGTERM) as a
// normal exit.
func (m *Menu) finish(ctx context.Context, err error) error {
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		m.term.Println()
		return nil
	}
	return err
}

// fatal reports whether err should end the session rather than the action.
func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, io.EOF) || ctx.Err() != nil
}

func (m *Menu) student(ctx context.Context) error {
	for {
		m.term.Println("\nStudent space")
		m.term.Println("1. Register")
		m.term.Println("2. Login")
		m.term.Println("3. Take QCM")
		m.term.Println("4. View History")
		m.term.Println("5. Show Correct Answers")
		m.term.Println("6. View Leaderboard")
		m.term.Println("7. Back to main menu")
		choice, err := m.term.ReadLine("\nEnter your choice (1-7)")
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = m.register(ctx)
		case "2":
			err = m.login(ctx)
		case "3":
			err = m.loggedIn(func() error { return m.takeQuiz(ctx) })
		case "4":
			err = m.loggedIn(func() error { return m.history(ctx) })
		case "5":
			err = m.loggedIn(func() error { return m.answers(ctx) })
		case "6":
			err = m.leaderboard(ctx)
		case "7":
			return nil
		default:
			m.term.Println("Invalid choice! Please try again.")
		}
		if err != nil {
			if fatal(ctx, err) {
				return err
			}
			m.report(err)
		}
	}
}

func (m *Menu) instructor(ctx context.Context) error {
	for {
		m.term.Println("\nInstructor space")
		m.term.Println("1. View student results")
		m.term.Println("2. Add a QCM")
		m.term.Println("3. Back to main menu")
		choice, err := m.term.ReadLine("\nEnter your choice (1-3)")
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = m.allResults(ctx)
		case "2":
			err = m.addQuiz(ctx)
		case "3":
			return nil
		default:
			m.term.Println("Invalid choice! Please try again.")
		}
		if err != nil {
			if fatal(ctx, err) {
				return err
			}
			m.report(err)
		}
	}
}

func (m *Menu) loggedIn(action func() error) error {
	if m.user == "" {
		m.term.Println("Please login first!")
		return nil
	}
	return action()
}

func (m *Menu) report(err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		m.term.Println("Username already exists!")
	case errors.Is(err, domain.ErrInvalidCredentials):
		m.term.Println("Invalid username or password!")
	case errors.Is(err, domain.ErrInvalidUsername):
		m.term.Println("Username cannot be empty!")
	case errors.Is(err, domain.ErrCategoryNotFound):
		m.term.Println("Category not found!")
	case errors.Is(err, domain.ErrQuizNotFound):
		m.term.Println("QCM not found!")
	case errors.Is(err, domain.ErrQuizExists):
		m.term.Println("A QCM with this title already exists in this category!")
	case errors.Is(err, domain.ErrAttemptInProgress):
		m.term.Println("You already have a QCM in progress!")
	case errors.Is(err, domain.ErrPersist):
		m.term.Printf("Warning: your data could not be saved: %v\n", err)
	default:
		m.term.Printf("Error: %v\n", err)
	}
	m.log.Warn("action failed", zap.String("user", m.user), zap.Error(err))
}

func (m *Menu) credentials() (string, string, error) {
	username, err := m.term.ReadLine("\nEnter username")
	if err != nil {
		return "", "", err
	}
	password, err := m.term.ReadPassword("Enter password")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (m *Menu) register(ctx context.Context) error {
	username, password, err := m.credentials()
	if err != nil {
		return err
	}
	if err := m.svc.Accounts.Register(ctx, username, password); err != nil {
		return err
	}
	m.term.Println("Registration successful!")
	return nil
}

func (m *Menu) login(ctx context.Context) error {
	username, password, err := m.credentials()
	if err != nil {
		return err
	}
	user, err := m.svc.Accounts.Login(ctx, username, password)
	if err != nil {
		return err
	}
	m.user = user
	m.term.Printf("Login successful! Welcome, %s\n", user)
	return nil
}

// chooseQuiz lists categories then titles. ok is false when the user picked
// something that does not exist; the reason has already been shown.
func (m *Menu) chooseQuiz(ctx context.Context) (category, title string, ok bool, err error) {
	categories, err := m.svc.Catalog.Categories(ctx)
	if err != nil {
		return "", "", false, err
	}
	if len(categories) == 0 {
		m.term.Println("No QCMs available yet.")
		return "", "", false, nil
	}
	m.term.showList("Available Categories:", categories)
	category, err = m.term.ReadLine("\nEnter category")
	if err != nil {
		return "", "", false, err
	}
	titles, err := m.svc.Catalog.Titles(ctx, category)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		m.term.Println("Category not found!")
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	m.term.showList(fmt.Sprintf("Available QCMs in %s:", category), titles)
	title, err = m.term.ReadLine("\nEnter QCM title")
	if err != nil {
		return "", "", false, err
	}
	return category, title, true, nil
}

func (m *Menu) takeQuiz(ctx context.Context) error {
	category, title, ok, err := m.chooseQuiz(ctx)
	if err != nil || !ok {
		return err
	}

	_, result, err := m.svc.Runner.Take(ctx, m.user, category, title)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return err
	}
	// the result is still valid when only saving failed
	m.term.ShowResult(result)
	if err != nil {
		return err
	}
	return m.leaderboard(ctx)
}

func (m *Menu) history(ctx context.Context) error {
	results, ok, err := m.svc.Reports.History(ctx, m.user)
	if err != nil {
		return err
	}
	if !ok {
		m.term.Println("No history found!")
		return nil
	}
	m.term.ShowHistory(results)
	return nil
}

func (m *Menu) answers(ctx context.Context) error {
	category, title, ok, err := m.chooseQuiz(ctx)
	if err != nil || !ok {
		return err
	}
	keys, err := m.svc.Catalog.RevealAnswers(ctx, category, title)
	if err != nil {
		return err
	}
	m.term.ShowAnswers(title, keys)
	return nil
}

func (m *Menu) leaderboard(ctx context.Context) error {
	standings, err := m.svc.Reports.Leaderboard(ctx)
	if err != nil {
		return err
	}
	m.term.ShowLeaderboard(standings)
	return nil
}

func (m *Menu) allResults(ctx context.Context) error {
	histories, err := m.svc.Reports.AllResults(ctx)
	if err != nil {
		return err
	}
	m.term.ShowAllResults(histories)
	return nil
}

func (m *Menu) addQuiz(ctx context.Context) error {
	m.term.Println("\nAdd a QCM")
	category, err := m.pickCategory(ctx)
	if err != nil || category == "" {
		return err
	}
	title, err := m.term.ReadLine("Enter the title of the new QCM")
	if err != nil {
		return err
	}

	var drafts []app.QuestionDraft
	for {
		draft, err := m.readDraft()
		if err != nil {
			return err
		}
		drafts = append(drafts, draft)

		another, err := m.term.ReadLine("\nAdd another question? (y/n)")
		if err != nil {
			return err
		}
		if a := strings.ToLower(strings.TrimSpace(another)); a != "y" && a != "o" {
			break
		}
	}

	if err := m.svc.Catalog.AddQuiz(ctx, category, title, drafts); err != nil {
		return err
	}
	m.term.Printf("QCM %q added to %q.\n", strings.TrimSpace(title), strings.TrimSpace(category))
	return nil
}

// pickCategory returns "" when the chosen existing category is unknown.
func (m *Menu) pickCategory(ctx context.Context) (string, error) {
	m.term.Println("1. Add to an existing category")
	m.term.Println("2. Create a new category")
	for {
		choice, err := m.term.ReadLine("\nYour choice (1 or 2)")
		if err != nil {
			return "", err
		}
		switch strings.TrimSpace(choice) {
		case "1":
			categories, err := m.svc.Catalog.Categories(ctx)
			if err != nil {
				return "", err
			}
			m.term.showList("Existing categories:", categories)
			name, err := m.term.ReadLine("\nEnter the name of the existing category")
			if err != nil {
				return "", err
			}
			for _, c := range categories {
				if c == strings.TrimSpace(name) {
					return c, nil
				}
			}
			m.term.Println("Category not found!")
			return "", nil
		case "2":
			return m.term.ReadLine("\nEnter the name of the new category")
		default:
			m.term.Println("Invalid choice! Please try again.")
		}
	}
}

func (m *Menu) readDraft() (app.QuestionDraft, error) {
	var draft app.QuestionDraft
	text, err := m.term.ReadLine("\nEnter the question")
	if err != nil {
		return draft, err
	}
	draft.Text = strings.TrimSpace(text)

	m.term.Println("Add the options (enter an empty option to stop):")
	for {
		option, err := m.term.ReadLine("Option")
		if err != nil {
			return draft, err
		}
		option = strings.TrimSpace(option)
		if option == "" {
			if len(draft.Options) >= 2 {
				break
			}
			m.term.Println("A question needs at least 2 options.")
			continue
		}
		draft.Options = append(draft.Options, option)
	}

	for i, option := range draft.Options {
		m.term.Printf("%d. %s\n", i+1, option)
	}
	for {
		line, err := m.term.ReadLine("Correct answer numbers (separated by spaces)")
		if err != nil {
			return draft, err
		}
		correct, err := parseIndices(line, len(draft.Options))
		if err != nil {
			m.term.Printf("Invalid answer: %v\n", err)
			continue
		}
		draft.Correct = correct
		return draft, nil
	}
}

func parseIndices(line string, optionCount int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, domain.ErrInvalidInput
	}
	seen := make(map[int]struct{}, len(fields))
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		if n < 1 || n > optionCount {
			return nil, fmt.Errorf("%w: enter numbers between 1 and %d", domain.ErrOutOfRange, optionCount)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateChoice, n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
