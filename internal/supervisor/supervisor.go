// Package supervisor drives one registration attempt from login to the
// captured results.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"coursesniper/internal/extract"
	"coursesniper/internal/locate"
	"coursesniper/internal/page"
	"coursesniper/internal/schedule"
	"coursesniper/internal/selectors"
)

// State is a stage of the run.
type State int

const (
	Init State = iota
	LoggedIn
	CartSelected
	CoursesListed
	CoursesSelected
	Scheduled
	Submitted
	ResultsCaptured
	Failed
)

var stateNames = [...]string{
	Init:            "Init",
	LoggedIn:        "LoggedIn",
	CartSelected:    "CartSelected",
	CoursesListed:   "CoursesListed",
	CoursesSelected: "CoursesSelected",
	Scheduled:       "Scheduled",
	Submitted:       "Submitted",
	ResultsCaptured: "ResultsCaptured",
	Failed:          "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// captureTimeout bounds the diagnostic capture after a failure.
const captureTimeout = 10 * time.Second

// DefaultResultsWait is how long the results listing may take to render.
const DefaultResultsWait = 10 * time.Second

// Credentials are the portal login.
type Credentials struct {
	Username string
	Password string
}

// Operator makes the run's choices.
type Operator interface {
	PickCart(carts []extract.ShoppingCart) (int, error)
	PickCourses(courses []extract.Course) ([]int, error)
	PickTime(preset *schedule.RegistrationTime) (schedule.RegistrationTime, error)
}

// Reporter shows listings as the run reads them.
type Reporter interface {
	Carts(carts []extract.ShoppingCart)
	Courses(courses []extract.Course)
	Results(results []extract.RegistrationResult)
}

// StageError is the Failed state: the last stage reached and what stopped
// the run there.
type StageError struct {
	Stage State
	Err   error
	// Captures lists the diagnostic files written.
	Captures []string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("run failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Report is what a run produced, complete or not.
type Report struct {
	Trail    []State
	Cart     string
	Courses  []extract.Course
	Selected []extract.Course
	Target   schedule.RegistrationTime
	Outcome  *schedule.Outcome
	Results  []extract.RegistrationResult
}

// State is the last state reached.
func (r *Report) State() State {
	if len(r.Trail) == 0 {
		return Init
	}
	return r.Trail[len(r.Trail)-1]
}

// Supervisor wires the components for one run.
type Supervisor struct {
	Page      page.Page
	Selectors selectors.Set
	Locator   *locate.Locator
	Extractor *extract.Extractor
	Sequencer *schedule.Sequencer
	Operator  Operator
	Reporter  Reporter

	// PresetTime skips the registration time prompt.
	PresetTime *schedule.RegistrationTime
	// ResultsWait bounds the wait for the results listing.
	ResultsWait time.Duration
	// DebugDir receives failure captures. Empty disables them.
	DebugDir string
	// Now names capture files. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

type run struct {
	*Supervisor
	log    *slog.Logger
	report *Report
}

func (r *run) enter(s State) {
	r.report.Trail = append(r.report.Trail, s)
	r.log.Info("stage reached", "stage", s.String())
}

// Run logs in with creds and carries the run through to the results. On
// failure the page is captured to DebugDir and a *StageError is returned
// along with the partial report. A dry run stops at Submitted without
// error.
func (s *Supervisor) Run(ctx context.Context, creds Credentials) (*Report, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	r := &run{Supervisor: s, log: log, report: &Report{}}
	r.enter(Init)

	if err := r.drive(ctx, creds); err != nil {
		stage := r.report.State()
		r.report.Trail = append(r.report.Trail, Failed)
		log.Error("run failed", "stage", stage.String(), "error", err)
		return r.report, &StageError{Stage: stage, Err: err, Captures: r.capture(ctx)}
	}
	return r.report, nil
}

func (r *run) drive(ctx context.Context, creds Credentials) error {
	if err := r.login(ctx, creds); err != nil {
		return err
	}
	r.enter(LoggedIn)

	if err := r.selectCart(ctx); err != nil {
		return err
	}
	r.enter(CartSelected)

	courses, err := r.Extractor.Courses(ctx, r.Page)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	r.report.Courses = courses
	r.Reporter.Courses(courses)
	r.enter(CoursesListed)

	positions, err := r.Operator.PickCourses(courses)
	if err != nil {
		return fmt.Errorf("pick courses: %w", err)
	}
	selected, err := extract.Pick(courses, positions)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("pick courses: no course selected")
	}
	r.report.Selected = selected
	r.enter(CoursesSelected)

	target, err := r.Operator.PickTime(r.PresetTime)
	if err != nil {
		return fmt.Errorf("pick time: %w", err)
	}
	r.report.Target = target
	r.enter(Scheduled)

	out, err := r.Sequencer.ScheduleAndSubmit(ctx, r.Page, selected, target)
	r.report.Outcome = out
	if err != nil {
		return err
	}
	r.enter(Submitted)

	if !out.Submitted {
		r.log.Info("dry run finished before submit", "clicked", len(out.Clicked))
		return nil
	}

	results, err := r.results(ctx)
	if err != nil {
		return fmt.Errorf("capture results: %w", err)
	}
	r.report.Results = results
	r.Reporter.Results(results)
	r.enter(ResultsCaptured)
	return nil
}

func (r *run) login(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.New("login: username and password are required")
	}
	if err := r.Page.Navigate(ctx, r.Selectors.PageURL); err != nil {
		return fmt.Errorf("login: open portal: %w", err)
	}

	user, err := r.Locator.Locate(ctx, r.Page, r.Selectors.UsernameInput)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := user.Input(ctx, creds.Username); err != nil {
		return fmt.Errorf("login: type username: %w", err)
	}

	pass, err := r.Locator.Locate(ctx, r.Page, r.Selectors.PasswordInput)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := pass.Input(ctx, creds.Password); err != nil {
		return fmt.Errorf("login: type password: %w", err)
	}
	if err := pass.Submit(ctx); err != nil {
		return fmt.Errorf("login: submit: %w", err)
	}
	return nil
}

func (r *run) selectCart(ctx context.Context) error {
	carts, err := r.Extractor.Carts(ctx, r.Page)
	if err != nil {
		return fmt.Errorf("list carts: %w", err)
	}
	r.Reporter.Carts(carts)

	i, err := r.Operator.PickCart(carts)
	if err != nil {
		return fmt.Errorf("pick cart: %w", err)
	}
	if i < 0 || i >= len(carts) {
		return fmt.Errorf("pick cart: %d out of range (have %d)", i, len(carts))
	}
	if err := carts[i].Element.Click(ctx); err != nil {
		return fmt.Errorf("open cart %q: %w", carts[i].Label, err)
	}
	r.report.Cart = carts[i].Label
	return nil
}

// results reads the listing the portal shows after submission, allowing
// it ResultsWait to render.
func (r *run) results(ctx context.Context) ([]extract.RegistrationResult, error) {
	wait := r.ResultsWait
	if wait <= 0 {
		wait = DefaultResultsWait
	}
	x := *r.Extractor
	x.Locator = locate.New(wait, r.Locator.Interval, r.log)
	return x.Results(ctx, r.Page)
}

// capture writes the page's screenshot and HTML to DebugDir. It is best
// effort and runs even when ctx is already cancelled.
func (r *run) capture(ctx context.Context) []string {
	if r.DebugDir == "" || r.Page == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	base := filepath.Join(r.DebugDir, "debug-"+now().Format("15:04:05.000"))

	if err := os.MkdirAll(r.DebugDir, 0o755); err != nil {
		r.log.Warn("cannot create debug dir", "dir", r.DebugDir, "error", err)
		return nil
	}

	var written []string
	write := func(path string, data []byte) {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			r.log.Warn("failed to write capture", "path", path, "error", err)
			return
		}
		written = append(written, path)
		r.log.Info("saved failure capture", "path", path)
	}

	if shot, err := r.Page.Screenshot(ctx); err == nil {
		write(base+".png", shot)
	} else if !errors.Is(err, page.ErrUnsupported) {
		r.log.Warn("screenshot failed", "error", err)
	}

	if html, err := r.Page.HTML(ctx); err == nil {
		write(base+".html", []byte(html))
	} else {
		r.log.Warn("page html capture failed", "error", err)
	}
	return written
}
