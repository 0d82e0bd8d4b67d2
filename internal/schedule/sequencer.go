// Package schedule waits for the registration instant and fires the
// checkbox/submit click train.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coursesniper/internal/extract"
	"coursesniper/internal/locate"
	"coursesniper/internal/page"
	"coursesniper/internal/poll"
	"coursesniper/internal/selectors"
)

// DefaultPollInterval is the wall-clock polling grain of the wait.
const DefaultPollInterval = 10 * time.Millisecond

// Submission steps reported by SubmissionError.
const (
	StepWait       = "wait"
	StepReload     = "reload"
	StepCheckboxes = "checkboxes"
	StepSelect     = "select"
	StepSubmit     = "submit"
)

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the local clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SubmissionError reports the step a submission stopped at. Clicks that
// already happened are not undone.
type SubmissionError struct {
	Step string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed at %s: %v", e.Step, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Outcome describes a completed submission.
type Outcome struct {
	FireAt    time.Time
	FiredAt   time.Time
	Clicked   []int
	Submitted bool
	Elapsed   time.Duration
}

// Sequencer runs the timed submission.
type Sequencer struct {
	Locator       *locate.Locator
	Selectors     selectors.Set
	Clock         Clock
	PollInterval  time.Duration
	SubmitControl string
	// DryRun stops before the submit click.
	DryRun bool
	Logger *slog.Logger
	// OnWait, when set, is called once the fire instant is known; the
	// returned func is called when the wait ends.
	OnWait func(fire time.Time) func()
}

func (s *Sequencer) clock() Clock {
	if s.Clock == nil {
		return SystemClock{}
	}
	return s.Clock
}

func (s *Sequencer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// WaitUntil busy-waits until clock reaches fire or ctx is done. It blocks
// the calling goroutine.
func WaitUntil(ctx context.Context, clock Clock, fire time.Time, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	_, err := poll.Until(ctx, poll.Options{Interval: interval}, func(context.Context) bool {
		return !clock.Now().Before(fire)
	})
	return err
}

// ScheduleAndSubmit waits for target, reloads p, re-selects the given
// courses by checkbox position and clicks the submit control.
//
// Element handles do not survive the reload, so the courses are matched
// to fresh checkboxes only through CheckboxIndex.
func (s *Sequencer) ScheduleAndSubmit(ctx context.Context, p page.Page, selected []extract.Course, target RegistrationTime) (*Outcome, error) {
	if err := target.Validate(); err != nil {
		return nil, &SubmissionError{Step: StepWait, Err: err}
	}
	if len(selected) == 0 {
		return nil, &SubmissionError{Step: StepSelect, Err: fmt.Errorf("no courses selected")}
	}
	submitSelector, err := s.Selectors.Submit(s.SubmitControl)
	if err != nil {
		return nil, &SubmissionError{Step: StepSubmit, Err: err}
	}

	log := s.logger()
	clock := s.clock()
	fire := target.FireInstant(clock.Now())
	out := &Outcome{FireAt: fire}

	log.Info("waiting for registration time", "target", target.String(), "fire_at", fire.Format("2006-01-02 15:04:05"), "in", fire.Sub(clock.Now()).Round(time.Second))
	var done func()
	if s.OnWait != nil {
		done = s.OnWait(fire)
	}
	err = WaitUntil(ctx, clock, fire, s.PollInterval)
	if done != nil {
		done()
	}
	if err != nil {
		return nil, &SubmissionError{Step: StepWait, Err: err}
	}
	out.FiredAt = clock.Now()
	log.Info("registration time reached", "late_by", out.FiredAt.Sub(fire))

	if err := p.Reload(ctx); err != nil {
		return out, &SubmissionError{Step: StepReload, Err: err}
	}

	checkboxes, err := s.Locator.LocateAll(ctx, p, s.Selectors.Checkboxes)
	if err != nil {
		return out, &SubmissionError{Step: StepCheckboxes, Err: err}
	}

	want := make(map[int]bool, len(selected))
	for _, c := range selected {
		if c.CheckboxIndex < 0 || c.CheckboxIndex >= len(checkboxes) {
			return out, &SubmissionError{
				Step: StepSelect,
				Err:  fmt.Errorf("checkbox %d (%s) not present after reload, page has %d", c.CheckboxIndex, c.Description, len(checkboxes)),
			}
		}
		want[c.CheckboxIndex] = true
	}

	for i, box := range checkboxes {
		if !want[i] {
			continue
		}
		if err := box.Click(ctx); err != nil {
			return out, &SubmissionError{Step: StepSelect, Err: fmt.Errorf("click checkbox %d: %w", i, err)}
		}
		out.Clicked = append(out.Clicked, i)
		log.Debug("checked course", "index", i)
	}

	control, err := s.Locator.Locate(ctx, p, submitSelector)
	if err != nil {
		return out, &SubmissionError{Step: StepSubmit, Err: err}
	}
	if s.DryRun {
		log.Info("dry run: not clicking submit", "control", submitSelector)
		out.Elapsed = clock.Now().Sub(out.FiredAt)
		return out, nil
	}
	if err := control.Click(ctx); err != nil {
		return out, &SubmissionError{Step: StepSubmit, Err: err}
	}
	out.Submitted = true
	out.Elapsed = clock.Now().Sub(out.FiredAt)
	log.Info("submitted selection", "courses", len(out.Clicked), "elapsed", out.Elapsed)
	return out, nil
}
