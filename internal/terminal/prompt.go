// Package terminal is the operator-facing side of a run: prompts, tables
// and the countdown spinner.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	input "github.com/tcnksm/go-input"

	"coursesniper/internal/extract"
	"coursesniper/internal/schedule"
)

// ErrCancelled is returned when the operator interrupts a prompt.
var ErrCancelled = errors.New("terminal: cancelled by operator")

// Prompter asks the operator for input on a terminal.
type Prompter struct {
	ui *input.UI
}

// NewPrompter reads from in and writes prompts to out. Masked input only
// works when in is a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{ui: &input.UI{Reader: in, Writer: out}}
}

// DefaultPrompter uses stdin and stdout.
func DefaultPrompter() *Prompter {
	return &Prompter{ui: input.DefaultUI()}
}

func cancelled(err error) error {
	if errors.Is(err, input.ErrInterrupted) {
		return ErrCancelled
	}
	return err
}

// Credentials asks for the portal username and a masked password.
func (p *Prompter) Credentials() (string, string, error) {
	username, err := p.ui.Ask("Username:", &input.Options{Required: true, Loop: true, HideOrder: true})
	if err != nil {
		return "", "", cancelled(err)
	}
	password, err := p.ui.Ask("Password:", &input.Options{Required: true, Loop: true, Mask: true, HideOrder: true})
	if err != nil {
		return "", "", cancelled(err)
	}
	return username, password, nil
}

// PickCart asks which term cart to open and returns its position.
func (p *Prompter) PickCart(carts []extract.ShoppingCart) (int, error) {
	if len(carts) == 0 {
		return 0, errors.New("terminal: no carts to choose from")
	}
	labels := make([]string, len(carts))
	for i, c := range carts {
		// Select answers with the label, so duplicates need telling apart.
		labels[i] = fmt.Sprintf("%s [%d]", c.Label, i+1)
	}
	answer, err := p.ui.Select("Which semester's shopping cart?", labels, &input.Options{Required: true, Loop: true})
	if err != nil {
		return 0, cancelled(err)
	}
	for i, l := range labels {
		if l == answer {
			return i, nil
		}
	}
	return 0, fmt.Errorf("terminal: unknown cart %q", answer)
}

// PickCourses asks for one or more course numbers as listed in the course
// table and returns their zero-based positions.
func (p *Prompter) PickCourses(courses []extract.Course) ([]int, error) {
	if len(courses) == 0 {
		return nil, errors.New("terminal: no courses to choose from")
	}
	answer, err := p.ui.Ask("Courses to register (e.g. 1,3):", &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			_, err := ParseSelection(s, len(courses))
			return err
		},
	})
	if err != nil {
		return nil, cancelled(err)
	}
	return ParseSelection(answer, len(courses))
}

// PickTime returns preset when it is set, otherwise asks for a
// registration time.
func (p *Prompter) PickTime(preset *schedule.RegistrationTime) (schedule.RegistrationTime, error) {
	if preset != nil {
		return *preset, preset.Validate()
	}
	answer, err := p.ui.Ask("Registration time (e.g. 9:30 AM):", &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			_, err := schedule.ParseRegistrationTime(s)
			return err
		},
	})
	if err != nil {
		return schedule.RegistrationTime{}, cancelled(err)
	}
	return schedule.ParseRegistrationTime(answer)
}

// ParseSelection parses a list of 1-based numbers separated by commas or
// spaces into distinct 0-based positions below n, in the order given.
func ParseSelection(s string, n int) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, errors.New("select at least one course")
	}
	seen := make(map[int]bool, len(fields))
	picked := make([]int, 0, len(fields))
	for _, f := range fields {
		num, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not a course number", f)
		}
		if num < 1 || num > n {
			return nil, fmt.Errorf("course %d out of range 1-%d", num, n)
		}
		if seen[num] {
			continue
		}
		seen[num] = true
		picked = append(picked, num-1)
	}
	return picked, nil
}
