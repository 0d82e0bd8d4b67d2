package terminal

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"

	"coursesniper/internal/extract"
	"coursesniper/internal/schedule"
)

// Console renders listings for the operator.
type Console struct {
	Out io.Writer
	// Spin is the writer the countdown spinner draws on. Nil disables it.
	Spin io.Writer
	// Clock is the clock the fire time is measured on. Nil uses the system
	// clock.
	Clock schedule.Clock
}

func (c *Console) remaining(fire time.Time) time.Duration {
	if c.Clock == nil {
		return time.Until(fire)
	}
	return fire.Sub(c.Clock.Now())
}

func (c *Console) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(c.Out)
	return t
}

// Carts lists the available term carts.
func (c *Console) Carts(carts []extract.ShoppingCart) {
	t := c.newTable()
	t.AppendHeader(table.Row{"#", "Shopping cart"})
	for i, cart := range carts {
		t.AppendRow(table.Row{i + 1, cart.Label})
	}
	t.Render()
}

// Courses prints the cart's courses numbered from 1.
func (c *Console) Courses(courses []extract.Course) {
	t := c.newTable()
	t.AppendHeader(table.Row{"#", "Course", "Schedule", "Room", "Instructor", "Credits", "Seats", "Status"})
	for i, course := range courses {
		t.AppendRow(table.Row{i + 1, course.Description, course.Schedule, course.Room, course.Instructor, course.Credits, course.Seats, course.Status})
	}
	t.Render()
}

// Results prints the registration results.
func (c *Console) Results(results []extract.RegistrationResult) {
	t := c.newTable()
	t.AppendHeader(table.Row{"Course", "Schedule", "Room", "Instructor", "Credits", "Status", "Message"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Description, r.Schedule, r.Room, r.Instructor, r.Credits, r.Status, r.Message})
	}
	t.Render()
}

// Waiting shows a countdown to fire until the returned func is called.
func (c *Console) Waiting(fire time.Time) func() {
	if c.Spin == nil {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.Spin))
	s.PreUpdate = func(s *spinner.Spinner) {
		s.Suffix = " " + Countdown(c.remaining(fire)) + " until " + fire.Format("3:04 PM")
	}
	s.Start()
	return s.Stop
}

// Countdown formats d as H:MM:SS.t, clamped at zero.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(100 * time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%d:%02d:%02d.%d", h, m, s, d/(100*time.Millisecond))
}
