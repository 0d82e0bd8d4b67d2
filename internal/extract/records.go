package extract

import (
	"fmt"
	"strings"

	"coursesniper/internal/page"
)

// Placeholder stands in for a text field that was empty or unreadable.
const Placeholder = "None"

// StatusKind is the enrollment availability of a section.
type StatusKind int

const (
	Closed StatusKind = iota
	Open
	Waitlisted
)

func (k StatusKind) String() string {
	switch k {
	case Open:
		return "Open"
	case Waitlisted:
		return "Wait List"
	default:
		return "Closed"
	}
}

// CourseStatus is the classified availability of a section.
//
// Available and Capacity are not parsed from the page yet and stay zero for
// Open sections.
type CourseStatus struct {
	Kind      StatusKind
	Available int
	Capacity  int
}

func (s CourseStatus) String() string {
	return s.Kind.String()
}

// ClassifyStatus maps status text to a CourseStatus. The checks run in a
// fixed order: "Wait List", then "Closed", then "Open". Unrecognised text
// is Closed so an unknown state is never offered as registerable.
func ClassifyStatus(text string) CourseStatus {
	switch {
	case strings.Contains(text, "Wait List"):
		return CourseStatus{Kind: Waitlisted}
	case strings.Contains(text, "Closed"):
		return CourseStatus{Kind: Closed}
	case strings.Contains(text, "Open"):
		return CourseStatus{Kind: Open}
	default:
		return CourseStatus{Kind: Closed}
	}
}

// ShoppingCart is one term's cart link.
type ShoppingCart struct {
	Element page.Element
	Label   string
}

func (c ShoppingCart) String() string {
	return c.Label
}

// Course is one row of a cart. CheckboxIndex is the position of the row's
// checkbox in the page's ordered checkbox list and is only meaningful for
// the render it was read from.
type Course struct {
	Checkbox      page.Element
	CheckboxIndex int
	Status        CourseStatus
	Description   string
	Schedule      string
	Room          string
	Instructor    string
	Credits       string
	Seats         string
}

func (c Course) String() string {
	return fmt.Sprintf("%s | %s | %s | %s", c.Description, c.Schedule, c.Instructor, c.Status)
}

// RegistrationResult is one row of the post-submission listing.
type RegistrationResult struct {
	Description string
	Schedule    string
	Room        string
	Instructor  string
	Credits     string
	Status      CourseStatus
	Message     string
}

// Pick returns the courses at the given positions of courses, in the order
// given.
func Pick(courses []Course, positions []int) ([]Course, error) {
	picked := make([]Course, 0, len(positions))
	for _, i := range positions {
		if i < 0 || i >= len(courses) {
			return nil, fmt.Errorf("extract: course %d out of range (have %d)", i, len(courses))
		}
		picked = append(picked, courses[i])
	}
	return picked, nil
}
