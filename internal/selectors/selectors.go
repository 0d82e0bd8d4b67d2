// Package selectors holds the catalog of CSS patterns that identify each
// region of the PeopleSoft shopping-cart page.
package selectors

import (
	"fmt"
	"sort"

	"github.com/andybalholm/cascadia"
)

// Submit controls accepted by Set.Submit.
const (
	SubmitValidate = "validate"
	SubmitEnroll   = "enroll"
)

// Set maps every logical page region to its selector pattern. It is built
// once at startup and passed by value afterwards.
type Set struct {
	PageURL string `yaml:"page_url"`

	UsernameInput string `yaml:"username_input"`
	PasswordInput string `yaml:"password_input"`

	ValidateButton string `yaml:"validate_button"`
	EnrollButton   string `yaml:"enroll_button"`

	SemesterCart string `yaml:"semester_cart"`
	CourseRow    string `yaml:"course_row"`
	Checkboxes   string `yaml:"checkboxes"`
	RowCheckbox  string `yaml:"row_checkbox"`

	Availability string `yaml:"availability"`
	Description  string `yaml:"description"`
	Schedule     string `yaml:"schedule"`
	Room         string `yaml:"room"`
	Instructor   string `yaml:"instructor"`
	Credits      string `yaml:"credits"`
	Seats        string `yaml:"seats"`

	ResultRow     string `yaml:"result_row"`
	ResultMessage string `yaml:"result_message"`
}

// Default returns the catalog for Emory's PeopleSoft Fluid shopping cart.
func Default() Set {
	return Set{
		PageURL:        "https://saprod.emory.edu/psc/saprod_48/EMPLOYEE/SA/c/SSR_STUDENT_FL.SSR_SHOP_CART_FL.GBL",
		UsernameInput:  "input#userid",
		PasswordInput:  "input#pwd",
		ValidateButton: "a#DERIVED_SSR_FL_SSR_VALIDATE_FL",
		EnrollButton:   "a#DERIVED_SSR_FL_SSR_ENROLL_FL",
		SemesterCart:   `a[id^="SSR_CART_TRM_FL_TERM_DESCR30$"]`,
		CourseRow:      `tr[id^="SSR_REGFORM_VW$0_row_"]`,
		Checkboxes:     `input[type="checkbox"][id^="DERIVED_REGFRM1_SSR_SELECT$"]`,
		RowCheckbox:    `input[type="checkbox"][id^="DERIVED_REGFRM1_SSR_SELECT$"]`,
		Availability:   `span[id^="DERIVED_SSR_FL_SSR_AVAIL_FL$"]`,
		Description:    `span[id^="DERIVED_SSR_FL_SSR_DESCR80$"]`,
		Schedule:       `span[id^="DERIVED_REGFRM1_SSR_MTG_SCHED_LONG$"]`,
		Room:           `span[id^="DERIVED_REGFRM1_SSR_MTG_LOC_LONG$"]`,
		Instructor:     `span[id^="DERIVED_REGFRM1_SSR_INSTR_LONG$"]`,
		Credits:        `span[id^="DERIVED_SSR_FL_SSR_UNITS_LBL$"]`,
		Seats:          `span[id^="DERIVED_SSR_FL_SSR_DESCR50$"]`,
		ResultRow:      `tr[id^="SSR_ENRL_RSLT_FL$0_row_"]`,
		ResultMessage:  `span[id^="DERIVED_REGFRM1_SS_MESSAGE_LONG$"]`,
	}
}

// fields exposes the patterns of s by their yaml key. PageURL is not a
// selector and is left out.
func (s *Set) fields() map[string]*string {
	return map[string]*string{
		"username_input":  &s.UsernameInput,
		"password_input":  &s.PasswordInput,
		"validate_button": &s.ValidateButton,
		"enroll_button":   &s.EnrollButton,
		"semester_cart":   &s.SemesterCart,
		"course_row":      &s.CourseRow,
		"checkboxes":      &s.Checkboxes,
		"row_checkbox":    &s.RowCheckbox,
		"availability":    &s.Availability,
		"description":     &s.Description,
		"schedule":        &s.Schedule,
		"room":            &s.Room,
		"instructor":      &s.Instructor,
		"credits":         &s.Credits,
		"seats":           &s.Seats,
		"result_row":      &s.ResultRow,
		"result_message":  &s.ResultMessage,
	}
}

// Override returns a copy of s with the named patterns replaced. The
// special key "page_url" replaces the portal address.
func (s Set) Override(patterns map[string]string) (Set, error) {
	out := s
	fields := out.fields()
	for name, pattern := range patterns {
		if name == "page_url" {
			out.PageURL = pattern
			continue
		}
		field, ok := fields[name]
		if !ok {
			return s, fmt.Errorf("selectors: unknown region %q", name)
		}
		*field = pattern
	}
	return out, nil
}

// Lookup returns the pattern registered under a yaml key.
func (s Set) Lookup(name string) (string, bool) {
	field, ok := s.fields()[name]
	if !ok {
		return "", false
	}
	return *field, true
}

// Names lists the region keys in sorted order.
func (s Set) Names() []string {
	fields := s.fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every pattern is present and parses as CSS.
func (s Set) Validate() error {
	if s.PageURL == "" {
		return fmt.Errorf("selectors: page_url is empty")
	}
	for _, name := range s.Names() {
		pattern, _ := s.Lookup(name)
		if pattern == "" {
			return fmt.Errorf("selectors: %s is empty", name)
		}
		if _, err := cascadia.ParseGroup(pattern); err != nil {
			return fmt.Errorf("selectors: %s %q: %w", name, pattern, err)
		}
	}
	return nil
}

// Submit returns the pattern of the control that submits the selection.
func (s Set) Submit(control string) (string, error) {
	switch control {
	case SubmitValidate, "":
		return s.ValidateButton, nil
	case SubmitEnroll:
		return s.EnrollButton, nil
	default:
		return "", fmt.Errorf("selectors: unknown submit control %q", control)
	}
}
