// Package portaltest renders PeopleSoft-shaped HTML for tests that drive
// the engine through a page.Static.
package portaltest

import (
	"fmt"
	"html"
	"strings"
)

// Row describes one course (or result) row. Fields listed in Omit are
// rendered without their element.
type Row struct {
	Description string
	Schedule    string
	Room        string
	Instructor  string
	Credits     string
	Status      string
	Seats       string
	Message     string
	Omit        []string
}

func (r Row) omitted(field string) bool {
	for _, f := range r.Omit {
		if f == field {
			return true
		}
	}
	return false
}

// LoginPage is the sign-in form.
func LoginPage() string {
	return `<html><body><form>
<input id="userid" type="text">
<input id="pwd" type="password">
</form></body></html>`
}

// CartsPage lists one link per term.
func CartsPage(labels ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"terms\">\n")
	for i, label := range labels {
		fmt.Fprintf(&b, "<a id=\"SSR_CART_TRM_FL_TERM_DESCR30$%d\" href=\"#\">%s</a>\n", i, html.EscapeString(label))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// CartPage renders the cart listing with its checkbox column and the
// validate/enroll controls. suffix offsets the dynamic id suffixes so two
// renders of the same rows have different element identities.
func CartPage(suffix int, rows ...Row) string {
	var b strings.Builder
	b.WriteString("<html><body><table class=\"cart\">\n")
	for i, r := range rows {
		n := i + suffix
		fmt.Fprintf(&b, "<tr id=\"SSR_REGFORM_VW$0_row_%d\">\n", n)
		if !r.omitted("checkbox") {
			fmt.Fprintf(&b, "<td><input type=\"checkbox\" id=\"DERIVED_REGFRM1_SSR_SELECT$%d\"></td>\n", n)
		}
		writeFields(&b, n, r)
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	b.WriteString("<a id=\"DERIVED_SSR_FL_SSR_VALIDATE_FL\" href=\"#\">Validate</a>\n")
	b.WriteString("<a id=\"DERIVED_SSR_FL_SSR_ENROLL_FL\" href=\"#\">Enroll</a>\n")
	b.WriteString("</body></html>")
	return b.String()
}

// ResultsPage renders the post-submission listing.
func ResultsPage(rows ...Row) string {
	var b strings.Builder
	b.WriteString("<html><body><table class=\"results\">\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "<tr id=\"SSR_ENRL_RSLT_FL$0_row_%d\">\n", i)
		writeFields(&b, i, r)
		if r.Message != "" {
			fmt.Fprintf(&b, "<td><span id=\"DERIVED_REGFRM1_SS_MESSAGE_LONG$%d\">%s</span></td>\n", i, html.EscapeString(r.Message))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func writeFields(b *strings.Builder, n int, r Row) {
	fields := []struct {
		name, id, text string
	}{
		{"availability", "DERIVED_SSR_FL_SSR_AVAIL_FL", r.Status},
		{"description", "DERIVED_SSR_FL_SSR_DESCR80", r.Description},
		{"schedule", "DERIVED_REGFRM1_SSR_MTG_SCHED_LONG", r.Schedule},
		{"room", "DERIVED_REGFRM1_SSR_MTG_LOC_LONG", r.Room},
		{"instructor", "DERIVED_REGFRM1_SSR_INSTR_LONG", r.Instructor},
		{"credits", "DERIVED_SSR_FL_SSR_UNITS_LBL", r.Credits},
		{"seats", "DERIVED_SSR_FL_SSR_DESCR50", r.Seats},
	}
	for _, f := range fields {
		if r.omitted(f.name) {
			continue
		}
		fmt.Fprintf(b, "<td><span id=\"%s$%d\">%s</span></td>\n", f.id, n, html.EscapeString(f.text))
	}
}

// CheckboxID is the id CartPage gives the checkbox of row n (suffix included).
func CheckboxID(n int) string {
	return fmt.Sprintf("DERIVED_REGFRM1_SSR_SELECT$%d", n)
}

// ThreeRows is the canonical open/closed/wait-listed cart.
func ThreeRows() []Row {
	return []Row{
		{Description: "CS 170 Intro to Computer Science", Schedule: "MoWe 10:00AM - 11:15AM", Room: "MSC W201", Instructor: "A. Turing", Credits: "4 Units", Status: "Open Seats: 5", Seats: "5 of 30"},
		{Description: "MATH 221 Linear Algebra", Schedule: "TuTh 1:00PM - 2:15PM", Room: "MSC E208", Instructor: "E. Noether", Credits: "3 Units", Status: "Closed", Seats: "0 of 40"},
		{Description: "PHYS 151 Mechanics", Schedule: "MoWeFr 9:00AM - 9:50AM", Room: "MSC N304", Instructor: "R. Feynman", Credits: "4 Units", Status: "Wait List (2)", Seats: "0 of 60"},
	}
}
