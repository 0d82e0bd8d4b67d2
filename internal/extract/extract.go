// Package extract turns located page elements into typed cart, course and
// registration-result records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"coursesniper/internal/locate"
	"coursesniper/internal/page"
	"coursesniper/internal/selectors"
)

// DefaultConcurrency bounds the number of rows read at once.
const DefaultConcurrency = 8

// StructuralError reports a row whose layout does not match the catalog:
// a required sub-element is absent. Retrying will not help.
type StructuralError struct {
	Listing string
	Row     int
	Field   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("extract: %s row %d has no %s element", e.Listing, e.Row, e.Field)
}

// Extractor reads listings off a page. It never clicks.
type Extractor struct {
	Selectors   selectors.Set
	Locator     *locate.Locator
	Concurrency int
	Logger      *slog.Logger
}

// New returns an Extractor over the given catalog.
func New(set selectors.Set, locator *locate.Locator, concurrency int, logger *slog.Logger) *Extractor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Selectors: set, Locator: locator, Concurrency: concurrency, Logger: logger}
}

// Carts returns the term carts in page order.
func (x *Extractor) Carts(ctx context.Context, p page.Page) ([]ShoppingCart, error) {
	links, err := x.Locator.LocateAll(ctx, p, x.Selectors.SemesterCart)
	if err != nil {
		return nil, err
	}
	carts := make([]ShoppingCart, len(links))
	err = x.eachRow(ctx, len(links), func(ctx context.Context, i int) error {
		carts[i] = ShoppingCart{Element: links[i], Label: readText(ctx, links[i])}
		return nil
	})
	if err != nil {
		return nil, err
	}
	x.Logger.Debug("extracted carts", "count", len(carts))
	return carts, nil
}

// Courses returns the rows of the open cart in document order. The i-th
// row gets CheckboxIndex i.
func (x *Extractor) Courses(ctx context.Context, p page.Page) ([]Course, error) {
	rows, err := x.Locator.LocateAll(ctx, p, x.Selectors.CourseRow)
	if err != nil {
		return nil, err
	}

	courses := make([]Course, len(rows))
	err = x.eachRow(ctx, len(rows), func(ctx context.Context, i int) error {
		r := rowReader{ctx: ctx, row: rows[i], listing: "course", index: i}

		checkbox := r.element("checkbox", x.Selectors.RowCheckbox)
		c := Course{
			Checkbox:      checkbox,
			CheckboxIndex: i,
			Status:        ClassifyStatus(r.required("availability", x.Selectors.Availability)),
			Description:   r.required("description", x.Selectors.Description),
			Schedule:      r.required("schedule", x.Selectors.Schedule),
			Room:          r.required("room", x.Selectors.Room),
			Instructor:    r.required("instructor", x.Selectors.Instructor),
			Credits:       r.required("credits", x.Selectors.Credits),
			Seats:         r.optional(x.Selectors.Seats),
		}
		if r.err != nil {
			return r.err
		}
		courses[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	x.Logger.Debug("extracted courses", "count", len(courses))
	return courses, nil
}

// Results returns the post-submission listing in document order.
func (x *Extractor) Results(ctx context.Context, p page.Page) ([]RegistrationResult, error) {
	rows, err := x.Locator.LocateAll(ctx, p, x.Selectors.ResultRow)
	if err != nil {
		return nil, err
	}

	results := make([]RegistrationResult, len(rows))
	err = x.eachRow(ctx, len(rows), func(ctx context.Context, i int) error {
		r := rowReader{ctx: ctx, row: rows[i], listing: "result", index: i}
		res := RegistrationResult{
			Description: r.required("description", x.Selectors.Description),
			Schedule:    r.required("schedule", x.Selectors.Schedule),
			Room:        r.required("room", x.Selectors.Room),
			Instructor:  r.required("instructor", x.Selectors.Instructor),
			Credits:     r.required("credits", x.Selectors.Credits),
			Status:      ClassifyStatus(r.required("availability", x.Selectors.Availability)),
			Message:     r.optional(x.Selectors.ResultMessage),
		}
		if r.err != nil {
			return r.err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	x.Logger.Debug("extracted results", "count", len(results))
	return results, nil
}

// eachRow runs fn for rows 0..n-1 concurrently. Callers write into
// preallocated slots by index, which keeps document order.
func (x *Extractor) eachRow(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := x.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// rowReader resolves sub-fields of one row and keeps the first error.
type rowReader struct {
	ctx     context.Context
	row     page.Element
	listing string
	index   int
	err     error
}

func (r *rowReader) element(field, selector string) page.Element {
	if r.err != nil {
		return nil
	}
	el, err := r.row.Element(r.ctx, selector)
	switch {
	case err == nil:
		return el
	case errors.Is(err, page.ErrNoElement):
		r.err = &StructuralError{Listing: r.listing, Row: r.index, Field: field}
	default:
		r.err = fmt.Errorf("extract: %s row %d %s: %w", r.listing, r.index, field, err)
	}
	return nil
}

func (r *rowReader) required(field, selector string) string {
	el := r.element(field, selector)
	if el == nil {
		return Placeholder
	}
	return readText(r.ctx, el)
}

func (r *rowReader) optional(selector string) string {
	if r.err != nil {
		return Placeholder
	}
	el, err := r.row.Element(r.ctx, selector)
	if err != nil {
		return Placeholder
	}
	return readText(r.ctx, el)
}

func readText(ctx context.Context, el page.Element) string {
	text, err := el.Text(ctx)
	if err != nil {
		return Placeholder
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Placeholder
	}
	return text
}
