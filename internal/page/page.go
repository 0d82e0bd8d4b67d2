// Package page defines the small slice of a browser driver the registration
// engine depends on, with a live rod implementation and a static goquery
// implementation for saved pages.
package page

import (
	"context"
	"errors"
)

var (
	// ErrNoElement is returned by a single-shot lookup that matched nothing.
	ErrNoElement = errors.New("page: no element matches selector")

	// ErrStale is returned when an element handle outlived the document it
	// was found in.
	ErrStale = errors.New("page: element handle is stale")

	// ErrUnsupported is returned by operations a driver cannot perform.
	ErrUnsupported = errors.New("page: operation not supported")
)

// Queryable is anything selectors can be evaluated against. Lookups are
// single-shot: they report the current state and never wait.
type Queryable interface {
	Element(ctx context.Context, selector string) (Element, error)
	Elements(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to a located node. It is only valid until the next
// navigation or reload of its page.
type Element interface {
	Queryable

	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	Input(ctx context.Context, text string) error
	// Submit presses Enter inside the element.
	Submit(ctx context.Context) error
}

// Page is a single browser tab.
type Page interface {
	Queryable

	Navigate(ctx context.Context, url string) error
	// Reload reloads the document and returns once it has loaded.
	Reload(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}
