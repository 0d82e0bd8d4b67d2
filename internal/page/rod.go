package page

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// Rod adapts a live rod tab to Page.
type Rod struct {
	page *rod.Page
}

// NewRod wraps p.
func NewRod(p *rod.Page) *Rod {
	return &Rod{page: p}
}

// Raw returns the underlying rod page.
func (r *Rod) Raw() *rod.Page {
	return r.page
}

func (r *Rod) Element(ctx context.Context, selector string) (Element, error) {
	els, err := r.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNoElement
	}
	return &rodElement{el: els[0]}, nil
}

func (r *Rod) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := r.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (r *Rod) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("page: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page: wait load %s: %w", url, err)
	}
	return nil
}

func (r *Rod) Reload(ctx context.Context) error {
	p := r.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("page: reload: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page: wait load after reload: %w", err)
	}
	return nil
}

func (r *Rod) HTML(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

func (r *Rod) Screenshot(ctx context.Context) ([]byte, error) {
	return r.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

type rodElement struct {
	el *rod.Element
}

func wrapRod(els rod.Elements) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out
}

func (e *rodElement) Element(ctx context.Context, selector string) (Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNoElement
	}
	return &rodElement{el: els[0]}, nil
}

func (e *rodElement) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}

func (e *rodElement) Submit(ctx context.Context) error {
	return e.el.Context(ctx).Type(input.Enter)
}
