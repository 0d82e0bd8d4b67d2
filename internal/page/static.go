package page

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Static is a Page backed by a parsed HTML document. It never runs
// scripts; clicks, input and reloads are recorded and handed to optional
// hooks so callers can swap the document the way a live portal would.
//
// Every SetHTML or Reload starts a new generation and invalidates all
// handles from earlier ones.
type Static struct {
	mu     sync.Mutex
	source string
	doc    *goquery.Document
	gen    int
	url    string
	clicks []string
	inputs map[string]string

	OnClick    func(s *Static, el *StaticElement)
	OnSubmit   func(s *Static, el *StaticElement)
	OnReload   func(s *Static)
	OnNavigate func(s *Static, url string)
}

// NewStatic parses html into a Static page.
func NewStatic(html string) (*Static, error) {
	s := &Static{inputs: make(map[string]string)}
	if err := s.SetHTML(html); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadStatic reads a saved page from disk.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("page: read %s: %w", path, err)
	}
	return NewStatic(string(data))
}

// SetHTML replaces the document.
func (s *Static) SetHTML(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("page: parse html: %w", err)
	}
	s.mu.Lock()
	s.source = html
	s.doc = doc
	s.gen++
	s.mu.Unlock()
	return nil
}

// Clicks returns the keys of clicked elements in click order.
func (s *Static) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// Inputs returns the text typed into each element, by key.
func (s *Static) Inputs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.inputs))
	for k, v := range s.inputs {
		out[k] = v
	}
	return out
}

// URL is the last address passed to Navigate.
func (s *Static) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Generation counts document replacements.
func (s *Static) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Static) current() (*goquery.Document, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.gen
}

func (s *Static) Element(ctx context.Context, selector string) (Element, error) {
	els, err := s.Elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNoElement
	}
	return els[0], nil
}

func (s *Static) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, gen := s.current()
	return s.wrap(doc.Find(selector), gen), nil
}

func (s *Static) wrap(sel *goquery.Selection, gen int) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		out = append(out, &StaticElement{page: s, sel: node, gen: gen})
	})
	return out
}

func (s *Static) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	if s.OnNavigate != nil {
		s.OnNavigate(s, url)
	}
	return nil
}

// Reload re-parses the current source unless OnReload installs a new one.
func (s *Static) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.OnReload != nil {
		before := s.Generation()
		s.OnReload(s)
		if s.Generation() != before {
			return nil
		}
	}
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()
	return s.SetHTML(source)
}

func (s *Static) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, _ := s.current()
	return doc.Html()
}

func (s *Static) Screenshot(context.Context) ([]byte, error) {
	return nil, ErrUnsupported
}

// StaticElement is a node of a Static page.
type StaticElement struct {
	page *Static
	sel  *goquery.Selection
	gen  int
}

// Key identifies the element in click and input logs: its id attribute,
// or its tag name when it has none.
func (e *StaticElement) Key() string {
	if id, ok := e.sel.Attr("id"); ok && id != "" {
		return id
	}
	return goquery.NodeName(e.sel)
}

// Attr returns an attribute of the underlying node.
func (e *StaticElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *StaticElement) live(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, gen := e.page.current(); gen != e.gen {
		return ErrStale
	}
	return nil
}

func (e *StaticElement) Element(ctx context.Context, selector string) (Element, error) {
	els, err := e.Elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNoElement
	}
	return els[0], nil
}

func (e *StaticElement) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := e.live(ctx); err != nil {
		return nil, err
	}
	return e.page.wrap(e.sel.Find(selector), e.gen), nil
}

func (e *StaticElement) Text(ctx context.Context) (string, error) {
	if err := e.live(ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *StaticElement) Click(ctx context.Context) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	e.page.mu.Lock()
	e.page.clicks = append(e.page.clicks, e.Key())
	e.page.mu.Unlock()
	if e.page.OnClick != nil {
		e.page.OnClick(e.page, e)
	}
	return nil
}

func (e *StaticElement) Input(ctx context.Context, text string) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	e.page.mu.Lock()
	e.page.inputs[e.Key()] += text
	e.page.mu.Unlock()
	return nil
}

func (e *StaticElement) Submit(ctx context.Context) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	if e.page.OnSubmit != nil {
		e.page.OnSubmit(e.page, e)
	}
	return nil
}
