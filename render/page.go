package render

import "sync"

// TextElement is an in-memory Element.
type TextElement struct {
	mu   sync.Mutex
	text string
	sets int
}

// SetText implements Element.
func (e *TextElement) SetText(text string) {
	e.mu.Lock()
	e.text = text
	e.sets++
	e.mu.Unlock()
}

// Text returns the current text.
func (e *TextElement) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// Writes returns how many times SetText was called.
func (e *TextElement) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sets
}

// StaticPage is a Page over a fixed set of elements. It backs headless use
// such as the CLI and tests.
type StaticPage struct {
	elements map[string]*TextElement
}

// NewStaticPage creates a page holding one empty element per id.
func NewStaticPage(ids ...string) *StaticPage {
	p := &StaticPage{elements: make(map[string]*TextElement, len(ids))}
	for _, id := range ids {
		p.elements[id] = &TextElement{}
	}
	return p
}

// Element implements Page.
func (p *StaticPage) Element(id string) (Element, bool) {
	if p == nil {
		return nil, false
	}
	el, ok := p.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Text returns the text of element id, or "" if it does not exist.
func (p *StaticPage) Text(id string) string {
	if el, ok := p.elements[id]; ok {
		return el.Text()
	}
	return ""
}

// Lookup returns the concrete element for id.
func (p *StaticPage) Lookup(id string) (*TextElement, bool) {
	el, ok := p.elements[id]
	return el, ok
}
