// Package page holds a parsed host document whose timers and instants are
// kept up to date while the host inserts and removes content.
package page

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/ngenohkevin/racetime_clock/internal/instant"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
	"golang.org/x/net/html"
)

// TimerSelector matches elements that show a live elapsed time
const TimerSelector = "time.autotick"

// ErrNoMatch is returned when a selector matches nothing
var ErrNoMatch = errors.New("selector matched no elements")

// Page is a parsed document shared between the tick loop and localization
// passes
type Page struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// Parse reads a document from r
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	return &Page{doc: doc}, nil
}

// ParseString reads a document from markup
func ParseString(markup string) (*Page, error) {
	return Parse(strings.NewReader(markup))
}

// HTML serializes the current document
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Html()
}

// Body serializes the contents of the body element
func (p *Page) Body() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Find("body").Html()
}

// Timers returns a target for every timer element currently in the document
func (p *Page) Timers() []timer.Target {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timersIn(p.doc.Selection)
}

func (p *Page) timersIn(root *goquery.Selection) []timer.Target {
	matches := root.Filter(TimerSelector).AddSelection(root.Find(TimerSelector))

	targets := make([]timer.Target, 0, matches.Length())
	for _, node := range matches.Nodes {
		targets = append(targets, &element{page: p, node: node})
	}
	return targets
}

// Localize runs a localization pass under the elements matching
// rootSelector, or the whole document when rootSelector is empty
func (p *Page) Localize(l *localize.Localizer, rootSelector string) ([]localize.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rootSelector == "" {
		return l.LocalizeDocument(p.doc), nil
	}

	root := p.doc.Find(rootSelector)
	if root.Length() == 0 {
		return nil, errors.Wrapf(ErrNoMatch, "root %q", rootSelector)
	}
	return l.Localize(root), nil
}

// Append inserts markup as the last children of the elements matching
// parentSelector. It returns the timers found in the inserted content.
func (p *Page) Append(parentSelector, markup string) ([]timer.Target, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	parent := p.doc.Find(parentSelector)
	if parent.Length() == 0 {
		return nil, errors.Wrapf(ErrNoMatch, "parent %q", parentSelector)
	}

	counts := make([]int, parent.Length())
	parent.Each(func(i int, s *goquery.Selection) {
		counts[i] = s.Children().Length()
	})
	parent.AppendHtml(markup)

	var targets []timer.Target
	parent.Each(func(i int, s *goquery.Selection) {
		children := s.Children()
		if counts[i] < children.Length() {
			targets = append(targets, p.timersIn(children.Slice(counts[i], children.Length()))...)
		}
	})
	return targets, nil
}

// Remove detaches the elements matching selector and reports how many
// were removed
func (p *Page) Remove(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Find(selector).Remove().Length()
}

// attached reports whether node is still part of the document
func (p *Page) attached(node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == p.doc.Nodes[0] {
			return true
		}
	}
	return false
}

// element is a timer element inside a page
type element struct {
	page *Page
	node *html.Node
}

// Annotations reads the element's attributes, failing once it has been removed
func (e *element) Annotations() (instant.Annotations, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()

	if !e.page.attached(e.node) {
		return instant.Annotations{}, timer.ErrDetached
	}
	return localize.Annotations(goquery.NewDocumentFromNode(e.node).Selection), nil
}

// Render replaces the element's content with the formatted duration
func (e *element) Render(d timer.Duration) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()

	if !e.page.attached(e.node) {
		return timer.ErrDetached
	}
	goquery.NewDocumentFromNode(e.node).Selection.SetHtml(string(d.HTML()))
	return nil
}
