package app

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"wikihop/internal/games"
	"wikihop/internal/wikigg"
)

// Layout selects between the full and the compact variant of a fragment.
type Layout string

const (
	LayoutDesktop Layout = "desktop"
	LayoutMobile  Layout = "mobile"
)

// mobileBreakpoint is the viewport width below which the compact fragments are used.
const mobileBreakpoint = 768

// LayoutForWidth picks the layout for a viewport width in CSS pixels. Unknown
// widths (zero or negative) get the desktop layout.
func LayoutForWidth(width int) Layout {
	if width > 0 && width < mobileBreakpoint {
		return LayoutMobile
	}
	return LayoutDesktop
}

// ParseLayout parses a layout name. The empty string means desktop.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutDesktop:
		return LayoutDesktop, nil
	case LayoutMobile:
		return LayoutMobile, nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

// layoutFrom resolves the layout from explicit layout and width query values.
// An explicit layout wins over a width.
func layoutFrom(layout, width string) (Layout, error) {
	if layout != "" {
		return ParseLayout(layout)
	}
	if width == "" {
		return LayoutDesktop, nil
	}
	w, err := strconv.Atoi(width)
	if err != nil {
		return "", fmt.Errorf("invalid width %q", width)
	}
	return LayoutForWidth(w), nil
}

// PageMeta is the per-wiki text of a wiki.gg game page.
type PageMeta struct {
	Title              string
	Attribution        string
	DestinationHeading string
}

// MetaFor returns the page text for a wiki.
func MetaFor(d wikigg.Descriptor) PageMeta {
	return PageMeta{
		Title:              d.Name + " Wiki Game – srcdoc embed",
		Attribution:        "Content © " + d.Name + " Wiki contributors (CC BY-SA).",
		DestinationHeading: "Target Page:",
	}
}

type headerTab struct {
	Game   games.Game
	Active bool
}

type headerData struct {
	Current games.Game
	Tabs    []headerTab
}

type selectorOption struct {
	Wiki     wikigg.Descriptor
	Selected bool
}

type selectorData struct {
	Action  string
	From    string
	Current wikigg.Descriptor
	Options []selectorOption
}

// Renderer builds the header, footer and wiki selector fragments.
type Renderer struct {
	templates *template.Template
	wikis     *wikigg.Registry
	footer    FooterConfig

	group singleflight.Group
	cache sync.Map // string -> template.HTML
}

// NewRenderer parses the embedded templates.
func NewRenderer(wikis *wikigg.Registry, footer FooterConfig) (*Renderer, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: tmpl, wikis: wikis, footer: footer}, nil
}

// Header renders the site header for a page path. The tab of the current game
// is marked active.
func (r *Renderer) Header(path string, layout Layout) (template.HTML, error) {
	current := games.Current(path)
	name := "header_desktop"
	if layout == LayoutMobile {
		name = "header_mobile"
	}

	return r.cached(name, name+":"+current.Key, func() (template.HTML, error) {
		data := headerData{Current: current}
		for _, g := range games.List() {
			data.Tabs = append(data.Tabs, headerTab{Game: g, Active: g.Key == current.Key})
		}
		return r.execute(name, data)
	})
}

// Footer renders the site footer.
func (r *Renderer) Footer(layout Layout) (template.HTML, error) {
	name := "footer_full"
	if layout == LayoutMobile {
		name = "footer_compact"
	}
	return r.cached(name, name, func() (template.HTML, error) {
		return r.execute(name, r.footer)
	})
}

// Selector renders the wiki selector for a page path. Submitting it navigates
// through /switch, which returns to from with the new wiki.
func (r *Renderer) Selector(path, from string) (template.HTML, error) {
	current := r.wikis.Match(path)
	data := selectorData{
		Action:  "/switch",
		From:    from,
		Current: current.Wiki,
	}
	for _, d := range r.wikis.List() {
		data.Options = append(data.Options, selectorOption{Wiki: d, Selected: d.Key == current.Key})
	}
	fragmentRenders.WithLabelValues("selector").Inc()
	return r.execute("selector", data)
}

// Page renders a full page template into buf.
func (r *Renderer) Page(buf *bytes.Buffer, name string, data any) error {
	return r.templates.ExecuteTemplate(buf, name, data)
}

// cached returns the fragment stored under key, rendering it at most once
// even when several requests miss at the same time.
func (r *Renderer) cached(fragment, key string, render func() (template.HTML, error)) (template.HTML, error) {
	if v, ok := r.cache.Load(key); ok {
		return v.(template.HTML), nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.cache.Load(key); ok {
			return v, nil
		}
		html, err := render()
		if err != nil {
			return nil, err
		}
		fragmentRenders.WithLabelValues(fragment).Inc()
		r.cache.Store(key, html)
		return html, nil
	})
	if err != nil {
		return "", err
	}
	return v.(template.HTML), nil
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
