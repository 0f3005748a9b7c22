package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"wikihop/internal/games"
	xlog "wikihop/internal/log"
	"wikihop/internal/wikigg"
)

// Server wires handlers, templates, and the wiki table together.
type Server struct {
	cfg    Config
	wikis  *wikigg.Registry
	render *Renderer
	router chi.Router
	log    zerolog.Logger
}

// NewServer constructs an HTTP handler serving WikiHop pages and fragments
// for the given wiki table.
func NewServer(cfg Config, wikis *wikigg.Registry, logger zerolog.Logger) (*Server, error) {
	footer, err := cfg.footer()
	if err != nil {
		return nil, fmt.Errorf("footer: %w", err)
	}

	render, err := NewRenderer(wikis, footer)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:    cfg,
		wikis:  wikis,
		render: render,
		log:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(xlog.Middleware(logger))
	r.Use(Metrics())
	r.Use(middleware.Recoverer)

	r.Get("/", srv.handleIndex)
	r.Get("/healthz", srv.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/terms", srv.handleLegal("terms"))
	r.Get("/privacy", srv.handleLegal("privacy"))
	r.Get("/{game}.html", srv.handleGame)

	marker := "/" + wikis.Marker()
	r.Get(marker, srv.handleWikiGG)
	r.Get(marker+"/*", srv.handleWikiGG)

	r.Route("/fragments", func(r chi.Router) {
		r.Get("/header", srv.handleHeaderFragment)
		r.Get("/footer", srv.handleFooterFragment)
		r.Get("/selector", srv.handleSelectorFragment)
	})

	r.Group(func(r chi.Router) {
		if cfg.SwitchRateLimit > 0 {
			r.Use(rateLimit(cfg.SwitchRateLimit, time.Minute))
		}
		r.Get("/switch", srv.handleSwitch)
		r.Get("/api/wikis", srv.handleListWikis)
		r.Get("/api/wikis/current", srv.handleCurrentWiki)
	})

	srv.router = r
	return srv, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// rateLimit limits requests per client IP with a sliding window.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type wikiLink struct {
	Name string
	Path string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}

	header, footer, err := s.chrome(r.URL.Path, layout)
	if err != nil {
		s.fail(w, "render chrome", err)
		return
	}

	var links []wikiLink
	for _, d := range s.wikis.List() {
		links = append(links, wikiLink{Name: d.Name, Path: s.wikis.SwitchWiki("/", d.Key)})
	}

	data := struct {
		Header template.HTML
		Footer template.HTML
		Intro  template.HTML
		Games  []games.Game
		Wikis  []wikiLink
	}{
		Header: header,
		Footer: footer,
		Intro:  landingIntro(),
		Games:  games.List(),
		Wikis:  links,
	}
	s.renderPage(w, "home.gohtml", data)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "game")
	if key == s.wikis.Marker() {
		s.handleWikiGG(w, r)
		return
	}

	game, found := games.Lookup(key)
	if !found {
		http.NotFound(w, r)
		return
	}

	layout, ok := s.layout(w, r)
	if !ok {
		return
	}

	header, footer, err := s.chrome(r.URL.Path, layout)
	if err != nil {
		s.fail(w, "render chrome", err)
		return
	}

	data := struct {
		Header template.HTML
		Footer template.HTML
		Game   games.Game
	}{
		Header: header,
		Footer: footer,
		Game:   game,
	}
	s.renderPage(w, "game.gohtml", data)
}

func (s *Server) handleWikiGG(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}

	match := s.wikis.Match(r.URL.Path)
	recordResolution(match.Fallback)

	// All wiki.gg pages highlight the Wiki.gg tab.
	header, footer, err := s.chrome("/"+s.wikis.Marker(), layout)
	if err != nil {
		s.fail(w, "render chrome", err)
		return
	}

	selector, err := s.render.Selector(r.URL.Path, r.URL.RequestURI())
	if err != nil {
		s.fail(w, "render selector", err)
		return
	}

	data := struct {
		Header   template.HTML
		Footer   template.HTML
		Selector template.HTML
		Wiki     wikigg.Descriptor
		Meta     PageMeta
	}{
		Header:   header,
		Footer:   footer,
		Selector: selector,
		Wiki:     match.Wiki,
		Meta:     MetaFor(match.Wiki),
	}
	s.renderPage(w, "wikigg.gohtml", data)
}

func (s *Server) handleLegal(name string) http.HandlerFunc {
	page := legalPages[name]
	return func(w http.ResponseWriter, r *http.Request) {
		layout, ok := s.layout(w, r)
		if !ok {
			return
		}

		header, footer, err := s.chrome(r.URL.Path, layout)
		if err != nil {
			s.fail(w, "render chrome", err)
			return
		}

		data := struct {
			Header     template.HTML
			Footer     template.HTML
			Title      string
			Paragraphs []string
		}{
			Header:     header,
			Footer:     footer,
			Title:      page.Title,
			Paragraphs: page.Paragraphs,
		}
		s.renderPage(w, "legal.gohtml", data)
	}
}

// handleSwitch is the navigation half of the wiki selector: it redirects to
// the current page with the wiki replaced and the round's parameters cleared.
func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	raw := q.Get("wiki")
	key, err := NormalizeKey(raw)
	if err != nil {
		s.log.Warn().Str("wiki", raw).Msg("switch.rejected")
		http.Error(w, "invalid wiki key", http.StatusBadRequest)
		return
	}

	from := localLocation(q.Get("from"))
	if from == "" {
		from = localLocation(r.Referer())
	}
	if from == "" {
		from = "/"
	}

	target := s.wikis.SwitchWiki(from, key)

	label := key
	if _, known := s.wikis.Lookup(key); !known {
		label = "unknown"
	}
	wikiSwitches.WithLabelValues(label).Inc()

	s.log.Debug().Str("from", from).Str("to", target).Msg("switch.redirect")
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// localLocation reduces raw to a path, query and fragment on this site so a
// switch can never redirect to another host.
func localLocation(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	loc := u.EscapedPath()
	if loc == "" || loc[0] != '/' {
		loc = "/" + loc
	}
	if u.RawQuery != "" {
		loc += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		loc += "#" + u.EscapedFragment()
	}
	return loc
}

type wikiJSON struct {
	wikigg.Descriptor
	Default bool   `json:"default"`
	Path    string `json:"path"`
}

func (s *Server) handleListWikis(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Marker  string     `json:"marker"`
		Default string     `json:"default"`
		Wikis   []wikiJSON `json:"wikis"`
	}{
		Marker:  s.wikis.Marker(),
		Default: s.wikis.DefaultKey(),
	}
	for _, d := range s.wikis.List() {
		resp.Wikis = append(resp.Wikis, wikiJSON{
			Descriptor: d,
			Default:    d.Key == s.wikis.DefaultKey(),
			Path:       s.wikis.SwitchWiki("/", d.Key),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurrentWiki(w http.ResponseWriter, r *http.Request) {
	match := s.wikis.Match(r.URL.Query().Get("path"))
	recordResolution(match.Fallback)

	resp := struct {
		Key      string            `json:"key"`
		Fallback bool              `json:"fallback"`
		Wiki     wikigg.Descriptor `json:"wiki"`
	}{
		Key:      match.Key,
		Fallback: match.Fallback,
		Wiki:     match.Wiki,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeaderFragment(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}
	html, err := s.render.Header(r.URL.Query().Get("path"), layout)
	if err != nil {
		s.fail(w, "render header", err)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handleFooterFragment(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}
	html, err := s.render.Footer(layout)
	if err != nil {
		s.fail(w, "render footer", err)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handleSelectorFragment(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	match := s.wikis.Match(path)
	recordResolution(match.Fallback)

	html, err := s.render.Selector(path, path)
	if err != nil {
		s.fail(w, "render selector", err)
		return
	}
	writeHTML(w, html)
}

// layout reads the layout or width query parameter. On failure it has already
// written a 400 response.
func (s *Server) layout(w http.ResponseWriter, r *http.Request) (Layout, bool) {
	q := r.URL.Query()
	layout, err := layoutFrom(q.Get("layout"), q.Get("width"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return layout, true
}

func (s *Server) chrome(path string, layout Layout) (header, footer template.HTML, err error) {
	header, err = s.render.Header(path, layout)
	if err != nil {
		return "", "", err
	}
	footer, err = s.render.Footer(layout)
	if err != nil {
		return "", "", err
	}
	return header, footer, nil
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.render.Page(&buf, name, data); err != nil {
		s.fail(w, "render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.log.Error().Err(err).Str("op", op).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode json")
	}
}

func writeHTML(w http.ResponseWriter, html template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
