package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikihop/internal/wikigg"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := NewServer(cfg, wikigg.Builtin(), zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, target string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSwitchRedirects(t *testing.T) {
	srv := newTestServer(t, Config{})

	tests := []struct {
		name    string
		target  string
		referer string
		want    string
	}{
		{"replaces wiki", "/switch?wiki=valheim&from=/wiki-gg/factorio", "", "/wiki-gg/valheim"},
		{"strips game params", "/switch?wiki=valheim&from=" + url.QueryEscape("/wiki-gg/factorio?start=A&target=B"), "", "/wiki-gg/valheim"},
		{"keeps other params", "/switch?wiki=kenshi&from=" + url.QueryEscape("/wiki-gg/factorio?start=A&lang=en"), "", "/wiki-gg/kenshi?lang=en"},
		{"root", "/switch?wiki=valheim&from=/", "", "/wiki-gg/valheim"},
		{"no from uses referer", "/switch?wiki=valheim", "https://wikihop.example/wiki-gg/kenshi?start=a&x=1", "/wiki-gg/valheim?x=1"},
		{"no from no referer", "/switch?wiki=valheim", "", "/wiki-gg/valheim"},
		{"normalises key", "/switch?wiki=Project+Zomboid&from=/wiki-gg/rimworld", "", "/wiki-gg/project-zomboid"},
		{"drops foreign host", "/switch?wiki=valheim&from=" + url.QueryEscape("https://evil.example/wiki-gg/factorio"), "", "/wiki-gg/valheim"},
		{"drops scheme relative host", "/switch?wiki=valheim&from=" + url.QueryEscape("//evil.example/x"), "", "/wiki-gg/valheim"},
		{"unknown key passes through", "/switch?wiki=minecraft&from=/wiki-gg/factorio", "", "/wiki-gg/minecraft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.target, func(r *http.Request) {
				if tt.referer != "" {
					r.Header.Set("Referer", tt.referer)
				}
			})
			require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestSwitchRejectsBadKeys(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, target := range []string{"/switch", "/switch?wiki=", "/switch?wiki=../etc", "/switch?wiki=" + url.QueryEscape("wiki-gg/valheim")} {
		rec := get(t, srv, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSwitchCountsByWiki(t *testing.T) {
	srv := newTestServer(t, Config{})
	known := wikiSwitches.WithLabelValues("satisfactory")
	unknown := wikiSwitches.WithLabelValues("unknown")
	beforeKnown, beforeUnknown := testutil.ToFloat64(known), testutil.ToFloat64(unknown)

	get(t, srv, "/switch?wiki=satisfactory")
	get(t, srv, "/switch?wiki=not-a-wiki")

	assert.Equal(t, beforeKnown+1, testutil.ToFloat64(known))
	assert.Equal(t, beforeUnknown+1, testutil.ToFloat64(unknown))
}

func TestSwitchRateLimit(t *testing.T) {
	srv := newTestServer(t, Config{SwitchRateLimit: 2})

	for i := 0; i < 2; i++ {
		rec := get(t, srv, "/switch?wiki=valheim")
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	rec := get(t, srv, "/switch?wiki=valheim")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// pages are not limited
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestListWikisAPI(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := get(t, srv, "/api/wikis")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Marker  string `json:"marker"`
		Default string `json:"default"`
		Wikis   []struct {
			Key     string `json:"key"`
			Name    string `json:"name"`
			API     string `json:"api"`
			Site    string `json:"site"`
			Default bool   `json:"default"`
			Path    string `json:"path"`
		} `json:"wikis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "wiki-gg", resp.Marker)
	assert.Equal(t, "derail-valley", resp.Default)
	require.Len(t, resp.Wikis, len(wikigg.Builtin().Keys()))

	defaults := 0
	for i, w := range resp.Wikis {
		assert.Equal(t, wikigg.Builtin().Keys()[i], w.Key)
		assert.Equal(t, "/wiki-gg/"+w.Key, w.Path)
		assert.NotEmpty(t, w.API)
		if w.Default {
			defaults++
			assert.Equal(t, "derail-valley", w.Key)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestCurrentWikiAPI(t *testing.T) {
	srv := newTestServer(t, Config{})
	fallbacks := wikiResolutions.WithLabelValues(outcomeFallback)
	before := testutil.ToFloat64(fallbacks)

	tests := []struct {
		path     string
		key      string
		fallback bool
	}{
		{"/wiki-gg/kenshi", "kenshi", false},
		{"/wiki-gg/unknown", "derail-valley", true},
		{"/", "derail-valley", true},
		{"", "derail-valley", true},
	}

	for _, tt := range tests {
		rec := get(t, srv, "/api/wikis/current?path="+url.QueryEscape(tt.path))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Key      string            `json:"key"`
			Fallback bool              `json:"fallback"`
			Wiki     wikigg.Descriptor `json:"wiki"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tt.key, resp.Key, tt.path)
		assert.Equal(t, tt.fallback, resp.Fallback, tt.path)
		assert.Equal(t, tt.key, resp.Wiki.Key, tt.path)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(fallbacks))
}

func TestWikiGGPage(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := get(t, srv, "/wiki-gg/factorio?start=Iron_plate&target=Rocket_silo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Factorio Wiki Game – srcdoc embed</title>")
	assert.Contains(t, body, `data-wiki="factorio"`)
	assert.Contains(t, body, `data-api="https://wiki.factorio.com/api.php"`)
	assert.Contains(t, body, "Content © Factorio Wiki contributors (CC BY-SA).")
	assert.Contains(t, body, "Target Page:")
	assert.Contains(t, body, `<option value="factorio" selected>Factorio</option>`)
	assert.Equal(t, 1, strings.Count(body, " selected>"))
	assert.Contains(t, body, `href="/wiki-gg.html" aria-current="page"`)
	assert.Contains(t, body, "<footer")
}

func TestWikiGGPageFallsBack(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, target := range []string{"/wiki-gg", "/wiki-gg/", "/wiki-gg/minecraft", "/wiki-gg.html"} {
		rec := get(t, srv, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "<title>Derail Valley Wiki Game – srcdoc embed</title>", target)
	}
}

func TestGamePages(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := get(t, srv, "/poe.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/poe.html" aria-current="page"`)
	assert.Contains(t, rec.Body.String(), `data-game="poe"`)

	rec = get(t, srv, "/poe.html?layout=mobile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "overflow-x-auto")

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/valheim.html").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/poe.html?layout=tablet").Code)
}

func TestIndexAndLegalPages(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "How to play")
	assert.Contains(t, body, `href="/wiki-gg/vintage-story"`)
	assert.Contains(t, body, `href="/osrs.html" aria-current="page"`)

	rec = get(t, srv, "/terms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Terms of Service")

	rec = get(t, srv, "/privacy?width=360")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Privacy Policy")
	assert.NotContains(t, rec.Body.String(), "Feedback &amp; Support")
}

func TestFragmentEndpoints(t *testing.T) {
	srv := newTestServer(t, Config{FeedbackURL: "https://example.com/feedback"})

	rec := get(t, srv, "/fragments/header?path=/minecraft.html&width=1280")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<header"))
	assert.Contains(t, rec.Body.String(), `href="/minecraft.html" aria-current="page"`)

	rec = get(t, srv, "/fragments/footer?width=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<footer"))
	assert.Contains(t, rec.Body.String(), `href="https://example.com/feedback"`)
	assert.NotContains(t, rec.Body.String(), "Feedback &amp; Support")

	rec = get(t, srv, "/fragments/selector?path=/wiki-gg/valheim")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="valheim" selected>Valheim</option>`)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/fragments/footer?width=wide").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	get(t, srv, "/switch?wiki=valheim")
	rec = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wikihop_wiki_switches_total")
	assert.Contains(t, rec.Body.String(), "wikihop_http_request_duration_seconds")
}

func TestLocalLocation(t *testing.T) {
	tests := map[string]string{
		"":                                  "",
		"/":                                 "/",
		"/wiki-gg/kenshi?start=a":           "/wiki-gg/kenshi?start=a",
		"https://evil.example/a?b=c#d":      "/a?b=c#d",
		"//evil.example":                    "/",
		"wiki-gg/kenshi":                    "/wiki-gg/kenshi",
		"https://wikihop.example/wiki-gg/x": "/wiki-gg/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, localLocation(in), "input %q", in)
	}
}
