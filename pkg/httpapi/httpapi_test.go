package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.ErrorLevel)
}

func newTestServer(cfg Config) *Server {
	idx := ontology.Build([]ontology.RawTerm{
		{ID: "HP:0001", Label: "Tall stature", Definition: "Height above average.", Neighbors: []ontology.Neighbor{{ID: "HP:0002", Score: 0.9}, {ID: "HP:0003", Score: 0.4}}},
		{ID: "HP:0002", Label: "Long limbs", Synonyms: []string{"Dolichostenomelia"}},
		{ID: "HP:0003", Label: "Large hands"},
	})
	return NewServer(suggest.NewEngine(idx, suggest.DefaultOptions()), cfg)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSearchRoute(t *testing.T) {
	s := newTestServer(Config{})

	testCases := []struct {
		query       string
		want        []string
		description string
	}{
		{"tall", []string{"HP:0001"}, "label match"},
		{"dolicho", []string{"HP:0002"}, "synonym match"},
		{"average", []string{"HP:0001"}, "definition match"},
		{"t", []string{}, "too short"},
		{"", []string{}, "missing"},
		{"zzz", []string{}, "no match"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/search?q="+tc.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status %d", rec.Code)
			}
			items := decodeJSON[[]SearchItem](t, rec)
			if len(items) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, items)
			}
			for i, id := range tc.want {
				if items[i].ID != id || items[i].Name == "" {
					t.Errorf("unexpected item %d: %+v", i, items[i])
				}
			}
			if len(tc.want) == 0 && strings.TrimSpace(rec.Body.String()) != "[]" {
				t.Errorf("expected empty JSON array, got %s", rec.Body.String())
			}
		})
	}
}

func TestTermAndLookupRoutes(t *testing.T) {
	s := newTestServer(Config{Version: "v1"})

	rec := do(t, s, http.MethodGet, "/terms/HP:0001", "")
	term := decodeJSON[TermView](t, rec)
	if rec.Code != http.StatusOK || term.Label != "Tall stature" || term.Neighbors != 2 || term.Synonyms == nil {
		t.Errorf("unexpected term: %d %+v", rec.Code, term)
	}

	rec = do(t, s, http.MethodGet, "/terms/HP:9999", "")
	if rec.Code != http.StatusNotFound || decodeJSON[ErrorEnvelope](t, rec).Error.Code != "unknown_term" {
		t.Errorf("expected unknown_term, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/lookup?prefix=hp:000&limit=2", "")
	matches := decodeJSON[[]ontology.Match](t, rec)
	if len(matches) != 2 || matches[0].ID != "HP:0001" {
		t.Errorf("unexpected lookup: %+v", matches)
	}

	rec = do(t, s, http.MethodGet, "/info", "")
	if info := decodeJSON[map[string]any](t, rec); info["version"] != "v1" {
		t.Errorf("unexpected info: %v", info)
	}

	for _, path := range []string{"/lookup", "/lookup?prefix=HP&limit=x"} {
		if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(Config{})

	rec := do(t, s, http.MethodPost, "/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	sid := decodeJSON[map[string]string](t, rec)["session_id"]
	base := "/sessions/" + sid

	rec = do(t, s, http.MethodGet, base+"/export", "")
	if rec.Code != http.StatusBadRequest || decodeJSON[ErrorEnvelope](t, rec).Error.Code != "empty_selection" {
		t.Errorf("expected empty_selection, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, base+"/select", `{"id":"HP:0001"}`)
	view := decodeJSON[SessionView](t, rec)
	if view.Changed == nil || !*view.Changed || len(view.Items) != 1 {
		t.Fatalf("unexpected select view: %+v", view)
	}
	if len(view.Related) != 2 || view.Related[0].ID != "HP:0002" || view.Related[0].Score != 0.9 {
		t.Errorf("unexpected related: %+v", view.Related)
	}

	rec = do(t, s, http.MethodPost, base+"/select", `{"id":"HP:0001"}`)
	if view := decodeJSON[SessionView](t, rec); *view.Changed {
		t.Errorf("reselect should not change the selection")
	}

	if rec := do(t, s, http.MethodPost, base+"/select", `{"id":"HP:4242"}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown term, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, base+"/select", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing id, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, base+"/select", `{"id":"HP:0003"}`)
	view = decodeJSON[SessionView](t, rec)
	if len(view.Related) != 1 || view.Related[0].ID != "HP:0002" {
		t.Errorf("selected terms must be excluded from related: %+v", view.Related)
	}

	rec = do(t, s, http.MethodGet, base+"/related?k=1", "")
	if related := decodeJSON[[]suggest.Candidate](t, rec); len(related) != 1 {
		t.Errorf("unexpected related: %+v", related)
	}
	if rec := do(t, s, http.MethodGet, base+"/related?k=-2", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative k, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, base+"/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected export status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "hpo_selection_") {
		t.Errorf("unexpected disposition %q", cd)
	}
	want := "\"HPO ID\",\"Term Name\"\n\"HP:0001\",Tall stature\n\"HP:0003\",Large hands\n"
	if rec.Body.String() != want {
		t.Errorf("unexpected csv:\n%s", rec.Body.String())
	}

	rec = do(t, s, http.MethodDelete, base+"/select/HP:0001", "")
	view = decodeJSON[SessionView](t, rec)
	if !*view.Changed || len(view.Items) != 1 || view.Items[0].ID != "HP:0003" {
		t.Errorf("unexpected deselect view: %+v", view)
	}

	rec = do(t, s, http.MethodGet, base, "")
	view = decodeJSON[SessionView](t, rec)
	if view.Changed != nil || len(view.Items) != 1 {
		t.Errorf("unexpected session view: %+v", view)
	}

	if rec := do(t, s, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(Config{})
	a := decodeJSON[map[string]string](t, do(t, s, http.MethodPost, "/sessions", ""))["session_id"]
	b := decodeJSON[map[string]string](t, do(t, s, http.MethodPost, "/sessions", ""))["session_id"]
	if a == b {
		t.Fatal("session ids must be unique")
	}

	do(t, s, http.MethodPost, "/sessions/"+a+"/select", `{"id":"HP:0001"}`)
	view := decodeJSON[SessionView](t, do(t, s, http.MethodGet, "/sessions/"+b, ""))
	if len(view.Items) != 0 {
		t.Errorf("session b sees session a's selection: %+v", view.Items)
	}
}

func TestSessionExpiry(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	id := store.Create()
	now = now.Add(2 * time.Minute)

	if store.Prune() != 1 || store.Len() != 0 {
		t.Errorf("expected idle session to be pruned")
	}
	if err := store.With(id, nil); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(Config{RatePerSec: 0.001, Burst: 2})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, s, http.MethodGet, "/search?q=tall", "").Code
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected codes %v", codes)
	}

	// health and metrics stay reachable
	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != 200 || rec.Body.String() != "ok" {
		t.Errorf("unexpected health: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/metrics", ""); rec.Code != 200 || !strings.Contains(rec.Body.String(), "hpo_requests_total") {
		t.Errorf("metrics endpoint missing collectors")
	}
}

func TestCORS(t *testing.T) {
	testCases := []struct {
		origins     []string
		origin      string
		want        string
		description string
	}{
		{[]string{"*"}, "http://localhost:5173", "*", "wildcard"},
		{nil, "http://localhost:5173", "*", "empty list allows all"},
		{[]string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000", "listed origin"},
		{[]string{"http://localhost:3000"}, "http://evil.example", "", "unlisted origin"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			s := newTestServer(Config{AllowOrigins: tc.origins})
			req := httptest.NewRequest(http.MethodGet, "/search?q=tall", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Errorf("unexpected allow-origin header: got=%q want=%q", got, tc.want)
			}
		})
	}
}
