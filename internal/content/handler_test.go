package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/causaview/causaview/internal/causal"
	"github.com/causaview/causaview/internal/feed"
	"github.com/causaview/causaview/internal/transcript"
	"github.com/causaview/causaview/internal/viewer"
)

const testHMACSecret = "test-hmac-secret-for-content-gate"

var itemColumns = []string{"id", "title", "has_causal_graph", "share_password_hash"}

type fakeLoader struct {
	bundle     *feed.Bundle
	err        error
	calls      int
	lastCausal bool
}

func (f *fakeLoader) Bundle(ctx context.Context, language, video string, causalEnabled bool) (*feed.Bundle, error) {
	f.calls++
	f.lastCausal = causalEnabled
	if f.err != nil {
		return nil, f.err
	}
	b := *f.bundle
	b.Language = language
	b.Video = video
	b.CausalEnabled = causalEnabled
	if !causalEnabled {
		b.NodeLabels = []string{}
		b.Edges = []causal.Edge{}
	}
	return &b, nil
}

func newTestHandler(db pgxmock.PgxPoolIface, loader *fakeLoader) *Handler {
	return NewHandler(db, loader, viewer.NewRegistry(time.Hour), nil, testHMACSecret, false, false)
}

func timedSegment(index int, text string, begin, end float64, matched bool) transcript.Segment {
	return transcript.Segment{Index: index, Text: text, BeginTime: &begin, EndTime: &end, Matched: matched}
}

// testBundle is three timed segments where segment 1 is matched and sits
// between a predecessor (0) and a successor (2) in the causal graph.
func testBundle() *feed.Bundle {
	return &feed.Bundle{
		VideoURL: "https://feeds.example.com/video.mp4?sig=abc",
		Segments: []transcript.Segment{
			timedSegment(0, "The storm gathered.", 0, 2, true),
			timedSegment(1, "The river flooded.", 2, 4, true),
			timedSegment(2, "The village evacuated.", 4, 6, false),
		},
		NodeLabels: []string{"storm gathers", "river floods", "village evacuates"},
		Edges:      []causal.Edge{{Source: 0, Target: 1}, {Source: 1, Target: 2}},
	}
}

func newContentRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/languages", h.Languages)
	r.Get("/api/catalog/{language}", h.Catalog)
	r.Get("/api/view/{language}/{video}", h.View)
	r.Post("/api/view/{language}/{video}/unlock", h.Unlock)
	r.Get("/api/view/{language}/{video}/stats", h.Stats)
	r.Post("/api/sessions", h.CreateSession)
	r.Get("/api/sessions/{sessionID}", h.GetSession)
	r.Post("/api/sessions/{sessionID}/events", h.SessionEvent)
	r.Get("/view/{language}/{video}", h.ViewerPage)
	return r
}

func serveContent(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	newContentRouter(h).ServeHTTP(rec, req)
	return rec
}
