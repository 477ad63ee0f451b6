package content

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func expectItemLookup(mock pgxmock.PgxPoolIface, language, video string, id int64, hasCausal bool, passwordHash *string) {
	mock.ExpectQuery(`SELECT id, title, has_causal_graph, share_password_hash`).
		WithArgs(language, video).
		WillReturnRows(pgxmock.NewRows(itemColumns).AddRow(id, "Title", hasCausal, passwordHash))
}

func TestView_CausalRequested_ReturnsAnnotatedPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	loader := &fakeLoader{bundle: testBundle()}
	handler := newTestHandler(mock, loader)
	expectItemLookup(mock, "English", "video1.mp4", 1, true, nil)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/video1.mp4?causal=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !loader.lastCausal {
		t.Error("expected causal feeds to be requested")
	}

	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.CausalEnabled {
		t.Error("expected causal mode enabled")
	}
	if len(resp.Segments) != 3 {
		t.Errorf("expected 3 segments, got %d", len(resp.Segments))
	}
	if len(resp.NodeLabels) != 3 || len(resp.Edges) != 2 {
		t.Errorf("expected 3 labels and 2 edges, got %d and %d", len(resp.NodeLabels), len(resp.Edges))
	}
	if resp.VideoURL == "" {
		t.Error("expected a presigned video URL")
	}
}

func TestView_CausalNotAnnotated_DegradesWithWarning(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	loader := &fakeLoader{bundle: testBundle()}
	handler := newTestHandler(mock, loader)
	expectItemLookup(mock, "English", "video2.mp4", 2, false, nil)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/video2.mp4?causal=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if loader.lastCausal {
		t.Error("expected causal feeds to be skipped for an unannotated video")
	}

	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.CausalEnabled {
		t.Error("expected causal mode disabled")
	}
	if len(resp.Warnings) == 0 || !strings.Contains(resp.Warnings[0], "not available") {
		t.Errorf("expected an availability warning, got %v", resp.Warnings)
	}
}

func TestView_NonCausalLanguage_IgnoresCatalogFlag(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	loader := &fakeLoader{bundle: testBundle()}
	handler := newTestHandler(mock, loader)
	expectItemLookup(mock, "Hindi", "video1.mp4", 3, true, nil)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/Hindi/video1.mp4?causal=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.CausalEnabled {
		t.Error("expected causal mode disabled outside the annotated language")
	}
}

func TestView_LabelMismatch_DropsCausalData(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	bundle := testBundle()
	bundle.NodeLabels = []string{"only one label"}
	loader := &fakeLoader{bundle: bundle}
	handler := newTestHandler(mock, loader)
	expectItemLookup(mock, "English", "video1.mp4", 1, true, nil)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/video1.mp4?causal=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.CausalEnabled {
		t.Error("expected causal mode dropped on label mismatch")
	}
	if len(resp.NodeLabels) != 0 || len(resp.Edges) != 0 {
		t.Error("expected causal data removed from the payload")
	}
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "inconsistent") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an inconsistency warning, got %v", resp.Warnings)
	}
}

func TestView_NotFound_Returns404(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := newTestHandler(mock, &fakeLoader{bundle: testBundle()})

	mock.ExpectQuery(`SELECT id, title, has_causal_graph, share_password_hash`).
		WithArgs("English", "missing.mp4").
		WillReturnError(pgx.ErrNoRows)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/missing.mp4", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestView_PasswordGated_Returns403WithoutCookie(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := newTestHandler(mock, &fakeLoader{bundle: testBundle()})
	hash := "$2a$10$somebcrypthashvalue"
	expectItemLookup(mock, "English", "video1.mp4", 1, true, &hash)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/video1.mp4", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestView_LoaderFailure_Returns502(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := newTestHandler(mock, &fakeLoader{err: errors.New("bucket unreachable")})
	expectItemLookup(mock, "English", "video1.mp4", 1, true, nil)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/video1.mp4", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestView_CausalWithoutEdges_Warns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	bundle := testBundle()
	bundle.Edges = nil
	loader := &fakeLoader{bundle: bundle}
	handler := newTestHandler(mock, loader)
	expectItemLookup(mock, "English", "video1.mp4", 1, true, nil)

	rec := serveContent(handler, httptest.NewRequest(http.MethodGet, "/api/view/English/video1.mp4?causal=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.CausalEnabled {
		t.Error("expected causal mode to stay enabled with empty edges")
	}
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "causal relations data is not available") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an empty-edges warning, got %v", resp.Warnings)
	}
}
