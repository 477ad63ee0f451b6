package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON_HeadersAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "a1b2"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestWriteJSON_EncodesCatalogShapes(t *testing.T) {
	type catalogItem struct {
		Video         string `json:"video"`
		Title         string `json:"title"`
		CausalOffered bool   `json:"causal_offered"`
	}

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, []catalogItem{
		{Video: "video1.mp4", Title: "The Flood", CausalOffered: true},
		{Video: "video2.mp4", Title: "The Harvest"},
	})

	var decoded []catalogItem
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("items = %d, want 2", len(decoded))
	}
	if decoded[0].Video != "video1.mp4" || !decoded[0].CausalOffered {
		t.Errorf("first item round-tripped wrong: %+v", decoded[0])
	}
	if decoded[1].CausalOffered {
		t.Errorf("second item should not offer causal mode: %+v", decoded[1])
	}
}

func TestWriteJSON_EncodesWarningsList(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string][]string{
		"warnings": {"causal relations data is not available"},
	})

	var decoded map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(decoded["warnings"]) != 1 {
		t.Errorf("warnings round-tripped wrong: %v", decoded["warnings"])
	}
}

func TestWriteError_Shape(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"not found", http.StatusNotFound, "unknown video"},
		{"locked", http.StatusForbidden, "password required"},
		{"bad event", http.StatusBadRequest, "unknown event type"},
		{"upstream", http.StatusBadGateway, "feed unavailable"},
		{"empty message", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.status, tt.message)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var decoded ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if decoded.Error != tt.message {
				t.Errorf("error = %q, want %q", decoded.Error, tt.message)
			}
		})
	}
}
