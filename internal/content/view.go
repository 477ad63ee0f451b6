package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/causaview/causaview/internal/causal"
	"github.com/causaview/causaview/internal/httputil"
	"github.com/causaview/causaview/internal/languages"
	"github.com/causaview/causaview/internal/transcript"
)

type viewResponse struct {
	Language      string               `json:"language"`
	Video         string               `json:"video"`
	Title         string               `json:"title"`
	VideoURL      string               `json:"videoUrl"`
	CausalEnabled bool                 `json:"causalEnabled"`
	Segments      []transcript.Segment `json:"segments"`
	NodeLabels    []string             `json:"nodeLabels"`
	Edges         []causal.Edge        `json:"edges"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// Labels returns the bounds-checked label view for session construction.
func (v *viewResponse) Labels() causal.Labels {
	return causal.NewLabels(v.NodeLabels)
}

// resolveView loads everything a viewing needs and applies the availability
// rules: causal mode is requested explicitly, honored only when the
// language and the specific video carry annotation, and degraded with a
// warning when the annotation turns out inconsistent. Feed failures warn,
// they never block the video.
func (h *Handler) resolveView(r *http.Request, it *item, causalRequested bool) (*viewResponse, int, string) {
	causalEnabled := causalRequested && it.HasCausalGraph && languages.SupportsCausal(it.Language)

	var warnings []string
	if causalRequested && !causalEnabled {
		warnings = append(warnings, "causal relations are not available for this video")
	}

	bundle, err := h.feeds.Bundle(r.Context(), it.Language, it.VideoFile, causalEnabled)
	if err != nil {
		return nil, http.StatusBadGateway, "failed to load content feeds"
	}
	warnings = append(warnings, bundle.Warnings...)

	nodeLabels := bundle.NodeLabels
	edges := bundle.Edges
	if causalEnabled && len(nodeLabels) > 0 {
		if err := bundle.Labels().Validate(len(bundle.Segments)); err != nil {
			// Mismatched labels would caption graph nodes with the wrong
			// text; drop the causal data and say so instead.
			warnings = append(warnings, "causal annotation is inconsistent with the transcript and was disabled")
			nodeLabels = []string{}
			edges = []causal.Edge{}
			causalEnabled = false
		}
	}
	if causalEnabled && len(edges) == 0 {
		warnings = append(warnings, "causal relations data is not available for this video")
	}

	return &viewResponse{
		Language:      it.Language,
		Video:         it.VideoFile,
		Title:         it.Title,
		VideoURL:      bundle.VideoURL,
		CausalEnabled: causalEnabled,
		Segments:      bundle.Segments,
		NodeLabels:    nodeLabels,
		Edges:         edges,
		Warnings:      warnings,
	}, 0, ""
}

// View returns the full payload for one content variant.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	videoFile := chi.URLParam(r, "video")
	if !languages.IsCorpusLanguage(language) {
		httputil.WriteError(w, http.StatusNotFound, "unknown language")
		return
	}

	it, err := h.lookupItem(r.Context(), language, videoFile)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load content")
		return
	}
	if it == nil {
		httputil.WriteError(w, http.StatusNotFound, "content not found")
		return
	}
	if !h.unlocked(r, it) {
		httputil.WriteError(w, http.StatusForbidden, "password required")
		return
	}

	causalRequested := r.URL.Query().Get("causal") == "true"
	resp, status, msg := h.resolveView(r, it, causalRequested)
	if resp == nil {
		httputil.WriteError(w, status, msg)
		return
	}

	h.recordView(r, it.ID, resp.CausalEnabled)
	httputil.WriteJSON(w, http.StatusOK, resp)
}
