package content

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/causaview/causaview/internal/httputil"
	"github.com/causaview/causaview/internal/languages"
)

type catalogItem struct {
	VideoFile      string `json:"videoFile"`
	Title          string `json:"title"`
	HasCausalGraph bool   `json:"hasCausalGraph"`
	CausalOffered  bool   `json:"causalOffered"`
	HasPassword    bool   `json:"hasPassword"`
}

type catalogResponse struct {
	Language string        `json:"language"`
	Items    []catalogItem `json:"items"`
}

// Languages lists the corpus languages.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, languages.Corpus())
}

// Catalog lists the content variants published for one language.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	if !languages.IsCorpusLanguage(language) {
		httputil.WriteError(w, http.StatusNotFound, "unknown language")
		return
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT video_file, title, has_causal_graph, share_password_hash IS NOT NULL
		 FROM content_items
		 WHERE language = $1
		 ORDER BY video_file`,
		language,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	defer rows.Close()

	items := make([]catalogItem, 0)
	for rows.Next() {
		var it catalogItem
		if err := rows.Scan(&it.VideoFile, &it.Title, &it.HasCausalGraph, &it.HasPassword); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load catalog")
			return
		}
		// Causal mode is only offered when both the language and the
		// specific video carry annotation.
		it.CausalOffered = it.HasCausalGraph && languages.SupportsCausal(language)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, catalogResponse{Language: language, Items: items})
}

// lookupItem resolves one catalog row. A nil item with nil error means the
// variant does not exist.
func (h *Handler) lookupItem(ctx context.Context, language, videoFile string) (*item, error) {
	it := item{Language: language, VideoFile: videoFile}
	err := h.db.QueryRow(ctx,
		`SELECT id, title, has_causal_graph, share_password_hash
		 FROM content_items
		 WHERE language = $1 AND video_file = $2`,
		language, videoFile,
	).Scan(&it.ID, &it.Title, &it.HasCausalGraph, &it.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}
