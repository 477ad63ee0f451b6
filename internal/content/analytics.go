package content

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"github.com/causaview/causaview/internal/httputil"
	"github.com/causaview/causaview/internal/languages"
)

func viewerHash(ip, ua string) string {
	h := sha256.Sum256([]byte(ip + "|" + ua))
	return fmt.Sprintf("%x", h[:8])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	return r.RemoteAddr
}

func categorizeReferrer(referer string) string {
	if referer == "" {
		return "Direct"
	}
	switch {
	case strings.Contains(referer, "mail.google.com"),
		strings.Contains(referer, "outlook.live.com"),
		strings.Contains(referer, "mail.proton.me"):
		return "Email"
	case strings.Contains(referer, "slack.com"):
		return "Slack"
	case strings.Contains(referer, "twitter.com"), strings.Contains(referer, "x.com"):
		return "Twitter"
	case strings.Contains(referer, "linkedin.com"):
		return "LinkedIn"
	}
	return "Other"
}

func parseBrowser(ua string) string {
	if ua == "" {
		return "Other"
	}
	name, _ := useragent.New(ua).Browser()
	switch name {
	case "Chrome", "Safari", "Firefox", "Edge", "Opera":
		return name
	}
	// mssola reports Chromium-based Edge as Edge only in recent UA
	// strings; fall back to the token.
	if strings.Contains(ua, "Edg/") {
		return "Edge"
	}
	return "Other"
}

func parseDevice(ua string) string {
	if ua == "" {
		return "Desktop"
	}
	if strings.Contains(ua, "iPad") {
		return "Tablet"
	}
	if strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile") {
		return "Tablet"
	}
	if useragent.New(ua).Mobile() {
		return "Mobile"
	}
	return "Desktop"
}

// recordView inserts one analytics row, off the request path. Analytics
// failures are logged and never affect the viewer.
func (h *Handler) recordView(r *http.Request, contentID int64, causalEnabled bool) {
	ip := clientIP(r)
	ua := r.UserAgent()
	referer := r.Header.Get("Referer")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var country, city string
		if h.geoResolver != nil {
			country, city = h.geoResolver.Lookup(ip)
		}
		if _, err := h.db.Exec(ctx,
			`INSERT INTO content_views (content_id, viewer_hash, causal_enabled, referrer, browser, device, country, city)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			contentID, viewerHash(ip, ua), causalEnabled,
			categorizeReferrer(referer), parseBrowser(ua), parseDevice(ua), country, city,
		); err != nil {
			slog.Error("content: failed to record view", "content_id", contentID, "error", err)
		}
	}()
}

type statsBreakdown struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type statsResponse struct {
	TotalViews  int64            `json:"totalViews"`
	UniqueViews int64            `json:"uniqueViews"`
	CausalViews int64            `json:"causalViews"`
	Browsers    []statsBreakdown `json:"browsers"`
	Devices     []statsBreakdown `json:"devices"`
	Countries   []statsBreakdown `json:"countries"`
}

func (h *Handler) breakdown(ctx context.Context, contentID int64, column string) ([]statsBreakdown, error) {
	// column is one of three fixed identifiers below, never user input.
	rows, err := h.db.Query(ctx,
		`SELECT `+column+`, COUNT(*) FROM content_views
		 WHERE content_id = $1 AND `+column+` <> ''
		 GROUP BY `+column+`
		 ORDER BY COUNT(*) DESC, `+column,
		contentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]statsBreakdown, 0)
	for rows.Next() {
		var b statsBreakdown
		if err := rows.Scan(&b.Name, &b.Count); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// Stats summarizes the recorded views for one content variant.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
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

	var resp statsResponse
	err = h.db.QueryRow(r.Context(),
		`SELECT COUNT(*), COUNT(DISTINCT viewer_hash), COUNT(*) FILTER (WHERE causal_enabled)
		 FROM content_views WHERE content_id = $1`,
		it.ID,
	).Scan(&resp.TotalViews, &resp.UniqueViews, &resp.CausalViews)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	for _, col := range []struct {
		name string
		dest *[]statsBreakdown
	}{
		{"browser", &resp.Browsers},
		{"device", &resp.Devices},
		{"country", &resp.Countries},
	} {
		items, err := h.breakdown(r.Context(), it.ID, col.name)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		*col.dest = items
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
