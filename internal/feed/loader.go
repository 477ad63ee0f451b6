package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/causaview/causaview/internal/causal"
	"github.com/causaview/causaview/internal/transcript"
)

const videoURLExpiry = 1 * time.Hour

// Bundle is everything one content variant needs for viewing: the decoded
// transcript, the causal annotation when requested, and a presigned video
// URL. Warnings carry the non-fatal degradations (missing or malformed
// feeds) so the page can tell the viewer what is unavailable.
type Bundle struct {
	Language      string               `json:"language"`
	Video         string               `json:"video"`
	VideoURL      string               `json:"videoUrl"`
	Segments      []transcript.Segment `json:"segments"`
	NodeLabels    []string             `json:"nodeLabels"`
	Edges         []causal.Edge        `json:"edges"`
	CausalEnabled bool                 `json:"causalEnabled"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// Labels returns the bounds-checked label view.
func (b *Bundle) Labels() causal.Labels {
	return causal.NewLabels(b.NodeLabels)
}

// Loader assembles bundles from the corpus bucket. Decoded bundles are kept
// in a small TTL cache: the corpus is tiny and read-heavy, and feeds only
// change when the offline annotation pipeline republishes.
type Loader struct {
	store  ObjectStore
	prefix string
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cachedBundle
}

type cachedBundle struct {
	bundle  *Bundle
	fetched time.Time
}

func NewLoader(store ObjectStore, prefix string, cacheTTL time.Duration) *Loader {
	if prefix == "" {
		prefix = "data"
	}
	return &Loader{
		store:  store,
		prefix: prefix,
		ttl:    cacheTTL,
		cache:  make(map[string]cachedBundle),
	}
}

func stem(video string) string {
	return strings.TrimSuffix(video, path.Ext(video))
}

// Object key layout mirrors the published corpus:
// <prefix>/<language>/videos/<video>, .../time_stamp/<stem>.json,
// .../causal_graphs/<stem>_nodes.txt and <stem>_edges.txt.
func (l *Loader) videoKey(language, video string) string {
	return path.Join(l.prefix, language, "videos", video)
}

func (l *Loader) transcriptKey(language, video string) string {
	return path.Join(l.prefix, language, "time_stamp", stem(video)+".json")
}

func (l *Loader) nodesKey(language, video string) string {
	return path.Join(l.prefix, language, "causal_graphs", stem(video)+"_nodes.txt")
}

func (l *Loader) edgesKey(language, video string) string {
	return path.Join(l.prefix, language, "causal_graphs", stem(video)+"_edges.txt")
}

func splitLines(data []byte) []string {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// Bundle fetches and decodes every feed for one content variant.
// causalEnabled is threaded explicitly; node and edge feeds are only
// requested when it is set. Missing or undecodable feeds degrade (empty
// transcript, empty causal data) with a warning; the video must stay
// playable through every feed failure. Only a presign failure is an error,
// since without a video URL there is nothing left to view.
func (l *Loader) Bundle(ctx context.Context, language, video string, causalEnabled bool) (*Bundle, error) {
	cacheKey := fmt.Sprintf("%s/%s/causal=%t", language, video, causalEnabled)

	l.mu.Lock()
	if entry, ok := l.cache[cacheKey]; ok && time.Since(entry.fetched) < l.ttl {
		l.mu.Unlock()
		return entry.bundle, nil
	}
	l.mu.Unlock()

	b := &Bundle{
		Language:      language,
		Video:         video,
		Segments:      []transcript.Segment{},
		NodeLabels:    []string{},
		Edges:         []causal.Edge{},
		CausalEnabled: causalEnabled,
	}

	videoURL, err := l.store.PresignGet(ctx, l.videoKey(language, video), videoURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign video %s/%s: %w", language, video, err)
	}
	b.VideoURL = videoURL

	if data, err := l.store.Get(ctx, l.transcriptKey(language, video)); err != nil {
		slog.Warn("feed: transcript unavailable", "language", language, "video", video, "error", err)
		b.Warnings = append(b.Warnings, "transcript not available")
	} else if segments, err := transcript.Decode(bytes.NewReader(data)); err != nil {
		slog.Warn("feed: transcript undecodable", "language", language, "video", video, "error", err)
		b.Warnings = append(b.Warnings, "transcript not available")
	} else {
		b.Segments = segments
	}

	if causalEnabled {
		if data, err := l.store.Get(ctx, l.nodesKey(language, video)); err != nil {
			if !errors.Is(err, ErrNotFound) {
				slog.Warn("feed: node labels fetch failed", "language", language, "video", video, "error", err)
			}
			b.Warnings = append(b.Warnings, "causal node labels not available")
		} else {
			b.NodeLabels = causal.ParseLabels(splitLines(data))
		}

		if data, err := l.store.Get(ctx, l.edgesKey(language, video)); err != nil {
			if !errors.Is(err, ErrNotFound) {
				slog.Warn("feed: edges fetch failed", "language", language, "video", video, "error", err)
			}
			b.Warnings = append(b.Warnings, "causal relations not available")
		} else {
			b.Edges = causal.ParseEdges(splitLines(data))
		}
	}

	l.mu.Lock()
	l.cache[cacheKey] = cachedBundle{bundle: b, fetched: time.Now()}
	l.mu.Unlock()
	return b, nil
}
