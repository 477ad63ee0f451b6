package content

import (
	"context"
	"time"

	"github.com/causaview/causaview/internal/database"
	"github.com/causaview/causaview/internal/feed"
	"github.com/causaview/causaview/internal/geoip"
	"github.com/causaview/causaview/internal/viewer"
)

// BundleLoader is the slice of the feed loader the handlers need.
type BundleLoader interface {
	Bundle(ctx context.Context, language, video string, causalEnabled bool) (*feed.Bundle, error)
}

// Handler serves the catalog, the view payloads, the viewer page and the
// session API.
type Handler struct {
	db           database.DBTX
	feeds        BundleLoader
	sessions     *viewer.Registry
	geoResolver  *geoip.Resolver
	hmacSecret   string
	secureCookie bool
	strictRender bool
}

func NewHandler(db database.DBTX, feeds BundleLoader, sessions *viewer.Registry, geo *geoip.Resolver, hmacSecret string, secureCookie, strictRender bool) *Handler {
	return &Handler{
		db:           db,
		feeds:        feeds,
		sessions:     sessions,
		geoResolver:  geo,
		hmacSecret:   hmacSecret,
		secureCookie: secureCookie,
		strictRender: strictRender,
	}
}

// item is one catalog row.
type item struct {
	ID             int64
	Language       string
	VideoFile      string
	Title          string
	HasCausalGraph bool
	PasswordHash   *string
	CreatedAt      time.Time
}
