package geoip

import (
	"log/slog"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// Resolver answers country/city lookups from a MaxMind database. A zero
// Resolver (no database) answers every lookup with empty strings, so view
// recording works unchanged when geolocation is not configured.
type Resolver struct {
	db *maxminddb.Reader
}

type record struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
}

func New(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: database unavailable, geolocation disabled", "path", dbPath, "error", err)
		return &Resolver{}, nil
	}
	slog.Info("geoip: database loaded", "path", dbPath)
	return &Resolver{db: db}, nil
}

func (r *Resolver) Lookup(ipStr string) (country, city string) {
	if r.db == nil {
		return "", ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", ""
	}

	var rec record
	if err := r.db.Lookup(ip, &rec); err != nil {
		return "", ""
	}
	city = rec.City.Names["en"]
	if city == "" && len(rec.City.Names) > 0 {
		for _, name := range rec.City.Names {
			city = name
			break
		}
	}
	return rec.Country.ISOCode, city
}

func (r *Resolver) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
