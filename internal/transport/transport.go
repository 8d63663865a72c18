// Package transport provides the data sources for character lookups and stat
// data.
package transport

import (
	"context"
	"errors"

	"github.com/verte-zerg/statsheet/internal/model"
)

// ErrNoSource is returned when neither an endpoint nor a fixture is
// configured.
var ErrNoSource = errors.New("no data source configured")

// Transport resolves character data. Implementations are shared by every
// unit and must be safe for concurrent use.
type Transport interface {
	// GetBasicCharacterInfo resolves a display name. It returns nil, nil for
	// unknown names.
	GetBasicCharacterInfo(ctx context.Context, name string) (*model.BasicCharacterInfo, error)
	// GetCharacterStat returns stat data for the given query key, or nil when
	// the source has none.
	GetCharacterStat(ctx context.Context, opts model.CharacterStatOptions) (*model.CharacterUnit, error)
}

// FromConfig builds the configured data source. A fixture takes precedence
// over the endpoint. When cache is non-nil and caching is enabled, the source
// is wrapped in Cached.
func FromConfig(cfg model.Config, cache ResponseCache) (Transport, error) {
	var (
		inner  Transport
		source string
	)
	switch {
	case cfg.Fixture != "":
		fixture, err := LoadFixture(cfg.Fixture)
		if err != nil {
			return nil, err
		}
		inner, source = fixture, fixture.Source()
	case cfg.Endpoint != "":
		g := NewGraphQL(cfg.Endpoint, cfg.Timeout)
		inner, source = g, g.Source()
	default:
		return nil, ErrNoSource
	}
	if cache == nil || !cfg.CacheEnabled {
		return inner, nil
	}
	return NewCached(inner, source, cache, cfg.CacheTTL, cfg.LookupCacheSize)
}
