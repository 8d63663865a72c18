package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/verte-zerg/statsheet/internal/model"
)

const (
	cacheKindInfo = "info"
	cacheKindStat = "stat"
)

// ResponseCache persists raw responses keyed by kind and key.
type ResponseCache interface {
	GetCached(ctx context.Context, kind, key string, notBefore time.Time) ([]byte, bool, error)
	PutCached(ctx context.Context, kind, key string, payload []byte, fetchedAt time.Time) error
}

// Cached answers from a response cache before falling back to an inner
// Transport. Keys are scoped by source, so entries from one data source are
// never served for another. A zero TTL keeps entries forever.
type Cached struct {
	inner   Transport
	source  string
	cache   ResponseCache
	ttl     time.Duration
	lookups *lru.Cache[string, lookupEntry]
	now     func() time.Time
}

type lookupEntry struct {
	info      *model.BasicCharacterInfo
	fetchedAt time.Time
}

// NewCached wraps inner, whose responses are stored under source.
// lookupSize bounds the in-memory lookup cache.
func NewCached(inner Transport, source string, cache ResponseCache, ttl time.Duration, lookupSize int) (*Cached, error) {
	lookups, err := lru.New[string, lookupEntry](lookupSize)
	if err != nil {
		return nil, fmt.Errorf("lookup cache: %w", err)
	}
	return &Cached{
		inner:   inner,
		source:  source,
		cache:   cache,
		ttl:     ttl,
		lookups: lookups,
		now:     time.Now,
	}, nil
}

// GetBasicCharacterInfo implements Transport.
func (c *Cached) GetBasicCharacterInfo(ctx context.Context, name string) (*model.BasicCharacterInfo, error) {
	now := c.now()
	notBefore := c.notBefore(now)
	key := c.source + "|" + name
	if entry, ok := c.lookups.Get(key); ok && !entry.fetchedAt.Before(notBefore) {
		return copyInfo(entry.info), nil
	}

	var info *model.BasicCharacterInfo
	if c.load(ctx, cacheKindInfo, key, notBefore, &info) {
		c.lookups.Add(key, lookupEntry{info: info, fetchedAt: now})
		return copyInfo(info), nil
	}

	info, err := c.inner.GetBasicCharacterInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	c.lookups.Add(key, lookupEntry{info: copyInfo(info), fetchedAt: now})
	c.store(ctx, cacheKindInfo, key, info, now)
	return info, nil
}

// GetCharacterStat implements Transport.
func (c *Cached) GetCharacterStat(ctx context.Context, opts model.CharacterStatOptions) (*model.CharacterUnit, error) {
	now := c.now()
	key := c.statKey(opts)

	var unit *model.CharacterUnit
	if c.load(ctx, cacheKindStat, key, c.notBefore(now), &unit) {
		return unit, nil
	}

	unit, err := c.inner.GetCharacterStat(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cacheKindStat, key, unit, now)
	return unit, nil
}

func (c *Cached) notBefore(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(-c.ttl)
}

func (c *Cached) load(ctx context.Context, kind, key string, notBefore time.Time, dst any) bool {
	payload, ok, err := c.cache.GetCached(ctx, kind, key, notBefore)
	if err != nil {
		slog.Warn("response cache read failed", "kind", kind, "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		slog.Warn("response cache entry unreadable", "kind", kind, "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cached) store(ctx context.Context, kind, key string, value any, now time.Time) {
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("response cache encode failed", "kind", kind, "key", key, "error", err)
		return
	}
	if err := c.cache.PutCached(ctx, kind, key, payload, now); err != nil {
		slog.Warn("response cache write failed", "kind", kind, "key", key, "error", err)
	}
}

func (c *Cached) statKey(opts model.CharacterStatOptions) string {
	return fmt.Sprintf("%s|%s|%d|%d", c.source, opts.Name, opts.Rarity, opts.Rank)
}

func copyInfo(info *model.BasicCharacterInfo) *model.BasicCharacterInfo {
	if info == nil {
		return nil
	}
	cp := *info
	return &cp
}
