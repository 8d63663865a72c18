package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/statsheet/internal/model"
)

func TestFromConfigRequiresSource(t *testing.T) {
	_, err := FromConfig(model.Config{}, nil)
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestFromConfigPrefersFixture(t *testing.T) {
	cfg := model.Config{
		Endpoint: "http://localhost:1/graphql",
		Fixture:  writeFixture(t, sampleFixture),
		Timeout:  time.Second,
	}
	tr, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if _, ok := tr.(*Fixture); !ok {
		t.Fatalf("expected fixture transport, got %T", tr)
	}
}

func TestFromConfigWrapsWithCache(t *testing.T) {
	cfg := model.Config{
		Endpoint:        "http://localhost:1/graphql",
		Timeout:         time.Second,
		CacheEnabled:    true,
		LookupCacheSize: 4,
	}
	tr, err := FromConfig(cfg, openCacheStore(t))
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if _, ok := tr.(*Cached); !ok {
		t.Fatalf("expected cached transport, got %T", tr)
	}

	cfg.CacheEnabled = false
	tr, err = FromConfig(cfg, openCacheStore(t))
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if g, ok := tr.(*GraphQL); !ok || g.Endpoint() != cfg.Endpoint {
		t.Fatalf("expected plain GraphQL transport, got %T", tr)
	}
}
