package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/statsheet/internal/config"
	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/state"
	"github.com/verte-zerg/statsheet/internal/store"
	"github.com/verte-zerg/statsheet/internal/transport"
)

const cliFixture = `characters:
  - id: 100101
    name: Tomo
    rarity: 1
    stats:
      1:
        base: {atk: 100, hp: 1000}
        growthRate: {atk: 1}
    ranks:
      2:
        statByRank: {atk: 10}
        equipments:
          - id: 101
            name: Sword
            promotionLevel: silver
            stat: {atk: 50}
            growthRate: {atk: 5}
          - null
  - id: 100201
    name: Kyaru
    rarity: 1
    stats:
      1:
        base: {atk: 80}
        growthRate: {atk: 2}
`

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	fixture := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(fixture, []byte(cliFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return fixture
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestShowPrintsSheet(t *testing.T) {
	fixture := isolate(t)
	out, err := execute(t, "show", "Tomo", "--fixture", fixture, "--no-cache",
		"--rank", "2", "--level", "10", "--equip", "--enhance-max")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	for _, want := range []string{"Tomo  rarity 1  rank 2  level 10", "Physical ATK", "187", "1000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowSkipsUnknownNames(t *testing.T) {
	fixture := isolate(t)
	out, err := execute(t, "show", "Nobody", "Kyaru", "--fixture", fixture, "--no-cache")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Kyaru") || strings.Contains(out, "Nobody") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "show", "Nobody", "--fixture", fixture, "--no-cache"); err == nil {
		t.Fatalf("expected error when no name resolves")
	}
}

func TestShowCompare(t *testing.T) {
	fixture := isolate(t)
	out, err := execute(t, "show", "Tomo", "Kyaru", "--fixture", fixture, "--no-cache", "--compare")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "Stat") {
		t.Fatalf("expected compare header, got:\n%s", out)
	}
	if !strings.Contains(lines[0], "Tomo") || !strings.Contains(lines[0], "Kyaru") {
		t.Fatalf("expected both units in header: %q", lines[0])
	}
}

func TestShowRejectsBadColumns(t *testing.T) {
	fixture := isolate(t)
	if _, err := execute(t, "show", "Tomo", "--fixture", fixture, "--columns", "0"); err == nil {
		t.Fatalf("expected --columns error")
	}
}

func TestShowFillsCacheThenClear(t *testing.T) {
	fixture := isolate(t)
	if out, err := execute(t, "show", "Tomo", "--fixture", fixture); err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	out, err := execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Removed 2 cached responses") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSnapshotsListAndDelete(t *testing.T) {
	isolate(t)
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	snap := model.Snapshot{Units: []model.UnitSnapshot{{Name: "Tomo", Rarity: 1, Rank: 1, Level: 1}}}
	if err := st.SaveSnapshot(context.Background(), "main", snap, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := execute(t, "snapshots")
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if !strings.Contains(out, "main") || !strings.Contains(out, "2 hours ago") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out, err = execute(t, "snapshots", "delete", "main")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, `Deleted snapshot "main"`) {
		t.Fatalf("unexpected delete output: %q", out)
	}
	if _, err := execute(t, "snapshots", "delete", "main"); err == nil {
		t.Fatalf("expected error deleting a missing snapshot")
	}
}

func TestResolveConfigPrecedence(t *testing.T) {
	isolate(t)
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "[source]\nendpoint = \"https://file.test\"\ntimeout = \"3s\"\n\n[cache]\nttl = \"1h\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STATSHEET_ENDPOINT", "https://env.test")
	t.Setenv("STATSHEET_CACHE_TTL", "2h")

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--cache-ttl", "30m", "--no-cache"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Endpoint != "https://env.test" {
		t.Fatalf("expected env endpoint, got %q", cfg.Endpoint)
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("expected file timeout, got %s", cfg.Timeout)
	}
	if cfg.CacheTTL != 30*time.Minute || cfg.CacheEnabled {
		t.Fatalf("expected flag overrides, got %+v", cfg)
	}
}

func TestDefaultConfigTemplateMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	file, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := model.Config{}
	if err := file.Apply(&cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg != config.Defaults() {
		t.Fatalf("template drifted from defaults: %+v", cfg)
	}
}

type stallingTransport struct {
	sawDeadline bool
}

func (s *stallingTransport) GetBasicCharacterInfo(ctx context.Context, _ string) (*model.BasicCharacterInfo, error) {
	_, s.sawDeadline = ctx.Deadline()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *stallingTransport) GetCharacterStat(ctx context.Context, _ model.CharacterStatOptions) (*model.CharacterUnit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func saveTestSnapshot(t *testing.T, name string, snap model.Snapshot) *store.Store {
	t.Helper()
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.SaveSnapshot(context.Background(), name, snap, time.Now()); err != nil {
		t.Fatalf("save: %v", err)
	}
	return st
}

func TestRestoreSnapshotLoadsUnits(t *testing.T) {
	fixture := isolate(t)
	snap := model.Snapshot{Units: []model.UnitSnapshot{{Name: "Tomo", Rarity: 1, Rank: 2, Level: 3}}}
	st := saveTestSnapshot(t, "main", snap)
	tr, err := transport.LoadFixture(fixture)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	roster := state.New(tr)

	if err := restoreSnapshot(context.Background(), st, roster, "main", time.Second); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if roster.Len() != 1 {
		t.Fatalf("expected one unit, got %d", roster.Len())
	}
	if err := restoreSnapshot(context.Background(), st, roster, "missing", time.Second); err == nil {
		t.Fatalf("expected error for a missing snapshot")
	}
}

func TestRestoreSnapshotHonorsTimeout(t *testing.T) {
	isolate(t)
	snap := model.Snapshot{Units: []model.UnitSnapshot{{Name: "Tomo", Rarity: 1, Rank: 1, Level: 1}}}
	st := saveTestSnapshot(t, "main", snap)
	tr := &stallingTransport{}
	roster := state.New(tr)

	done := make(chan error, 1)
	go func() {
		done <- restoreSnapshot(context.Background(), st, roster, "main", 20*time.Millisecond)
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("restore did not stop at its timeout")
	}
	if !tr.sawDeadline {
		t.Fatalf("expected lookup context to carry a deadline")
	}
	if roster.Len() != 0 {
		t.Fatalf("expected no units, got %d", roster.Len())
	}
}
