package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/state"
	"github.com/verte-zerg/statsheet/internal/transport"
)

const testFixture = `characters:
  - id: 100101
    name: Tomo
    rarity: 1
    stats:
      1:
        base: {atk: 100, hp: 1000}
        growthRate: {atk: 1}
    ranks:
      1:
        equipments:
          - id: 101
            name: Sword
            promotionLevel: silver
            stat: {atk: 50}
            growthRate: {atk: 5}
          - null
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

type failingStats struct {
	transport.Transport
}

func (failingStats) GetCharacterStat(context.Context, model.CharacterStatOptions) (*model.CharacterUnit, error) {
	return nil, errors.New("offline")
}

type recordingSaver struct {
	names []string
	snaps []model.Snapshot
}

func (r *recordingSaver) SaveSnapshot(_ context.Context, name string, snap model.Snapshot, _ time.Time) error {
	r.names = append(r.names, name)
	r.snaps = append(r.snaps, snap)
	return nil
}

func fixtureTransport(t *testing.T) transport.Transport {
	t.Helper()
	f, err := transport.ParseFixture([]byte(testFixture))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return f
}

func newTestModel(t *testing.T, tr transport.Transport, saver SnapshotSaver) *Model {
	t.Helper()
	m := NewModel(state.New(tr), saver, model.Config{Timeout: time.Second, SnapshotName: "default"}, nil)
	send(m, tea.WindowSizeMsg{Width: 180, Height: 40})
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func send(m *Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = send(m, keyMsg(k))
	}
	return cmd
}

// run executes cmd and feeds lookup, fetch and save results back into m.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case lookupDoneMsg, fetchDoneMsg, snapshotSavedMsg:
		run(t, m, send(m, msg))
	default:
		t.Fatalf("unexpected message %T", msg)
	}
}

func addUnit(t *testing.T, m *Model, name string) {
	t.Helper()
	press(m, "a")
	for _, r := range name {
		send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	run(t, m, press(m, "enter"))
}

func atk(t *testing.T, u *state.Item) float64 {
	t.Helper()
	stat, ok := u.Stat()
	if !ok {
		t.Fatalf("expected loaded stat for %s", u.Name())
	}
	return stat.Get(model.Atk)
}

func TestAddUnitThroughPrompt(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")

	if m.roster.Len() != 1 {
		t.Fatalf("expected one unit, got %d", m.roster.Len())
	}
	u := m.roster.Units()[0]
	if u.Loading() || !u.Loaded() {
		t.Fatalf("expected loaded unit, loading=%v loaded=%v", u.Loading(), u.Loaded())
	}
	if got := atk(t, u); got != 102 {
		t.Fatalf("expected atk 102, got %v", got)
	}
	view := m.View()
	for _, want := range []string{"Tomo", "Sword", "Physical ATK", "102"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestAddUnknownUnitShowsStatus(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Nobody")
	if m.roster.Len() != 0 {
		t.Fatalf("expected empty roster")
	}
	if !strings.Contains(m.View(), `No character named "Nobody"`) {
		t.Fatalf("expected miss status, got:\n%s", m.View())
	}
}

func TestPromptEscapeCancels(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	press(m, "a", "T", "o")
	if cmd := press(m, "esc"); cmd != nil {
		t.Fatalf("expected no command on escape")
	}
	if m.prompt {
		t.Fatalf("expected prompt closed")
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input reset, got %q", m.input.Value())
	}
}

func TestDraftShowsModifiedUntilDiscarded(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")

	press(m, ".")
	if !strings.Contains(m.View(), "(modified)") {
		t.Fatalf("expected modified marker")
	}
	if got := m.roster.Units()[0].Rarity(); got != 1 {
		t.Fatalf("draft must not touch the unit, rarity %d", got)
	}
	press(m, "esc")
	if strings.Contains(m.View(), "(modified)") {
		t.Fatalf("expected marker cleared after discard")
	}
}

func TestApplyLevelOnlyDoesNotFetch(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")

	press(m, "+", "=")
	if cmd := press(m, "enter"); cmd != nil {
		t.Fatalf("expected no fetch for a level-only change")
	}
	u := m.roster.Units()[0]
	if u.Level() != 12 {
		t.Fatalf("expected level 12, got %d", u.Level())
	}
	if got := atk(t, u); got != 113 {
		t.Fatalf("expected atk 113, got %v", got)
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")

	first := press(m, "]", "enter")
	second := press(m, "[", "enter")
	if first == nil || second == nil {
		t.Fatalf("expected two fetch commands")
	}
	u := m.roster.Units()[0]

	run(t, m, second)
	if !u.Loading() {
		t.Fatalf("expected unit still loading with one fetch outstanding")
	}
	run(t, m, first)
	if u.Loading() {
		t.Fatalf("expected loading cleared")
	}
	if got := atk(t, u); got != 102 {
		t.Fatalf("expected rank 1 data to win, got atk %v", got)
	}
}

func TestEquipmentKeys(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")
	u := m.roster.Units()[0]

	press(m, " ")
	if got := atk(t, u); got != 152 {
		t.Fatalf("expected equipped sword, got atk %v", got)
	}
	press(m, "e", "e", "e", "e")
	if got := atk(t, u); got != 167 {
		t.Fatalf("expected enhance capped at 3, got atk %v", got)
	}
	press(m, "E")
	if got := atk(t, u); got != 162 {
		t.Fatalf("expected enhance 2, got atk %v", got)
	}
	press(m, "A")
	if got := atk(t, u); got != 102 {
		t.Fatalf("expected everything unequipped, got atk %v", got)
	}
	press(m, "A", "M")
	if got := atk(t, u); got != 167 {
		t.Fatalf("expected all equipped at max, got atk %v", got)
	}

	press(m, "tab")
	if m.slot != 1 {
		t.Fatalf("expected second slot, got %d", m.slot)
	}
	press(m, " ")
	if got := atk(t, u); got != 167 {
		t.Fatalf("unknown slot must ignore toggles, got atk %v", got)
	}
	press(m, "shift+tab", "shift+tab")
	if m.slot != 1 {
		t.Fatalf("expected wrap to last slot, got %d", m.slot)
	}
}

func TestRemoveUnit(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")
	addUnit(t, m, "Kyaru")
	if m.selected != 1 {
		t.Fatalf("expected newest unit selected, got %d", m.selected)
	}
	press(m, "x")
	if m.roster.Len() != 1 || m.roster.Units()[0].Name() != "Tomo" {
		t.Fatalf("expected Kyaru removed")
	}
	if m.selected != 0 {
		t.Fatalf("expected selection clamped, got %d", m.selected)
	}
	press(m, "x")
	if !strings.Contains(m.View(), "No units yet") {
		t.Fatalf("expected empty roster view")
	}
}

func TestFetchForRemovedUnitIsIgnored(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	cmd := send(m, lookupDoneMsg{name: "Tomo", info: &model.BasicCharacterInfo{ID: 100101, Name: "Tomo", Rarity: 1}})
	if cmd == nil {
		t.Fatalf("expected fetch command")
	}
	press(m, "x")
	run(t, m, cmd)
	if m.roster.Len() != 0 {
		t.Fatalf("expected roster to stay empty")
	}
}

func TestFetchErrorShownOnUnit(t *testing.T) {
	m := newTestModel(t, failingStats{fixtureTransport(t)}, nil)
	addUnit(t, m, "Tomo")
	u := m.roster.Units()[0]
	if u.Loading() {
		t.Fatalf("expected loading cleared after failure")
	}
	if u.Err() == nil {
		t.Fatalf("expected unit error")
	}
	if !strings.Contains(m.View(), "offline") {
		t.Fatalf("expected error line in view:\n%s", m.View())
	}
}

func TestCompareTabListsLoadedUnits(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	addUnit(t, m, "Tomo")
	addUnit(t, m, "Kyaru")
	press(m, "right")
	view := m.View()
	for _, want := range []string{"Stat", "Tomo", "Kyaru", "Physical ATK", "84"} {
		if !strings.Contains(view, want) {
			t.Fatalf("compare view missing %q:\n%s", want, view)
		}
	}
}

func TestSaveSnapshot(t *testing.T) {
	saver := &recordingSaver{}
	m := newTestModel(t, fixtureTransport(t), saver)
	addUnit(t, m, "Tomo")
	run(t, m, press(m, "ctrl+s"))
	if len(saver.names) != 1 || saver.names[0] != "default" {
		t.Fatalf("unexpected saves: %v", saver.names)
	}
	if units := saver.snaps[0].Units; len(units) != 1 || units[0].Name != "Tomo" {
		t.Fatalf("unexpected snapshot: %+v", saver.snaps[0])
	}
	if !strings.Contains(m.View(), `Saved snapshot "default"`) {
		t.Fatalf("expected save status")
	}
}

func TestSaveWithoutSaver(t *testing.T) {
	m := newTestModel(t, fixtureTransport(t), nil)
	if cmd := press(m, "ctrl+s"); cmd != nil {
		t.Fatalf("expected no command without a saver")
	}
	if !strings.Contains(m.status, "unavailable") {
		t.Fatalf("unexpected status %q", m.status)
	}
}
