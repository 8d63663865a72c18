// Package tui provides the Bubble Tea roster interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/state"
	"github.com/verte-zerg/statsheet/internal/transport"
)

const (
	tabUnits = iota
	tabCompare
)

// SnapshotSaver persists roster snapshots.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, name string, snap model.Snapshot, savedAt time.Time) error
}

type lookupDoneMsg struct {
	name string
	info *model.BasicCharacterInfo
	err  error
}

type fetchDoneMsg struct {
	res state.FetchResult
}

type snapshotSavedMsg struct {
	name string
	err  error
}

// Model implements the Bubble Tea roster UI. All roster mutation happens in
// Update; transport calls run as commands and report back as messages.
type Model struct {
	roster *state.Store
	saver  SnapshotSaver
	cfg    model.Config

	initial []string

	tabs      []string
	activeTab int
	selected  int
	slot      int
	drafts    map[int]state.Draft

	prompt  bool
	input   textinput.Model
	spinner spinner.Model
	compare table.Model

	status string
	errMsg string

	width  int
	height int
}

// NewModel constructs a roster UI over roster. Names in initial are looked up
// when the program starts. saver may be nil to disable snapshot saving.
func NewModel(roster *state.Store, saver SnapshotSaver, cfg model.Config, initial []string) *Model {
	m := &Model{
		roster:  roster,
		saver:   saver,
		cfg:     cfg,
		initial: initial,
		tabs:    []string{"Units", "Compare"},
		drafts:  map[int]state.Draft{},
	}
	m.input = textinput.New()
	m.input.Prompt = "Add unit: "
	m.input.Placeholder = "character name"
	m.input.Cursor.SetMode(cursor.CursorBlink)
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle))
	m.compare = table.New(table.WithStyles(compareTableStyles()))
	for _, u := range roster.Units() {
		m.drafts[u.ID()] = state.NewDraft(u)
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	for _, name := range m.initial {
		cmds = append(cmds, m.lookupCmd(name))
	}
	m.initial = nil
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case lookupDoneMsg:
		return m, m.handleLookup(msg)
	case fetchDoneMsg:
		m.handleFetch(msg)
		return m, nil
	case snapshotSavedMsg:
		if msg.err != nil {
			slog.Warn("snapshot save failed", "name", msg.name, "error", msg.err)
			m.errMsg = fmt.Sprintf("save snapshot %q: %v", msg.name, msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Saved snapshot %q", msg.name)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.prompt {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		m.closePrompt()
		if name == "" {
			return m, nil
		}
		m.status = fmt.Sprintf("Looking up %q...", name)
		return m, m.lookupCmd(name)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompt = false
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, nil
	case "right", "l":
		m.moveTab(1)
		return m, nil
	case "a":
		m.prompt = true
		m.errMsg = ""
		return m, m.input.Focus()
	case "ctrl+s":
		return m, m.saveCmd()
	}
	if m.activeTab == tabCompare {
		var cmd tea.Cmd
		m.compare, cmd = m.compare.Update(msg)
		return m, cmd
	}
	return m, m.updateUnitKeys(msg)
}

func (m *Model) updateUnitKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		m.moveSelection(-1)
		return nil
	case "down", "j":
		m.moveSelection(1)
		return nil
	}
	u := m.selectedUnit()
	if u == nil {
		return nil
	}
	d := m.draftFor(u)
	equips := u.Equipments()
	switch msg.String() {
	case "x":
		m.roster.RemoveUnit(u.ID())
		delete(m.drafts, u.ID())
		m.moveSelection(0)
		m.status = fmt.Sprintf("Removed %s", u.Name())
		return nil
	case ",":
		d.AddRarity(-1)
	case ".":
		d.AddRarity(1)
	case "[":
		d.AddRank(-1)
	case "]":
		d.AddRank(1)
	case "-":
		d.AddLevel(-1)
	case "=":
		d.AddLevel(1)
	case "_":
		d.AddLevel(-10)
	case "+":
		d.AddLevel(10)
	case "enter":
		return m.applyDraft(u)
	case "esc":
		d = state.NewDraft(u)
	case "tab":
		m.moveSlot(1, len(equips))
		return nil
	case "shift+tab":
		m.moveSlot(-1, len(equips))
		return nil
	case " ":
		if eq := slotAt(equips, m.slot); eq != nil {
			eq.ToggleEquipped()
		}
		return nil
	case "e":
		if eq := slotAt(equips, m.slot); eq != nil {
			eq.SetEnhanceLevel(eq.EnhanceLevel() + 1)
		}
		return nil
	case "E":
		if eq := slotAt(equips, m.slot); eq != nil {
			eq.SetEnhanceLevel(eq.EnhanceLevel() - 1)
		}
		return nil
	case "A":
		state.ToggleAllEquipped(equips)
		return nil
	case "M":
		state.ToggleAllEnhanced(equips)
		return nil
	default:
		return nil
	}
	m.drafts[u.ID()] = d
	return nil
}

func (m *Model) applyDraft(u *state.Item) tea.Cmd {
	d := m.draftFor(u)
	changed := u.UpdateOptions(d.Options())
	m.drafts[u.ID()] = state.NewDraft(u)
	if !changed {
		return nil
	}
	return m.fetchCmd(u.BeginFetch())
}

func (m *Model) handleLookup(msg lookupDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		m.status = ""
		return nil
	}
	if msg.info == nil {
		m.status = fmt.Sprintf("No character named %q", msg.name)
		return nil
	}
	u := m.roster.Insert(*msg.info)
	m.drafts[u.ID()] = state.NewDraft(u)
	m.selected = m.roster.Len() - 1
	m.slot = 0
	m.status = fmt.Sprintf("Added %s", u.Name())
	return m.fetchCmd(u.BeginFetch())
}

func (m *Model) handleFetch(msg fetchDoneMsg) {
	u, ok := m.roster.Unit(msg.res.UnitID)
	if !ok {
		// Unit removed while its fetch was in flight.
		return
	}
	if err := u.Finish(msg.res); err != nil {
		slog.Warn("fetch failed", "unit", u.Name(), "error", err)
	}
	d := m.draftFor(u)
	if d.Sync(u) {
		m.drafts[u.ID()] = d
	}
	if equips := u.Equipments(); m.slot >= len(equips) {
		m.slot = max(0, len(equips)-1)
	}
}

func (m *Model) lookupCmd(name string) tea.Cmd {
	t := m.roster.Transport()
	timeout := m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		info, err := t.GetBasicCharacterInfo(ctx, name)
		if err != nil {
			err = fmt.Errorf("look up %q: %w", name, err)
		}
		return lookupDoneMsg{name: name, info: info, err: err}
	}
}

func (m *Model) fetchCmd(req state.FetchRequest) tea.Cmd {
	t := m.roster.Transport()
	timeout := m.cfg.Timeout
	return func() tea.Msg {
		return fetchDoneMsg{res: runFetch(req, t, timeout)}
	}
}

func runFetch(req state.FetchRequest, t transport.Transport, timeout time.Duration) state.FetchResult {
	ctx, cancel := withTimeout(timeout)
	defer cancel()
	return req.Run(ctx, t)
}

func (m *Model) saveCmd() tea.Cmd {
	if m.saver == nil {
		m.status = "Snapshots are unavailable"
		return nil
	}
	saver := m.saver
	name := m.cfg.SnapshotName
	snap := m.roster.Snapshot()
	return func() tea.Msg {
		err := saver.SaveSnapshot(context.Background(), name, snap, time.Now())
		return snapshotSavedMsg{name: name, err: err}
	}
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (m *Model) selectedUnit() *state.Item {
	units := m.roster.Units()
	if m.selected < 0 || m.selected >= len(units) {
		return nil
	}
	return units[m.selected]
}

func (m *Model) draftFor(u *state.Item) state.Draft {
	d, ok := m.drafts[u.ID()]
	if !ok {
		d = state.NewDraft(u)
		m.drafts[u.ID()] = d
	}
	return d
}

func (m *Model) moveSelection(delta int) {
	count := m.roster.Len()
	if count == 0 {
		m.selected = 0
		return
	}
	next := min(count-1, max(0, m.selected+delta))
	if next != m.selected {
		m.slot = 0
	}
	m.selected = next
}

func (m *Model) moveSlot(delta, count int) {
	if count == 0 {
		m.slot = 0
		return
	}
	m.slot = (m.slot + delta + count) % count
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabCompare {
		m.compare.Focus()
	} else {
		m.compare.Blur()
	}
}

func slotAt(equips []*state.EquipmentItem, i int) *state.EquipmentItem {
	if i < 0 || i >= len(equips) {
		return nil
	}
	return equips[i]
}
