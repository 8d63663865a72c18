package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/state"
	"github.com/verte-zerg/statsheet/internal/stats"
)

const rosterWidth = 28

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	panelStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X")))
	footerHeight = 1
	if m.prompt || m.status != "" || m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFooter() string {
	help := "Add: a  Remove: x  Rarity: ,/.  Rank: [/]  Level: -/= _/+  Apply: enter  Discard: esc  " +
		"Slot: tab  Equip: space  Enhance: e/E  All: A/M  Save: ctrl+s  Tabs: left/right  Quit: q"
	if m.activeTab == tabCompare {
		help = "Scroll: up/down  Add: a  Save: ctrl+s  Tabs: left/right  Quit: q"
	}
	lines := []string{headerStyle.Render(truncateLine(help, m.width))}
	switch {
	case m.prompt:
		lines = append(lines, m.input.View())
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(truncateLine(m.errMsg, m.width)))
	case m.status != "":
		lines = append(lines, mutedStyle.Render(truncateLine(m.status, m.width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody() string {
	if m.roster.Len() == 0 {
		return mutedStyle.Render("No units yet. Press a to add one.")
	}
	if m.activeTab == tabCompare {
		return m.renderCompare()
	}
	roster := panelStyle.Width(rosterWidth).Render(m.renderRoster())
	detail := m.renderDetail(m.selectedUnit())
	return lipgloss.JoinHorizontal(lipgloss.Top, roster, "  ", detail)
}

func (m *Model) renderRoster() string {
	units := m.roster.Units()
	lines := make([]string, 0, len(units))
	for i, u := range units {
		marker := "  "
		if i == m.selected {
			marker = "> "
		}
		line := marker + truncateLine(u.Name(), rosterWidth-8) + " " + stars(u.Rarity())
		if u.Loading() {
			line += " " + m.spinner.View()
		} else if u.Err() != nil {
			line += " " + errorStyle.Render("!")
		}
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderDetail(u *state.Item) string {
	if u == nil {
		return ""
	}
	d := m.draftFor(u)
	title := selectedStyle.Render(u.Name())
	if u.Loading() {
		title += " " + m.spinner.View()
	}
	lines := []string{title, renderDraftLine(d, d.Dirty(u))}
	if err := u.Err(); err != nil {
		lines = append(lines, errorStyle.Render(err.Error()))
	}

	equips := u.Equipments()
	if len(equips) > 0 {
		lines = append(lines, "", headerStyle.Render("Equipment"))
		for i, eq := range equips {
			lines = append(lines, renderSlot(eq, i == m.slot))
		}
	}

	lines = append(lines, "")
	stat, ok := u.Stat()
	switch {
	case ok:
		lines = append(lines, stats.FormatSheet(stat, 2)...)
	case u.Loading():
		lines = append(lines, mutedStyle.Render("Loading..."))
	default:
		lines = append(lines, mutedStyle.Render("No stat data."))
	}
	return strings.Join(lines, "\n")
}

func renderDraftLine(d state.Draft, dirty bool) string {
	line := fmt.Sprintf("Rarity %s  Rank %d  Level %d", stars(d.Rarity), d.Rank, d.Level)
	if dirty {
		line += " " + accentStyle.Render("(modified)")
	}
	return line
}

func renderSlot(eq *state.EquipmentItem, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	var line string
	if eq.Kind() == state.SlotUnknown {
		line = marker + "[?] " + mutedStyle.Render(eq.Name())
	} else {
		box := "[ ]"
		if eq.Equipped() {
			box = "[x]"
		}
		data, _ := eq.Equipment()
		line = fmt.Sprintf("%s%s %s (%s) +%d/%d", marker, box, eq.Name(), tierName(data.PromotionLevel), eq.EnhanceLevel(), eq.MaxEnhanceLevel())
	}
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func tierName(p model.PromotionLevel) string {
	name := strings.ToLower(p.String())
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func stars(rarity int) string {
	rarity = min(state.MaxRarity, max(0, rarity))
	return strings.Repeat("★", rarity) + strings.Repeat("☆", state.MaxRarity-rarity)
}

func (m *Model) renderCompare() string {
	var names []string
	var sheets []model.Stat
	for _, u := range m.roster.Units() {
		stat, ok := u.Stat()
		if !ok {
			continue
		}
		names = append(names, u.Name())
		sheets = append(sheets, stat)
	}
	if len(names) == 0 {
		return mutedStyle.Render("No loaded units to compare.")
	}
	headers, rows := stats.CompareTable(names, sheets)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		width := runewidth.StringWidth(h)
		for _, row := range rows {
			width = max(width, runewidth.StringWidth(row[i]))
		}
		cols[i] = table.Column{Title: h, Width: width}
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	_, bodyHeight, _ := m.layoutHeights()
	// Clear rows first so no row is wider than the new column set.
	m.compare.SetRows(nil)
	m.compare.SetColumns(cols)
	m.compare.SetRows(tableRows)
	m.compare.SetWidth(m.width)
	m.compare.SetHeight(max(1, bodyHeight-1))
	return m.compare.View()
}

func compareTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
