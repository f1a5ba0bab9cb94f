package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kcoord/pkg/coord"
	"kcoord/pkg/ui/base"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SnapshotSource yields a consistent view of the coordination managers.
type SnapshotSource interface {
	Snapshot() coord.Snapshot
}

type tab int

const (
	tabLocks tab = iota
	tabArbiters
	tabHotspots
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabLocks:
		return "locks"
	case tabArbiters:
		return "arbiters"
	default:
		return "hotspots"
	}
}

type (
	refreshMsg  struct{}
	snapshotMsg coord.Snapshot
)

// Dashboard is a live view over a SnapshotSource, refreshed on a fixed
// interval.
type Dashboard struct {
	source   SnapshotSource
	interval time.Duration

	table   table.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	tab       tab
	paused    bool
	showHelp  bool
	snap      coord.Snapshot
	refreshes int
	width     int
	height    int
}

// NewDashboard creates a dashboard polling src every interval.
func NewDashboard(src SnapshotSource, interval time.Duration) Dashboard {
	if interval <= 0 {
		interval = time.Second
	}

	t := table.New(
		table.WithColumns(columnsFor(tabLocks)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Dashboard{
		source:   src,
		interval: interval,
		table:    t,
		spinner:  sp,
		help:     help.New(),
		keys:     keys,
	}
}

func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetch(),
		m.schedule(),
	)
}

func (m Dashboard) fetch() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(m.source.Snapshot())
	}
}

func (m Dashboard) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-12, 4))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetch()

		case key.Matches(msg, m.keys.NextTab):
			m.switchTab((m.tab + 1) % tabCount)
			return m, nil

		case key.Matches(msg, m.keys.PrevTab):
			m.switchTab((m.tab + tabCount - 1) % tabCount)
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}

	case refreshMsg:
		cmds = append(cmds, m.schedule())
		if !m.paused {
			cmds = append(cmds, m.fetch())
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snap = coord.Snapshot(msg)
		m.refreshes++
		m.table.SetRows(rowsFor(m.tab, m.snap))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// switchTab clears rows before swapping columns so no row is rendered
// against a narrower column set.
func (m *Dashboard) switchTab(t tab) {
	m.tab = t
	m.table.SetRows(nil)
	m.table.SetColumns(columnsFor(t))
	m.table.SetRows(rowsFor(t, m.snap))
	m.table.SetCursor(0)
}

func (m Dashboard) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderSummary(),
		m.table.View(),
		m.renderStatusBar(),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Dashboard) renderHeader() string {
	tabs := make([]string, 0, tabCount)
	for t := range tabCount {
		if t == m.tab {
			tabs = append(tabs, badgeStyle.Render(t.String()))
			continue
		}
		tabs = append(tabs, mutedStyle.MarginRight(2).Render(t.String()))
	}

	header := lipgloss.JoinHorizontal(
		lipgloss.Left,
		titleStyle.Render("kcoord top"),
		"  ",
		lipgloss.JoinHorizontal(lipgloss.Left, tabs...),
	)

	separator := strings.Repeat("─", max(m.width-4, 0))
	return header + "\n" + lipgloss.NewStyle().Foreground(bgLight).Render(separator)
}

func (m Dashboard) renderSummary() string {
	s := m.snap
	parts := []string{
		fmt.Sprintf("futex %s waiting / %s woken", count(s.Futex.ActiveWaiters), count(s.Futex.TotalWakes)),
		fmt.Sprintf("locks %s held of %s", count(s.Locks.Held), count(s.Locks.Locks)),
		fmt.Sprintf("arbiters %s grants", count(s.Arbiter.TotalGrants)),
		fmt.Sprintf("groups %s ok / %s timed out", count(s.Batch.Succeeded), count(s.Batch.TimedOut)),
	}
	return panelStyle.Render(strings.Join(parts, "  │  "))
}

func (m Dashboard) renderStatusBar() string {
	status := lipgloss.NewStyle().Foreground(accentColor).Render(m.spinner.View() + " live")
	if m.paused {
		status = lipgloss.NewStyle().Foreground(warningColor).Render("⏸ paused")
	}

	info := mutedStyle.Render(fmt.Sprintf(" | %d refreshes every %v | ", m.refreshes, m.interval))
	return statusBarStyle.
		Width(max(m.width-4, 0)).
		Render(status + info + m.help.ShortHelpView(m.keys.short()))
}

func (m Dashboard) renderHelp() string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(m.help.FullHelpView(m.keys.full()))
}

func columnsFor(t tab) []table.Column {
	switch t {
	case tabLocks:
		return []table.Column{
			{Title: "Lock", Width: 8},
			{Title: "State", Width: 12},
			{Title: "Strategy", Width: 12},
			{Title: "Preset", Width: 13},
			{Title: "Owner", Width: 8},
			{Title: "Waiters", Width: 8},
			{Title: "Acquired", Width: 10},
			{Title: "Contended", Width: 10},
			{Title: "Level", Width: 8},
		}
	case tabArbiters:
		return []table.Column{
			{Title: "Resource", Width: 9},
			{Title: "Policy", Width: 18},
			{Title: "Contenders", Width: 11},
			{Title: "Holder", Width: 8},
			{Title: "Arbitrations", Width: 13},
			{Title: "Preemptions", Width: 12},
			{Title: "Fairness", Width: 18},
		}
	default:
		return []table.Column{
			{Title: "Bucket", Width: 10},
			{Title: "Score", Width: 10},
			{Title: "Waiters", Width: 8},
			{Title: "Peak", Width: 8},
		}
	}
}

func rowsFor(t tab, s coord.Snapshot) []table.Row {
	var rows []table.Row
	switch t {
	case tabLocks:
		for _, l := range s.LockList {
			owner := "-"
			if l.Held {
				owner = strconv.FormatUint(uint64(l.Owner), 10)
			}
			rows = append(rows, table.Row{
				strconv.FormatUint(uint64(l.ID), 10),
				l.State.String(),
				l.Strategy.String(),
				string(l.Preset),
				owner,
				count(l.Waiters),
				count(l.AcquireCount),
				count(l.ContentionEvents),
				l.Level.String(),
			})
		}
	case tabArbiters:
		for _, a := range s.Arbiters {
			holder := "-"
			if a.HasHolder {
				holder = strconv.FormatUint(uint64(a.Holder), 10)
			}
			rows = append(rows, table.Row{
				strconv.FormatUint(uint64(a.Resource), 10),
				a.Policy.String(),
				count(a.Contenders),
				holder,
				count(a.Arbitrations),
				count(a.Preemptions),
				fmt.Sprintf("%s %.2f", base.Gauge(a.Fairness, gaugeWidth), a.Fairness),
			})
		}
	default:
		for _, h := range s.Hotspots {
			rows = append(rows, table.Row{
				strconv.FormatUint(h.Key, 10),
				fmt.Sprintf("%.3f", h.Score),
				count(h.Waiters),
				count(h.MaxWaiters),
			})
		}
	}
	return rows
}
