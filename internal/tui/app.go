// Package tui renders the live monitoring dashboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Geun-Oh/ngmon/internal/aggregate"
	"github.com/Geun-Oh/ngmon/internal/source"
	"github.com/Geun-Oh/ngmon/internal/stats"
)

// --- Styles ---

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#44DDDD"))

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44DDDD"))

	boldStyle = lipgloss.NewStyle().Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#44DD44"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))

	absentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DD44DD"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// --- Messages ---

// TickMsg triggers a dashboard refresh.
type TickMsg time.Time

// --- Model ---

// Model is the bubbletea model for the dashboard. Each refresh tick snapshots
// every source, aggregates, and then resets the interval windows.
type Model struct {
	sources []*stats.SourceStats
	refresh time.Duration
	keys    keyMap

	startedAt time.Time
	snaps     []stats.Snapshot
	report    aggregate.Report

	width  int
	height int
}

// NewModel creates the dashboard model over the given source aggregates.
func NewModel(sources []*stats.SourceStats, refresh time.Duration) Model {
	return Model{
		sources:   sources,
		refresh:   refresh,
		keys:      defaultKeyMap(),
		startedAt: time.Now(),
	}
}

// Init starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), tea.WindowSize())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reset):
			for _, s := range m.sources {
				s.ResetAll()
			}
			m.startedAt = time.Now()
			m.refreshReport()
			return m, nil
		}
		return m, nil

	case TickMsg:
		m.refreshReport()
		for _, s := range m.sources {
			s.ResetInterval()
		}
		return m, m.tickCmd()
	}

	return m, nil
}

// refreshReport snapshots every source and recomputes the aggregate view.
func (m *Model) refreshReport() {
	snaps := make([]stats.Snapshot, len(m.sources))
	for i, s := range m.sources {
		snaps[i] = s.Snapshot()
	}
	m.snaps = snaps
	m.report = aggregate.Compute(snaps, time.Since(m.startedAt), m.refresh)
}

// View renders the dashboard.
func (m Model) View() string {
	var sb strings.Builder

	width := m.width
	if width <= 0 {
		width = 80
	}
	divider := dividerStyle.Render(strings.Repeat("─", min(width-1, 90)))

	header := fmt.Sprintf("NGMON | %s | %ds refresh | q:quit r:reset",
		time.Now().Format("15:04:05"), int(m.refresh.Seconds()))
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n\n")

	// Summary box.
	r := m.report
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(boldStyle.Render(fmt.Sprintf("Total: %d req | %s | %d unique IPs | %d errors",
		r.TotalRequests, formatBytes(float64(r.TotalBytes)), r.TotalClients, r.TotalErrors)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Rate:  %.1f req/s | %s | Interval: %d req, %d IPs",
		r.RequestsPerSecond, formatRate(r.BytesPerSecond), r.IntervalRequests, r.IntervalClients))
	sb.WriteString("\n")
	sb.WriteString("Status: ")
	sb.WriteString(okStyle.Render(fmt.Sprintf("2xx:%5d", r.Interval2xx)))
	sb.WriteString("  ")
	sb.WriteString(countStyle(r.Interval4xx, warnStyle).Render(fmt.Sprintf("4xx:%5d", r.Interval4xx)))
	sb.WriteString("  ")
	sb.WriteString(countStyle(r.Interval5xx, errStyle).Render(fmt.Sprintf("5xx:%5d", r.Interval5xx)))
	sb.WriteString("\n")
	sb.WriteString(divider)
	sb.WriteString("\n")

	nameWidth := m.serverNameWidth()

	// Access sources.
	sb.WriteString(boldStyle.Render("ACCESS"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%s  req   2xx   4xx   5xx │ total    2xx    err",
		strings.Repeat(" ", max(nameWidth-5, 1)))))
	sb.WriteString("\n")
	for _, s := range m.snaps {
		if s.Kind != source.Access {
			continue
		}
		sb.WriteString(m.renderPresence(s, nameWidth))
		if s.FilePresent {
			sb.WriteString(fmt.Sprintf(" %4d ", s.Interval.Requests))
			sb.WriteString(okStyle.Render(fmt.Sprintf("%5d", s.Interval.Status2xx)))
			sb.WriteString(countStyle(s.Interval.Status4xx, warnStyle).Render(fmt.Sprintf(" %5d", s.Interval.Status4xx)))
			sb.WriteString(countStyle(s.Interval.Status5xx, errStyle).Render(fmt.Sprintf(" %5d", s.Interval.Status5xx)))
			sb.WriteString(fmt.Sprintf(" │ %6d ", s.Total.Requests))
			sb.WriteString(okStyle.Render(fmt.Sprintf("%6d", s.Total.Status2xx)))
			sb.WriteString(countStyle(s.Total.Errors, errStyle).Render(fmt.Sprintf(" %6d", s.Total.Errors)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Error sources.
	sb.WriteString(boldStyle.Render("ERRORS"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%s  int  total",
		strings.Repeat(" ", max(nameWidth-5, 1)))))
	sb.WriteString("\n")
	for _, s := range m.snaps {
		if s.Kind != source.Error {
			continue
		}
		sb.WriteString(m.renderPresence(s, nameWidth))
		if s.FilePresent {
			sb.WriteString(countStyle(s.Interval.Errors, errStyle).Render(fmt.Sprintf(" %4d", s.Interval.Errors)))
			sb.WriteString(countStyle(s.Total.Errors, errStyle).Render(fmt.Sprintf(" %6d", s.Total.Errors)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Merged recent events feed.
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(boldStyle.Render(fmt.Sprintf("RECENT ERRORS (last %d)", aggregate.MaxRecentEvents)))
	sb.WriteString("\n")
	if len(r.Recent) == 0 {
		sb.WriteString(dimStyle.Render("  (none)"))
		sb.WriteString("\n")
	}
	for _, ev := range r.Recent {
		tag := "ACC"
		tagStyle := absentStyle
		if ev.FromErrorLog {
			tag = "ERR"
			tagStyle = warnStyle
		}
		prefix := fmt.Sprintf("%-8s %s", truncate(ev.Server, 8), tag)
		sb.WriteString(tagStyle.Render(prefix))
		sb.WriteString(" ")
		sb.WriteString(errStyle.Render(truncate(ev.Text, max(width-len(prefix)-3, 10))))
		sb.WriteString("\n")
	}

	return sb.String()
}

// --- Helpers ---

// renderPresence writes the liveness indicator and padded server label.
func (m Model) renderPresence(s stats.Snapshot, nameWidth int) string {
	indicator, style := "●", okStyle
	if !s.FilePresent {
		indicator, style = "○", absentStyle
	}
	return style.Render(fmt.Sprintf("%s%-*s", indicator, nameWidth, truncate(s.Server, nameWidth)))
}

// serverNameWidth sizes the name column, clamped between 8 and 20.
func (m Model) serverNameWidth() int {
	width := 8
	for _, s := range m.snaps {
		if len(s.Server) > width {
			width = len(s.Server)
		}
	}
	return min(width, 20)
}

// countStyle highlights a counter only when it is non-zero.
func countStyle(n int, hot lipgloss.Style) lipgloss.Style {
	if n > 0 {
		return hot
	}
	return lipgloss.NewStyle()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
