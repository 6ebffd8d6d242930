package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Geun-Oh/ngmon/internal/stats"
)

// Run starts the dashboard over the given source aggregates and blocks until
// the user quits or ctx is cancelled. Key handling stays event-driven, so quit
// and reset respond immediately regardless of the refresh interval.
func Run(ctx context.Context, sources []*stats.SourceStats, refresh time.Duration) error {
	model := NewModel(sources, refresh)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := program.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled)) {
		// Cancellation is the normal signal-driven shutdown path.
		return nil
	}
	return err
}
