package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
)

// Run shows the TUI until the user quits or ctx is cancelled. Events from
// dispatcher are forwarded to the program for as long as it runs.
func Run(ctx context.Context, title string, dispatcher *events.EventDispatcher) error {
	program := tea.NewProgram(New(title), tea.WithAltScreen(), tea.WithContext(ctx))

	observer := events.NewFuncObserver("TUI", func(event events.Event) error {
		if msg := EventToMsg(event); msg != nil {
			program.Send(msg)
		}
		return nil
	})
	dispatcher.Register(observer)
	defer dispatcher.Unregister(observer)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
