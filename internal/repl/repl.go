package repl

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"podboard/internal/app"
)

// Run starts the interactive dashboard.
func Run(ctx context.Context, application *app.App) error {
	program := tea.NewProgram(newModel(ctx, application), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
