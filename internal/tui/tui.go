package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/chores/internal/controller"
)

// Run starts the program and blocks until the user quits. When logPath is
// set, the standard logger (and so the controller's default logger) writes
// there instead of the terminal.
func Run(ctx context.Context, ctrl *controller.Controller, logPath string) error {
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "chores")
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		defer f.Close()
	}

	final, err := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
