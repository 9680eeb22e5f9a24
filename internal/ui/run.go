package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/spire-parity/internal/engine"
	"github.com/DaanHessen/spire-parity/internal/store"
	"github.com/DaanHessen/spire-parity/internal/text"
	"github.com/DaanHessen/spire-parity/internal/util"
)

// Run boots the inspector and blocks until it exits. db and table may be nil.
func Run(ctx context.Context, db *store.DB, table engine.StaticTable, cfg util.Config, version string) error {
	glam, err := text.NewGlamourRenderer("auto", 0)
	if err != nil {
		glam = nil
	}
	m := initialModel(ctx, db, table, text.WithFallback(glam, text.NewPlainRenderer()), cfg)
	m.version = version
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
