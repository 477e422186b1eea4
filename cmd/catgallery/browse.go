package main

import (
	"context"
	"fmt"
	"time"

	"github.com/CatGallery/internal/app"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBrowseCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive gallery (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, flags)
		},
	}
}

func runBrowse(cmd *cobra.Command, flags *globalFlags) error {
	closeLog, err := setupLogging(flags, true)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	session := app.NewSession(uuid.NewString(), gw, cfg.CatAPI.PageSize)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = session.Close(ctx)
	}()

	p := tea.NewProgram(newModel(session), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("gallery: %w", err)
	}
	return nil
}
