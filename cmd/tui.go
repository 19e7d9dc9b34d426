package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pcb-inspector/internal/tui"
)

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and inspect cases in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The UI owns the terminal, so components log nowhere.
			ctr, err := c.build(zap.NewNop())
			if err != nil {
				return err
			}
			err = tui.Run(cmd.Context(), ctr.Viewer)
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}
