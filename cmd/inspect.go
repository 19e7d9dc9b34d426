package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pcb-inspector/internal/domain/entity"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func newInspectCmd(c *cli) *cobra.Command {
	var caseID int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect one case and print the report",
		Example: `  # Inspect the first case
  pcb-inspector inspect

  # Inspect case 3
  pcb-inspector inspect --case 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := c.build(c.log)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if caseID == 0 {
				caseID = ctr.Catalog.At(0).ID
			}
			if _, err := ctr.Viewer.Select(ctx, cliSession, caseID); err != nil {
				return err
			}

			view, err := ctr.Viewer.RunInspection(ctx, cliSession)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "案例 ID: %03d · %s\n", view.Case.ID, view.Case.Name)
			if view.Case.Description != "" {
				fmt.Fprintf(out, "描述: %s\n", view.Case.Description)
			}

			switch view.Session.Phase {
			case entity.PhaseCompleted:
				fmt.Fprintln(out, okStyle.Render("检测完成"))
				fmt.Fprintln(out, view.Session.Report)
				return nil
			case entity.PhaseFailed:
				fmt.Fprintln(out, failStyle.Render("检测失败"))
				return errors.New(view.Session.ErrorDetail)
			default:
				return fmt.Errorf("inspection ended in phase %s", view.Session.Phase)
			}
		},
	}

	cmd.Flags().IntVar(&caseID, "case", 0, "case id (default: first case)")
	return cmd
}
