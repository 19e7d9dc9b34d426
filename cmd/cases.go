package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newCasesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "List the cases in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := c.build(c.log)
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "DESCRIPTION", "TARGET IMAGE")
			for _, tc := range ctr.Catalog.All() {
				t.Row(strconv.Itoa(tc.ID), tc.Name, tc.Description, tc.PrimaryImage)
			}

			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
