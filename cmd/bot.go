package main

import (
	"errors"

	"github.com/spf13/cobra"

	telegram "pcb-inspector/internal/api"
)

func newBotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run only the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}
			ctr, err := c.build(c.log)
			if err != nil {
				return err
			}
			if err := c.verify(cmd.Context(), ctr); err != nil {
				return err
			}

			bot, err := telegram.NewBot(c.cfg.TelegramToken, ctr.Viewer, ctr.SessionService, ctr.Loader, c.log.Named("telegram"))
			if err != nil {
				return err
			}
			c.log.Info("bot is running")
			return bot.Run(cmd.Context())
		},
	}
}
