package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	telegram "pcb-inspector/internal/api"
	"pcb-inspector/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, and the Telegram bot when TELEGRAM_TOKEN is set",
		Example: `  # API on the default address
  pcb-inspector serve

  # API on another port with a custom catalog
  pcb-inspector serve --addr :3000 --catalog ./cases/catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.HTTPAddr = addr
			}
			ctr, err := c.build(c.log)
			if err != nil {
				return err
			}
			if !skipVerify {
				if err := c.verify(cmd.Context(), ctr); err != nil {
					return err
				}
			}

			var bot *telegram.Bot
			if c.cfg.TelegramToken != "" {
				bot, err = telegram.NewBot(c.cfg.TelegramToken, ctr.Viewer, ctr.SessionService, ctr.Loader, c.log.Named("telegram"))
				if err != nil {
					return err
				}
			} else {
				c.log.Info("TELEGRAM_TOKEN is not set, telegram bot disabled")
			}

			handler := httpapi.NewHandler(ctr.Catalog, ctr.Viewer, ctr.SessionService, ctr.Loader, c.log.Named("http"))
			server := &http.Server{
				Addr:              c.cfg.HTTPAddr,
				Handler:           httpapi.NewRouter(handler, c.log.Named("http")),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				c.log.Info("http api listening", zap.String("addr", c.cfg.HTTPAddr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				c.log.Info("shutting down http api")
				return server.Shutdown(shutdownCtx)
			})

			if bot != nil {
				g.Go(func() error {
					return bot.Run(ctx)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: HTTP_ADDR or :8080)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "do not load every catalog image at startup")
	return cmd
}
