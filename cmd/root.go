package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pcb-inspector/config"
	"pcb-inspector/internal/container"
	"pcb-inspector/internal/infrastructure/catalog"
	"pcb-inspector/internal/logging"
)

// cliSession is the session used by the one-shot commands.
const cliSession int64 = 0

// cli carries what PersistentPreRunE prepares for the subcommands.
type cli struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var catalogFile, logLevel string

	cmd := &cobra.Command{
		Use:   "pcb-inspector",
		Short: "Browse PCB test cases and inspect them with a vision model",
		Long: `pcb-inspector pages through a catalog of PCB test cases. Each case has a
target image, a ground truth image and a defect annotation. The target image can be
sent to an OpenRouter vision model, which answers with a short defect report.

The catalog, the OpenRouter key and the model come from the environment or a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if catalogFile != "" {
				cfg.CatalogFile = catalogFile
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			c.cfg, c.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "catalog YAML file (default: embedded catalog)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default: LOG_LEVEL or info)")

	cmd.AddCommand(
		newServeCmd(c),
		newBotCmd(c),
		newTUICmd(c),
		newInspectCmd(c),
		newCasesCmd(c),
	)
	return cmd
}

// build wires the components with the given logger.
func (c *cli) build(log *zap.Logger) (*container.Container, error) {
	ctr, err := container.New(c.cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build components: %w", err)
	}
	if !c.cfg.HasAPIKey() {
		log.Warn("OPENROUTER_API_KEY is not set, inspections will fail until it is configured")
	}
	return ctr, nil
}

// verify checks that every image in the catalog loads.
func (c *cli) verify(ctx context.Context, ctr *container.Container) error {
	if err := catalog.Verify(ctx, ctr.Catalog, ctr.Loader); err != nil {
		return fmt.Errorf("verify catalog: %w", err)
	}
	c.log.Info("catalog verified", zap.Int("cases", ctr.Catalog.Len()))
	return nil
}
