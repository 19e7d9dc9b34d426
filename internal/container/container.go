package container

import (
	"go.uber.org/zap"

	"pcb-inspector/assets"
	"pcb-inspector/config"
	app "pcb-inspector/internal/application"
	"pcb-inspector/internal/infrastructure/catalog"
	"pcb-inspector/internal/infrastructure/imageload"
	"pcb-inspector/internal/infrastructure/openrouter"
	"pcb-inspector/internal/infrastructure/storage"
	"pcb-inspector/internal/infrastructure/vision"
)

// Container holds the wired components shared by every front end.
type Container struct {
	Catalog        *catalog.Static
	Loader         *imageload.Loader
	Inspector      *openrouter.Client
	SessionService *app.SessionService
	Viewer         *app.Viewer
}

// New builds every component from the configuration.
func New(cfg *config.Config, log *zap.Logger) (*Container, error) {
	cases, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	loader := imageload.NewLoader(cfg.Images, assets.FS, vision.NewValidator(cfg.Images.MinSide), log.Named("images"))
	inspector := openrouter.NewClient(cfg.OpenRouter, log.Named("openrouter"))
	sessions := storage.NewMemorySessionRepository()

	return &Container{
		Catalog:        cases,
		Loader:         loader,
		Inspector:      inspector,
		SessionService: app.NewSessionService(sessions),
		Viewer:         app.NewViewer(cases, loader, inspector, sessions, cfg.InspectionTimeout, log.Named("viewer")),
	}, nil
}
