package port

import (
	"context"

	"pcb-inspector/internal/domain/entity"
)

// Inspector produces a short defect report for an image
type Inspector interface {
	// Ready returns *entity.ConfigurationError when the inspector cannot be used
	Ready() error

	// Inspect sends the image for analysis and returns the report text
	Inspect(ctx context.Context, payload entity.ImagePayload) (string, error)
}
