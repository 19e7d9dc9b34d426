package port

import (
	"context"

	"pcb-inspector/internal/domain/entity"
)

// ImageLoader resolves image references to payloads
type ImageLoader interface {
	// Load reads the referenced image; failures are *entity.LoadError
	Load(ctx context.Context, ref string) (entity.ImagePayload, error)
}

// ImageValidator checks that bytes are a decodable image
type ImageValidator interface {
	// Validate returns the image dimensions or an error when decoding fails
	Validate(data []byte) (width, height int, err error)
}
