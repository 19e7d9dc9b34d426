//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"pcb-inspector/internal/domain/port"
)

// Validator checks images with the standard library decoders (png, jpeg, gif).
// Build with -tags gocv to validate through OpenCV instead.
type Validator struct {
	MinImageSide int
}

// NewValidator creates a validator that rejects images smaller than minSide pixels.
func NewValidator(minSide int) *Validator {
	return &Validator{MinImageSide: minSide}
}

// Validate reads the image header and returns the image size.
func (v *Validator) Validate(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, errors.New("empty image")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	if cfg.Width < v.MinImageSide || cfg.Height < v.MinImageSide {
		return 0, 0, fmt.Errorf("image is too small (%dx%d)", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

var _ port.ImageValidator = (*Validator)(nil)
