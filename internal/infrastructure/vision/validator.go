//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"pcb-inspector/internal/domain/port"
)

// Validator checks images with OpenCV, which accepts more formats than the
// standard library decoders (webp, tiff, bmp).
type Validator struct {
	MinImageSide int
}

// NewValidator creates a validator that rejects images smaller than minSide pixels.
func NewValidator(minSide int) *Validator {
	return &Validator{MinImageSide: minSide}
}

// Validate decodes the bytes and returns the image size.
func (v *Validator) Validate(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, errors.New("empty image")
	}

	mat, err := decodeToMat(data)
	if err != nil {
		return 0, 0, err
	}
	defer mat.Close()

	if mat.Cols() < v.MinImageSide || mat.Rows() < v.MinImageSide {
		return 0, 0, fmt.Errorf("image is too small (%dx%d)", mat.Cols(), mat.Rows())
	}
	return mat.Cols(), mat.Rows(), nil
}

// decodeToMat turns image bytes into a gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadUnchanged)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

var _ port.ImageValidator = (*Validator)(nil)
