package entity

import (
	"errors"
	"fmt"
)

// ImageKind names one of the three images bundled with a case.
type ImageKind string

const (
	ImagePrimary   ImageKind = "primary"   // target image sent for inspection
	ImageReference ImageKind = "reference" // ground truth overlay
	ImageDefect    ImageKind = "defect"    // defect annotation overlay
)

// ParseImageKind converts a string into an ImageKind.
func ParseImageKind(s string) (ImageKind, bool) {
	switch k := ImageKind(s); k {
	case ImagePrimary, ImageReference, ImageDefect:
		return k, true
	}
	return "", false
}

// TestCase is one PCB inspection scenario from the catalog.
type TestCase struct {
	ID             int    // positive, unique within the catalog
	Name           string // display name
	Description    string // short description shown under the image
	PrimaryImage   string // reference to the target image
	ReferenceImage string // reference to the ground truth image
	DefectImage    string // reference to the defect annotation image
}

// Image returns the reference stored for the given kind.
func (c TestCase) Image(kind ImageKind) string {
	switch kind {
	case ImageReference:
		return c.ReferenceImage
	case ImageDefect:
		return c.DefectImage
	default:
		return c.PrimaryImage
	}
}

// Validate checks that the case can be shown and inspected.
func (c TestCase) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("case id must be positive, got %d", c.ID)
	}
	if c.PrimaryImage == "" || c.ReferenceImage == "" || c.DefectImage == "" {
		return fmt.Errorf("case %d: all three image references are required", c.ID)
	}
	if c.Name == "" {
		return errors.New("case name is required")
	}
	return nil
}
