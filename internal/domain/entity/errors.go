package entity

import "fmt"

// ConfigurationError means a required setting is missing; no I/O was attempted.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// LoadError means an image reference could not be turned into a payload.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load image %s: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InspectionError means the remote analysis call failed.
// Message is what the user sees; StatusCode is 0 for transport failures.
type InspectionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *InspectionError) Error() string { return e.Message }

func (e *InspectionError) Unwrap() error { return e.Err }
