package app

import "errors"

var (
	// ErrInspectionRunning is returned when a session already has an inspection in flight.
	ErrInspectionRunning = errors.New("inspection already running")
	// ErrCaseNotFound is returned for an id that is not in the catalog.
	ErrCaseNotFound = errors.New("case not found")
)

// UnknownFailureText is shown for failures that carry no classified message.
const UnknownFailureText = "检测过程中发生未知错误。"
