package port

import "pcb-inspector/internal/domain/entity"

// CaseCatalog is an ordered, read-only list of test cases.
type CaseCatalog interface {
	// Len returns the number of cases, always at least one
	Len() int

	// At returns the case at the given position
	At(index int) entity.TestCase

	// IndexOf returns the position of the case with the given id
	IndexOf(id int) (int, bool)

	// All returns the cases in catalog order
	All() []entity.TestCase
}
