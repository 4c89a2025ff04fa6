// Package food errors. Structural problems are returned as errors; policy
// conditions degrade gracefully and travel as warnings on Result.
package food

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingElements is returned when a table lacks the balance-sheet
	// elements an operation requires.
	ErrMissingElements = errors.New("missing required elements")

	// ErrMissingAxis is returned when a table lacks the Item or Year axis.
	ErrMissingAxis = errors.New("missing required axis")

	// ErrScaleRequired is returned when a rebalance is requested without a
	// scaling factor.
	ErrScaleRequired = errors.New("scale is required")

	// ErrNoOrigins is returned when a rebalance names no origin elements.
	ErrNoOrigins = errors.New("at least one origin element is required")
)

// MissingElementsError lists the absent elements.
type MissingElementsError struct {
	Missing []string
}

func (e *MissingElementsError) Error() string {
	return fmt.Sprintf("missing required elements: %s", strings.Join(e.Missing, ", "))
}

func (e *MissingElementsError) Unwrap() error { return ErrMissingElements }
