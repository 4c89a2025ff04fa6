/*
errors.go - Centralized error types for the cube package

PURPOSE:
  All structural errors in one place. Structural errors (unknown axis,
  coordinate or element, mismatched shapes) are returned immediately and
  never recovered internally - the caller must fix its inputs. Policy
  conditions never surface here; they travel as warnings on result structs
  in the consuming packages.

USAGE:
  Callers can match with errors.Is:

    if errors.Is(err, cube.ErrCoordNotFound) { ... }

SEE ALSO:
  - types.go, ops.go: where these are raised
*/
package cube

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAxisNotFound is returned when a named axis does not exist on a table.
	ErrAxisNotFound = errors.New("axis not found")

	// ErrCoordNotFound is returned when selecting or copying from a
	// coordinate value absent from its axis.
	ErrCoordNotFound = errors.New("coordinate not found")

	// ErrElementNotFound is returned when a named element does not exist.
	ErrElementNotFound = errors.New("element not found")

	// ErrDuplicateCoord is returned when constructing or extending an axis
	// would leave it with a repeated coordinate value.
	ErrDuplicateCoord = errors.New("duplicate coordinate")

	// ErrLabelNotFound is returned when a group label is attached to no axis.
	ErrLabelNotFound = errors.New("label coordinate not found")

	// ErrEmptyAxis is returned when extending an axis that has no existing
	// coordinate to pivot or project from.
	ErrEmptyAxis = errors.New("axis has no coordinates")

	// ErrShapeMismatch is returned when a value slice or coordinate list has
	// the wrong length for the shape it must fill.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrElementMismatch is returned when two multi-element tables with
	// different element sets are combined.
	ErrElementMismatch = errors.New("element sets differ")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type AxisError struct {
	Axis string
}

func (e *AxisError) Error() string { return fmt.Sprintf("axis %q not found", e.Axis) }
func (e *AxisError) Unwrap() error { return ErrAxisNotFound }

type CoordError struct {
	Axis  string
	Coord Coord
}

func (e *CoordError) Error() string {
	return fmt.Sprintf("coordinate %q not found on axis %q", string(e.Coord), e.Axis)
}
func (e *CoordError) Unwrap() error { return ErrCoordNotFound }

type ElementError struct {
	Element string
}

func (e *ElementError) Error() string { return fmt.Sprintf("element %q not found", e.Element) }
func (e *ElementError) Unwrap() error { return ErrElementNotFound }

type DuplicateCoordError struct {
	Axis  string
	Coord Coord
}

func (e *DuplicateCoordError) Error() string {
	return fmt.Sprintf("duplicate coordinate %q on axis %q", string(e.Coord), e.Axis)
}
func (e *DuplicateCoordError) Unwrap() error { return ErrDuplicateCoord }

type ShapeError struct {
	Element string
	Want    int
	Got     int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch for %q: want %d, got %d", e.Element, e.Want, e.Got)
}
func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

type LabelError struct {
	Label string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label coordinate %q not attached to any axis", e.Label)
}
func (e *LabelError) Unwrap() error { return ErrLabelNotFound }
