package model

import "errors"

// Sentinel error kinds per spec.md §7. Wrap with fmt.Errorf("...: %w", Err...)
// at the call site to attach the offending id without losing errors.Is
// matchability — the same pattern as the teacher's pdu.ErrInvalidCorrelationID.
var (
	// ErrInvalidInput covers malformed source mesh data: NaN, mismatched
	// positions/normals lengths, out-of-range indices, or a zero-length
	// array where a mesh is required.
	ErrInvalidInput = errors.New("model: invalid input")

	// ErrDuplicatePrimitive is returned when create_primitive is called
	// twice with the same id.
	ErrDuplicatePrimitive = errors.New("model: duplicate primitive id")

	// ErrDuplicateEntity is returned when create_entity is called twice
	// with the same id.
	ErrDuplicateEntity = errors.New("model: duplicate entity id")
)

// WarningKind tags the (currently single) non-fatal condition the builder
// can report without aborting.
type WarningKind string

// WarningUnknownPrimitive marks an entity's reference to a primitive id
// that was never created; the reference is dropped, not fatal.
const WarningUnknownPrimitive WarningKind = "unknown_primitive"

// Warning is a non-fatal condition accumulated during a build.
type Warning struct {
	Kind    WarningKind
	Message string
}
