// Package apperr defines the error taxonomy shared by the composition
// engine's services. Errors carry a string code for classification and
// JSON serialization; callers branch on the code via errors.As.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Code string

const (
	// CodeValidation indicates a document or request failed its schema.
	// Recoverable by the caller correcting input.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeNotFound indicates the referenced artifact/node does not exist
	// for the caller's tenant. Cross-tenant references report this code,
	// never a permission error, to avoid leaking existence.
	CodeNotFound Code = "NOT_FOUND"

	// CodeImmutableArtifact indicates a mutation targeted a published
	// catalog artifact. Terminal; the fix is clone-to-new-version.
	CodeImmutableArtifact Code = "IMMUTABLE_ARTIFACT"

	// CodeImmutableStructure indicates a mutation targeted a structural
	// node whose owning artifact is published. Terminal.
	CodeImmutableStructure Code = "IMMUTABLE_STRUCTURE"

	// CodeConflictingIdentity indicates a uniqueness violation: duplicate
	// business key+version, panel key, placement, instance key or order.
	CodeConflictingIdentity Code = "CONFLICTING_IDENTITY"

	// CodeInvalidState indicates a lifecycle transition is not allowed
	// from the artifact's current state (e.g. publishing twice).
	CodeInvalidState Code = "INVALID_STATE"

	// CodeGuardMisconfigured indicates the immutability guard received a
	// node shape it does not recognize. Programming error; fail closed.
	CodeGuardMisconfigured Code = "GUARD_MISCONFIGURED"

	// CodeInternal indicates an unclassified internal fault.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is the concrete error type carried across service boundaries.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	// ArtifactID is set on immutability rejections so callers know which
	// published artifact owns the node they tried to mutate.
	ArtifactID uuid.UUID `json:"artifact_id,omitempty"`

	// Op names the attempted operation on immutability rejections.
	Op string `json:"op,omitempty"`

	// Hint is an actionable remediation, e.g. clone-and-edit.
	Hint string `json:"hint,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two apperr values by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

func Validation(format string, args ...any) *Error {
	return New(CodeValidation, format, args...)
}

func NotFound(entity string, id uuid.UUID) *Error {
	return New(CodeNotFound, "%s %s not found", entity, id)
}

func Conflict(format string, args ...any) *Error {
	return New(CodeConflictingIdentity, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(CodeInvalidState, format, args...)
}

// ImmutableArtifact rejects a direct mutation of a published artifact.
func ImmutableArtifact(artifactID uuid.UUID, op string) *Error {
	return &Error{
		Code:       CodeImmutableArtifact,
		Message:    fmt.Sprintf("artifact %s is published and cannot be modified", artifactID),
		ArtifactID: artifactID,
		Op:         op,
		Hint:       "create a new version of the artifact and edit that instead",
	}
}

// ImmutableStructure rejects a mutation of a node under a published artifact.
func ImmutableStructure(owningArtifactID uuid.UUID, op string) *Error {
	return &Error{
		Code:       CodeImmutableStructure,
		Message:    fmt.Sprintf("owning artifact %s is published; its structure is frozen", owningArtifactID),
		ArtifactID: owningArtifactID,
		Op:         op,
		Hint:       "create a new version of the owning artifact and edit that instead",
	}
}

func GuardMisconfigured(format string, args ...any) *Error {
	return New(CodeGuardMisconfigured, format, args...)
}

// CodeOf extracts the taxonomy code from err, or CodeInternal when err is
// not an apperr value.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
