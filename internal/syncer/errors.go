package syncer

import (
	"errors"
	"fmt"

	"github.com/recipenav/recipenav/internal/collection"
)

var (
	// ErrUnauthorized indicates the command needs an active session. It is
	// raised before any network call or optimistic apply.
	ErrUnauthorized = errors.New("an active session is required")
	// ErrMutationInFlight mirrors the store's per-id guard rejection.
	ErrMutationInFlight = collection.ErrMutationInFlight
	// ErrUnknownRecord indicates the target id is absent from the snapshot.
	ErrUnknownRecord = errors.New("record not present in snapshot")
)

// ValidationError reports a locally rejected field. It never reaches the
// network and leaves the snapshot untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Op names the mutation command that failed.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpLike   Op = "like"
)

// CommandError surfaces a failed mutation after its optimistic apply has
// been rolled back. Err holds the transport or server failure; Reason is
// the server-provided explanation when one was returned.
type CommandError struct {
	Op     Op
	Reason string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
