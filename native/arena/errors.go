package arena

import "fmt"

// ErrorCode enumerates the structured error taxonomy strict guards return.
// No violation is ever silently normalized.
type ErrorCode string

const (
	ErrCodeAlreadyJoined       ErrorCode = "already_joined"
	ErrCodeArenaClosed         ErrorCode = "arena_closed"
	ErrCodeArenaFull           ErrorCode = "arena_full"
	ErrCodeDeadlinePassed      ErrorCode = "deadline_passed"
	ErrCodeNotFound            ErrorCode = "not_found"
	ErrCodeWrongPhase          ErrorCode = "wrong_phase"
	ErrCodeAlreadyFinalized    ErrorCode = "already_finalized"
	ErrCodeConflict            ErrorCode = "conflict"
	ErrCodeDeadlineExceeded    ErrorCode = "deadline_exceeded"
	ErrCodeFrozen              ErrorCode = "frozen"
)

// ValidationError reports a caller-violated precondition. It never mutates
// arena state; the caller is expected to surface it as-is.
type ValidationError struct {
	Code ErrorCode
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("arena: %s: %s", e.Code, e.Msg)
}

func validationErr(code ErrorCode, msg string) error {
	return &ValidationError{Code: code, Msg: msg}
}

// TransientError reports infrastructure failure (persistence conflict,
// downstream timeout) the caller may retry with backoff.
type TransientError struct {
	Code ErrorCode
	Msg  string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("arena: transient: %s: %s", e.Code, e.Msg)
}

// InvariantError reports a broken internal invariant. The affected arena is
// frozen by the caller (no further mutation accepted) and the diagnostic
// should be persisted and alerted on; this type only carries the diagnosis.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("arena: invariant violated: %s", e.Msg)
}

func invariantErr(format string, args ...interface{}) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
