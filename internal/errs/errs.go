package errs

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in handlers.
var (
	// ErrUnauthorized means the actor is not the designated scorer for the
	// owning entity. Never degraded to read-only; the call is rejected.
	ErrUnauthorized = errors.New("actor is not authorized for this entity")

	// ErrNotFound means a referenced static entity (account, course, tee,
	// scheduled game) does not exist or is inconsistent.
	ErrNotFound = errors.New("referenced entity not found")

	// ErrSessionNotFound means no session row exists for the entity.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAlreadyActive means a non-terminal session already exists for the
	// entity and must be stopped or finalized before starting another.
	ErrAlreadyActive = errors.New("a live session is already active")

	// ErrNoActiveSession means the operation requires an active session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionNotPaused means Resume was called on a session that is not
	// paused.
	ErrSessionNotPaused = errors.New("session is not paused")

	// ErrOutOfRange means a unit number or score value is outside domain
	// bounds.
	ErrOutOfRange = errors.New("value out of range")

	// ErrTicketInvalid covers malformed, expired, replayed, or otherwise
	// unusable attach tickets.
	ErrTicketInvalid = errors.New("invalid ticket")
)
