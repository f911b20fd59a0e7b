package session

import "errors"

// Action and registry failures are caller errors, never process-fatal. They
// are returned synchronously to the submitting caller, never appended to the
// session event log, and never broadcast.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session full")
	ErrActorNotFound   = errors.New("actor not found")
	ErrActorDead       = errors.New("actor dead")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrTargetNotFound  = errors.New("target not found")
	ErrTargetDead      = errors.New("target dead")
	ErrNotDead         = errors.New("not dead")
	ErrOccupied        = errors.New("occupied")
	ErrUnknownAction   = errors.New("unknown action")
)

// ErrorCode maps a session error to its stable wire code, or "internal_error"
// for anything outside the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionFull):
		return "session_full"
	case errors.Is(err, ErrActorNotFound):
		return "actor_not_found"
	case errors.Is(err, ErrActorDead):
		return "actor_dead"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrTargetNotFound):
		return "target_not_found"
	case errors.Is(err, ErrTargetDead):
		return "target_dead"
	case errors.Is(err, ErrNotDead):
		return "not_dead"
	case errors.Is(err, ErrOccupied):
		return "occupied"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	default:
		return "internal_error"
	}
}
