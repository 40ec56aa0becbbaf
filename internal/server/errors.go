package server

import "errors"

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionAlreadyStarted = errors.New("session already started")
	ErrNotAParticipant       = errors.New("not a participant of this session")
	ErrNotHost               = errors.New("only the host can do that")
	ErrInvalidState          = errors.New("session is not in a valid state for this action")
	ErrSessionFull           = errors.New("session is full")
	ErrQuestionSetNotFound   = errors.New("question set not found")
	ErrQuestionSetEmpty      = errors.New("question set has no questions")
	ErrCodeSpaceExhausted    = errors.New("could not allocate a session code")
	ErrOrchestratorStopped   = errors.New("orchestrator stopped")
	ErrInvalidRequest        = errors.New("invalid request")
)

const (
	reasonSessionNotFound       = "session_not_found"
	reasonSessionAlreadyStarted = "session_already_started"
	reasonNotAParticipant       = "not_a_participant"
	reasonNotHost               = "not_host"
	reasonInvalidState          = "invalid_state"
	reasonSessionFull           = "session_full"
	reasonQuestionSetNotFound   = "question_set_not_found"
	reasonQuestionSetEmpty      = "question_set_empty"
	reasonInvalidRequest        = "invalid_request"
	reasonUnknownMessage        = "unknown_message_type"
	reasonUnavailable           = "unavailable"
	reasonInternal              = "internal_error"
)

// reasonFor maps an orchestrator error to the reason code sent to clients.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return reasonSessionNotFound
	case errors.Is(err, ErrSessionAlreadyStarted):
		return reasonSessionAlreadyStarted
	case errors.Is(err, ErrNotAParticipant):
		return reasonNotAParticipant
	case errors.Is(err, ErrNotHost):
		return reasonNotHost
	case errors.Is(err, ErrInvalidState):
		return reasonInvalidState
	case errors.Is(err, ErrSessionFull):
		return reasonSessionFull
	case errors.Is(err, ErrQuestionSetNotFound):
		return reasonQuestionSetNotFound
	case errors.Is(err, ErrQuestionSetEmpty):
		return reasonQuestionSetEmpty
	case errors.Is(err, ErrInvalidRequest):
		return reasonInvalidRequest
	case errors.Is(err, ErrOrchestratorStopped), errors.Is(err, ErrCodeSpaceExhausted):
		return reasonUnavailable
	default:
		return reasonInternal
	}
}
