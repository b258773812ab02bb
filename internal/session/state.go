package session

// State is the pipeline position of a Session.
type State int32

const (
	StateIdle State = iota
	StateSending
	StateAwaitingResponse
	StateClassifying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateClassifying:
		return "classifying"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
