package model

// ConversationState is derived from a Ledger and never stored
type ConversationState int

const (
	StateNew ConversationState = iota
	StateAwaitingAnswer
	StateAwaitingConfirmation
	StateComplete
)

func (s ConversationState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}
