package model

// EventKind is the semantic meaning of an inbound message
type EventKind int

const (
	EventIgnore EventKind = iota
	EventChoiceSelected
	EventBooleanAnswered
	EventConfirmYes
	EventConfirmNo
	EventFreeText
)

func (k EventKind) String() string {
	switch k {
	case EventChoiceSelected:
		return "choice_selected"
	case EventBooleanAnswered:
		return "boolean_answered"
	case EventConfirmYes:
		return "confirm_yes"
	case EventConfirmNo:
		return "confirm_no"
	case EventFreeText:
		return "free_text"
	}
	return "ignore"
}

// Event is a classified inbound message. Value holds the choice, "yes"/"no" or the raw text.
type Event struct {
	Kind  EventKind
	Value string
}

// Boolean answer values
const (
	BooleanYes = "yes"
	BooleanNo  = "no"
)

// Channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
)

// Recipient addresses an outbound message
type Recipient struct {
	Channel   string
	Address   string // phone number or chat id
	ReplyFrom string // WhatsApp phone_number_id the reply is sent from
}

// Inbound is one classified message together with its addressing
type Inbound struct {
	Identity    string
	Recipient   Recipient
	MessageID   string
	DisplayName string
	Event       Event
}
