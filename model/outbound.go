package model

type OutboundKind int

const (
	OutboundText OutboundKind = iota
	OutboundButtons
	OutboundList
)

type Button struct {
	ID    string
	Title string
}

// OutboundMessage is a channel neutral message. Channel senders decide the wire shape.
type OutboundMessage struct {
	Kind   OutboundKind
	Header string
	Body   string
	// Buttons for OutboundButtons
	Buttons []Button
	// Action label and rows for OutboundList
	ListButton string
	Rows       []string
}

// OptionCallbackPrefix marks list rows in Telegram inline keyboards; the suffix is the row index
const OptionCallbackPrefix = "opt:"
