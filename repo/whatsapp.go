package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"QuestionnaireBot/model"
)

const DefaultGraphURL = "https://graph.facebook.com/v22.0"

// WhatsApp Cloud API limits on interactive list fields
const (
	headerTextLimit      = 60
	listTitleLimit       = 24
	listDescriptionLimit = 72
	listRowIDLimit       = model.MaxOptionLength
)

// WhatsAppSender posts messages to the WhatsApp Cloud API
type WhatsAppSender struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
}

// NewWhatsAppSender creates a sender for the Graph API at baseURL
func NewWhatsAppSender(baseURL, accessToken string) *WhatsAppSender {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &WhatsAppSender{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one message to the recipient's phone number
func (s *WhatsAppSender) Send(ctx context.Context, to model.Recipient, msg model.OutboundMessage) error {
	if to.ReplyFrom == "" {
		return fmt.Errorf("error sending whatsapp message to %s: missing phone number id", to.Address)
	}

	body, err := json.Marshal(whatsAppPayload(to.Address, msg))
	if err != nil {
		return fmt.Errorf("error encoding whatsapp message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.BaseURL, to.ReplyFrom)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending whatsapp message to %s: %w", to.Address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("error sending whatsapp message to %s: status %d: %s", to.Address, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type waPayload struct {
	MessagingProduct string         `json:"messaging_product"`
	RecipientType    string         `json:"recipient_type"`
	To               string         `json:"to"`
	Type             string         `json:"type"`
	Text             *waText        `json:"text,omitempty"`
	Interactive      *waInteractive `json:"interactive,omitempty"`
}

type waText struct {
	Body string `json:"body"`
}

// waBody is the interactive body, keyed "text" unlike a text message
type waBody struct {
	Text string `json:"text"`
}

type waInteractive struct {
	Type   string    `json:"type"`
	Header *waHeader `json:"header,omitempty"`
	Body   waBody    `json:"body"`
	Action waAction  `json:"action"`
}

type waHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waAction struct {
	Button   string      `json:"button,omitempty"`
	Buttons  []waButton  `json:"buttons,omitempty"`
	Sections []waSection `json:"sections,omitempty"`
}

type waButton struct {
	Type  string  `json:"type"`
	Reply waReply `json:"reply"`
}

type waReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type waSection struct {
	Title string  `json:"title"`
	Rows  []waRow `json:"rows"`
}

type waRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func whatsAppPayload(to string, msg model.OutboundMessage) waPayload {
	p := waPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
	}
	switch msg.Kind {
	case model.OutboundButtons:
		buttons := make([]waButton, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, waButton{Type: "reply", Reply: waReply{ID: b.ID, Title: b.Title}})
		}
		p.Type = "interactive"
		p.Interactive = &waInteractive{
			Type:   "button",
			Body:   waBody{Text: msg.Body},
			Action: waAction{Buttons: buttons},
		}
	case model.OutboundList:
		rows := make([]waRow, 0, len(msg.Rows))
		for _, opt := range msg.Rows {
			row := waRow{ID: truncate(opt, listRowIDLimit), Title: truncate(opt, listTitleLimit)}
			if row.Title != opt {
				row.Description = truncate(opt, listDescriptionLimit)
			}
			rows = append(rows, row)
		}
		// a question too long for the header moves into the body
		header, body := &waHeader{Type: "text", Text: msg.Header}, msg.Body
		if msg.Header == "" || utf8.RuneCountInString(msg.Header) > headerTextLimit {
			header = nil
			body = strings.TrimSpace(msg.Header + "\n" + msg.Body)
		}
		p.Type = "interactive"
		p.Interactive = &waInteractive{
			Type:   "list",
			Header: header,
			Body:   waBody{Text: body},
			Action: waAction{
				Button:   msg.ListButton,
				Sections: []waSection{{Title: truncate(msg.Header, listTitleLimit), Rows: rows}},
			},
		}
	default:
		p.Type = "text"
		p.Text = &waText{Body: msg.Body}
	}
	return p
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
