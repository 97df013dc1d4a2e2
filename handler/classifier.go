package handler

import (
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"QuestionnaireBot/model"
)

// WebhookPayload is the subset of the WhatsApp Cloud API webhook body we read
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         WebhookMetadata  `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts"`
	Messages         []WebhookMessage `json:"messages"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type WebhookMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *struct {
		Type        string        `json:"type"`
		ListReply   *WebhookReply `json:"list_reply,omitempty"`
		ButtonReply *WebhookReply `json:"button_reply,omitempty"`
	} `json:"interactive,omitempty"`
}

// ClassifyWhatsApp turns a webhook payload into inbound events. Messages that are
// not addressed or not a supported type come back with an Ignore event.
func ClassifyWhatsApp(payload WebhookPayload) []model.Inbound {
	var out []model.Inbound
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			names := make(map[string]string, len(value.Contacts))
			for _, c := range value.Contacts {
				names[c.WaID] = strings.TrimSpace(c.Profile.Name)
			}
			for _, msg := range value.Messages {
				in := model.Inbound{
					Identity:    msg.From,
					MessageID:   msg.ID,
					DisplayName: names[msg.From],
					Recipient: model.Recipient{
						Channel:   model.ChannelWhatsApp,
						Address:   msg.From,
						ReplyFrom: value.Metadata.PhoneNumberID,
					},
				}
				if value.Metadata.PhoneNumberID == "" || msg.From == "" {
					in.Event = model.Event{Kind: model.EventIgnore}
				} else {
					in.Event = classifyWhatsAppMessage(msg)
				}
				out = append(out, in)
			}
		}
	}
	return out
}

func classifyWhatsAppMessage(msg WebhookMessage) model.Event {
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return model.Event{Kind: model.EventIgnore}
		}
		return model.Event{Kind: model.EventFreeText, Value: strings.TrimSpace(msg.Text.Body)}
	case "interactive":
		if msg.Interactive == nil {
			return model.Event{Kind: model.EventIgnore}
		}
		if r := msg.Interactive.ListReply; r != nil {
			value := r.ID
			if value == "" {
				value = r.Title
			}
			if value == "" {
				return model.Event{Kind: model.EventIgnore}
			}
			return model.Event{Kind: model.EventChoiceSelected, Value: value}
		}
		if r := msg.Interactive.ButtonReply; r != nil {
			return classifyButton(r.ID)
		}
	}
	return model.Event{Kind: model.EventIgnore}
}

func classifyButton(id string) model.Event {
	switch id {
	case ButtonAnswerYes:
		return model.Event{Kind: model.EventBooleanAnswered, Value: model.BooleanYes}
	case ButtonAnswerNo:
		return model.Event{Kind: model.EventBooleanAnswered, Value: model.BooleanNo}
	case ButtonConfirmYes, legacyButtonYes:
		return model.Event{Kind: model.EventConfirmYes}
	case ButtonConfirmNo, legacyButtonNo:
		return model.Event{Kind: model.EventConfirmNo}
	}
	return model.Event{Kind: model.EventIgnore}
}

// TelegramIdentity is the ledger key for a Telegram chat
func TelegramIdentity(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// ClassifyTelegram turns a Telegram update into an inbound event
func ClassifyTelegram(update *models.Update) model.Inbound {
	ignore := model.Inbound{Event: model.Event{Kind: model.EventIgnore}}
	if update == nil {
		return ignore
	}

	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat.ID == 0 {
			return ignore
		}
		in := telegramInbound(msg.Chat.ID, strconv.Itoa(msg.ID), telegramName(*msg.From))
		if msg.Text == "" {
			return in
		}
		in.Event = model.Event{Kind: model.EventFreeText, Value: strings.TrimSpace(msg.Text)}
		return in
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		msg := cq.Message.Message
		if msg == nil || msg.Chat.ID == 0 {
			return ignore
		}
		in := telegramInbound(msg.Chat.ID, "cb:"+cq.ID, telegramName(cq.From))
		if strings.HasPrefix(cq.Data, model.OptionCallbackPrefix) {
			value, ok := telegramOptionValue(msg, cq.Data)
			if ok {
				in.Event = model.Event{Kind: model.EventChoiceSelected, Value: value}
			}
			return in
		}
		in.Event = classifyButton(cq.Data)
		return in
	}
	return ignore
}

func telegramInbound(chatID int64, messageID, name string) model.Inbound {
	address := strconv.FormatInt(chatID, 10)
	return model.Inbound{
		Identity:    TelegramIdentity(chatID),
		MessageID:   "tg:" + address + ":" + messageID,
		DisplayName: name,
		Recipient:   model.Recipient{Channel: model.ChannelTelegram, Address: address},
		Event:       model.Event{Kind: model.EventIgnore},
	}
}

// telegramOptionValue resolves a row index back to the option text shown on the keyboard
func telegramOptionValue(msg *models.Message, data string) (string, bool) {
	for _, row := range msg.ReplyMarkup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData == data && button.Text != "" {
				return button.Text, true
			}
		}
	}
	return "", false
}

func telegramName(u models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
