package repo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"QuestionnaireBot/model"
)

// TelegramMessenger is the part of *bot.Bot the sender needs
type TelegramMessenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramSender renders outbound messages as Telegram messages with inline keyboards
type TelegramSender struct {
	bot TelegramMessenger
}

func NewTelegramSender(b TelegramMessenger) *TelegramSender {
	return &TelegramSender{bot: b}
}

func (s *TelegramSender) Send(ctx context.Context, to model.Recipient, msg model.OutboundMessage) error {
	chatID, err := strconv.ParseInt(to.Address, 10, 64)
	if err != nil {
		return fmt.Errorf("error parsing telegram chat id %q: %w", to.Address, err)
	}
	if _, err := s.bot.SendMessage(ctx, telegramParams(chatID, msg)); err != nil {
		return fmt.Errorf("error sending telegram message to %d: %w", chatID, err)
	}
	return nil
}

func telegramParams(chatID int64, msg model.OutboundMessage) *bot.SendMessageParams {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   msg.Body,
	}
	switch msg.Kind {
	case model.OutboundButtons:
		row := make([]models.InlineKeyboardButton, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			row = append(row, models.InlineKeyboardButton{Text: b.Title, CallbackData: b.ID})
		}
		params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
	case model.OutboundList:
		if msg.Header != "" {
			params.Text = msg.Header + "\n" + msg.Body
		}
		keyboard := make([][]models.InlineKeyboardButton, 0, len(msg.Rows))
		for i, opt := range msg.Rows {
			keyboard = append(keyboard, []models.InlineKeyboardButton{{
				Text:         opt,
				CallbackData: model.OptionCallbackPrefix + strconv.Itoa(i),
			}})
		}
		params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}
	return params
}
