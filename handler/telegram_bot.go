package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"QuestionnaireBot/model"
)

// callbackAnswerer is the part of *bot.Bot used to dismiss button spinners
type callbackAnswerer interface {
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// TelegramBotHandler feeds Telegram updates into the engine
type TelegramBotHandler struct {
	engine EventHandler
}

func NewTelegramBotHandler(engine EventHandler) *TelegramBotHandler {
	return &TelegramBotHandler{
		engine: engine,
	}
}

// Handler is registered as the bot's default handler
func (t *TelegramBotHandler) Handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	var answerer callbackAnswerer
	if b != nil {
		answerer = b
	}
	t.handle(ctx, answerer, update)
}

func (t *TelegramBotHandler) handle(ctx context.Context, answerer callbackAnswerer, update *models.Update) {
	logger := log.With().Str("request_id", uuid.NewString()).Str("channel", model.ChannelTelegram).Logger()
	ctx = logger.WithContext(ctx)

	if update != nil && update.CallbackQuery != nil && answerer != nil {
		_, err := answerer.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
		if err != nil {
			logger.Error().Err(err).Msg("error answering callback query")
		}
	}

	if err := t.handleOne(ctx, update); err != nil {
		if errors.Is(err, model.ErrCatalogEmpty) {
			logger.Error().Msg("No questions in database")
			return
		}
		logger.Error().Err(err).Msg("error handling telegram update")
	}
}

func (t *TelegramBotHandler) handleOne(ctx context.Context, update *models.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling update: %v", r)
		}
	}()
	return t.engine.Handle(ctx, ClassifyTelegram(update))
}
