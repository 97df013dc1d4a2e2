package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"QuestionnaireBot/model"
)

const (
	maxWebhookBody  = 1 << 20
	signatureHeader = "X-Hub-Signature-256"
)

// WebhookHandler serves the WhatsApp Cloud API webhook
type WebhookHandler struct {
	engine      EventHandler
	verifyToken string
	appSecret   string
}

// NewWebhookHandler creates the webhook. An empty appSecret disables signature checks.
func NewWebhookHandler(engine EventHandler, verifyToken, appSecret string) *WebhookHandler {
	return &WebhookHandler{
		engine:      engine,
		verifyToken: verifyToken,
		appSecret:   appSecret,
	}
}

// Routes returns the HTTP surface with a request logger attached to every request
func (h *WebhookHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /webhook", h.verify)
	mux.HandleFunc("POST /webhook", h.receive)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return withRequestLogger(mux)
}

func (h *WebhookHandler) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && h.verifyToken != "" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, q.Get("hub.challenge"))
		return
	}
	loggerFrom(r.Context()).Warn().Str("mode", q.Get("hub.mode")).Msg("webhook verification rejected")
	w.WriteHeader(http.StatusForbidden)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := loggerFrom(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}
	if h.appSecret != "" && !validSignature(h.appSecret, body, r.Header.Get(signatureHeader)) {
		logger.Warn().Msg("webhook signature mismatch")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Debug().Err(err).Msg("ignoring undecodable webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}
	if payload.Object == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	failed := false
	for _, in := range ClassifyWhatsApp(payload) {
		if err := h.handleOne(ctx, in); err != nil {
			failed = true
			if errors.Is(err, model.ErrCatalogEmpty) {
				logger.Error().Msg("No questions in database")
				continue
			}
			logger.Error().Err(err).Str("identity", in.Identity).Msg("error handling webhook message")
		}
	}
	if failed {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleOne keeps a panic in one event from taking down the process
func (h *WebhookHandler) handleOne(ctx context.Context, in model.Inbound) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling message: %v", r)
		}
	}()
	return h.engine.Handle(ctx, in)
}

func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.With().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
