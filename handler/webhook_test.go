package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuestionnaireBot/model"
	"QuestionnaireBot/repo"
)

const testVerifyToken = "verify-me"

func newTestWebhook(t *testing.T, engine EventHandler, appSecret string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewWebhookHandler(engine, testVerifyToken, appSecret).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestWebhookVerification(t *testing.T) {
	srv := newTestWebhook(t, nil, "")

	resp, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.challenge=12345&hub.verify_token=" + testVerifyToken)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12345", string(body))

	resp, err = http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.challenge=12345&hub.verify_token=wrong")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/webhook?hub.mode=unsubscribe&hub.challenge=1&hub.verify_token=" + testVerifyToken)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func postWebhook(t *testing.T, srv *httptest.Server, body string, header http.Header) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/webhook", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestWebhookProcessesMessages(t *testing.T) {
	store := repo.NewMemoryStore(testCatalog()...)
	sender := &fakeSender{}
	engine := NewEngine(store, store, sender, &fakeNotifier{})
	defer engine.Close()
	srv := newTestWebhook(t, engine, "")

	text := `{"id": "wamid.1", "from": "15551234", "type": "text", "text": {"body": "hello"}}`
	assert.Equal(t, http.StatusOK, postWebhook(t, srv, whatsAppBody("1000", "15551234", text), nil))
	engine.Close()

	l, err := store.FindLedger(context.Background(), "15551234")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", l.DisplayName)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, model.Recipient{Channel: model.ChannelWhatsApp, Address: "15551234", ReplyFrom: "1000"}, sender.sent[0].To)

	answer := `{"id": "wamid.2", "from": "15551234", "type": "text", "text": {"body": "abc"}}`
	assert.Equal(t, http.StatusOK, postWebhook(t, srv, whatsAppBody("1000", "15551234", answer), nil))
	engine.Close()
	l, err = store.FindLedger(context.Background(), "15551234")
	require.NoError(t, err)
	assert.Empty(t, l.Responses)
	require.Len(t, sender.sent, 3)
	assert.Equal(t, textInvalidNumber, sender.sent[1].Msg.Body)
}

func TestWebhookAcknowledgesIrrelevantPayloads(t *testing.T) {
	store := repo.NewMemoryStore(testCatalog()...)
	engine := NewEngine(store, store, &fakeSender{}, &fakeNotifier{})
	defer engine.Close()
	srv := newTestWebhook(t, engine, "")

	bodies := []string{
		`not json`,
		`{}`,
		`{"object": "page", "entry": []}`,
		whatsAppBody("", "15551234", `{"id": "x", "from": "15551234", "type": "text", "text": {"body": "hi"}}`),
		whatsAppBody("1000", "15551234", `{"id": "x", "from": "15551234", "type": "sticker"}`),
	}
	for _, body := range bodies {
		assert.Equal(t, http.StatusOK, postWebhook(t, srv, body, nil), body)
	}
	_, err := store.FindLedger(context.Background(), "15551234")
	assert.ErrorIs(t, err, model.ErrLedgerNotFound)
}

func TestWebhookEmptyCatalogFails(t *testing.T) {
	store := repo.NewMemoryStore()
	engine := NewEngine(store, store, &fakeSender{}, &fakeNotifier{})
	defer engine.Close()
	srv := newTestWebhook(t, engine, "")

	text := `{"id": "wamid.1", "from": "15551234", "type": "text", "text": {"body": "hello"}}`
	assert.Equal(t, http.StatusInternalServerError, postWebhook(t, srv, whatsAppBody("1000", "15551234", text), nil))
}

func TestWebhookPersistenceFailure(t *testing.T) {
	engine := NewEngine(repo.NewMemoryStore(testCatalog()...), failingLedgers{}, &fakeSender{}, &fakeNotifier{})
	defer engine.Close()
	srv := newTestWebhook(t, engine, "")

	text := `{"id": "wamid.1", "from": "15551234", "type": "text", "text": {"body": "hello"}}`
	assert.Equal(t, http.StatusInternalServerError, postWebhook(t, srv, whatsAppBody("1000", "15551234", text), nil))
}

type panickingHandler struct{}

func (panickingHandler) Handle(ctx context.Context, in model.Inbound) error {
	panic("boom")
}

func TestWebhookRecoversFromPanics(t *testing.T) {
	srv := newTestWebhook(t, panickingHandler{}, "")

	text := `{"id": "wamid.1", "from": "15551234", "type": "text", "text": {"body": "hello"}}`
	assert.Equal(t, http.StatusInternalServerError, postWebhook(t, srv, whatsAppBody("1000", "15551234", text), nil))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookSignature(t *testing.T) {
	store := repo.NewMemoryStore(testCatalog()...)
	engine := NewEngine(store, store, &fakeSender{}, &fakeNotifier{})
	defer engine.Close()
	srv := newTestWebhook(t, engine, "app-secret")

	body := whatsAppBody("1000", "15551234", `{"id": "wamid.1", "from": "15551234", "type": "text", "text": {"body": "hello"}}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(body))
	good := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, http.StatusForbidden, postWebhook(t, srv, body, nil))
	assert.Equal(t, http.StatusForbidden, postWebhook(t, srv, body, http.Header{signatureHeader: {"sha256=00"}}))
	assert.Equal(t, http.StatusOK, postWebhook(t, srv, body, http.Header{signatureHeader: {good}}))
}

func TestWebhookAcknowledgesOversizedBody(t *testing.T) {
	routes := NewWebhookHandler(nil, testVerifyToken, "").Routes()

	body := `{"object":"whatsapp_business_account","pad":"` + strings.Repeat("x", maxWebhookBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
