package repo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuestionnaireBot/model"
)

type capturedRequest struct {
	Path string
	Auth string
	Body map[string]any
}

func newGraphServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		captured = append(captured, capturedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error": {"message": "nope"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

var waRecipient = model.Recipient{Channel: model.ChannelWhatsApp, Address: "15551234", ReplyFrom: "1000"}

func TestWhatsAppSenderText(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusOK)
	s := NewWhatsAppSender(srv.URL+"/", "token")

	err := s.Send(context.Background(), waRecipient, model.OutboundMessage{Kind: model.OutboundText, Body: "How old are you?"})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "/1000/messages", req.Path)
	assert.Equal(t, "Bearer token", req.Auth)
	assert.Equal(t, "whatsapp", req.Body["messaging_product"])
	assert.Equal(t, "15551234", req.Body["to"])
	assert.Equal(t, "text", req.Body["type"])
	assert.Equal(t, map[string]any{"body": "How old are you?"}, req.Body["text"])
}

func TestWhatsAppSenderButtons(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusOK)
	s := NewWhatsAppSender(srv.URL, "token")

	msg := model.OutboundMessage{
		Kind:    model.OutboundButtons,
		Body:    "You entered: \"42\"\nIs this correct?",
		Buttons: []model.Button{{ID: "confirm_yes", Title: "Yes"}, {ID: "confirm_no", Title: "No, enter again"}},
	}
	require.NoError(t, s.Send(context.Background(), waRecipient, msg))

	interactive := (*captured)[0].Body["interactive"].(map[string]any)
	assert.Equal(t, "button", interactive["type"])
	assert.Equal(t, map[string]any{"text": msg.Body}, interactive["body"])
	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	require.Len(t, buttons, 2)
	assert.Equal(t, map[string]any{"type": "reply", "reply": map[string]any{"id": "confirm_yes", "title": "Yes"}}, buttons[0])
}

func TestWhatsAppSenderList(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusOK)
	s := NewWhatsAppSender(srv.URL, "token")

	long := strings.Repeat("x", 30)
	msg := model.OutboundMessage{
		Kind:       model.OutboundList,
		Header:     "Which of these colours do you like best?",
		Body:       "Please choose an option.",
		ListButton: "View options",
		Rows:       []string{"Red", long},
	}
	require.NoError(t, s.Send(context.Background(), waRecipient, msg))

	interactive := (*captured)[0].Body["interactive"].(map[string]any)
	assert.Equal(t, "list", interactive["type"])
	assert.Equal(t, map[string]any{"type": "text", "text": msg.Header}, interactive["header"])
	action := interactive["action"].(map[string]any)
	assert.Equal(t, "View options", action["button"])
	section := action["sections"].([]any)[0].(map[string]any)
	assert.LessOrEqual(t, len([]rune(section["title"].(string))), listTitleLimit)
	rows := section["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"id": "Red", "title": "Red"}, rows[0])
	longRow := rows[1].(map[string]any)
	assert.Equal(t, long, longRow["id"])
	assert.Equal(t, long, longRow["description"])
	assert.Len(t, []rune(longRow["title"].(string)), listTitleLimit)
}

func TestWhatsAppSenderErrors(t *testing.T) {
	srv, _ := newGraphServer(t, http.StatusBadRequest)
	s := NewWhatsAppSender(srv.URL, "token")

	err := s.Send(context.Background(), waRecipient, model.OutboundMessage{Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")

	noPhoneID := waRecipient
	noPhoneID.ReplyFrom = ""
	assert.Error(t, s.Send(context.Background(), noPhoneID, model.OutboundMessage{Body: "hi"}))
}

func TestWhatsAppSenderListRowIDsCarryFullOption(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusOK)
	s := NewWhatsAppSender(srv.URL, "token")

	longest := strings.Repeat("ü", model.MaxOptionLength)
	q := model.Question{ID: "q", Text: "Pick one", AnswerType: model.AnswerTypeOptions, Options: []string{longest}}
	require.NoError(t, q.Validate())

	msg := model.OutboundMessage{Kind: model.OutboundList, Header: q.Text, Body: "Please choose an option.", ListButton: "View options", Rows: q.Options}
	require.NoError(t, s.Send(context.Background(), waRecipient, msg))

	action := (*captured)[0].Body["interactive"].(map[string]any)["action"].(map[string]any)
	row := action["sections"].([]any)[0].(map[string]any)["rows"].([]any)[0].(map[string]any)
	assert.True(t, q.HasOption(row["id"].(string)), "row id must select the option it was rendered from")
}

func TestWhatsAppSenderLongQuestionMovesToBody(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusOK)
	s := NewWhatsAppSender(srv.URL, "token")

	question := strings.Repeat("Which of the following best describes you? ", 3)
	msg := model.OutboundMessage{Kind: model.OutboundList, Header: question, Body: "Please choose an option.", ListButton: "View options", Rows: []string{"A"}}
	require.NoError(t, s.Send(context.Background(), waRecipient, msg))

	interactive := (*captured)[0].Body["interactive"].(map[string]any)
	assert.NotContains(t, interactive, "header")
	assert.Equal(t, map[string]any{"text": question + "\nPlease choose an option."}, interactive["body"])
}
