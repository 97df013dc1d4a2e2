package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuestionnaireBot/model"
)

type fakeMailer struct {
	calls      int
	recipients []string
	subject    string
	body       string
	err        error
}

func (f *fakeMailer) SendSummary(ctx context.Context, recipients []string, subject, htmlBody string) error {
	f.calls++
	f.recipients, f.subject, f.body = recipients, subject, htmlBody
	return f.err
}

func completedLedger() *model.Ledger {
	return &model.Ledger{
		Identity:    "+1555",
		DisplayName: "Ada <script>",
		Responses: []model.ResponseEntry{
			{QuestionID: "q1", Answer: "42", Confirmed: true},
			{QuestionID: "gone", Answer: "Red & Blue", Confirmed: true},
			{QuestionID: "q3", Answer: "Yes", Confirmed: true},
		},
	}
}

func TestSummaryHTML(t *testing.T) {
	html := SummaryHTML(completedLedger(), testCatalog())

	assert.Contains(t, html, "<h3>New responses from +1555</h3>")
	assert.Contains(t, html, "<p><strong>Name:</strong> Ada &lt;script&gt;</p>")
	assert.Contains(t, html, "<li><strong>How old are you?</strong>: 42</li>")
	assert.Contains(t, html, "<li><strong>Unknown question</strong>: Red &amp; Blue</li>")
	assert.Contains(t, html, "<li><strong>Will you attend?</strong>: Yes</li>")
}

func TestSummaryNotifierSends(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewSummaryNotifier(mailer, []string{"a@example.com", "b@example.com"})

	n.Notify(context.Background(), completedLedger(), testCatalog())

	require.Equal(t, 1, mailer.calls)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, mailer.recipients)
	assert.Equal(t, "Questionnaire completed by +1555", mailer.subject)
	assert.Contains(t, mailer.body, "How old are you?")
}

func TestSummaryNotifierSkipsWithoutRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	NewSummaryNotifier(mailer, nil).Notify(context.Background(), completedLedger(), testCatalog())
	assert.Zero(t, mailer.calls)
}

func TestSummaryNotifierSwallowsErrors(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	n := NewSummaryNotifier(mailer, []string{"a@example.com"})
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), completedLedger(), testCatalog())
	})
	assert.Equal(t, 1, mailer.calls)
}
