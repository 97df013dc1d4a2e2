package handler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"QuestionnaireBot/model"
)

const unknownQuestion = "Unknown question"

// Mailer sends an HTML summary to a list of addresses
type Mailer interface {
	SendSummary(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// SummaryNotifier emails a ledger summary when a questionnaire is completed
type SummaryNotifier struct {
	mailer     Mailer
	recipients []string
}

func NewSummaryNotifier(mailer Mailer, recipients []string) *SummaryNotifier {
	return &SummaryNotifier{
		mailer:     mailer,
		recipients: recipients,
	}
}

// Notify is best effort: failures are logged, never returned
func (n *SummaryNotifier) Notify(ctx context.Context, ledger *model.Ledger, catalog model.Catalog) {
	logger := loggerFrom(ctx)
	if len(n.recipients) == 0 {
		logger.Warn().Msg("No notification emails configured")
		return
	}
	if ledger == nil {
		return
	}

	err := n.mailer.SendSummary(ctx, n.recipients, SummarySubject(ledger), SummaryHTML(ledger, catalog))
	if err != nil {
		logger.Error().Err(err).Str("identity", ledger.Identity).Msg("error sending completion email")
		return
	}
	logger.Info().Strs("recipients", n.recipients).Str("identity", ledger.Identity).Msg("completion email sent")
}

func SummarySubject(ledger *model.Ledger) string {
	return "Questionnaire completed by " + ledger.Identity
}

// SummaryHTML lists every confirmed answer next to its question text
func SummaryHTML(ledger *model.Ledger, catalog model.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>New responses from %s</h3>", html.EscapeString(ledger.Identity))
	if ledger.DisplayName != "" {
		fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", html.EscapeString(ledger.DisplayName))
	}
	b.WriteString("<ul>")
	for _, r := range ledger.Confirmed() {
		text := unknownQuestion
		if q, ok := catalog.Lookup(r.QuestionID); ok {
			text = q.Text
		}
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s</li>", html.EscapeString(text), html.EscapeString(r.Answer))
	}
	b.WriteString("</ul>")
	return b.String()
}
