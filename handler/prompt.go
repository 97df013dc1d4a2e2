package handler

import (
	"fmt"

	"QuestionnaireBot/model"
)

// Button reply ids. Boolean answers and confirmations use distinct ids so the
// classifier never has to know which one is pending.
const (
	ButtonAnswerYes  = "answer_yes"
	ButtonAnswerNo   = "answer_no"
	ButtonConfirmYes = "confirm_yes"
	ButtonConfirmNo  = "confirm_no"

	// ids sent by earlier deployments, still accepted as confirmations
	legacyButtonYes = "yes_response"
	legacyButtonNo  = "no_response"
)

// OptionsPageSize is the most rows a single list message carries
const OptionsPageSize = 10

const (
	textChooseOption     = "Please choose an option."
	textViewOptions      = "View options"
	textInvalidNumber    = "⚠️ Please enter a valid number."
	textEmptyAnswer      = "⚠️ Please enter a response."
	textUseList          = "⚠️ Please select from the provided list."
	textUseButtons       = "⚠️ Please reply using the Yes or No buttons."
	textUseText          = "⚠️ Please type your answer."
	textCompleted        = "✅ Thank you! You’ve completed all questions."
	textAlreadyCompleted = "You’ve completed all questions. Thank you!"
	confirmationQuestion = "You entered: \"%s\"\nIs this correct?"
	confirmationYesTitle = "Yes"
	confirmationNoTitle  = "No, enter again"
	booleanYesTitle      = "Yes"
	booleanNoTitle       = "No"
)

// RenderQuestion builds the prompt for q. Options questions produce one list per page.
func RenderQuestion(q model.Question) []model.OutboundMessage {
	switch q.AnswerType {
	case model.AnswerTypeOptions:
		if len(q.Options) == 0 {
			return []model.OutboundMessage{textMessage(q.Text)}
		}
		var pages []model.OutboundMessage
		for i := 0; i < len(q.Options); i += OptionsPageSize {
			end := min(i+OptionsPageSize, len(q.Options))
			rows := make([]string, end-i)
			copy(rows, q.Options[i:end])
			pages = append(pages, model.OutboundMessage{
				Kind:       model.OutboundList,
				Header:     q.Text,
				Body:       textChooseOption,
				ListButton: textViewOptions,
				Rows:       rows,
			})
		}
		return pages
	case model.AnswerTypeBoolean:
		return []model.OutboundMessage{{
			Kind: model.OutboundButtons,
			Body: q.Text,
			Buttons: []model.Button{
				{ID: ButtonAnswerYes, Title: booleanYesTitle},
				{ID: ButtonAnswerNo, Title: booleanNoTitle},
			},
		}}
	default:
		return []model.OutboundMessage{textMessage(q.Text)}
	}
}

// RenderConfirmation asks the user to accept or reject answer, echoing it verbatim
func RenderConfirmation(answer string) model.OutboundMessage {
	return model.OutboundMessage{
		Kind: model.OutboundButtons,
		Body: fmt.Sprintf(confirmationQuestion, answer),
		Buttons: []model.Button{
			{ID: ButtonConfirmYes, Title: confirmationYesTitle},
			{ID: ButtonConfirmNo, Title: confirmationNoTitle},
		},
	}
}

func textMessage(body string) model.OutboundMessage {
	return model.OutboundMessage{Kind: model.OutboundText, Body: body}
}
