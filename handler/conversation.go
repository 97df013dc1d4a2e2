package handler

import (
	"regexp"
	"time"

	"QuestionnaireBot/model"
)

var numberAnswer = regexp.MustCompile(`^\d+$`)

// Transition is the outcome of feeding one event to a ledger
type Transition struct {
	From model.ConversationState
	To   model.ConversationState
	// Ledger is the document to persist, nil when nothing changed
	Ledger *model.Ledger
	// Result is the ledger after the step, changed or not
	Result   *model.Ledger
	Messages []model.OutboundMessage
	Notify   bool
}

// Step decides what an inbound event does to the ledger. It never mutates current.
// catalog must not be empty.
func Step(current *model.Ledger, catalog model.Catalog, in model.Inbound, now time.Time) Transition {
	from := current.State(len(catalog))
	t := Transition{From: from, To: from, Result: current}

	if in.Event.Kind == model.EventIgnore {
		return t
	}

	switch from {
	case model.StateNew:
		ledger := model.NewLedger(in.Identity, in.DisplayName, now)
		t.Ledger, t.Result = ledger, ledger
		t.Messages = RenderQuestion(catalog[0])
		t.To = model.StateAwaitingAnswer
		return t
	case model.StateComplete:
		t.Messages = []model.OutboundMessage{textMessage(textAlreadyCompleted)}
		t.Notify = true
		return t
	}

	index := current.ConfirmedCount()
	question := catalog[index]

	switch in.Event.Kind {
	case model.EventConfirmYes, model.EventConfirmNo:
		if from != model.StateAwaitingConfirmation {
			// nothing pending, usually a repeated tap on an old confirmation
			return t
		}
		next := current.Clone()
		pending := next.Pending()
		if in.Event.Kind == model.EventConfirmNo {
			next.Responses = append(next.Responses[:pending], next.Responses[pending+1:]...)
			t.Messages = RenderQuestion(question)
			t.To = model.StateAwaitingAnswer
		} else {
			next.Responses[pending].Confirmed = true
			if index+1 < len(catalog) {
				t.Messages = RenderQuestion(catalog[index+1])
				t.To = model.StateAwaitingAnswer
			} else {
				t.Messages = []model.OutboundMessage{textMessage(textCompleted)}
				t.Notify = true
				t.To = model.StateComplete
			}
		}
		touch(next, in, now)
		t.Ledger, t.Result = next, next
		return t
	}

	answer, warning := validateAnswer(question, in.Event)
	if warning != "" {
		t.Messages = append([]model.OutboundMessage{textMessage(warning)}, RenderQuestion(question)...)
		return t
	}

	next := current.Clone()
	if pending := next.Pending(); pending >= 0 {
		next.Responses = append(next.Responses[:pending], next.Responses[pending+1:]...)
	}
	next.Responses = append(next.Responses, model.ResponseEntry{
		QuestionID: question.ID,
		Answer:     answer,
	})
	touch(next, in, now)
	t.Ledger, t.Result = next, next
	t.Messages = []model.OutboundMessage{RenderConfirmation(answer)}
	t.To = model.StateAwaitingConfirmation
	return t
}

// validateAnswer returns the value to store, or a warning for the user
func validateAnswer(q model.Question, ev model.Event) (string, string) {
	switch ev.Kind {
	case model.EventChoiceSelected:
		if q.AnswerType != model.AnswerTypeOptions {
			return "", wrongInputWarning(q)
		}
		if !q.HasOption(ev.Value) {
			return "", textUseList
		}
		return ev.Value, ""
	case model.EventBooleanAnswered:
		if q.AnswerType != model.AnswerTypeBoolean {
			return "", wrongInputWarning(q)
		}
		if ev.Value == model.BooleanYes {
			return booleanYesTitle, ""
		}
		return booleanNoTitle, ""
	case model.EventFreeText:
		switch q.AnswerType {
		case model.AnswerTypeNumber:
			if !numberAnswer.MatchString(ev.Value) {
				return "", textInvalidNumber
			}
		case model.AnswerTypeText:
			if ev.Value == "" {
				return "", textEmptyAnswer
			}
		default:
			return "", wrongInputWarning(q)
		}
		return ev.Value, ""
	}
	return "", wrongInputWarning(q)
}

func wrongInputWarning(q model.Question) string {
	switch q.AnswerType {
	case model.AnswerTypeOptions:
		return textUseList
	case model.AnswerTypeBoolean:
		return textUseButtons
	}
	return textUseText
}

func touch(l *model.Ledger, in model.Inbound, now time.Time) {
	l.UpdatedAt = now
	if l.DisplayName == "" && in.DisplayName != "" {
		l.DisplayName = in.DisplayName
	}
}
