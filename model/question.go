package model

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// AnswerType defines how a question expects to be answered
type AnswerType string

// MaxOptionLength is the longest option in runes. Options travel back as the
// WhatsApp list row id, which is capped at 200 characters.
const MaxOptionLength = 200

const (
	AnswerTypeText    AnswerType = "text"
	AnswerTypeNumber  AnswerType = "number"
	AnswerTypeBoolean AnswerType = "boolean"
	AnswerTypeOptions AnswerType = "options"
)

// Valid reports whether t is one of the known answer types
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerTypeText, AnswerTypeNumber, AnswerTypeBoolean, AnswerTypeOptions:
		return true
	}
	return false
}

type Question struct {
	ID         string     `firestore:"-" json:"id" yaml:"id"`
	Order      int        `firestore:"order" json:"order" yaml:"order"`
	Text       string     `firestore:"question" json:"question" yaml:"question"`
	AnswerType AnswerType `firestore:"answerType" json:"answerType" yaml:"answerType"`
	Options    []string   `firestore:"options" json:"options,omitempty" yaml:"options,omitempty"` // Used for options questions
}

// Validate checks a question before it is written to the catalog
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidQuestion)
	}
	if q.Order < 0 {
		return fmt.Errorf("%w: question %s has negative order", ErrInvalidQuestion, q.ID)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question %s has no text", ErrInvalidQuestion, q.ID)
	}
	if !q.AnswerType.Valid() {
		return fmt.Errorf("%w: question %s has unknown answer type %q", ErrInvalidQuestion, q.ID, q.AnswerType)
	}
	if q.AnswerType == AnswerTypeOptions && len(q.Options) == 0 {
		return fmt.Errorf("%w: question %s needs options", ErrInvalidQuestion, q.ID)
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: question %s has an empty option", ErrInvalidQuestion, q.ID)
		}
		if utf8.RuneCountInString(opt) > MaxOptionLength {
			return fmt.Errorf("%w: question %s has an option longer than %d characters", ErrInvalidQuestion, q.ID, MaxOptionLength)
		}
	}
	return nil
}

// HasOption reports whether value is one of the question's options
func (q Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Catalog is the ordered questionnaire. Index i is the question asked after i confirmed answers.
type Catalog []Question

// SortCatalog orders questions by Order ascending
func SortCatalog(questions []Question) Catalog {
	catalog := make(Catalog, len(questions))
	copy(catalog, questions)
	sort.SliceStable(catalog, func(i, j int) bool {
		return catalog[i].Order < catalog[j].Order
	})
	return catalog
}

// Lookup finds a question by ID
func (c Catalog) Lookup(id string) (Question, bool) {
	for _, q := range c {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// ValidateCatalog checks every question and that orders are unique
func ValidateCatalog(questions []Question) error {
	orders := make(map[int]string, len(questions))
	ids := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if other, ok := orders[q.Order]; ok {
			return fmt.Errorf("%w: questions %s and %s share order %d", ErrInvalidQuestion, other, q.ID, q.Order)
		}
		if _, ok := ids[q.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidQuestion, q.ID)
		}
		orders[q.Order] = q.ID
		ids[q.ID] = struct{}{}
	}
	return nil
}
