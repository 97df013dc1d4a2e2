package model

import (
	"fmt"
	"time"
)

type ResponseEntry struct {
	QuestionID string `firestore:"question" json:"question"`
	Answer     string `firestore:"answer" json:"answer"`
	Confirmed  bool   `firestore:"confirmed" json:"confirmed"`
}

// Ledger holds one identity's answers. It is keyed by Identity and never deleted.
type Ledger struct {
	Identity    string          `firestore:"identity" json:"identity"`
	DisplayName string          `firestore:"userName,omitempty" json:"userName,omitempty"`
	Responses   []ResponseEntry `firestore:"responses" json:"responses"`
	CreatedAt   time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

// NewLedger creates an empty ledger for identity
func NewLedger(identity, displayName string, now time.Time) *Ledger {
	return &Ledger{
		Identity:    identity,
		DisplayName: displayName,
		Responses:   []ResponseEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ConfirmedCount is both the progress counter and the catalog index of the current question
func (l *Ledger) ConfirmedCount() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, r := range l.Responses {
		if r.Confirmed {
			n++
		}
	}
	return n
}

// Pending returns the index of the unconfirmed entry, or -1
func (l *Ledger) Pending() int {
	if l == nil {
		return -1
	}
	for i, r := range l.Responses {
		if !r.Confirmed {
			return i
		}
	}
	return -1
}

// Confirmed returns the confirmed entries in order
func (l *Ledger) Confirmed() []ResponseEntry {
	if l == nil {
		return nil
	}
	out := make([]ResponseEntry, 0, len(l.Responses))
	for _, r := range l.Responses {
		if r.Confirmed {
			out = append(out, r)
		}
	}
	return out
}

// State derives the conversation state for a catalog of catalogLen questions
func (l *Ledger) State(catalogLen int) ConversationState {
	if l == nil {
		return StateNew
	}
	if l.ConfirmedCount() >= catalogLen {
		return StateComplete
	}
	if l.Pending() >= 0 {
		return StateAwaitingConfirmation
	}
	return StateAwaitingAnswer
}

// Clone returns a deep copy
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	c := *l
	c.Responses = make([]ResponseEntry, len(l.Responses))
	copy(c.Responses, l.Responses)
	return &c
}

// CheckInvariants verifies the ledger against the catalog
func (l *Ledger) CheckInvariants(catalog Catalog) error {
	if l == nil {
		return nil
	}
	pending := 0
	confirmed := 0
	for i, r := range l.Responses {
		if r.Confirmed {
			if pending > 0 {
				return fmt.Errorf("confirmed entry %d follows an unconfirmed entry", i)
			}
			if confirmed >= len(catalog) {
				return fmt.Errorf("more confirmed entries than questions")
			}
			if catalog[confirmed].ID != r.QuestionID {
				return fmt.Errorf("confirmed entry %d answers %s, expected %s", i, r.QuestionID, catalog[confirmed].ID)
			}
			confirmed++
			continue
		}
		pending++
		if pending > 1 {
			return fmt.Errorf("more than one unconfirmed entry")
		}
		if confirmed >= len(catalog) || catalog[confirmed].ID != r.QuestionID {
			return fmt.Errorf("unconfirmed entry %d does not answer the current question", i)
		}
	}
	return nil
}
