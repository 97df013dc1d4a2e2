package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return Catalog{
		{ID: "q1", Order: 0, Text: "How old are you?", AnswerType: AnswerTypeNumber},
		{ID: "q2", Order: 1, Text: "Favourite colour?", AnswerType: AnswerTypeOptions, Options: []string{"Red", "Blue"}},
		{ID: "q3", Order: 2, Text: "Attending?", AnswerType: AnswerTypeBoolean},
	}
}

func TestLedgerState(t *testing.T) {
	catalog := testCatalog()

	var missing *Ledger
	assert.Equal(t, StateNew, missing.State(len(catalog)))
	assert.Equal(t, 0, missing.ConfirmedCount())
	assert.Equal(t, -1, missing.Pending())

	l := NewLedger("+1555", "", time.Now())
	assert.Equal(t, StateAwaitingAnswer, l.State(len(catalog)))

	l.Responses = append(l.Responses, ResponseEntry{QuestionID: "q1", Answer: "42"})
	assert.Equal(t, StateAwaitingConfirmation, l.State(len(catalog)))
	assert.Equal(t, 0, l.Pending())

	l.Responses[0].Confirmed = true
	assert.Equal(t, StateAwaitingAnswer, l.State(len(catalog)))
	assert.Equal(t, 1, l.ConfirmedCount())

	l.Responses = append(l.Responses,
		ResponseEntry{QuestionID: "q2", Answer: "Red", Confirmed: true},
		ResponseEntry{QuestionID: "q3", Answer: "Yes", Confirmed: true},
	)
	assert.Equal(t, StateComplete, l.State(len(catalog)))
	assert.Equal(t, "complete", l.State(len(catalog)).String())
}

func TestLedgerCheckInvariants(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name      string
		responses []ResponseEntry
		wantErr   bool
	}{
		{name: "empty"},
		{
			name: "confirmed then pending",
			responses: []ResponseEntry{
				{QuestionID: "q1", Answer: "42", Confirmed: true},
				{QuestionID: "q2", Answer: "Red"},
			},
		},
		{
			name: "two pending",
			responses: []ResponseEntry{
				{QuestionID: "q1", Answer: "42"},
				{QuestionID: "q1", Answer: "43"},
			},
			wantErr: true,
		},
		{
			name: "pending for a later question",
			responses: []ResponseEntry{
				{QuestionID: "q2", Answer: "Red"},
			},
			wantErr: true,
		},
		{
			name: "confirmed out of order",
			responses: []ResponseEntry{
				{QuestionID: "q2", Answer: "Red", Confirmed: true},
			},
			wantErr: true,
		},
		{
			name: "confirmed after pending",
			responses: []ResponseEntry{
				{QuestionID: "q1", Answer: "42"},
				{QuestionID: "q1", Answer: "42", Confirmed: true},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Ledger{Identity: "+1555", Responses: tt.responses}
			err := l.CheckInvariants(catalog)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedgerCloneIsIndependent(t *testing.T) {
	l := &Ledger{Identity: "+1555", Responses: []ResponseEntry{{QuestionID: "q1", Answer: "42"}}}
	c := l.Clone()
	c.Responses[0].Confirmed = true
	c.Responses = append(c.Responses, ResponseEntry{QuestionID: "q2"})

	assert.False(t, l.Responses[0].Confirmed)
	assert.Len(t, l.Responses, 1)
	assert.Nil(t, (*Ledger)(nil).Clone())
}

func TestSortCatalog(t *testing.T) {
	catalog := SortCatalog([]Question{
		{ID: "c", Order: 2},
		{ID: "a", Order: 0},
		{ID: "b", Order: 1},
	})
	require.Len(t, catalog, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{catalog[0].ID, catalog[1].ID, catalog[2].ID})

	q, ok := catalog.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, 1, q.Order)
	_, ok = catalog.Lookup("zzz")
	assert.False(t, ok)
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{ID: "q", Text: "Pick", AnswerType: AnswerTypeOptions, Options: []string{"a"}}
	require.NoError(t, valid.Validate())

	noOptions := valid
	noOptions.Options = nil
	assert.ErrorIs(t, noOptions.Validate(), ErrInvalidQuestion)

	badType := valid
	badType.AnswerType = "date"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidQuestion)

	negative := valid
	negative.Order = -1
	assert.ErrorIs(t, negative.Validate(), ErrInvalidQuestion)

	longest := valid
	longest.Options = []string{strings.Repeat("é", MaxOptionLength)}
	assert.NoError(t, longest.Validate())

	tooLong := valid
	tooLong.Options = []string{"short", strings.Repeat("x", MaxOptionLength+1)}
	assert.ErrorIs(t, tooLong.Validate(), ErrInvalidQuestion)

	blank := valid
	blank.Options = []string{"a", " "}
	assert.ErrorIs(t, blank.Validate(), ErrInvalidQuestion)

	err := ValidateCatalog([]Question{
		{ID: "a", Order: 0, Text: "A", AnswerType: AnswerTypeText},
		{ID: "b", Order: 0, Text: "B", AnswerType: AnswerTypeText},
	})
	assert.ErrorIs(t, err, ErrInvalidQuestion)
}
