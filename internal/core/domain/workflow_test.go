package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []ReturnStatus{
	StatusDraft, StatusSubmitted, StatusUnderReview,
	StatusApproved, StatusRejected, StatusFlagged,
}

func TestTransitionTable(t *testing.T) {
	legal := map[Operation][]ReturnStatus{
		OpAttachFinancialData: {StatusDraft},
		OpAttachDocument:      {StatusDraft},
		OpSubmit:              {StatusDraft},
		OpBeginReview:         {StatusSubmitted},
		OpDecide:              {StatusUnderReview},
		OpReopen:              {StatusRejected, StatusFlagged},
	}

	for op, from := range legal {
		for _, s := range allStatuses {
			want := false
			for _, f := range from {
				if f == s {
					want = true
				}
			}
			assert.Equal(t, want, s.CanApply(op), "%s from %s", op, s)

			err := CheckTransition(s, op)
			if want {
				assert.NoError(t, err)
				continue
			}
			var se *StateError
			require.True(t, errors.As(err, &se), "%s from %s", op, s)
			assert.Equal(t, s, se.Current)
			assert.Equal(t, string(op), se.Operation)
			assert.ErrorIs(t, err, ErrInvalidState)
		}
	}
}

func TestApprovedIsTerminal(t *testing.T) {
	for _, op := range []Operation{OpAttachFinancialData, OpAttachDocument, OpSubmit, OpBeginReview, OpDecide, OpReopen} {
		assert.False(t, StatusApproved.CanApply(op), op)
	}
}

func TestStateErrorMessage(t *testing.T) {
	err := CheckTransition(StatusApproved, OpSubmit)
	assert.EqualError(t, err, "cannot submit a return in status Approved")
}

func TestPendingReview(t *testing.T) {
	for _, s := range allStatuses {
		want := s == StatusSubmitted || s == StatusUnderReview
		assert.Equal(t, want, s.IsPendingReview(), s)
	}
	assert.ElementsMatch(t, []ReturnStatus{StatusSubmitted, StatusUnderReview}, PendingReviewStatuses)
}

func TestParseDecision(t *testing.T) {
	d, ok := ParseDecision(" Flagged")
	require.True(t, ok)
	assert.Equal(t, StatusFlagged, d.Status())

	for _, bad := range []string{"", "Draft", "Submitted", "Under_Review", "approved"} {
		_, ok := ParseDecision(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseReturnStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, ok := ParseReturnStatus(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseReturnStatus("Archived")
	assert.False(t, ok)
}

func TestParseMonth(t *testing.T) {
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03", "2024-03-17", " 2024-03-31 ", "2024-03-15T23:59:00Z"} {
		got, err := ParseMonth(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseMonth("March 2024")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "reporting_month", ve.Field)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeMonthUsesUTC(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	// 01:00 on 1 April in Nairobi is still 31 March in UTC
	got := NormalizeMonth(time.Date(2024, time.April, 1, 1, 0, 0, 0, eat))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestSaccoStatusToggle(t *testing.T) {
	assert.Equal(t, SaccoInactive, SaccoActive.Toggle())
	assert.Equal(t, SaccoActive, SaccoInactive.Toggle())
}

func TestTypeValidity(t *testing.T) {
	assert.True(t, SaccoType("").Valid())
	assert.True(t, SaccoDepositTaking.Valid())
	assert.False(t, SaccoType("Bank").Valid())
	assert.True(t, DocBoardResolution.Valid())
	assert.False(t, DocumentType("").Valid())
}
