package domain

import "strings"

// ReturnStatus is the lifecycle status of a monthly return
type ReturnStatus string

const (
	StatusDraft       ReturnStatus = "Draft"
	StatusSubmitted   ReturnStatus = "Submitted"
	StatusUnderReview ReturnStatus = "Under_Review"
	StatusApproved    ReturnStatus = "Approved"
	StatusRejected    ReturnStatus = "Rejected"
	StatusFlagged     ReturnStatus = "Flagged"
)

// ParseReturnStatus converts a raw string into a ReturnStatus
func ParseReturnStatus(s string) (ReturnStatus, bool) {
	st := ReturnStatus(strings.TrimSpace(s))
	switch st {
	case StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusApproved, StatusRejected, StatusFlagged:
		return st, true
	}
	return "", false
}

// IsPendingReview reports whether the return is waiting on a regulator
func (s ReturnStatus) IsPendingReview() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview:
		return true
	case StatusDraft, StatusApproved, StatusRejected, StatusFlagged:
		return false
	}
	return false
}

// PendingReviewStatuses are the statuses counted as awaiting review
var PendingReviewStatuses = []ReturnStatus{StatusSubmitted, StatusUnderReview}

// Operation names a workflow operation on a monthly return
type Operation string

const (
	OpAttachFinancialData Operation = "attach financial data to"
	OpAttachDocument      Operation = "attach a document to"
	OpSubmit              Operation = "submit"
	OpBeginReview         Operation = "begin review of"
	OpDecide              Operation = "decide"
	OpReopen              Operation = "reopen"
)

// Decision is the outcome a reviewer records for a return under review
type Decision ReturnStatus

const (
	DecisionApproved Decision = Decision(StatusApproved)
	DecisionRejected Decision = Decision(StatusRejected)
	DecisionFlagged  Decision = Decision(StatusFlagged)
)

// ParseDecision accepts Approved, Rejected or Flagged
func ParseDecision(s string) (Decision, bool) {
	d := Decision(strings.TrimSpace(s))
	switch d {
	case DecisionApproved, DecisionRejected, DecisionFlagged:
		return d, true
	}
	return "", false
}

// Status returns the return status a decision moves to
func (d Decision) Status() ReturnStatus { return ReturnStatus(d) }

// AllowedFrom lists the statuses from which op may be applied
func (op Operation) AllowedFrom() []ReturnStatus {
	switch op {
	case OpAttachFinancialData, OpAttachDocument, OpSubmit:
		return []ReturnStatus{StatusDraft}
	case OpBeginReview:
		return []ReturnStatus{StatusSubmitted}
	case OpDecide:
		return []ReturnStatus{StatusUnderReview}
	case OpReopen:
		return []ReturnStatus{StatusRejected, StatusFlagged}
	}
	return nil
}

// CanApply reports whether op is legal from status s
func (s ReturnStatus) CanApply(op Operation) bool {
	for _, from := range op.AllowedFrom() {
		if from == s {
			return true
		}
	}
	return false
}

// CheckTransition returns a *StateError when op is illegal from s
func CheckTransition(s ReturnStatus, op Operation) error {
	if s.CanApply(op) {
		return nil
	}
	return &StateError{Operation: string(op), Current: s}
}
