package models

// Case statuses
const (
	CaseStatusDraft               = "draft"
	CaseStatusSubmitted           = "submitted"
	CaseStatusUnderReview         = "under_review"
	CaseStatusInvestigation       = "investigation"
	CaseStatusScheduledForHearing = "scheduled_for_hearing"
	CaseStatusResolved            = "resolved"
	CaseStatusReopened            = "reopened"
	CaseStatusWithdrawn           = "withdrawn"
	CaseStatusDismissed           = "dismissed"
	CaseStatusClosed              = "closed"
)

// caseTransitions is the full set of legal status edges. Every transition,
// including administrative overrides, is validated against this table.
var caseTransitions = map[string][]string{
	CaseStatusDraft:               {CaseStatusSubmitted, CaseStatusWithdrawn},
	CaseStatusSubmitted:           {CaseStatusUnderReview, CaseStatusResolved, CaseStatusWithdrawn, CaseStatusDismissed},
	CaseStatusUnderReview:         {CaseStatusInvestigation, CaseStatusScheduledForHearing, CaseStatusResolved, CaseStatusWithdrawn, CaseStatusDismissed},
	CaseStatusInvestigation:       {CaseStatusScheduledForHearing, CaseStatusResolved, CaseStatusWithdrawn, CaseStatusDismissed},
	CaseStatusScheduledForHearing: {CaseStatusUnderReview, CaseStatusResolved, CaseStatusWithdrawn, CaseStatusDismissed},
	CaseStatusResolved:            {CaseStatusClosed, CaseStatusReopened},
	CaseStatusReopened:            {CaseStatusUnderReview, CaseStatusResolved},
	CaseStatusClosed:              {CaseStatusReopened},
	CaseStatusWithdrawn:           {},
	CaseStatusDismissed:           {},
}

// ValidCaseStatus reports whether s is a known case status
func ValidCaseStatus(s string) bool {
	_, ok := caseTransitions[s]
	return ok
}

// CanTransitionCase reports whether from -> to is a legal lifecycle edge
func CanTransitionCase(from, to string) bool {
	for _, next := range caseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalCaseStatus reports whether a status ends the case lifecycle.
// Closed is terminal but may still be reopened; Withdrawn and Dismissed are
// dead ends.
func IsTerminalCaseStatus(s string) bool {
	return s == CaseStatusClosed || s == CaseStatusWithdrawn || s == CaseStatusDismissed
}

// ResolvableCaseStatuses are the states a case may be resolved from: any
// non-terminal state past draft that is not already resolved.
var ResolvableCaseStatuses = []string{
	CaseStatusSubmitted,
	CaseStatusUnderReview,
	CaseStatusInvestigation,
	CaseStatusScheduledForHearing,
	CaseStatusReopened,
}

// CanResolveFrom reports whether a case in the given status may be resolved
func CanResolveFrom(status string) bool {
	for _, s := range ResolvableCaseStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ReopenableCaseStatuses are the states a case may be reopened from
var ReopenableCaseStatuses = []string{CaseStatusResolved, CaseStatusClosed}

// CanReopenFrom reports whether a case in the given status may be reopened
func CanReopenFrom(status string) bool {
	return status == CaseStatusResolved || status == CaseStatusClosed
}
