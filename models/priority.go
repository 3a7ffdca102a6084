package models

// Priority tiers
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
)

// DefaultHighClaimThreshold is the rent-arrears claim amount above which a
// case is classified High when no threshold is configured
const DefaultHighClaimThreshold = 5000

// ValidPriority reports whether p is a known priority tier
func ValidPriority(p string) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium:
		return true
	}
	return false
}

// ClassifyPriority maps a case type and claim amount to a priority tier.
// Pure; threshold comes from config so the boundary is tunable.
func ClassifyPriority(caseType string, claimAmount float64, highClaimThreshold float64) string {
	switch caseType {
	case CaseTypeIllegalEviction, CaseTypeHarassment, CaseTypeHealthAndSafety:
		return PriorityCritical
	case CaseTypeRepairNeglect:
		return PriorityHigh
	case CaseTypeRentArrears:
		if claimAmount > highClaimThreshold {
			return PriorityHigh
		}
		return PriorityMedium
	default:
		return PriorityMedium
	}
}
