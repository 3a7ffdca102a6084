package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	// Business identity, immutable once assigned. Format: {TypePrefix}/{Year}/{Month:2}/{Sequence:4}
	CaseNumber string `json:"caseNumber" bson:"caseNumber"`

	CaseType    string `json:"caseType" bson:"caseType"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	// Parties
	ComplainantID      string `json:"complainantID" bson:"complainantID"`
	ComplainantName    string `json:"complainantName" bson:"complainantName"`
	ComplainantContact string `json:"complainantContact" bson:"complainantContact"`
	RespondentID       string `json:"respondentID" bson:"respondentID"`
	RespondentName     string `json:"respondentName" bson:"respondentName"`
	RespondentContact  string `json:"respondentContact" bson:"respondentContact"`

	// Optional linked records, validated against the property/tenancy
	// collections when present
	PropertyID string `json:"propertyID,omitempty" bson:"propertyID,omitempty"`
	TenancyID  string `json:"tenancyID,omitempty" bson:"tenancyID,omitempty"`

	Status   string `json:"status" bson:"status"`
	Priority string `json:"priority" bson:"priority"`

	IncidentDate primitive.DateTime `json:"incidentDate,omitempty" bson:"incidentDate,omitempty"`

	ClaimAmount   float64 `json:"claimAmount" bson:"claimAmount"`
	AwardedAmount float64 `json:"awardedAmount,omitempty" bson:"awardedAmount,omitempty"`

	Resolution        string             `json:"resolution,omitempty" bson:"resolution,omitempty"`
	ResolutionDetails string             `json:"resolutionDetails,omitempty" bson:"resolutionDetails,omitempty"`
	ResolutionDate    primitive.DateTime `json:"resolutionDate,omitempty" bson:"resolutionDate,omitempty"`

	// Assignment. IDs are internal officer/mediator ids, not login ids.
	AssignedOfficerID    string `json:"assignedOfficerID,omitempty" bson:"assignedOfficerID,omitempty"`
	AssignedOfficerName  string `json:"assignedOfficerName,omitempty" bson:"assignedOfficerName,omitempty"`
	AssignedMediatorID   string `json:"assignedMediatorID,omitempty" bson:"assignedMediatorID,omitempty"`
	AssignedMediatorName string `json:"assignedMediatorName,omitempty" bson:"assignedMediatorName,omitempty"`

	Participants []CaseParticipant `json:"participants" bson:"participants"`

	// Append-only audit trail; insertion order is significant
	Updates []CaseUpdate `json:"updates" bson:"updates"`

	Notes []CaseNote `json:"notes" bson:"notes"`

	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
	SubmittedAt primitive.DateTime `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
	ClosedAt    primitive.DateTime `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
}

// CaseParticipant represents a party associated with a case
type CaseParticipant struct {
	UserID  string             `json:"userID" bson:"userID"`
	Name    string             `json:"name" bson:"name"`
	Contact string             `json:"contact,omitempty" bson:"contact,omitempty"`
	Role    string             `json:"role" bson:"role"` // "complainant", "respondent", "witness", "representative"
	AddedAt primitive.DateTime `json:"addedAt" bson:"addedAt"`
}

// CaseUpdate records a single event in the case lifecycle
type CaseUpdate struct {
	UpdateType  string             `json:"updateType" bson:"updateType"` // "case_created", "submitted", "assigned", "status_changed", ...
	Description string             `json:"description" bson:"description"`
	OldValue    string             `json:"oldValue,omitempty" bson:"oldValue,omitempty"`
	NewValue    string             `json:"newValue,omitempty" bson:"newValue,omitempty"`
	UserID      string             `json:"userID" bson:"userID"`
	UserName    string             `json:"userName" bson:"userName"`
	Timestamp   primitive.DateTime `json:"timestamp" bson:"timestamp"`
}

// CaseNote is a free-text annotation on a case
type CaseNote struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Text      string             `json:"text" bson:"text"`
	Internal  bool               `json:"internal" bson:"internal"` // internal notes are hidden from the parties
	UserID    string             `json:"userID" bson:"userID"`
	UserName  string             `json:"userName" bson:"userName"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Case types
const (
	CaseTypeRentArrears            = "rent_arrears"
	CaseTypePropertyMaintenance    = "property_maintenance"
	CaseTypeIllegalEviction        = "illegal_eviction"
	CaseTypeRentIncreaseDispute    = "rent_increase_dispute"
	CaseTypeSecurityDepositDispute = "security_deposit_dispute"
	CaseTypeHarassment             = "harassment"
	CaseTypeUtilityDispute         = "utility_dispute"
	CaseTypeRepairNeglect          = "repair_neglect"
	CaseTypeOvercrowding           = "overcrowding"
	CaseTypeHealthAndSafety        = "health_and_safety"
	CaseTypeNoiseComplaint         = "noise_complaint"
	CaseTypeLeaseViolation         = "lease_violation"
	CaseTypeOther                  = "other"
)

var caseTypePrefixes = map[string]string{
	CaseTypeRentArrears:            "RA",
	CaseTypePropertyMaintenance:    "PM",
	CaseTypeIllegalEviction:        "IE",
	CaseTypeRentIncreaseDispute:    "RI",
	CaseTypeSecurityDepositDispute: "SD",
	CaseTypeHarassment:             "HA",
	CaseTypeUtilityDispute:         "UD",
	CaseTypeRepairNeglect:          "RN",
	CaseTypeOvercrowding:           "OC",
	CaseTypeHealthAndSafety:        "HS",
	CaseTypeNoiseComplaint:         "NC",
	CaseTypeLeaseViolation:         "LV",
	CaseTypeOther:                  "OT",
}

// ValidCaseType reports whether t is a known case type
func ValidCaseType(t string) bool {
	_, ok := caseTypePrefixes[t]
	return ok
}

// CaseTypePrefix returns the two-letter case number prefix for a case type.
// Unknown types fall back to the "other" prefix.
func CaseTypePrefix(caseType string) string {
	if p, ok := caseTypePrefixes[caseType]; ok {
		return p
	}
	return "OT"
}

// FormatCaseNumber renders a case number from its bucket and sequence,
// e.g. RA/2026/08/0042
func FormatCaseNumber(prefix string, year int, month int, seq int64) string {
	return fmt.Sprintf("%s/%d/%02d/%04d", prefix, year, month, seq)
}

// FormatHearingNumber renders a hearing number, e.g. HE/2026/08/0007
func FormatHearingNumber(year int, month int, seq int64) string {
	return fmt.Sprintf("HE/%d/%02d/%04d", year, month, seq)
}

// CounterKey is the counters-collection bucket for a numbering sequence,
// one per prefix/year/month
func CounterKey(prefix string, year int, month int) string {
	return fmt.Sprintf("%s/%d/%02d", prefix, year, month)
}
