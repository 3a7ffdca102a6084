package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Hearing holds the structure for the hearings collection in mongo
type Hearing struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details HearingDetails     `json:"hearing" bson:"hearing"`
	Version int32              `json:"__v" bson:"__v"`
}

// HearingDetails holds the structure for the inner hearing details
type HearingDetails struct {
	HearingNumber string `json:"hearingNumber" bson:"hearingNumber"`

	CaseID     string `json:"caseID" bson:"caseID"`
	CaseNumber string `json:"caseNumber" bson:"caseNumber"` // denormalized for display

	Title string `json:"title" bson:"title"`

	// Date is the hearing day (midnight UTC); StartTime/EndTime are
	// wall-clock "HH:MM" strings on that day
	Date      primitive.DateTime `json:"date" bson:"date"`
	StartTime string             `json:"startTime" bson:"startTime"`
	EndTime   string             `json:"endTime" bson:"endTime"`

	Location    string `json:"location,omitempty" bson:"location,omitempty"`
	VirtualLink string `json:"virtualLink,omitempty" bson:"virtualLink,omitempty"`

	Status string `json:"status" bson:"status"`

	// Internal officer ids, not login ids
	PresidingOfficerID   string `json:"presidingOfficerID" bson:"presidingOfficerID"`
	PresidingOfficerName string `json:"presidingOfficerName" bson:"presidingOfficerName"`
	ClerkID              string `json:"clerkID,omitempty" bson:"clerkID,omitempty"`
	ClerkName            string `json:"clerkName,omitempty" bson:"clerkName,omitempty"`

	Outcome string `json:"outcome,omitempty" bson:"outcome,omitempty"`
	Minutes string `json:"minutes,omitempty" bson:"minutes,omitempty"`

	CancelReason string `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`

	Participants []HearingParticipant `json:"participants" bson:"participants"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// HearingParticipant tracks attendance for a single party at a hearing
type HearingParticipant struct {
	UserID    string             `json:"userID" bson:"userID"`
	Name      string             `json:"name" bson:"name"`
	Role      string             `json:"role" bson:"role"` // "complainant", "respondent", "witness", "representative"
	Confirmed bool               `json:"confirmed" bson:"confirmed"`
	Attended  bool               `json:"attended" bson:"attended"`
	AddedAt   primitive.DateTime `json:"addedAt" bson:"addedAt"`
}

// Hearing statuses
const (
	HearingStatusScheduled = "scheduled"
	HearingStatusCompleted = "completed"
	HearingStatusCancelled = "cancelled"
	HearingStatusPostponed = "postponed"
)

// ValidHearingStatus reports whether s is a known hearing status
func ValidHearingStatus(s string) bool {
	switch s {
	case HearingStatusScheduled, HearingStatusCompleted, HearingStatusCancelled, HearingStatusPostponed:
		return true
	}
	return false
}

// TimesOverlap applies the half-open interval overlap test to two "HH:MM"
// time windows on the same day: [s1,e1) and [s2,e2) conflict iff
// s1 < e2 && s2 < e1. A shared boundary (one ends when the other starts)
// is not a conflict. "HH:MM" compares correctly as a string.
func TimesOverlap(start1, end1, start2, end2 string) bool {
	return start1 < end2 && start2 < end1
}
