package api

import (
	"github.com/rentcontroldept/rcd-api/models"
)

// Actor is the fully resolved acting identity for one request: login
// identity plus role, and the internal officer/mediator ids the login
// resolves to. Resolution happens once at the authorization boundary;
// handlers pass the Actor down instead of re-looking anything up.
type Actor struct {
	UserID string
	Name   string
	Role   string

	// Internal ids, set only when the role resolves to an active record
	OfficerID  string
	MediatorID string
}

// Capabilities is the set of operations an actor may perform against one
// specific case, computed once per request
type Capabilities struct {
	Read     bool
	Update   bool
	Submit   bool
	Assign   bool
	Schedule bool
	Resolve  bool
	Reopen   bool
	Override bool // generic status transition, administrative only
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsOfficer reports whether the actor holds the RCD officer role
func (a Actor) IsOfficer() bool { return a.Role == models.RoleRCDOfficer }

// IsMediator reports whether the actor holds the mediator role
func (a Actor) IsMediator() bool { return a.Role == models.RoleMediator }

// IsParty reports whether the actor is the case's complainant or respondent
func (a Actor) IsParty(c *models.CaseDetails) bool {
	return a.UserID != "" && (a.UserID == c.ComplainantID || a.UserID == c.RespondentID)
}

// IsComplainant reports whether the actor filed the case
func (a Actor) IsComplainant(c *models.CaseDetails) bool {
	return a.UserID != "" && a.UserID == c.ComplainantID
}

// CapabilitiesFor resolves what the actor may do to the given case.
// Officers hold the broad staff operations against any case, but read and
// update only cases assigned to them; mediators read their assigned cases;
// parties read their own cases and the complainant may update and submit.
func (a Actor) CapabilitiesFor(c *models.CaseDetails) Capabilities {
	switch a.Role {
	case models.RoleAdmin:
		return Capabilities{
			Read:     true,
			Update:   true,
			Submit:   true,
			Assign:   true,
			Schedule: true,
			Resolve:  true,
			Reopen:   true,
			Override: true,
		}
	case models.RoleRCDOfficer:
		assigned := a.OfficerID != "" && a.OfficerID == c.AssignedOfficerID
		return Capabilities{
			Read:     assigned,
			Update:   assigned,
			Submit:   true,
			Assign:   true,
			Schedule: true,
			Resolve:  true,
			Reopen:   true,
		}
	case models.RoleMediator:
		assigned := a.MediatorID != "" && a.MediatorID == c.AssignedMediatorID
		return Capabilities{
			Read: assigned,
		}
	case models.RoleTenant, models.RoleLandlord:
		return Capabilities{
			Read:   a.IsParty(c),
			Update: a.IsComplainant(c),
			Submit: a.IsComplainant(c),
		}
	default:
		return Capabilities{}
	}
}

// CanReadHearing resolves read access against the hearing's parent case
func (a Actor) CanReadHearing(h *models.HearingDetails, parent *models.CaseDetails) bool {
	if a.IsAdmin() {
		return true
	}
	if a.IsOfficer() && a.OfficerID != "" && a.OfficerID == h.PresidingOfficerID {
		return true
	}
	return a.CapabilitiesFor(parent).Read
}
