package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/models"
)

func TestCapabilitiesForAdmin(t *testing.T) {
	actor := api.Actor{UserID: "a1", Role: models.RoleAdmin}
	caps := actor.CapabilitiesFor(&models.CaseDetails{})

	assert.True(t, caps.Read)
	assert.True(t, caps.Update)
	assert.True(t, caps.Submit)
	assert.True(t, caps.Assign)
	assert.True(t, caps.Schedule)
	assert.True(t, caps.Resolve)
	assert.True(t, caps.Reopen)
	assert.True(t, caps.Override)
}

func TestCapabilitiesForOfficer(t *testing.T) {
	actor := api.Actor{UserID: "o1", Role: models.RoleRCDOfficer, OfficerID: "internal-1"}

	assigned := actor.CapabilitiesFor(&models.CaseDetails{AssignedOfficerID: "internal-1"})
	assert.True(t, assigned.Read)
	assert.True(t, assigned.Update)
	assert.True(t, assigned.Assign)
	assert.True(t, assigned.Schedule)
	assert.True(t, assigned.Resolve)
	assert.True(t, assigned.Reopen)
	assert.False(t, assigned.Override)

	// the staff operations stay, but read and update are assignment-scoped
	other := actor.CapabilitiesFor(&models.CaseDetails{AssignedOfficerID: "internal-2"})
	assert.False(t, other.Read)
	assert.False(t, other.Update)
	assert.True(t, other.Assign)
	assert.True(t, other.Schedule)
	assert.True(t, other.Resolve)
}

func TestCapabilitiesForOfficerWithoutRecord(t *testing.T) {
	// an officer login with no active roster record resolves to no internal id
	// and so can read nothing, even a case with a blank assignment
	actor := api.Actor{UserID: "o1", Role: models.RoleRCDOfficer}
	caps := actor.CapabilitiesFor(&models.CaseDetails{})
	assert.False(t, caps.Read)
	assert.False(t, caps.Update)
}

func TestCapabilitiesForMediator(t *testing.T) {
	actor := api.Actor{UserID: "m1", Role: models.RoleMediator, MediatorID: "internal-m"}

	assigned := actor.CapabilitiesFor(&models.CaseDetails{AssignedMediatorID: "internal-m"})
	assert.True(t, assigned.Read)
	assert.False(t, assigned.Update)
	assert.False(t, assigned.Resolve)
	assert.False(t, assigned.Schedule)

	other := actor.CapabilitiesFor(&models.CaseDetails{AssignedMediatorID: "someone-else"})
	assert.False(t, other.Read)
}

func TestCapabilitiesForParties(t *testing.T) {
	complainant := api.Actor{UserID: "t1", Role: models.RoleTenant}
	respondent := api.Actor{UserID: "l1", Role: models.RoleLandlord}
	stranger := api.Actor{UserID: "x1", Role: models.RoleTenant}

	details := &models.CaseDetails{ComplainantID: "t1", RespondentID: "l1"}

	caps := complainant.CapabilitiesFor(details)
	assert.True(t, caps.Read)
	assert.True(t, caps.Update)
	assert.True(t, caps.Submit)
	assert.False(t, caps.Assign)
	assert.False(t, caps.Resolve)

	// the respondent reads but never edits the filing
	caps = respondent.CapabilitiesFor(details)
	assert.True(t, caps.Read)
	assert.False(t, caps.Update)
	assert.False(t, caps.Submit)

	caps = stranger.CapabilitiesFor(details)
	assert.False(t, caps.Read)
	assert.False(t, caps.Update)
}

func TestCapabilitiesForUnknownRole(t *testing.T) {
	actor := api.Actor{UserID: "x", Role: "visitor"}
	assert.Equal(t, api.Capabilities{}, actor.CapabilitiesFor(&models.CaseDetails{ComplainantID: "x"}))
}

func TestCanReadHearing(t *testing.T) {
	parent := &models.CaseDetails{ComplainantID: "t1", RespondentID: "l1", AssignedOfficerID: "internal-1"}
	hearing := &models.HearingDetails{PresidingOfficerID: "internal-9"}

	admin := api.Actor{UserID: "a1", Role: models.RoleAdmin}
	assert.True(t, admin.CanReadHearing(hearing, parent))

	// the presiding officer reads the hearing even when the case is assigned
	// to someone else
	presiding := api.Actor{UserID: "o9", Role: models.RoleRCDOfficer, OfficerID: "internal-9"}
	assert.True(t, presiding.CanReadHearing(hearing, parent))

	assignedOfficer := api.Actor{UserID: "o1", Role: models.RoleRCDOfficer, OfficerID: "internal-1"}
	assert.True(t, assignedOfficer.CanReadHearing(hearing, parent))

	unrelatedOfficer := api.Actor{UserID: "o2", Role: models.RoleRCDOfficer, OfficerID: "internal-2"}
	assert.False(t, unrelatedOfficer.CanReadHearing(hearing, parent))

	party := api.Actor{UserID: "t1", Role: models.RoleTenant}
	assert.True(t, party.CanReadHearing(hearing, parent))

	stranger := api.Actor{UserID: "x1", Role: models.RoleTenant}
	assert.False(t, stranger.CanReadHearing(hearing, parent))
}

func TestIsPartyHelpers(t *testing.T) {
	details := &models.CaseDetails{ComplainantID: "t1", RespondentID: "l1"}

	assert.True(t, api.Actor{UserID: "t1"}.IsParty(details))
	assert.True(t, api.Actor{UserID: "l1"}.IsParty(details))
	assert.False(t, api.Actor{UserID: "x"}.IsParty(details))
	assert.False(t, api.Actor{}.IsParty(&models.CaseDetails{}))

	assert.True(t, api.Actor{UserID: "t1"}.IsComplainant(details))
	assert.False(t, api.Actor{UserID: "l1"}.IsComplainant(details))
}
