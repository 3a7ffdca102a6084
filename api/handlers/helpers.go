package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/cache"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
	"github.com/rentcontroldept/rcd-api/notifications"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}

// getLimit reads the page size, clamped to maxPageSize
func getLimit(r *http.Request) int {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || Limit <= 0 {
		Limit = defaultPageSize
	}
	if Limit > maxPageSize {
		Limit = maxPageSize
	}
	return Limit
}

// ActorResolver turns the authenticated identity into a fully resolved
// Actor: role from the login, plus the internal officer/mediator id the
// login maps to. Resolved once per request and passed down.
type ActorResolver struct {
	ODB databases.OfficerDatabase
	MDB databases.MediatorDatabase
}

// Resolve builds the Actor for the current request
func (ar ActorResolver) Resolve(r *http.Request) (api.Actor, error) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		return api.Actor{}, fmt.Errorf("no authenticated identity on request")
	}

	actor := api.Actor{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if actor.IsOfficer() {
		officer, err := ar.ODB.FindOne(ctx, bson.M{"officer.userID": actor.UserID, "officer.active": true})
		if err == nil {
			actor.OfficerID = officer.ID.Hex()
		}
	}
	if actor.IsMediator() {
		mediator, err := ar.MDB.FindOne(ctx, bson.M{"mediator.userID": actor.UserID, "mediator.active": true})
		if err == nil {
			actor.MediatorID = mediator.ID.Hex()
		}
	}
	return actor, nil
}

// caseScopeFilter is the query predicate equivalent of the per-case read
// guard, applied to list and aggregate operations
func caseScopeFilter(actor api.Actor) bson.M {
	switch {
	case actor.IsAdmin():
		return bson.M{}
	case actor.IsOfficer():
		return bson.M{"case.assignedOfficerID": actor.OfficerID}
	case actor.IsMediator():
		return bson.M{"case.assignedMediatorID": actor.MediatorID}
	default:
		return bson.M{"$or": []bson.M{
			{"case.complainantID": actor.UserID},
			{"case.respondentID": actor.UserID},
		}}
	}
}

// hearingScopeFilter scopes hearing lists to what the actor may see
func hearingScopeFilter(actor api.Actor) bson.M {
	switch {
	case actor.IsAdmin():
		return bson.M{}
	case actor.IsOfficer():
		return bson.M{"hearing.presidingOfficerID": actor.OfficerID}
	default:
		return bson.M{"hearing.participants.userID": actor.UserID}
	}
}

// caseRecipients lists the delivery targets for events on a case: every
// participant plus the assigned staff
func caseRecipients(c *models.Case) []notifications.Recipient {
	recipients := make([]notifications.Recipient, 0, len(c.Details.Participants)+2)
	for _, p := range c.Details.Participants {
		recipients = append(recipients, notifications.Recipient{
			UserID: p.UserID,
			Name:   p.Name,
			Email:  p.Contact,
		})
	}
	if c.Details.AssignedOfficerID != "" {
		recipients = append(recipients, notifications.Recipient{
			UserID: c.Details.AssignedOfficerID,
			Name:   c.Details.AssignedOfficerName,
		})
	}
	if c.Details.AssignedMediatorID != "" {
		recipients = append(recipients, notifications.Recipient{
			UserID: c.Details.AssignedMediatorID,
			Name:   c.Details.AssignedMediatorName,
		})
	}
	return recipients
}

// caseKeySet collects every cache entry a mutation of this case can
// invalidate: the single-case view plus the aggregate views of everyone
// involved, and of the acting user
func caseKeySet(c *models.Case, actor api.Actor) *cache.KeySet {
	ks := &cache.KeySet{}
	ks.AddKey(cache.CaseViewKey(c.ID.Hex()))
	ks.AddActor(c.Details.ComplainantID)
	ks.AddActor(c.Details.RespondentID)
	ks.AddActor(c.Details.AssignedOfficerID)
	ks.AddActor(c.Details.AssignedMediatorID)
	ks.AddActor(actor.UserID)
	return ks
}
