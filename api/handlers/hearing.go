package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/cache"
	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
	"github.com/rentcontroldept/rcd-api/notifications"
)

// Hearing exposes the hearing scheduling operations. Conflict detection
// scans the presiding officer's non-cancelled hearings on the requested day
// before insert; a unique index on (officer, date, startTime) backstops the
// scan against two requests racing through it.
type Hearing struct {
	DB       databases.HearingDatabase
	CDB      databases.CaseDatabase
	ODB      databases.OfficerDatabase
	Counters databases.CounterDatabase
	Cache    *cache.Cache
	Notifier notifications.Notifier
	Resolver ActorResolver
}

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// loadHearing reads the {hearing_id} path var, resolves the actor and
// fetches the hearing with its parent case. On failure the error response
// has already been written.
func (h Hearing) loadHearing(w http.ResponseWriter, r *http.Request) (*models.Hearing, *models.Case, api.Actor, bool) {
	hearingID := mux.Vars(r)["hearing_id"]
	oid, err := primitive.ObjectIDFromHex(hearingID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return nil, nil, api.Actor{}, false
	}

	actor, err := h.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return nil, nil, api.Actor{}, false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearing, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if databases.IsNoDocumentsError(err) {
			config.ErrorStatus("hearing not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
		} else {
			config.ErrorStatus("failed to get hearing by ID", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		}
		return nil, nil, api.Actor{}, false
	}

	caseOID, err := primitive.ObjectIDFromHex(hearing.Details.CaseID)
	if err != nil {
		config.ErrorStatus("hearing references a malformed case id", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return nil, nil, api.Actor{}, false
	}
	parent, err := h.CDB.FindOne(ctx, bson.M{"_id": caseOID})
	if err != nil {
		config.ErrorStatus("failed to get the hearing's case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return nil, nil, api.Actor{}, false
	}
	return hearing, parent, actor, true
}

type scheduleHearingRequest struct {
	CaseID             string `json:"caseID"`
	Title              string `json:"title"`
	Date               string `json:"date"` // "2006-01-02"
	StartTime          string `json:"startTime"`
	EndTime            string `json:"endTime"`
	Location           string `json:"location"`
	VirtualLink        string `json:"virtualLink"`
	PresidingOfficerID string `json:"presidingOfficerID"` // officer login id
	ClerkID            string `json:"clerkID"`
}

// ScheduleHearingHandler creates a hearing against an active case. The
// presiding officer must be free for the whole window; two windows conflict
// when they overlap as half-open intervals, so back-to-back hearings where
// one ends exactly when the next starts are allowed.
func (h Hearing) ScheduleHearingHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := h.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	var req scheduleHearingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	caseOID, err := primitive.ObjectIDFromHex(req.CaseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if !timeOfDayPattern.MatchString(req.StartTime) || !timeOfDayPattern.MatchString(req.EndTime) {
		config.ErrorStatus("times must be HH:MM", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("startTime %q, endTime %q", req.StartTime, req.EndTime))
		return
	}
	if req.StartTime >= req.EndTime {
		config.ErrorStatus("hearing must end after it starts", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("startTime %q, endTime %q", req.StartTime, req.EndTime))
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		config.ErrorStatus("failed to parse hearing date", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.PresidingOfficerID == "" {
		config.ErrorStatus("a presiding officer is required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("presidingOfficerID cannot be blank"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	rdCase, err := h.CDB.FindOne(ctx, bson.M{"_id": caseOID})
	if err != nil {
		if databases.IsNoDocumentsError(err) {
			config.ErrorStatus("case not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
		} else {
			config.ErrorStatus("failed to get case by ID", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		}
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Schedule {
		config.ErrorStatus("not permitted to schedule hearings", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not schedule for case %s", actor.UserID, req.CaseID))
		return
	}

	oldStatus := rdCase.Details.Status
	if models.IsTerminalCaseStatus(oldStatus) || oldStatus == models.CaseStatusDraft {
		config.ErrorStatus("hearings can only be scheduled on active cases", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", oldStatus))
		return
	}
	if oldStatus != models.CaseStatusScheduledForHearing && !models.CanTransitionCase(oldStatus, models.CaseStatusScheduledForHearing) {
		config.ErrorStatus("case cannot move to a hearing from its current status", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", oldStatus))
		return
	}

	officer, err := h.ODB.FindOne(ctx, bson.M{"officer.userID": req.PresidingOfficerID})
	if err != nil {
		if databases.IsNoDocumentsError(err) {
			config.ErrorStatus("presiding officer not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
		} else {
			config.ErrorStatus("failed to get officer", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		}
		return
	}
	if !officer.Details.Active {
		config.ErrorStatus("presiding officer is not active", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("officer %s cannot preside over new hearings", req.PresidingOfficerID))
		return
	}

	var clerkID, clerkName string
	if req.ClerkID != "" {
		clerk, err := h.ODB.FindOne(ctx, bson.M{"officer.userID": req.ClerkID})
		if err != nil {
			if databases.IsNoDocumentsError(err) {
				config.ErrorStatus("clerk not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
			} else {
				config.ErrorStatus("failed to get clerk", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			}
			return
		}
		clerkID = clerk.ID.Hex()
		clerkName = clerk.Details.Name
	}

	dateDT := primitive.NewDateTimeFromTime(day.UTC())

	// conflict scan against the officer's existing hearings on that day
	existing, err := h.DB.Find(ctx, bson.M{
		"hearing.presidingOfficerID": officer.ID.Hex(),
		"hearing.date":               dateDT,
		"hearing.status":             bson.M{"$ne": models.HearingStatusCancelled},
	})
	if err != nil {
		config.ErrorStatus("failed to check officer availability", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	for _, other := range existing {
		if models.TimesOverlap(req.StartTime, req.EndTime, other.Details.StartTime, other.Details.EndTime) {
			config.ErrorStatus("presiding officer already has a hearing in that window", models.ErrKindConflict, http.StatusConflict, w,
				fmt.Errorf("conflicts with hearing %s (%s-%s)", other.Details.HearingNumber, other.Details.StartTime, other.Details.EndTime))
			return
		}
	}

	now := time.Now().UTC()
	seq, err := h.Counters.NextSequence(ctx, models.CounterKey("HE", now.Year(), int(now.Month())))
	if err != nil {
		config.ErrorStatus("failed to allocate hearing number", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	hearingNumber := models.FormatHearingNumber(now.Year(), int(now.Month()), seq)

	nowDT := primitive.NewDateTimeFromTime(now)
	participants := []models.HearingParticipant{
		{UserID: rdCase.Details.ComplainantID, Name: rdCase.Details.ComplainantName, Role: "complainant", AddedAt: nowDT},
		{UserID: rdCase.Details.RespondentID, Name: rdCase.Details.RespondentName, Role: "respondent", AddedAt: nowDT},
	}

	hearing := models.Hearing{
		ID: primitive.NewObjectID(),
		Details: models.HearingDetails{
			HearingNumber:        hearingNumber,
			CaseID:               rdCase.ID.Hex(),
			CaseNumber:           rdCase.Details.CaseNumber,
			Title:                req.Title,
			Date:                 dateDT,
			StartTime:            req.StartTime,
			EndTime:              req.EndTime,
			Location:             req.Location,
			VirtualLink:          req.VirtualLink,
			Status:               models.HearingStatusScheduled,
			PresidingOfficerID:   officer.ID.Hex(),
			PresidingOfficerName: officer.Details.Name,
			ClerkID:              clerkID,
			ClerkName:            clerkName,
			Participants:         participants,
			CreatedAt:            nowDT,
			UpdatedAt:            nowDT,
		},
	}

	if _, err := h.DB.InsertOne(ctx, hearing); err != nil {
		if databases.IsDuplicateKeyError(err) {
			// a racing request claimed the slot between the scan and here
			config.ErrorStatus("presiding officer already has a hearing in that window", models.ErrKindConflict, http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to insert hearing", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	if oldStatus != models.CaseStatusScheduledForHearing {
		matched, err := h.CDB.UpdateOne(ctx,
			bson.M{"_id": rdCase.ID, "case.status": oldStatus},
			bson.M{
				"$set": bson.M{
					"case.status":    models.CaseStatusScheduledForHearing,
					"case.updatedAt": nowDT,
				},
				"$push": bson.M{"case.updates": models.CaseUpdate{
					UpdateType:  "hearing_scheduled",
					Description: "Hearing " + hearingNumber + " scheduled",
					OldValue:    oldStatus,
					NewValue:    models.CaseStatusScheduledForHearing,
					UserID:      actor.UserID,
					UserName:    actor.Name,
					Timestamp:   nowDT,
				}},
			},
		)
		if err != nil {
			config.ErrorStatus("failed to move case to hearing", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			return
		}
		if matched == 0 {
			zap.S().Warnw("case transitioned while scheduling hearing", "caseID", rdCase.ID.Hex(), "hearingID", hearing.ID.Hex())
		}
	}

	ks := caseKeySet(rdCase, actor)
	ks.AddActor(officer.ID.Hex())
	ks.Flush(h.Cache)
	h.Notifier.HearingScheduled(hearing.ID.Hex(), hearingNumber, rdCase.Details.CaseNumber, req.Date, req.StartTime, caseRecipients(rdCase))

	b, err := json.Marshal(hearing)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// HearingByIDHandler returns a single hearing by ID
func (h Hearing) HearingByIDHandler(w http.ResponseWriter, r *http.Request) {
	hearing, parent, actor, ok := h.loadHearing(w, r)
	if !ok {
		return
	}
	if !actor.CanReadHearing(&hearing.Details, &parent.Details) {
		config.ErrorStatus("not permitted to view this hearing", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not read hearing %s", actor.UserID, hearing.ID.Hex()))
		return
	}

	b, err := json.Marshal(hearing)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// HearingsByCaseHandler lists every hearing on a case, oldest first
func (h Hearing) HearingsByCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	actor, err := h.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	rdCase, err := h.CDB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if databases.IsNoDocumentsError(err) {
			config.ErrorStatus("case not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
		} else {
			config.ErrorStatus("failed to get case by ID", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		}
		return
	}
	if !actor.CapabilitiesFor(&rdCase.Details).Read {
		config.ErrorStatus("not permitted to view this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not read case %s", actor.UserID, caseID))
		return
	}

	hearings, err := h.DB.Find(ctx, bson.M{"hearing.caseID": caseID})
	if err != nil {
		config.ErrorStatus("failed to get hearings", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if hearings == nil {
		hearings = []models.Hearing{}
	}

	b, err := json.Marshal(hearings)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateHearingRequest struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Location    *string `json:"location"`
	VirtualLink *string `json:"virtualLink"`
	Status      *string `json:"status"`
}

// UpdateHearingHandler applies a partial update to a hearing. Rescheduling
// does not re-run the availability scan; the clerk moving a hearing is
// trusted to have checked the calendar, and the unique slot index still
// rejects an exact double-booking.
func (h Hearing) UpdateHearingHandler(w http.ResponseWriter, r *http.Request) {
	hearing, parent, actor, ok := h.loadHearing(w, r)
	if !ok {
		return
	}
	if !actor.CapabilitiesFor(&parent.Details).Schedule {
		config.ErrorStatus("not permitted to update hearings", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not update hearing %s", actor.UserID, hearing.ID.Hex()))
		return
	}
	if hearing.Details.Status == models.HearingStatusCancelled {
		config.ErrorStatus("cancelled hearings cannot be updated", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing %s is cancelled", hearing.ID.Hex()))
		return
	}

	var req updateHearingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	set := bson.M{"hearing.updatedAt": now}

	if req.Title != nil {
		set["hearing.title"] = *req.Title
	}
	if req.Location != nil {
		set["hearing.location"] = *req.Location
	}
	if req.VirtualLink != nil {
		set["hearing.virtualLink"] = *req.VirtualLink
	}
	if req.Date != nil {
		day, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			config.ErrorStatus("failed to parse hearing date", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
			return
		}
		set["hearing.date"] = primitive.NewDateTimeFromTime(day.UTC())
	}

	startTime := hearing.Details.StartTime
	endTime := hearing.Details.EndTime
	if req.StartTime != nil {
		if !timeOfDayPattern.MatchString(*req.StartTime) {
			config.ErrorStatus("times must be HH:MM", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("startTime %q", *req.StartTime))
			return
		}
		startTime = *req.StartTime
		set["hearing.startTime"] = startTime
	}
	if req.EndTime != nil {
		if !timeOfDayPattern.MatchString(*req.EndTime) {
			config.ErrorStatus("times must be HH:MM", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("endTime %q", *req.EndTime))
			return
		}
		endTime = *req.EndTime
		set["hearing.endTime"] = endTime
	}
	if startTime >= endTime {
		config.ErrorStatus("hearing must end after it starts", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("startTime %q, endTime %q", startTime, endTime))
		return
	}

	if req.Status != nil {
		if !models.ValidHearingStatus(*req.Status) {
			config.ErrorStatus("unknown hearing status", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("status %q is not recognized", *req.Status))
			return
		}
		if *req.Status == models.HearingStatusCancelled {
			config.ErrorStatus("use the cancel operation to cancel a hearing", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("status cannot be set to cancelled here"))
			return
		}
		set["hearing.status"] = *req.Status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := h.DB.UpdateOne(ctx,
		bson.M{"_id": hearing.ID, "hearing.status": hearing.Details.Status},
		bson.M{"$set": set},
	)
	if err != nil {
		if databases.IsDuplicateKeyError(err) {
			config.ErrorStatus("presiding officer already has a hearing in that window", models.ErrKindConflict, http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to update hearing", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("hearing was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing %s no longer in status %s", hearing.ID.Hex(), hearing.Details.Status))
		return
	}

	ks := caseKeySet(parent, actor)
	ks.AddActor(hearing.Details.PresidingOfficerID)
	ks.Flush(h.Cache)

	b, _ := json.Marshal(map[string]interface{}{"message": "hearing updated", "hearingID": hearing.ID.Hex()})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type cancelHearingRequest struct {
	Reason string `json:"reason"`
}

// CancelHearingHandler cancels a hearing and, when the parent case has no
// other upcoming hearings, moves it back under review
func (h Hearing) CancelHearingHandler(w http.ResponseWriter, r *http.Request) {
	hearing, parent, actor, ok := h.loadHearing(w, r)
	if !ok {
		return
	}
	if !actor.CapabilitiesFor(&parent.Details).Schedule {
		config.ErrorStatus("not permitted to cancel hearings", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not cancel hearing %s", actor.UserID, hearing.ID.Hex()))
		return
	}

	var req cancelHearingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	if hearing.Details.Status == models.HearingStatusCancelled {
		config.ErrorStatus("hearing is already cancelled", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing %s is cancelled", hearing.ID.Hex()))
		return
	}
	if hearing.Details.Status == models.HearingStatusCompleted {
		config.ErrorStatus("completed hearings cannot be cancelled", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing %s is completed", hearing.ID.Hex()))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := h.DB.UpdateOne(ctx,
		bson.M{"_id": hearing.ID, "hearing.status": hearing.Details.Status},
		bson.M{"$set": bson.M{
			"hearing.status":       models.HearingStatusCancelled,
			"hearing.cancelReason": req.Reason,
			"hearing.updatedAt":    now,
		}},
	)
	if err != nil {
		config.ErrorStatus("failed to cancel hearing", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("hearing was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing %s no longer in status %s", hearing.ID.Hex(), hearing.Details.Status))
		return
	}

	// if this was the case's last live hearing, pull the case back into
	// review
	if parent.Details.Status == models.CaseStatusScheduledForHearing {
		remaining, err := h.DB.CountDocuments(ctx, bson.M{
			"hearing.caseID": parent.ID.Hex(),
			"hearing.status": models.HearingStatusScheduled,
		})
		if err != nil {
			zap.S().Errorw("failed to count remaining hearings", "caseID", parent.ID.Hex(), "error", err)
		} else if remaining == 0 {
			matched, err := h.CDB.UpdateOne(ctx,
				bson.M{"_id": parent.ID, "case.status": models.CaseStatusScheduledForHearing},
				bson.M{
					"$set": bson.M{
						"case.status":    models.CaseStatusUnderReview,
						"case.updatedAt": now,
					},
					"$push": bson.M{"case.updates": models.CaseUpdate{
						UpdateType:  "hearing_cancelled",
						Description: "Hearing " + hearing.Details.HearingNumber + " cancelled",
						OldValue:    models.CaseStatusScheduledForHearing,
						NewValue:    models.CaseStatusUnderReview,
						UserID:      actor.UserID,
						UserName:    actor.Name,
						Timestamp:   now,
					}},
				},
			)
			if err != nil {
				zap.S().Errorw("failed to move case back to review", "caseID", parent.ID.Hex(), "error", err)
			} else if matched == 0 {
				zap.S().Warnw("case transitioned while cancelling hearing", "caseID", parent.ID.Hex())
			}
		}
	}

	ks := caseKeySet(parent, actor)
	ks.AddActor(hearing.Details.PresidingOfficerID)
	ks.Flush(h.Cache)
	h.Notifier.HearingCancelled(hearing.ID.Hex(), hearing.Details.HearingNumber, req.Reason, caseRecipients(parent))

	b, _ := json.Marshal(map[string]interface{}{"message": "hearing cancelled", "hearingID": hearing.ID.Hex()})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type addHearingParticipantRequest struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// AddHearingParticipantHandler registers an additional participant, such as
// a witness or representative. A user can appear on a hearing only once.
func (h Hearing) AddHearingParticipantHandler(w http.ResponseWriter, r *http.Request) {
	hearing, parent, actor, ok := h.loadHearing(w, r)
	if !ok {
		return
	}
	if !actor.CapabilitiesFor(&parent.Details).Schedule {
		config.ErrorStatus("not permitted to manage hearing participants", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not update hearing %s", actor.UserID, hearing.ID.Hex()))
		return
	}
	if hearing.Details.Status != models.HearingStatusScheduled && hearing.Details.Status != models.HearingStatusPostponed {
		config.ErrorStatus("participants can only be added to upcoming hearings", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing is in status %s", hearing.Details.Status))
		return
	}

	var req addHearingParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.UserID == "" || req.Name == "" {
		config.ErrorStatus("participant userID and name are required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("userID and name cannot be blank"))
		return
	}
	if req.Role == "" {
		req.Role = "witness"
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	participant := models.HearingParticipant{
		UserID:  req.UserID,
		Name:    req.Name,
		Role:    req.Role,
		AddedAt: now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// the filter excludes hearings already carrying this user, making the
	// duplicate check and the push one atomic step
	matched, err := h.DB.UpdateOne(ctx,
		bson.M{
			"_id":                         hearing.ID,
			"hearing.participants.userID": bson.M{"$ne": req.UserID},
		},
		bson.M{
			"$set":  bson.M{"hearing.updatedAt": now},
			"$push": bson.M{"hearing.participants": participant},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to add participant", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("user is already a participant on this hearing", models.ErrKindConflict, http.StatusConflict, w, fmt.Errorf("user %s already on hearing %s", req.UserID, hearing.ID.Hex()))
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"message": "participant added", "hearingID": hearing.ID.Hex()})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

type recordOutcomeRequest struct {
	Outcome string `json:"outcome"`
	Minutes string `json:"minutes"`
}

// RecordHearingOutcomeHandler records the outcome and minutes of a
// completed hearing
func (h Hearing) RecordHearingOutcomeHandler(w http.ResponseWriter, r *http.Request) {
	hearing, parent, actor, ok := h.loadHearing(w, r)
	if !ok {
		return
	}
	if !actor.CapabilitiesFor(&parent.Details).Schedule {
		config.ErrorStatus("not permitted to record hearing outcomes", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not update hearing %s", actor.UserID, hearing.ID.Hex()))
		return
	}

	var req recordOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.Outcome == "" {
		config.ErrorStatus("outcome is required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("outcome cannot be blank"))
		return
	}
	if hearing.Details.Status != models.HearingStatusCompleted {
		config.ErrorStatus("outcome can only be recorded on a completed hearing", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing is in status %s", hearing.Details.Status))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := h.DB.UpdateOne(ctx,
		bson.M{"_id": hearing.ID, "hearing.status": models.HearingStatusCompleted},
		bson.M{"$set": bson.M{
			"hearing.outcome":   req.Outcome,
			"hearing.minutes":   req.Minutes,
			"hearing.updatedAt": now,
		}},
	)
	if err != nil {
		config.ErrorStatus("failed to record outcome", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("hearing was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("hearing %s is no longer completed", hearing.ID.Hex()))
		return
	}

	_, err = h.CDB.UpdateOne(ctx,
		bson.M{"_id": parent.ID},
		bson.M{
			"$set": bson.M{"case.updatedAt": now},
			"$push": bson.M{"case.updates": models.CaseUpdate{
				UpdateType:  "hearing_outcome_recorded",
				Description: "Outcome recorded for hearing " + hearing.Details.HearingNumber,
				NewValue:    req.Outcome,
				UserID:      actor.UserID,
				UserName:    actor.Name,
				Timestamp:   now,
			}},
		},
	)
	if err != nil {
		zap.S().Errorw("failed to append outcome to case audit trail", "caseID", parent.ID.Hex(), "error", err)
	}

	caseKeySet(parent, actor).Flush(h.Cache)

	b, _ := json.Marshal(map[string]interface{}{"message": "outcome recorded", "hearingID": hearing.ID.Hex()})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
