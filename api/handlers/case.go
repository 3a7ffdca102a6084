package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/cache"
	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
	"github.com/rentcontroldept/rcd-api/notifications"
)

// Case exposes the case lifecycle operations. Every mutation re-checks the
// observed status inside the update filter, so a concurrent transition makes
// the write match nothing instead of silently clobbering it.
type Case struct {
	DB       databases.CaseDatabase
	ODB      databases.OfficerDatabase
	MDB      databases.MediatorDatabase
	PDB      databases.PropertyDatabase
	TDB      databases.TenancyDatabase
	Counters databases.CounterDatabase
	Cache    *cache.Cache
	Notifier notifications.Notifier
	Resolver ActorResolver

	HighClaimThreshold float64
}

// loadCase reads the {case_id} path var, resolves the actor and fetches the
// case. On failure the error response has already been written.
func (c Case) loadCase(w http.ResponseWriter, r *http.Request) (*models.Case, api.Actor, bool) {
	caseID := mux.Vars(r)["case_id"]
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return nil, api.Actor{}, false
	}

	actor, err := c.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return nil, api.Actor{}, false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	rdCase, err := c.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if databases.IsNoDocumentsError(err) {
			config.ErrorStatus("case not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
		} else {
			config.ErrorStatus("failed to get case by ID", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		}
		return nil, api.Actor{}, false
	}
	return rdCase, actor, true
}

// viewForActor strips internal notes from the case before serving it to a
// party. Staff see the case as stored.
func viewForActor(actor api.Actor, rdCase models.Case) models.Case {
	if actor.IsAdmin() || actor.IsOfficer() || actor.IsMediator() {
		return rdCase
	}
	visible := make([]models.CaseNote, 0, len(rdCase.Details.Notes))
	for _, n := range rdCase.Details.Notes {
		if !n.Internal {
			visible = append(visible, n)
		}
	}
	rdCase.Details.Notes = visible
	return rdCase
}

type createCaseRequest struct {
	CaseType    string `json:"caseType"`
	Title       string `json:"title"`
	Description string `json:"description"`

	ComplainantID      string `json:"complainantID"`
	ComplainantName    string `json:"complainantName"`
	ComplainantContact string `json:"complainantContact"`
	RespondentID       string `json:"respondentID"`
	RespondentName     string `json:"respondentName"`
	RespondentContact  string `json:"respondentContact"`

	PropertyID   string  `json:"propertyID"`
	TenancyID    string  `json:"tenancyID"`
	IncidentDate string  `json:"incidentDate"` // "2006-01-02"
	ClaimAmount  float64 `json:"claimAmount"`

	InitialNote string `json:"initialNote"`
}

// CreateCaseHandler creates a new case in draft. The case number is drawn
// from an atomic per-type monthly counter so concurrent creates in the same
// bucket can never collide, and the priority is classified from the case
// type and claim amount.
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := c.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}
	if actor.IsMediator() {
		config.ErrorStatus("mediators cannot file cases", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("role %s cannot create cases", actor.Role))
		return
	}

	var req createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	// parties filing for themselves are the complainant
	if req.ComplainantID == "" && !actor.IsAdmin() && !actor.IsOfficer() {
		req.ComplainantID = actor.UserID
		req.ComplainantName = actor.Name
	}

	if !models.ValidCaseType(req.CaseType) {
		config.ErrorStatus("unknown case type", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("caseType %q is not recognized", req.CaseType))
		return
	}
	if req.Title == "" || req.ComplainantID == "" || req.RespondentID == "" || req.RespondentName == "" {
		config.ErrorStatus("missing required fields", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("title, complainant and respondent are required"))
		return
	}
	if req.ClaimAmount < 0 {
		config.ErrorStatus("claim amount cannot be negative", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("claimAmount: %v", req.ClaimAmount))
		return
	}

	var incidentDate primitive.DateTime
	if req.IncidentDate != "" {
		t, err := time.Parse("2006-01-02", req.IncidentDate)
		if err != nil {
			config.ErrorStatus("failed to parse incident date", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
			return
		}
		incidentDate = primitive.NewDateTimeFromTime(t)
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if req.PropertyID != "" {
		exists, err := c.PDB.Exists(ctx, req.PropertyID)
		if err != nil {
			config.ErrorStatus("failed to verify property record", models.ErrKindDependencyUnavailable, http.StatusBadGateway, w, err)
			return
		}
		if !exists {
			config.ErrorStatus("linked property does not exist", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("propertyID: %s", req.PropertyID))
			return
		}
	}
	if req.TenancyID != "" {
		exists, err := c.TDB.Exists(ctx, req.TenancyID)
		if err != nil {
			config.ErrorStatus("failed to verify tenancy record", models.ErrKindDependencyUnavailable, http.StatusBadGateway, w, err)
			return
		}
		if !exists {
			config.ErrorStatus("linked tenancy does not exist", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("tenancyID: %s", req.TenancyID))
			return
		}
	}

	now := time.Now().UTC()
	prefix := models.CaseTypePrefix(req.CaseType)
	seq, err := c.Counters.NextSequence(ctx, models.CounterKey(prefix, now.Year(), int(now.Month())))
	if err != nil {
		config.ErrorStatus("failed to allocate case number", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	caseNumber := models.FormatCaseNumber(prefix, now.Year(), int(now.Month()), seq)

	nowDT := primitive.NewDateTimeFromTime(now)
	details := models.CaseDetails{
		CaseNumber:         caseNumber,
		CaseType:           req.CaseType,
		Title:              req.Title,
		Description:        req.Description,
		ComplainantID:      req.ComplainantID,
		ComplainantName:    req.ComplainantName,
		ComplainantContact: req.ComplainantContact,
		RespondentID:       req.RespondentID,
		RespondentName:     req.RespondentName,
		RespondentContact:  req.RespondentContact,
		PropertyID:         req.PropertyID,
		TenancyID:          req.TenancyID,
		Status:             models.CaseStatusDraft,
		Priority:           models.ClassifyPriority(req.CaseType, req.ClaimAmount, c.HighClaimThreshold),
		IncidentDate:       incidentDate,
		ClaimAmount:        req.ClaimAmount,
		Participants: []models.CaseParticipant{
			{UserID: req.ComplainantID, Name: req.ComplainantName, Contact: req.ComplainantContact, Role: "complainant", AddedAt: nowDT},
			{UserID: req.RespondentID, Name: req.RespondentName, Contact: req.RespondentContact, Role: "respondent", AddedAt: nowDT},
		},
		Updates: []models.CaseUpdate{{
			UpdateType:  "case_created",
			Description: "Case filed",
			NewValue:    models.CaseStatusDraft,
			UserID:      actor.UserID,
			UserName:    actor.Name,
			Timestamp:   nowDT,
		}},
		Notes:     []models.CaseNote{},
		CreatedAt: nowDT,
		UpdatedAt: nowDT,
	}
	if req.InitialNote != "" {
		details.Notes = append(details.Notes, models.CaseNote{
			ID:        primitive.NewObjectID(),
			Text:      req.InitialNote,
			UserID:    actor.UserID,
			UserName:  actor.Name,
			CreatedAt: nowDT,
		})
	}

	rdCase := models.Case{
		ID:      primitive.NewObjectID(),
		Details: details,
	}

	if _, err := c.DB.InsertOne(ctx, rdCase); err != nil {
		if databases.IsDuplicateKeyError(err) {
			config.ErrorStatus("case number already allocated", models.ErrKindConflict, http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to insert case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	caseKeySet(&rdCase, actor).Flush(c.Cache)
	zap.S().Infow("case created", "caseID", rdCase.ID.Hex(), "caseNumber", caseNumber, "priority", details.Priority)

	b, err := json.Marshal(rdCase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CaseByIDHandler returns a single case by ID, served from the read cache
// when a fresh entry exists. The access check runs on every request, cached
// or not.
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	actor, err := c.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	var rdCase *models.Case
	if cached, ok := c.Cache.Get(cache.CaseViewKey(caseID)); ok {
		rdCase = cached.(*models.Case)
	} else {
		ctx, cancel := api.WithQueryTimeout(r.Context())
		defer cancel()
		rdCase, err = c.DB.FindOne(ctx, bson.M{"_id": oid})
		if err != nil {
			if databases.IsNoDocumentsError(err) {
				config.ErrorStatus("case not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
			} else {
				config.ErrorStatus("failed to get case by ID", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			}
			return
		}
		c.Cache.Set(cache.CaseViewKey(caseID), rdCase)
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Read {
		config.ErrorStatus("not permitted to view this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not read case %s", actor.UserID, caseID))
		return
	}

	b, err := json.Marshal(viewForActor(actor, *rdCase))
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SearchCasesHandler returns the page of cases visible to the actor,
// optionally filtered by status, case type and priority
func (c Case) SearchCasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := c.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	filter := caseScopeFilter(actor)
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidCaseStatus(status) {
			config.ErrorStatus("unknown case status", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("status %q is not recognized", status))
			return
		}
		filter["case.status"] = status
	}
	if caseType := r.URL.Query().Get("caseType"); caseType != "" {
		filter["case.caseType"] = caseType
	}
	if priority := r.URL.Query().Get("priority"); priority != "" {
		filter["case.priority"] = priority
	}

	page := getPage(0, r)
	limit := getLimit(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetSort(bson.M{"_id": -1}).
		SetSkip(int64(page * limit)).
		SetLimit(int64(limit))

	dbResp, err := c.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get cases", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	totalCount, err := c.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count cases", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	if dbResp == nil {
		dbResp = []models.Case{}
	}
	for i := range dbResp {
		dbResp[i] = viewForActor(actor, dbResp[i])
	}

	b, err := json.Marshal(map[string]interface{}{
		"cases":      dbResp,
		"page":       page,
		"limit":      limit,
		"totalCount": totalCount,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateCaseRequest struct {
	Title             *string  `json:"title"`
	Description       *string  `json:"description"`
	ClaimAmount       *float64 `json:"claimAmount"`
	AwardedAmount     *float64 `json:"awardedAmount"`
	Resolution        *string  `json:"resolution"`
	ResolutionDetails *string  `json:"resolutionDetails"`
	IncidentDate      *string  `json:"incidentDate"`
	Priority          *string  `json:"priority"`
	Status            *string  `json:"status"`
}

// UpdateCaseHandler applies a partial update to a case. Every changed field
// is recorded in the audit trail with its old and new value. A status change
// is validated against the lifecycle table and applied with the observed
// status in the update filter, so a concurrent transition is rejected rather
// than overwritten.
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	caps := actor.CapabilitiesFor(&rdCase.Details)
	if !caps.Update {
		config.ErrorStatus("not permitted to update this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not update case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}

	var req updateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	set := bson.M{"case.updatedAt": now}
	var audit []models.CaseUpdate
	record := func(field, oldValue, newValue string) {
		audit = append(audit, models.CaseUpdate{
			UpdateType:  "case_updated",
			Description: field + " changed",
			OldValue:    oldValue,
			NewValue:    newValue,
			UserID:      actor.UserID,
			UserName:    actor.Name,
			Timestamp:   now,
		})
	}

	if req.Title != nil && *req.Title != rdCase.Details.Title {
		if *req.Title == "" {
			config.ErrorStatus("title cannot be blank", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("title is required"))
			return
		}
		set["case.title"] = *req.Title
		record("title", rdCase.Details.Title, *req.Title)
	}
	if req.Description != nil && *req.Description != rdCase.Details.Description {
		set["case.description"] = *req.Description
		record("description", rdCase.Details.Description, *req.Description)
	}
	if req.IncidentDate != nil {
		t, err := time.Parse("2006-01-02", *req.IncidentDate)
		if err != nil {
			config.ErrorStatus("failed to parse incident date", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
			return
		}
		set["case.incidentDate"] = primitive.NewDateTimeFromTime(t)
		record("incidentDate", rdCase.Details.IncidentDate.Time().UTC().Format("2006-01-02"), *req.IncidentDate)
	}
	if req.ClaimAmount != nil && *req.ClaimAmount != rdCase.Details.ClaimAmount {
		if *req.ClaimAmount < 0 {
			config.ErrorStatus("claim amount cannot be negative", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("claimAmount: %v", *req.ClaimAmount))
			return
		}
		set["case.claimAmount"] = *req.ClaimAmount
		record("claimAmount", fmt.Sprintf("%v", rdCase.Details.ClaimAmount), fmt.Sprintf("%v", *req.ClaimAmount))

		// the claim amount feeds the priority, so reclassify unless the
		// caller pinned one explicitly
		if req.Priority == nil {
			newPriority := models.ClassifyPriority(rdCase.Details.CaseType, *req.ClaimAmount, c.HighClaimThreshold)
			if newPriority != rdCase.Details.Priority {
				set["case.priority"] = newPriority
				record("priority", rdCase.Details.Priority, newPriority)
			}
		}
	}
	if req.Priority != nil && *req.Priority != rdCase.Details.Priority {
		if !models.ValidPriority(*req.Priority) {
			config.ErrorStatus("unknown priority", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("priority %q is not recognized", *req.Priority))
			return
		}
		if !actor.IsAdmin() && !actor.IsOfficer() {
			config.ErrorStatus("only staff may set the priority", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("role %s may not set priority", actor.Role))
			return
		}
		set["case.priority"] = *req.Priority
		record("priority", rdCase.Details.Priority, *req.Priority)
	}

	resolutionTouched := false
	if req.AwardedAmount != nil && *req.AwardedAmount != rdCase.Details.AwardedAmount {
		if *req.AwardedAmount < 0 {
			config.ErrorStatus("awarded amount cannot be negative", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("awardedAmount: %v", *req.AwardedAmount))
			return
		}
		set["case.awardedAmount"] = *req.AwardedAmount
		record("awardedAmount", fmt.Sprintf("%v", rdCase.Details.AwardedAmount), fmt.Sprintf("%v", *req.AwardedAmount))
		resolutionTouched = true
	}
	if req.Resolution != nil && *req.Resolution != rdCase.Details.Resolution {
		set["case.resolution"] = *req.Resolution
		record("resolution", rdCase.Details.Resolution, *req.Resolution)
		resolutionTouched = true
	}
	if req.ResolutionDetails != nil && *req.ResolutionDetails != rdCase.Details.ResolutionDetails {
		set["case.resolutionDetails"] = *req.ResolutionDetails
		record("resolutionDetails", rdCase.Details.ResolutionDetails, *req.ResolutionDetails)
		resolutionTouched = true
	}
	if resolutionTouched {
		set["case.resolutionDate"] = now
	}

	oldStatus := rdCase.Details.Status
	newStatus := oldStatus
	if req.Status != nil && *req.Status != oldStatus {
		newStatus = *req.Status
		if !models.ValidCaseStatus(newStatus) {
			config.ErrorStatus("unknown case status", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("status %q is not recognized", newStatus))
			return
		}
		if !models.CanTransitionCase(oldStatus, newStatus) {
			config.ErrorStatus("illegal status transition", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("cannot transition case from %s to %s", oldStatus, newStatus))
			return
		}
		set["case.status"] = newStatus
		if newStatus == models.CaseStatusResolved {
			set["case.resolutionDate"] = now
		}
		if newStatus == models.CaseStatusClosed {
			set["case.closedAt"] = now
		}
		audit = append(audit, models.CaseUpdate{
			UpdateType:  "status_changed",
			Description: "Status changed",
			OldValue:    oldStatus,
			NewValue:    newStatus,
			UserID:      actor.UserID,
			UserName:    actor.Name,
			Timestamp:   now,
		})
	}

	if len(audit) == 0 {
		// nothing changed; serve the current state
		b, _ := json.Marshal(viewForActor(actor, *rdCase))
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID, "case.status": oldStatus},
		bson.M{
			"$set":  set,
			"$push": bson.M{"case.updates": bson.M{"$each": audit}},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to update case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case %s no longer in status %s", rdCase.ID.Hex(), oldStatus))
		return
	}

	caseKeySet(rdCase, actor).Flush(c.Cache)
	if newStatus != oldStatus {
		c.Notifier.CaseStatusChanged(rdCase.ID.Hex(), rdCase.Details.CaseNumber, oldStatus, newStatus, caseRecipients(rdCase))
	}

	b, err := json.Marshal(map[string]interface{}{"message": "case updated", "caseID": rdCase.ID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SubmitCaseHandler moves a draft case into submitted after checking the
// filing is complete
func (c Case) SubmitCaseHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Submit {
		config.ErrorStatus("not permitted to submit this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not submit case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}
	if rdCase.Details.Status != models.CaseStatusDraft {
		config.ErrorStatus("only draft cases can be submitted", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", rdCase.Details.Status))
		return
	}
	if rdCase.Details.Title == "" || rdCase.Details.Description == "" {
		config.ErrorStatus("case is incomplete", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("title and description are required before submission"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID, "case.status": models.CaseStatusDraft},
		bson.M{
			"$set": bson.M{
				"case.status":      models.CaseStatusSubmitted,
				"case.submittedAt": now,
				"case.updatedAt":   now,
			},
			"$push": bson.M{"case.updates": models.CaseUpdate{
				UpdateType:  "submitted",
				Description: "Case submitted for review",
				OldValue:    models.CaseStatusDraft,
				NewValue:    models.CaseStatusSubmitted,
				UserID:      actor.UserID,
				UserName:    actor.Name,
				Timestamp:   now,
			}},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to submit case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case %s is no longer a draft", rdCase.ID.Hex()))
		return
	}

	caseKeySet(rdCase, actor).Flush(c.Cache)
	c.Notifier.CaseStatusChanged(rdCase.ID.Hex(), rdCase.Details.CaseNumber, models.CaseStatusDraft, models.CaseStatusSubmitted, caseRecipients(rdCase))

	b, _ := json.Marshal(map[string]interface{}{"message": "case submitted", "caseID": rdCase.ID.Hex(), "status": models.CaseStatusSubmitted})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type assignCaseRequest struct {
	OfficerID  string `json:"officerID"`  // officer login id
	MediatorID string `json:"mediatorID"` // mediator login id
}

// AssignCaseHandler assigns an active officer and optionally a mediator to a
// case and moves it under review. Inactive staff cannot receive new
// assignments.
func (c Case) AssignCaseHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Assign {
		config.ErrorStatus("not permitted to assign this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not assign case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}

	var req assignCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.OfficerID == "" && req.MediatorID == "" {
		config.ErrorStatus("nothing to assign", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("officerID or mediatorID is required"))
		return
	}

	oldStatus := rdCase.Details.Status
	if oldStatus != models.CaseStatusUnderReview && !models.CanTransitionCase(oldStatus, models.CaseStatusUnderReview) {
		config.ErrorStatus("case cannot be assigned in its current status", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", oldStatus))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	set := bson.M{
		"case.status":    models.CaseStatusUnderReview,
		"case.updatedAt": now,
	}
	var officerName, mediatorName string

	if req.OfficerID != "" {
		officer, err := c.ODB.FindOne(ctx, bson.M{"officer.userID": req.OfficerID})
		if err != nil {
			if databases.IsNoDocumentsError(err) {
				config.ErrorStatus("officer not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
			} else {
				config.ErrorStatus("failed to get officer", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			}
			return
		}
		if !officer.Details.Active {
			config.ErrorStatus("officer is not active", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("officer %s cannot receive new assignments", req.OfficerID))
			return
		}
		officerName = officer.Details.Name
		set["case.assignedOfficerID"] = officer.ID.Hex()
		set["case.assignedOfficerName"] = officerName
	}
	if req.MediatorID != "" {
		mediator, err := c.MDB.FindOne(ctx, bson.M{"mediator.userID": req.MediatorID})
		if err != nil {
			if databases.IsNoDocumentsError(err) {
				config.ErrorStatus("mediator not found", models.ErrKindNotFound, http.StatusNotFound, w, err)
			} else {
				config.ErrorStatus("failed to get mediator", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			}
			return
		}
		if !mediator.Details.Active {
			config.ErrorStatus("mediator is not active", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("mediator %s cannot receive new assignments", req.MediatorID))
			return
		}
		mediatorName = mediator.Details.Name
		set["case.assignedMediatorID"] = mediator.ID.Hex()
		set["case.assignedMediatorName"] = mediatorName
	}

	audit := []models.CaseUpdate{{
		UpdateType:  "assigned",
		Description: "Case assigned to staff",
		NewValue:    officerName + " " + mediatorName,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		Timestamp:   now,
	}}
	if oldStatus != models.CaseStatusUnderReview {
		audit = append(audit, models.CaseUpdate{
			UpdateType:  "status_changed",
			Description: "Status changed",
			OldValue:    oldStatus,
			NewValue:    models.CaseStatusUnderReview,
			UserID:      actor.UserID,
			UserName:    actor.Name,
			Timestamp:   now,
		})
	}

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID, "case.status": oldStatus},
		bson.M{
			"$set":  set,
			"$push": bson.M{"case.updates": bson.M{"$each": audit}},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to assign case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case %s no longer in status %s", rdCase.ID.Hex(), oldStatus))
		return
	}

	caseKeySet(rdCase, actor).Flush(c.Cache)
	c.Notifier.CaseAssigned(rdCase.ID.Hex(), rdCase.Details.CaseNumber, officerName, mediatorName, caseRecipients(rdCase))

	b, _ := json.Marshal(map[string]interface{}{"message": "case assigned", "caseID": rdCase.ID.Hex(), "status": models.CaseStatusUnderReview})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type resolveCaseRequest struct {
	Resolution        string  `json:"resolution"`
	ResolutionDetails string  `json:"resolutionDetails"`
	AwardedAmount     float64 `json:"awardedAmount"`
}

// ResolveCaseHandler records a resolution against any active case past
// draft. Terminal and draft cases are left unmodified.
func (c Case) ResolveCaseHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Resolve {
		config.ErrorStatus("not permitted to resolve this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not resolve case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}

	var req resolveCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.Resolution == "" {
		config.ErrorStatus("resolution is required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("resolution cannot be blank"))
		return
	}
	if req.AwardedAmount < 0 {
		config.ErrorStatus("awarded amount cannot be negative", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("awardedAmount: %v", req.AwardedAmount))
		return
	}

	oldStatus := rdCase.Details.Status
	if !models.CanResolveFrom(oldStatus) {
		config.ErrorStatus("case cannot be resolved in its current status", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", oldStatus))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	set := bson.M{
		"case.status":            models.CaseStatusResolved,
		"case.resolution":        req.Resolution,
		"case.resolutionDetails": req.ResolutionDetails,
		"case.resolutionDate":    now,
		"case.updatedAt":         now,
	}
	if req.AwardedAmount > 0 {
		set["case.awardedAmount"] = req.AwardedAmount
	}

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID, "case.status": oldStatus},
		bson.M{
			"$set": set,
			"$push": bson.M{"case.updates": models.CaseUpdate{
				UpdateType:  "resolved",
				Description: "Case resolved: " + req.Resolution,
				OldValue:    oldStatus,
				NewValue:    models.CaseStatusResolved,
				UserID:      actor.UserID,
				UserName:    actor.Name,
				Timestamp:   now,
			}},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to resolve case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case %s no longer in status %s", rdCase.ID.Hex(), oldStatus))
		return
	}

	caseKeySet(rdCase, actor).Flush(c.Cache)
	c.Notifier.CaseStatusChanged(rdCase.ID.Hex(), rdCase.Details.CaseNumber, oldStatus, models.CaseStatusResolved, caseRecipients(rdCase))

	b, _ := json.Marshal(map[string]interface{}{"message": "case resolved", "caseID": rdCase.ID.Hex(), "status": models.CaseStatusResolved})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type reopenCaseRequest struct {
	Reason string `json:"reason"`
}

// ReopenCaseHandler reopens a resolved or closed case
func (c Case) ReopenCaseHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Reopen {
		config.ErrorStatus("not permitted to reopen this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not reopen case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}

	var req reopenCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.Reason == "" {
		config.ErrorStatus("a reason is required to reopen a case", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("reason cannot be blank"))
		return
	}

	oldStatus := rdCase.Details.Status
	if !models.CanReopenFrom(oldStatus) {
		config.ErrorStatus("case cannot be reopened in its current status", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", oldStatus))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID, "case.status": oldStatus},
		bson.M{
			"$set": bson.M{
				"case.status":    models.CaseStatusReopened,
				"case.updatedAt": now,
			},
			"$push": bson.M{"case.updates": models.CaseUpdate{
				UpdateType:  "reopened",
				Description: "Case reopened: " + req.Reason,
				OldValue:    oldStatus,
				NewValue:    models.CaseStatusReopened,
				UserID:      actor.UserID,
				UserName:    actor.Name,
				Timestamp:   now,
			}},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to reopen case", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case %s no longer in status %s", rdCase.ID.Hex(), oldStatus))
		return
	}

	caseKeySet(rdCase, actor).Flush(c.Cache)
	c.Notifier.CaseStatusChanged(rdCase.ID.Hex(), rdCase.Details.CaseNumber, oldStatus, models.CaseStatusReopened, caseRecipients(rdCase))

	b, _ := json.Marshal(map[string]interface{}{"message": "case reopened", "caseID": rdCase.ID.Hex(), "status": models.CaseStatusReopened})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateCaseStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// UpdateCaseStatusHandler is the administrative status transition. It still
// runs through the lifecycle table; administrators can take any legal edge
// regardless of assignment but cannot invent new ones.
func (c Case) UpdateCaseStatusHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Override {
		config.ErrorStatus("not permitted to set case status directly", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not override case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}

	var req updateCaseStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidCaseStatus(req.Status) {
		config.ErrorStatus("unknown case status", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("status %q is not recognized", req.Status))
		return
	}

	oldStatus := rdCase.Details.Status
	if req.Status == oldStatus {
		config.ErrorStatus("case is already in the requested status", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case is in status %s", oldStatus))
		return
	}
	if !models.CanTransitionCase(oldStatus, req.Status) {
		config.ErrorStatus("illegal status transition", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("cannot transition case from %s to %s", oldStatus, req.Status))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	set := bson.M{
		"case.status":    req.Status,
		"case.updatedAt": now,
	}
	if req.Status == models.CaseStatusResolved {
		set["case.resolutionDate"] = now
	}
	if req.Status == models.CaseStatusClosed {
		set["case.closedAt"] = now
	}

	description := "Status changed"
	if req.Reason != "" {
		description = "Status changed: " + req.Reason
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID, "case.status": oldStatus},
		bson.M{
			"$set": set,
			"$push": bson.M{"case.updates": models.CaseUpdate{
				UpdateType:  "status_changed",
				Description: description,
				OldValue:    oldStatus,
				NewValue:    req.Status,
				UserID:      actor.UserID,
				UserName:    actor.Name,
				Timestamp:   now,
			}},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to update case status", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case was modified concurrently", models.ErrKindInvalidState, http.StatusConflict, w, fmt.Errorf("case %s no longer in status %s", rdCase.ID.Hex(), oldStatus))
		return
	}

	caseKeySet(rdCase, actor).Flush(c.Cache)
	c.Notifier.CaseStatusChanged(rdCase.ID.Hex(), rdCase.Details.CaseNumber, oldStatus, req.Status, caseRecipients(rdCase))

	b, _ := json.Marshal(map[string]interface{}{"message": "case status updated", "caseID": rdCase.ID.Hex(), "status": req.Status})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type addCaseNoteRequest struct {
	Text     string `json:"text"`
	Internal bool   `json:"internal"`
}

// AddCaseNoteHandler appends a note to a case. Parties can only write notes
// visible to everyone on the case; internal notes are staff only.
func (c Case) AddCaseNoteHandler(w http.ResponseWriter, r *http.Request) {
	rdCase, actor, ok := c.loadCase(w, r)
	if !ok {
		return
	}

	if !actor.CapabilitiesFor(&rdCase.Details).Read {
		config.ErrorStatus("not permitted to annotate this case", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("user %s may not read case %s", actor.UserID, rdCase.ID.Hex()))
		return
	}

	var req addCaseNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.Text == "" {
		config.ErrorStatus("note text is required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("text cannot be blank"))
		return
	}
	if req.Internal && !actor.IsAdmin() && !actor.IsOfficer() && !actor.IsMediator() {
		config.ErrorStatus("only staff may write internal notes", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("role %s may not write internal notes", actor.Role))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	note := models.CaseNote{
		ID:        primitive.NewObjectID(),
		Text:      req.Text,
		Internal:  req.Internal,
		UserID:    actor.UserID,
		UserName:  actor.Name,
		CreatedAt: now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": rdCase.ID},
		bson.M{
			"$set": bson.M{"case.updatedAt": now},
			"$push": bson.M{
				"case.notes": note,
				"case.updates": models.CaseUpdate{
					UpdateType:  "note_added",
					Description: "Note added",
					UserID:      actor.UserID,
					UserName:    actor.Name,
					Timestamp:   now,
				},
			},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to add note", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("case not found", models.ErrKindNotFound, http.StatusNotFound, w, fmt.Errorf("case %s disappeared", rdCase.ID.Hex()))
		return
	}

	c.Cache.Delete(cache.CaseViewKey(rdCase.ID.Hex()))

	b, _ := json.Marshal(map[string]interface{}{"message": "note added", "caseID": rdCase.ID.Hex(), "noteID": note.ID.Hex()})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
