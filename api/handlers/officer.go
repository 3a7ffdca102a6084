package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
)

// Registry manages the officer and mediator rosters. All routes are behind
// the admin token middleware.
type Registry struct {
	ODB databases.OfficerDatabase
	MDB databases.MediatorDatabase
}

type createOfficerRequest struct {
	UserID      string `json:"userID"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	BadgeNumber string `json:"badgeNumber"`
	Department  string `json:"department"`
}

// CreateOfficerHandler registers a new officer, active by default
func (g Registry) CreateOfficerHandler(w http.ResponseWriter, r *http.Request) {
	var req createOfficerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.UserID == "" || req.Name == "" || req.Email == "" {
		config.ErrorStatus("missing required fields", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("userID, name and email are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := g.ODB.FindOne(ctx, bson.M{"officer.userID": req.UserID}); err == nil {
		config.ErrorStatus("officer already registered", models.ErrKindConflict, http.StatusConflict, w, fmt.Errorf("userID %s already has an officer record", req.UserID))
		return
	} else if !databases.IsNoDocumentsError(err) {
		config.ErrorStatus("failed to check existing officers", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	officer := models.RCDOfficer{
		ID: primitive.NewObjectID(),
		Details: models.RCDOfficerDetails{
			UserID:      req.UserID,
			Name:        req.Name,
			Email:       req.Email,
			BadgeNumber: req.BadgeNumber,
			Department:  req.Department,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	if _, err := g.ODB.InsertOne(ctx, officer); err != nil {
		if databases.IsDuplicateKeyError(err) {
			config.ErrorStatus("officer already registered", models.ErrKindConflict, http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to insert officer", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(officer)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ListOfficersHandler lists officers, optionally only the active roster
func (g Registry) ListOfficersHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if r.URL.Query().Get("active") == "true" {
		filter["officer.active"] = true
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officers, err := g.ODB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get officers", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if officers == nil {
		officers = []models.RCDOfficer{}
	}

	b, err := json.Marshal(officers)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetOfficerActiveHandler activates or deactivates an officer. Deactivation
// leaves existing assignments in place; the officer just stops receiving new
// ones.
func (g Registry) SetOfficerActiveHandler(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(mux.Vars(r)["officer_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := g.ODB.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"officer.active":    req.Active,
			"officer.updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC()),
		}},
	)
	if err != nil {
		config.ErrorStatus("failed to update officer", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("officer not found", models.ErrKindNotFound, http.StatusNotFound, w, fmt.Errorf("no officer with id %s", oid.Hex()))
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"message": "officer updated", "officerID": oid.Hex(), "active": req.Active})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type createMediatorRequest struct {
	UserID         string `json:"userID"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
}

// CreateMediatorHandler registers a new mediator, active by default
func (g Registry) CreateMediatorHandler(w http.ResponseWriter, r *http.Request) {
	var req createMediatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if req.UserID == "" || req.Name == "" || req.Email == "" {
		config.ErrorStatus("missing required fields", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("userID, name and email are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := g.MDB.FindOne(ctx, bson.M{"mediator.userID": req.UserID}); err == nil {
		config.ErrorStatus("mediator already registered", models.ErrKindConflict, http.StatusConflict, w, fmt.Errorf("userID %s already has a mediator record", req.UserID))
		return
	} else if !databases.IsNoDocumentsError(err) {
		config.ErrorStatus("failed to check existing mediators", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	mediator := models.Mediator{
		ID: primitive.NewObjectID(),
		Details: models.MediatorDetails{
			UserID:         req.UserID,
			Name:           req.Name,
			Email:          req.Email,
			Specialization: req.Specialization,
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	if _, err := g.MDB.InsertOne(ctx, mediator); err != nil {
		if databases.IsDuplicateKeyError(err) {
			config.ErrorStatus("mediator already registered", models.ErrKindConflict, http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to insert mediator", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(mediator)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ListMediatorsHandler lists mediators, optionally only the active roster
func (g Registry) ListMediatorsHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if r.URL.Query().Get("active") == "true" {
		filter["mediator.active"] = true
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	mediators, err := g.MDB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get mediators", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if mediators == nil {
		mediators = []models.Mediator{}
	}

	b, err := json.Marshal(mediators)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SetMediatorActiveHandler activates or deactivates a mediator
func (g Registry) SetMediatorActiveHandler(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(mux.Vars(r)["mediator_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := g.MDB.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"mediator.active":    req.Active,
			"mediator.updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC()),
		}},
	)
	if err != nil {
		config.ErrorStatus("failed to update mediator", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("mediator not found", models.ErrKindNotFound, http.StatusNotFound, w, fmt.Errorf("no mediator with id %s", oid.Hex()))
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"message": "mediator updated", "mediatorID": oid.Hex(), "active": req.Active})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
