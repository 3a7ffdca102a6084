package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcontroldept/rcd-api/api/handlers"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
	"github.com/rentcontroldept/rcd-api/models"
)

func TestRegistry_CreateOfficerHandlerMissingFields(t *testing.T) {
	g := handlers.Registry{}

	body := []byte(`{"userID":"o1","name":"Officer One"}`)
	req, _ := http.NewRequest("POST", "/admin/officers", bytes.NewBuffer(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.CreateOfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrKindValidationFailed, errorKind(t, rr))
}

func TestRegistry_CreateOfficerHandlerAlreadyRegistered(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	// the uniqueness probe finds an existing record
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.RCDOfficer)
		(*arg).Details.UserID = "o1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "officers").Return(conn)

	g := handlers.Registry{ODB: databases.NewOfficerDatabase(db)}

	body := []byte(`{"userID":"o1","name":"Officer One","email":"o1@rcd.example"}`)
	req, _ := http.NewRequest("POST", "/admin/officers", bytes.NewBuffer(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.CreateOfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, models.ErrKindConflict, errorKind(t, rr))
}

func TestRegistry_CreateOfficerHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	db.On("Collection", "officers").Return(conn)

	g := handlers.Registry{ODB: databases.NewOfficerDatabase(db)}

	body := []byte(`{"userID":"o1","name":"Officer One","email":"o1@rcd.example","badgeNumber":"RCD-014","department":"enforcement"}`)
	req, _ := http.NewRequest("POST", "/admin/officers", bytes.NewBuffer(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.CreateOfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.RCDOfficer
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "o1", got.Details.UserID)
	assert.True(t, got.Details.Active)
}

func TestRegistry_SetOfficerActiveHandlerInvalidHex(t *testing.T) {
	g := handlers.Registry{}

	body := []byte(`{"active":false}`)
	req, _ := http.NewRequest("PUT", "/admin/officers/1234/active", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"officer_id": "1234"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.SetOfficerActiveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrKindValidationFailed, errorKind(t, rr))
}

func TestRegistry_SetOfficerActiveHandlerNotFound(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	db.On("Collection", "officers").Return(conn)

	g := handlers.Registry{ODB: databases.NewOfficerDatabase(db)}

	body := []byte(`{"active":false}`)
	req, _ := http.NewRequest("PUT", "/admin/officers/608cafe595eb9dc05379b7f4/active", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"officer_id": "608cafe595eb9dc05379b7f4"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.SetOfficerActiveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, models.ErrKindNotFound, errorKind(t, rr))
}

func TestRegistry_SetOfficerActiveHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "officers").Return(conn)

	g := handlers.Registry{ODB: databases.NewOfficerDatabase(db)}

	body := []byte(`{"active":false}`)
	req, _ := http.NewRequest("PUT", "/admin/officers/608cafe595eb9dc05379b7f4/active", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"officer_id": "608cafe595eb9dc05379b7f4"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.SetOfficerActiveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "officer updated")
}

func TestRegistry_CreateMediatorHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	db.On("Collection", "mediators").Return(conn)

	g := handlers.Registry{MDB: databases.NewMediatorDatabase(db)}

	body := []byte(`{"userID":"m1","name":"Mediator One","email":"m1@rcd.example","specialization":"rent disputes"}`)
	req, _ := http.NewRequest("POST", "/admin/mediators", bytes.NewBuffer(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.CreateMediatorHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Mediator
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "m1", got.Details.UserID)
	assert.True(t, got.Details.Active)
}
