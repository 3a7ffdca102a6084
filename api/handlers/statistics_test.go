package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/api/handlers"
	"github.com/rentcontroldept/rcd-api/cache"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
	"github.com/rentcontroldept/rcd-api/models"
)

func TestStatistics_CalendarHandlerMissingRange(t *testing.T) {
	s := handlers.Statistics{Cache: cache.New(time.Minute)}

	req := identifiedRequest("GET", "/api/v1/calendar", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CalendarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrKindValidationFailed, errorKind(t, rr))
}

func TestStatistics_CalendarHandlerInvertedRange(t *testing.T) {
	s := handlers.Statistics{Cache: cache.New(time.Minute)}

	req := identifiedRequest("GET", "/api/v1/calendar?from=2026-09-30&to=2026-09-01", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CalendarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrKindValidationFailed, errorKind(t, rr))
}

func TestStatistics_CalendarHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	hearingConn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Hearing)
		*arg = []models.Hearing{{
			ID: primitive.NewObjectID(),
			Details: models.HearingDetails{
				HearingNumber: "HE/2026/09/0001",
				StartTime:     "10:00",
				EndTime:       "11:00",
				Status:        models.HearingStatusScheduled,
			},
		}}
	})
	cursorHelper.On("Close", mock.Anything).Return(nil)
	hearingConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.On("Collection", "hearings").Return(hearingConn)

	s := handlers.Statistics{
		HDB:   databases.NewHearingDatabase(db),
		Cache: cache.New(time.Minute),
	}

	req := identifiedRequest("GET", "/api/v1/calendar?from=2026-09-01&to=2026-09-30", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CalendarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []models.Hearing
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.Equal(t, "HE/2026/09/0001", got[0].Details.HearingNumber)

	// the second request inside the TTL is served from the cache
	rr = httptest.NewRecorder()
	req = identifiedRequest("GET", "/api/v1/calendar?from=2026-09-01&to=2026-09-30", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})
	http.HandlerFunc(s.CalendarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	hearingConn.AssertNumberOfCalls(t, "Find", 1)
}

func TestStatistics_StatisticsHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}

	caseConn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(2), nil)
	db.On("Collection", "cases").Return(caseConn)

	s := handlers.Statistics{
		CDB:   databases.NewCaseDatabase(db),
		Cache: cache.New(time.Minute),
	}

	req := identifiedRequest("GET", "/api/v1/statistics", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.StatisticsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got handlers.CaseStatistics
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, int64(2), got.TotalCases)
	assert.Equal(t, int64(2), got.ByStatus[models.CaseStatusUnderReview])
	assert.Equal(t, int64(2), got.ByPriority[models.PriorityCritical])
	// resolved and terminal statuses do not count as open
	assert.Equal(t, int64(12), got.OpenCases)

	// one count for the total, one per status, one per priority
	caseConn.AssertNumberOfCalls(t, "CountDocuments", 14)

	// a repeat inside the TTL never reaches the database
	rr = httptest.NewRecorder()
	req = identifiedRequest("GET", "/api/v1/statistics", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})
	http.HandlerFunc(s.StatisticsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	caseConn.AssertNumberOfCalls(t, "CountDocuments", 14)
}

func TestStatistics_DashboardHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}
	hearingConn := &mocks.CollectionHelper{}
	caseCursor := &mocks.CursorHelper{}
	hearingCursor := &mocks.CursorHelper{}

	caseCursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Case)
		*arg = []models.Case{{
			ID: primitive.NewObjectID(),
			Details: models.CaseDetails{
				CaseNumber: "RA/2026/08/0001",
				Status:     models.CaseStatusUnderReview,
			},
		}}
	})
	caseCursor.On("Close", mock.Anything).Return(nil)
	caseConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(caseCursor, nil)

	hearingCursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Hearing)
		*arg = []models.Hearing{}
	})
	hearingCursor.On("Close", mock.Anything).Return(nil)
	hearingConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(hearingCursor, nil)

	db.On("Collection", "cases").Return(caseConn)
	db.On("Collection", "hearings").Return(hearingConn)

	s := handlers.Statistics{
		CDB:   databases.NewCaseDatabase(db),
		HDB:   databases.NewHearingDatabase(db),
		Cache: cache.New(time.Minute),
	}

	req := identifiedRequest("GET", "/api/v1/dashboard", nil, api.Identity{UserID: "a1", Role: models.RoleAdmin})

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.DashboardHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got handlers.Dashboard
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got.RecentCases, 1)
	assert.Empty(t, got.UpcomingHearings)
}
