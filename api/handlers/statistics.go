package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/cache"
	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
)

// Statistics serves the derived read views: caseload statistics, the
// dashboard and the hearing calendar. All three are scoped to what the actor
// may see and cached per actor; staleness within the cache TTL is accepted.
type Statistics struct {
	CDB      databases.CaseDatabase
	HDB      databases.HearingDatabase
	Cache    *cache.Cache
	Resolver ActorResolver
}

// CaseStatistics is the caseload summary view
type CaseStatistics struct {
	TotalCases  int64            `json:"totalCases"`
	ByStatus    map[string]int64 `json:"byStatus"`
	ByPriority  map[string]int64 `json:"byPriority"`
	OpenCases   int64            `json:"openCases"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

var statisticsStatuses = []string{
	models.CaseStatusDraft,
	models.CaseStatusSubmitted,
	models.CaseStatusUnderReview,
	models.CaseStatusInvestigation,
	models.CaseStatusScheduledForHearing,
	models.CaseStatusResolved,
	models.CaseStatusReopened,
	models.CaseStatusWithdrawn,
	models.CaseStatusDismissed,
	models.CaseStatusClosed,
}

var statisticsPriorities = []string{
	models.PriorityCritical,
	models.PriorityHigh,
	models.PriorityMedium,
}

// StatisticsHandler returns the caseload statistics for the actor's scope
func (s Statistics) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := s.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	if cached, ok := s.Cache.Get(cache.StatsKey(actor.UserID)); ok {
		b, _ := json.Marshal(cached)
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	scope := caseScopeFilter(actor)
	stats := CaseStatistics{
		ByStatus:    make(map[string]int64, len(statisticsStatuses)),
		ByPriority:  make(map[string]int64, len(statisticsPriorities)),
		GeneratedAt: time.Now().UTC(),
	}

	total, err := s.CDB.CountDocuments(ctx, scope)
	if err != nil {
		config.ErrorStatus("failed to count cases", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	stats.TotalCases = total

	for _, status := range statisticsStatuses {
		filter := bson.M{"case.status": status}
		for k, v := range scope {
			filter[k] = v
		}
		count, err := s.CDB.CountDocuments(ctx, filter)
		if err != nil {
			config.ErrorStatus("failed to count cases by status", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			return
		}
		stats.ByStatus[status] = count
		if !models.IsTerminalCaseStatus(status) && status != models.CaseStatusResolved {
			stats.OpenCases += count
		}
	}
	for _, priority := range statisticsPriorities {
		filter := bson.M{"case.priority": priority}
		for k, v := range scope {
			filter[k] = v
		}
		count, err := s.CDB.CountDocuments(ctx, filter)
		if err != nil {
			config.ErrorStatus("failed to count cases by priority", models.ErrKindInternal, http.StatusInternalServerError, w, err)
			return
		}
		stats.ByPriority[priority] = count
	}

	s.Cache.Set(cache.StatsKey(actor.UserID), stats)

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// Dashboard is the landing view: recent cases and upcoming hearings
type Dashboard struct {
	RecentCases      []models.Case    `json:"recentCases"`
	UpcomingHearings []models.Hearing `json:"upcomingHearings"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// DashboardHandler returns the actor's dashboard
func (s Statistics) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := s.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	if cached, ok := s.Cache.Get(cache.DashboardKey(actor.UserID)); ok {
		b, _ := json.Marshal(cached)
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	recent, err := s.CDB.Find(ctx, caseScopeFilter(actor),
		options.Find().SetSort(bson.M{"_id": -1}).SetLimit(10))
	if err != nil {
		config.ErrorStatus("failed to get recent cases", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if recent == nil {
		recent = []models.Case{}
	}
	for i := range recent {
		recent[i] = viewForActor(actor, recent[i])
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	hearingFilter := hearingScopeFilter(actor)
	hearingFilter["hearing.date"] = bson.M{"$gte": primitive.NewDateTimeFromTime(today)}
	hearingFilter["hearing.status"] = models.HearingStatusScheduled

	upcoming, err := s.HDB.Find(ctx, hearingFilter,
		options.Find().SetSort(bson.D{{Key: "hearing.date", Value: 1}, {Key: "hearing.startTime", Value: 1}}).SetLimit(10))
	if err != nil {
		config.ErrorStatus("failed to get upcoming hearings", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if upcoming == nil {
		upcoming = []models.Hearing{}
	}

	dashboard := Dashboard{
		RecentCases:      recent,
		UpcomingHearings: upcoming,
		GeneratedAt:      time.Now().UTC(),
	}
	s.Cache.Set(cache.DashboardKey(actor.UserID), dashboard)

	b, err := json.Marshal(dashboard)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CalendarHandler returns the actor's hearings inside a date range,
// chronologically ordered
func (s Statistics) CalendarHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := s.Resolver.Resolve(r)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		config.ErrorStatus("from and to are required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("query parameters from and to must be YYYY-MM-DD"))
		return
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		config.ErrorStatus("failed to parse from date", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		config.ErrorStatus("failed to parse to date", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}
	if to.Before(from) {
		config.ErrorStatus("to must not precede from", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("from %s, to %s", fromStr, toStr))
		return
	}

	key := cache.CalendarKey(actor.UserID, fromStr, toStr)
	if cached, ok := s.Cache.Get(key); ok {
		b, _ := json.Marshal(cached)
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := hearingScopeFilter(actor)
	filter["hearing.date"] = bson.M{
		"$gte": primitive.NewDateTimeFromTime(from.UTC()),
		"$lte": primitive.NewDateTimeFromTime(to.UTC()),
	}
	filter["hearing.status"] = bson.M{"$ne": models.HearingStatusCancelled}

	hearings, err := s.HDB.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "hearing.date", Value: 1}, {Key: "hearing.startTime", Value: 1}}))
	if err != nil {
		config.ErrorStatus("failed to get calendar", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	if hearings == nil {
		hearings = []models.Hearing{}
	}

	s.Cache.Set(key, hearings)

	b, err := json.Marshal(hearings)
	if err != nil {
		config.ErrorStatus("failed to marshal response", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
