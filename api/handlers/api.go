package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/api/scheduler"
	"github.com/rentcontroldept/rcd-api/cache"
	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
	"github.com/rentcontroldept/rcd-api/notifications"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Cache    *cache.Cache
	Hub      *notifications.Hub
	Notifier notifications.Notifier
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.TimeoutMiddleware(30 * time.Second))
	r.Use(api.MetricsMiddleware)

	resolver := ActorResolver{
		ODB: databases.NewOfficerDatabase(a.dbHelper),
		MDB: databases.NewMediatorDatabase(a.dbHelper),
	}

	c := Case{
		DB:                 databases.NewCaseDatabase(a.dbHelper),
		ODB:                databases.NewOfficerDatabase(a.dbHelper),
		MDB:                databases.NewMediatorDatabase(a.dbHelper),
		PDB:                databases.NewPropertyDatabase(a.dbHelper),
		TDB:                databases.NewTenancyDatabase(a.dbHelper),
		Counters:           databases.NewCounterDatabase(a.dbHelper),
		Cache:              a.Cache,
		Notifier:           a.Notifier,
		Resolver:           resolver,
		HighClaimThreshold: a.Config.HighClaimThreshold,
	}
	h := Hearing{
		DB:       databases.NewHearingDatabase(a.dbHelper),
		CDB:      databases.NewCaseDatabase(a.dbHelper),
		ODB:      databases.NewOfficerDatabase(a.dbHelper),
		Counters: databases.NewCounterDatabase(a.dbHelper),
		Cache:    a.Cache,
		Notifier: a.Notifier,
		Resolver: resolver,
	}
	stats := Statistics{
		CDB:      databases.NewCaseDatabase(a.dbHelper),
		HDB:      databases.NewHearingDatabase(a.dbHelper),
		Cache:    a.Cache,
		Resolver: resolver,
	}
	admin := Admin{
		UDB:    databases.NewUserDatabase(a.dbHelper),
		Secret: a.Config.AdminJWTSecret,
	}
	registry := Registry{
		ODB: databases.NewOfficerDatabase(a.dbHelper),
		MDB: databases.NewMediatorDatabase(a.dbHelper),
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.HandleFunc("/metrics", metricsHandler)

	r.HandleFunc("/ws/notifications", a.Hub.HandleWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/case", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PUT")
	apiCreate.Handle("/case/{case_id}/submit", api.Middleware(http.HandlerFunc(c.SubmitCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/assign", api.Middleware(http.HandlerFunc(c.AssignCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/resolve", api.Middleware(http.HandlerFunc(c.ResolveCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/reopen", api.Middleware(http.HandlerFunc(c.ReopenCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/status", api.Middleware(http.HandlerFunc(c.UpdateCaseStatusHandler))).Methods("PUT")
	apiCreate.Handle("/case/{case_id}/notes", api.Middleware(http.HandlerFunc(c.AddCaseNoteHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/hearings", api.Middleware(http.HandlerFunc(h.HearingsByCaseHandler))).Methods("GET")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.SearchCasesHandler))).Methods("GET")

	apiCreate.Handle("/hearing", api.Middleware(http.HandlerFunc(h.ScheduleHearingHandler))).Methods("POST")
	apiCreate.Handle("/hearing/{hearing_id}", api.Middleware(http.HandlerFunc(h.HearingByIDHandler))).Methods("GET")
	apiCreate.Handle("/hearing/{hearing_id}", api.Middleware(http.HandlerFunc(h.UpdateHearingHandler))).Methods("PUT")
	apiCreate.Handle("/hearing/{hearing_id}/cancel", api.Middleware(http.HandlerFunc(h.CancelHearingHandler))).Methods("POST")
	apiCreate.Handle("/hearing/{hearing_id}/participants", api.Middleware(http.HandlerFunc(h.AddHearingParticipantHandler))).Methods("POST")
	apiCreate.Handle("/hearing/{hearing_id}/outcome", api.Middleware(http.HandlerFunc(h.RecordHearingOutcomeHandler))).Methods("POST")

	apiCreate.Handle("/statistics", api.Middleware(http.HandlerFunc(stats.StatisticsHandler))).Methods("GET")
	apiCreate.Handle("/dashboard", api.Middleware(http.HandlerFunc(stats.DashboardHandler))).Methods("GET")
	apiCreate.Handle("/calendar", api.Middleware(http.HandlerFunc(stats.CalendarHandler))).Methods("GET")

	// back-office console, JWT-scoped
	r.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	adminRoutes := r.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(admin.AdminAuthMiddleware)
	adminRoutes.Handle("/officers", http.HandlerFunc(registry.CreateOfficerHandler)).Methods("POST")
	adminRoutes.Handle("/officers", http.HandlerFunc(registry.ListOfficersHandler)).Methods("GET")
	adminRoutes.Handle("/officers/{officer_id}/active", http.HandlerFunc(registry.SetOfficerActiveHandler)).Methods("PUT")
	adminRoutes.Handle("/mediators", http.HandlerFunc(registry.CreateMediatorHandler)).Methods("POST")
	adminRoutes.Handle("/mediators", http.HandlerFunc(registry.ListMediatorsHandler)).Methods("GET")
	adminRoutes.Handle("/mediators/{mediator_id}/active", http.HandlerFunc(registry.SetMediatorActiveHandler)).Methods("PUT")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(context.Background())
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("rcd-api has connected to the database")

	a.Cache = cache.New(a.Config.CacheTTL)
	a.Hub = notifications.NewHub()
	a.Notifier = notifications.NewService(a.Hub, a.Config.SendgridAPIKey)

	// start the background jobs
	sched := scheduler.NewScheduler(
		databases.NewHearingDatabase(a.dbHelper),
		databases.NewCaseDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
		a.Notifier,
	)
	sched.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(api.GetMetrics().Snapshot())
	w.Write(b)
}
