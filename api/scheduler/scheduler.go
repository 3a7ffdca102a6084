// Package scheduler runs the periodic housekeeping jobs: sweeping past
// hearings into completed and closing out resolved cases nobody reopened.
// Jobs take a distributed lock first so only one instance runs a given job.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
	"github.com/rentcontroldept/rcd-api/notifications"
)

// reopenWindow is how long a resolved case stays open to objections before
// the sweep closes it
const reopenWindow = 30 * 24 * time.Hour

// Scheduler handles the periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	HDB        databases.HearingDatabase
	CDB        databases.CaseDatabase
	LockDB     databases.SchedulerLockDatabase
	Notifier   notifications.Notifier
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	hDB databases.HearingDatabase,
	cDB databases.CaseDatabase,
	lockDB databases.SchedulerLockDatabase,
	notifier notifications.Notifier,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		HDB:        hDB,
		CDB:        cDB,
		LockDB:     lockDB,
		Notifier:   notifier,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep past hearings into completed every hour
	_, err := s.cron.AddFunc("0 * * * *", s.sweepPastHearings)
	if err != nil {
		zap.S().Errorw("failed to register hearing sweep job", "error", err)
	}

	// Close out stale resolved cases daily at 4 AM UTC
	_, err = s.cron.AddFunc("0 4 * * *", s.closeResolvedCases)
	if err != nil {
		zap.S().Errorw("failed to register case close job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("case scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("case scheduler stopped")
}

// sweepPastHearings marks every scheduled hearing whose day has passed as
// completed, so outcomes can be recorded against it
func (s *Scheduler) sweepPastHearings() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "hearing_sweep_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for hearing sweep", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("hearing sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "hearing_sweep_job", s.instanceID)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	filter := bson.M{
		"hearing.status": models.HearingStatusScheduled,
		"hearing.date":   bson.M{"$lt": primitive.NewDateTimeFromTime(today)},
	}

	hearings, err := s.HDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find past hearings", "error", err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	swept := 0
	for _, hearing := range hearings {
		matched, err := s.HDB.UpdateOne(ctx,
			bson.M{"_id": hearing.ID, "hearing.status": models.HearingStatusScheduled},
			bson.M{"$set": bson.M{
				"hearing.status":    models.HearingStatusCompleted,
				"hearing.updatedAt": now,
			}},
		)
		if err != nil {
			zap.S().Errorw("failed to complete past hearing", "hearingID", hearing.ID.Hex(), "error", err)
			continue
		}
		if matched == 0 {
			// cancelled or postponed since the scan
			continue
		}
		swept++
	}

	zap.S().Infow("hearing sweep complete", "instance", s.instanceID, "found", len(hearings), "completed", swept)
}

// closeResolvedCases closes resolved cases whose reopen window has lapsed
func (s *Scheduler) closeResolvedCases() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "case_close_job", s.instanceID, 15*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for case close job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("case close job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "case_close_job", s.instanceID)

	cutoff := time.Now().UTC().Add(-reopenWindow)
	filter := bson.M{
		"case.status":         models.CaseStatusResolved,
		"case.resolutionDate": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
	}

	cases, err := s.CDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find stale resolved cases", "error", err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	closed := 0
	for _, rdCase := range cases {
		matched, err := s.CDB.UpdateOne(ctx,
			bson.M{"_id": rdCase.ID, "case.status": models.CaseStatusResolved},
			bson.M{
				"$set": bson.M{
					"case.status":    models.CaseStatusClosed,
					"case.closedAt":  now,
					"case.updatedAt": now,
				},
				"$push": bson.M{"case.updates": models.CaseUpdate{
					UpdateType:  "status_changed",
					Description: "Case closed automatically after the reopen window lapsed",
					OldValue:    models.CaseStatusResolved,
					NewValue:    models.CaseStatusClosed,
					UserID:      "system",
					UserName:    "system",
					Timestamp:   now,
				}},
			},
		)
		if err != nil {
			zap.S().Errorw("failed to close resolved case", "caseID", rdCase.ID.Hex(), "error", err)
			continue
		}
		if matched == 0 {
			// reopened since the scan
			continue
		}
		closed++

		recipients := make([]notifications.Recipient, 0, len(rdCase.Details.Participants))
		for _, p := range rdCase.Details.Participants {
			recipients = append(recipients, notifications.Recipient{UserID: p.UserID, Name: p.Name, Email: p.Contact})
		}
		s.Notifier.CaseStatusChanged(rdCase.ID.Hex(), rdCase.Details.CaseNumber,
			models.CaseStatusResolved, models.CaseStatusClosed, recipients)
	}

	zap.S().Infow("case close job complete", "instance", s.instanceID, "found", len(cases), "closed", closed)
}
