package services

import (
	"context"
	"log"

	"citycare-queue/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService schedules the recurring maintenance jobs: the operating-period
// rollover at midnight and refresh token cleanup.
type CronService struct {
	cron             *cron.Cron
	dispatch         *DispatchService
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service
func NewCronService(dispatch *DispatchService, refreshTokenRepo repositories.RefreshTokenRepository) *CronService {
	return &CronService{
		cron:             cron.New(),
		dispatch:         dispatch,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() error {
	// Operating-period rollover at midnight. The dispatch engine also checks
	// the date on every mutating operation, so this is a backstop that keeps
	// idle departments from showing yesterday's counters.
	if _, err := s.cron.AddFunc("0 0 * * *", s.dispatch.Rollover); err != nil {
		return err
	}

	// Purge expired refresh tokens nightly
	if _, err := s.cron.AddFunc("30 3 * * *", s.cleanupRefreshTokens); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("✅ Cron jobs scheduled: rollover @00:00, token cleanup @03:30")
	return nil
}

// Stop halts the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron jobs stopped")
}

func (s *CronService) cleanupRefreshTokens() {
	if err := s.refreshTokenRepo.DeleteExpired(context.Background()); err != nil {
		log.Printf("⚠️ Refresh token cleanup failed: %v", err)
		return
	}
	log.Println("🧹 Expired refresh tokens purged")
}
