// Package scheduler runs the periodic jobs: rate refresh, deposit interest
// accrual and payment reminders.
package scheduler

import (
	"context"
	"time"

	"github.com/Dan9191/ledger-service/internal/config"
	"github.com/Dan9191/ledger-service/internal/rates"
	"github.com/Dan9191/ledger-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// Scheduler owns the cron runner and the job wiring.
type Scheduler struct {
	cron  *cron.Cron
	svc   *service.Service
	rates *rates.CachedProvider
	cfg   *config.Config
	log   *logrus.Logger
}

// New builds a scheduler with all jobs registered but not yet running.
func New(svc *service.Service, provider *rates.CachedProvider, cfg *config.Config, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(),
		svc:   svc,
		rates: provider,
		cfg:   cfg,
		log:   log,
	}

	if _, err := s.cron.AddFunc(cfg.RateRefreshSpec, s.refreshRates); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.AccrualSpec, s.accrueInterest); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.ReminderSpec, s.sendReminders); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("Scheduler started: rates %q, accrual %q, reminders %q",
		s.cfg.RateRefreshSpec, s.cfg.AccrualSpec, s.cfg.ReminderSpec)
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.rates.Refresh(ctx); err != nil {
		s.log.Errorf("Rate refresh job failed: %v", err)
	}
}

func (s *Scheduler) accrueInterest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := s.svc.AccrueDepositInterest(ctx); err != nil {
		s.log.Errorf("Interest accrual job failed: %v", err)
	}
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := s.svc.RemindUpcomingPayments(ctx, s.cfg.ReminderDays); err != nil {
		s.log.Errorf("Payment reminder job failed: %v", err)
	}
}
