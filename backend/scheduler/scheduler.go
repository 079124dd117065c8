package scheduler

import (
	"context"
	"time"

	"lms/backend/utils"

	"github.com/go-co-op/gocron"
)

// Refresher recomputes stored course analytics and reports how many courses it touched.
type Refresher interface {
	RefreshAnalytics(ctx context.Context) (int, error)
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	log       *utils.Logger
}

func New(refresher Refresher, interval time.Duration, log *utils.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the analytics refresh. A non-positive interval disables it.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("analytics refresh disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.refreshAnalytics); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refreshAnalytics() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := s.refresher.RefreshAnalytics(ctx)
	if err != nil {
		s.log.Error("analytics refresh failed", "error", err)
		return
	}
	s.log.Info("analytics refreshed", "courses", n, "took", time.Since(start))
}
