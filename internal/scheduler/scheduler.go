package scheduler

import (
	"context"
	"fmt"
	"time"

	"retail-inventory/internal/movements"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Summarizer produces the movement report
type Summarizer interface {
	Summary(ctx context.Context) (*movements.Summary, error)
}

// Scheduler runs the periodic movement report.
type Scheduler struct {
	cron       *cron.Cron
	summarizer Summarizer
	schedule   string
	logger     *zap.Logger
}

// NewScheduler creates a scheduler for the given standard 5-field cron expression.
func NewScheduler(schedule string, summarizer Summarizer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:       cron.New(),
		summarizer: summarizer,
		schedule:   schedule,
		logger:     logger,
	}
}

// Start registers the report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.reportMovements); err != nil {
		return fmt.Errorf("schedule movement report %q: %w", s.schedule, err)
	}
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) reportMovements() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summary, err := s.summarizer.Summary(ctx)
	if err != nil {
		s.logger.Error("failed to build movement report", zap.Error(err))
		return
	}

	byType := make(map[string]int64, len(summary.ByType))
	for movementType, count := range summary.ByType {
		byType[string(movementType)] = count
	}

	s.logger.Info("movement report",
		zap.Int64("total", summary.Total),
		zap.Any("by_type", byType),
		zap.Int64("units_in", summary.UnitsIn),
		zap.Int64("units_out", summary.UnitsOut),
		zap.Int("stores", summary.StoresTouched),
	)
}
