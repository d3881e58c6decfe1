package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"PercentileBoard/internal/board"
	"PercentileBoard/internal/display"
	"PercentileBoard/internal/matrix"
	"PercentileBoard/internal/notifier"
)

// Notifier delivers formatted messages. *notifier.TelegramNotifier satisfies it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the periodic board refresh.
type Scheduler struct {
	Cron     *cron.Cron
	Board    *board.Service
	Labeler  *display.Labeler
	Notifier Notifier
	Ctx      context.Context
	log      zerolog.Logger
}

// NewScheduler creates a new Scheduler. n may be nil when chat delivery is
// not configured.
func NewScheduler(ctx context.Context, b *board.Service, labeler *display.Labeler, n Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Board:    b,
		Labeler:  labeler,
		Notifier: n,
		Ctx:      ctx,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the refresh task on a six-field cron expression (seconds first).
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the refresh task immediately.
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.log.Info().Msg("running refresh task")
	snap, err := s.Board.Refresh(s.Ctx)
	if err != nil {
		var total *matrix.TotalFailureError
		if errors.As(err, &total) {
			s.trySend(fmt.Sprintf("❌ Percentile refresh failed: no data for any of %d requests", total.Requested))
		} else {
			s.trySend(fmt.Sprintf("❌ Percentile refresh failed: %v", err))
		}
		return
	}
	s.trySend(notifier.FormatTableHTML(snap, s.Labeler))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/table":
		snap, err := s.Board.LatestOrRefresh(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatTableHTML(snap, s.Labeler)
	case "/refresh":
		snap, err := s.Board.Refresh(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatTableHTML(snap, s.Labeler)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
