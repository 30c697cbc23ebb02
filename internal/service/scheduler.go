package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	apperr "github.com/belldivine070/CMS/internal/errors"
	"github.com/belldivine070/CMS/internal/repository"
)

// Scheduler periodically scans for broadcasts whose scheduled time has
// arrived and hands them to the dispatcher. Exactly-once dispatch is
// guaranteed by the dispatcher's conditional status transition, not by
// the scan itself, so overlapping ticks are harmless.
type Scheduler struct {
	Broadcasts repository.BroadcastRepositoryInterface
	Dispatcher *BroadcastService
	Interval   time.Duration
	Log        zerolog.Logger

	cron *cron.Cron

	// Now is swappable in tests; nil means time.Now.
	Now func() time.Time
}

func (s *Scheduler) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start registers the scan on a cron driver and begins ticking.
func (s *Scheduler) Start() error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.Scan); err != nil {
		return err
	}
	s.cron.Start()
	s.Log.Info().Dur("interval", interval).Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Scan runs one tick: every due broadcast goes through the dispatcher,
// which re-checks state before doing anything. Broadcasts another tick
// (or an admin) already moved on are skipped, as are ones deleted
// between the scan query and the dispatch.
func (s *Scheduler) Scan() {
	due, err := s.Broadcasts.ListDue(s.clock())
	if err != nil {
		s.Log.Error().Err(err).Msg("scan for due broadcasts failed")
		return
	}

	for _, b := range due {
		result, err := s.Dispatcher.ScheduleOrDispatch(b.ID, nil)
		if err != nil {
			var notFound *apperr.ErrBroadcastNotFound
			switch {
			case errors.Is(err, apperr.ErrAlreadyDispatched):
				s.Log.Debug().Int("broadcast_id", b.ID).Msg("already dispatched, skipping")
			case errors.As(err, &notFound):
				s.Log.Debug().Int("broadcast_id", b.ID).Msg("broadcast gone, skipping")
			case errors.Is(err, apperr.ErrNoRecipients):
				s.Log.Warn().Int("broadcast_id", b.ID).Msg("due broadcast had no recipients")
			default:
				s.Log.Error().Err(err).Int("broadcast_id", b.ID).Msg("dispatch of due broadcast failed")
			}
			continue
		}
		s.Log.Info().
			Int("broadcast_id", b.ID).
			Str("decision", string(result.Decision)).
			Int("tasks_issued", result.TasksIssued).
			Msg("due broadcast handled")
	}
}
