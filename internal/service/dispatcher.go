// internal/service/dispatcher.go
package service

import (
    "errors"
    "time"

    "github.com/rs/zerolog"

    apperr "github.com/belldivine070/CMS/internal/errors"
    "github.com/belldivine070/CMS/internal/model"
    "github.com/belldivine070/CMS/internal/queue"
    "github.com/belldivine070/CMS/internal/repository"
)

// Decision reports what ScheduleOrDispatch did with a broadcast.
type Decision string

const (
    DecisionDispatched Decision = "dispatched"
    DecisionScheduled  Decision = "scheduled"
    DecisionFailed     Decision = "failed"
)

// DispatchResult summarises one dispatch run.
type DispatchResult struct {
    BroadcastID int      `json:"broadcast_id"`
    Decision    Decision `json:"decision"`
    Recipients  int      `json:"recipients"`
    TasksIssued int      `json:"tasks_issued"`
}

// BroadcastService orchestrates a broadcast: resolves the audience,
// decides immediate vs. deferred, fans delivery tasks out to the
// executor, and aggregates the outcome into the broadcast status.
type BroadcastService struct {
    Broadcasts  repository.BroadcastRepositoryInterface
    DeliveryLog repository.DeliveryLogRepositoryInterface
    Resolver    *RecipientResolver
    Executor    queue.Executor

    // DefaultSender substitutes a missing broadcast sender.
    DefaultSender string
    Log           zerolog.Logger

    // Now is swappable in tests; nil means time.Now.
    Now func() time.Time
}

func (s *BroadcastService) clock() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now()
}

// BroadcastDetails is the admin view of a broadcast with its delivery
// stats folded in.
type BroadcastDetails struct {
    model.Broadcast
    Stats map[string]int `json:"stats"`
}

func (s *BroadcastService) CreateBroadcast(b *model.Broadcast) error {
    return s.Broadcasts.Create(b)
}

// ListBroadcasts fetches broadcasts with pagination.
func (s *BroadcastService) ListBroadcasts(page, pageSize int, audience, status string) ([]model.Broadcast, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.Broadcasts.ListBroadcasts(offset, pageSize, audience, status)
    if err != nil {
        return nil, nil, err
    }

    broadcasts := make([]model.Broadcast, len(ptrs))
    for i, b := range ptrs {
        broadcasts[i] = *b
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return broadcasts, pagination, nil
}

func (s *BroadcastService) GetBroadcastDetails(id int) (*BroadcastDetails, error) {
    b, err := s.Broadcasts.GetByID(id)
    if err != nil {
        return nil, err
    }

    stats, err := s.DeliveryLog.StatsForBroadcast(id)
    if err != nil {
        return nil, err
    }

    return &BroadcastDetails{Broadcast: *b, Stats: stats}, nil
}

// ScheduleOrDispatch decides what happens to a broadcast right now.
//
// An explicit override list (the curated subset picked at send time)
// wins over the resolver. An empty recipient set moves the broadcast to
// failed without touching the executor. A future scheduled time parks
// the broadcast in scheduled for the scanner to pick up; anything due
// (or unscheduled) dispatches immediately.
func (s *BroadcastService) ScheduleOrDispatch(id int, override []string) (*DispatchResult, error) {
    b, err := s.Broadcasts.GetByID(id)
    if err != nil {
        return nil, err
    }

    recipients := CleanRecipients(override)
    if len(recipients) == 0 {
        recipients, err = s.Resolver.Resolve(b.Audience)
        if err != nil {
            // A selector outside the enum is a caller bug; the broadcast
            // stays dispatchable. A dead collaborator store fails it the
            // same way an empty audience does, and the error still
            // reaches the caller.
            var unknown *apperr.ErrUnknownAudience
            if !errors.As(err, &unknown) {
                s.failBroadcast(b.ID)
            }
            return nil, err
        }
    }

    if len(recipients) == 0 {
        s.failBroadcast(b.ID)
        return &DispatchResult{BroadcastID: b.ID, Decision: DecisionFailed}, apperr.ErrNoRecipients
    }

    if !b.IsDue(s.clock()) {
        ok, err := s.Broadcasts.TransitionStatus(b.ID, []string{model.StatusDraft}, model.StatusScheduled)
        if err != nil {
            return nil, err
        }
        if !ok && b.Status != model.StatusScheduled {
            return nil, apperr.ErrInvalidTransition
        }
        s.Log.Info().
            Int("broadcast_id", b.ID).
            Time("scheduled_time", b.ScheduledTime.UTC()).
            Msg("broadcast scheduled")
        return &DispatchResult{BroadcastID: b.ID, Decision: DecisionScheduled, Recipients: len(recipients)}, nil
    }

    return s.dispatch(b, recipients)
}

// dispatch fans out delivery tasks. The conditional status update is
// the exclusive gate: whichever caller wins the transition to sending
// owns the fan-out, everyone else gets ErrAlreadyDispatched.
func (s *BroadcastService) dispatch(b *model.Broadcast, recipients []string) (*DispatchResult, error) {
    ok, err := s.Broadcasts.TransitionStatus(b.ID, []string{model.StatusDraft, model.StatusScheduled}, model.StatusSending)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, apperr.ErrAlreadyDispatched
    }

    sender := b.Sender(s.DefaultSender)
    issued := 0
    for _, recipient := range recipients {
        task := queue.Task{
            BroadcastID: b.ID,
            Recipient:   recipient,
            Subject:     b.Subject,
            Body:        b.Body,
            Sender:      sender,
        }
        if err := s.Executor.Submit(task); err != nil {
            s.Log.Error().Err(err).
                Int("broadcast_id", b.ID).
                Str("recipient", recipient).
                Msg("failed to submit delivery task")
            continue
        }
        issued++
    }

    if issued == 0 {
        if _, err := s.Broadcasts.TransitionStatus(b.ID, []string{model.StatusSending}, model.StatusFailed); err != nil {
            return nil, err
        }
        return &DispatchResult{BroadcastID: b.ID, Decision: DecisionFailed, Recipients: len(recipients)}, apperr.ErrDispatchRejected
    }

    // Issuance is the completion signal: the broadcast is sent once
    // every task is with the executor, not once every delivery confirms.
    if _, err := s.Broadcasts.MarkSent(b.ID, s.clock()); err != nil {
        return nil, err
    }

    s.Log.Info().
        Int("broadcast_id", b.ID).
        Int("recipients", len(recipients)).
        Int("tasks_issued", issued).
        Msg("broadcast dispatched")

    return &DispatchResult{
        BroadcastID: b.ID,
        Decision:    DecisionDispatched,
        Recipients:  len(recipients),
        TasksIssued: issued,
    }, nil
}

// Resend is the administrative re-queue of a finished broadcast: it
// re-enters the state machine at draft and goes through the normal
// schedule-or-dispatch decision again.
func (s *BroadcastService) Resend(id int, override []string) (*DispatchResult, error) {
    ok, err := s.Broadcasts.TransitionStatus(id, []string{model.StatusSent, model.StatusFailed}, model.StatusDraft)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, apperr.ErrInvalidTransition
    }
    return s.ScheduleOrDispatch(id, override)
}

// RecordOutcome writes one delivery worker result to the log so the
// stats endpoint can report it. Per-recipient failures never feed back
// into the broadcast status.
func (s *BroadcastService) RecordOutcome(t queue.Task, out DeliveryOutcome) {
    attempt := &model.DeliveryAttempt{
        BroadcastID: t.BroadcastID,
        Recipient:   t.Recipient,
        Status:      out.Result,
        Attempts:    out.Attempts,
        LastError:   out.LastErr,
    }
    if err := s.DeliveryLog.Record(attempt); err != nil {
        s.Log.Error().Err(err).
            Int("broadcast_id", t.BroadcastID).
            Str("recipient", t.Recipient).
            Msg("failed to record delivery outcome")
    }
}

func (s *BroadcastService) failBroadcast(id int) {
    from := []string{model.StatusDraft, model.StatusScheduled, model.StatusSending}
    if _, err := s.Broadcasts.TransitionStatus(id, from, model.StatusFailed); err != nil {
        s.Log.Error().Err(err).Int("broadcast_id", id).Msg("failed to mark broadcast failed")
    }
}
