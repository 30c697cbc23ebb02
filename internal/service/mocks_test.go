package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/belldivine070/CMS/internal/mailer"
	"github.com/belldivine070/CMS/internal/model"
	"github.com/belldivine070/CMS/internal/queue"
)

// --- Mock audience stores ---

type MockUserRepo struct {
	mu    sync.Mutex
	users []model.User
	calls int
	err   error
}

func (m *MockUserRepo) ListActive() ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	active := []model.User{}
	for _, u := range m.users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

type MockSubscriberRepo struct {
	mu    sync.Mutex
	subs  []model.Subscriber
	calls int
	err   error
}

func (m *MockSubscriberRepo) ListAll() ([]model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Subscriber{}, m.subs...), nil
}

// --- In-memory broadcast repository ---
//
// Mirrors the Postgres repository's conditional-update discipline so
// the dispatch gate can be exercised under concurrency.

type MemBroadcastRepo struct {
	mu         sync.Mutex
	broadcasts map[int]*model.Broadcast
	nextID     int
}

func NewMemBroadcastRepo() *MemBroadcastRepo {
	return &MemBroadcastRepo{broadcasts: map[int]*model.Broadcast{}, nextID: 1}
}

func (m *MemBroadcastRepo) Create(b *model.Broadcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ApplyDefaults()
	b.CreatedAt = time.Now()
	b.ID = m.nextID
	m.nextID++
	cp := *b
	m.broadcasts[b.ID] = &cp
	return nil
}

func (m *MemBroadcastRepo) GetByID(id int) (*model.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.broadcasts[id]
	if !ok {
		return nil, errors.New("broadcast not found")
	}
	cp := *b
	return &cp, nil
}

func (m *MemBroadcastRepo) ListBroadcasts(offset, limit int, audience, status string) ([]*model.Broadcast, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Broadcast{}
	for _, b := range m.broadcasts {
		if audience != "" && b.Audience != audience {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *MemBroadcastRepo) TransitionStatus(id int, from []string, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.broadcasts[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if b.Status == f {
			b.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (m *MemBroadcastRepo) MarkSent(id int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.broadcasts[id]
	if !ok || b.Status != model.StatusSending {
		return false, nil
	}
	b.Status = model.StatusSent
	b.LastSentAt = &at
	return true, nil
}

func (m *MemBroadcastRepo) ListDue(now time.Time) ([]*model.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := []*model.Broadcast{}
	for _, b := range m.broadcasts {
		if b.Status != model.StatusDraft && b.Status != model.StatusScheduled {
			continue
		}
		if b.ScheduledTime == nil || b.ScheduledTime.After(now) {
			continue
		}
		cp := *b
		due = append(due, &cp)
	}
	return due, nil
}

func (m *MemBroadcastRepo) Status(id int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcasts[id].Status
}

// --- Delivery log ---

type MemDeliveryLog struct {
	mu       sync.Mutex
	attempts []*model.DeliveryAttempt
}

func (m *MemDeliveryLog) Record(a *model.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = len(m.attempts) + 1
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *MemDeliveryLog) StatsForBroadcast(broadcastID int) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[string]int{
		model.DeliveryDelivered: 0,
		model.DeliveryAbandoned: 0,
		"total":                 0,
	}
	for _, a := range m.attempts {
		if a.BroadcastID != broadcastID {
			continue
		}
		stats[a.Status]++
		stats["total"]++
	}
	return stats, nil
}

// --- Recording executor ---

type RecordingExecutor struct {
	mu    sync.Mutex
	tasks []queue.Task
	err   error
}

func (e *RecordingExecutor) Submit(t queue.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.tasks = append(e.tasks, t)
	return nil
}

func (e *RecordingExecutor) Tasks() []queue.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]queue.Task{}, e.tasks...)
}

// --- Scripted transport ---

// ScriptedTransport fails the first failures sends, then succeeds.
type ScriptedTransport struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (t *ScriptedTransport) Send(ctx context.Context, m mailer.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.calls <= t.failures {
		return errors.New("transport unavailable")
	}
	return nil
}

func (t *ScriptedTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
