package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/belldivine070/CMS/internal/model"
	"github.com/belldivine070/CMS/internal/service"
)

func newScheduler(f *dispatcherFixture) *service.Scheduler {
	return &service.Scheduler{
		Broadcasts: f.repo,
		Dispatcher: f.svc,
		Log:        zerolog.Nop(),
		Now:        func() time.Time { return f.now },
	}
}

func TestScanDispatchesDueBroadcast(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture()
	due := f.now.Add(-time.Minute)
	b := f.createBroadcast(&due)
	b2Time := f.now.Add(time.Hour)
	b2 := f.createBroadcast(&b2Time)

	s := newScheduler(f)
	s.Scan()

	assert.Equal(model.StatusSent, f.repo.Status(b.ID))
	// A broadcast scheduled for later stays untouched.
	assert.Equal(model.StatusDraft, f.repo.Status(b2.ID))
	assert.Len(f.executor.Tasks(), 2)
}

func TestOverlappingScansDispatchOnce(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture()
	due := f.now.Add(-time.Minute)
	b := f.createBroadcast(&due)
	f.repo.TransitionStatus(b.ID, []string{model.StatusDraft}, model.StatusScheduled)

	s := newScheduler(f)

	// Two scan ticks racing over the same due broadcast: the status
	// transition gate must let exactly one through.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Scan()
		}()
	}
	wg.Wait()

	assert.Equal(model.StatusSent, f.repo.Status(b.ID))
	assert.Len(f.executor.Tasks(), 2)
}

func TestScanSkipsCancelledBroadcast(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture()
	due := f.now.Add(-time.Minute)
	b := f.createBroadcast(&due)
	f.repo.TransitionStatus(b.ID, []string{model.StatusDraft}, model.StatusScheduled)

	// Admin pulled the broadcast back before the tick fired.
	f.repo.TransitionStatus(b.ID, []string{model.StatusScheduled}, model.StatusFailed)

	s := newScheduler(f)
	s.Scan()

	assert.Equal(model.StatusFailed, f.repo.Status(b.ID))
	assert.Empty(f.executor.Tasks())
}

func TestScanRepeatedTicksAreHarmless(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture()
	due := f.now.Add(-time.Minute)
	b := f.createBroadcast(&due)

	s := newScheduler(f)
	s.Scan()
	s.Scan()
	s.Scan()

	assert.Equal(model.StatusSent, f.repo.Status(b.ID))
	assert.Len(f.executor.Tasks(), 2)
}
