package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/belldivine070/CMS/internal/model"
	"github.com/belldivine070/CMS/internal/queue"
	"github.com/belldivine070/CMS/internal/service"
)

func testTask() queue.Task {
	return queue.Task{
		BroadcastID: 1,
		Recipient:   "a@x.com",
		Subject:     "Launch",
		Body:        "<p>hi</p>",
		Sender:      "noreply@company.com",
	}
}

func TestDeliverFirstAttemptSucceeds(t *testing.T) {
	assert := assert.New(t)
	transport := &ScriptedTransport{failures: 0}
	w := service.NewDeliveryWorker(transport, 3, 0, zerolog.Nop())

	out := w.Deliver(context.Background(), testTask())
	assert.Equal(model.DeliveryDelivered, out.Result)
	assert.Equal(1, out.Attempts)
	assert.Equal(1, transport.Calls())
}

func TestDeliverRecoversWithinRetryLimit(t *testing.T) {
	assert := assert.New(t)

	// Fails twice, succeeds on the third and final attempt.
	transport := &ScriptedTransport{failures: 2}
	w := service.NewDeliveryWorker(transport, 3, 0, zerolog.Nop())

	out := w.Deliver(context.Background(), testTask())
	assert.Equal(model.DeliveryDelivered, out.Result)
	assert.Equal(3, out.Attempts)
	assert.Equal(3, transport.Calls())
}

func TestDeliverAbandonsAfterMaxRetries(t *testing.T) {
	assert := assert.New(t)
	transport := &ScriptedTransport{failures: 10}
	w := service.NewDeliveryWorker(transport, 3, 0, zerolog.Nop())

	out := w.Deliver(context.Background(), testTask())
	assert.Equal(model.DeliveryAbandoned, out.Result)
	assert.Equal(3, out.Attempts)
	assert.Equal(3, transport.Calls())
	assert.NotEmpty(out.LastErr)
}

func TestAbandonedDeliveryDoesNotFailBroadcast(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture()
	b := f.createBroadcast(nil)

	_, err := f.svc.ScheduleOrDispatch(b.ID, nil)
	assert.Nil(err)

	// One recipient exhausts its retries after the broadcast is sent.
	transport := &ScriptedTransport{failures: 10}
	w := service.NewDeliveryWorker(transport, 3, 0, zerolog.Nop())
	for _, task := range f.executor.Tasks() {
		f.svc.RecordOutcome(task, w.Deliver(context.Background(), task))
	}

	assert.Equal(model.StatusSent, f.repo.Status(b.ID))
	stats, _ := f.log.StatsForBroadcast(b.ID)
	assert.Equal(2, stats[model.DeliveryAbandoned])
}
