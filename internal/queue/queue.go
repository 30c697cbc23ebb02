package queue

import (
	"encoding/json"
	"errors"
	"sync"
)

// Task is one recipient-scoped delivery job. It carries everything the
// worker needs so processing never has to read the broadcast back.
type Task struct {
	BroadcastID int    `json:"broadcast_id"`
	Recipient   string `json:"recipient"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Sender      string `json:"sender"`
}

// Executor accepts delivery tasks for asynchronous processing. The
// dispatcher only cares that submission succeeded; completion is the
// worker's business.
type Executor interface {
	Submit(t Task) error
}

// EncodeTask and DecodeTask are the wire format shared by the AMQP
// publisher and the worker binary's consumer.
func EncodeTask(t Task) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTask(body []byte) (Task, error) {
	var t Task
	err := json.Unmarshal(body, &t)
	return t, err
}

var ErrPoolClosed = errors.New("submit on closed pool")

// Pool is the in-process executor: a fixed set of worker goroutines
// draining a shared channel. Tasks for different recipients never wait
// on each other beyond pool capacity.
type Pool struct {
	tasks   chan Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	handler func(t Task)
}

// NewPool starts workers goroutines running handler for each task.
func NewPool(workers int, handler func(t Task)) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks:   make(chan Task, workers*16),
		handler: handler,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.handler(t)
	}
}

// Submit enqueues a task. It blocks when the buffer is full and fails
// once the pool has been closed. The read lock is held across the send
// so Close cannot close the channel under a blocked Submit.
func (p *Pool) Submit(t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- t
	return nil
}

// Close stops intake and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	close(p.tasks)
	p.wg.Wait()
}

var _ Executor = (*Pool)(nil)
