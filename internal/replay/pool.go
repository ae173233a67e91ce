package replay

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"hospital-iot-backend/internal/logs"
)

// Sender posts one event.
type Sender interface {
	Send(ctx context.Context, ev Event) (*Response, error)
}

// Stats counts replay outcomes.
type Stats struct {
	Sent    int64
	Failed  int64
	Tickets int64
}

// WorkerPool posts events with a fixed number of workers. Each device is
// pinned to one worker, which keeps its events in dispatch order.
type WorkerPool struct {
	size   int
	shards []chan Event
	sender Sender
	wg     sync.WaitGroup

	sent    atomic.Int64
	failed  atomic.Int64
	tickets atomic.Int64
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, sender Sender) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		size:   size,
		shards: make([]chan Event, size),
		sender: sender,
	}
	for i := range wp.shards {
		wp.shards[i] = make(chan Event, 16)
	}
	return wp
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := logs.Logger.WithField("worker", id)
	log.Debug("worker started")
	for {
		select {
		case ev, ok := <-wp.shards[id]:
			if !ok {
				log.Debug("worker finished")
				return
			}
			wp.send(ctx, ev)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// send never fails the replay: errors are logged and the event dropped.
func (wp *WorkerPool) send(ctx context.Context, ev Event) {
	fields := logrus.Fields{"device_id": ev.DeviceID, "status": ev.Status}
	resp, err := wp.sender.Send(ctx, ev)
	if err != nil {
		wp.failed.Add(1)
		logs.Logger.WithFields(fields).Warnf("check-in dropped: %v", err)
		return
	}

	wp.sent.Add(1)
	if resp.TicketCreated != "" {
		wp.tickets.Add(1)
		fields["ticket_id"] = resp.TicketCreated
	}
	logs.Logger.WithFields(fields).Info("check-in sent")
}

// Dispatch queues ev on the worker that owns its device. It blocks while
// that worker's queue is full, until ctx is done.
func (wp *WorkerPool) Dispatch(ctx context.Context, ev Event) error {
	select {
	case wp.shards[wp.shardFor(ev.DeviceID)] <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) shardFor(deviceID string) int {
	h := fnv.New32a()
	h.Write([]byte(deviceID))
	return int(h.Sum32() % uint32(wp.size))
}

// Close stops accepting events and waits for queued ones to be sent.
func (wp *WorkerPool) Close() Stats {
	for _, ch := range wp.shards {
		close(ch)
	}
	wp.wg.Wait()
	return wp.Stats()
}

// Stats returns the counters so far.
func (wp *WorkerPool) Stats() Stats {
	return Stats{
		Sent:    wp.sent.Load(),
		Failed:  wp.failed.Load(),
		Tickets: wp.tickets.Load(),
	}
}
