package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/api/metrics"
	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes resource events to a fixed set of workers using
// consistent hashing on the owner id, so events of one owner are processed
// in commit order.
type Dispatcher struct {
	workers   []chan domain.ResourceEvent
	processor ports.ResourceEventProcessor
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.ResourceEventProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.ResourceEvent, numWorkers),
		processor: processor,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ResourceEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify hands ev to the worker responsible for its owner. It never blocks
// the request path: when that worker's channel is full the event is dropped.
func (d *Dispatcher) Notify(ev domain.ResourceEvent) {
	idx := d.shardIndex(ev.OwnerID)
	select {
	case d.workers[idx] <- ev:
		metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().
			Str("type", string(ev.Type)).
			Str("owner_account_id", ev.OwnerID.String()).
			Int("worker_id", idx).
			Msg("dispatch queue full, event dropped")
	}
}

// shardIndex maps an owner id deterministically to a worker index.
func (d *Dispatcher) shardIndex(owner uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write(owner[:])
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ResourceEvent) {
	defer d.wg.Done()
	depth := metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			depth.Set(float64(len(ch)))
			if err := d.processor.Process(ctx, ev); err != nil {
				d.log.Error().Err(err).
					Str("type", string(ev.Type)).
					Str("resource_id", ev.ResourceID.String()).
					Int("worker_id", id).
					Msg("resource event processing failed")
			}
		}
	}
}
