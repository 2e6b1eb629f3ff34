package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes prescription jobs to a fixed set of workers using
// consistent hashing on the prescription ID, so two runs for the same
// prescription never execute concurrently.
type Dispatcher struct {
	workers  []chan string
	pipeline ports.PipelineService
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, pipeline ports.PipelineService, log zerolog.Logger) *Dispatcher {
	return newDispatcher(numWorkers, channelBuffer, pipeline, log)
}

func newDispatcher(numWorkers, buffer int, pipeline ports.PipelineService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan string, numWorkers),
		pipeline: pipeline,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, buffer)
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

// Enqueue hands a prescription to the worker responsible for it. It never
// blocks: a full worker channel yields domain.ErrQueueFull.
func (d *Dispatcher) Enqueue(prescriptionID string) error {
	idx := d.shardIndex(prescriptionID)
	select {
	case d.workers[idx] <- prescriptionID:
		metrics.PipelineQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// shardIndex maps a prescription ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(prescriptionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prescriptionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case prescriptionID, ok := <-ch:
			if !ok {
				return
			}
			metrics.PipelineQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.pipeline.Process(ctx, prescriptionID); err != nil {
				d.log.Error().Err(err).
					Str("prescription_id", prescriptionID).
					Int("worker_id", id).
					Msg("prescription processing failed")
			}
		}
	}
}
