package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/dailyfit/internal/kvstore"
	"github.com/2beens/dailyfit/internal/telemetry/metrics"
	"github.com/2beens/dailyfit/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const defaultWriteTimeout = 10 * time.Second

// Persister writes snapshots to the key-value store from a single background worker.
// It holds at most one pending snapshot: submitting a new one replaces a pending one
// that has not started writing yet, so the newest state always wins and writes never
// complete out of order.
type Persister struct {
	kv           kvstore.Store
	key          string
	writeTimeout time.Duration
	metrics      *metrics.Manager

	mutex      sync.Mutex
	idle       *sync.Cond
	pending    []byte
	hasPending bool
	writing    bool
	closed     bool

	wake chan struct{}
	done chan struct{}
}

func NewPersister(kv kvstore.Store, key string, metricsManager *metrics.Manager) *Persister {
	p := &Persister{
		kv:           kv,
		key:          key,
		writeTimeout: defaultWriteTimeout,
		metrics:      metricsManager,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mutex)

	go p.run()

	return p
}

// Submit never blocks on I/O.
func (p *Persister) Submit(payload []byte) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		log.Warnf("persister closed, dropping snapshot for [%s]", p.key)
		return
	}

	if p.hasPending && p.metrics != nil {
		p.metrics.CounterSnapshotsSuperseded.Inc()
	}
	p.pending = payload
	p.hasPending = true

	select {
	case p.wake <- struct{}{}:
	default:
		// worker already signalled
	}
}

// Flush blocks until the pending snapshot (if any) is written.
func (p *Persister) Flush() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for p.hasPending || p.writing {
		p.idle.Wait()
	}
}

// Close writes the pending snapshot and stops the worker. Later submits are dropped.
func (p *Persister) Close() {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		<-p.done
		return
	}
	p.closed = true
	close(p.wake)
	p.mutex.Unlock()

	<-p.done
}

func (p *Persister) run() {
	defer close(p.done)

	for range p.wake {
		p.drain()
	}
	p.drain()
}

func (p *Persister) drain() {
	for {
		p.mutex.Lock()
		if !p.hasPending {
			p.writing = false
			p.idle.Broadcast()
			p.mutex.Unlock()
			return
		}
		payload := p.pending
		p.pending = nil
		p.hasPending = false
		p.writing = true
		p.mutex.Unlock()

		p.write(payload)
	}
}

func (p *Persister) write(payload []byte) {
	var err error
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.persister.write")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", p.key))
	span.SetAttributes(attribute.Int("size", len(payload)))

	start := time.Now()
	err = p.kv.Set(ctx, p.key, string(payload))
	if p.metrics != nil {
		p.metrics.HistogramSnapshotWriteSeconds.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		log.Errorf("persist tracker snapshot [%s]: %s", p.key, err)
		if p.metrics != nil {
			p.metrics.CounterSnapshotWrites.WithLabelValues("error").Inc()
		}
		return
	}

	log.Tracef("tracker snapshot persisted [%s], %d bytes", p.key, len(payload))
	if p.metrics != nil {
		p.metrics.CounterSnapshotWrites.WithLabelValues("ok").Inc()
	}
}
