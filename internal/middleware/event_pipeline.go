package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"DiabScreen/internal/domain/models"
	domrepo "DiabScreen/internal/domain/repository"
	applogger "DiabScreen/pkg/logger"
)

// EventPipeline sits between the screener and the event sinks. Enqueue never
// blocks the request path: events are buffered and a single worker delivers
// each one to every sink, retrying failures with capped exponential backoff.
type EventPipeline struct {
	sinks       []domrepo.EventSink
	metrics     domrepo.Metrics
	log         *applogger.Logger
	bufCh       chan *models.ScreeningEvent
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	drainWait   time.Duration

	mu      sync.Mutex
	running bool
}

type PipelineOption func(*EventPipeline)

// WithBufferSize sets how many events may wait for delivery before new ones are dropped.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.ScreeningEvent, n)
		}
	}
}

// WithMaxAttempts sets the delivery attempts per sink and event.
func WithMaxAttempts(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the first retry delay and its cap.
func WithBackoff(initial, max time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		p.backoff = initial
		p.maxBackoff = max
	}
}

// WithDrainTimeout bounds how long Run keeps delivering buffered events after cancellation.
func WithDrainTimeout(d time.Duration) PipelineOption {
	return func(p *EventPipeline) { p.drainWait = d }
}

// NewEventPipeline creates a pipeline over sinks. Nil sinks are skipped.
func NewEventPipeline(sinks []domrepo.EventSink, metrics domrepo.Metrics, log *applogger.Logger, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		metrics:     metrics,
		log:         log.Named("events"),
		bufCh:       make(chan *models.ScreeningEvent, 1024),
		maxAttempts: 3,
		backoff:     50 * time.Millisecond,
		maxBackoff:  2 * time.Second,
		drainWait:   5 * time.Second,
	}
	for _, s := range sinks {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether any sink is configured.
func (p *EventPipeline) Enabled() bool { return len(p.sinks) > 0 }

// Enqueue buffers ev without blocking. It returns false when the event was dropped.
func (p *EventPipeline) Enqueue(ev *models.ScreeningEvent) bool {
	if ev == nil || !p.Enabled() {
		return true
	}
	select {
	case p.bufCh <- ev:
		return true
	default:
		p.metrics.RecordEvent("pipeline", "dropped")
		return false
	}
}

// Run delivers events until ctx is cancelled, then drains what is buffered.
func (p *EventPipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("event pipeline already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	if !p.Enabled() {
		<-ctx.Done()
		return nil
	}

	p.log.Info("event pipeline started", applogger.Int("sinks", len(p.sinks)))
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case ev := <-p.bufCh:
			// an event already taken off the buffer is finished even if ctx ends meanwhile
			p.deliver(context.WithoutCancel(ctx), ev)
		}
	}
}

func (p *EventPipeline) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), p.drainWait)
	defer cancel()

	n := 0
	for {
		select {
		case ev := <-p.bufCh:
			p.deliver(ctx, ev)
			n++
		default:
			p.log.Info("event pipeline drained", applogger.Int("events", n))
			return
		}
	}
}

func (p *EventPipeline) deliver(ctx context.Context, ev *models.ScreeningEvent) {
	for _, sink := range p.sinks {
		p.send(ctx, sink, ev)
	}
}

func (p *EventPipeline) send(ctx context.Context, sink domrepo.EventSink, ev *models.ScreeningEvent) {
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		start := time.Now()
		if err = sink.Send(ctx, ev); err == nil {
			p.metrics.RecordEvent(sink.Name(), "ok")
			p.metrics.RecordLatency("event_"+sink.Name(), time.Since(start).Seconds())
			return
		}
		if attempt == p.maxAttempts {
			break
		}
		p.metrics.RecordEvent(sink.Name(), "retry")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.fail(sink, ev, ctx.Err())
			return
		case <-timer.C:
		}
		// exponential backoff with cap
		if backoff < p.maxBackoff {
			backoff *= 2
			if backoff > p.maxBackoff {
				backoff = p.maxBackoff
			}
		}
	}
	p.fail(sink, ev, err)
}

func (p *EventPipeline) fail(sink domrepo.EventSink, ev *models.ScreeningEvent, err error) {
	p.metrics.RecordEvent(sink.Name(), "failed")
	p.log.Warn("event delivery failed",
		applogger.String("sink", sink.Name()),
		applogger.String("id", ev.ID),
		applogger.Error(err),
	)
}

// Close closes every sink.
func (p *EventPipeline) Close() error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
