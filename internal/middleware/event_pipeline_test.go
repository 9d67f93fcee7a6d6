package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"DiabScreen/internal/domain/models"
	domrepo "DiabScreen/internal/domain/repository"
	applogger "DiabScreen/pkg/logger"
	"DiabScreen/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name     string
	mu       sync.Mutex
	failures int
	calls    int
	got      []string
	closed   bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, ev *models.ScreeningEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("unavailable")
	}
	s.got = append(s.got, ev.ID)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newPipeline(sinks []domrepo.EventSink, opts ...PipelineOption) *EventPipeline {
	opts = append([]PipelineOption{WithBackoff(time.Millisecond, 4*time.Millisecond)}, opts...)
	return NewEventPipeline(sinks, metrics.Nop{}, applogger.Nop(), opts...)
}

func runPipeline(t *testing.T, p *EventPipeline) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("pipeline did not stop")
		}
	}
}

func TestPipelineDeliversToEverySink(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	p := newPipeline([]domrepo.EventSink{a, nil, b})
	stop := runPipeline(t, p)

	assert.True(t, p.Enqueue(&models.ScreeningEvent{ID: "1"}))
	assert.True(t, p.Enqueue(&models.ScreeningEvent{ID: "2"}))

	assert.Eventually(t, func() bool { return len(b.delivered()) == 2 }, time.Second, 5*time.Millisecond)
	stop()
	assert.Equal(t, []string{"1", "2"}, a.delivered())
	assert.Equal(t, []string{"1", "2"}, b.delivered())
}

func TestPipelineRetriesWithBackoff(t *testing.T) {
	s := &recordingSink{name: "flaky", failures: 2}
	p := newPipeline([]domrepo.EventSink{s}, WithMaxAttempts(3))
	stop := runPipeline(t, p)
	defer stop()

	p.Enqueue(&models.ScreeningEvent{ID: "x"})
	assert.Eventually(t, func() bool { return len(s.delivered()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, s.callCount())
}

func TestPipelineGivesUpAfterMaxAttempts(t *testing.T) {
	s := &recordingSink{name: "down", failures: 10}
	p := newPipeline([]domrepo.EventSink{s}, WithMaxAttempts(2))
	stop := runPipeline(t, p)
	defer stop()

	p.Enqueue(&models.ScreeningEvent{ID: "lost"})
	p.Enqueue(&models.ScreeningEvent{ID: "next"})
	assert.Eventually(t, func() bool { return s.callCount() == 4 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.delivered())
}

func TestPipelineEnqueueNeverBlocks(t *testing.T) {
	s := &recordingSink{name: "a"}
	p := newPipeline([]domrepo.EventSink{s}, WithBufferSize(2))

	// not running, so the buffer fills up
	assert.True(t, p.Enqueue(&models.ScreeningEvent{ID: "1"}))
	assert.True(t, p.Enqueue(&models.ScreeningEvent{ID: "2"}))
	assert.False(t, p.Enqueue(&models.ScreeningEvent{ID: "3"}))
}

func TestPipelineDrainsOnStop(t *testing.T) {
	s := &recordingSink{name: "a"}
	p := newPipeline([]domrepo.EventSink{s}, WithBufferSize(8))
	for _, id := range []string{"1", "2", "3"} {
		require.True(t, p.Enqueue(&models.ScreeningEvent{ID: id}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))
	assert.ElementsMatch(t, []string{"1", "2", "3"}, s.delivered())
}

func TestPipelineWithoutSinks(t *testing.T) {
	p := newPipeline(nil)
	assert.False(t, p.Enabled())
	assert.True(t, p.Enqueue(&models.ScreeningEvent{ID: "1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, p.Run(ctx))
}

func TestPipelineCloseClosesSinks(t *testing.T) {
	a := &recordingSink{name: "a"}
	p := newPipeline([]domrepo.EventSink{a})
	require.NoError(t, p.Close())
	assert.True(t, a.closed)
}
