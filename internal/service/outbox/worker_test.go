package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

func enqueue(t *testing.T, repo *memory.OutboxRepository, id string) {
	t.Helper()
	_, err := repo.Enqueue(context.Background(), domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-" + id,
		EventType:     domain.EventOrderStatusChanged,
		Payload:       []byte(`{"status":"PREPARING"}`),
	})
	if err != nil {
		t.Fatalf("enqueue %s failed: %v", id, err)
	}
}

func TestWorker_ProcessOnce_MarksSent(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "msg-1")
	enqueue(t, repo, "msg-2")
	publisher := &recordingPublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))
	result := worker.ProcessOnce(context.Background())

	if result.Sent != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("expected empty backlog, got %d", got)
	}
	if got := publisher.calls(); got != 2 {
		t.Fatalf("expected 2 publish calls, got %d", got)
	}
}

func TestWorker_ProcessOnce_DeadLettersAfterRetries(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "msg-3")
	publisher := &recordingPublisher{err: errors.New("broker down")}
	dlq := &recordingPublisher{}

	worker := NewWorker(repo, publisher,
		WithDLQPublisher(dlq),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)
	result := worker.ProcessOnce(context.Background())

	if result.Failed != 1 {
		t.Fatalf("expected 1 failed message, got %+v", result)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("failed message must leave pending backlog, got %d", got)
	}

	dead := dlq.last()
	var letter deadLetter
	if err := json.Unmarshal(dead.Payload, &letter); err != nil {
		t.Fatalf("dlq payload is not JSON: %v", err)
	}
	if letter.OutboxID != "msg-3" || letter.Attempts != 3 || letter.PublishError == "" {
		t.Fatalf("unexpected dead letter: %+v", letter)
	}
}

func TestWorker_ProcessOnce_SucceedsAfterRetry(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "msg-4")
	publisher := &recordingPublisher{sequence: []error{errors.New("attempt 1"), nil}}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	result := worker.ProcessOnce(context.Background())

	if result.Sent != 1 {
		t.Fatalf("expected message to be sent, got %+v", result)
	}
	if got := publisher.calls(); got != 2 {
		t.Fatalf("expected 2 publish attempts, got %d", got)
	}
}

func TestWorker_ProcessOnce_CanceledContextKeepsPending(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "msg-5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewWorker(repo, &recordingPublisher{}).ProcessOnce(ctx)
	if result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("expected no work on canceled context, got %+v", result)
	}
	if got := len(repo.AllPending()); got != 1 {
		t.Fatalf("expected message to stay pending, got %d", got)
	}
}

func TestWorker_RetryBackoff(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil, WithRetryBaseDelay(100*time.Millisecond))
	cases := map[int]time.Duration{
		1:  100 * time.Millisecond,
		2:  200 * time.Millisecond,
		3:  400 * time.Millisecond,
		20: maxRetryDelay,
	}
	for attempt, want := range cases {
		if got := worker.retryBackoff(attempt); got != want {
			t.Fatalf("attempt %d: expected %s, got %s", attempt, want, got)
		}
	}

	if got := NewWorker(nil, nil, WithRetryBaseDelay(0)).retryBackoff(3); got != 0 {
		t.Fatalf("expected zero delay, got %s", got)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	worker := NewWorker(repo, &recordingPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	sequence  []error
	callCount int
	published []domain.OutboxMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.callCount++
	err := p.err
	if len(p.sequence) > 0 {
		err = p.sequence[0]
		p.sequence = p.sequence[1:]
	}
	if err == nil {
		p.published = append(p.published, msg)
	}
	return err
}

func (p *recordingPublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

func (p *recordingPublisher) last() domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.published) == 0 {
		return domain.OutboxMessage{}
	}
	return p.published[len(p.published)-1]
}

var _ domain.OutboxPublisher = (*recordingPublisher)(nil)
