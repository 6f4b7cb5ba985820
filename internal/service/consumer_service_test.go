package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "PROCESS_DOCUMENT"

// scriptedProcessor returns errs in order, then succeeds.
type scriptedProcessor struct {
	mu    sync.Mutex
	errs  []error
	calls []uuid.UUID
	seen  chan struct{}
}

func (p *scriptedProcessor) ProcessDocument(ctx context.Context, documentId uuid.UUID) (*ProcessResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, documentId)
	var err error
	if len(p.errs) > 0 {
		err, p.errs = p.errs[0], p.errs[1:]
	}
	p.mu.Unlock()
	p.seen <- struct{}{}

	if err != nil {
		return nil, err
	}
	return &ProcessResult{Success: true, DocumentID: documentId}, nil
}

func (p *scriptedProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func startConsumer(t *testing.T, proc *scriptedProcessor) IPublisherService {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, NewConsumerService(pubSub, testTopic, proc, logger.NewNopLogger()).Consume(ctx))
	return NewPublisherService(testTopic, pubSub)
}

func waitCalls(t *testing.T, proc *scriptedProcessor, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-proc.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("processor called %d times, want %d", proc.callCount(), n)
		}
	}
}

func TestConsumerRequeuesTransientFailure(t *testing.T) {
	proc := &scriptedProcessor{
		errs: []error{apperror.Transient("embed", errors.New("503"))},
		seen: make(chan struct{}, 8),
	}
	pub := startConsumer(t, proc)

	id := uuid.New()
	require.NoError(t, pub.PublishProcessDocument(context.Background(), id))

	waitCalls(t, proc, 2)
	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, []uuid.UUID{id, id}, proc.calls)
}

func TestConsumerGivesUpAfterMaxDeliveries(t *testing.T) {
	transient := apperror.Transient("embed", errors.New("503"))
	proc := &scriptedProcessor{
		errs: []error{transient, transient, transient, transient, transient},
		seen: make(chan struct{}, 8),
	}
	pub := startConsumer(t, proc)

	require.NoError(t, pub.PublishProcessDocument(context.Background(), uuid.New()))

	waitCalls(t, proc, maxDeliveries)
	select {
	case <-proc.seen:
		t.Fatal("message redelivered past the limit")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, maxDeliveries, proc.callCount())
}

func TestConsumerAcksPreconditionFailures(t *testing.T) {
	proc := &scriptedProcessor{
		errs: []error{ErrDocumentProcessing},
		seen: make(chan struct{}, 8),
	}
	pub := startConsumer(t, proc)

	require.NoError(t, pub.PublishProcessDocument(context.Background(), uuid.New()))

	waitCalls(t, proc, 1)
	select {
	case <-proc.seen:
		t.Fatal("precondition failure must not be redelivered")
	case <-time.After(100 * time.Millisecond):
	}
}
