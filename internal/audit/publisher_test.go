package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"hilo/internal/audit"
	"hilo/internal/audit/mocks"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	pub := audit.NewPublisher(4, nil)
	pub.Emit(context.Background(), audit.Event{Action: audit.ActionTokenMinted})

	event := <-pub.Inbox()
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, audit.ActionTokenMinted, event.Action)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	var dropped int
	pub := audit.NewPublisher(1, func() { dropped++ })

	pub.Emit(context.Background(), audit.Event{Action: "a"})
	pub.Emit(context.Background(), audit.Event{Action: "b"})

	assert.Equal(t, 1, dropped)
}

func TestWorkerDrainsInboxToSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)

	var mu sync.Mutex
	var seen []string
	sink.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, event.Action)
			return nil
		},
	).Times(2)

	pub := audit.NewPublisher(4, nil)
	worker := audit.NewWorker(sink, pub.Inbox())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	pub.Emit(ctx, audit.Event{Action: audit.ActionTokenMinted})
	pub.Emit(ctx, audit.Event{Action: audit.ActionSettlement})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{audit.ActionTokenMinted, audit.ActionSettlement}, seen)
}
