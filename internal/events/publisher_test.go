package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPublisherCollectsEvents(t *testing.T) {
	publisher := NewMockEventPublisher(nil)

	event := NewEngineEvent(EventReportGenerated, map[string]any{"report_id": "r1"})
	require.NoError(t, publisher.PublishEngineEvent(context.Background(), event))

	got := publisher.GetPublishedEvents()
	require.Len(t, got, 1)
	assert.Equal(t, EventReportGenerated, got[0].Type)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestMockPublisherConcurrentPublish(t *testing.T) {
	publisher := NewMockEventPublisher(nil)

	// Publishers and readers run concurrently, the way realtime poll
	// goroutines publish while a test inspects collected events.
	const publishers = 8
	const perPublisher = 50

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				event := NewEngineEvent(EventSourceDegraded, map[string]any{"n": i})
				_ = publisher.PublishEngineEvent(context.Background(), event)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = publisher.GetPublishedEvents()
		}
	}()

	wg.Wait()
	<-done

	assert.Len(t, publisher.GetPublishedEvents(), publishers*perPublisher)
}
