package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/fixtures"
)

// captureSink records delivered events, optionally blocking until released
type captureSink struct {
	mu      sync.Mutex
	events  []*Event
	block   chan struct{}
	failAll bool
}

func (s *captureSink) Deliver(_ context.Context, event *Event) error {
	if s.block != nil {
		<-s.block
	}
	if s.failAll {
		return fmt.Errorf("sink unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) snapshot() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestPublisher_DeliversToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	p := NewPublisher(PublisherConfig{QueueSize: 16, WorkerCount: 1}, zap.NewNop(), first, second)

	a := fixtures.NewAuctionBuilder().Build()
	b := bid.New(a.ID, a.SellerID, fixtures.Money("150"))
	p.BidAccepted(context.Background(), a, b)
	p.AuctionExtended(context.Background(), a)

	require.NoError(t, p.Close())

	for _, sink := range []*captureSink{first, second} {
		got := sink.snapshot()
		require.Len(t, got, 2)
		assert.Equal(t, EventBidAccepted, got[0].Type)
		assert.Equal(t, EventAuctionExtended, got[1].Type)
		assert.Equal(t, a.ID, got[0].AuctionID)
	}
}

func TestPublisher_EventEnvelope(t *testing.T) {
	sink := &captureSink{}
	p := NewPublisher(PublisherConfig{QueueSize: 16, WorkerCount: 1}, zap.NewNop(), sink)

	o := order.New(fixtures.NewAuctionBuilder().Build().ID, fixtures.NewAccount().ID, fixtures.NewSeller().ID, fixtures.Money("99"), order.SourceBuyNow, order.ShippingDetails{})
	p.OrderCreated(context.Background(), o)

	require.NoError(t, p.Close())

	got := sink.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, EventOrderCreated, got[0].Type)
	assert.Equal(t, o.AuctionID, got[0].AuctionID)
	assert.Equal(t, o.ID.String(), got[0].Payload["order_id"])
	assert.False(t, got[0].OccurredAt.IsZero())
	assert.NotEqual(t, got[0].ID, o.ID)
}

func TestPublisher_DropsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	sink := &captureSink{block: release}
	p := NewPublisher(PublisherConfig{QueueSize: 1, WorkerCount: 1}, zap.NewNop(), sink)

	a := fixtures.NewAuctionBuilder().Build()

	// First event occupies the worker, second fills the queue, the rest
	// must be dropped without blocking.
	for i := 0; i < 5; i++ {
		p.AuctionExtended(context.Background(), a)
	}

	assert.Eventually(t, func() bool {
		return p.Dropped() >= 3
	}, time.Second, 10*time.Millisecond)

	close(release)
	require.NoError(t, p.Close())
}

func TestPublisher_SinkFailureDoesNotStopDelivery(t *testing.T) {
	failing := &captureSink{failAll: true}
	healthy := &captureSink{}
	p := NewPublisher(PublisherConfig{QueueSize: 16, WorkerCount: 1}, zap.NewNop(), failing, healthy)

	a := fixtures.NewAuctionBuilder().Build()
	p.AuctionEndedNoWinner(context.Background(), a)

	require.NoError(t, p.Close())

	got := healthy.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, EventAuctionEndedNoWinner, got[0].Type)
}

func TestPublisher_PublishAfterCloseIsNoop(t *testing.T) {
	sink := &captureSink{}
	p := NewPublisher(PublisherConfig{QueueSize: 16, WorkerCount: 1}, zap.NewNop(), sink)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	p.AuctionStarted(context.Background(), fixtures.NewAuctionBuilder().Build())
	assert.Empty(t, sink.snapshot())
}
