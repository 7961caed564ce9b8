package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
)

type EventType string

const (
	EventBidAccepted          EventType = "bid.accepted"
	EventAuctionExtended      EventType = "auction.extended"
	EventAuctionStarted       EventType = "auction.started"
	EventAuctionWon           EventType = "auction.won"
	EventAuctionEndedNoWinner EventType = "auction.ended_no_winner"
	EventOrderCreated         EventType = "order.created"
)

// Event is the envelope delivered to sinks. Payload holds the JSON-ready
// projection of the triggering domain objects.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	Type       EventType              `json:"type"`
	AuctionID  uuid.UUID              `json:"auction_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// Sink receives events after the originating transaction committed.
// Implementations own their retries; a returned error is logged and the
// event is not redelivered.
type Sink interface {
	Deliver(ctx context.Context, event *Event) error
}

// PublisherConfig tunes the async delivery pipeline
type PublisherConfig struct {
	QueueSize   int
	WorkerCount int
	SendTimeout time.Duration
}

// DefaultPublisherConfig returns the standard pipeline sizing
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		QueueSize:   4096,
		WorkerCount: 4,
		SendTimeout: 5 * time.Second,
	}
}

// Publisher fans out auction lifecycle, bidding and settlement events to
// the configured sinks. Publishing never blocks the caller: events are
// queued on a bounded channel and dropped (with a log line and counter)
// when the queue is full. Delivery ordering is not guaranteed across
// auctions.
type Publisher struct {
	logger *zap.Logger
	sinks  []Sink
	config PublisherConfig

	queue  chan *Event
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// NewPublisher creates the publisher and starts its delivery workers
func NewPublisher(config PublisherConfig, logger *zap.Logger, sinks ...Sink) *Publisher {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultPublisherConfig().QueueSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultPublisherConfig().WorkerCount
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultPublisherConfig().SendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		logger: logger,
		sinks:  sinks,
		config: config,
		queue:  make(chan *Event, config.QueueSize),
		cancel: cancel,
	}

	for i := 0; i < config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	return p
}

// Close stops accepting events and drains the queue
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	p.cancel()
	return nil
}

// Dropped reports how many events were discarded because the queue was
// full. Exposed for health reporting.
func (p *Publisher) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *Publisher) worker(ctx context.Context) {
	defer p.wg.Done()
	for event := range p.queue {
		p.deliver(ctx, event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event *Event) {
	sendCtx, cancel := context.WithTimeout(ctx, p.config.SendTimeout)
	defer cancel()

	for _, sink := range p.sinks {
		if err := sink.Deliver(sendCtx, event); err != nil {
			p.logger.Warn("event delivery failed",
				zap.String("event_type", string(event.Type)),
				zap.String("auction_id", event.AuctionID.String()),
				zap.Error(err))
		}
	}
}

func (p *Publisher) enqueue(event *Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	select {
	case p.queue <- event:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		p.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("auction_id", event.AuctionID.String()))
	}
}

func newEvent(eventType EventType, auctionID uuid.UUID, payload map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		AuctionID:  auctionID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// BidAccepted publishes a committed bid
func (p *Publisher) BidAccepted(_ context.Context, a *auction.Auction, b *bid.Bid) {
	p.enqueue(newEvent(EventBidAccepted, a.ID, map[string]interface{}{
		"bid_id":        b.ID.String(),
		"leader_id":     b.UserID.String(),
		"amount":        b.Amount.String(),
		"current_price": a.CurrentPrice.String(),
		"ends_at":       a.EndTime,
	}))
}

// AuctionExtended publishes an anti-sniping end time extension
func (p *Publisher) AuctionExtended(_ context.Context, a *auction.Auction) {
	p.enqueue(newEvent(EventAuctionExtended, a.ID, map[string]interface{}{
		"ends_at": a.EndTime,
	}))
}

// AuctionStarted publishes the upcoming to active transition
func (p *Publisher) AuctionStarted(_ context.Context, a *auction.Auction) {
	p.enqueue(newEvent(EventAuctionStarted, a.ID, map[string]interface{}{
		"starting_price": a.StartingPrice.String(),
		"ends_at":        a.EndTime,
	}))
}

// AuctionWon publishes a closed auction with a valid winner
func (p *Publisher) AuctionWon(_ context.Context, a *auction.Auction, winning *bid.Bid) {
	p.enqueue(newEvent(EventAuctionWon, a.ID, map[string]interface{}{
		"winner_id":   winning.UserID.String(),
		"final_price": winning.Amount.String(),
	}))
}

// AuctionEndedNoWinner publishes a closed auction with no valid winner
func (p *Publisher) AuctionEndedNoWinner(_ context.Context, a *auction.Auction) {
	p.enqueue(newEvent(EventAuctionEndedNoWinner, a.ID, nil))
}

// OrderCreated publishes a settlement or buy-now order
func (p *Publisher) OrderCreated(_ context.Context, o *order.Order) {
	p.enqueue(newEvent(EventOrderCreated, o.AuctionID, map[string]interface{}{
		"order_id": o.ID.String(),
		"buyer_id": o.BuyerID.String(),
		"amount":   o.Amount.String(),
	}))
}
