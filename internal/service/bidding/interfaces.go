package bidding

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// Service is the transactional entry point for competitive bidding
type Service interface {
	// PlaceBid validates and applies a manual bid against an active
	// auction, resolving proxy ceilings and anti-sniping extension.
	PlaceBid(ctx context.Context, auctionID, bidder uuid.UUID, amount values.Money) (*PlaceBidResult, error)

	// SetMaxBid upserts the caller's private proxy ceiling. The current
	// price does not move until the next triggering bid event.
	SetMaxBid(ctx context.Context, auctionID, userID uuid.UUID, maxAmount values.Money) error

	// ListBids returns the chronological public bid history
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)
}

// PlaceBidResult reports the resolved outcome of an accepted bid
type PlaceBidResult struct {
	Bid          *bid.Bid     `json:"bid"`
	CurrentPrice values.Money `json:"current_price"`
	EndTime      time.Time    `json:"ends_at"`
	Extended     bool         `json:"extended"`
}

// AuctionRepository is the durable store for auction records. Mutations
// carry the version read beforehand; implementations must refuse writes
// when the row's version or status no longer matches (compare-and-set)
// and report that as errors.ErrStaleAuction.
type AuctionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	Create(ctx context.Context, a *auction.Auction) error
	UpdatePriceAndEndTime(ctx context.Context, id uuid.UUID, price values.Money, endTime time.Time, expectedVersion int) error
}

// BidRepository is the append-only public bid ledger
type BidRepository interface {
	Append(ctx context.Context, b *bid.Bid) error
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)
}

// MaxBidRepository stores private proxy ceilings, one row per
// (auction, user)
type MaxBidRepository interface {
	Upsert(ctx context.Context, m *bid.MaxBid) error
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.MaxBid, error)
}

// TxStore bundles the repositories bound to one transaction
type TxStore interface {
	Auctions() AuctionRepository
	Bids() BidRepository
	MaxBids() MaxBidRepository
}

// Store provides transactional access to the auction and bid stores. The
// function passed to InTransaction sees repositories sharing a single
// database transaction; returning an error rolls everything back.
type Store interface {
	TxStore
	InTransaction(ctx context.Context, fn func(TxStore) error) error
}

// Notifier receives domain events after commit. Implementations must be
// fire-and-forget: they never block the caller and their failures never
// surface as failures of the originating operation.
type Notifier interface {
	BidAccepted(ctx context.Context, a *auction.Auction, b *bid.Bid)
	AuctionExtended(ctx context.Context, a *auction.Auction)
}

// Settings is an immutable snapshot of platform bidding configuration.
// Staleness on the order of tens of seconds is acceptable; each operation
// works against exactly one snapshot.
type Settings struct {
	BidIncrement       values.Money
	AntiSnipingEnabled bool
	SoftClose          time.Duration
	MaxAuctionDuration time.Duration
}

// SettingsProvider serves configuration snapshots
type SettingsProvider interface {
	Snapshot(ctx context.Context) Settings
}

// MetricsCollector records bidding telemetry
type MetricsCollector interface {
	RecordBidAccepted(ctx context.Context)
	RecordBidRejected(ctx context.Context, reason string)
	RecordAuctionExtended(ctx context.Context)
}
