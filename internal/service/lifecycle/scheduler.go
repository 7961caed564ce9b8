package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// Store is the durable state the scheduler drives. MarkActive and
// ClaimEnded are conditional updates: they succeed for exactly one caller
// per boundary crossing, so overlapping ticks or a second scheduler
// instance cannot double-process an auction.
type Store interface {
	DueToStart(ctx context.Context, now time.Time) ([]*auction.Auction, error)
	MarkActive(ctx context.Context, id uuid.UUID) (bool, error)
	DueToEnd(ctx context.Context, now time.Time) ([]*auction.Auction, error)
	ClaimEnded(ctx context.Context, id uuid.UUID) (bool, error)

	// HighestBid returns the top bid for an auction, ties broken by
	// earliest timestamp; nil when no bids exist.
	HighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
	SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, amount values.Money) error
}

// AccountResolver checks winner validity against the identity collaborator
type AccountResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Settler finalizes a won auction into an order
type Settler interface {
	Settle(ctx context.Context, a *auction.Auction, winning *bid.Bid) (*order.Order, error)
}

// Notifier fans out lifecycle events; fire-and-forget
type Notifier interface {
	AuctionStarted(ctx context.Context, a *auction.Auction)
	AuctionWon(ctx context.Context, a *auction.Auction, winning *bid.Bid)
	AuctionEndedNoWinner(ctx context.Context, a *auction.Auction)
	OrderCreated(ctx context.Context, o *order.Order)
}

// MetricsCollector records lifecycle telemetry
type MetricsCollector interface {
	RecordAuctionStarted(ctx context.Context)
	RecordAuctionEnded(ctx context.Context, won bool)
	RecordSettlementFailure(ctx context.Context)
}

// Scheduler is the background process that moves auctions through
// upcoming -> active -> ended on a fixed polling interval.
type Scheduler struct {
	store    Store
	accounts AccountResolver
	settler  Settler
	notifier Notifier
	metrics  MetricsCollector
	logger   *slog.Logger

	interval time.Duration
	now      func() time.Time
}

// NewScheduler creates a lifecycle scheduler polling at the given interval
func NewScheduler(store Store, accounts AccountResolver, settler Settler, notifier Notifier, metrics MetricsCollector, logger *slog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scheduler{
		store:    store,
		accounts: accounts,
		settler:  settler,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run polls until the context is canceled. Each tick completes before the
// next begins; a slow tick delays but never stacks iterations, and the
// claim pattern makes an overlapping second instance harmless.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("lifecycle scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("lifecycle scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scan: start due auctions, then end expired ones. Exported
// so tests and reconciliation jobs can drive single iterations.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()

	if err := s.startDue(ctx, now); err != nil {
		s.logger.ErrorContext(ctx, "start transition scan failed", "error", err)
	}
	if err := s.endDue(ctx, now); err != nil {
		s.logger.ErrorContext(ctx, "end transition scan failed", "error", err)
	}
}

func (s *Scheduler) startDue(ctx context.Context, now time.Time) error {
	due, err := s.store.DueToStart(ctx, now)
	if err != nil {
		return err
	}

	for _, a := range due {
		ok, err := s.store.MarkActive(ctx, a.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to activate auction",
				"auction_id", a.ID, "error", err)
			continue
		}
		if !ok {
			// Another tick or instance already claimed it.
			continue
		}

		a.Status = auction.StatusActive
		s.notifier.AuctionStarted(ctx, a)
		if s.metrics != nil {
			s.metrics.RecordAuctionStarted(ctx)
		}
		s.logger.InfoContext(ctx, "auction live", "auction_id", a.ID)
	}

	return nil
}

func (s *Scheduler) endDue(ctx context.Context, now time.Time) error {
	due, err := s.store.DueToEnd(ctx, now)
	if err != nil {
		return err
	}

	for _, a := range due {
		s.endOne(ctx, a)
	}

	return nil
}

// endOne claims and settles a single expired auction. The claim is the
// serialization point: once it succeeds this goroutine is the only one
// processing the auction, and any in-flight bid commit either landed
// before the claim or fails its own status check.
func (s *Scheduler) endOne(ctx context.Context, a *auction.Auction) {
	claimed, err := s.store.ClaimEnded(ctx, a.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to claim ending auction",
			"auction_id", a.ID, "error", err)
		return
	}
	if !claimed {
		// Lost the claim, or a late bid extended the end time.
		return
	}

	a.Status = auction.StatusEnded

	winning, err := s.store.HighestBid(ctx, a.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load winning bid",
			"auction_id", a.ID, "error", err)
		return
	}

	if winning == nil || !a.MeetsReserve(winning.Amount) || !s.winnerValid(ctx, winning.UserID) {
		s.notifier.AuctionEndedNoWinner(ctx, a)
		if s.metrics != nil {
			s.metrics.RecordAuctionEnded(ctx, false)
		}
		s.logger.InfoContext(ctx, "auction ended with no winner", "auction_id", a.ID)
		return
	}

	if err := s.store.SetWinner(ctx, a.ID, winning.UserID, winning.Amount); err != nil {
		s.logger.ErrorContext(ctx, "failed to record winner",
			"auction_id", a.ID, "winner_id", winning.UserID, "error", err)
		return
	}
	winner := winning.UserID
	a.WinnerID = &winner
	a.CurrentPrice = winning.Amount

	o, err := s.settler.Settle(ctx, a, winning)
	if err != nil {
		// The auction stays ended with its winner recorded; the missing
		// order is a reconciliation case, never a silent loss.
		if s.metrics != nil {
			s.metrics.RecordSettlementFailure(ctx)
		}
		s.logger.ErrorContext(ctx, "settlement incomplete, order missing",
			"auction_id", a.ID, "winner_id", winning.UserID, "error", err)
	} else {
		s.notifier.OrderCreated(ctx, o)
	}

	s.notifier.AuctionWon(ctx, a, winning)
	if s.metrics != nil {
		s.metrics.RecordAuctionEnded(ctx, true)
	}
	s.logger.InfoContext(ctx, "auction settled",
		"auction_id", a.ID,
		"winner_id", winning.UserID,
		"amount", winning.Amount.String())
}

func (s *Scheduler) winnerValid(ctx context.Context, userID uuid.UUID) bool {
	acct, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "winner account lookup failed",
			"user_id", userID, "error", err)
		return false
	}
	return acct.CanTransact()
}
