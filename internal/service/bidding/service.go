package bidding

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// service implements the Service interface
type service struct {
	store    Store
	notifier Notifier
	settings SettingsProvider
	metrics  MetricsCollector
	logger   *slog.Logger

	locks *auctionLocks
	now   func() time.Time
}

// NewService creates the bid coordinator
func NewService(store Store, notifier Notifier, settings SettingsProvider, metrics MetricsCollector, logger *slog.Logger) Service {
	return &service{
		store:    store,
		notifier: notifier,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
		locks:    newAuctionLocks(),
		now:      time.Now,
	}
}

// PlaceBid applies a manual bid. The read-compute-write sequence runs as
// one atomic unit per auction: an in-process lock serializes local
// callers, the store transaction plus version CAS guards against any
// other writer. A lost race is retried once against fresh state.
func (s *service) PlaceBid(ctx context.Context, auctionID, bidder uuid.UUID, amount values.Money) (*PlaceBidResult, error) {
	unlock := s.locks.lock(auctionID)
	defer unlock()

	settings := s.settings.Snapshot(ctx)

	result, updated, err := s.placeBidOnce(ctx, auctionID, bidder, amount, settings)
	if stderrors.Is(err, errors.ErrStaleAuction) {
		s.logger.InfoContext(ctx, "bid lost version race, retrying",
			"auction_id", auctionID, "bidder_id", bidder)
		result, updated, err = s.placeBidOnce(ctx, auctionID, bidder, amount, settings)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordBidRejected(ctx, rejectionReason(err))
		}
		return nil, err
	}

	// Commit first, then emit. Notification failures never roll back the
	// accepted bid.
	s.notifier.BidAccepted(ctx, updated, result.Bid)
	if result.Extended {
		s.notifier.AuctionExtended(ctx, updated)
		if s.metrics != nil {
			s.metrics.RecordAuctionExtended(ctx)
		}
	}
	if s.metrics != nil {
		s.metrics.RecordBidAccepted(ctx)
	}

	s.logger.InfoContext(ctx, "bid accepted",
		"auction_id", auctionID,
		"leader_id", result.Bid.UserID,
		"price", result.CurrentPrice.String(),
		"extended", result.Extended)

	return result, nil
}

func (s *service) placeBidOnce(ctx context.Context, auctionID, bidder uuid.UUID, amount values.Money, settings Settings) (*PlaceBidResult, *auction.Auction, error) {
	var (
		result  *PlaceBidResult
		updated *auction.Auction
	)

	err := s.store.InTransaction(ctx, func(tx TxStore) error {
		a, err := tx.Auctions().GetByID(ctx, auctionID)
		if err != nil {
			return err
		}

		if !a.IsBiddable() {
			return errors.ErrAuctionNotActive
		}

		if !amount.GreaterThan(a.CurrentPrice) {
			return errors.ErrBidTooLow
		}
		if settings.BidIncrement.IsPositive() {
			minAcceptable := a.CurrentPrice.MustAdd(settings.BidIncrement)
			if amount.LessThan(minAcceptable) {
				return errors.ErrBidTooLow.WithDetails(map[string]interface{}{
					"minimum": minAcceptable.String(),
				})
			}
		}

		proxies, err := tx.MaxBids().ListByAuction(ctx, auctionID)
		if err != nil {
			return err
		}

		res := Resolve(a.CurrentPrice, settings.BidIncrement, proxies, bidder, amount)

		// Anti-sniping checks against the pre-extension end time.
		extended := false
		newEnd := a.EndTime
		if settings.AntiSnipingEnabled {
			window := a.SoftCloseWindow(settings.SoftClose)
			if window > 0 && a.WithinSoftClose(s.now(), window) {
				newEnd = a.EndTime.Add(window)
				extended = true
			}
		}

		if err := tx.Auctions().UpdatePriceAndEndTime(ctx, a.ID, res.Price, newEnd, a.Version); err != nil {
			return err
		}

		// The manual bid becomes the bidder's standing ceiling so later
		// bids by others still have to beat it.
		ceiling := bidderCeiling(proxies, bidder, amount)
		if err := tx.MaxBids().Upsert(ctx, bid.NewMaxBid(auctionID, bidder, ceiling)); err != nil {
			return err
		}

		newBid := bid.New(auctionID, res.Leader, res.Price)
		if err := tx.Bids().Append(ctx, newBid); err != nil {
			return err
		}

		a.CurrentPrice = res.Price
		a.EndTime = newEnd
		a.Version++
		updated = a

		result = &PlaceBidResult{
			Bid:          newBid,
			CurrentPrice: res.Price,
			EndTime:      newEnd,
			Extended:     extended,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return result, updated, nil
}

// SetMaxBid upserts the caller's proxy ceiling. It deliberately does not
// recompute the current price: standing bids are only re-fought when the
// next bid event arrives.
func (s *service) SetMaxBid(ctx context.Context, auctionID, userID uuid.UUID, maxAmount values.Money) error {
	unlock := s.locks.lock(auctionID)
	defer unlock()

	err := s.store.InTransaction(ctx, func(tx TxStore) error {
		a, err := tx.Auctions().GetByID(ctx, auctionID)
		if err != nil {
			return err
		}

		if !a.IsBiddable() {
			return errors.ErrAuctionNotActive
		}
		if !maxAmount.GreaterThan(a.CurrentPrice) {
			return errors.ErrMaxBidTooLow
		}

		return tx.MaxBids().Upsert(ctx, bid.NewMaxBid(auctionID, userID, maxAmount))
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "max bid set",
		"auction_id", auctionID, "user_id", userID)
	return nil
}

// ListBids returns the public bid history in chronological order
func (s *service) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	if _, err := s.store.Auctions().GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.Bids().ListByAuction(ctx, auctionID)
}

// bidderCeiling resolves the ceiling to persist for a manual bid: the
// larger of the stored proxy and the manual amount.
func bidderCeiling(proxies []*bid.MaxBid, bidder uuid.UUID, amount values.Money) values.Money {
	ceiling := amount
	for _, p := range proxies {
		if p.UserID == bidder && p.MaxAmount.GreaterThan(ceiling) {
			ceiling = p.MaxAmount
		}
	}
	return ceiling
}

func rejectionReason(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "internal"
}
