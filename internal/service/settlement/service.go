package settlement

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
)

// ListingRepository is the slice of the auction store the purchase path
// needs. DecrementQuantity must atomically check quantity > 0 and
// decrement, flipping the listing to bought when stock runs out, and
// report errors.ErrOutOfStock once exhausted.
type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	DecrementQuantity(ctx context.Context, id uuid.UUID) (remaining int, err error)
}

// OrderRepository persists settlement outcomes
type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*order.Order, error)
}

// TxStore bundles the repositories bound to one purchase transaction
type TxStore interface {
	Listings() ListingRepository
	Orders() OrderRepository
}

// Store provides transactional access for the buy-now path
type Store interface {
	TxStore
	InPurchase(ctx context.Context, fn func(TxStore) error) error
}

// AccountResolver checks buyer validity
type AccountResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Notifier fans out purchase events; fire-and-forget
type Notifier interface {
	OrderCreated(ctx context.Context, o *order.Order)
}

// MetricsCollector records settlement telemetry
type MetricsCollector interface {
	RecordOrderCreated(ctx context.Context)
	RecordBuyNowConflict(ctx context.Context)
}

// Service creates orders: once per won auction, once per buy-now purchase
type Service struct {
	store    Store
	accounts AccountResolver
	notifier Notifier
	metrics  MetricsCollector
	logger   *slog.Logger
}

// NewService creates the settlement handler
func NewService(store Store, accounts AccountResolver, notifier Notifier, metrics MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		accounts: accounts,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Settle creates the order for a won auction. The caller (the lifecycle
// scheduler's claim step) guarantees at-most-once invocation per auction.
// A storage failure here leaves the auction ended with a winner but no
// order; that inconsistency is surfaced as a retryable error, never
// swallowed.
func (s *Service) Settle(ctx context.Context, a *auction.Auction, winning *bid.Bid) (*order.Order, error) {
	o := order.New(a.ID, winning.UserID, a.SellerID, winning.Amount, order.SourceAuctionWin, order.ShippingDetails{})

	if err := s.store.Orders().Create(ctx, o); err != nil {
		return nil, errors.ErrSettlementIncomplete.WithCause(err).WithDetails(map[string]interface{}{
			"auction_id": a.ID.String(),
			"winner_id":  winning.UserID.String(),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx)
	}
	s.logger.InfoContext(ctx, "order created for won auction",
		"auction_id", a.ID, "order_id", o.ID, "buyer_id", winning.UserID)

	return o, nil
}

// BuyNow purchases one unit of a direct-sale listing. The quantity check
// and decrement are a single conditional update inside the purchase
// transaction, so two concurrent buyers of the last unit produce exactly
// one order and one ErrOutOfStock.
func (s *Service) BuyNow(ctx context.Context, listingID, buyerID uuid.UUID, shipping order.ShippingDetails) (*order.Order, error) {
	buyer, err := s.accounts.GetByID(ctx, buyerID)
	if err != nil {
		return nil, errors.ErrAccountNotFound.WithCause(err)
	}
	if !buyer.CanTransact() {
		return nil, errors.ErrAccountSuspended
	}

	var o *order.Order

	err = s.store.InPurchase(ctx, func(tx TxStore) error {
		listing, err := tx.Listings().GetByID(ctx, listingID)
		if err != nil {
			return err
		}

		if listing.Category != auction.CategoryDirectSale {
			return errors.NewValidationError("NOT_DIRECT_SALE", "listing is not a fixed-price item")
		}
		if listing.Status != auction.StatusActive {
			return errors.ErrOutOfStock
		}

		if _, err := tx.Listings().DecrementQuantity(ctx, listingID); err != nil {
			return err
		}

		price := listing.CurrentPrice
		if listing.BuyNowPrice != nil {
			price = *listing.BuyNowPrice
		}

		o = order.New(listingID, buyerID, listing.SellerID, price, order.SourceBuyNow, shipping)
		return tx.Orders().Create(ctx, o)
	})
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeBusiness) && s.metrics != nil {
			s.metrics.RecordBuyNowConflict(ctx)
		}
		return nil, err
	}

	s.notifier.OrderCreated(ctx, o)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx)
	}
	s.logger.InfoContext(ctx, "buy-now order created",
		"listing_id", listingID, "order_id", o.ID, "buyer_id", buyerID)

	return o, nil
}

// OrdersForBuyer lists a buyer's orders
func (s *Service) OrdersForBuyer(ctx context.Context, buyerID uuid.UUID) ([]*order.Order, error) {
	return s.store.Orders().ListByBuyer(ctx, buyerID)
}
