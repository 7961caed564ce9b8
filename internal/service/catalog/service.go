package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
)

// AccountResolver checks seller validity
type AccountResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// CreateAuctionInput carries the seller's listing request
type CreateAuctionInput struct {
	SellerID      uuid.UUID
	Title         string
	StartingPrice values.Money
	ReservePrice  *values.Money
	BuyNowPrice   *values.Money
	StartTime     time.Time
	EndTime       time.Time

	// SoftCloseSeconds overrides the platform anti-sniping window; zero
	// keeps the default.
	SoftCloseSeconds int
}

// CreateDirectSaleInput carries a fixed-price listing request
type CreateDirectSaleInput struct {
	SellerID uuid.UUID
	Title    string
	Price    values.Money
	Quantity int
}

// Service creates and reads auction listings
type Service struct {
	auctions bidding.AuctionRepository
	accounts AccountResolver
	settings bidding.SettingsProvider
	logger   *slog.Logger
}

// NewService creates the catalog service
func NewService(auctions bidding.AuctionRepository, accounts AccountResolver, settings bidding.SettingsProvider, logger *slog.Logger) *Service {
	return &Service{
		auctions: auctions,
		accounts: accounts,
		settings: settings,
		logger:   logger,
	}
}

// CreateAuction registers a competitive listing. Duration is capped by the
// platform maximum from the live settings snapshot when one is configured.
func (s *Service) CreateAuction(ctx context.Context, in CreateAuctionInput) (*auction.Auction, error) {
	if err := s.checkSeller(ctx, in.SellerID); err != nil {
		return nil, err
	}

	settings := s.settings.Snapshot(ctx)
	if settings.MaxAuctionDuration > 0 && in.EndTime.Sub(in.StartTime) > settings.MaxAuctionDuration {
		return nil, errors.NewValidationError("DURATION_TOO_LONG",
			"auction duration exceeds the platform maximum")
	}

	a, err := auction.New(in.SellerID, in.Title, in.StartingPrice, in.StartTime, in.EndTime)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_AUCTION", err.Error())
	}
	a.ReservePrice = in.ReservePrice
	a.BuyNowPrice = in.BuyNowPrice
	a.SoftCloseSeconds = in.SoftCloseSeconds

	if in.ReservePrice != nil && in.ReservePrice.LessThan(in.StartingPrice) {
		return nil, errors.NewValidationError("RESERVE_BELOW_START",
			"reserve price must not be below the starting price")
	}

	if err := s.auctions.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "creating auction")
	}

	s.logger.InfoContext(ctx, "auction created",
		"auction_id", a.ID, "seller_id", in.SellerID, "status", a.Status.String())

	return a, nil
}

// CreateDirectSale registers a fixed-price listing
func (s *Service) CreateDirectSale(ctx context.Context, in CreateDirectSaleInput) (*auction.Auction, error) {
	if err := s.checkSeller(ctx, in.SellerID); err != nil {
		return nil, err
	}

	a, err := auction.NewDirectSale(in.SellerID, in.Title, in.Price, in.Quantity)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_LISTING", err.Error())
	}

	if err := s.auctions.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "creating listing")
	}

	s.logger.InfoContext(ctx, "direct-sale listing created",
		"listing_id", a.ID, "seller_id", in.SellerID, "quantity", in.Quantity)

	return a, nil
}

// Get returns one listing by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	return s.auctions.GetByID(ctx, id)
}

func (s *Service) checkSeller(ctx context.Context, sellerID uuid.UUID) error {
	seller, err := s.accounts.GetByID(ctx, sellerID)
	if err != nil {
		return errors.ErrAccountNotFound.WithCause(err)
	}
	if !seller.CanTransact() {
		return errors.ErrAccountSuspended
	}
	if seller.Role == account.RoleBuyer {
		return errors.NewForbiddenError("only sellers may create listings")
	}
	return nil
}
