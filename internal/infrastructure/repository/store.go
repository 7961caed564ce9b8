package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
	"github.com/marketbay/auction-exchange-backend/internal/service/settlement"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every repository can
// run standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the PostgreSQL-backed implementation of the service-layer
// store contracts: bidding.Store, settlement.Store and lifecycle.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates the store over a database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Auctions() bidding.AuctionRepository {
	return &auctionRepository{db: s.db}
}

func (s *Store) Bids() bidding.BidRepository {
	return &bidRepository{db: s.db}
}

func (s *Store) MaxBids() bidding.MaxBidRepository {
	return &maxBidRepository{db: s.db}
}

func (s *Store) Orders() settlement.OrderRepository {
	return &orderRepository{db: s.db}
}

func (s *Store) Listings() settlement.ListingRepository {
	return &auctionRepository{db: s.db}
}

// Accounts returns the identity read model
func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{db: s.db}
}

// InTransaction runs fn against repositories bound to one transaction.
// Any error rolls the whole unit back.
func (s *Store) InTransaction(ctx context.Context, fn func(bidding.TxStore) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

// InPurchase is the settlement-side transactional entry point
func (s *Store) InPurchase(ctx context.Context, fn func(settlement.TxStore) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lifecycle.Store delegation

func (s *Store) DueToStart(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	return (&auctionRepository{db: s.db}).DueToStart(ctx, now)
}

func (s *Store) MarkActive(ctx context.Context, id uuid.UUID) (bool, error) {
	return (&auctionRepository{db: s.db}).MarkActive(ctx, id)
}

func (s *Store) DueToEnd(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	return (&auctionRepository{db: s.db}).DueToEnd(ctx, now)
}

func (s *Store) ClaimEnded(ctx context.Context, id uuid.UUID) (bool, error) {
	return (&auctionRepository{db: s.db}).ClaimEnded(ctx, id)
}

func (s *Store) HighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return (&bidRepository{db: s.db}).HighestForAuction(ctx, auctionID)
}

func (s *Store) SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, amount values.Money) error {
	return (&auctionRepository{db: s.db}).SetWinner(ctx, auctionID, winnerID, amount)
}

// txStore exposes transaction-bound repositories
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Auctions() bidding.AuctionRepository {
	return &auctionRepository{db: t.tx}
}

func (t *txStore) Bids() bidding.BidRepository {
	return &bidRepository{db: t.tx}
}

func (t *txStore) MaxBids() bidding.MaxBidRepository {
	return &maxBidRepository{db: t.tx}
}

func (t *txStore) Listings() settlement.ListingRepository {
	return &auctionRepository{db: t.tx}
}

func (t *txStore) Orders() settlement.OrderRepository {
	return &orderRepository{db: t.tx}
}
