// Package memstore provides an in-memory store for service-level tests.
// It mirrors the conditional-update semantics of the PostgreSQL
// repositories: version compare-and-set on price updates, claim-once
// status transitions, and atomic quantity decrements.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
	"github.com/marketbay/auction-exchange-backend/internal/service/settlement"
)

// Store implements bidding.Store, settlement.Store and lifecycle.Store in
// memory. A single mutex serializes transactions, which matches the
// row-lock behavior the services rely on.
type Store struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]*auction.Auction
	bids     map[uuid.UUID][]*bid.Bid
	maxBids  map[uuid.UUID]map[uuid.UUID]*bid.MaxBid
	orders   []*order.Order
	accounts map[uuid.UUID]*account.Account
}

// New creates an empty store
func New() *Store {
	return &Store{
		auctions: make(map[uuid.UUID]*auction.Auction),
		bids:     make(map[uuid.UUID][]*bid.Bid),
		maxBids:  make(map[uuid.UUID]map[uuid.UUID]*bid.MaxBid),
		accounts: make(map[uuid.UUID]*account.Account),
	}
}

// PutAccount seeds an account
func (s *Store) PutAccount(a *account.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

// PutAuction seeds an auction, overwriting any existing copy
func (s *Store) PutAuction(a *auction.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.ID] = cloneAuction(a)
}

// Auction returns a snapshot of the stored auction
func (s *Store) Auction(id uuid.UUID) *auction.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.auctions[id]; ok {
		return cloneAuction(a)
	}
	return nil
}

// AllOrders returns all stored orders
func (s *Store) AllOrders() []*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*order.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// BidHistory returns the stored ledger for an auction
func (s *Store) BidHistory(auctionID uuid.UUID) []*bid.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bid.Bid, len(s.bids[auctionID]))
	copy(out, s.bids[auctionID])
	return out
}

// bidding.Store

func (s *Store) Auctions() bidding.AuctionRepository { return &auctionRepo{s: s, locked: false} }
func (s *Store) Bids() bidding.BidRepository         { return &bidRepo{s: s, locked: false} }
func (s *Store) MaxBids() bidding.MaxBidRepository   { return &maxBidRepo{s: s, locked: false} }

func (s *Store) InTransaction(ctx context.Context, fn func(bidding.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txView{s: s})
}

// settlement.Store

func (s *Store) Listings() settlement.ListingRepository { return &auctionRepo{s: s, locked: false} }
func (s *Store) Orders() settlement.OrderRepository     { return &orderRepo{s: s, locked: false} }

func (s *Store) InPurchase(ctx context.Context, fn func(settlement.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txView{s: s})
}

// txView exposes repositories that assume the store mutex is already held
type txView struct {
	s *Store
}

func (t *txView) Auctions() bidding.AuctionRepository    { return &auctionRepo{s: t.s, locked: true} }
func (t *txView) Bids() bidding.BidRepository            { return &bidRepo{s: t.s, locked: true} }
func (t *txView) MaxBids() bidding.MaxBidRepository      { return &maxBidRepo{s: t.s, locked: true} }
func (t *txView) Listings() settlement.ListingRepository { return &auctionRepo{s: t.s, locked: true} }
func (t *txView) Orders() settlement.OrderRepository     { return &orderRepo{s: t.s, locked: true} }

type auctionRepo struct {
	s      *Store
	locked bool
}

func (r *auctionRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *auctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	defer r.lock()()
	a, ok := r.s.auctions[id]
	if !ok {
		return nil, errors.ErrAuctionNotFound
	}
	return cloneAuction(a), nil
}

func (r *auctionRepo) Create(ctx context.Context, a *auction.Auction) error {
	defer r.lock()()
	r.s.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (r *auctionRepo) UpdatePriceAndEndTime(ctx context.Context, id uuid.UUID, price values.Money, endTime time.Time, expectedVersion int) error {
	defer r.lock()()
	a, ok := r.s.auctions[id]
	if !ok {
		return errors.ErrAuctionNotFound
	}
	if a.Status != auction.StatusActive || a.Version != expectedVersion {
		return errors.ErrStaleAuction
	}
	a.CurrentPrice = price
	a.EndTime = endTime
	a.Version++
	a.UpdatedAt = time.Now()
	return nil
}

func (r *auctionRepo) DecrementQuantity(ctx context.Context, id uuid.UUID) (int, error) {
	defer r.lock()()
	a, ok := r.s.auctions[id]
	if !ok {
		return 0, errors.ErrOutOfStock
	}
	if a.Status != auction.StatusActive || a.Quantity <= 0 {
		return 0, errors.ErrOutOfStock
	}
	a.Quantity--
	if a.Quantity == 0 {
		a.Status = auction.StatusBought
	}
	a.Version++
	return a.Quantity, nil
}

type bidRepo struct {
	s      *Store
	locked bool
}

func (r *bidRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *bidRepo) Append(ctx context.Context, b *bid.Bid) error {
	defer r.lock()()
	copied := *b
	r.s.bids[b.AuctionID] = append(r.s.bids[b.AuctionID], &copied)
	return nil
}

func (r *bidRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	defer r.lock()()
	stored := r.s.bids[auctionID]
	out := make([]*bid.Bid, 0, len(stored))
	for _, b := range stored {
		copied := *b
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type maxBidRepo struct {
	s      *Store
	locked bool
}

func (r *maxBidRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *maxBidRepo) Upsert(ctx context.Context, m *bid.MaxBid) error {
	defer r.lock()()
	byUser, ok := r.s.maxBids[m.AuctionID]
	if !ok {
		byUser = make(map[uuid.UUID]*bid.MaxBid)
		r.s.maxBids[m.AuctionID] = byUser
	}
	copied := *m
	byUser[m.UserID] = &copied
	return nil
}

func (r *maxBidRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.MaxBid, error) {
	defer r.lock()()
	byUser := r.s.maxBids[auctionID]
	out := make([]*bid.MaxBid, 0, len(byUser))
	for _, m := range byUser {
		copied := *m
		out = append(out, &copied)
	}
	// Deterministic order for resolution tests.
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].UserID.String(), out[j].UserID.String()) < 0
	})
	return out, nil
}

type orderRepo struct {
	s      *Store
	locked bool
}

func (r *orderRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	defer r.lock()()
	// Auction wins settle at most once; buy-now orders are one per
	// purchase event, repeat buyers included.
	if o.Source == order.SourceAuctionWin {
		for _, existing := range r.s.orders {
			if existing.AuctionID == o.AuctionID &&
				existing.Source == order.SourceAuctionWin &&
				existing.Status != order.StatusCanceled {
				return errors.NewConflictError("ORDER_EXISTS", "order already settled for this auction")
			}
		}
	}
	copied := *o
	r.s.orders = append(r.s.orders, &copied)
	return nil
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*order.Order, error) {
	defer r.lock()()
	var out []*order.Order
	for _, o := range r.s.orders {
		if o.BuyerID == buyerID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

// lifecycle.Store

func (s *Store) DueToStart(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*auction.Auction
	for _, a := range s.auctions {
		if a.Status == auction.StatusUpcoming && !a.StartTime.After(now) {
			due = append(due, cloneAuction(a))
		}
	}
	return due, nil
}

func (s *Store) MarkActive(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok || a.Status != auction.StatusUpcoming {
		return false, nil
	}
	a.Status = auction.StatusActive
	a.Version++
	return true, nil
}

func (s *Store) DueToEnd(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*auction.Auction
	for _, a := range s.auctions {
		if a.Status == auction.StatusActive && a.Category == auction.CategoryCompetitive && !a.EndTime.After(now) {
			due = append(due, cloneAuction(a))
		}
	}
	return due, nil
}

func (s *Store) ClaimEnded(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok || a.Status != auction.StatusActive || a.EndTime.After(time.Now()) {
		return false, nil
	}
	a.Status = auction.StatusEnded
	a.Version++
	return true, nil
}

func (s *Store) HighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var top *bid.Bid
	for _, b := range s.bids[auctionID] {
		if top == nil {
			top = b
			continue
		}
		cmp := b.Amount.Compare(top.Amount)
		if cmp > 0 || (cmp == 0 && b.CreatedAt.Before(top.CreatedAt)) {
			top = b
		}
	}
	if top == nil {
		return nil, nil
	}
	copied := *top
	return &copied, nil
}

func (s *Store) SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, amount values.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[auctionID]
	if !ok {
		return errors.ErrAuctionNotFound
	}
	if a.Status != auction.StatusEnded {
		return errors.ErrStaleAuction
	}
	winner := winnerID
	a.WinnerID = &winner
	a.CurrentPrice = amount
	a.Version++
	return nil
}

// Accounts satisfies the AccountResolver interfaces

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func cloneAuction(a *auction.Auction) *auction.Auction {
	copied := *a
	if a.BuyNowPrice != nil {
		m := *a.BuyNowPrice
		copied.BuyNowPrice = &m
	}
	if a.ReservePrice != nil {
		m := *a.ReservePrice
		copied.ReservePrice = &m
	}
	if a.WinnerID != nil {
		id := *a.WinnerID
		copied.WinnerID = &id
	}
	return &copied
}
