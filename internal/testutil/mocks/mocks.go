// Package mocks provides test doubles for service collaborators.
package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
)

// MockAccountResolver mocks account lookups
type MockAccountResolver struct {
	mock.Mock
}

func (m *MockAccountResolver) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

// MockSettler mocks the settlement step of the lifecycle scheduler
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, a *auction.Auction, winning *bid.Bid) (*order.Order, error) {
	args := m.Called(ctx, a, winning)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

// NotifierRecorder is a thread-safe notifier fake that records every
// event it receives. It satisfies the notifier interfaces of all three
// services.
type NotifierRecorder struct {
	mu sync.Mutex

	BidsAccepted  []*bid.Bid
	Extensions    []uuid.UUID
	Started       []uuid.UUID
	Won           []uuid.UUID
	EndedNoWinner []uuid.UUID
	OrdersCreated []*order.Order
}

func NewNotifierRecorder() *NotifierRecorder {
	return &NotifierRecorder{}
}

func (n *NotifierRecorder) BidAccepted(_ context.Context, a *auction.Auction, b *bid.Bid) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.BidsAccepted = append(n.BidsAccepted, b)
}

func (n *NotifierRecorder) AuctionExtended(_ context.Context, a *auction.Auction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Extensions = append(n.Extensions, a.ID)
}

func (n *NotifierRecorder) AuctionStarted(_ context.Context, a *auction.Auction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Started = append(n.Started, a.ID)
}

func (n *NotifierRecorder) AuctionWon(_ context.Context, a *auction.Auction, winning *bid.Bid) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Won = append(n.Won, a.ID)
}

func (n *NotifierRecorder) AuctionEndedNoWinner(_ context.Context, a *auction.Auction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.EndedNoWinner = append(n.EndedNoWinner, a.ID)
}

func (n *NotifierRecorder) OrderCreated(_ context.Context, o *order.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.OrdersCreated = append(n.OrdersCreated, o)
}

// Snapshot helpers keep test assertions race-free.

func (n *NotifierRecorder) WonCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Won)
}

func (n *NotifierRecorder) OrderCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.OrdersCreated)
}

func (n *NotifierRecorder) ExtensionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Extensions)
}
