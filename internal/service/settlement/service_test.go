package settlement_test

import (
	"context"
	goerrors "errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
	"github.com/marketbay/auction-exchange-backend/internal/service/settlement"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/fixtures"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/memstore"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/mocks"
)

func newTestService(store *memstore.Store, notifier *mocks.NotifierRecorder) *settlement.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return settlement.NewService(store, store, notifier, nil, logger)
}

func shipping() order.ShippingDetails {
	return order.ShippingDetails{
		RecipientName: "Jordan Blake",
		AddressLine1:  "12 Harbour Way",
		City:          "Portsmouth",
		PostalCode:    "PO1 2AB",
		Country:       "GB",
	}
}

func TestBuyNow_CreatesOrderAndDecrementsStock(t *testing.T) {
	store := memstore.New()
	notifier := mocks.NewNotifierRecorder()
	svc := newTestService(store, notifier)

	buyer := fixtures.NewAccount()
	store.PutAccount(buyer)

	listing := fixtures.NewAuctionBuilder().WithPrice("250").AsDirectSale(3).Build()
	store.PutAuction(listing)

	o, err := svc.BuyNow(context.Background(), listing.ID, buyer.ID, shipping())
	require.NoError(t, err)

	assert.Equal(t, buyer.ID, o.BuyerID)
	assert.Equal(t, listing.SellerID, o.SellerID)
	assert.True(t, o.Amount.Equal(fixtures.Money("250")))
	assert.Equal(t, order.StatusPendingPayment, o.Status)

	stored := store.Auction(listing.ID)
	assert.Equal(t, 2, stored.Quantity)
	assert.Equal(t, auction.StatusActive, stored.Status)
	assert.Equal(t, 1, notifier.OrderCount())
}

func TestBuyNow_LastUnitFlipsListingToBought(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	buyer := fixtures.NewAccount()
	store.PutAccount(buyer)

	listing := fixtures.NewAuctionBuilder().AsDirectSale(1).Build()
	store.PutAuction(listing)

	_, err := svc.BuyNow(context.Background(), listing.ID, buyer.ID, shipping())
	require.NoError(t, err)

	stored := store.Auction(listing.ID)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, auction.StatusBought, stored.Status)
}

func TestBuyNow_SameBuyerCanPurchaseAgain(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	buyer := fixtures.NewAccount()
	store.PutAccount(buyer)

	listing := fixtures.NewAuctionBuilder().AsDirectSale(3).Build()
	store.PutAuction(listing)

	first, err := svc.BuyNow(context.Background(), listing.ID, buyer.ID, shipping())
	require.NoError(t, err)

	second, err := svc.BuyNow(context.Background(), listing.ID, buyer.ID, shipping())
	require.NoError(t, err, "a repeat purchase is a distinct event, not a conflict")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, order.SourceBuyNow, second.Source)

	assert.Len(t, store.AllOrders(), 2)
	assert.Equal(t, 1, store.Auction(listing.ID).Quantity)
}

func TestBuyNow_OversellPrevention(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	buyerA := fixtures.NewAccount()
	buyerB := fixtures.NewAccount()
	store.PutAccount(buyerA)
	store.PutAccount(buyerB)

	listing := fixtures.NewAuctionBuilder().AsDirectSale(1).Build()
	store.PutAuction(listing)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, buyer := range []uuid.UUID{buyerA.ID, buyerB.ID} {
		wg.Add(1)
		go func(idx int, buyerID uuid.UUID) {
			defer wg.Done()
			_, results[idx] = svc.BuyNow(context.Background(), listing.ID, buyerID, shipping())
		}(i, buyer)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case goerrors.Is(err, errors.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one buyer gets the last unit")
	assert.Equal(t, 1, outOfStock, "the loser sees out of stock")
	assert.Len(t, store.AllOrders(), 1)
}

func TestBuyNow_SuspendedBuyerRejected(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	buyer := fixtures.NewSuspendedAccount()
	store.PutAccount(buyer)

	listing := fixtures.NewAuctionBuilder().AsDirectSale(1).Build()
	store.PutAuction(listing)

	_, err := svc.BuyNow(context.Background(), listing.ID, buyer.ID, shipping())
	assert.ErrorIs(t, err, errors.ErrAccountSuspended)
	assert.Equal(t, 1, store.Auction(listing.ID).Quantity)
}

func TestBuyNow_CompetitiveAuctionRejected(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	buyer := fixtures.NewAccount()
	store.PutAccount(buyer)

	a := fixtures.NewAuctionBuilder().Build()
	store.PutAuction(a)

	_, err := svc.BuyNow(context.Background(), a.ID, buyer.ID, shipping())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSettle_CreatesOrderForWinner(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	winner := uuid.New()
	a := fixtures.NewAuctionBuilder().WithStatus(auction.StatusEnded).Build()
	store.PutAuction(a)

	winning := bid.New(a.ID, winner, fixtures.Money("750"))
	o, err := svc.Settle(context.Background(), a, winning)
	require.NoError(t, err)

	assert.Equal(t, winner, o.BuyerID)
	assert.True(t, o.Amount.Equal(fixtures.Money("750")))
	assert.Equal(t, order.SourceAuctionWin, o.Source)
	assert.Len(t, store.AllOrders(), 1)
}

func TestSettle_DuplicateSettlementSurfacesIncomplete(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	winner := uuid.New()
	a := fixtures.NewAuctionBuilder().WithStatus(auction.StatusEnded).Build()
	store.PutAuction(a)

	winning := bid.New(a.ID, winner, fixtures.Money("750"))
	_, err := svc.Settle(context.Background(), a, winning)
	require.NoError(t, err)

	_, err = svc.Settle(context.Background(), a, winning)
	assert.ErrorIs(t, err, errors.ErrSettlementIncomplete)
	assert.Len(t, store.AllOrders(), 1)
}

func TestOrdersForBuyer_ReturnsOnlyOwnOrders(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder())

	buyerA := fixtures.NewAccount()
	buyerB := fixtures.NewAccount()
	store.PutAccount(buyerA)
	store.PutAccount(buyerB)

	for _, buyer := range []uuid.UUID{buyerA.ID, buyerB.ID} {
		listing := fixtures.NewAuctionBuilder().AsDirectSale(1).Build()
		store.PutAuction(listing)
		_, err := svc.BuyNow(context.Background(), listing.ID, buyer, shipping())
		require.NoError(t, err)
	}

	orders, err := svc.OrdersForBuyer(context.Background(), buyerA.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, buyerA.ID, orders[0].BuyerID)
}
