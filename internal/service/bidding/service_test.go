package bidding_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/fixtures"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/memstore"
	"github.com/marketbay/auction-exchange-backend/internal/testutil/mocks"
)

type staticSettings struct {
	settings bidding.Settings
}

func (s staticSettings) Snapshot(ctx context.Context) bidding.Settings {
	return s.settings
}

func testSettings() bidding.Settings {
	return bidding.Settings{
		BidIncrement:       fixtures.Money("50"),
		AntiSnipingEnabled: true,
		SoftClose:          2 * time.Minute,
		MaxAuctionDuration: 30 * 24 * time.Hour,
	}
}

func newTestService(store *memstore.Store, notifier *mocks.NotifierRecorder, settings bidding.Settings) bidding.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return bidding.NewService(store, notifier, staticSettings{settings}, nil, logger)
}

func TestPlaceBid_AcceptsAndRecords(t *testing.T) {
	store := memstore.New()
	notifier := mocks.NewNotifierRecorder()
	svc := newTestService(store, notifier, testSettings())

	a := fixtures.NewAuctionBuilder().WithPrice("500").Build()
	store.PutAuction(a)
	bidder := uuid.New()

	result, err := svc.PlaceBid(context.Background(), a.ID, bidder, fixtures.Money("600"))
	require.NoError(t, err)

	assert.Equal(t, bidder, result.Bid.UserID)
	assert.True(t, result.CurrentPrice.Equal(fixtures.Money("600")))
	assert.False(t, result.Extended)

	stored := store.Auction(a.ID)
	assert.True(t, stored.CurrentPrice.Equal(fixtures.Money("600")))
	assert.Len(t, notifier.BidsAccepted, 1)
	assert.Len(t, store.BidHistory(a.ID), 1)
}

func TestPlaceBid_ProxyHolderStaysInFront(t *testing.T) {
	store := memstore.New()
	notifier := mocks.NewNotifierRecorder()
	svc := newTestService(store, notifier, testSettings())

	a := fixtures.NewAuctionBuilder().WithPrice("500").Build()
	store.PutAuction(a)

	userA := uuid.New()
	userB := uuid.New()

	require.NoError(t, svc.SetMaxBid(context.Background(), a.ID, userA, fixtures.Money("1000")))
	require.NoError(t, svc.SetMaxBid(context.Background(), a.ID, userB, fixtures.Money("1500")))

	result, err := svc.PlaceBid(context.Background(), a.ID, userA, fixtures.Money("600"))
	require.NoError(t, err)

	assert.Equal(t, userB, result.Bid.UserID, "proxy holder with higher ceiling must lead")
	assert.True(t, result.CurrentPrice.Equal(fixtures.Money("1050")), "price = %s", result.CurrentPrice)
}

func TestPlaceBid_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		status  auction.Status
		amount  string
		wantErr error
	}{
		{"bid at current price", auction.StatusActive, "500", errors.ErrBidTooLow},
		{"bid below increment", auction.StatusActive, "520", errors.ErrBidTooLow},
		{"auction upcoming", auction.StatusUpcoming, "600", errors.ErrAuctionNotActive},
		{"auction ended", auction.StatusEnded, "600", errors.ErrAuctionNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

			a := fixtures.NewAuctionBuilder().WithPrice("500").WithStatus(tt.status).Build()
			store.PutAuction(a)

			_, err := svc.PlaceBid(context.Background(), a.ID, uuid.New(), fixtures.Money(tt.amount))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceBid_UnknownAuction(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

	_, err := svc.PlaceBid(context.Background(), uuid.New(), uuid.New(), fixtures.Money("600"))
	assert.ErrorIs(t, err, errors.ErrAuctionNotFound)
}

func TestPlaceBid_AntiSnipingExtendsEndTime(t *testing.T) {
	store := memstore.New()
	notifier := mocks.NewNotifierRecorder()
	svc := newTestService(store, notifier, testSettings())

	end := time.Now().Add(90 * time.Second)
	a := fixtures.NewAuctionBuilder().WithPrice("500").WithEndTime(end).Build()
	store.PutAuction(a)

	result, err := svc.PlaceBid(context.Background(), a.ID, uuid.New(), fixtures.Money("600"))
	require.NoError(t, err)

	assert.True(t, result.Extended)
	assert.Equal(t, end.Add(2*time.Minute).Unix(), result.EndTime.Unix(),
		"extension is old end plus soft close window")
	assert.Equal(t, 1, notifier.ExtensionCount())
}

func TestPlaceBid_NoExtensionOutsideWindow(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

	end := time.Now().Add(time.Hour)
	a := fixtures.NewAuctionBuilder().WithPrice("500").WithEndTime(end).Build()
	store.PutAuction(a)

	result, err := svc.PlaceBid(context.Background(), a.ID, uuid.New(), fixtures.Money("600"))
	require.NoError(t, err)

	assert.False(t, result.Extended)
	assert.Equal(t, end.Unix(), result.EndTime.Unix())
}

func TestPlaceBid_AntiSnipingDisabled(t *testing.T) {
	store := memstore.New()
	settings := testSettings()
	settings.AntiSnipingEnabled = false
	svc := newTestService(store, mocks.NewNotifierRecorder(), settings)

	end := time.Now().Add(90 * time.Second)
	a := fixtures.NewAuctionBuilder().WithPrice("500").WithEndTime(end).Build()
	store.PutAuction(a)

	result, err := svc.PlaceBid(context.Background(), a.ID, uuid.New(), fixtures.Money("600"))
	require.NoError(t, err)

	assert.False(t, result.Extended)
}

func TestPlaceBid_PerAuctionSoftCloseOverride(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

	// 10 minute override: an hour out would miss the platform 2 minute
	// window but a bid 5 minutes before the end lands inside the override.
	end := time.Now().Add(5 * time.Minute)
	a := fixtures.NewAuctionBuilder().WithPrice("500").WithEndTime(end).WithSoftClose(600).Build()
	store.PutAuction(a)

	result, err := svc.PlaceBid(context.Background(), a.ID, uuid.New(), fixtures.Money("600"))
	require.NoError(t, err)

	assert.True(t, result.Extended)
	assert.Equal(t, end.Add(10*time.Minute).Unix(), result.EndTime.Unix())
}

func TestPlaceBid_ConcurrentBidsKeepPriceMonotonic(t *testing.T) {
	store := memstore.New()
	notifier := mocks.NewNotifierRecorder()
	svc := newTestService(store, notifier, testSettings())

	a := fixtures.NewAuctionBuilder().WithPrice("100").Build()
	store.PutAuction(a)

	const bidders = 20
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			amount := fixtures.Money("200").MustAdd(fixtures.Money("50").Mul(decimalFromInt(n)))
			_, _ = svc.PlaceBid(context.Background(), a.ID, uuid.New(), amount)
		}(i)
	}
	wg.Wait()

	history := store.BidHistory(a.ID)
	require.NotEmpty(t, history)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Amount.GreaterThan(history[i-1].Amount),
			"ledger price must be strictly increasing at row %d", i)
	}

	stored := store.Auction(a.ID)
	last := history[len(history)-1]
	assert.True(t, stored.CurrentPrice.Equal(last.Amount))
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func TestSetMaxBid_Validation(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

	a := fixtures.NewAuctionBuilder().WithPrice("500").Build()
	store.PutAuction(a)

	err := svc.SetMaxBid(context.Background(), a.ID, uuid.New(), fixtures.Money("500"))
	assert.ErrorIs(t, err, errors.ErrMaxBidTooLow)

	err = svc.SetMaxBid(context.Background(), a.ID, uuid.New(), fixtures.Money("800"))
	assert.NoError(t, err)

	ended := fixtures.NewAuctionBuilder().WithStatus(auction.StatusEnded).Build()
	store.PutAuction(ended)
	err = svc.SetMaxBid(context.Background(), ended.ID, uuid.New(), fixtures.Money("800"))
	assert.ErrorIs(t, err, errors.ErrAuctionNotActive)
}

func TestSetMaxBid_DoesNotMovePrice(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

	a := fixtures.NewAuctionBuilder().WithPrice("500").Build()
	store.PutAuction(a)

	require.NoError(t, svc.SetMaxBid(context.Background(), a.ID, uuid.New(), fixtures.Money("2000")))

	stored := store.Auction(a.ID)
	assert.True(t, stored.CurrentPrice.Equal(fixtures.Money("500")),
		"standing ceilings only engage on the next bid event")
	assert.Empty(t, store.BidHistory(a.ID))
}

func TestListBids_UnknownAuction(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, mocks.NewNotifierRecorder(), testSettings())

	_, err := svc.ListBids(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrAuctionNotFound)
}
