package auction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

func money(t *testing.T, amount string) values.Money {
	t.Helper()
	m, err := values.NewMoneyFromString(amount, values.USD)
	require.NoError(t, err)
	return m
}

func TestNew_StatusDependsOnStartTime(t *testing.T) {
	price := money(t, "100")
	seller := uuid.New()

	future, err := New(seller, "Vintage Watch", price, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusUpcoming, future.Status)

	live, err := New(seller, "Vintage Watch", price, time.Now().Add(-time.Minute), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusActive, live.Status)
	assert.True(t, live.IsBiddable())
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	seller := uuid.New()
	start := time.Now()
	end := start.Add(time.Hour)

	_, err := New(seller, "x", values.Money{}, start, end)
	assert.Error(t, err)

	_, err = New(seller, "x", money(t, "100"), end, start)
	assert.Error(t, err)
}

func TestNewDirectSale_Defaults(t *testing.T) {
	listing, err := NewDirectSale(uuid.New(), "Desk Lamp", money(t, "40"), 5)
	require.NoError(t, err)

	assert.Equal(t, CategoryDirectSale, listing.Category)
	assert.Equal(t, StatusActive, listing.Status)
	assert.Equal(t, 5, listing.Quantity)
	require.NotNil(t, listing.BuyNowPrice)
	assert.True(t, listing.BuyNowPrice.Equal(money(t, "40")))
	assert.False(t, listing.IsBiddable())

	_, err = NewDirectSale(uuid.New(), "Desk Lamp", money(t, "40"), 0)
	assert.Error(t, err)
}

func TestApplyBid_PriceStaysMonotonic(t *testing.T) {
	a, err := New(uuid.New(), "x", money(t, "100"), time.Now().Add(-time.Minute), time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, a.ApplyBid(money(t, "150")))
	assert.True(t, a.CurrentPrice.Equal(money(t, "150")))

	assert.Error(t, a.ApplyBid(money(t, "150")), "equal price must be rejected")
	assert.Error(t, a.ApplyBid(money(t, "120")), "lower price must be rejected")
	assert.True(t, a.CurrentPrice.Equal(money(t, "150")))
}

func TestApplyBid_RequiresActiveStatus(t *testing.T) {
	a, err := New(uuid.New(), "x", money(t, "100"), time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)

	assert.Error(t, a.ApplyBid(money(t, "150")))
}

func TestWithinSoftClose_Boundaries(t *testing.T) {
	end := time.Now().Add(time.Hour)
	a := &Auction{Status: StatusActive, EndTime: end}
	window := 2 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before window", end.Add(-time.Hour), false},
		{"exactly at window edge", end.Add(-window), true},
		{"inside window", end.Add(-time.Minute), true},
		{"one second left", end.Add(-time.Second), true},
		{"at end time", end, false},
		{"after end time", end.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.WithinSoftClose(tt.now, window))
		})
	}
}

func TestSoftCloseWindow_OverrideWins(t *testing.T) {
	platform := 2 * time.Minute

	a := &Auction{}
	assert.Equal(t, platform, a.SoftCloseWindow(platform))

	a.SoftCloseSeconds = 600
	assert.Equal(t, 10*time.Minute, a.SoftCloseWindow(platform))
}

func TestExtendEnd_OnlyGrowsWhileActive(t *testing.T) {
	end := time.Now().Add(time.Minute)
	a := &Auction{Status: StatusActive, EndTime: end}

	require.NoError(t, a.ExtendEnd(2*time.Minute))
	assert.Equal(t, end.Add(2*time.Minute), a.EndTime)

	assert.Error(t, a.ExtendEnd(0))

	a.Status = StatusEnded
	assert.Error(t, a.ExtendEnd(time.Minute))
}

func TestLifecycleTransitions(t *testing.T) {
	a := &Auction{Status: StatusUpcoming}

	require.NoError(t, a.Activate())
	assert.Equal(t, StatusActive, a.Status)
	assert.Error(t, a.Activate(), "double activation must fail")

	winner := uuid.New()
	final := money(t, "300")
	require.NoError(t, a.End(&winner, final))
	assert.Equal(t, StatusEnded, a.Status)
	require.NotNil(t, a.WinnerID)
	assert.Equal(t, winner, *a.WinnerID)
	assert.True(t, a.CurrentPrice.Equal(final))

	assert.Error(t, a.End(&winner, final), "double end must fail")
}

func TestEnd_NoWinnerKeepsPrice(t *testing.T) {
	price := money(t, "100")
	a := &Auction{Status: StatusActive, CurrentPrice: price}

	require.NoError(t, a.End(nil, values.Money{}))
	assert.Nil(t, a.WinnerID)
	assert.True(t, a.CurrentPrice.Equal(price))
}

func TestMeetsReserve(t *testing.T) {
	a := &Auction{}
	assert.True(t, a.MeetsReserve(money(t, "1")), "no reserve always met")

	reserve := money(t, "200")
	a.ReservePrice = &reserve
	assert.False(t, a.MeetsReserve(money(t, "199")))
	assert.True(t, a.MeetsReserve(money(t, "200")))
	assert.True(t, a.MeetsReserve(money(t, "250")))
}

func TestStatusAndCategoryRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusUpcoming, StatusActive, StatusEnded, StatusBought} {
		assert.Equal(t, s, ParseStatus(s.String()))
	}
	for _, c := range []Category{CategoryCompetitive, CategoryDirectSale} {
		assert.Equal(t, c, ParseCategory(c.String()))
	}
}
