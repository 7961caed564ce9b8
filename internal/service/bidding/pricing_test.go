package bidding

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

func money(t *testing.T, amount string) values.Money {
	t.Helper()
	m, err := values.NewMoneyFromString(amount, values.USD)
	if err != nil {
		t.Fatalf("bad amount %q: %v", amount, err)
	}
	return m
}

func TestResolve_ProxyBattle(t *testing.T) {
	userA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	userB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	// A holds a 1000 ceiling, B holds 1500. A bids 600 manually: B stays
	// in front at A's ceiling plus one increment.
	proxies := []*bid.MaxBid{
		{AuctionID: uuid.New(), UserID: userA, MaxAmount: money(t, "1000")},
		{AuctionID: uuid.New(), UserID: userB, MaxAmount: money(t, "1500")},
	}

	res := Resolve(money(t, "500"), money(t, "50"), proxies, userA, money(t, "600"))

	assert.Equal(t, userB, res.Leader)
	assert.True(t, res.Price.Equal(money(t, "1050")), "price = %s", res.Price)
}

func TestResolve_NoCompetition(t *testing.T) {
	bidder := uuid.New()

	res := Resolve(money(t, "500"), money(t, "50"), nil, bidder, money(t, "600"))

	assert.Equal(t, bidder, res.Leader)
	assert.True(t, res.Price.Equal(money(t, "600")), "price = %s", res.Price)
}

func TestResolve_BidderOvertakesProxy(t *testing.T) {
	holder := uuid.New()
	bidder := uuid.New()

	proxies := []*bid.MaxBid{
		{UserID: holder, MaxAmount: money(t, "700")},
	}

	// Bidder's 900 beats the standing 700 ceiling. The manual amount is
	// an explicit price statement, so it floors the result even though
	// beating the runner-up only needed 750.
	res := Resolve(money(t, "500"), money(t, "50"), proxies, bidder, money(t, "900"))

	assert.Equal(t, bidder, res.Leader)
	assert.True(t, res.Price.Equal(money(t, "900")), "price = %s", res.Price)
}

func TestResolve_WinnerCeilingCapsPrice(t *testing.T) {
	holder := uuid.New()
	bidder := uuid.New()

	// Runner-up plus increment would exceed the winner's ceiling; the
	// winner pays their full ceiling instead.
	proxies := []*bid.MaxBid{
		{UserID: holder, MaxAmount: money(t, "980")},
	}

	res := Resolve(money(t, "500"), money(t, "50"), proxies, bidder, money(t, "1000"))

	assert.Equal(t, bidder, res.Leader)
	assert.True(t, res.Price.Equal(money(t, "1000")), "price = %s", res.Price)
}

func TestResolve_TieBreakIsDeterministic(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000002")

	// Equal ceilings resolve to the lexicographically smaller user ID,
	// regardless of slice order.
	forward := []*bid.MaxBid{
		{UserID: low, MaxAmount: money(t, "800")},
		{UserID: high, MaxAmount: money(t, "800")},
	}
	reversed := []*bid.MaxBid{
		{UserID: high, MaxAmount: money(t, "800")},
		{UserID: low, MaxAmount: money(t, "800")},
	}

	bidder := uuid.MustParse("99999999-0000-0000-0000-000000000003")

	resA := Resolve(money(t, "500"), money(t, "50"), forward, bidder, money(t, "550"))
	resB := Resolve(money(t, "500"), money(t, "50"), reversed, bidder, money(t, "550"))

	assert.Equal(t, low, resA.Leader)
	assert.Equal(t, resA.Leader, resB.Leader)
	assert.True(t, resA.Price.Equal(resB.Price))
}

func TestResolve_LowRunnerUpStillRaisesPrice(t *testing.T) {
	holder := uuid.New()
	bidder := uuid.New()

	// The runner-up ceiling sits below the current price, so the second
	// price formula contributes nothing; the manual amount floors the
	// result and keeps the price strictly above current.
	proxies := []*bid.MaxBid{
		{UserID: holder, MaxAmount: money(t, "300")},
	}

	res := Resolve(money(t, "500"), money(t, "50"), proxies, bidder, money(t, "550"))

	assert.Equal(t, bidder, res.Leader)
	assert.True(t, res.Price.GreaterThan(money(t, "500")), "price must rise, got %s", res.Price)
	assert.True(t, res.Price.Equal(money(t, "550")), "price = %s", res.Price)
}

func TestResolve_ZeroIncrementStillExceedsCurrent(t *testing.T) {
	holder := uuid.New()
	bidder := uuid.New()

	proxies := []*bid.MaxBid{
		{UserID: holder, MaxAmount: money(t, "300")},
	}

	res := Resolve(money(t, "500"), money(t, "0"), proxies, bidder, money(t, "501"))

	assert.Equal(t, bidder, res.Leader)
	assert.True(t, res.Price.GreaterThan(money(t, "500")), "price = %s", res.Price)
	assert.True(t, res.Price.Equal(money(t, "501")), "price = %s", res.Price)
}
