// Package fixtures provides builders for domain entities used across
// service tests.
package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// AuctionBuilder builds auction entities with sensible defaults: an
// active competitive auction priced at 100.00 ending an hour from now.
type AuctionBuilder struct {
	a *auction.Auction
}

func NewAuctionBuilder() *AuctionBuilder {
	now := time.Now()
	price := values.MustNewMoneyFromString("100.00", values.USD)
	return &AuctionBuilder{
		a: &auction.Auction{
			ID:            uuid.New(),
			SellerID:      uuid.New(),
			Title:         "Test Auction",
			Category:      auction.CategoryCompetitive,
			StartingPrice: price,
			CurrentPrice:  price,
			Quantity:      1,
			Status:        auction.StatusActive,
			StartTime:     now.Add(-time.Hour),
			EndTime:       now.Add(time.Hour),
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func (b *AuctionBuilder) WithID(id uuid.UUID) *AuctionBuilder {
	b.a.ID = id
	return b
}

func (b *AuctionBuilder) WithSeller(id uuid.UUID) *AuctionBuilder {
	b.a.SellerID = id
	return b
}

func (b *AuctionBuilder) WithPrice(amount string) *AuctionBuilder {
	m := values.MustNewMoneyFromString(amount, values.USD)
	b.a.StartingPrice = m
	b.a.CurrentPrice = m
	return b
}

func (b *AuctionBuilder) WithReserve(amount string) *AuctionBuilder {
	m := values.MustNewMoneyFromString(amount, values.USD)
	b.a.ReservePrice = &m
	return b
}

func (b *AuctionBuilder) WithStatus(status auction.Status) *AuctionBuilder {
	b.a.Status = status
	return b
}

func (b *AuctionBuilder) WithEndTime(t time.Time) *AuctionBuilder {
	b.a.EndTime = t
	return b
}

func (b *AuctionBuilder) WithStartTime(t time.Time) *AuctionBuilder {
	b.a.StartTime = t
	return b
}

func (b *AuctionBuilder) WithSoftClose(seconds int) *AuctionBuilder {
	b.a.SoftCloseSeconds = seconds
	return b
}

// AsDirectSale flips the auction into a fixed-price listing
func (b *AuctionBuilder) AsDirectSale(quantity int) *AuctionBuilder {
	b.a.Category = auction.CategoryDirectSale
	b.a.Quantity = quantity
	price := b.a.CurrentPrice
	b.a.BuyNowPrice = &price
	b.a.EndTime = time.Time{}
	return b
}

func (b *AuctionBuilder) Build() *auction.Auction {
	return b.a
}

// NewAccount builds an active buyer account
func NewAccount() *account.Account {
	id := uuid.New()
	now := time.Now()
	return &account.Account{
		ID:           id,
		Email:        fmt.Sprintf("user-%s@example.com", id.String()[:8]),
		Name:         "Test User",
		Role:         account.RoleBuyer,
		Status:       account.StatusActive,
		Verification: account.VerificationApproved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewSeller builds an active seller account
func NewSeller() *account.Account {
	a := NewAccount()
	a.Role = account.RoleSeller
	return a
}

// NewSuspendedAccount builds a suspended buyer
func NewSuspendedAccount() *account.Account {
	a := NewAccount()
	a.Status = account.StatusSuspended
	return a
}

// Money is shorthand for building USD amounts in tests
func Money(amount string) values.Money {
	return values.MustNewMoneyFromString(amount, values.USD)
}
