package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// Bid is one row of the public, append-only bid history. UserID is the
// leader resolved by proxy bidding at the time the row was written, which
// is not always the account that submitted the triggering request.
type Bid struct {
	ID        uuid.UUID    `json:"id"`
	AuctionID uuid.UUID    `json:"auction_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Amount    values.Money `json:"amount"`
	CreatedAt time.Time    `json:"created_at"`
}

// New creates a bid ledger row
func New(auctionID, userID uuid.UUID, amount values.Money) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
}

// MaxBid is a user's private proxy ceiling for one auction. At most one
// row exists per (auction, user); updates overwrite the amount.
type MaxBid struct {
	AuctionID uuid.UUID    `json:"auction_id"`
	UserID    uuid.UUID    `json:"user_id"`
	MaxAmount values.Money `json:"max_amount"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewMaxBid creates a proxy ceiling record
func NewMaxBid(auctionID, userID uuid.UUID, maxAmount values.Money) *MaxBid {
	return &MaxBid{
		AuctionID: auctionID,
		UserID:    userID,
		MaxAmount: maxAmount,
		UpdatedAt: time.Now(),
	}
}
