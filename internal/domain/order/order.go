package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// Order is the settlement outcome of a won auction or a buy-now purchase.
// Exactly one order exists per auction win; direct sales create one order
// per purchase event. Orders are immutable once created; fulfillment
// status changes happen in a separate subsystem.
type Order struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`

	Amount values.Money `json:"amount"`
	Tax    values.Money `json:"tax"`

	// Source distinguishes auction settlements from buy-now purchases.
	// An auction win produces at most one order; a direct-sale listing
	// produces one per purchase event, repeat buyers included.
	Source Source `json:"source"`

	Shipping ShippingDetails `json:"shipping"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ShippingDetails struct {
	RecipientName string `json:"recipient_name"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2,omitempty"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

type Source int

const (
	SourceBuyNow Source = iota
	SourceAuctionWin
)

func (s Source) String() string {
	if s == SourceAuctionWin {
		return "auction_win"
	}
	return "buy_now"
}

// ParseSource converts the persisted representation back to Source
func ParseSource(s string) Source {
	if s == "auction_win" {
		return SourceAuctionWin
	}
	return SourceBuyNow
}

type Status int

const (
	StatusPendingPayment Status = iota
	StatusPaid
	StatusShipped
	StatusCompleted
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPendingPayment:
		return "pending_payment"
	case StatusPaid:
		return "paid"
	case StatusShipped:
		return "shipped"
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ParseStatus converts the persisted representation back to Status
func ParseStatus(s string) Status {
	switch s {
	case "paid":
		return StatusPaid
	case "shipped":
		return StatusShipped
	case "completed":
		return StatusCompleted
	case "canceled":
		return StatusCanceled
	default:
		return StatusPendingPayment
	}
}

// New creates an order for a settled auction or buy-now purchase
func New(auctionID, buyerID, sellerID uuid.UUID, amount values.Money, source Source, shipping ShippingDetails) *Order {
	return &Order{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Amount:    amount,
		Tax:       values.Zero(amount.Currency()),
		Source:    source,
		Shipping:  shipping,
		Status:    StatusPendingPayment,
		CreatedAt: time.Now(),
	}
}
