package auction

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

// Auction is the contended core record of the marketplace. Price, end time
// and status are only ever mutated through the methods below; repositories
// persist the result with a compare-and-set on Version so concurrent
// writers cannot interleave.
type Auction struct {
	ID       uuid.UUID `json:"id"`
	SellerID uuid.UUID `json:"seller_id"`
	Title    string    `json:"title"`
	Category Category  `json:"category"`

	StartingPrice values.Money  `json:"starting_price"`
	CurrentPrice  values.Money  `json:"current_price"`
	BuyNowPrice   *values.Money `json:"buy_now_price,omitempty"`
	ReservePrice  *values.Money `json:"reserve_price,omitempty"`

	// Quantity applies to direct-sale listings only; competitive auctions
	// always carry quantity 1.
	Quantity int `json:"quantity"`

	Status    Status    `json:"status"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// SoftCloseSeconds overrides the platform anti-sniping window when > 0.
	SoftCloseSeconds int `json:"soft_close_seconds"`

	WinnerID *uuid.UUID `json:"winner_id,omitempty"`

	// Version backs optimistic concurrency control in the store.
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Status int

const (
	StatusUpcoming Status = iota
	StatusActive
	StatusEnded
	StatusBought
)

func (s Status) String() string {
	switch s {
	case StatusUpcoming:
		return "upcoming"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	case StatusBought:
		return "bought"
	default:
		return "unknown"
	}
}

// ParseStatus converts the persisted representation back to Status
func ParseStatus(s string) Status {
	switch s {
	case "upcoming":
		return StatusUpcoming
	case "active":
		return StatusActive
	case "ended":
		return StatusEnded
	case "bought":
		return StatusBought
	default:
		return StatusUpcoming
	}
}

type Category int

const (
	CategoryCompetitive Category = iota
	CategoryDirectSale
)

func (c Category) String() string {
	switch c {
	case CategoryCompetitive:
		return "competitive"
	case CategoryDirectSale:
		return "direct_sale"
	default:
		return "unknown"
	}
}

// ParseCategory converts the persisted representation back to Category
func ParseCategory(s string) Category {
	if s == "direct_sale" {
		return CategoryDirectSale
	}
	return CategoryCompetitive
}

// New creates a competitive auction listing. Status is upcoming or active
// depending on startTime relative to now.
func New(sellerID uuid.UUID, title string, startingPrice values.Money, startTime, endTime time.Time) (*Auction, error) {
	if !startingPrice.IsPositive() {
		return nil, fmt.Errorf("starting price must be positive")
	}
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	now := time.Now()
	status := StatusUpcoming
	if !startTime.After(now) {
		status = StatusActive
	}

	return &Auction{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         title,
		Category:      CategoryCompetitive,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		Quantity:      1,
		Status:        status,
		StartTime:     startTime,
		EndTime:       endTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewDirectSale creates a fixed-price listing with finite quantity. Direct
// sales never enter the competitive state machine; they stay active until
// quantity is exhausted, then flip to bought.
func NewDirectSale(sellerID uuid.UUID, title string, price values.Money, quantity int) (*Auction, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("price must be positive")
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	now := time.Now()
	return &Auction{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         title,
		Category:      CategoryDirectSale,
		StartingPrice: price,
		CurrentPrice:  price,
		BuyNowPrice:   &price,
		Quantity:      quantity,
		Status:        StatusActive,
		StartTime:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsBiddable reports whether the auction accepts competitive bids
func (a *Auction) IsBiddable() bool {
	return a.Category == CategoryCompetitive && a.Status == StatusActive
}

// ApplyBid records a price movement. The new price must be strictly above
// the current one; the recorded price sequence stays monotonic.
func (a *Auction) ApplyBid(price values.Money) error {
	if a.Status != StatusActive {
		return fmt.Errorf("auction %s is %s, not active", a.ID, a.Status)
	}
	if !price.GreaterThan(a.CurrentPrice) {
		return fmt.Errorf("price %s does not exceed current %s", price, a.CurrentPrice)
	}
	a.CurrentPrice = price
	a.UpdatedAt = time.Now()
	return nil
}

// ExtendEnd pushes EndTime forward by the soft-close window. EndTime may
// only grow, and only while the auction is active.
func (a *Auction) ExtendEnd(window time.Duration) error {
	if a.Status != StatusActive {
		return fmt.Errorf("cannot extend %s auction", a.Status)
	}
	if window <= 0 {
		return fmt.Errorf("extension window must be positive")
	}
	a.EndTime = a.EndTime.Add(window)
	a.UpdatedAt = time.Now()
	return nil
}

// WithinSoftClose reports whether now falls inside the (0, window] stretch
// before EndTime where anti-sniping extension applies.
func (a *Auction) WithinSoftClose(now time.Time, window time.Duration) bool {
	remaining := a.EndTime.Sub(now)
	return remaining > 0 && remaining <= window
}

// SoftCloseWindow resolves the per-auction override against the platform
// default.
func (a *Auction) SoftCloseWindow(platformDefault time.Duration) time.Duration {
	if a.SoftCloseSeconds > 0 {
		return time.Duration(a.SoftCloseSeconds) * time.Second
	}
	return platformDefault
}

// Activate transitions upcoming -> active
func (a *Auction) Activate() error {
	if a.Status != StatusUpcoming {
		return fmt.Errorf("cannot activate %s auction", a.Status)
	}
	a.Status = StatusActive
	a.UpdatedAt = time.Now()
	return nil
}

// End transitions active -> ended, recording the winner when one exists.
// winner nil means the auction closed with no valid bids.
func (a *Auction) End(winner *uuid.UUID, finalPrice values.Money) error {
	if a.Status != StatusActive {
		return fmt.Errorf("cannot end %s auction", a.Status)
	}
	a.Status = StatusEnded
	a.WinnerID = winner
	if winner != nil {
		a.CurrentPrice = finalPrice
	}
	a.UpdatedAt = time.Now()
	return nil
}

// MeetsReserve reports whether a price satisfies the reserve, when set
func (a *Auction) MeetsReserve(price values.Money) bool {
	if a.ReservePrice == nil {
		return true
	}
	return price.Compare(*a.ReservePrice) >= 0
}
