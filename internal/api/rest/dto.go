package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
)

type createListingRequest struct {
	Title            string    `json:"title" validate:"required,min=3,max=200"`
	Category         string    `json:"category" validate:"required,oneof=competitive direct_sale"`
	StartingPrice    string    `json:"starting_price" validate:"required"`
	ReservePrice     *string   `json:"reserve_price,omitempty"`
	BuyNowPrice      *string   `json:"buy_now_price,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Quantity         int       `json:"quantity" validate:"omitempty,min=1"`
	SoftCloseSeconds int       `json:"soft_close_seconds" validate:"omitempty,min=0,max=3600"`
}

type placeBidRequest struct {
	Amount string `json:"amount" validate:"required"`
}

type setMaxBidRequest struct {
	MaxAmount string `json:"max_amount" validate:"required"`
}

type shippingRequest struct {
	RecipientName string `json:"recipient_name" validate:"required,max=200"`
	AddressLine1  string `json:"address_line1" validate:"required,max=200"`
	AddressLine2  string `json:"address_line2" validate:"max=200"`
	City          string `json:"city" validate:"required,max=100"`
	PostalCode    string `json:"postal_code" validate:"required,max=20"`
	Country       string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type buyNowRequest struct {
	Shipping shippingRequest `json:"shipping" validate:"required"`
}

func (r shippingRequest) toDomain() order.ShippingDetails {
	return order.ShippingDetails{
		RecipientName: r.RecipientName,
		AddressLine1:  r.AddressLine1,
		AddressLine2:  r.AddressLine2,
		City:          r.City,
		PostalCode:    r.PostalCode,
		Country:       r.Country,
	}
}

// parseMoney converts a request amount into the platform currency
func parseMoney(raw string) (values.Money, error) {
	m, err := values.NewMoneyFromString(raw, values.USD)
	if err != nil {
		return values.Money{}, errors.NewValidationError("INVALID_AMOUNT", "amount must be a positive decimal")
	}
	if !m.IsPositive() {
		return values.Money{}, errors.NewValidationError("INVALID_AMOUNT", "amount must be a positive decimal")
	}
	return m, nil
}

type auctionResponse struct {
	ID            uuid.UUID `json:"id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Status        string    `json:"status"`
	StartingPrice string    `json:"starting_price"`
	CurrentPrice  string    `json:"current_price"`
	BuyNowPrice   *string   `json:"buy_now_price,omitempty"`
	HasReserve    bool      `json:"has_reserve"`
	Quantity      int       `json:"quantity"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time,omitempty"`
	WinnerID      *string   `json:"winner_id,omitempty"`
}

// newAuctionResponse builds the public projection. The reserve amount
// stays hidden; only its existence is exposed.
func newAuctionResponse(a *auction.Auction) auctionResponse {
	resp := auctionResponse{
		ID:            a.ID,
		SellerID:      a.SellerID,
		Title:         a.Title,
		Category:      a.Category.String(),
		Status:        a.Status.String(),
		StartingPrice: a.StartingPrice.String(),
		CurrentPrice:  a.CurrentPrice.String(),
		HasReserve:    a.ReservePrice != nil,
		Quantity:      a.Quantity,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
	}
	if a.BuyNowPrice != nil {
		s := a.BuyNowPrice.String()
		resp.BuyNowPrice = &s
	}
	if a.WinnerID != nil {
		s := a.WinnerID.String()
		resp.WinnerID = &s
	}
	return resp
}

// bidHistoryEntry is the public bid row: amount and time only, bidder
// identities stay private.
type bidHistoryEntry struct {
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func newBidHistory(bids []*bid.Bid) []bidHistoryEntry {
	entries := make([]bidHistoryEntry, 0, len(bids))
	for _, b := range bids {
		entries = append(entries, bidHistoryEntry{
			Amount:    b.Amount.String(),
			CreatedAt: b.CreatedAt,
		})
	}
	return entries
}

type placeBidResponse struct {
	AuctionID    uuid.UUID `json:"auction_id"`
	CurrentPrice string    `json:"current_price"`
	EndsAt       time.Time `json:"ends_at"`
	Extended     bool      `json:"extended"`
	Leading      bool      `json:"leading"`
}

func newPlaceBidResponse(auctionID, caller uuid.UUID, result *bidding.PlaceBidResult) placeBidResponse {
	return placeBidResponse{
		AuctionID:    auctionID,
		CurrentPrice: result.CurrentPrice.String(),
		EndsAt:       result.EndTime,
		Extended:     result.Extended,
		Leading:      result.Bid.UserID == caller,
	}
}

type orderResponse struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		AuctionID: o.AuctionID,
		Amount:    o.Amount.String(),
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
	}
}

func newOrderResponses(orders []*order.Order) []orderResponse {
	responses := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, newOrderResponse(o))
	}
	return responses
}
