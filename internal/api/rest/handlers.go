package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
	"github.com/marketbay/auction-exchange-backend/internal/service/catalog"
)

// CatalogService creates and reads listings
type CatalogService interface {
	CreateAuction(ctx context.Context, in catalog.CreateAuctionInput) (*auction.Auction, error)
	CreateDirectSale(ctx context.Context, in catalog.CreateDirectSaleInput) (*auction.Auction, error)
	Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
}

// SettlementService handles purchases and order reads
type SettlementService interface {
	BuyNow(ctx context.Context, listingID, buyerID uuid.UUID, shipping order.ShippingDetails) (*order.Order, error)
	OrdersForBuyer(ctx context.Context, buyerID uuid.UUID) ([]*order.Order, error)
}

// Handler serves the auction API
type Handler struct {
	bidding    bidding.Service
	catalog    CatalogService
	settlement SettlementService
	validate   *validator.Validate
}

// NewHandler creates the API handler
func NewHandler(biddingSvc bidding.Service, catalogSvc CatalogService, settlementSvc SettlementService) *Handler {
	return &Handler{
		bidding:    biddingSvc,
		catalog:    catalogSvc,
		settlement: settlementSvc,
		validate:   validator.New(),
	}
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewValidationError("INVALID_JSON", "request body is not valid JSON")
	}
	return h.validate.Struct(v)
}

func (h *Handler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req createListingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	price, err := parseMoney(req.StartingPrice)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var a *auction.Auction
	if req.Category == auction.CategoryDirectSale.String() {
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		a, err = h.catalog.CreateDirectSale(r.Context(), catalog.CreateDirectSaleInput{
			SellerID: sellerID,
			Title:    req.Title,
			Price:    price,
			Quantity: quantity,
		})
	} else {
		reserve, perr := parseOptionalMoney(req.ReservePrice)
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		buyNow, perr := parseOptionalMoney(req.BuyNowPrice)
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		a, err = h.catalog.CreateAuction(r.Context(), catalog.CreateAuctionInput{
			SellerID:         sellerID,
			Title:            req.Title,
			StartingPrice:    price,
			ReservePrice:     reserve,
			BuyNowPrice:      buyNow,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			SoftCloseSeconds: req.SoftCloseSeconds,
		})
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuctionResponse(a))
}

func parseOptionalMoney(raw *string) (*values.Money, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	m, err := parseMoney(*raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (h *Handler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuctionResponse(a))
}

func (h *Handler) handleListBids(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	bids, err := h.bidding.ListBids(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newBidHistory(bids))
}

func (h *Handler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req placeBidRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.bidding.PlaceBid(r.Context(), id, userID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPlaceBidResponse(id, userID, result))
}

func (h *Handler) handleSetMaxBid(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setMaxBidRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	maxAmount, err := parseMoney(req.MaxAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.bidding.SetMaxBid(r.Context(), id, userID, maxAmount); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBuyNow(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req buyNowRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.settlement.BuyNow(r.Context(), id, userID, req.Shipping.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errors.NewUnauthorizedError("authentication required"))
		return
	}

	orders, err := h.settlement.OrdersForBuyer(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponses(orders))
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("INVALID_ID", "path id must be a UUID")
	}
	return id, nil
}
