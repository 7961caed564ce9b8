package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/order"
)

// orderRepository persists settlement orders. Shipping details travel in
// a JSONB column so address shape changes stay out of the schema.
type orderRepository struct {
	db dbtx
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping details: %w", err)
	}

	query := `
		INSERT INTO orders (id, auction_id, buyer_id, seller_id, amount, tax, source, shipping, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.AuctionID, o.BuyerID, o.SellerID,
		o.Amount, o.Tax, o.Source.String(), shipping, o.Status.String(), o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errors.NewConflictError("ORDER_EXISTS", "order already settled for this auction")
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*order.Order, error) {
	query := `
		SELECT id, auction_id, buyer_id, seller_id, amount, tax, source, shipping, status, created_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var (
			o         order.Order
			shipping  []byte
			sourceStr string
			statusStr string
		)
		err := rows.Scan(&o.ID, &o.AuctionID, &o.BuyerID, &o.SellerID,
			&o.Amount, &o.Tax, &sourceStr, &shipping, &statusStr, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shipping details: %w", err)
		}
		o.Source = order.ParseSource(sourceStr)
		o.Status = order.ParseStatus(statusStr)
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}
