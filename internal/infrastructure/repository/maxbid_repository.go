package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
)

// maxBidRepository stores private proxy ceilings, one row per
// (auction, user)
type maxBidRepository struct {
	db dbtx
}

func (r *maxBidRepository) Upsert(ctx context.Context, m *bid.MaxBid) error {
	query := `
		INSERT INTO max_bids (auction_id, user_id, max_amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (auction_id, user_id)
		DO UPDATE SET max_amount = EXCLUDED.max_amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, m.AuctionID, m.UserID, m.MaxAmount, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert max bid: %w", err)
	}

	return nil
}

func (r *maxBidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.MaxBid, error) {
	query := `
		SELECT auction_id, user_id, max_amount, updated_at
		FROM max_bids
		WHERE auction_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query max bids: %w", err)
	}
	defer rows.Close()

	var maxBids []*bid.MaxBid
	for rows.Next() {
		var m bid.MaxBid
		if err := rows.Scan(&m.AuctionID, &m.UserID, &m.MaxAmount, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan max bid: %w", err)
		}
		maxBids = append(maxBids, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return maxBids, nil
}
