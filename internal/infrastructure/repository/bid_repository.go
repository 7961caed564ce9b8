package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/bid"
)

// bidRepository implements the append-only public bid ledger
type bidRepository struct {
	db dbtx
}

func (r *bidRepository) Append(ctx context.Context, b *bid.Bid) error {
	query := `
		INSERT INTO bids (id, auction_id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, b.ID, b.AuctionID, b.UserID, b.Amount, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append bid: %w", err)
	}

	return nil
}

func (r *bidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT id, auction_id, user_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		var b bid.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.UserID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return bids, nil
}

// HighestForAuction returns the top ledger row, or nil when the auction
// never received a bid. Ties on amount go to the earlier row.
func (r *bidRepository) HighestForAuction(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT id, auction_id, user_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC, id ASC
		LIMIT 1
	`

	var b bid.Bid
	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(&b.ID, &b.AuctionID, &b.UserID, &b.Amount, &b.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query highest bid: %w", err)
	}

	return &b, nil
}
