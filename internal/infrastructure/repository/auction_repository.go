package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/auction"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
)

const auctionColumns = `
	id, seller_id, title, category, starting_price, current_price,
	buy_now_price, reserve_price, quantity, status, start_time, end_time,
	soft_close_seconds, winner_id, version, created_at, updated_at
`

// auctionRepository implements the auction store over PostgreSQL. Every
// mutation is a conditional update keyed on status (and version where the
// caller read first), so racing writers lose cleanly instead of
// interleaving.
type auctionRepository struct {
	db dbtx
}

func (r *auctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.SellerID, a.Title, a.Category.String(),
		a.StartingPrice, a.CurrentPrice,
		moneyPtr(a.BuyNowPrice), moneyPtr(a.ReservePrice),
		a.Quantity, a.Status.String(), a.StartTime, nullableTime(a.EndTime),
		a.SoftCloseSeconds, uuidPtr(a.WinnerID), a.Version,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

func (r *auctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	a, err := scanAuctionRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return a, nil
}

// UpdatePriceAndEndTime commits the outcome of an accepted bid. The WHERE
// clause is the compare-and-set: it only matches the row version the
// caller computed against, while still active.
func (r *auctionRepository) UpdatePriceAndEndTime(ctx context.Context, id uuid.UUID, price values.Money, endTime time.Time, expectedVersion int) error {
	query := `
		UPDATE auctions
		SET current_price = $2, end_time = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND version = $4
	`

	result, err := r.db.ExecContext(ctx, query, id, price, endTime, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update auction price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrStaleAuction
	}

	return nil
}

func (r *auctionRepository) DueToStart(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'upcoming' AND start_time <= $1
		ORDER BY start_time ASC
		LIMIT 500
	`

	return r.queryAuctions(ctx, query, now)
}

// MarkActive performs the upcoming -> active transition. Returns false
// when another tick or instance already claimed the row.
func (r *auctionRepository) MarkActive(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE auctions
		SET status = 'active', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'upcoming'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to activate auction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *auctionRepository) DueToEnd(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'active' AND category = 'competitive' AND end_time <= $1
		ORDER BY end_time ASC
		LIMIT 500
	`

	return r.queryAuctions(ctx, query, now)
}

// ClaimEnded performs the active -> ended transition. The end_time guard
// re-checks against the database clock so a bid-driven extension between
// the scan and the claim cancels the claim.
func (r *auctionRepository) ClaimEnded(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE auctions
		SET status = 'ended', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND end_time <= NOW()
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim auction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *auctionRepository) SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, amount values.Money) error {
	query := `
		UPDATE auctions
		SET winner_id = $2, current_price = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'ended'
	`

	result, err := r.db.ExecContext(ctx, query, auctionID, winnerID, amount)
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrStaleAuction
	}

	return nil
}

// DecrementQuantity atomically consumes one unit of a direct-sale
// listing, flipping it to bought on the last unit. No matching row means
// the stock ran out under a concurrent buyer.
func (r *auctionRepository) DecrementQuantity(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE auctions
		SET quantity = quantity - 1,
		    status = CASE WHEN quantity = 1 THEN 'bought' ELSE status END,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND quantity > 0
		RETURNING quantity
	`

	var remaining int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&remaining)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, errors.ErrOutOfStock
		}
		return 0, fmt.Errorf("failed to decrement quantity: %w", err)
	}

	return remaining, nil
}

func (r *auctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuctionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return auctions, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuctionRow(row rowScanner) (*auction.Auction, error) {
	var (
		a            auction.Auction
		categoryStr  string
		statusStr    string
		buyNowPrice  sql.NullString
		reservePrice sql.NullString
		endTime      sql.NullTime
		winnerID     sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.SellerID, &a.Title, &categoryStr,
		&a.StartingPrice, &a.CurrentPrice,
		&buyNowPrice, &reservePrice,
		&a.Quantity, &statusStr, &a.StartTime, &endTime,
		&a.SoftCloseSeconds, &winnerID, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Category = auction.ParseCategory(categoryStr)
	a.Status = auction.ParseStatus(statusStr)

	if endTime.Valid {
		a.EndTime = endTime.Time
	}
	if buyNowPrice.Valid {
		m, err := values.NewMoneyFromString(buyNowPrice.String, values.USD)
		if err != nil {
			return nil, fmt.Errorf("invalid buy-now price: %w", err)
		}
		a.BuyNowPrice = &m
	}
	if reservePrice.Valid {
		m, err := values.NewMoneyFromString(reservePrice.String, values.USD)
		if err != nil {
			return nil, fmt.Errorf("invalid reserve price: %w", err)
		}
		a.ReservePrice = &m
	}
	if winnerID.Valid {
		id, err := uuid.Parse(winnerID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid winner id: %w", err)
		}
		a.WinnerID = &id
	}

	return &a, nil
}

func moneyPtr(m *values.Money) interface{} {
	if m == nil {
		return nil
	}
	return *m
}

func uuidPtr(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
