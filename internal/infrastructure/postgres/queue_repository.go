package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/slotbook/go-appointment-slot-booking/internal/domain/queue"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/transaction"
)

const queueColumns = `id, provider_id, date, token_number, booking_id, customer_name, service_name, duration_minutes, status, started_at, ended_at, is_walk_in, created_at, updated_at`

type queueRow struct {
	ID              string     `db:"id"`
	ProviderID      string     `db:"provider_id"`
	Date            string     `db:"date"`
	TokenNumber     int        `db:"token_number"`
	BookingID       *string    `db:"booking_id"`
	CustomerName    string     `db:"customer_name"`
	ServiceName     string     `db:"service_name"`
	DurationMinutes int        `db:"duration_minutes"`
	Status          string     `db:"status"`
	StartedAt       *time.Time `db:"started_at"`
	EndedAt         *time.Time `db:"ended_at"`
	IsWalkIn        bool       `db:"is_walk_in"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r *queueRow) toEntity() *queue.Entry {
	return &queue.Entry{
		ID: r.ID, ProviderID: r.ProviderID, Date: r.Date,
		TokenNumber: r.TokenNumber, BookingID: r.BookingID,
		CustomerName: r.CustomerName, ServiceName: r.ServiceName,
		DurationMinutes: r.DurationMinutes, Status: queue.Status(r.Status),
		StartedAt: r.StartedAt, EndedAt: r.EndedAt, IsWalkIn: r.IsWalkIn,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type QueueRepository struct{ db *sqlx.DB }

func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) Create(ctx context.Context, tx transaction.Tx, e *queue.Entry) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが必要です")
	}
	query := `INSERT INTO queue_entries (provider_id, date, token_number, booking_id, customer_name, service_name, duration_minutes, status, is_walk_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		e.ProviderID, e.Date, e.TokenNumber, e.BookingID, e.CustomerName,
		e.ServiceName, e.DurationMinutes, string(e.Status), e.IsWalkIn, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID); err != nil {
		return fmt.Errorf("受付エントリ作成に失敗: %w", err)
	}
	return nil
}

// NextTokenNumber は同一トランザクション内で次のトークン番号を採番する
// 同時採番で衝突した場合は (provider_id, date, token_number) の一意制約で失敗する
func (r *QueueRepository) NextTokenNumber(ctx context.Context, tx transaction.Tx, providerID, date string) (int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, fmt.Errorf("トランザクションが必要です")
	}
	var next int
	query := `SELECT COALESCE(MAX(token_number), 0) + 1 FROM queue_entries WHERE provider_id = $1 AND date = $2`
	if err := sqlxTx.QueryRowContext(ctx, query, providerID, date).Scan(&next); err != nil {
		return 0, fmt.Errorf("トークン採番に失敗: %w", err)
	}
	return next, nil
}

func (r *QueueRepository) GetByID(ctx context.Context, id string) (*queue.Entry, error) {
	var row queueRow
	query := `SELECT ` + queueColumns + ` FROM queue_entries WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, queue.ErrEntryNotFound
		}
		return nil, fmt.Errorf("受付エントリ取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *QueueRepository) GetByBookingID(ctx context.Context, bookingID string) (*queue.Entry, error) {
	var row queueRow
	query := `SELECT ` + queueColumns + ` FROM queue_entries WHERE booking_id = $1`
	if err := r.db.GetContext(ctx, &row, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, queue.ErrEntryNotFound
		}
		return nil, fmt.Errorf("受付エントリ取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *QueueRepository) GetDaily(ctx context.Context, providerID, date string) ([]*queue.Entry, error) {
	var rows []queueRow
	query := `SELECT ` + queueColumns + ` FROM queue_entries WHERE provider_id = $1 AND date = $2 ORDER BY token_number`
	if err := r.db.SelectContext(ctx, &rows, query, providerID, date); err != nil {
		return nil, fmt.Errorf("受付ボード取得に失敗: %w", err)
	}
	result := make([]*queue.Entry, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *QueueRepository) UpdateStatus(ctx context.Context, id string, status queue.Status, startedAt, endedAt *time.Time) (*queue.Entry, error) {
	query := `UPDATE queue_entries
		SET status = $1,
		    started_at = COALESCE($2, started_at),
		    ended_at = COALESCE($3, ended_at),
		    updated_at = NOW()
		WHERE id = $4
		RETURNING ` + queueColumns
	var row queueRow
	if err := r.db.GetContext(ctx, &row, query, string(status), startedAt, endedAt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, queue.ErrEntryNotFound
		}
		return nil, fmt.Errorf("受付状態の更新に失敗: %w", err)
	}
	return row.toEntity(), nil
}

var _ queue.Repository = (*QueueRepository)(nil)
