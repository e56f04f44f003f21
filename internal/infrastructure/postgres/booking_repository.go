package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/slotbook/go-appointment-slot-booking/internal/domain/booking"
)

const bookingColumns = `id, provider_id, service_id, customer_id, start_at, end_at, status, hold_token, hold_expires_at, price, created_at, updated_at`

type bookingRow struct {
	ID            string     `db:"id"`
	ProviderID    string     `db:"provider_id"`
	ServiceID     string     `db:"service_id"`
	CustomerID    *string    `db:"customer_id"`
	StartAt       time.Time  `db:"start_at"`
	EndAt         time.Time  `db:"end_at"`
	Status        string     `db:"status"`
	HoldToken     *string    `db:"hold_token"`
	HoldExpiresAt *time.Time `db:"hold_expires_at"`
	Price         int        `db:"price"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, ProviderID: r.ProviderID, ServiceID: r.ServiceID,
		CustomerID: r.CustomerID, StartAt: r.StartAt, EndAt: r.EndAt,
		Status: booking.Status(r.Status), HoldToken: r.HoldToken,
		HoldExpiresAt: r.HoldExpiresAt, Price: r.Price,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query := `INSERT INTO bookings (provider_id, service_id, customer_id, start_at, end_at, status, hold_token, hold_expires_at, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		b.ProviderID, b.ServiceID, b.CustomerID, b.StartAt, b.EndAt,
		string(b.Status), b.HoldToken, b.HoldExpiresAt, b.Price, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// FindOverlapping はライブ状態で [startAt, endAt) に重なる予約を1件返す
// スロットロックは完全一致キーしか扱えないため、範囲の重なり判定はここが担う
func (r *BookingRepository) FindOverlapping(ctx context.Context, providerID string, startAt, endAt time.Time, excludeHoldToken string) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE provider_id = $1
		  AND start_at < $2
		  AND end_at > $3
		  AND status IN ('held', 'pending', 'confirmed')`
	args := []interface{}{providerID, endAt, startAt}
	if excludeHoldToken != "" {
		query += ` AND (hold_token IS NULL OR hold_token <> $4)`
		args = append(args, excludeHoldToken)
	}
	query += ` LIMIT 1`

	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("重複予約の検索に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// ConfirmHold は仮押さえを next へ遷移させる条件付きUPDATE
// (id, hold_token, status=held, 期限内) のすべてに一致した場合のみ成功する。
// 確定リクエスト同士、あるいは確定と期限回収の競合はこの1文で決着する
func (r *BookingRepository) ConfirmHold(ctx context.Context, id, holdToken string, next booking.Status, now time.Time) (*booking.Booking, error) {
	query := `UPDATE bookings
		SET status = $1, hold_token = NULL, hold_expires_at = NULL, updated_at = $2
		WHERE id = $3 AND hold_token = $4 AND status = 'held' AND hold_expires_at > $5
		RETURNING ` + bookingColumns
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, string(next), now, id, holdToken, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrHoldExpiredOrInvalid
		}
		return nil, fmt.Errorf("仮押さえの確定に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// UpdateStatusFrom は読み取った状態を前提条件とする遷移
// 並行する確定を cancelled で上書きしないための条件
func (r *BookingRepository) UpdateStatusFrom(ctx context.Context, id string, from, to booking.Status, now time.Time) (*booking.Booking, error) {
	query := `UPDATE bookings
		SET status = $1, hold_token = NULL, hold_expires_at = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, string(to), now, id, string(from)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrInvalidState
		}
		return nil, fmt.Errorf("予約状態の更新に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// ExpireHold は (id, status=held) に一致する仮押さえを cancelled にする
// トークンは条件にしない（回収側はトークンを検証する立場にない）。
// 不一致は確定・キャンセルとの競合の正常な結果なので (nil, nil) を返す
func (r *BookingRepository) ExpireHold(ctx context.Context, id string, now time.Time) (*booking.Booking, error) {
	query := `UPDATE bookings
		SET status = 'cancelled', hold_token = NULL, hold_expires_at = NULL, updated_at = $1
		WHERE id = $2 AND status = 'held'
		RETURNING ` + bookingColumns
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, now, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("仮押さえの期限回収に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetExpiredHeld(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'held' AND hold_expires_at <= $1`
	if err := r.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, fmt.Errorf("期限切れ仮押さえの取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *BookingRepository) GetByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, customerID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *BookingRepository) GetByProviderID(ctx context.Context, providerID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE provider_id = $1 ORDER BY start_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, providerID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
