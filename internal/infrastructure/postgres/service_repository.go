package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
)

type serviceRow struct {
	ID              string    `db:"id"`
	ProviderID      string    `db:"provider_id"`
	Name            string    `db:"name"`
	DurationMinutes int       `db:"duration_minutes"`
	Price           int       `db:"price"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *serviceRow) toEntity() *service.Service {
	return &service.Service{
		ID: r.ID, ProviderID: r.ProviderID, Name: r.Name,
		DurationMinutes: r.DurationMinutes, Price: r.Price,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type ServiceRepository struct{ db *sqlx.DB }

func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, s *service.Service) error {
	query := `INSERT INTO services (provider_id, name, duration_minutes, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		s.ProviderID, s.Name, s.DurationMinutes, s.Price, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID); err != nil {
		return fmt.Errorf("サービス作成に失敗: %w", err)
	}
	return nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*service.Service, error) {
	var row serviceRow
	query := `SELECT id, provider_id, name, duration_minutes, price, created_at, updated_at FROM services WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrServiceNotFound
		}
		return nil, fmt.Errorf("サービス取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ServiceRepository) GetByProviderID(ctx context.Context, providerID string) ([]*service.Service, error) {
	var rows []serviceRow
	query := `SELECT id, provider_id, name, duration_minutes, price, created_at, updated_at FROM services WHERE provider_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &rows, query, providerID); err != nil {
		return nil, fmt.Errorf("サービス一覧取得に失敗: %w", err)
	}
	result := make([]*service.Service, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

var _ service.Repository = (*ServiceRepository)(nil)
