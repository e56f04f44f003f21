package application

import (
	"context"
	"time"

	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
)

// CatalogService はプロバイダーのサービスカタログを管理する
type CatalogService struct {
	serviceRepo service.Repository
	now         func() time.Time
}

// NewCatalogService は新しいCatalogServiceを作成する
func NewCatalogService(sr service.Repository) *CatalogService {
	return &CatalogService{
		serviceRepo: sr,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreateServiceInput struct {
	ProviderID      string
	Name            string
	DurationMinutes int
	Price           int
}

// CreateService は新しいサービスを登録する
func (s *CatalogService) CreateService(ctx context.Context, input CreateServiceInput) (*service.Service, error) {
	now := s.now()
	svc := &service.Service{
		ProviderID:      input.ProviderID,
		Name:            input.Name,
		DurationMinutes: input.DurationMinutes,
		Price:           input.Price,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// GetService はIDからサービスを取得する
func (s *CatalogService) GetService(ctx context.Context, id string) (*service.Service, error) {
	return s.serviceRepo.GetByID(ctx, id)
}

// GetProviderServices はプロバイダーのサービス一覧を取得する
func (s *CatalogService) GetProviderServices(ctx context.Context, providerID string) ([]*service.Service, error) {
	return s.serviceRepo.GetByProviderID(ctx, providerID)
}
