package service

import "context"

// Repository はサービスカタログリポジトリのインターフェース
type Repository interface {
	// Create は新しいサービスを作成する
	Create(ctx context.Context, s *Service) error

	// GetByID はIDからサービスを取得する
	GetByID(ctx context.Context, id string) (*Service, error)

	// GetByProviderID はプロバイダーのサービス一覧を取得する
	GetByProviderID(ctx context.Context, providerID string) ([]*Service, error)
}
