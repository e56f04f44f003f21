package service

import "time"

// Service はプロバイダーが提供するサービス（施術メニュー等）を表す
// 所要時間と価格は仮押さえ時点でスナップショットされ、後からの編集は
// 既存の予約に影響しない
type Service struct {
	ID              string
	ProviderID      string
	Name            string
	DurationMinutes int
	Price           int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate はサービスの検証を行う
func (s *Service) Validate() error {
	if s.ProviderID == "" {
		return ErrProviderIDRequired
	}
	if s.Name == "" {
		return ErrNameRequired
	}
	if s.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}
