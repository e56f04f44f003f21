package service

import "errors"

// Service ドメインのエラー定義
var (
	ErrServiceNotFound    = errors.New("サービスが見つかりません")
	ErrProviderIDRequired = errors.New("プロバイダーIDは必須です")
	ErrNameRequired       = errors.New("サービス名は必須です")
	ErrInvalidDuration    = errors.New("所要時間は1分以上である必要があります")
)
