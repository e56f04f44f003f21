package queue

import "errors"

// Queue ドメインのエラー定義
var (
	ErrEntryNotFound        = errors.New("受付エントリが見つかりません")
	ErrProviderIDRequired   = errors.New("プロバイダーIDは必須です")
	ErrDateRequired         = errors.New("日付は必須です")
	ErrCustomerNameRequired = errors.New("顧客名は必須です")
	ErrInvalidStatus        = errors.New("無効な受付状態です")
)
