package booking

import (
	"context"
	"time"
)

// Repository は予約リポジトリのインターフェース
// 状態遷移は条件付きUPDATE（一致しない場合はエラーではなく不一致を返す）で行い、
// 複数ライターの競合をストア側の原子性で解決する
type Repository interface {
	// Create は新しい予約を作成する
	Create(ctx context.Context, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// FindOverlapping はライブ状態で時間帯が重なる予約を1件返す（なければ nil, nil）
	// excludeHoldToken が空でない場合、そのトークンを持つ自身の仮押さえは除外する
	FindOverlapping(ctx context.Context, providerID string, startAt, endAt time.Time, excludeHoldToken string) (*Booking, error)

	// ConfirmHold は (id, holdToken, status=held, 期限内) に一致する予約を
	// next に遷移させ、トークンと期限をクリアする。一致しない場合は
	// ErrHoldExpiredOrInvalid を返す。この1回の条件付きUPDATEが競合解決の要
	ConfirmHold(ctx context.Context, id, holdToken string, next Status, now time.Time) (*Booking, error)

	// UpdateStatusFrom は現在の状態が from の場合のみ to へ遷移させる
	// 一致しない場合は ErrInvalidState を返す
	UpdateStatusFrom(ctx context.Context, id string, from, to Status, now time.Time) (*Booking, error)

	// ExpireHold は (id, status=held) に一致する予約を cancelled にする
	// 一致しない場合は (nil, nil) を返す（確定・キャンセルとの競合は想定内）
	ExpireHold(ctx context.Context, id string, now time.Time) (*Booking, error)

	// GetExpiredHeld は期限切れの仮押さえを取得する
	GetExpiredHeld(ctx context.Context, now time.Time) ([]*Booking, error)

	// GetByCustomerID は顧客の予約一覧を取得する
	GetByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*Booking, error)

	// GetByProviderID はプロバイダーの予約一覧を取得する
	GetByProviderID(ctx context.Context, providerID string, limit, offset int) ([]*Booking, error)
}
