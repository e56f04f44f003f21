package queue

import (
	"context"
	"time"

	"github.com/slotbook/go-appointment-slot-booking/internal/domain/transaction"
)

// Repository は受付ボードリポジトリのインターフェース
type Repository interface {
	// Create は新しいエントリを作成する（トークン採番と同一トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, e *Entry) error

	// NextTokenNumber は (providerID, date) の次のトークン番号を採番する
	// 同時採番の衝突はDBの一意制約で検出する
	NextTokenNumber(ctx context.Context, tx transaction.Tx, providerID, date string) (int, error)

	// GetByID はIDからエントリを取得する
	GetByID(ctx context.Context, id string) (*Entry, error)

	// GetByBookingID は予約IDに紐づくエントリを取得する
	GetByBookingID(ctx context.Context, bookingID string) (*Entry, error)

	// GetDaily は (providerID, date) のエントリ一覧をトークン番号順で取得する
	GetDaily(ctx context.Context, providerID, date string) ([]*Entry, error)

	// UpdateStatus はエントリの状態と時刻を更新する
	UpdateStatus(ctx context.Context, id string, status Status, startedAt, endedAt *time.Time) (*Entry, error)
}
