package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	// StatusHeld は仮押さえ中（ホールドトークンと期限を持つ唯一の状態）
	StatusHeld Status = "held"
	// StatusPending はプロバイダー承認待ち
	StatusPending Status = "pending"
	// StatusConfirmed は確定済み
	StatusConfirmed Status = "confirmed"
	// StatusCompleted は実施完了（終端状態）
	StatusCompleted Status = "completed"
	// StatusCancelled はキャンセル済み（終端状態）
	StatusCancelled Status = "cancelled"
	// StatusRejected はプロバイダーによる拒否（終端状態）
	StatusRejected Status = "rejected"
)

// LiveStatuses は他の予約をブロックする状態の一覧
// SQLのIN句と同じ順序で保持する
var LiveStatuses = []Status{StatusHeld, StatusPending, StatusConfirmed}

// IsLive は他の予約をブロックする状態かを返す
func (s Status) IsLive() bool {
	return s == StatusHeld || s == StatusPending || s == StatusConfirmed
}

// IsTerminal は終端状態かを返す
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Booking は予約エンティティを表す
// StartAt/EndAt はUTC。所要時間と価格は仮押さえ時点のサービス定義を固定する
// （仮押さえ後にカタログが編集されても既存の予約には影響しない）
type Booking struct {
	ID            string
	ProviderID    string
	ServiceID     string
	CustomerID    *string // ゲストフローでは確定まで null の場合がある
	StartAt       time.Time
	EndAt         time.Time
	Status        Status
	HoldToken     *string    // status=held の間のみ非null
	HoldExpiresAt *time.Time // status=held の間のみ非null
	Price         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewHold は仮押さえ状態の新しい予約を作成する
func NewHold(providerID, serviceID string, customerID *string, startAt time.Time, durationMinutes, price int, holdToken string, holdTTL time.Duration, now time.Time) *Booking {
	startAt = startAt.UTC().Truncate(time.Second)
	expiresAt := now.Add(holdTTL)
	return &Booking{
		ProviderID:    providerID,
		ServiceID:     serviceID,
		CustomerID:    customerID,
		StartAt:       startAt,
		EndAt:         startAt.Add(time.Duration(durationMinutes) * time.Minute),
		Status:        StatusHeld,
		HoldToken:     &holdToken,
		HoldExpiresAt: &expiresAt,
		Price:         price,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsLive は予約が他の予約をブロックする状態かを返す
func (b *Booking) IsLive() bool {
	return b.Status.IsLive()
}

// IsHoldExpired は仮押さえの期限が切れているかを返す
func (b *Booking) IsHoldExpired(now time.Time) bool {
	if b.Status != StatusHeld || b.HoldExpiresAt == nil {
		return true
	}
	return !b.HoldExpiresAt.After(now)
}

// CanCancelBy はリクエスターがこの予約をキャンセルできるかを返す
// 顧客本人またはプロバイダー本人のみ許可
func (b *Booking) CanCancelBy(requesterID, requesterRole string) bool {
	switch requesterRole {
	case "customer":
		return b.CustomerID != nil && *b.CustomerID == requesterID
	case "provider":
		return b.ProviderID == requesterID
	}
	return false
}

// CanTransitionTo はプロバイダー操作による状態遷移が許可されるかを返す
func (b *Booking) CanTransitionTo(next Status) bool {
	switch b.Status {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRejected
	case StatusConfirmed:
		return next == StatusCompleted
	}
	return false
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.ProviderID == "" {
		return ErrProviderIDRequired
	}
	if b.ServiceID == "" {
		return ErrServiceIDRequired
	}
	if b.StartAt.IsZero() {
		return ErrStartAtRequired
	}
	if !b.EndAt.After(b.StartAt) {
		return ErrInvalidTimeRange
	}
	if b.Status == StatusHeld && (b.HoldToken == nil || b.HoldExpiresAt == nil) {
		return ErrHoldTokenRequired
	}
	return nil
}
