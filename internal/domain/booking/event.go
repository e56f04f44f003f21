package booking

import "time"

// EventType は予約イベントの種別
type EventType string

const (
	EventBookingRequested EventType = "booking.requested"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
)

// Event は確定・キャンセル時に外部へ通知するメッセージ
// ステートフルな通知シングルトンを呼ぶのではなく、値として発行する
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	BookingID  string    `json:"booking_id"`
	ProviderID string    `json:"provider_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	ServiceID  string    `json:"service_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent は予約からイベント値を生成する
func NewEvent(id string, eventType EventType, b *Booking, now time.Time) Event {
	ev := Event{
		ID:         id,
		Type:       eventType,
		BookingID:  b.ID,
		ProviderID: b.ProviderID,
		ServiceID:  b.ServiceID,
		StartAt:    b.StartAt,
		EndAt:      b.EndAt,
		Status:     b.Status,
		OccurredAt: now,
	}
	if b.CustomerID != nil {
		ev.CustomerID = *b.CustomerID
	}
	return ev
}
