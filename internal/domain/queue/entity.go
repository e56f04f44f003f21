package queue

import "time"

// Status は待ち行列エントリの状態を表す
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Entry はプロバイダーの日次受付ボードの1行を表す
// トークン番号は (providerID, date) ごとに1から連番で採番する
type Entry struct {
	ID         string
	ProviderID string
	// Date は "YYYY-MM-DD" 形式（予約開始時刻のUTC日付）
	Date        string
	TokenNumber int
	// BookingID はオンライン予約の場合のみ設定される
	BookingID *string
	// スナップショット項目（毎回予約をJOINしなくて済むように保持）
	CustomerName    string
	ServiceName     string
	DurationMinutes int
	Status          Status
	StartedAt       *time.Time
	EndedAt         *time.Time
	IsWalkIn        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewWalkIn は飛び込み客のエントリを作成する
func NewWalkIn(providerID, date, customerName, serviceName string, durationMinutes int, now time.Time) *Entry {
	if durationMinutes <= 0 {
		durationMinutes = 30
	}
	return &Entry{
		ProviderID:      providerID,
		Date:            date,
		CustomerName:    customerName,
		ServiceName:     serviceName,
		DurationMinutes: durationMinutes,
		Status:          StatusWaiting,
		IsWalkIn:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate はエントリの検証を行う
func (e *Entry) Validate() error {
	if e.ProviderID == "" {
		return ErrProviderIDRequired
	}
	if e.Date == "" {
		return ErrDateRequired
	}
	if e.CustomerName == "" {
		return ErrCustomerNameRequired
	}
	return nil
}

// ValidStatus は既知の状態かを返す
func ValidStatus(s Status) bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted, StatusSkipped, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}
