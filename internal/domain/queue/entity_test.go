package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWalkIn(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	t.Run("飛び込みエントリを作成できる", func(t *testing.T) {
		entry := NewWalkIn("provider-1", "2025-06-02", "山田太郎", "カット", 45, now)

		assert.Equal(t, "provider-1", entry.ProviderID)
		assert.Equal(t, "2025-06-02", entry.Date)
		assert.Equal(t, "山田太郎", entry.CustomerName)
		assert.Equal(t, "カット", entry.ServiceName)
		assert.Equal(t, 45, entry.DurationMinutes)
		assert.Equal(t, StatusWaiting, entry.Status)
		assert.True(t, entry.IsWalkIn)
		assert.Nil(t, entry.BookingID)
		assert.Equal(t, now, entry.CreatedAt)
	})

	t.Run("所要時間未指定は30分になる", func(t *testing.T) {
		entry := NewWalkIn("provider-1", "2025-06-02", "山田太郎", "カット", 0, now)

		assert.Equal(t, 30, entry.DurationMinutes)
	})
}

func TestEntry_Validate(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	t.Run("正常なエントリ", func(t *testing.T) {
		entry := NewWalkIn("provider-1", "2025-06-02", "山田太郎", "カット", 30, now)

		require.NoError(t, entry.Validate())
	})

	tests := []struct {
		name    string
		entry   *Entry
		wantErr error
	}{
		{"プロバイダーIDなし", &Entry{Date: "2025-06-02", CustomerName: "山田太郎"}, ErrProviderIDRequired},
		{"日付なし", &Entry{ProviderID: "provider-1", CustomerName: "山田太郎"}, ErrDateRequired},
		{"顧客名なし", &Entry{ProviderID: "provider-1", Date: "2025-06-02"}, ErrCustomerNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"待機中", StatusWaiting, true},
		{"対応中", StatusInProgress, true},
		{"完了", StatusCompleted, true},
		{"スキップ", StatusSkipped, true},
		{"キャンセル", StatusCancelled, true},
		{"不在", StatusNoShow, true},
		{"未知の状態", Status("unknown"), false},
		{"空文字", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidStatus(tt.status))
		})
	}
}
