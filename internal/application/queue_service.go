package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/slotbook/go-appointment-slot-booking/internal/domain/booking"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/queue"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/transaction"
	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/logger"
)

// QueueService は日次の受付ボード（整理券）を管理する
//
// 整理券番号は (プロバイダー, 日付) ごとに1から振る。採番と行作成を
// 同一トランザクションで行い、番号の重複をUNIQUE制約で防ぐ
type QueueService struct {
	queueRepo   queue.Repository
	bookingRepo booking.Repository
	serviceRepo service.Repository
	txManager   transaction.Manager
	now         func() time.Time
}

// NewQueueService は新しいQueueServiceを作成する
func NewQueueService(qr queue.Repository, br booking.Repository, sr service.Repository, tm transaction.Manager) *QueueService {
	return &QueueService{
		queueRepo:   qr,
		bookingRepo: br,
		serviceRepo: sr,
		txManager:   tm,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AppendBooking は確定済み予約を当日の受付ボードに追加する
// 同じ予約を二度追加しない（冪等）
func (s *QueueService) AppendBooking(ctx context.Context, b *booking.Booking) (*queue.Entry, error) {
	existing, err := s.queueRepo.GetByBookingID(ctx, b.ID)
	if err != nil && !errors.Is(err, queue.ErrEntryNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	svc, err := s.serviceRepo.GetByID(ctx, b.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("サービス取得に失敗: %w", err)
	}

	customerName := "予約客"
	if b.CustomerID != nil {
		customerName = *b.CustomerID
	}

	now := s.now()
	entry := &queue.Entry{
		ProviderID:      b.ProviderID,
		Date:            b.StartAt.UTC().Format("2006-01-02"),
		BookingID:       &b.ID,
		CustomerName:    customerName,
		ServiceName:     svc.Name,
		DurationMinutes: svc.DurationMinutes,
		Status:          queue.StatusWaiting,
		IsWalkIn:        false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.createWithToken(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

type AddWalkInInput struct {
	ProviderID      string
	CustomerName    string
	ServiceName     string
	DurationMinutes int
}

// AddWalkIn は飛び込み客を当日の受付ボードに追加する
func (s *QueueService) AddWalkIn(ctx context.Context, input AddWalkInInput) (*queue.Entry, error) {
	now := s.now()
	entry := queue.NewWalkIn(input.ProviderID, now.Format("2006-01-02"), input.CustomerName, input.ServiceName, input.DurationMinutes, now)
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.createWithToken(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// createWithToken は採番と行作成を単一トランザクションで行う
func (s *QueueService) createWithToken(ctx context.Context, entry *queue.Entry) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil {
			logger.Debug("ロールバックをスキップ", zap.Error(err))
		}
	}()

	tokenNumber, err := s.queueRepo.NextTokenNumber(ctx, tx, entry.ProviderID, entry.Date)
	if err != nil {
		return fmt.Errorf("整理券番号の採番に失敗: %w", err)
	}
	entry.TokenNumber = tokenNumber

	if err := s.queueRepo.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("受付エントリ作成に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// GetDailyBoard は指定日の受付ボードを整理券番号順で返す
func (s *QueueService) GetDailyBoard(ctx context.Context, providerID, date string) ([]*queue.Entry, error) {
	if date == "" {
		date = s.now().Format("2006-01-02")
	}
	return s.queueRepo.GetDaily(ctx, providerID, date)
}

type UpdateEntryStatusInput struct {
	EntryID    string
	ProviderID string
	Status     queue.Status
}

// UpdateEntryStatus は受付エントリの進行状態を更新する
// in_progress への遷移で開始時刻、completed への遷移で終了時刻を記録し、
// 予約由来のエントリが completed になったら予約本体も完了へ遷移させる
func (s *QueueService) UpdateEntryStatus(ctx context.Context, input UpdateEntryStatusInput) (*queue.Entry, error) {
	if !queue.ValidStatus(input.Status) {
		return nil, queue.ErrInvalidStatus
	}

	entry, err := s.queueRepo.GetByID(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	if entry.ProviderID != input.ProviderID {
		return nil, booking.ErrUnauthorized
	}

	now := s.now()
	var startedAt, endedAt *time.Time
	switch input.Status {
	case queue.StatusInProgress:
		startedAt = &now
	case queue.StatusCompleted:
		endedAt = &now
	}

	updated, err := s.queueRepo.UpdateStatus(ctx, input.EntryID, input.Status, startedAt, endedAt)
	if err != nil {
		return nil, err
	}

	if input.Status == queue.StatusCompleted && updated.BookingID != nil {
		if _, err := s.bookingRepo.UpdateStatusFrom(ctx, *updated.BookingID, booking.StatusConfirmed, booking.StatusCompleted, now); err != nil {
			// 既に完了済み等は許容する
			logger.Warn("予約の完了遷移に失敗", zap.String("booking_id", *updated.BookingID), zap.Error(err))
		}
	}

	return updated, nil
}
