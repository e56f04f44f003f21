package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotbook/go-appointment-slot-booking/internal/config"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/booking"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/logger"
	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/metrics"
)

// SlotLocker は (プロバイダー, 開始時刻) 単位の排他ロックのインターフェース
// 取得は set-if-absent、解放はトークン一致時のみ
type SlotLocker interface {
	Acquire(ctx context.Context, providerID string, startAt time.Time, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, providerID string, startAt time.Time, token string) error
}

// EventPublisher は予約イベントを外部へ発行するインターフェース
type EventPublisher interface {
	Publish(ctx context.Context, ev booking.Event) error
}

// BookingService はスロット仮押さえと予約ライフサイクルを管理する
//
// 排他制御はすべてストア側に委譲する：スロットロックの set-if-absent と、
// 予約行への条件付きUPDATE。プロセス内のミューテックスは使わない
type BookingService struct {
	bookingRepo booking.Repository
	serviceRepo service.Repository
	slotLock    SlotLocker
	publisher   EventPublisher // nil の場合イベント発行なし
	queue       *QueueService  // nil の場合受付ボード連携なし
	holdTTL     time.Duration
	autoConfirm bool
	now         func() time.Time
}

// NewBookingService は新しいBookingServiceを作成する
func NewBookingService(br booking.Repository, sr service.Repository, sl SlotLocker, pub EventPublisher, q *QueueService, cfg *config.HoldConfig) *BookingService {
	return &BookingService{
		bookingRepo: br,
		serviceRepo: sr,
		slotLock:    sl,
		publisher:   pub,
		queue:       q,
		holdTTL:     cfg.TTL,
		autoConfirm: cfg.AutoConfirm,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type HoldSlotInput struct {
	ProviderID string
	ServiceID  string
	CustomerID *string // ゲストフローでは nil
	StartAt    time.Time
}

// HoldSlot はスロットの仮押さえを取得する
//
// DB重複チェック → スロットロック取得 → held 行の作成、の順。
// ロック取得後に行の作成が失敗した場合はロックを即時解放する
// （解放に失敗してもTTLで自動回収される）
func (s *BookingService) HoldSlot(ctx context.Context, input HoldSlotInput) (*booking.Booking, error) {
	svc, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("サービス取得に失敗: %w", err)
	}

	now := s.now()
	startAt := input.StartAt.UTC().Truncate(time.Second)
	endAt := startAt.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	// ライブ状態の予約との時間帯重複を確認
	conflict, err := s.bookingRepo.FindOverlapping(ctx, input.ProviderID, startAt, endAt, "")
	if err != nil {
		return nil, fmt.Errorf("重複確認に失敗: %w", err)
	}
	if conflict != nil {
		s.countBooking("conflict")
		return nil, booking.ErrSlotUnavailable
	}

	holdToken := uuid.New().String()

	acquired, err := s.slotLock.Acquire(ctx, input.ProviderID, startAt, holdToken, s.holdTTL)
	if err != nil {
		return nil, fmt.Errorf("スロットロック取得に失敗: %w", err)
	}
	if !acquired {
		s.countBooking("lock_failed")
		return nil, booking.ErrSlotLocked
	}

	// 所要時間と価格は仮押さえ時点のサービス定義で固定する
	b := booking.NewHold(input.ProviderID, input.ServiceID, input.CustomerID, startAt, svc.DurationMinutes, svc.Price, holdToken, s.holdTTL, now)
	if err := b.Validate(); err != nil {
		s.releaseLock(ctx, input.ProviderID, startAt, holdToken)
		return nil, err
	}

	if err := s.bookingRepo.Create(ctx, b); err != nil {
		s.releaseLock(ctx, input.ProviderID, startAt, holdToken)
		return nil, err
	}

	s.countBooking("held")
	s.gaugeActive(booking.StatusHeld, 1)
	return b, nil
}

type ConfirmBookingInput struct {
	BookingID string
	HoldToken string
}

// ConfirmBooking は仮押さえを確定する
//
// (id, token, status=held, 期限内) を条件とする1回の条件付きUPDATEが
// すべての競合（二重確定、期限回収との競合、トークン不一致）を解決する。
// 一致しなければ booking.ErrHoldExpiredOrInvalid
func (s *BookingService) ConfirmBooking(ctx context.Context, input ConfirmBookingInput) (*booking.Booking, error) {
	next := booking.StatusPending
	if s.autoConfirm {
		next = booking.StatusConfirmed
	}

	b, err := s.bookingRepo.ConfirmHold(ctx, input.BookingID, input.HoldToken, next, s.now())
	if err != nil {
		return nil, err
	}

	// ロック解放はベストエフォート（失敗してもTTLで回収される）
	s.releaseLock(ctx, b.ProviderID, b.StartAt, input.HoldToken)

	s.countBooking("confirmed")
	s.gaugeActive(booking.StatusHeld, -1)
	s.gaugeActive(next, 1)

	eventType := booking.EventBookingRequested
	if next == booking.StatusConfirmed {
		eventType = booking.EventBookingConfirmed
		s.appendToQueue(ctx, b)
	}
	s.publish(ctx, eventType, b)

	return b, nil
}

type CancelBookingInput struct {
	BookingID     string
	RequesterID   string
	RequesterRole string
}

// CancelBooking は予約をキャンセルする
//
// 顧客本人またはプロバイダー本人のみ。最終の状態書き込みは読み取った
// 状態を前提条件とし、並行する確定を cancelled で上書きしない
func (s *BookingService) CancelBooking(ctx context.Context, input CancelBookingInput) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	if !b.CanCancelBy(input.RequesterID, input.RequesterRole) {
		return nil, booking.ErrUnauthorized
	}
	if !b.IsLive() {
		return nil, booking.ErrInvalidState
	}

	if b.HoldToken != nil {
		s.releaseLock(ctx, b.ProviderID, b.StartAt, *b.HoldToken)
	}

	updated, err := s.bookingRepo.UpdateStatusFrom(ctx, b.ID, b.Status, booking.StatusCancelled, s.now())
	if err != nil {
		return nil, err
	}

	s.countBooking("cancelled")
	s.gaugeActive(b.Status, -1)
	s.publish(ctx, booking.EventBookingCancelled, updated)

	return updated, nil
}

type CreateBookingInput struct {
	ProviderID string
	ServiceID  string
	CustomerID *string
	StartAt    time.Time
}

// CreateBooking は仮押さえを経由しない直接予約
// HoldSlot と ConfirmBooking の合成として実装する（別経路の排他制御を持たない）
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	held, err := s.HoldSlot(ctx, HoldSlotInput{
		ProviderID: input.ProviderID,
		ServiceID:  input.ServiceID,
		CustomerID: input.CustomerID,
		StartAt:    input.StartAt,
	})
	if err != nil {
		return nil, err
	}
	return s.ConfirmBooking(ctx, ConfirmBookingInput{
		BookingID: held.ID,
		HoldToken: *held.HoldToken,
	})
}

type UpdateBookingStatusInput struct {
	BookingID  string
	ProviderID string
	Next       booking.Status
}

// UpdateBookingStatus はプロバイダーによる運用遷移
// （承認待ち→確定/拒否、確定→完了）
func (s *BookingService) UpdateBookingStatus(ctx context.Context, input UpdateBookingStatusInput) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != input.ProviderID {
		return nil, booking.ErrUnauthorized
	}
	if !b.CanTransitionTo(input.Next) {
		return nil, booking.ErrInvalidState
	}

	updated, err := s.bookingRepo.UpdateStatusFrom(ctx, b.ID, b.Status, input.Next, s.now())
	if err != nil {
		return nil, err
	}

	if b.Status.IsLive() && !input.Next.IsLive() {
		s.gaugeActive(b.Status, -1)
	}
	if input.Next == booking.StatusConfirmed {
		s.gaugeActive(booking.StatusPending, -1)
		s.gaugeActive(booking.StatusConfirmed, 1)
		s.appendToQueue(ctx, updated)
		s.publish(ctx, booking.EventBookingConfirmed, updated)
	}

	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.bookingRepo.GetByCustomerID(ctx, customerID, limit, offset)
}

func (s *BookingService) GetProviderBookings(ctx context.Context, providerID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.bookingRepo.GetByProviderID(ctx, providerID, limit, offset)
}

// ReapExpiredHolds は期限切れの仮押さえを回収する
//
// 二重予約の防止自体は条件付きUPDATEが保証するため、これは放置された
// 仮押さえを有限時間で解放するための機構にすぎない。1件の失敗で残りを
// 止めない。条件付きUPDATEの不一致（確定・キャンセルとの競合）は
// 正常系としてスキップする
func (s *BookingService) ReapExpiredHolds(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.bookingRepo.GetExpiredHeld(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("期限切れ仮押さえの取得に失敗: %w", err)
	}

	count := 0
	for _, h := range expired {
		cancelled, err := s.bookingRepo.ExpireHold(ctx, h.ID, now)
		if err != nil {
			logger.Error("仮押さえの期限回収に失敗", zap.String("booking_id", h.ID), zap.Error(err))
			continue
		}
		if cancelled == nil {
			// 確定またはキャンセルとの競合。相手側がロックを処理する
			logger.Debug("仮押さえは既に解決済み", zap.String("booking_id", h.ID))
			continue
		}

		if h.HoldToken != nil {
			s.releaseLock(ctx, h.ProviderID, h.StartAt, *h.HoldToken)
		}

		s.countBooking("expired")
		s.gaugeActive(booking.StatusHeld, -1)
		count++
	}
	return count, nil
}

// releaseLock はベストエフォートのロック解放
// 失敗はログのみ（TTLが最終的な回収を保証する）
func (s *BookingService) releaseLock(ctx context.Context, providerID string, startAt time.Time, token string) {
	if err := s.slotLock.Release(ctx, providerID, startAt, token); err != nil {
		logger.Warn("スロットロック解放に失敗",
			zap.String("provider_id", providerID),
			zap.Time("start_at", startAt),
			zap.Error(err),
		)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType booking.EventType, b *booking.Booking) {
	if s.publisher == nil {
		return
	}
	ev := booking.NewEvent(uuid.New().String(), eventType, b, s.now())
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("予約イベント発行に失敗",
			zap.String("booking_id", b.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}

func (s *BookingService) appendToQueue(ctx context.Context, b *booking.Booking) {
	if s.queue == nil {
		return
	}
	// 受付ボードへの追加失敗で予約フローは止めない
	if _, err := s.queue.AppendBooking(ctx, b); err != nil {
		logger.Warn("受付ボードへの追加に失敗", zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingService) countBooking(result string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(result).Inc()
	}
}

func (s *BookingService) gaugeActive(status booking.Status, delta float64) {
	if m := metrics.Get(); m != nil {
		m.ActiveBookings.WithLabelValues(string(status)).Add(delta)
	}
}
