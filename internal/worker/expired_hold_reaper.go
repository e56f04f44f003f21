package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/logger"
)

// HoldReaper は期限切れの仮押さえを回収するインターフェース
type HoldReaper interface {
	ReapExpiredHolds(ctx context.Context) (int, error)
}

// ExpiredHoldReaper は期限切れ仮押さえを定期回収するワーカー
//
// 回収は正しさの前提ではなく在庫解放の仕組みであり、確定処理との競合は
// ストア側の条件付きUPDATEが解決する
type ExpiredHoldReaper struct {
	bookingService HoldReaper
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewExpiredHoldReaper は新しいリーパーを作成
func NewExpiredHoldReaper(bs HoldReaper, interval time.Duration) *ExpiredHoldReaper {
	return &ExpiredHoldReaper{
		bookingService: bs,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はリーパーを開始
func (r *ExpiredHoldReaper) Start(ctx context.Context) {
	logger.Info("期限切れ仮押さえリーパー開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ仮押さえリーパー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("期限切れ仮押さえリーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

// Stop はリーパーを停止
func (r *ExpiredHoldReaper) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// reap は期限切れ仮押さえを回収
func (r *ExpiredHoldReaper) reap(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れ仮押さえの回収開始")

	count, err := r.bookingService.ReapExpiredHolds(ctx)
	if err != nil {
		log.Error("期限切れ仮押さえの回収失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("期限切れ仮押さえを回収", zap.Int("count", count))
	} else {
		log.Debug("期限切れ仮押さえなし")
	}
}
