package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound = errors.New("予約が見つかりません")

	// ErrSlotUnavailable はライブ状態の予約が時間帯に重なっている場合のエラー
	// 同じ入力でリトライしても成功しない
	ErrSlotUnavailable = errors.New("この時間帯は既に予約または仮押さえされています")

	// ErrSlotLocked はスロットロックの競合（一時的）
	// 既存の保持者が期限前に完了する可能性があるため、同じスロットの自動リトライはしない
	ErrSlotLocked = errors.New("この時間帯は他のユーザーが操作中です")

	// ErrHoldExpiredOrInvalid は期限切れ・トークン不一致・遷移済みの仮押さえへの操作
	ErrHoldExpiredOrInvalid = errors.New("仮押さえが無効または期限切れです。時間帯を選び直してください")

	// ErrInvalidState は終端状態の予約への操作
	ErrInvalidState = errors.New("この状態の予約には実行できない操作です")

	// ErrUnauthorized はリクエスターに遷移の権限がない場合のエラー
	ErrUnauthorized = errors.New("この予約を操作する権限がありません")

	ErrProviderIDRequired = errors.New("プロバイダーIDは必須です")
	ErrServiceIDRequired  = errors.New("サービスIDは必須です")
	ErrStartAtRequired    = errors.New("開始時刻は必須です")
	ErrInvalidTimeRange   = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrHoldTokenRequired  = errors.New("仮押さえにはホールドトークンと期限が必要です")
)
