package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type HoldSlotRequest struct {
	ProviderID string    `json:"provider_id" validate:"required" example:"provider-123"`
	ServiceID  string    `json:"service_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartAt    time.Time `json:"start_at" validate:"required" example:"2025-06-02T10:00:00Z"`
}

type ConfirmBookingRequest struct {
	BookingID string `json:"booking_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	HoldToken string `json:"hold_token" validate:"required" example:"8b3f2c1a-9d4e-4f6b-a2c8-1e5d7f9b3a6c"`
}

type CreateBookingRequest struct {
	ProviderID string    `json:"provider_id" validate:"required" example:"provider-123"`
	ServiceID  string    `json:"service_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartAt    time.Time `json:"start_at" validate:"required" example:"2025-06-02T10:00:00Z"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected completed" example:"confirmed"`
}

type BookingResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ProviderID    string     `json:"provider_id" example:"provider-123"`
	ServiceID     string     `json:"service_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CustomerID    *string    `json:"customer_id,omitempty"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         time.Time  `json:"end_at"`
	Status        string     `json:"status" example:"held"`
	HoldToken     *string    `json:"hold_token,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	Price         int        `json:"price" example:"3000"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, ProviderID: b.ProviderID, ServiceID: b.ServiceID,
		CustomerID: b.CustomerID, StartAt: b.StartAt, EndAt: b.EndAt,
		Status: string(b.Status), HoldToken: b.HoldToken,
		HoldExpiresAt: b.HoldExpiresAt, Price: b.Price, CreatedAt: b.CreatedAt,
	}
}

// bookingErrorToHTTP はドメインエラーをHTTPエラーに変換する
func bookingErrorToHTTP(err error) error {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrSlotLocked),
		errors.Is(err, booking.ErrHoldExpiredOrInvalid):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrInvalidState):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrProviderIDRequired),
		errors.Is(err, booking.ErrServiceIDRequired),
		errors.Is(err, booking.ErrStartAtRequired),
		errors.Is(err, booking.ErrInvalidTimeRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// Hold godoc
// @Summary スロットを仮押さえ
// @Description 指定スロットの仮押さえを取得します（TTL内に確定が必要）
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string false "顧客ID（ゲストの場合は省略可）"
// @Param request body HoldSlotRequest true "仮押さえ情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "スロットが利用不可または処理中"
// @Router /bookings/hold [post]
func (h *BookingHandler) Hold(c echo.Context) error {
	var req HoldSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var customerID *string
	if userID := c.Request().Header.Get("X-User-ID"); userID != "" {
		customerID = &userID
	}

	b, err := h.service.HoldSlot(c.Request().Context(), application.HoldSlotInput{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		CustomerID: customerID,
		StartAt:    req.StartAt,
	})
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Confirm godoc
// @Summary 仮押さえを確定
// @Description 有効なトークンを持つ仮押さえを確定します
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body ConfirmBookingRequest true "確定情報"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "仮押さえが無効または期限切れ"
// @Router /bookings/confirm [post]
func (h *BookingHandler) Confirm(c echo.Context) error {
	var req ConfirmBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.service.ConfirmBooking(c.Request().Context(), application.ConfirmBookingInput{
		BookingID: req.BookingID,
		HoldToken: req.HoldToken,
	})
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Create godoc
// @Summary 予約を直接作成
// @Description 仮押さえを経由せずに予約を作成します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "顧客ID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		CustomerID: &userID,
		StartAt:    req.StartAt,
	})
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	b, err := h.service.GetBooking(c.Request().Context(), id)
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// List godoc
// @Summary 予約一覧を取得
// @Description ロールに応じて顧客またはプロバイダーの予約一覧を取得します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param X-User-Role header string false "ロール（customer または provider）" default(customer)
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	role := c.Request().Header.Get("X-User-Role")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	var (
		bookings []*booking.Booking
		err      error
	)
	if role == "provider" {
		bookings, err = h.service.GetProviderBookings(c.Request().Context(), userID, limit, offset)
	} else {
		bookings, err = h.service.GetCustomerBookings(c.Request().Context(), userID, limit, offset)
	}
	if err != nil {
		return bookingErrorToHTTP(err)
	}

	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 顧客本人またはプロバイダー本人が予約をキャンセルします
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param X-User-Role header string false "ロール（customer または provider）" default(customer)
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	role := c.Request().Header.Get("X-User-Role")
	if role == "" {
		role = "customer"
	}

	b, err := h.service.CancelBooking(c.Request().Context(), application.CancelBookingInput{
		BookingID:     c.Param("id"),
		RequesterID:   userID,
		RequesterRole: role,
	})
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// UpdateStatus godoc
// @Summary 予約の状態を更新
// @Description プロバイダーが承認待ちの予約を確定・拒否、または確定済みを完了にします
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "プロバイダーID"
// @Param id path string true "予約ID"
// @Param request body UpdateBookingStatusRequest true "遷移先の状態"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	providerID := c.Request().Header.Get("X-User-ID")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	var req UpdateBookingStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.service.UpdateBookingStatus(c.Request().Context(), application.UpdateBookingStatusInput{
		BookingID:  c.Param("id"),
		ProviderID: providerID,
		Next:       booking.Status(req.Status),
	})
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
