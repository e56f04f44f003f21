package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/booking"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/queue"
)

type QueueHandler struct {
	service QueueServiceInterface
}

func NewQueueHandler(s QueueServiceInterface) *QueueHandler {
	return &QueueHandler{service: s}
}

type AddWalkInRequest struct {
	CustomerName    string `json:"customer_name" validate:"required" example:"山田太郎"`
	ServiceName     string `json:"service_name" validate:"required" example:"カット"`
	DurationMinutes int    `json:"duration_minutes" example:"30"`
}

type UpdateQueueEntryRequest struct {
	Status string `json:"status" validate:"required" example:"in_progress"`
}

type QueueEntryResponse struct {
	ID              string     `json:"id"`
	ProviderID      string     `json:"provider_id"`
	Date            string     `json:"date" example:"2025-06-02"`
	TokenNumber     int        `json:"token_number" example:"3"`
	BookingID       *string    `json:"booking_id,omitempty"`
	CustomerName    string     `json:"customer_name"`
	ServiceName     string     `json:"service_name"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status" example:"waiting"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	IsWalkIn        bool       `json:"is_walk_in"`
}

func toQueueEntryResponse(e *queue.Entry) QueueEntryResponse {
	return QueueEntryResponse{
		ID: e.ID, ProviderID: e.ProviderID, Date: e.Date,
		TokenNumber: e.TokenNumber, BookingID: e.BookingID,
		CustomerName: e.CustomerName, ServiceName: e.ServiceName,
		DurationMinutes: e.DurationMinutes, Status: string(e.Status),
		StartedAt: e.StartedAt, EndedAt: e.EndedAt, IsWalkIn: e.IsWalkIn,
	}
}

func queueErrorToHTTP(err error) error {
	switch {
	case errors.Is(err, queue.ErrEntryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, queue.ErrInvalidStatus),
		errors.Is(err, queue.ErrCustomerNameRequired),
		errors.Is(err, queue.ErrProviderIDRequired),
		errors.Is(err, queue.ErrDateRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// AddWalkIn godoc
// @Summary 飛び込み客を受付
// @Description 当日の受付ボードに飛び込み客を追加し整理券番号を発行します
// @Tags queue
// @Accept json
// @Produce json
// @Param X-User-ID header string true "プロバイダーID"
// @Param request body AddWalkInRequest true "飛び込み情報"
// @Success 201 {object} QueueEntryResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /queue/walk-in [post]
func (h *QueueHandler) AddWalkIn(c echo.Context) error {
	providerID := c.Request().Header.Get("X-User-ID")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	var req AddWalkInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.service.AddWalkIn(c.Request().Context(), application.AddWalkInInput{
		ProviderID:      providerID,
		CustomerName:    req.CustomerName,
		ServiceName:     req.ServiceName,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return queueErrorToHTTP(err)
	}
	return c.JSON(http.StatusCreated, toQueueEntryResponse(entry))
}

// GetBoard godoc
// @Summary 日次受付ボードを取得
// @Description 指定日の受付ボードを整理券番号順で取得します（省略時は当日）
// @Tags queue
// @Produce json
// @Param X-User-ID header string true "プロバイダーID"
// @Param date query string false "日付（YYYY-MM-DD）"
// @Success 200 {array} QueueEntryResponse
// @Failure 401 {object} map[string]string
// @Router /queue [get]
func (h *QueueHandler) GetBoard(c echo.Context) error {
	providerID := c.Request().Header.Get("X-User-ID")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	entries, err := h.service.GetDailyBoard(c.Request().Context(), providerID, c.QueryParam("date"))
	if err != nil {
		return queueErrorToHTTP(err)
	}

	resp := make([]QueueEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toQueueEntryResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateStatus godoc
// @Summary 受付エントリの状態を更新
// @Description 受付エントリの進行状態を更新します
// @Tags queue
// @Accept json
// @Produce json
// @Param X-User-ID header string true "プロバイダーID"
// @Param id path string true "エントリID"
// @Param request body UpdateQueueEntryRequest true "遷移先の状態"
// @Success 200 {object} QueueEntryResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /queue/{id}/status [patch]
func (h *QueueHandler) UpdateStatus(c echo.Context) error {
	providerID := c.Request().Header.Get("X-User-ID")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	var req UpdateQueueEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.service.UpdateEntryStatus(c.Request().Context(), application.UpdateEntryStatusInput{
		EntryID:    c.Param("id"),
		ProviderID: providerID,
		Status:     queue.Status(req.Status),
	})
	if err != nil {
		return queueErrorToHTTP(err)
	}
	return c.JSON(http.StatusOK, toQueueEntryResponse(entry))
}
