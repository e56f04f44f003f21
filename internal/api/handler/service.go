package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
)

type ServiceHandler struct {
	service CatalogServiceInterface
}

func NewServiceHandler(s CatalogServiceInterface) *ServiceHandler {
	return &ServiceHandler{service: s}
}

type CreateServiceRequest struct {
	Name            string `json:"name" validate:"required" example:"カット"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1" example:"30"`
	Price           int    `json:"price" validate:"min=0" example:"3000"`
}

type ServiceResponse struct {
	ID              string    `json:"id"`
	ProviderID      string    `json:"provider_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int       `json:"price"`
	CreatedAt       time.Time `json:"created_at"`
}

func toServiceResponse(s *service.Service) ServiceResponse {
	return ServiceResponse{
		ID: s.ID, ProviderID: s.ProviderID, Name: s.Name,
		DurationMinutes: s.DurationMinutes, Price: s.Price, CreatedAt: s.CreatedAt,
	}
}

// Create godoc
// @Summary サービスを登録
// @Description プロバイダーの提供サービスを登録します
// @Tags services
// @Accept json
// @Produce json
// @Param X-User-ID header string true "プロバイダーID"
// @Param request body CreateServiceRequest true "サービス情報"
// @Success 201 {object} ServiceResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /services [post]
func (h *ServiceHandler) Create(c echo.Context) error {
	providerID := c.Request().Header.Get("X-User-ID")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	var req CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	svc, err := h.service.CreateService(c.Request().Context(), application.CreateServiceInput{
		ProviderID:      providerID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toServiceResponse(svc))
}

// GetByID godoc
// @Summary サービスを取得
// @Tags services
// @Produce json
// @Param id path string true "サービスID"
// @Success 200 {object} ServiceResponse
// @Failure 404 {object} map[string]string
// @Router /services/{id} [get]
func (h *ServiceHandler) GetByID(c echo.Context) error {
	svc, err := h.service.GetService(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrServiceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toServiceResponse(svc))
}

// ListByProvider godoc
// @Summary プロバイダーのサービス一覧を取得
// @Tags services
// @Produce json
// @Param provider_id query string true "プロバイダーID"
// @Success 200 {array} ServiceResponse
// @Failure 400 {object} map[string]string
// @Router /services [get]
func (h *ServiceHandler) ListByProvider(c echo.Context) error {
	providerID := c.QueryParam("provider_id")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id は必須です")
	}

	services, err := h.service.GetProviderServices(c.Request().Context(), providerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]ServiceResponse, len(services))
	for i, s := range services {
		resp[i] = toServiceResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}
