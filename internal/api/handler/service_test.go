package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
)

// MockCatalogService はCatalogServiceInterfaceのモック
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateService(ctx context.Context, input application.CreateServiceInput) (*service.Service, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Service), args.Error(1)
}

func (m *MockCatalogService) GetService(ctx context.Context, id string) (*service.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Service), args.Error(1)
}

func (m *MockCatalogService) GetProviderServices(ctx context.Context, providerID string) ([]*service.Service, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.Service), args.Error(1)
}

func testCatalogService() *service.Service {
	return &service.Service{
		ID:              "service-1",
		ProviderID:      "provider-123",
		Name:            "カット",
		DurationMinutes: 30,
		Price:           3000,
		CreatedAt:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestServiceHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にサービスを登録できる", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("CreateService", mock.Anything, application.CreateServiceInput{
			ProviderID:      "provider-123",
			Name:            "カット",
			DurationMinutes: 30,
			Price:           3000,
		}).Return(testCatalogService(), nil)

		handler := NewServiceHandler(mockService)

		reqBody := `{"name": "カット", "duration_minutes": 30, "price": 3000}`
		req := httptest.NewRequest(http.MethodPost, "/services", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "provider-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp ServiceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "service-1", resp.ID)
		assert.Equal(t, 30, resp.DurationMinutes)
		mockService.AssertExpectations(t)
	})

	t.Run("ユーザーIDがない場合は401", func(t *testing.T) {
		mockService := new(MockCatalogService)
		handler := NewServiceHandler(mockService)

		reqBody := `{"name": "カット", "duration_minutes": 30, "price": 3000}`
		req := httptest.NewRequest(http.MethodPost, "/services", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		mockService.AssertNotCalled(t, "CreateService")
	})

	t.Run("サービス名がない場合はバリデーションエラー", func(t *testing.T) {
		mockService := new(MockCatalogService)
		handler := NewServiceHandler(mockService)

		reqBody := `{"duration_minutes": 30, "price": 3000}`
		req := httptest.NewRequest(http.MethodPost, "/services", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "provider-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		mockService.AssertNotCalled(t, "CreateService")
	})
}

func TestServiceHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にサービスを取得できる", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("GetService", mock.Anything, "service-1").Return(testCatalogService(), nil)

		handler := NewServiceHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/services/service-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("service-1")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ServiceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "カット", resp.Name)
	})

	t.Run("存在しないサービスは404", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("GetService", mock.Anything, "unknown").Return(nil, service.ErrServiceNotFound)

		handler := NewServiceHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/services/unknown", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("unknown")

		err := handler.GetByID(c)

		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})
}

func TestServiceHandler_ListByProvider(t *testing.T) {
	e := NewTestEcho()

	t.Run("プロバイダーのサービス一覧を取得できる", func(t *testing.T) {
		mockService := new(MockCatalogService)
		services := []*service.Service{
			testCatalogService(),
			{ID: "service-2", ProviderID: "provider-123", Name: "カラー", DurationMinutes: 90, Price: 12000},
		}
		mockService.On("GetProviderServices", mock.Anything, "provider-123").Return(services, nil)

		handler := NewServiceHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/services?provider_id=provider-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.ListByProvider(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []ServiceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "カラー", resp[1].Name)
	})

	t.Run("provider_idがない場合は400", func(t *testing.T) {
		mockService := new(MockCatalogService)
		handler := NewServiceHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/services", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.ListByProvider(c)

		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		mockService.AssertNotCalled(t, "GetProviderServices")
	})
}
