package handler

import (
	"context"

	"github.com/slotbook/go-appointment-slot-booking/internal/application"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/booking"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/queue"
	"github.com/slotbook/go-appointment-slot-booking/internal/domain/service"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	HoldSlot(ctx context.Context, input application.HoldSlotInput) (*booking.Booking, error)
	ConfirmBooking(ctx context.Context, input application.ConfirmBookingInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, input application.CancelBookingInput) (*booking.Booking, error)
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	UpdateBookingStatus(ctx context.Context, input application.UpdateBookingStatusInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	GetCustomerBookings(ctx context.Context, customerID string, limit, offset int) ([]*booking.Booking, error)
	GetProviderBookings(ctx context.Context, providerID string, limit, offset int) ([]*booking.Booking, error)
}

// QueueServiceInterface は受付ボードサービスのインターフェース
type QueueServiceInterface interface {
	AddWalkIn(ctx context.Context, input application.AddWalkInInput) (*queue.Entry, error)
	GetDailyBoard(ctx context.Context, providerID, date string) ([]*queue.Entry, error)
	UpdateEntryStatus(ctx context.Context, input application.UpdateEntryStatusInput) (*queue.Entry, error)
}

// CatalogServiceInterface はサービスカタログのインターフェース
type CatalogServiceInterface interface {
	CreateService(ctx context.Context, input application.CreateServiceInput) (*service.Service, error)
	GetService(ctx context.Context, id string) (*service.Service, error)
	GetProviderServices(ctx context.Context, providerID string) ([]*service.Service, error)
}
