// file: internal/services/booking_service.go
package services

import (
	"context"
	"time"

	"agrilink/internal/models"
	"agrilink/internal/repositories"

	"go.uber.org/zap"
)

// bookingService implements BookingService. A booking is accepted only
// when the warehouse has enough free tonnage across every day of the
// requested range.
type bookingService struct {
	repo   repositories.WarehouseRepository
	logger *zap.Logger
}

// NewBookingService creates a new warehouse booking service
func NewBookingService(repo repositories.WarehouseRepository, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, logger: logger}
}

// CreateWarehouse registers a new warehouse listing
func (s *bookingService) CreateWarehouse(ctx context.Context, req *CreateWarehouseRequest) (*models.Warehouse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wh := &models.Warehouse{
		Name:          req.Name,
		District:      req.District,
		CapacityTons:  req.CapacityTons,
		RatePerTonDay: req.RatePerTonDay,
		IsActive:      true,
	}
	if err := s.repo.CreateWarehouse(ctx, wh); err != nil {
		s.logger.Error("Failed to create warehouse", zap.Error(err), zap.String("name", req.Name))
		return nil, NewInternalError("failed to create warehouse")
	}

	s.logger.Info("Warehouse listed",
		zap.Int64("warehouse_id", wh.ID),
		zap.String("district", wh.District),
	)
	return wh, nil
}

// ListWarehouses returns active warehouses with an optional district filter
func (s *bookingService) ListWarehouses(ctx context.Context, district string, page, limit int) (*models.PaginatedResponse[*models.Warehouse], error) {
	page, limit, offset := normalizePage(page, limit)

	warehouses, total, err := s.repo.ListWarehouses(ctx, district, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list warehouses", zap.Error(err))
		return nil, NewInternalError("failed to list warehouses")
	}

	return &models.PaginatedResponse[*models.Warehouse]{
		Data:       warehouses,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}

// SetWarehouseActive activates or deactivates a warehouse. A
// deactivated warehouse disappears from listings and rejects new
// bookings; existing bookings are unaffected.
func (s *bookingService) SetWarehouseActive(ctx context.Context, id int64, active bool) error {
	if id <= 0 {
		return NewValidationError("invalid warehouse ID")
	}

	wh, err := s.repo.GetWarehouseByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load warehouse", zap.Error(err), zap.Int64("warehouse_id", id))
		return NewInternalError("failed to update warehouse")
	}
	if wh == nil {
		return EntityNotFoundError("warehouse", id)
	}

	if err := s.repo.SetWarehouseActive(ctx, id, active); err != nil {
		s.logger.Error("Failed to update warehouse status", zap.Error(err), zap.Int64("warehouse_id", id))
		return NewInternalError("failed to update warehouse")
	}

	s.logger.Info("Warehouse status changed",
		zap.Int64("warehouse_id", id),
		zap.Bool("active", active),
	)
	return nil
}

// CreateBooking reserves tonnage for a date range. The capacity check
// sums every active booking overlapping the range, a conservative bound
// that never overbooks.
func (s *bookingService) CreateBooking(ctx context.Context, farmerID int64, req *CreateBookingRequest) (*models.WarehouseBooking, error) {
	if farmerID <= 0 {
		return nil, NewValidationError("invalid farmer ID")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := validateDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	wh, err := s.repo.GetWarehouseByID(ctx, req.WarehouseID)
	if err != nil {
		s.logger.Error("Failed to load warehouse", zap.Error(err), zap.Int64("warehouse_id", req.WarehouseID))
		return nil, NewInternalError("failed to create booking")
	}
	if wh == nil || !wh.IsActive {
		return nil, EntityNotFoundError("warehouse", req.WarehouseID)
	}
	if req.Tons > wh.CapacityTons {
		return nil, NewBusinessError("requested tonnage exceeds total warehouse capacity", "TONNAGE_TOO_LARGE")
	}

	booked, err := s.repo.BookedTonsInRange(ctx, req.WarehouseID, req.StartDate, req.EndDate)
	if err != nil {
		s.logger.Error("Failed to check booked tonnage", zap.Error(err), zap.Int64("warehouse_id", req.WarehouseID))
		return nil, NewInternalError("failed to create booking")
	}
	if booked+req.Tons > wh.CapacityTons {
		return nil, NewConflictError("warehouse does not have enough free capacity for this period", "CAPACITY_EXCEEDED").
			WithDetails("available_tons", wh.CapacityTons-booked)
	}

	booking := &models.WarehouseBooking{
		Reference:   newReference("WHB"),
		WarehouseID: req.WarehouseID,
		FarmerID:    farmerID,
		Tons:        req.Tons,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      models.BookingStatusActive,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		s.logger.Error("Failed to create booking", zap.Error(err), zap.Int64("farmer_id", farmerID))
		return nil, NewInternalError("failed to create booking")
	}

	s.logger.Info("Warehouse booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Float64("tons", booking.Tons),
	)
	return booking, nil
}

// ListFarmerBookings returns a farmer's bookings, newest first
func (s *bookingService) ListFarmerBookings(ctx context.Context, farmerID int64, page, limit int) (*models.PaginatedResponse[*models.WarehouseBooking], error) {
	if farmerID <= 0 {
		return nil, NewValidationError("invalid farmer ID")
	}
	page, limit, offset := normalizePage(page, limit)

	bookings, total, err := s.repo.ListBookingsByFarmer(ctx, farmerID, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list bookings", zap.Error(err), zap.Int64("farmer_id", farmerID))
		return nil, NewInternalError("failed to list bookings")
	}

	return &models.PaginatedResponse[*models.WarehouseBooking]{
		Data:       bookings,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}

// ReleaseBooking frees the reserved tonnage of an active booking
func (s *bookingService) ReleaseBooking(ctx context.Context, bookingID, farmerID int64) error {
	if bookingID <= 0 {
		return NewValidationError("invalid booking ID")
	}

	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		s.logger.Error("Failed to load booking", zap.Error(err), zap.Int64("booking_id", bookingID))
		return NewInternalError("failed to release booking")
	}
	if booking == nil {
		return EntityNotFoundError("booking", bookingID)
	}
	if booking.FarmerID != farmerID {
		return NewForbiddenError("you may only manage your own bookings")
	}
	if booking.Status != models.BookingStatusActive {
		return NewConflictError("booking is no longer active", "BOOKING_NOT_ACTIVE").
			WithDetails("status", booking.Status)
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.BookingStatusReleased); err != nil {
		s.logger.Error("Failed to release booking", zap.Error(err), zap.Int64("booking_id", bookingID))
		return NewInternalError("failed to release booking")
	}
	return nil
}

func validateDateOrder(startDate, endDate string) error {
	start, err := time.Parse(rentalDateLayout, startDate)
	if err != nil {
		return NewValidationError("invalid start date")
	}
	end, err := time.Parse(rentalDateLayout, endDate)
	if err != nil {
		return NewValidationError("invalid end date")
	}
	if end.Before(start) {
		return NewValidationError("end date must not be before start date")
	}
	return nil
}
