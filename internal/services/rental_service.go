// file: internal/services/rental_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"agrilink/internal/models"
	"agrilink/internal/repositories"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const rentalDateLayout = "2006-01-02"

// rentalService implements RentalService. Booking a rental detects
// date-range conflicts against existing active rentals and rejects them
// with a conflict error.
type rentalService struct {
	repo   repositories.EquipmentRepository
	logger *zap.Logger
}

// NewRentalService creates a new rental service
func NewRentalService(repo repositories.EquipmentRepository, logger *zap.Logger) RentalService {
	return &rentalService{repo: repo, logger: logger}
}

// CreateEquipment registers a new rentable equipment listing
func (s *rentalService) CreateEquipment(ctx context.Context, req *CreateEquipmentRequest) (*models.Equipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	eq := &models.Equipment{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		DailyRate:   req.DailyRate,
		District:    req.District,
		IsAvailable: true,
	}
	if err := s.repo.CreateEquipment(ctx, eq); err != nil {
		s.logger.Error("Failed to create equipment", zap.Error(err), zap.String("name", req.Name))
		return nil, NewInternalError("failed to create equipment listing")
	}

	s.logger.Info("Equipment listed",
		zap.Int64("equipment_id", eq.ID),
		zap.String("category", eq.Category),
	)
	return eq, nil
}

// ListEquipment returns available equipment with optional filters
func (s *rentalService) ListEquipment(ctx context.Context, district, category string, page, limit int) (*models.PaginatedResponse[*models.Equipment], error) {
	page, limit, offset := normalizePage(page, limit)

	items, total, err := s.repo.ListEquipment(ctx, district, category, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list equipment", zap.Error(err))
		return nil, NewInternalError("failed to list equipment")
	}

	return &models.PaginatedResponse[*models.Equipment]{
		Data:       items,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}

// CreateRental books equipment for a date range. Overlapping active
// rentals for the same equipment are rejected with a conflict.
// SetEquipmentAvailable marks equipment as available or withdrawn.
// Withdrawn equipment disappears from listings and rejects new rentals;
// rentals already booked run to completion.
func (s *rentalService) SetEquipmentAvailable(ctx context.Context, id int64, available bool) error {
	if id <= 0 {
		return NewValidationError("invalid equipment ID")
	}

	eq, err := s.repo.GetEquipmentByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load equipment", zap.Error(err), zap.Int64("equipment_id", id))
		return NewInternalError("failed to update equipment")
	}
	if eq == nil {
		return EntityNotFoundError("equipment", id)
	}

	if err := s.repo.SetEquipmentAvailable(ctx, id, available); err != nil {
		s.logger.Error("Failed to update equipment availability", zap.Error(err), zap.Int64("equipment_id", id))
		return NewInternalError("failed to update equipment")
	}

	s.logger.Info("Equipment availability changed",
		zap.Int64("equipment_id", id),
		zap.Bool("available", available),
	)
	return nil
}

func (s *rentalService) CreateRental(ctx context.Context, farmerID int64, req *CreateRentalRequest) (*models.EquipmentRental, error) {
	if farmerID <= 0 {
		return nil, NewValidationError("invalid farmer ID")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	days, err := rentalDays(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	eq, err := s.repo.GetEquipmentByID(ctx, req.EquipmentID)
	if err != nil {
		s.logger.Error("Failed to load equipment", zap.Error(err), zap.Int64("equipment_id", req.EquipmentID))
		return nil, NewInternalError("failed to book rental")
	}
	if eq == nil || !eq.IsAvailable {
		return nil, EntityNotFoundError("equipment", req.EquipmentID)
	}

	overlaps, err := s.repo.HasOverlappingRental(ctx, req.EquipmentID, req.StartDate, req.EndDate)
	if err != nil {
		s.logger.Error("Failed to check rental overlap", zap.Error(err), zap.Int64("equipment_id", req.EquipmentID))
		return nil, NewInternalError("failed to book rental")
	}
	if overlaps {
		return nil, NewConflictError("equipment is already rented for part of this period", "RENTAL_DATE_CONFLICT").
			WithDetails("start_date", req.StartDate).
			WithDetails("end_date", req.EndDate)
	}

	rental := &models.EquipmentRental{
		Reference:   newReference("RNT"),
		EquipmentID: req.EquipmentID,
		FarmerID:    farmerID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalCost:   float64(days) * eq.DailyRate,
		Status:      models.RentalStatusActive,
	}
	if err := s.repo.CreateRental(ctx, rental); err != nil {
		s.logger.Error("Failed to create rental", zap.Error(err), zap.Int64("farmer_id", farmerID))
		return nil, NewInternalError("failed to book rental")
	}

	s.logger.Info("Rental booked",
		zap.Int64("rental_id", rental.ID),
		zap.String("reference", rental.Reference),
		zap.Int64("equipment_id", req.EquipmentID),
	)
	return rental, nil
}

// ListFarmerRentals returns a farmer's rentals, newest first
func (s *rentalService) ListFarmerRentals(ctx context.Context, farmerID int64, page, limit int) (*models.PaginatedResponse[*models.EquipmentRental], error) {
	if farmerID <= 0 {
		return nil, NewValidationError("invalid farmer ID")
	}
	page, limit, offset := normalizePage(page, limit)

	rentals, total, err := s.repo.ListRentalsByFarmer(ctx, farmerID, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list rentals", zap.Error(err), zap.Int64("farmer_id", farmerID))
		return nil, NewInternalError("failed to list rentals")
	}

	return &models.PaginatedResponse[*models.EquipmentRental]{
		Data:       rentals,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}

// ReturnRental marks an active rental as returned
func (s *rentalService) ReturnRental(ctx context.Context, rentalID, farmerID int64) error {
	return s.closeRental(ctx, rentalID, farmerID, models.RentalStatusReturned)
}

// CancelRental cancels an active rental
func (s *rentalService) CancelRental(ctx context.Context, rentalID, farmerID int64) error {
	return s.closeRental(ctx, rentalID, farmerID, models.RentalStatusCancelled)
}

func (s *rentalService) closeRental(ctx context.Context, rentalID, farmerID int64, status string) error {
	if rentalID <= 0 {
		return NewValidationError("invalid rental ID")
	}

	rental, err := s.repo.GetRentalByID(ctx, rentalID)
	if err != nil {
		s.logger.Error("Failed to load rental", zap.Error(err), zap.Int64("rental_id", rentalID))
		return NewInternalError("failed to update rental")
	}
	if rental == nil {
		return EntityNotFoundError("rental", rentalID)
	}
	if rental.FarmerID != farmerID {
		return NewForbiddenError("you may only manage your own rentals")
	}
	if rental.Status != models.RentalStatusActive {
		return NewConflictError("rental is no longer active", "RENTAL_NOT_ACTIVE").
			WithDetails("status", rental.Status)
	}

	if err := s.repo.UpdateRentalStatus(ctx, rentalID, status); err != nil {
		s.logger.Error("Failed to update rental status", zap.Error(err), zap.Int64("rental_id", rentalID))
		return NewInternalError("failed to update rental")
	}
	return nil
}

// rentalDays validates the ordering of a rental period and returns its
// length in days, inclusive of both endpoints.
func rentalDays(startDate, endDate string) (int, error) {
	start, err := time.Parse(rentalDateLayout, startDate)
	if err != nil {
		return 0, NewValidationError("invalid start date")
	}
	end, err := time.Parse(rentalDateLayout, endDate)
	if err != nil {
		return 0, NewValidationError("invalid end date")
	}
	if end.Before(start) {
		return 0, NewValidationError("end date must not be before start date")
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// newReference builds a short human-readable booking reference
func newReference(prefix string) string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String()[:8])
}
