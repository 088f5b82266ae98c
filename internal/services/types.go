// file: internal/services/types.go
package services

import (
	"errors"

	"agrilink/internal/models"
	"agrilink/internal/validation"
)

// ===============================
// AUTH TYPES
// ===============================

// RegisterRequest carries new account details
type RegisterRequest struct {
	Email     string   `json:"email" validate:"required,email,max=320"`
	Phone     string   `json:"phone" validate:"required,min=7,max=20"`
	Password  string   `json:"password" validate:"required,min=8,max=128"`
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name" validate:"required,max=100"`
	District  *string  `json:"district,omitempty" validate:"omitempty,max=100"`
	FarmSize  *float64 `json:"farm_size_acres,omitempty" validate:"omitempty,gte=0"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse carries issued tokens and the authenticated user
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

// ===============================
// SOIL TESTING TYPES
// ===============================

// CreateCenterRequest carries a new soil test center
type CreateCenterRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	District      string `json:"district" validate:"required,max=100"`
	Address       string `json:"address" validate:"required,max=500"`
	ContactPhone  string `json:"contact_phone" validate:"omitempty,max=20"`
	DailyCapacity int    `json:"daily_capacity" validate:"gte=1"`
}

// CreateSoilTestRequest carries a farmer's soil test request
type CreateSoilTestRequest struct {
	CenterID int64   `json:"center_id" validate:"required,gt=0"`
	CropType string  `json:"crop_type" validate:"required,max=100"`
	PlotSize float64 `json:"plot_size_acres" validate:"gt=0"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ScheduleSoilTestRequest confirms an appointment date for a pending request
type ScheduleSoilTestRequest struct {
	RequestID     int64  `json:"request_id" validate:"required,gt=0"`
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
}

// ===============================
// EQUIPMENT RENTAL TYPES
// ===============================

// CreateEquipmentRequest carries a new equipment listing
type CreateEquipmentRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Category    string  `json:"category" validate:"required,oneof=tractor harvester planter sprayer tillage other"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	DailyRate   float64 `json:"daily_rate" validate:"gte=0"`
	District    string  `json:"district" validate:"required,max=100"`
}

// CreateRentalRequest carries a rental booking for a date range
type CreateRentalRequest struct {
	EquipmentID int64  `json:"equipment_id" validate:"required,gt=0"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ===============================
// WAREHOUSE BOOKING TYPES
// ===============================

// CreateWarehouseRequest carries a new warehouse listing
type CreateWarehouseRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	District      string  `json:"district" validate:"required,max=100"`
	CapacityTons  float64 `json:"capacity_tons" validate:"gt=0"`
	RatePerTonDay float64 `json:"rate_per_ton_day" validate:"gte=0"`
}

// CreateBookingRequest carries a capacity reservation for a date range
type CreateBookingRequest struct {
	WarehouseID int64   `json:"warehouse_id" validate:"required,gt=0"`
	Tons        float64 `json:"tons" validate:"gt=0"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ===============================
// CHAT TYPES
// ===============================

// SendMessageRequest carries a chat message to another user
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" validate:"required,gt=0"`
	Body       string `json:"body" validate:"required,max=2000"`
}

// ===============================
// ADMIN TYPES
// ===============================

// PlatformStats aggregates counts across the platform
type PlatformStats struct {
	TotalUsers       int64            `json:"total_users"`
	SoilTestsByState map[string]int64 `json:"soil_tests_by_status"`
	RentalsByState   map[string]int64 `json:"rentals_by_status"`
	BookingsByState  map[string]int64 `json:"bookings_by_status"`
}

// ===============================
// HELPERS
// ===============================

// normalizePage clamps pagination inputs to sane values.
func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// paginationMeta builds the metadata block for a collection result.
func paginationMeta(page, limit int, total int64) models.PaginationMeta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// validateRequest runs struct validation and maps failures into the
// service error taxonomy.
func validateRequest(req interface{}) error {
	err := validation.ValidateStruct(req)
	if err == nil {
		return nil
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return NewValidationError("Validation failed", fe...)
	}
	return WrapInternal("validation failed", err)
}
