package models

import (
	"time"
)

// ===============================
// USER MODELS
// ===============================

// User represents a registered platform user (farmer, officer, or admin)
type User struct {
	// Primary fields
	ID    int64  `json:"id" db:"id"`
	Email string `json:"email" db:"email" validate:"required,email,max=320"`
	Phone string `json:"phone" db:"phone" validate:"required,min=7,max=20"`

	// Authentication
	PasswordHash string `json:"-" db:"password_hash"`
	IsActive     bool   `json:"is_active" db:"is_active"`

	// Profile information
	FirstName string  `json:"first_name" db:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" db:"last_name" validate:"required,max=100"`
	Role      string  `json:"role" db:"role" validate:"required,oneof=farmer officer admin"`
	District  *string `json:"district,omitempty" db:"district" validate:"omitempty,max=100"`
	FarmSize  *float64 `json:"farm_size_acres,omitempty" db:"farm_size_acres" validate:"omitempty,gte=0"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// IsOfficer reports whether the user is an extension officer or admin
func (u *User) IsOfficer() bool {
	return u.Role == "officer" || u.Role == "admin"
}

// ===============================
// SOIL TESTING MODELS
// ===============================

// SoilTestCenter represents a laboratory that processes soil samples
type SoilTestCenter struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name" validate:"required,max=200"`
	District      string    `json:"district" db:"district" validate:"required,max=100"`
	Address       string    `json:"address" db:"address" validate:"required,max=500"`
	ContactPhone  string    `json:"contact_phone" db:"contact_phone"`
	DailyCapacity int       `json:"daily_capacity" db:"daily_capacity" validate:"gte=1"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// SoilTestRequest lifecycle statuses.
const (
	SoilTestStatusPending   = "pending"
	SoilTestStatusScheduled = "scheduled"
	SoilTestStatusCompleted = "completed"
	SoilTestStatusCancelled = "cancelled"
)

// SoilTestRequest represents a farmer's request for a soil test
type SoilTestRequest struct {
	ID         int64  `json:"id" db:"id"`
	FarmerID   int64  `json:"farmer_id" db:"farmer_id"`
	CenterID   int64  `json:"center_id" db:"center_id"`
	CropType   string `json:"crop_type" db:"crop_type" validate:"required,max=100"`
	PlotSize   float64 `json:"plot_size_acres" db:"plot_size_acres" validate:"gt=0"`
	Status     string `json:"status" db:"status"`
	Notes      *string `json:"notes,omitempty" db:"notes" validate:"omitempty,max=1000"`

	// Populated once the request is scheduled
	ScheduledDate *string    `json:"scheduled_date,omitempty" db:"scheduled_date"`
	QRIdentifier  *string    `json:"qr_identifier,omitempty" db:"qr_identifier"`
	VerifyURL     *string    `json:"verify_url,omitempty" db:"verify_url"`
	QRImageURL    *string    `json:"qr_image_url,omitempty" db:"qr_image_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ===============================
// EQUIPMENT RENTAL MODELS
// ===============================

// Equipment represents a rentable piece of farm machinery
type Equipment struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name" validate:"required,max=200"`
	Category    string  `json:"category" db:"category" validate:"required,oneof=tractor harvester planter sprayer tillage other"`
	Description *string `json:"description,omitempty" db:"description"`
	DailyRate   float64 `json:"daily_rate" db:"daily_rate" validate:"gte=0"`
	District    string  `json:"district" db:"district" validate:"required,max=100"`
	IsAvailable bool    `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// EquipmentRental lifecycle statuses.
const (
	RentalStatusActive    = "active"
	RentalStatusReturned  = "returned"
	RentalStatusCancelled = "cancelled"
)

// EquipmentRental represents a confirmed rental of equipment by a farmer
type EquipmentRental struct {
	ID          int64     `json:"id" db:"id"`
	Reference   string    `json:"reference" db:"reference"`
	EquipmentID int64     `json:"equipment_id" db:"equipment_id"`
	FarmerID    int64     `json:"farmer_id" db:"farmer_id"`
	StartDate   string    `json:"start_date" db:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string    `json:"end_date" db:"end_date" validate:"required,datetime=2006-01-02"`
	TotalCost   float64   `json:"total_cost" db:"total_cost"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ===============================
// WAREHOUSE BOOKING MODELS
// ===============================

// Warehouse represents a storage facility with bookable capacity
type Warehouse struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name" validate:"required,max=200"`
	District       string    `json:"district" db:"district" validate:"required,max=100"`
	CapacityTons   float64   `json:"capacity_tons" db:"capacity_tons" validate:"gt=0"`
	RatePerTonDay  float64   `json:"rate_per_ton_day" db:"rate_per_ton_day" validate:"gte=0"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// WarehouseBooking lifecycle statuses.
const (
	BookingStatusActive    = "active"
	BookingStatusReleased  = "released"
	BookingStatusCancelled = "cancelled"
)

// WarehouseBooking represents reserved warehouse capacity
type WarehouseBooking struct {
	ID          int64     `json:"id" db:"id"`
	Reference   string    `json:"reference" db:"reference"`
	WarehouseID int64     `json:"warehouse_id" db:"warehouse_id"`
	FarmerID    int64     `json:"farmer_id" db:"farmer_id"`
	Tons        float64   `json:"tons" db:"tons" validate:"gt=0"`
	StartDate   string    `json:"start_date" db:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string    `json:"end_date" db:"end_date" validate:"required,datetime=2006-01-02"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ===============================
// CHAT MODELS
// ===============================

// ChatMessage represents a single message between a farmer and an officer
type ChatMessage struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Body       string    `json:"body" db:"body" validate:"required,max=2000"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"`
}

// ===============================
// PAGINATION
// ===============================

// PaginatedResponse represents a paginated collection result
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
