// file: internal/services/interface.go
package services

import (
	"context"

	"agrilink/internal/models"
	"agrilink/internal/qrcode"
)

// AuthService handles registration, login, and token refresh
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
}

// SoilTestService handles soil test centers, requests, and QR verification
type SoilTestService interface {
	// Centers
	CreateCenter(ctx context.Context, req *CreateCenterRequest) (*models.SoilTestCenter, error)
	ListCenters(ctx context.Context, district string, page, limit int) (*models.PaginatedResponse[*models.SoilTestCenter], error)
	SetCenterActive(ctx context.Context, id int64, active bool) error

	// Requests
	CreateRequest(ctx context.Context, farmerID int64, req *CreateSoilTestRequest) (*models.SoilTestRequest, error)
	GetRequest(ctx context.Context, id int64) (*models.SoilTestRequest, error)
	ListFarmerRequests(ctx context.Context, farmerID int64, page, limit int) (*models.PaginatedResponse[*models.SoilTestRequest], error)
	Schedule(ctx context.Context, req *ScheduleSoilTestRequest) (*models.SoilTestRequest, error)
	Complete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64, actorID int64, actorRole string) error

	// QR verification
	VerifyQRCode(ctx context.Context, identifier string) (*QRVerificationResult, error)
	RenderQRImage(ctx context.Context, identifier string, size int) ([]byte, error)
}

// RentalService handles equipment listings and rental booking
type RentalService interface {
	CreateEquipment(ctx context.Context, req *CreateEquipmentRequest) (*models.Equipment, error)
	ListEquipment(ctx context.Context, district, category string, page, limit int) (*models.PaginatedResponse[*models.Equipment], error)
	SetEquipmentAvailable(ctx context.Context, id int64, available bool) error
	CreateRental(ctx context.Context, farmerID int64, req *CreateRentalRequest) (*models.EquipmentRental, error)
	ListFarmerRentals(ctx context.Context, farmerID int64, page, limit int) (*models.PaginatedResponse[*models.EquipmentRental], error)
	ReturnRental(ctx context.Context, rentalID, farmerID int64) error
	CancelRental(ctx context.Context, rentalID, farmerID int64) error
}

// BookingService handles warehouse listings and capacity booking
type BookingService interface {
	CreateWarehouse(ctx context.Context, req *CreateWarehouseRequest) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, district string, page, limit int) (*models.PaginatedResponse[*models.Warehouse], error)
	SetWarehouseActive(ctx context.Context, id int64, active bool) error
	CreateBooking(ctx context.Context, farmerID int64, req *CreateBookingRequest) (*models.WarehouseBooking, error)
	ListFarmerBookings(ctx context.Context, farmerID int64, page, limit int) (*models.PaginatedResponse[*models.WarehouseBooking], error)
	ReleaseBooking(ctx context.Context, bookingID, farmerID int64) error
}

// ChatService persists and retrieves farmer-officer conversations
type ChatService interface {
	SendMessage(ctx context.Context, senderID int64, req *SendMessageRequest) (*models.ChatMessage, error)
	GetConversation(ctx context.Context, userID, peerID int64, page, limit int) (*models.PaginatedResponse[*models.ChatMessage], error)
}

// AdminService aggregates platform-wide statistics
type AdminService interface {
	GetPlatformStats(ctx context.Context) (*PlatformStats, error)
	ListUsers(ctx context.Context, page, limit int) (*models.PaginatedResponse[*models.User], error)
}

// QRVerificationResult is the API-facing verdict of a scanned code
type QRVerificationResult struct {
	Valid   bool                    `json:"valid"`
	Reason  string                  `json:"reason,omitempty"`
	Ref     *qrcode.ScheduleRef     `json:"ref,omitempty"`
	Request *models.SoilTestRequest `json:"request,omitempty"`
}
