// file: internal/services/admin_service.go
package services

import (
	"context"
	"encoding/json"
	"time"

	"agrilink/internal/cache"
	"agrilink/internal/models"
	"agrilink/internal/repositories"

	"go.uber.org/zap"
)

const statsCacheKey = "admin:platform_stats"

// adminService implements AdminService. Platform stats are cached
// briefly since they aggregate over several tables.
type adminService struct {
	userRepo      repositories.UserRepository
	soilTestRepo  repositories.SoilTestRepository
	equipmentRepo repositories.EquipmentRepository
	warehouseRepo repositories.WarehouseRepository
	cache         cache.Cache
	statsTTL      time.Duration
	logger        *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo repositories.UserRepository,
	soilTestRepo repositories.SoilTestRepository,
	equipmentRepo repositories.EquipmentRepository,
	warehouseRepo repositories.WarehouseRepository,
	c cache.Cache,
	statsTTL time.Duration,
	logger *zap.Logger,
) AdminService {
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &adminService{
		userRepo:      userRepo,
		soilTestRepo:  soilTestRepo,
		equipmentRepo: equipmentRepo,
		warehouseRepo: warehouseRepo,
		cache:         c,
		statsTTL:      statsTTL,
		logger:        logger,
	}
}

// GetPlatformStats aggregates counts across users, soil tests, rentals,
// and bookings
func (s *adminService) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	if cached, ok := s.cache.Get(ctx, statsCacheKey); ok {
		var stats PlatformStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	_, totalUsers, err := s.userRepo.List(ctx, 0, 1)
	if err != nil {
		s.logger.Error("Failed to count users", zap.Error(err))
		return nil, NewInternalError("failed to load platform stats")
	}
	soilTests, err := s.soilTestRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count soil tests", zap.Error(err))
		return nil, NewInternalError("failed to load platform stats")
	}
	rentals, err := s.equipmentRepo.CountRentalsByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count rentals", zap.Error(err))
		return nil, NewInternalError("failed to load platform stats")
	}
	bookings, err := s.warehouseRepo.CountBookingsByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count bookings", zap.Error(err))
		return nil, NewInternalError("failed to load platform stats")
	}

	stats := &PlatformStats{
		TotalUsers:       totalUsers,
		SoilTestsByState: soilTests,
		RentalsByState:   rentals,
		BookingsByState:  bookings,
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, statsCacheKey, string(raw), s.statsTTL); err != nil {
			s.logger.Warn("Failed to cache platform stats", zap.Error(err))
		}
	}
	return stats, nil
}

// ListUsers returns all users for the admin dashboard
func (s *adminService) ListUsers(ctx context.Context, page, limit int) (*models.PaginatedResponse[*models.User], error) {
	page, limit, offset := normalizePage(page, limit)

	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, NewInternalError("failed to list users")
	}
	for _, u := range users {
		u.PasswordHash = ""
	}

	return &models.PaginatedResponse[*models.User]{
		Data:       users,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}
