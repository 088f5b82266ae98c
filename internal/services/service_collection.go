// file: internal/services/service_collection.go
package services

import (
	"time"

	"agrilink/internal/auth"
	"agrilink/internal/cache"
	"agrilink/internal/config"
	"agrilink/internal/database"
	"agrilink/internal/qrcode"
	"agrilink/internal/repositories"

	"go.uber.org/zap"
)

// ServiceCollection holds all services with their shared infrastructure
type ServiceCollection struct {
	// Domain services
	AuthService     AuthService     `json:"-"`
	SoilTestService SoilTestService `json:"-"`
	RentalService   RentalService   `json:"-"`
	BookingService  BookingService  `json:"-"`
	ChatService     ChatService     `json:"-"`
	AdminService    AdminService    `json:"-"`

	// Infrastructure components
	Tokens    *auth.TokenManager `json:"-"`
	QRCodes   *qrcode.Service    `json:"-"`
	Cache     cache.Cache        `json:"-"`
	Logger    *zap.Logger        `json:"-"`
	Config    *config.Config     `json:"-"`
	DBManager *database.Manager  `json:"-"`
}

// NewServiceCollection wires repositories and services together
func NewServiceCollection(
	cfg *config.Config,
	db *database.Manager,
	c cache.Cache,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	tokens := auth.NewTokenManager(&cfg.Auth)

	qrSvc, err := qrcode.NewService(
		cfg.QR.SigningSecret,
		cfg.Server.PublicBaseURL,
		cfg.QR.VerifyBasePath,
		cfg.QR.ImageSize,
	)
	if err != nil {
		return nil, err
	}

	userRepo := repositories.NewUserRepository(db, logger)
	soilTestRepo := repositories.NewSoilTestRepository(db, logger)
	equipmentRepo := repositories.NewEquipmentRepository(db, logger)
	warehouseRepo := repositories.NewWarehouseRepository(db, logger)
	chatRepo := repositories.NewChatRepository(db, logger)

	return &ServiceCollection{
		AuthService:     NewAuthService(userRepo, tokens, &cfg.Auth, logger),
		SoilTestService: NewSoilTestService(soilTestRepo, qrSvc, logger),
		RentalService:   NewRentalService(equipmentRepo, logger),
		BookingService:  NewBookingService(warehouseRepo, logger),
		ChatService:     NewChatService(chatRepo, userRepo, logger),
		AdminService:    NewAdminService(userRepo, soilTestRepo, equipmentRepo, warehouseRepo, c, time.Minute, logger),

		Tokens:    tokens,
		QRCodes:   qrSvc,
		Cache:     c,
		Logger:    logger,
		Config:    cfg,
		DBManager: db,
	}, nil
}
