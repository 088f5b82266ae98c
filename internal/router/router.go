// Package router assembles the HTTP routing table and middleware chain.
package router

import (
	"net/http"

	"agrilink/internal/cache"
	"agrilink/internal/chat"
	"agrilink/internal/config"
	adminapi "agrilink/internal/handlers/api/v1/admin"
	authapi "agrilink/internal/handlers/api/v1/auth"
	chatapi "agrilink/internal/handlers/api/v1/chat"
	equipmentapi "agrilink/internal/handlers/api/v1/equipment"
	soiltestsapi "agrilink/internal/handlers/api/v1/soiltests"
	warehousesapi "agrilink/internal/handlers/api/v1/warehouses"
	"agrilink/internal/middleware"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// New builds the chi router with the full middleware chain and every
// API route mounted under /api/v1.
func New(
	cfg *config.Config,
	sc *services.ServiceCollection,
	c cache.Cache,
	logger *zap.Logger,
) http.Handler {
	builder := response.NewBuilder(&response.Config{
		PrettyJSON:         !cfg.IsProduction(),
		MaskInternalErrors: cfg.IsProduction(),
	}, logger)

	authMW := middleware.NewAuthMiddleware(sc.Tokens, builder, logger)
	rateLimiter := middleware.NewRateLimiter(c, &middleware.RateLimiterConfig{
		Requests: cfg.Security.RateLimitRequests,
		Window:   cfg.Security.RateLimitWindow,
	}, builder, logger)

	authController := authapi.NewController(sc, logger, builder)
	soilTestController := soiltestsapi.NewController(sc, logger, builder)
	equipmentController := equipmentapi.NewController(sc, logger, builder)
	warehouseController := warehousesapi.NewController(sc, logger, builder)
	chatController := chatapi.NewController(sc, logger, builder)
	adminController := adminapi.NewController(sc, logger, builder)
	hub := chat.NewHub(sc.ChatService, logger)

	r := chi.NewRouter()

	// Outermost first: request identity, logging, panic recovery, then
	// traffic shaping and headers.
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.RequestLogging(middleware.DefaultLoggingConfig()))
	r.Use(middleware.Recovery(builder, logger))
	r.Use(rateLimiter.Limit())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(&cfg.Security))

	r.Get("/health", healthHandler(sc, c, builder))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", builder.Handle(authController.Register))
			r.Post("/login", builder.Handle(authController.Login))
			r.Post("/refresh", builder.Handle(authController.Refresh))

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAuth())
				r.Get("/me", builder.Handle(authController.Me))
			})
		})

		r.Route("/soil-tests", func(r chi.Router) {
			// QR verification is public so field scans work without
			// an account.
			r.Get("/verify/{identifier}", builder.Handle(soilTestController.VerifyQRCode))
			r.Get("/qr/{identifier}/image", builder.Handle(soilTestController.QRImage))

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAuth())
				r.Get("/centers", builder.Handle(soilTestController.ListCenters))
				r.Post("/requests", builder.Handle(soilTestController.CreateRequest))
				r.Get("/requests", builder.Handle(soilTestController.ListMyRequests))
				r.Get("/requests/{id}", builder.Handle(soilTestController.GetRequest))
				r.Post("/requests/{id}/cancel", builder.Handle(soilTestController.Cancel))
			})

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAuth(), authMW.RequireRole("officer", "admin"))
				r.Post("/centers", builder.Handle(soilTestController.CreateCenter))
				r.Post("/centers/{id}/status", builder.Handle(soilTestController.SetCenterStatus))
				r.Post("/requests/{id}/schedule", builder.Handle(soilTestController.Schedule))
				r.Post("/requests/{id}/complete", builder.Handle(soilTestController.Complete))
			})
		})

		r.Route("/equipment", func(r chi.Router) {
			r.Use(authMW.RequireAuth())
			r.Get("/", builder.Handle(equipmentController.ListEquipment))
			r.Post("/rentals", builder.Handle(equipmentController.CreateRental))
			r.Get("/rentals", builder.Handle(equipmentController.ListMyRentals))
			r.Post("/rentals/{id}/return", builder.Handle(equipmentController.ReturnRental))
			r.Post("/rentals/{id}/cancel", builder.Handle(equipmentController.CancelRental))

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireRole("officer", "admin"))
				r.Post("/", builder.Handle(equipmentController.CreateEquipment))
				r.Post("/{id}/status", builder.Handle(equipmentController.SetEquipmentStatus))
			})
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Use(authMW.RequireAuth())
			r.Get("/", builder.Handle(warehouseController.ListWarehouses))
			r.Post("/bookings", builder.Handle(warehouseController.CreateBooking))
			r.Get("/bookings", builder.Handle(warehouseController.ListMyBookings))
			r.Post("/bookings/{id}/release", builder.Handle(warehouseController.ReleaseBooking))

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireRole("officer", "admin"))
				r.Post("/", builder.Handle(warehouseController.CreateWarehouse))
				r.Post("/{id}/status", builder.Handle(warehouseController.SetWarehouseStatus))
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(authMW.RequireAuth())
			r.Get("/ws", hub.ServeWS)
			r.Post("/messages", builder.Handle(chatController.SendMessage))
			r.Get("/conversations/{peerID}", builder.Handle(chatController.GetConversation))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW.RequireAuth(), authMW.RequireRole("admin"))
			r.Get("/stats", builder.Handle(adminController.Stats))
			r.Get("/users", builder.Handle(adminController.ListUsers))
		})
	})

	return r
}

// healthHandler reports database and cache health
func healthHandler(sc *services.ServiceCollection, c cache.Cache, builder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db := sc.DBManager.Health(r.Context())
		cacheErr := c.Health(r.Context())

		status := map[string]interface{}{
			"database": db,
			"cache":    "ok",
		}
		if cacheErr != nil {
			status["cache"] = cacheErr.Error()
		}

		if db.Healthy && cacheErr == nil {
			builder.WriteSuccess(w, status, "Service healthy", http.StatusOK)
			return
		}
		builder.WriteErrorMessage(w, "Service degraded", http.StatusServiceUnavailable, nil)
	}
}
