// ===============================
// FILE: internal/handlers/api/v1/warehouses/warehouse_controller.go
// ===============================

package warehouses

import (
	"encoding/json"
	"net/http"
	"strconv"

	"agrilink/internal/middleware"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Controller handles warehouse booking API endpoints
type Controller struct {
	services *services.ServiceCollection
	logger   *zap.Logger
	builder  *response.Builder
	parser   *response.PaginationParser
}

// NewController creates a new warehouse controller
func NewController(sc *services.ServiceCollection, logger *zap.Logger, builder *response.Builder) *Controller {
	return &Controller{
		services: sc,
		logger:   logger,
		builder:  builder,
		parser:   response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// CreateWarehouse lists a warehouse - POST /api/v1/warehouses
func (c *Controller) CreateWarehouse(w http.ResponseWriter, r *http.Request) error {
	var req services.CreateWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	wh, err := c.services.BookingService.CreateWarehouse(r.Context(), &req)
	if err != nil {
		return err
	}

	c.builder.WriteCreated(w, wh, "Warehouse listed")
	return nil
}

// SetWarehouseStatus activates or deactivates a warehouse - POST /api/v1/warehouses/{id}/status
func (c *Controller) SetWarehouseStatus(w http.ResponseWriter, r *http.Request) error {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return services.NewValidationError("invalid id parameter")
	}

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsActive == nil {
		return services.NewValidationError("is_active is required")
	}

	if err := c.services.BookingService.SetWarehouseActive(r.Context(), id, *body.IsActive); err != nil {
		return err
	}

	message := "Warehouse activated"
	if !*body.IsActive {
		message = "Warehouse deactivated"
	}
	c.builder.WriteSuccess(w, nil, message, http.StatusOK)
	return nil
}

// ListWarehouses browses warehouses - GET /api/v1/warehouses
func (c *Controller) ListWarehouses(w http.ResponseWriter, r *http.Request) error {
	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.BookingService.ListWarehouses(
		r.Context(), r.URL.Query().Get("district"), params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}

// CreateBooking reserves capacity - POST /api/v1/warehouses/bookings
func (c *Controller) CreateBooking(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	var req services.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	booking, err := c.services.BookingService.CreateBooking(r.Context(), authCtx.UserID, &req)
	if err != nil {
		return err
	}

	c.logger.Info("Warehouse booking created via API",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("reference", booking.Reference),
	)

	c.builder.WriteCreated(w, booking, "Booking created")
	return nil
}

// ListMyBookings lists the caller's bookings - GET /api/v1/warehouses/bookings
func (c *Controller) ListMyBookings(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.BookingService.ListFarmerBookings(r.Context(), authCtx.UserID, params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}

// ReleaseBooking frees capacity - POST /api/v1/warehouses/bookings/{id}/release
func (c *Controller) ReleaseBooking(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return services.NewValidationError("invalid id parameter")
	}

	if err := c.services.BookingService.ReleaseBooking(r.Context(), id, authCtx.UserID); err != nil {
		return err
	}
	c.builder.WriteSuccess(w, nil, "Booking released", http.StatusOK)
	return nil
}
