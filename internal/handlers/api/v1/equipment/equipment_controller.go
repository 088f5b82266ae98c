// ===============================
// FILE: internal/handlers/api/v1/equipment/equipment_controller.go
// ===============================

package equipment

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"agrilink/internal/middleware"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Controller handles equipment rental API endpoints
type Controller struct {
	services *services.ServiceCollection
	logger   *zap.Logger
	builder  *response.Builder
	parser   *response.PaginationParser
}

// NewController creates a new equipment controller
func NewController(sc *services.ServiceCollection, logger *zap.Logger, builder *response.Builder) *Controller {
	return &Controller{
		services: sc,
		logger:   logger,
		builder:  builder,
		parser:   response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// CreateEquipment lists new equipment - POST /api/v1/equipment
func (c *Controller) CreateEquipment(w http.ResponseWriter, r *http.Request) error {
	var req services.CreateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	eq, err := c.services.RentalService.CreateEquipment(r.Context(), &req)
	if err != nil {
		return err
	}

	c.builder.WriteCreated(w, eq, "Equipment listed")
	return nil
}

// SetEquipmentStatus withdraws or relists equipment - POST /api/v1/equipment/{id}/status
func (c *Controller) SetEquipmentStatus(w http.ResponseWriter, r *http.Request) error {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return services.NewValidationError("invalid id parameter")
	}

	var body struct {
		IsAvailable *bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsAvailable == nil {
		return services.NewValidationError("is_available is required")
	}

	if err := c.services.RentalService.SetEquipmentAvailable(r.Context(), id, *body.IsAvailable); err != nil {
		return err
	}

	message := "Equipment relisted"
	if !*body.IsAvailable {
		message = "Equipment withdrawn"
	}
	c.builder.WriteSuccess(w, nil, message, http.StatusOK)
	return nil
}

// ListEquipment browses equipment - GET /api/v1/equipment
func (c *Controller) ListEquipment(w http.ResponseWriter, r *http.Request) error {
	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	query := r.URL.Query()
	result, err := c.services.RentalService.ListEquipment(
		r.Context(), query.Get("district"), query.Get("category"), params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}

// CreateRental books equipment - POST /api/v1/equipment/rentals
func (c *Controller) CreateRental(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	var req services.CreateRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	rental, err := c.services.RentalService.CreateRental(r.Context(), authCtx.UserID, &req)
	if err != nil {
		return err
	}

	c.logger.Info("Rental booked via API",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("reference", rental.Reference),
	)

	c.builder.WriteCreated(w, rental, "Rental booked")
	return nil
}

// ListMyRentals lists the caller's rentals - GET /api/v1/equipment/rentals
func (c *Controller) ListMyRentals(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.RentalService.ListFarmerRentals(r.Context(), authCtx.UserID, params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}

// ReturnRental closes a rental - POST /api/v1/equipment/rentals/{id}/return
func (c *Controller) ReturnRental(w http.ResponseWriter, r *http.Request) error {
	return c.closeRental(w, r, c.services.RentalService.ReturnRental, "Rental returned")
}

// CancelRental cancels a rental - POST /api/v1/equipment/rentals/{id}/cancel
func (c *Controller) CancelRental(w http.ResponseWriter, r *http.Request) error {
	return c.closeRental(w, r, c.services.RentalService.CancelRental, "Rental cancelled")
}

func (c *Controller) closeRental(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, rentalID, farmerID int64) error,
	message string,
) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return services.NewValidationError("invalid id parameter")
	}

	if err := op(r.Context(), id, authCtx.UserID); err != nil {
		return err
	}
	c.builder.WriteSuccess(w, nil, message, http.StatusOK)
	return nil
}
