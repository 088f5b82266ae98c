// ===============================
// FILE: internal/handlers/api/v1/soiltests/soiltest_controller.go
// ===============================

package soiltests

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

// Controller handles soil testing API endpoints, including the public
// QR verification and image routes.
type Controller struct {
	services *services.ServiceCollection
	logger   *zap.Logger
	builder  *response.Builder
	parser   *response.PaginationParser
}

// NewController creates a new soil testing controller
func NewController(sc *services.ServiceCollection, logger *zap.Logger, builder *response.Builder) *Controller {
	return &Controller{
		services: sc,
		logger:   logger,
		builder:  builder,
		parser:   response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// ===============================
// CENTER ENDPOINTS
// ===============================

// CreateCenter registers a center - POST /api/v1/soil-tests/centers
func (c *Controller) CreateCenter(w http.ResponseWriter, r *http.Request) error {
	var req services.CreateCenterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	center, err := c.services.SoilTestService.CreateCenter(r.Context(), &req)
	if err != nil {
		return err
	}

	c.builder.WriteCreated(w, center, "Soil test center created")
	return nil
}

// ListCenters lists active centers - GET /api/v1/soil-tests/centers
func (c *Controller) ListCenters(w http.ResponseWriter, r *http.Request) error {
	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.SoilTestService.ListCenters(
		r.Context(), r.URL.Query().Get("district"), params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}

// SetCenterStatus activates or deactivates a center - POST /api/v1/soil-tests/centers/{id}/status
func (c *Controller) SetCenterStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsActive == nil {
		return services.NewValidationError("is_active is required")
	}

	if err := c.services.SoilTestService.SetCenterActive(r.Context(), id, *body.IsActive); err != nil {
		return err
	}

	message := "Soil test center activated"
	if !*body.IsActive {
		message = "Soil test center deactivated"
	}
	c.builder.WriteSuccess(w, nil, message, http.StatusOK)
	return nil
}

// ===============================
// REQUEST ENDPOINTS
// ===============================

// CreateRequest files a soil test request - POST /api/v1/soil-tests/requests
func (c *Controller) CreateRequest(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	var req services.CreateSoilTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	request, err := c.services.SoilTestService.CreateRequest(r.Context(), authCtx.UserID, &req)
	if err != nil {
		return err
	}

	c.builder.WriteCreated(w, request, "Soil test request created")
	return nil
}

// ListMyRequests lists the caller's requests - GET /api/v1/soil-tests/requests
func (c *Controller) ListMyRequests(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.SoilTestService.ListFarmerRequests(r.Context(), authCtx.UserID, params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}

// GetRequest loads one request - GET /api/v1/soil-tests/requests/{id}
func (c *Controller) GetRequest(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	request, err := c.services.SoilTestService.GetRequest(r.Context(), id)
	if err != nil {
		return err
	}
	if authCtx.Role == "farmer" && request.FarmerID != authCtx.UserID {
		return services.NewForbiddenError("you may only view your own requests")
	}

	c.builder.WriteSuccess(w, request, "", http.StatusOK)
	return nil
}

// Schedule confirms an appointment - POST /api/v1/soil-tests/requests/{id}/schedule
func (c *Controller) Schedule(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var body struct {
		ScheduledDate string `json:"scheduled_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return services.NewValidationError("invalid request body")
	}

	request, err := c.services.SoilTestService.Schedule(r.Context(), &services.ScheduleSoilTestRequest{
		RequestID:     id,
		ScheduledDate: body.ScheduledDate,
	})
	if err != nil {
		return err
	}

	c.logger.Info("Soil test scheduled via API",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Int64("soil_test_request_id", id),
	)

	c.builder.WriteSuccess(w, request, "Soil test scheduled", http.StatusOK)
	return nil
}

// Complete marks a request completed - POST /api/v1/soil-tests/requests/{id}/complete
func (c *Controller) Complete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := c.services.SoilTestService.Complete(r.Context(), id); err != nil {
		return err
	}
	c.builder.WriteSuccess(w, nil, "Soil test completed", http.StatusOK)
	return nil
}

// Cancel cancels a request - POST /api/v1/soil-tests/requests/{id}/cancel
func (c *Controller) Cancel(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := c.services.SoilTestService.Cancel(r.Context(), id, authCtx.UserID, authCtx.Role); err != nil {
		return err
	}
	c.builder.WriteSuccess(w, nil, "Soil test request cancelled", http.StatusOK)
	return nil
}

// ===============================
// QR ENDPOINTS
// ===============================

// VerifyQRCode verifies a scanned code - GET /api/v1/soil-tests/verify/{identifier}
//
// Public route. A bad identifier is a 200 with a negative verdict, not
// an HTTP error; scanners always get a well-formed envelope.
func (c *Controller) VerifyQRCode(w http.ResponseWriter, r *http.Request) error {
	identifier := chi.URLParam(r, "identifier")

	result, err := c.services.SoilTestService.VerifyQRCode(r.Context(), identifier)
	if err != nil {
		return err
	}

	message := "QR code verified"
	if !result.Valid {
		message = "QR code is not valid"
	}
	c.builder.WriteSuccess(w, result, message, http.StatusOK)
	return nil
}

// QRImage renders the QR PNG - GET /api/v1/soil-tests/qr/{identifier}/image
func (c *Controller) QRImage(w http.ResponseWriter, r *http.Request) error {
	identifier := chi.URLParam(r, "identifier")

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return services.NewValidationError("invalid size parameter")
		}
		size = parsed
	}

	png, err := c.services.SoilTestService.RenderQRImage(r.Context(), identifier, size)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
	return nil
}

// pathID parses a positive int64 route parameter
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewValidationError("invalid " + name + " parameter")
	}
	return id, nil
}
