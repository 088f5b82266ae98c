// ===============================
// FILE: internal/handlers/api/v1/admin/admin_controller.go
// ===============================

package admin

import (
	"net/http"

	"agrilink/internal/response"
	"agrilink/internal/services"

	"go.uber.org/zap"
)

// Controller handles admin API endpoints. All routes require the admin
// role, enforced by middleware at registration time.
type Controller struct {
	services *services.ServiceCollection
	logger   *zap.Logger
	builder  *response.Builder
	parser   *response.PaginationParser
}

// NewController creates a new admin controller
func NewController(sc *services.ServiceCollection, logger *zap.Logger, builder *response.Builder) *Controller {
	return &Controller{
		services: sc,
		logger:   logger,
		builder:  builder,
		parser:   response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// Stats returns platform statistics - GET /api/v1/admin/stats
func (c *Controller) Stats(w http.ResponseWriter, r *http.Request) error {
	stats, err := c.services.AdminService.GetPlatformStats(r.Context())
	if err != nil {
		return err
	}
	c.builder.WriteSuccess(w, stats, "", http.StatusOK)
	return nil
}

// ListUsers returns all users - GET /api/v1/admin/users
func (c *Controller) ListUsers(w http.ResponseWriter, r *http.Request) error {
	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.AdminService.ListUsers(r.Context(), params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}
