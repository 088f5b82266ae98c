// file: internal/services/soiltest_service.go
package services

import (
	"context"
	"errors"
	"time"

	"agrilink/internal/models"
	"agrilink/internal/qrcode"
	"agrilink/internal/repositories"

	"go.uber.org/zap"
)

// soilTestService implements SoilTestService. Scheduling mints a signed
// QR identifier plus its verification and image URLs and persists all
// three alongside the request.
type soilTestService struct {
	repo   repositories.SoilTestRepository
	qr     *qrcode.Service
	logger *zap.Logger
}

// NewSoilTestService creates a new soil test service
func NewSoilTestService(
	repo repositories.SoilTestRepository,
	qr *qrcode.Service,
	logger *zap.Logger,
) SoilTestService {
	return &soilTestService{repo: repo, qr: qr, logger: logger}
}

// ===============================
// CENTERS
// ===============================

// CreateCenter registers a new soil test center
func (s *soilTestService) CreateCenter(ctx context.Context, req *CreateCenterRequest) (*models.SoilTestCenter, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	center := &models.SoilTestCenter{
		Name:          req.Name,
		District:      req.District,
		Address:       req.Address,
		ContactPhone:  req.ContactPhone,
		DailyCapacity: req.DailyCapacity,
		IsActive:      true,
	}
	if err := s.repo.CreateCenter(ctx, center); err != nil {
		s.logger.Error("Failed to create center", zap.Error(err), zap.String("name", req.Name))
		return nil, NewInternalError("failed to create soil test center")
	}

	s.logger.Info("Soil test center created",
		zap.Int64("center_id", center.ID),
		zap.String("district", center.District),
	)
	return center, nil
}

// ListCenters returns active centers, optionally filtered by district
func (s *soilTestService) ListCenters(ctx context.Context, district string, page, limit int) (*models.PaginatedResponse[*models.SoilTestCenter], error) {
	page, limit, offset := normalizePage(page, limit)

	centers, total, err := s.repo.ListCenters(ctx, district, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list centers", zap.Error(err))
		return nil, NewInternalError("failed to list soil test centers")
	}

	return &models.PaginatedResponse[*models.SoilTestCenter]{
		Data:       centers,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}

// SetCenterActive activates or deactivates a center. Deactivation hides
// the center from listings and blocks new requests against it; existing
// scheduled requests are unaffected.
func (s *soilTestService) SetCenterActive(ctx context.Context, id int64, active bool) error {
	if id <= 0 {
		return NewValidationError("invalid center ID")
	}

	center, err := s.repo.GetCenterByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load center", zap.Error(err), zap.Int64("center_id", id))
		return NewInternalError("failed to update soil test center")
	}
	if center == nil {
		return EntityNotFoundError("soil test center", id)
	}

	if err := s.repo.SetCenterActive(ctx, id, active); err != nil {
		s.logger.Error("Failed to update center status", zap.Error(err), zap.Int64("center_id", id))
		return NewInternalError("failed to update soil test center")
	}

	s.logger.Info("Soil test center status changed",
		zap.Int64("center_id", id),
		zap.Bool("active", active),
	)
	return nil
}

// ===============================
// REQUESTS
// ===============================

// CreateRequest files a new soil test request for a farmer
func (s *soilTestService) CreateRequest(ctx context.Context, farmerID int64, req *CreateSoilTestRequest) (*models.SoilTestRequest, error) {
	if farmerID <= 0 {
		return nil, NewValidationError("invalid farmer ID")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	center, err := s.repo.GetCenterByID(ctx, req.CenterID)
	if err != nil {
		s.logger.Error("Failed to load center", zap.Error(err), zap.Int64("center_id", req.CenterID))
		return nil, NewInternalError("failed to create soil test request")
	}
	if center == nil || !center.IsActive {
		return nil, EntityNotFoundError("soil test center", req.CenterID)
	}

	request := &models.SoilTestRequest{
		FarmerID: farmerID,
		CenterID: req.CenterID,
		CropType: req.CropType,
		PlotSize: req.PlotSize,
		Status:   models.SoilTestStatusPending,
		Notes:    req.Notes,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		s.logger.Error("Failed to create soil test request", zap.Error(err), zap.Int64("farmer_id", farmerID))
		return nil, NewInternalError("failed to create soil test request")
	}

	s.logger.Info("Soil test request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("farmer_id", farmerID),
		zap.Int64("center_id", req.CenterID),
	)
	return request, nil
}

// GetRequest loads a single request
func (s *soilTestService) GetRequest(ctx context.Context, id int64) (*models.SoilTestRequest, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid request ID")
	}
	request, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load soil test request", zap.Error(err), zap.Int64("request_id", id))
		return nil, NewInternalError("failed to load soil test request")
	}
	if request == nil {
		return nil, EntityNotFoundError("soil test request", id)
	}
	return request, nil
}

// ListFarmerRequests returns a farmer's requests, newest first
func (s *soilTestService) ListFarmerRequests(ctx context.Context, farmerID int64, page, limit int) (*models.PaginatedResponse[*models.SoilTestRequest], error) {
	if farmerID <= 0 {
		return nil, NewValidationError("invalid farmer ID")
	}
	page, limit, offset := normalizePage(page, limit)

	requests, total, err := s.repo.ListRequestsByFarmer(ctx, farmerID, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list soil test requests", zap.Error(err), zap.Int64("farmer_id", farmerID))
		return nil, NewInternalError("failed to list soil test requests")
	}

	return &models.PaginatedResponse[*models.SoilTestRequest]{
		Data:       requests,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}

// Schedule confirms an appointment date, mints the QR identifier, and
// persists the identifier with its verification and image URLs.
func (s *soilTestService) Schedule(ctx context.Context, req *ScheduleSoilTestRequest) (*models.SoilTestRequest, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequestByID(ctx, req.RequestID)
	if err != nil {
		s.logger.Error("Failed to load request for scheduling", zap.Error(err), zap.Int64("request_id", req.RequestID))
		return nil, NewInternalError("failed to schedule soil test")
	}
	if request == nil {
		return nil, EntityNotFoundError("soil test request", req.RequestID)
	}
	if request.Status != models.SoilTestStatusPending {
		return nil, NewConflictError("request is not pending", "REQUEST_NOT_PENDING").
			WithDetails("status", request.Status)
	}

	center, err := s.repo.GetCenterByID(ctx, request.CenterID)
	if err != nil {
		s.logger.Error("Failed to load center for scheduling", zap.Error(err), zap.Int64("center_id", request.CenterID))
		return nil, NewInternalError("failed to schedule soil test")
	}
	if center == nil || !center.IsActive {
		return nil, EntityNotFoundError("soil test center", request.CenterID)
	}

	booked, err := s.repo.CountScheduledOnDate(ctx, center.ID, req.ScheduledDate)
	if err != nil {
		s.logger.Error("Failed to check center capacity", zap.Error(err), zap.Int64("center_id", center.ID))
		return nil, NewInternalError("failed to schedule soil test")
	}
	if booked >= int64(center.DailyCapacity) {
		return nil, NewConflictError("center has no capacity on this date", "CENTER_FULL").
			WithDetails("scheduled_date", req.ScheduledDate)
	}

	ref := qrcode.ScheduleRef{
		ScheduleID:    request.ID,
		FarmerID:      request.FarmerID,
		CenterID:      request.CenterID,
		ScheduledDate: req.ScheduledDate,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	qrID, err := s.qr.GenerateTextQRCode(ref)
	if err != nil {
		return nil, s.mapQRError(err)
	}
	verifyURL, err := s.qr.GenerateSoilTestingURL(ref)
	if err != nil {
		return nil, s.mapQRError(err)
	}
	imageURL, err := s.qr.GenerateQRCodeURL(ref)
	if err != nil {
		return nil, s.mapQRError(err)
	}

	if err := s.repo.MarkScheduled(ctx, request.ID, req.ScheduledDate, qrID, verifyURL, imageURL); err != nil {
		s.logger.Error("Failed to persist schedule", zap.Error(err), zap.Int64("request_id", request.ID))
		return nil, NewInternalError("failed to schedule soil test")
	}

	s.logger.Info("Soil test scheduled",
		zap.Int64("request_id", request.ID),
		zap.String("scheduled_date", req.ScheduledDate),
		zap.String("qr_identifier", qrID),
	)

	request.Status = models.SoilTestStatusScheduled
	request.ScheduledDate = &req.ScheduledDate
	request.QRIdentifier = &qrID
	request.VerifyURL = &verifyURL
	request.QRImageURL = &imageURL
	return request, nil
}

// Complete marks a scheduled request as completed
func (s *soilTestService) Complete(ctx context.Context, id int64) error {
	request, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if request.Status != models.SoilTestStatusScheduled {
		return NewConflictError("only scheduled requests can be completed", "REQUEST_NOT_SCHEDULED").
			WithDetails("status", request.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, models.SoilTestStatusCompleted); err != nil {
		s.logger.Error("Failed to complete request", zap.Error(err), zap.Int64("request_id", id))
		return NewInternalError("failed to complete soil test request")
	}
	return nil
}

// Cancel cancels a request. Farmers may only cancel their own requests;
// officers and admins may cancel any.
func (s *soilTestService) Cancel(ctx context.Context, id int64, actorID int64, actorRole string) error {
	request, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if actorRole == "farmer" && request.FarmerID != actorID {
		return NewForbiddenError("you may only cancel your own requests")
	}
	if request.Status == models.SoilTestStatusCompleted || request.Status == models.SoilTestStatusCancelled {
		return NewConflictError("request can no longer be cancelled", "REQUEST_FINALIZED").
			WithDetails("status", request.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, models.SoilTestStatusCancelled); err != nil {
		s.logger.Error("Failed to cancel request", zap.Error(err), zap.Int64("request_id", id))
		return NewInternalError("failed to cancel soil test request")
	}
	return nil
}

// ===============================
// QR VERIFICATION
// ===============================

// VerifyQRCode checks a scanned identifier. Bad input is a negative
// verdict, never an error; the lookup of the underlying request is best
// effort so verification still works if the record was since removed.
func (s *soilTestService) VerifyQRCode(ctx context.Context, identifier string) (*QRVerificationResult, error) {
	verdict := s.qr.VerifyQRCodeID(identifier)
	if !verdict.Valid {
		return &QRVerificationResult{Valid: false, Reason: verdict.Reason}, nil
	}

	result := &QRVerificationResult{Valid: true, Ref: verdict.Ref}

	request, err := s.repo.GetRequestByID(ctx, verdict.Ref.ScheduleID)
	if err != nil {
		s.logger.Warn("Failed to load request for verified QR code",
			zap.Error(err), zap.Int64("request_id", verdict.Ref.ScheduleID))
		return result, nil
	}
	result.Request = request
	return result, nil
}

// RenderQRImage renders the PNG for a previously minted identifier
func (s *soilTestService) RenderQRImage(ctx context.Context, identifier string, size int) ([]byte, error) {
	png, err := s.qr.RenderPNG(identifier, size)
	if err != nil {
		if errors.Is(err, qrcode.ErrUnknownIdentifier) {
			return nil, NewNotFoundError("unknown QR identifier")
		}
		s.logger.Error("Failed to render QR image", zap.Error(err))
		return nil, WrapInternal("failed to render QR image", err)
	}
	return png, nil
}

func (s *soilTestService) mapQRError(err error) error {
	if errors.Is(err, qrcode.ErrInvalidRef) {
		s.logger.Error("QR generation rejected schedule reference", zap.Error(err))
		return NewPreconditionError(err.Error())
	}
	s.logger.Error("QR generation failed", zap.Error(err))
	return WrapInternal("failed to generate QR code", err)
}
