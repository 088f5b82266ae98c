// file: internal/services/soiltest_service_test.go
package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"agrilink/internal/models"
	"agrilink/internal/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSoilTestRepo is an in-memory SoilTestRepository
type fakeSoilTestRepo struct {
	centers   map[int64]*models.SoilTestCenter
	requests  map[int64]*models.SoilTestRequest
	nextID    int64
	scheduled map[string]int64 // "centerID|date" -> count
}

func newFakeSoilTestRepo() *fakeSoilTestRepo {
	return &fakeSoilTestRepo{
		centers:   make(map[int64]*models.SoilTestCenter),
		requests:  make(map[int64]*models.SoilTestRequest),
		scheduled: make(map[string]int64),
		nextID:    1,
	}
}

func (f *fakeSoilTestRepo) CreateCenter(ctx context.Context, c *models.SoilTestCenter) error {
	c.ID = f.nextID
	f.nextID++
	f.centers[c.ID] = c
	return nil
}

func (f *fakeSoilTestRepo) GetCenterByID(ctx context.Context, id int64) (*models.SoilTestCenter, error) {
	return f.centers[id], nil
}

func (f *fakeSoilTestRepo) ListCenters(ctx context.Context, district string, offset, limit int) ([]*models.SoilTestCenter, int64, error) {
	var out []*models.SoilTestCenter
	for _, c := range f.centers {
		if district == "" || c.District == district {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSoilTestRepo) SetCenterActive(ctx context.Context, id int64, active bool) error {
	if c, ok := f.centers[id]; ok {
		c.IsActive = active
	}
	return nil
}

func (f *fakeSoilTestRepo) CountScheduledOnDate(ctx context.Context, centerID int64, date string) (int64, error) {
	return f.scheduled[scheduleKey(centerID, date)], nil
}

func (f *fakeSoilTestRepo) CreateRequest(ctx context.Context, r *models.SoilTestRequest) error {
	r.ID = f.nextID
	f.nextID++
	f.requests[r.ID] = r
	return nil
}

func (f *fakeSoilTestRepo) GetRequestByID(ctx context.Context, id int64) (*models.SoilTestRequest, error) {
	return f.requests[id], nil
}

func (f *fakeSoilTestRepo) ListRequestsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.SoilTestRequest, int64, error) {
	var out []*models.SoilTestRequest
	for _, r := range f.requests {
		if r.FarmerID == farmerID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSoilTestRepo) MarkScheduled(ctx context.Context, id int64, date, qrID, verifyURL, imageURL string) error {
	r := f.requests[id]
	r.Status = models.SoilTestStatusScheduled
	r.ScheduledDate = &date
	r.QRIdentifier = &qrID
	r.VerifyURL = &verifyURL
	r.QRImageURL = &imageURL
	f.scheduled[scheduleKey(r.CenterID, date)]++
	return nil
}

func (f *fakeSoilTestRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	f.requests[id].Status = status
	return nil
}

func (f *fakeSoilTestRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, r := range f.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func scheduleKey(centerID int64, date string) string {
	return date + "@" + strconv.FormatInt(centerID, 10)
}

func newSoilTestFixture(t *testing.T) (SoilTestService, *fakeSoilTestRepo) {
	t.Helper()
	qrSvc, err := qrcode.NewService("test-secret", "https://agrilink.example.com", "/api/v1/soil-tests/verify", 256)
	require.NoError(t, err)
	repo := newFakeSoilTestRepo()
	return NewSoilTestService(repo, qrSvc, zap.NewNop()), repo
}

func seedCenterAndRequest(t *testing.T, svc SoilTestService) *models.SoilTestRequest {
	t.Helper()
	ctx := context.Background()

	center, err := svc.CreateCenter(ctx, &CreateCenterRequest{
		Name:          "Nakuru Soil Lab",
		District:      "Nakuru",
		Address:       "12 Agronomy Road",
		DailyCapacity: 2,
	})
	require.NoError(t, err)

	request, err := svc.CreateRequest(ctx, 456, &CreateSoilTestRequest{
		CenterID: center.ID,
		CropType: "maize",
		PlotSize: 2.5,
	})
	require.NoError(t, err)
	return request
}

func TestScheduleMintsQRIdentifier(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	request := seedCenterAndRequest(t, svc)

	scheduled, err := svc.Schedule(context.Background(), &ScheduleSoilTestRequest{
		RequestID:     request.ID,
		ScheduledDate: "2025-01-20",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SoilTestStatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.QRIdentifier)
	assert.True(t, strings.HasPrefix(*scheduled.QRIdentifier, "AGL1-"))
	require.NotNil(t, scheduled.VerifyURL)
	assert.Contains(t, *scheduled.VerifyURL, *scheduled.QRIdentifier)
	require.NotNil(t, scheduled.QRImageURL)
	assert.Contains(t, *scheduled.QRImageURL, "/image")
}

func TestScheduleThenVerifyRoundTrip(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	request := seedCenterAndRequest(t, svc)

	scheduled, err := svc.Schedule(context.Background(), &ScheduleSoilTestRequest{
		RequestID:     request.ID,
		ScheduledDate: "2025-01-20",
	})
	require.NoError(t, err)

	result, err := svc.VerifyQRCode(context.Background(), *scheduled.QRIdentifier)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.NotNil(t, result.Ref)
	assert.Equal(t, scheduled.ID, result.Ref.ScheduleID)
	assert.Equal(t, int64(456), result.Ref.FarmerID)
	assert.Equal(t, "2025-01-20", result.Ref.ScheduledDate)
	require.NotNil(t, result.Request)
	assert.Equal(t, scheduled.ID, result.Request.ID)
}

func TestVerifyQRCodeBadInputIsVerdictNotError(t *testing.T) {
	svc, _ := newSoilTestFixture(t)

	for _, identifier := range []string{"", "not-a-real-code", "AGL1-tampered-000000000000"} {
		result, err := svc.VerifyQRCode(context.Background(), identifier)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Reason)
	}
}

func TestDeactivatedCenterBlocksNewRequests(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	request := seedCenterAndRequest(t, svc)

	require.NoError(t, svc.SetCenterActive(context.Background(), request.CenterID, false))

	_, err := svc.CreateRequest(context.Background(), 999, &CreateSoilTestRequest{
		CenterID: request.CenterID,
		CropType: "beans",
		PlotSize: 1.0,
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestSetCenterActiveUnknownCenter(t *testing.T) {
	svc, _ := newSoilTestFixture(t)

	err := svc.SetCenterActive(context.Background(), 404, true)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestScheduleRejectsNonPendingRequest(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	request := seedCenterAndRequest(t, svc)

	_, err := svc.Schedule(context.Background(), &ScheduleSoilTestRequest{
		RequestID:     request.ID,
		ScheduledDate: "2025-01-20",
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), &ScheduleSoilTestRequest{
		RequestID:     request.ID,
		ScheduledDate: "2025-01-21",
	})
	assert.True(t, IsConflictError(err))
}

func TestScheduleHonorsDailyCapacity(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	ctx := context.Background()

	first := seedCenterAndRequest(t, svc)

	// Same center, two more farmers. Capacity is 2 per day.
	second, err := svc.CreateRequest(ctx, 457, &CreateSoilTestRequest{
		CenterID: first.CenterID, CropType: "beans", PlotSize: 1,
	})
	require.NoError(t, err)
	third, err := svc.CreateRequest(ctx, 458, &CreateSoilTestRequest{
		CenterID: first.CenterID, CropType: "wheat", PlotSize: 3,
	})
	require.NoError(t, err)

	_, err = svc.Schedule(ctx, &ScheduleSoilTestRequest{RequestID: first.ID, ScheduledDate: "2025-01-20"})
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, &ScheduleSoilTestRequest{RequestID: second.ID, ScheduledDate: "2025-01-20"})
	require.NoError(t, err)

	_, err = svc.Schedule(ctx, &ScheduleSoilTestRequest{RequestID: third.ID, ScheduledDate: "2025-01-20"})
	assert.True(t, IsConflictError(err))

	// A different day is fine.
	_, err = svc.Schedule(ctx, &ScheduleSoilTestRequest{RequestID: third.ID, ScheduledDate: "2025-01-21"})
	assert.NoError(t, err)
}

func TestScheduleValidatesDateFormat(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	request := seedCenterAndRequest(t, svc)

	_, err := svc.Schedule(context.Background(), &ScheduleSoilTestRequest{
		RequestID:     request.ID,
		ScheduledDate: "20/01/2025",
	})
	assert.True(t, IsValidationError(err))
}

func TestCancelEnforcesOwnership(t *testing.T) {
	svc, _ := newSoilTestFixture(t)
	request := seedCenterAndRequest(t, svc)

	err := svc.Cancel(context.Background(), request.ID, 999, "farmer")
	assert.Error(t, err)

	err = svc.Cancel(context.Background(), request.ID, request.FarmerID, "farmer")
	assert.NoError(t, err)

	// Already cancelled
	err = svc.Cancel(context.Background(), request.ID, request.FarmerID, "farmer")
	assert.True(t, IsConflictError(err))
}

func TestCreateRequestUnknownCenter(t *testing.T) {
	svc, _ := newSoilTestFixture(t)

	_, err := svc.CreateRequest(context.Background(), 456, &CreateSoilTestRequest{
		CenterID: 42, CropType: "maize", PlotSize: 1,
	})
	assert.True(t, IsNotFoundError(err))
}
