// file: internal/services/booking_service_test.go
package services

import (
	"context"
	"testing"

	"agrilink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWarehouseRepo is an in-memory WarehouseRepository
type fakeWarehouseRepo struct {
	warehouses map[int64]*models.Warehouse
	bookings   map[int64]*models.WarehouseBooking
	nextID     int64
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	return &fakeWarehouseRepo{
		warehouses: make(map[int64]*models.Warehouse),
		bookings:   make(map[int64]*models.WarehouseBooking),
		nextID:     1,
	}
}

func (f *fakeWarehouseRepo) CreateWarehouse(ctx context.Context, wh *models.Warehouse) error {
	wh.ID = f.nextID
	f.nextID++
	f.warehouses[wh.ID] = wh
	return nil
}

func (f *fakeWarehouseRepo) GetWarehouseByID(ctx context.Context, id int64) (*models.Warehouse, error) {
	return f.warehouses[id], nil
}

func (f *fakeWarehouseRepo) ListWarehouses(ctx context.Context, district string, offset, limit int) ([]*models.Warehouse, int64, error) {
	var out []*models.Warehouse
	for _, wh := range f.warehouses {
		if district == "" || wh.District == district {
			out = append(out, wh)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeWarehouseRepo) SetWarehouseActive(ctx context.Context, id int64, active bool) error {
	if wh, ok := f.warehouses[id]; ok {
		wh.IsActive = active
	}
	return nil
}

func (f *fakeWarehouseRepo) CreateBooking(ctx context.Context, booking *models.WarehouseBooking) error {
	booking.ID = f.nextID
	f.nextID++
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeWarehouseRepo) GetBookingByID(ctx context.Context, id int64) (*models.WarehouseBooking, error) {
	return f.bookings[id], nil
}

func (f *fakeWarehouseRepo) ListBookingsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.WarehouseBooking, int64, error) {
	var out []*models.WarehouseBooking
	for _, b := range f.bookings {
		if b.FarmerID == farmerID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeWarehouseRepo) BookedTonsInRange(ctx context.Context, warehouseID int64, startDate, endDate string) (float64, error) {
	var tons float64
	for _, b := range f.bookings {
		if b.WarehouseID != warehouseID || b.Status != models.BookingStatusActive {
			continue
		}
		if b.StartDate <= endDate && b.EndDate >= startDate {
			tons += b.Tons
		}
	}
	return tons, nil
}

func (f *fakeWarehouseRepo) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	f.bookings[id].Status = status
	return nil
}

func (f *fakeWarehouseRepo) CountBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, b := range f.bookings {
		counts[b.Status]++
	}
	return counts, nil
}

func newBookingFixture(t *testing.T) (BookingService, *models.Warehouse) {
	t.Helper()
	svc := NewBookingService(newFakeWarehouseRepo(), zap.NewNop())

	wh, err := svc.CreateWarehouse(context.Background(), &CreateWarehouseRequest{
		Name:          "Kitale Grain Store",
		District:      "Kitale",
		CapacityTons:  100,
		RatePerTonDay: 2.5,
	})
	require.NoError(t, err)
	return svc, wh
}

func TestDeactivatedWarehouseRejectsNewBookings(t *testing.T) {
	svc, wh := newBookingFixture(t)

	require.NoError(t, svc.SetWarehouseActive(context.Background(), wh.ID, false))

	_, err := svc.CreateBooking(context.Background(), 456, &CreateBookingRequest{
		WarehouseID: wh.ID,
		Tons:        10,
		StartDate:   "2025-04-01",
		EndDate:     "2025-04-30",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestSetWarehouseActiveUnknownWarehouse(t *testing.T) {
	svc, _ := newBookingFixture(t)

	err := svc.SetWarehouseActive(context.Background(), 404, true)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestCreateBookingWithinCapacity(t *testing.T) {
	svc, wh := newBookingFixture(t)

	booking, err := svc.CreateBooking(context.Background(), 456, &CreateBookingRequest{
		WarehouseID: wh.ID,
		Tons:        60,
		StartDate:   "2025-04-01",
		EndDate:     "2025-04-30",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, booking.Status)
	assert.NotEmpty(t, booking.Reference)
}

func TestCreateBookingRejectsOverCapacity(t *testing.T) {
	svc, wh := newBookingFixture(t)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, 456, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 60, StartDate: "2025-04-01", EndDate: "2025-04-30",
	})
	require.NoError(t, err)

	// 60 + 50 > 100 over an overlapping range
	_, err = svc.CreateBooking(ctx, 777, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 50, StartDate: "2025-04-15", EndDate: "2025-05-15",
	})
	assert.True(t, IsConflictError(err))

	// Disjoint range is fine
	_, err = svc.CreateBooking(ctx, 777, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 50, StartDate: "2025-05-01", EndDate: "2025-05-15",
	})
	assert.NoError(t, err)
}

func TestCreateBookingRejectsTonnageAboveTotal(t *testing.T) {
	svc, wh := newBookingFixture(t)

	_, err := svc.CreateBooking(context.Background(), 456, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 150, StartDate: "2025-04-01", EndDate: "2025-04-30",
	})
	assert.True(t, IsErrorType(err, "BUSINESS_ERROR"))
}

func TestReleaseBookingFreesCapacity(t *testing.T) {
	svc, wh := newBookingFixture(t)
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, 456, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 100, StartDate: "2025-04-01", EndDate: "2025-04-30",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ReleaseBooking(ctx, booking.ID, 456))

	_, err = svc.CreateBooking(ctx, 777, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 100, StartDate: "2025-04-01", EndDate: "2025-04-30",
	})
	assert.NoError(t, err)
}

func TestReleaseBookingEnforcesOwnership(t *testing.T) {
	svc, wh := newBookingFixture(t)
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, 456, &CreateBookingRequest{
		WarehouseID: wh.ID, Tons: 10, StartDate: "2025-04-01", EndDate: "2025-04-05",
	})
	require.NoError(t, err)

	assert.Error(t, svc.ReleaseBooking(ctx, booking.ID, 999))
}
