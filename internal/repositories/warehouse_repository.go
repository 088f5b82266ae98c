package repositories

import (
	"context"
	"database/sql"
	"errors"

	"agrilink/internal/database"
	"agrilink/internal/models"

	"go.uber.org/zap"
)

// WarehouseRepository provides persistence for warehouses and bookings
type WarehouseRepository interface {
	// Warehouses
	CreateWarehouse(ctx context.Context, wh *models.Warehouse) error
	GetWarehouseByID(ctx context.Context, id int64) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, district string, offset, limit int) ([]*models.Warehouse, int64, error)
	SetWarehouseActive(ctx context.Context, id int64, active bool) error

	// Bookings
	CreateBooking(ctx context.Context, booking *models.WarehouseBooking) error
	GetBookingByID(ctx context.Context, id int64) (*models.WarehouseBooking, error)
	ListBookingsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.WarehouseBooking, int64, error)
	BookedTonsInRange(ctx context.Context, warehouseID int64, startDate, endDate string) (float64, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	CountBookingsByStatus(ctx context.Context) (map[string]int64, error)
}

type warehouseRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(db *database.Manager, logger *zap.Logger) WarehouseRepository {
	return &warehouseRepository{db: db, logger: logger}
}

// ===============================
// WAREHOUSES
// ===============================

const warehouseColumns = `id, name, district, capacity_tons, rate_per_ton_day, is_active, created_at`

func scanWarehouse(row interface{ Scan(...interface{}) error }) (*models.Warehouse, error) {
	var wh models.Warehouse
	err := row.Scan(&wh.ID, &wh.Name, &wh.District, &wh.CapacityTons, &wh.RatePerTonDay, &wh.IsActive, &wh.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &wh, nil
}

func (r *warehouseRepository) CreateWarehouse(ctx context.Context, wh *models.Warehouse) error {
	query := `
		INSERT INTO warehouses (name, district, capacity_tons, rate_per_ton_day, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		wh.Name, wh.District, wh.CapacityTons, wh.RatePerTonDay, wh.IsActive,
	).Scan(&wh.ID, &wh.CreatedAt)
}

func (r *warehouseRepository) GetWarehouseByID(ctx context.Context, id int64) (*models.Warehouse, error) {
	wh, err := scanWarehouse(r.db.QueryRowContext(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return wh, err
}

func (r *warehouseRepository) ListWarehouses(ctx context.Context, district string, offset, limit int) ([]*models.Warehouse, int64, error) {
	where := `WHERE is_active = TRUE`
	args := []interface{}{}
	if district != "" {
		args = append(args, district)
		where += ` AND district = $` + itoa(len(args))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM warehouses `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + warehouseColumns + ` FROM warehouses ` + where +
		` ORDER BY name OFFSET $` + itoa(len(args)+1) + ` LIMIT $` + itoa(len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	warehouses := make([]*models.Warehouse, 0, limit)
	for rows.Next() {
		wh, err := scanWarehouse(rows)
		if err != nil {
			return nil, 0, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, total, rows.Err()
}

func (r *warehouseRepository) SetWarehouseActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE warehouses SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ===============================
// BOOKINGS
// ===============================

const bookingColumns = `id, reference, warehouse_id, farmer_id, tons, start_date, end_date, status, created_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*models.WarehouseBooking, error) {
	var booking models.WarehouseBooking
	err := row.Scan(
		&booking.ID, &booking.Reference, &booking.WarehouseID, &booking.FarmerID,
		&booking.Tons, &booking.StartDate, &booking.EndDate, &booking.Status, &booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *warehouseRepository) CreateBooking(ctx context.Context, booking *models.WarehouseBooking) error {
	query := `
		INSERT INTO warehouse_bookings (reference, warehouse_id, farmer_id, tons, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		booking.Reference, booking.WarehouseID, booking.FarmerID,
		booking.Tons, booking.StartDate, booking.EndDate, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt)
}

func (r *warehouseRepository) GetBookingByID(ctx context.Context, id int64) (*models.WarehouseBooking, error) {
	booking, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM warehouse_bookings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return booking, err
}

func (r *warehouseRepository) ListBookingsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.WarehouseBooking, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM warehouse_bookings WHERE farmer_id = $1`, farmerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM warehouse_bookings WHERE farmer_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		farmerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]*models.WarehouseBooking, 0, limit)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, total, rows.Err()
}

// BookedTonsInRange returns the sum of active booked tonnage that overlaps
// the given date range. Used for capacity checks before accepting a booking.
func (r *warehouseRepository) BookedTonsInRange(ctx context.Context, warehouseID int64, startDate, endDate string) (float64, error) {
	var tons float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(tons), 0) FROM warehouse_bookings
		WHERE warehouse_id = $1
		  AND status = $2
		  AND start_date <= $4
		  AND end_date >= $3`,
		warehouseID, models.BookingStatusActive, startDate, endDate,
	).Scan(&tons)
	return tons, err
}

func (r *warehouseRepository) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE warehouse_bookings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *warehouseRepository) CountBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM warehouse_bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
