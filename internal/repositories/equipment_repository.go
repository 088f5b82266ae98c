package repositories

import (
	"context"
	"database/sql"
	"errors"

	"agrilink/internal/database"
	"agrilink/internal/models"

	"go.uber.org/zap"
)

// EquipmentRepository provides persistence for equipment and rentals
type EquipmentRepository interface {
	// Equipment
	CreateEquipment(ctx context.Context, eq *models.Equipment) error
	GetEquipmentByID(ctx context.Context, id int64) (*models.Equipment, error)
	ListEquipment(ctx context.Context, district, category string, offset, limit int) ([]*models.Equipment, int64, error)
	SetEquipmentAvailable(ctx context.Context, id int64, available bool) error

	// Rentals
	CreateRental(ctx context.Context, rental *models.EquipmentRental) error
	GetRentalByID(ctx context.Context, id int64) (*models.EquipmentRental, error)
	ListRentalsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.EquipmentRental, int64, error)
	HasOverlappingRental(ctx context.Context, equipmentID int64, startDate, endDate string) (bool, error)
	UpdateRentalStatus(ctx context.Context, id int64, status string) error
	CountRentalsByStatus(ctx context.Context) (map[string]int64, error)
}

type equipmentRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(db *database.Manager, logger *zap.Logger) EquipmentRepository {
	return &equipmentRepository{db: db, logger: logger}
}

// ===============================
// EQUIPMENT
// ===============================

const equipmentColumns = `id, name, category, description, daily_rate, district, is_available, created_at`

func scanEquipment(row interface{ Scan(...interface{}) error }) (*models.Equipment, error) {
	var eq models.Equipment
	err := row.Scan(&eq.ID, &eq.Name, &eq.Category, &eq.Description, &eq.DailyRate, &eq.District, &eq.IsAvailable, &eq.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

func (r *equipmentRepository) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	query := `
		INSERT INTO equipment (name, category, description, daily_rate, district, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		eq.Name, eq.Category, eq.Description, eq.DailyRate, eq.District, eq.IsAvailable,
	).Scan(&eq.ID, &eq.CreatedAt)
}

func (r *equipmentRepository) GetEquipmentByID(ctx context.Context, id int64) (*models.Equipment, error) {
	eq, err := scanEquipment(r.db.QueryRowContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return eq, err
}

func (r *equipmentRepository) ListEquipment(ctx context.Context, district, category string, offset, limit int) ([]*models.Equipment, int64, error) {
	where := `WHERE is_available = TRUE`
	args := []interface{}{}
	if district != "" {
		args = append(args, district)
		where += ` AND district = $` + itoa(len(args))
	}
	if category != "" {
		args = append(args, category)
		where += ` AND category = $` + itoa(len(args))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment ` + where +
		` ORDER BY name OFFSET $` + itoa(len(args)+1) + ` LIMIT $` + itoa(len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*models.Equipment, 0, limit)
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, eq)
	}
	return items, total, rows.Err()
}

func (r *equipmentRepository) SetEquipmentAvailable(ctx context.Context, id int64, available bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE equipment SET is_available = $1 WHERE id = $2`, available, id)
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
// RENTALS
// ===============================

const rentalColumns = `id, reference, equipment_id, farmer_id, start_date, end_date, total_cost, status, created_at`

func scanRental(row interface{ Scan(...interface{}) error }) (*models.EquipmentRental, error) {
	var rental models.EquipmentRental
	err := row.Scan(
		&rental.ID, &rental.Reference, &rental.EquipmentID, &rental.FarmerID,
		&rental.StartDate, &rental.EndDate, &rental.TotalCost, &rental.Status, &rental.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *equipmentRepository) CreateRental(ctx context.Context, rental *models.EquipmentRental) error {
	query := `
		INSERT INTO equipment_rentals (reference, equipment_id, farmer_id, start_date, end_date, total_cost, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		rental.Reference, rental.EquipmentID, rental.FarmerID,
		rental.StartDate, rental.EndDate, rental.TotalCost, rental.Status,
	).Scan(&rental.ID, &rental.CreatedAt)
}

func (r *equipmentRepository) GetRentalByID(ctx context.Context, id int64) (*models.EquipmentRental, error) {
	rental, err := scanRental(r.db.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM equipment_rentals WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rental, err
}

func (r *equipmentRepository) ListRentalsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.EquipmentRental, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM equipment_rentals WHERE farmer_id = $1`, farmerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rentalColumns+` FROM equipment_rentals WHERE farmer_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		farmerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rentals := make([]*models.EquipmentRental, 0, limit)
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, 0, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, total, rows.Err()
}

// HasOverlappingRental reports whether an active rental overlaps the given date range.
// Two ranges overlap when each starts on or before the other ends.
func (r *equipmentRepository) HasOverlappingRental(ctx context.Context, equipmentID int64, startDate, endDate string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM equipment_rentals
			WHERE equipment_id = $1
			  AND status = $2
			  AND start_date <= $4
			  AND end_date >= $3
		)`,
		equipmentID, models.RentalStatusActive, startDate, endDate,
	).Scan(&exists)
	return exists, err
}

func (r *equipmentRepository) UpdateRentalStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE equipment_rentals SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *equipmentRepository) CountRentalsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM equipment_rentals GROUP BY status`)
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
