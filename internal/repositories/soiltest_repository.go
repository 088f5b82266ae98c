package repositories

import (
	"context"
	"database/sql"
	"errors"

	"agrilink/internal/database"
	"agrilink/internal/models"

	"go.uber.org/zap"
)

// SoilTestRepository provides persistence for soil test centers and requests
type SoilTestRepository interface {
	// Centers
	CreateCenter(ctx context.Context, center *models.SoilTestCenter) error
	GetCenterByID(ctx context.Context, id int64) (*models.SoilTestCenter, error)
	ListCenters(ctx context.Context, district string, offset, limit int) ([]*models.SoilTestCenter, int64, error)
	SetCenterActive(ctx context.Context, id int64, active bool) error
	CountScheduledOnDate(ctx context.Context, centerID int64, date string) (int64, error)

	// Requests
	CreateRequest(ctx context.Context, req *models.SoilTestRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.SoilTestRequest, error)
	ListRequestsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.SoilTestRequest, int64, error)
	MarkScheduled(ctx context.Context, id int64, date, qrID, verifyURL, imageURL string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type soilTestRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewSoilTestRepository creates a new soil test repository
func NewSoilTestRepository(db *database.Manager, logger *zap.Logger) SoilTestRepository {
	return &soilTestRepository{db: db, logger: logger}
}

// ===============================
// CENTERS
// ===============================

const centerColumns = `id, name, district, address, contact_phone, daily_capacity, is_active, created_at`

func scanCenter(row interface{ Scan(...interface{}) error }) (*models.SoilTestCenter, error) {
	var c models.SoilTestCenter
	err := row.Scan(&c.ID, &c.Name, &c.District, &c.Address, &c.ContactPhone, &c.DailyCapacity, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *soilTestRepository) CreateCenter(ctx context.Context, center *models.SoilTestCenter) error {
	query := `
		INSERT INTO soil_test_centers (name, district, address, contact_phone, daily_capacity, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		center.Name, center.District, center.Address, center.ContactPhone, center.DailyCapacity, center.IsActive,
	).Scan(&center.ID, &center.CreatedAt)
}

func (r *soilTestRepository) GetCenterByID(ctx context.Context, id int64) (*models.SoilTestCenter, error) {
	center, err := scanCenter(r.db.QueryRowContext(ctx,
		`SELECT `+centerColumns+` FROM soil_test_centers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return center, err
}

func (r *soilTestRepository) ListCenters(ctx context.Context, district string, offset, limit int) ([]*models.SoilTestCenter, int64, error) {
	where := `WHERE is_active = TRUE`
	args := []interface{}{}
	if district != "" {
		where += ` AND district = $1`
		args = append(args, district)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM soil_test_centers `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + centerColumns + ` FROM soil_test_centers ` + where +
		` ORDER BY name OFFSET $` + itoa(len(args)+1) + ` LIMIT $` + itoa(len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	centers := make([]*models.SoilTestCenter, 0, limit)
	for rows.Next() {
		center, err := scanCenter(rows)
		if err != nil {
			return nil, 0, err
		}
		centers = append(centers, center)
	}
	return centers, total, rows.Err()
}

func (r *soilTestRepository) SetCenterActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE soil_test_centers SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *soilTestRepository) CountScheduledOnDate(ctx context.Context, centerID int64, date string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM soil_test_requests WHERE center_id = $1 AND scheduled_date = $2 AND status = $3`,
		centerID, date, models.SoilTestStatusScheduled,
	).Scan(&count)
	return count, err
}

// ===============================
// REQUESTS
// ===============================

const requestColumns = `id, farmer_id, center_id, crop_type, plot_size_acres, status, notes, scheduled_date, qr_identifier, verify_url, qr_image_url, created_at, updated_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.SoilTestRequest, error) {
	var req models.SoilTestRequest
	err := row.Scan(
		&req.ID, &req.FarmerID, &req.CenterID, &req.CropType, &req.PlotSize,
		&req.Status, &req.Notes, &req.ScheduledDate, &req.QRIdentifier,
		&req.VerifyURL, &req.QRImageURL, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *soilTestRepository) CreateRequest(ctx context.Context, req *models.SoilTestRequest) error {
	query := `
		INSERT INTO soil_test_requests (farmer_id, center_id, crop_type, plot_size_acres, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		req.FarmerID, req.CenterID, req.CropType, req.PlotSize, req.Status, req.Notes,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *soilTestRepository) GetRequestByID(ctx context.Context, id int64) (*models.SoilTestRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM soil_test_requests WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *soilTestRepository) ListRequestsByFarmer(ctx context.Context, farmerID int64, offset, limit int) ([]*models.SoilTestRequest, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM soil_test_requests WHERE farmer_id = $1`, farmerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM soil_test_requests WHERE farmer_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		farmerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := make([]*models.SoilTestRequest, 0, limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

func (r *soilTestRepository) MarkScheduled(ctx context.Context, id int64, date, qrID, verifyURL, imageURL string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE soil_test_requests
		SET status = $1, scheduled_date = $2, qr_identifier = $3, verify_url = $4, qr_image_url = $5, updated_at = NOW()
		WHERE id = $6`,
		models.SoilTestStatusScheduled, date, qrID, verifyURL, imageURL, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *soilTestRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE soil_test_requests SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *soilTestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM soil_test_requests GROUP BY status`)
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
