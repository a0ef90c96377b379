package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"inmobiliaria-api/internal/models"

	_ "github.com/lib/pq"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname, sslmode string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// NewDBFromConn wraps an existing connection pool.
func NewDBFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// SetPoolLimits bounds the connection pool.
func (db *DB) SetPoolLimits(maxOpen, maxIdle int, maxIdleTime time.Duration) {
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(maxIdle)
	db.conn.SetConnMaxIdleTime(maxIdleTime)
}

// Ping verifies the data store is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Stats reports connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.conn.Stats()
}

// InitSchema creates the tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price NUMERIC NOT NULL CHECK (price >= 0),
		location TEXT NOT NULL,
		type VARCHAR(20) NOT NULL,
		operation VARCHAR(20) NOT NULL,
		bedrooms INTEGER,
		bathrooms INTEGER,
		area NUMERIC,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'disponible',
		main_image TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS property_images (
		id SERIAL PRIMARY KEY,
		property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		url TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS favorites (
		property_id INTEGER PRIMARY KEY REFERENCES properties(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS inquiries (
		id SERIAL PRIMARY KEY,
		property_id INTEGER REFERENCES properties(id) ON DELETE SET NULL,
		client_name TEXT NOT NULL,
		client_phone TEXT,
		message TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pendiente',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	-- Indexes for the list query
	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_featured ON properties(featured);
	CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(type);
	CREATE INDEX IF NOT EXISTS idx_properties_operation ON properties(operation);
	CREATE INDEX IF NOT EXISTS idx_property_images_property_id ON property_images(property_id);
	`
	_, err := db.conn.Exec(query)
	return err
}

const propertyColumns = `id, title, description, price, location, type, operation,
	bedrooms, bathrooms, area, featured, status, main_image, created_at`

func scanProperty(row interface{ Scan(...interface{}) error }, p *models.Property) error {
	return row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Location, &p.Type, &p.Operation,
		&p.Bedrooms, &p.Bathrooms, &p.Area, &p.Featured, &p.Status, &p.MainImage, &p.CreatedAt,
	)
}

// GetProperties retrieves properties matching the supplied filters, featured
// listings first, newest first within equal featured status.
func (db *DB) GetProperties(filters PropertyFilters) ([]models.Property, error) {
	var conditions []string
	var args []interface{}

	if filters.Type != "" {
		args = append(args, filters.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filters.Operation != "" {
		args = append(args, filters.Operation)
		conditions = append(conditions, fmt.Sprintf("operation = $%d", len(args)))
	}
	if filters.MinPrice != nil {
		args = append(args, *filters.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filters.MaxPrice != nil {
		args = append(args, *filters.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := "SELECT " + propertyColumns + " FROM properties"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY featured DESC, created_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		var p models.Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

// GetPropertyByID retrieves a property by ID, without its images.
func (db *DB) GetPropertyByID(id int64) (*models.Property, error) {
	query := "SELECT " + propertyColumns + " FROM properties WHERE id = $1"

	var p models.Property
	err := scanProperty(db.conn.QueryRow(query, id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetPropertyImages retrieves the image rows for a property in insertion order.
func (db *DB) GetPropertyImages(propertyID int64) ([]models.PropertyImage, error) {
	rows, err := db.conn.Query(
		"SELECT id, property_id, url FROM property_images WHERE property_id = $1 ORDER BY id ASC",
		propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]models.PropertyImage, 0)
	for rows.Next() {
		var img models.PropertyImage
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.URL); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

// GetRecentProperties retrieves the most recently created properties.
func (db *DB) GetRecentProperties(limit int) ([]models.Property, error) {
	query := "SELECT " + propertyColumns + " FROM properties ORDER BY created_at DESC LIMIT $1"

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		var p models.Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

func insertImagesTx(tx *sql.Tx, propertyID int64, urls []string) error {
	for _, url := range urls {
		if _, err := tx.Exec(
			"INSERT INTO property_images (property_id, url) VALUES ($1, $2)",
			propertyID, url); err != nil {
			return err
		}
	}
	return nil
}

// CreatePropertyWithImages inserts a property and its image list as one
// atomic unit. If any image insert fails the property insert is rolled back.
func (db *DB) CreatePropertyWithImages(p *models.Property, imageURLs []string) error {
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO properties (title, description, price, location, type, operation,
			bedrooms, bathrooms, area, featured, status, main_image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		p.Title, p.Description, p.Price, p.Location, p.Type, p.Operation,
		p.Bedrooms, p.Bathrooms, p.Area, p.Featured, p.Status, p.MainImage, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return err
	}

	if err := insertImagesTx(tx, p.ID, imageURLs); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePropertyWithImages overwrites every property attribute and fully
// replaces the image list in a single transaction. The original creation
// timestamp is preserved. Returns ErrNotFound for an unknown id.
func (db *DB) UpdatePropertyWithImages(id int64, p *models.Property, imageURLs []string) error {
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE properties SET
			title = $1, description = $2, price = $3, location = $4,
			type = $5, operation = $6, bedrooms = $7, bathrooms = $8,
			area = $9, featured = $10, status = $11, main_image = $12
		WHERE id = $13`,
		p.Title, p.Description, p.Price, p.Location,
		p.Type, p.Operation, p.Bedrooms, p.Bathrooms,
		p.Area, p.Featured, p.Status, p.MainImage, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec("DELETE FROM property_images WHERE property_id = $1", id); err != nil {
		return err
	}
	if err := insertImagesTx(tx, id, imageURLs); err != nil {
		return err
	}

	p.ID = id
	return tx.Commit()
}

// DeleteProperty removes a property. Images and the favorite flag cascade at
// the store level; inquiry references are set to NULL.
func (db *DB) DeleteProperty(id int64) error {
	result, err := db.conn.Exec("DELETE FROM properties WHERE id = $1", id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite marks a property as favorite. Adding an existing favorite is a
// no-op, not an error.
func (db *DB) AddFavorite(propertyID int64) error {
	_, err := db.conn.Exec(
		"INSERT INTO favorites (property_id, created_at) VALUES ($1, $2) ON CONFLICT (property_id) DO NOTHING",
		propertyID, time.Now())
	return err
}

// RemoveFavorite clears the favorite flag. Removing a non-favorite is a no-op.
func (db *DB) RemoveFavorite(propertyID int64) error {
	_, err := db.conn.Exec("DELETE FROM favorites WHERE property_id = $1", propertyID)
	return err
}

// GetFavoriteProperties retrieves the full property records currently
// favorited, most recently favorited first.
func (db *DB) GetFavoriteProperties() ([]models.Property, error) {
	query := `
		SELECT p.id, p.title, p.description, p.price, p.location, p.type, p.operation,
			p.bedrooms, p.bathrooms, p.area, p.featured, p.status, p.main_image, p.created_at
		FROM properties p
		JOIN favorites f ON f.property_id = p.id
		ORDER BY f.created_at DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		var p models.Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

// GetStats computes the dashboard counts. The four counts run concurrently
// and carry no cross-count consistency guarantee.
func (db *DB) GetStats() (*models.DashboardStats, error) {
	var stats models.DashboardStats
	var wg sync.WaitGroup
	errs := make([]error, 4)

	count := func(idx int, dest *int64, query string, args ...interface{}) {
		defer wg.Done()
		errs[idx] = db.conn.QueryRow(query, args...).Scan(dest)
	}

	wg.Add(4)
	go count(0, &stats.Total, "SELECT COUNT(*) FROM properties")
	go count(1, &stats.Active, "SELECT COUNT(*) FROM properties WHERE status = $1", string(models.PropertyStatusAvailable))
	go count(2, &stats.Sold, "SELECT COUNT(*) FROM properties WHERE status = $1", string(models.PropertyStatusSold))
	go count(3, &stats.Inquiries, "SELECT COUNT(*) FROM inquiries")
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// GetInquiries retrieves all inquiries newest first, each carrying the title
// and main image of its property when the property still exists.
func (db *DB) GetInquiries() ([]models.InquiryWithProperty, error) {
	query := `
		SELECT i.id, i.property_id, i.client_name, i.client_phone, i.message, i.status, i.created_at,
			COALESCE(p.title, ''), COALESCE(p.main_image, '')
		FROM inquiries i
		LEFT JOIN properties p ON p.id = i.property_id
		ORDER BY i.created_at DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inquiries := make([]models.InquiryWithProperty, 0)
	for rows.Next() {
		var q models.InquiryWithProperty
		err := rows.Scan(
			&q.ID, &q.PropertyID, &q.ClientName, &q.ClientPhone, &q.Message, &q.Status, &q.CreatedAt,
			&q.PropertyTitle, &q.PropertyImage,
		)
		if err != nil {
			return nil, err
		}
		inquiries = append(inquiries, q)
	}

	return inquiries, rows.Err()
}

// CreateInquiry stores a new inquiry with status pendiente.
func (db *DB) CreateInquiry(q *models.Inquiry) error {
	if q.Status == "" {
		q.Status = models.InquiryStatusPending
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	return db.conn.QueryRow(`
		INSERT INTO inquiries (property_id, client_name, client_phone, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		q.PropertyID, q.ClientName, q.ClientPhone, q.Message, q.Status, q.CreatedAt,
	).Scan(&q.ID)
}
