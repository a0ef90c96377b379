package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"inmobiliaria-api/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname, sslmode string) (*GormDB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetPoolLimits bounds the underlying connection pool.
func (gdb *GormDB) SetPoolLimits(maxOpen, maxIdle int, maxIdleTime time.Duration) error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)
	return nil
}

// Ping verifies the data store is reachable.
func (gdb *GormDB) Ping() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Stats reports connection pool statistics.
func (gdb *GormDB) Stats() sql.DBStats {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return sql.DBStats{}
	}
	return sqlDB.Stats()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Property{},
		&models.PropertyImage{},
		&models.Favorite{},
		&models.Inquiry{},
	)
}

// GetProperties retrieves properties matching the supplied filters, featured
// listings first, newest first within equal featured status.
func (gdb *GormDB) GetProperties(filters PropertyFilters) ([]models.Property, error) {
	query := gdb.db.Model(&models.Property{})

	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.Operation != "" {
		query = query.Where("operation = ?", filters.Operation)
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", *filters.MaxPrice)
	}

	properties := make([]models.Property, 0)
	err := query.Order("featured DESC").Order("created_at DESC").Find(&properties).Error
	return properties, err
}

// GetPropertyByID retrieves a property by ID, without its images.
func (gdb *GormDB) GetPropertyByID(id int64) (*models.Property, error) {
	var property models.Property
	err := gdb.db.Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyImages retrieves the image rows for a property in insertion order.
func (gdb *GormDB) GetPropertyImages(propertyID int64) ([]models.PropertyImage, error) {
	images := make([]models.PropertyImage, 0)
	err := gdb.db.Where("property_id = ?", propertyID).Order("id ASC").Find(&images).Error
	return images, err
}

// GetRecentProperties retrieves the most recently created properties.
func (gdb *GormDB) GetRecentProperties(limit int) ([]models.Property, error) {
	properties := make([]models.Property, 0)
	err := gdb.db.Order("created_at DESC").Limit(limit).Find(&properties).Error
	return properties, err
}

// replaceImages deletes every image row for the property and inserts the new
// list, order preserved. Must run inside a transaction.
func replaceImages(tx *gorm.DB, propertyID int64, urls []string) error {
	if err := tx.Where("property_id = ?", propertyID).Delete(&models.PropertyImage{}).Error; err != nil {
		return err
	}
	return insertImages(tx, propertyID, urls)
}

func insertImages(tx *gorm.DB, propertyID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	images := make([]models.PropertyImage, len(urls))
	for i, url := range urls {
		images[i] = models.PropertyImage{PropertyID: propertyID, URL: url}
	}
	return tx.Create(&images).Error
}

// CreatePropertyWithImages inserts a property and its image list as one
// atomic unit. If any image insert fails the property insert is rolled back.
func (gdb *GormDB) CreatePropertyWithImages(p *models.Property, imageURLs []string) error {
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		return insertImages(tx, p.ID, imageURLs)
	})
}

// UpdatePropertyWithImages overwrites every property attribute and fully
// replaces the image list in a single transaction. The original creation
// timestamp is preserved. Returns ErrNotFound for an unknown id.
func (gdb *GormDB) UpdatePropertyWithImages(id int64, p *models.Property, imageURLs []string) error {
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}

	err := gdb.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Property
		if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
			return err
		}

		// Full overwrite, keeping identity and original CreatedAt
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}

		return replaceImages(tx, existing.ID, imageURLs)
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// DeleteProperty removes a property. Images and the favorite flag cascade at
// the store level; inquiry references are set to NULL.
func (gdb *GormDB) DeleteProperty(id int64) error {
	result := gdb.db.Delete(&models.Property{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite marks a property as favorite. Adding an existing favorite is a
// no-op, not an error.
func (gdb *GormDB) AddFavorite(propertyID int64) error {
	fav := models.Favorite{PropertyID: propertyID, CreatedAt: time.Now()}
	return gdb.db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&fav).Error
}

// RemoveFavorite clears the favorite flag. Removing a non-favorite is a no-op.
func (gdb *GormDB) RemoveFavorite(propertyID int64) error {
	return gdb.db.Where("property_id = ?", propertyID).Delete(&models.Favorite{}).Error
}

// GetFavoriteProperties retrieves the full property records currently
// favorited, most recently favorited first.
func (gdb *GormDB) GetFavoriteProperties() ([]models.Property, error) {
	properties := make([]models.Property, 0)
	err := gdb.db.Model(&models.Property{}).
		Joins("JOIN favorites ON favorites.property_id = properties.id").
		Order("favorites.created_at DESC").
		Find(&properties).Error
	return properties, err
}

// GetStats computes the dashboard counts. The four counts run concurrently
// and carry no cross-count consistency guarantee.
func (gdb *GormDB) GetStats() (*models.DashboardStats, error) {
	var stats models.DashboardStats
	var wg sync.WaitGroup
	errs := make([]error, 4)

	count := func(idx int, dest *int64, scope func(*gorm.DB) *gorm.DB) {
		defer wg.Done()
		errs[idx] = scope(gdb.db).Count(dest).Error
	}

	wg.Add(4)
	go count(0, &stats.Total, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Property{})
	})
	go count(1, &stats.Active, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Property{}).Where("status = ?", models.PropertyStatusAvailable)
	})
	go count(2, &stats.Sold, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Property{}).Where("status = ?", models.PropertyStatusSold)
	})
	go count(3, &stats.Inquiries, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Inquiry{})
	})
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
func (gdb *GormDB) GetInquiries() ([]models.InquiryWithProperty, error) {
	var inquiries []models.Inquiry
	err := gdb.db.Preload("Property").Order("created_at DESC").Find(&inquiries).Error
	if err != nil {
		return nil, err
	}

	result := make([]models.InquiryWithProperty, 0, len(inquiries))
	for _, q := range inquiries {
		row := models.InquiryWithProperty{Inquiry: q}
		if q.Property != nil {
			row.PropertyTitle = q.Property.Title
			row.PropertyImage = q.Property.MainImage
		}
		row.Property = nil
		result = append(result, row)
	}
	return result, nil
}

// CreateInquiry stores a new inquiry with status pendiente.
func (gdb *GormDB) CreateInquiry(q *models.Inquiry) error {
	if q.Status == "" {
		q.Status = models.InquiryStatusPending
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	return gdb.db.Omit(clause.Associations).Create(q).Error
}
