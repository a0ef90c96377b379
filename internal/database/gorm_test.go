package database

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"inmobiliaria-api/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormDB(t *testing.T) *GormDB {
	t.Helper()

	// Unique shared-cache name per test so parallel packages don't collide
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Single connection keeps the in-memory database alive and serializes
	// the concurrent stats queries
	sqlDB.SetMaxOpenConns(1)

	gdb := NewGormDBFromDB(db)
	if err := gdb.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	t.Cleanup(func() { gdb.Close() })
	return gdb
}

// failOnImageURL installs a trigger that aborts any image insert with the
// given URL, simulating a store failure mid-transaction.
func failOnImageURL(t *testing.T, gdb *GormDB, url string) {
	t.Helper()
	err := gdb.DB().Exec(fmt.Sprintf(`
		CREATE TRIGGER fail_image_insert BEFORE INSERT ON property_images
		WHEN NEW.url = '%s'
		BEGIN SELECT RAISE(ABORT, 'injected image failure'); END`, url)).Error
	if err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}
}

func seedProperty(t *testing.T, gdb *GormDB, p models.Property, urls []string) models.Property {
	t.Helper()
	if p.Location == "" {
		p.Location = "Eixample, Valencia"
	}
	if p.Type == "" {
		p.Type = models.PropertyTypeHouse
	}
	if p.Operation == "" {
		p.Operation = models.OperationSale
	}
	if err := gdb.CreatePropertyWithImages(&p, urls); err != nil {
		t.Fatalf("failed to seed property %q: %v", p.Title, err)
	}
	return p
}

func TestGetPropertiesFilters(t *testing.T) {
	gdb := newTestGormDB(t)
	base := time.Now().Add(-time.Hour)

	seedProperty(t, gdb, models.Property{Title: "casa venta", Price: 100000,
		Type: models.PropertyTypeHouse, Operation: models.OperationSale, CreatedAt: base}, nil)
	seedProperty(t, gdb, models.Property{Title: "piso alquiler", Price: 900,
		Type: models.PropertyTypeApartment, Operation: models.OperationRental, CreatedAt: base.Add(time.Minute)}, nil)
	seedProperty(t, gdb, models.Property{Title: "villa venta", Price: 750000,
		Type: models.PropertyTypeVilla, Operation: models.OperationSale, CreatedAt: base.Add(2 * time.Minute)}, nil)

	t.Run("no filters returns everything", func(t *testing.T) {
		props, err := gdb.GetProperties(PropertyFilters{})
		if err != nil {
			t.Fatalf("GetProperties: %v", err)
		}
		if len(props) != 3 {
			t.Fatalf("expected 3 properties, got %d", len(props))
		}
	})

	t.Run("type filter", func(t *testing.T) {
		props, err := gdb.GetProperties(PropertyFilters{Type: "villa"})
		if err != nil {
			t.Fatalf("GetProperties: %v", err)
		}
		if len(props) != 1 || props[0].Title != "villa venta" {
			t.Fatalf("expected only the villa, got %+v", props)
		}
	})

	t.Run("operation filter", func(t *testing.T) {
		props, err := gdb.GetProperties(PropertyFilters{Operation: "venta"})
		if err != nil {
			t.Fatalf("GetProperties: %v", err)
		}
		if len(props) != 2 {
			t.Fatalf("expected 2 sale properties, got %d", len(props))
		}
		for _, p := range props {
			if p.Operation != models.OperationSale {
				t.Errorf("property %q has operation %q, want venta", p.Title, p.Operation)
			}
		}
	})

	t.Run("inclusive price bounds", func(t *testing.T) {
		min, max := 900.0, 100000.0
		props, err := gdb.GetProperties(PropertyFilters{MinPrice: &min, MaxPrice: &max})
		if err != nil {
			t.Fatalf("GetProperties: %v", err)
		}
		if len(props) != 2 {
			t.Fatalf("expected 2 properties within [900,100000], got %d", len(props))
		}
		for _, p := range props {
			if p.Price < min || p.Price > max {
				t.Errorf("property %q price %v outside [%v,%v]", p.Title, p.Price, min, max)
			}
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		max := 1000.0
		props, err := gdb.GetProperties(PropertyFilters{Operation: "alquiler", MaxPrice: &max})
		if err != nil {
			t.Fatalf("GetProperties: %v", err)
		}
		if len(props) != 1 || props[0].Title != "piso alquiler" {
			t.Fatalf("expected only the rental apartment, got %+v", props)
		}
	})
}

func TestGetPropertiesOrdering(t *testing.T) {
	gdb := newTestGormDB(t)
	base := time.Now().Add(-time.Hour)

	// Deliberately seeded out of order
	seedProperty(t, gdb, models.Property{Title: "old plain", Price: 1, CreatedAt: base}, nil)
	seedProperty(t, gdb, models.Property{Title: "new featured", Price: 1, Featured: true, CreatedAt: base.Add(3 * time.Minute)}, nil)
	seedProperty(t, gdb, models.Property{Title: "new plain", Price: 1, CreatedAt: base.Add(2 * time.Minute)}, nil)
	seedProperty(t, gdb, models.Property{Title: "old featured", Price: 1, Featured: true, CreatedAt: base.Add(time.Minute)}, nil)

	props, err := gdb.GetProperties(PropertyFilters{})
	if err != nil {
		t.Fatalf("GetProperties: %v", err)
	}

	want := []string{"new featured", "old featured", "new plain", "old plain"}
	if len(props) != len(want) {
		t.Fatalf("expected %d properties, got %d", len(want), len(props))
	}
	for i, title := range want {
		if props[i].Title != title {
			t.Errorf("position %d: got %q, want %q", i, props[i].Title, title)
		}
	}
}

func TestCreatePropertyImageRoundTrip(t *testing.T) {
	gdb := newTestGormDB(t)

	p := seedProperty(t, gdb, models.Property{Title: "con fotos", Price: 200000},
		[]string{"u1.jpg", "u2.jpg", "u3.jpg"})
	if p.ID == 0 {
		t.Fatal("expected assigned id after create")
	}

	images, err := gdb.GetPropertyImages(p.ID)
	if err != nil {
		t.Fatalf("GetPropertyImages: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	for i, want := range []string{"u1.jpg", "u2.jpg", "u3.jpg"} {
		if images[i].URL != want {
			t.Errorf("image %d: got %q, want %q", i, images[i].URL, want)
		}
		if images[i].PropertyID != p.ID {
			t.Errorf("image %d: property_id %d, want %d", i, images[i].PropertyID, p.ID)
		}
	}
}

func TestCreatePropertyRollsBackOnImageFailure(t *testing.T) {
	gdb := newTestGormDB(t)
	failOnImageURL(t, gdb, "boom.jpg")

	p := models.Property{Title: "huérfana", Price: 1000, Location: "x",
		Type: models.PropertyTypeHouse, Operation: models.OperationSale}
	err := gdb.CreatePropertyWithImages(&p, []string{"ok.jpg", "boom.jpg"})
	if err == nil {
		t.Fatal("expected create to fail")
	}

	// Strict atomicity: no orphaned property, no partial image set
	var propCount, imgCount int64
	gdb.DB().Model(&models.Property{}).Count(&propCount)
	gdb.DB().Model(&models.PropertyImage{}).Count(&imgCount)
	if propCount != 0 {
		t.Errorf("expected 0 properties after rollback, got %d", propCount)
	}
	if imgCount != 0 {
		t.Errorf("expected 0 images after rollback, got %d", imgCount)
	}
}

func TestUpdateReplacesImageList(t *testing.T) {
	gdb := newTestGormDB(t)

	p := seedProperty(t, gdb, models.Property{Title: "Casa Test", Price: 100000,
		Type: models.PropertyTypeHouse, Operation: models.OperationSale},
		[]string{"a.jpg", "b.jpg"})
	createdAt := p.CreatedAt

	updated := models.Property{Title: "Casa Test", Price: 120000, Location: "Poblenou, Barcelona",
		Type: models.PropertyTypeHouse, Operation: models.OperationSale}
	if err := gdb.UpdatePropertyWithImages(p.ID, &updated, []string{"c.jpg"}); err != nil {
		t.Fatalf("UpdatePropertyWithImages: %v", err)
	}

	images, err := gdb.GetPropertyImages(p.ID)
	if err != nil {
		t.Fatalf("GetPropertyImages: %v", err)
	}
	if len(images) != 1 || images[0].URL != "c.jpg" {
		t.Fatalf("expected image list [c.jpg], got %+v", images)
	}

	fetched, err := gdb.GetPropertyByID(p.ID)
	if err != nil {
		t.Fatalf("GetPropertyByID: %v", err)
	}
	if fetched.Price != 120000 {
		t.Errorf("price not overwritten: got %v", fetched.Price)
	}
	if !fetched.CreatedAt.Equal(createdAt) {
		t.Errorf("creation timestamp changed: got %v, want %v", fetched.CreatedAt, createdAt)
	}
}

func TestUpdateAtomicityOnImageFailure(t *testing.T) {
	gdb := newTestGormDB(t)

	p := seedProperty(t, gdb, models.Property{Title: "intacta", Price: 50000,
		Type: models.PropertyTypeLand, Operation: models.OperationSale},
		[]string{"a.jpg", "b.jpg"})

	failOnImageURL(t, gdb, "boom.jpg")

	updated := models.Property{Title: "cambiada", Price: 99999, Location: "x",
		Type: models.PropertyTypeVilla, Operation: models.OperationRental}
	err := gdb.UpdatePropertyWithImages(p.ID, &updated, []string{"boom.jpg"})
	if err == nil {
		t.Fatal("expected update to fail")
	}

	// Prior attribute values and prior image list must be unchanged
	fetched, err := gdb.GetPropertyByID(p.ID)
	if err != nil {
		t.Fatalf("GetPropertyByID: %v", err)
	}
	if fetched.Title != "intacta" || fetched.Price != 50000 || fetched.Type != models.PropertyTypeLand {
		t.Errorf("attributes changed after failed update: %+v", fetched)
	}

	images, err := gdb.GetPropertyImages(p.ID)
	if err != nil {
		t.Fatalf("GetPropertyImages: %v", err)
	}
	if len(images) != 2 || images[0].URL != "a.jpg" || images[1].URL != "b.jpg" {
		t.Errorf("image list changed after failed update: %+v", images)
	}
}

func TestUpdateUnknownPropertyReturnsNotFound(t *testing.T) {
	gdb := newTestGormDB(t)

	p := models.Property{Title: "x", Price: 1, Location: "x",
		Type: models.PropertyTypeHouse, Operation: models.OperationSale}
	if err := gdb.UpdatePropertyWithImages(9999, &p, nil); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePropertyCascades(t *testing.T) {
	gdb := newTestGormDB(t)

	p := seedProperty(t, gdb, models.Property{Title: "borrar", Price: 1000},
		[]string{"a.jpg"})
	if err := gdb.AddFavorite(p.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	inquiry := models.Inquiry{PropertyID: &p.ID, ClientName: "Ana"}
	if err := gdb.CreateInquiry(&inquiry); err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}

	if err := gdb.DeleteProperty(p.ID); err != nil {
		t.Fatalf("DeleteProperty: %v", err)
	}

	var imgCount, favCount, inqCount int64
	gdb.DB().Model(&models.PropertyImage{}).Count(&imgCount)
	gdb.DB().Model(&models.Favorite{}).Count(&favCount)
	gdb.DB().Model(&models.Inquiry{}).Count(&inqCount)

	if imgCount != 0 {
		t.Errorf("expected images to cascade, %d remain", imgCount)
	}
	if favCount != 0 {
		t.Errorf("expected favorite to cascade, %d remain", favCount)
	}
	if inqCount != 1 {
		t.Fatalf("expected inquiry to survive, got %d", inqCount)
	}

	// The surviving inquiry loses its property reference
	var survived models.Inquiry
	if err := gdb.DB().First(&survived, inquiry.ID).Error; err != nil {
		t.Fatalf("fetching surviving inquiry: %v", err)
	}
	if survived.PropertyID != nil {
		t.Errorf("expected property_id to be nulled, got %v", *survived.PropertyID)
	}

	if err := gdb.DeleteProperty(p.ID); err != ErrNotFound {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestFavoriteIdempotence(t *testing.T) {
	gdb := newTestGormDB(t)

	p := seedProperty(t, gdb, models.Property{Title: "fav", Price: 1000}, nil)

	if err := gdb.AddFavorite(p.ID); err != nil {
		t.Fatalf("first AddFavorite: %v", err)
	}
	if err := gdb.AddFavorite(p.ID); err != nil {
		t.Fatalf("second AddFavorite should be a no-op, got %v", err)
	}

	var count int64
	gdb.DB().Model(&models.Favorite{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly 1 favorite row, got %d", count)
	}

	favs, err := gdb.GetFavoriteProperties()
	if err != nil {
		t.Fatalf("GetFavoriteProperties: %v", err)
	}
	if len(favs) != 1 || favs[0].ID != p.ID {
		t.Fatalf("expected the favorited property, got %+v", favs)
	}

	if err := gdb.RemoveFavorite(p.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if err := gdb.RemoveFavorite(p.ID); err != nil {
		t.Fatalf("removing a non-favorite should be a no-op, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	gdb := newTestGormDB(t)

	seedProperty(t, gdb, models.Property{Title: "p1", Price: 1, Status: models.PropertyStatusAvailable}, nil)
	seedProperty(t, gdb, models.Property{Title: "p2", Price: 1, Status: models.PropertyStatusAvailable}, nil)
	seedProperty(t, gdb, models.Property{Title: "p3", Price: 1, Status: models.PropertyStatusSold}, nil)
	if err := gdb.CreateInquiry(&models.Inquiry{ClientName: "Luis"}); err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}

	stats, err := gdb.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	want := models.DashboardStats{Total: 3, Active: 2, Sold: 1, Inquiries: 1}
	if *stats != want {
		t.Fatalf("got %+v, want %+v", *stats, want)
	}
}

func TestGetInquiriesJoinsProperty(t *testing.T) {
	gdb := newTestGormDB(t)

	p := seedProperty(t, gdb, models.Property{Title: "Atico de Lujo", Price: 285000,
		MainImage: "atico.jpg"}, nil)

	first := models.Inquiry{PropertyID: &p.ID, ClientName: "Marta", ClientPhone: "600111222",
		Message: "¿Sigue disponible?", CreatedAt: time.Now().Add(-time.Minute)}
	if err := gdb.CreateInquiry(&first); err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	second := models.Inquiry{ClientName: "Pedro"}
	if err := gdb.CreateInquiry(&second); err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}

	inquiries, err := gdb.GetInquiries()
	if err != nil {
		t.Fatalf("GetInquiries: %v", err)
	}
	if len(inquiries) != 2 {
		t.Fatalf("expected 2 inquiries, got %d", len(inquiries))
	}

	// Newest first
	if inquiries[0].ClientName != "Pedro" {
		t.Errorf("expected newest inquiry first, got %q", inquiries[0].ClientName)
	}
	if inquiries[0].PropertyTitle != "" {
		t.Errorf("inquiry without property should have empty title, got %q", inquiries[0].PropertyTitle)
	}
	if inquiries[1].PropertyTitle != "Atico de Lujo" || inquiries[1].PropertyImage != "atico.jpg" {
		t.Errorf("joined fields wrong: %+v", inquiries[1])
	}
	if inquiries[1].Status != models.InquiryStatusPending {
		t.Errorf("expected default status pendiente, got %q", inquiries[1].Status)
	}
}
