package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"inmobiliaria-api/internal/config"
	"inmobiliaria-api/internal/database"
	"inmobiliaria-api/internal/handlers"
	"inmobiliaria-api/internal/models"
	"inmobiliaria-api/internal/monitor"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	db        *database.DB
	gormDB    *database.GormDB
	appConfig *config.Config
	dbMonitor *monitor.Service
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "postgres")
	}

	pgCfg := appConfig.Database.Postgres
	poolCfg := appConfig.Database.Pool

	// Get port as string, handle 0 as empty
	portStr := ""
	if pgCfg.Port > 0 {
		portStr = fmt.Sprintf("%d", pgCfg.Port)
	}

	host := getEnvOrConfig(pgCfg.Host, "DB_HOST", "db")
	port := getEnvOrConfig(portStr, "DB_PORT", "5432")
	user := getEnvOrConfig(pgCfg.User, "DB_USER", "inmobiliaria_user")
	password := getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "inmobiliaria_pass")
	dbname := getEnvOrConfig(pgCfg.Database, "DB_NAME", "inmobiliaria_db")
	sslmode := getEnvOrConfig(pgCfg.SSLMode, "DB_SSLMODE", "disable")

	if dbType == "gorm" {
		log.Println("Using PostgreSQL with GORM")
		gormDB, err = database.NewGormDB(host, port, user, password, dbname, sslmode)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.SetPoolLimits(poolCfg.MaxOpenConns, poolCfg.MaxIdleConns, poolCfg.GetIdleTimeout()); err != nil {
			log.Fatalf("Failed to configure connection pool: %v", err)
		}

		// Initialize schema with GORM AutoMigrate
		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("Using PostgreSQL")
		db, err = database.NewDB(host, port, user, password, dbname, sslmode)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetPoolLimits(poolCfg.MaxOpenConns, poolCfg.MaxIdleConns, poolCfg.GetIdleTimeout())

		// Initialize schema
		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Start the database health monitor
	dbMonitor = monitor.NewService(activePinger(), appConfig)
	if err := dbMonitor.Start(); err != nil {
		log.Printf("Warning: Failed to start monitor: %v", err)
	}
	defer dbMonitor.Stop()

	r := setupRouter()

	serverPort := getEnv("PORT", appConfig.Server.Port)
	log.Printf("Server starting on port %s", serverPort)
	if err := r.Run(":" + serverPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin engine with middleware and all routes
func setupRouter() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	// Bound request body size
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, appConfig.Server.MaxBodySizeBytes)
		c.Next()
	})

	r.GET("/health", healthCheck)

	api := r.Group("/api")
	{
		api.GET("/properties", getProperties)
		api.GET("/properties/:id", getProperty)
		api.POST("/properties", createProperty)
		api.PUT("/properties/:id", updateProperty)
		api.DELETE("/properties/:id", deleteProperty)

		api.GET("/favorites", getFavorites)
		api.POST("/favorites/:id", addFavorite)
		api.DELETE("/favorites/:id", removeFavorite)

		api.GET("/inquiries", getInquiries)
		api.POST("/inquiries", createInquiry)
	}

	// Dashboard routes
	adminHandler := handlers.NewAdminHandler(activeStore())
	api.GET("/stats", adminHandler.GetStats)
	admin := api.Group("/admin")
	{
		admin.GET("/activity", adminHandler.GetRecentActivity)
	}

	return r
}

// activeStore returns whichever store backend was initialized
func activeStore() handlers.Store {
	if gormDB != nil {
		return gormDB
	}
	return db
}

func activePinger() monitor.Pinger {
	if gormDB != nil {
		return gormDB
	}
	return db
}

func healthCheck(c *gin.Context) {
	var err error
	if gormDB != nil {
		err = gormDB.Ping()
	} else {
		err = db.Ping()
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":   "error",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "connected",
		"time":     time.Now(),
	})
}

// propertyRequest is the validated body for create and update. Enum values
// are checked before the write transaction runs.
type propertyRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Location    string   `json:"location" binding:"required"`
	Type        string   `json:"type" binding:"required,oneof=casa apartamento terreno comercial villa"`
	Operation   string   `json:"operation" binding:"required,oneof=venta alquiler"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Area        float64  `json:"area"`
	Featured    bool     `json:"featured"`
	Status      string   `json:"status" binding:"omitempty,oneof=disponible reservada vendida"`
	MainImage   string   `json:"main_image"`
	Images      []string `json:"images"`
}

func (req *propertyRequest) toModel() models.Property {
	status := models.PropertyStatus(req.Status)
	if status == "" {
		status = models.PropertyStatusAvailable
	}

	return models.Property{
		Title:       req.Title,
		Description: req.Description,
		Price:       *req.Price,
		Location:    req.Location,
		Type:        models.PropertyType(req.Type),
		Operation:   models.OperationType(req.Operation),
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		Featured:    req.Featured,
		Status:      status,
		MainImage:   req.MainImage,
	}
}

// parseIDParam extracts the numeric :id path parameter, writing a 400 response
// when it is not numeric.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be numeric"})
		return 0, false
	}
	return id, true
}

func getProperties(c *gin.Context) {
	// Build filters from query parameters
	filters := database.PropertyFilters{
		Type:      c.Query("type"),
		Operation: c.Query("operation"),
	}

	// Non-numeric price bounds are rejected with a client error rather than
	// silently producing an empty result set.
	if minPriceStr := c.Query("minPrice"); minPriceStr != "" {
		minPrice, parseErr := strconv.ParseFloat(minPriceStr, 64)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minPrice must be numeric"})
			return
		}
		filters.MinPrice = &minPrice
	}
	if maxPriceStr := c.Query("maxPrice"); maxPriceStr != "" {
		maxPrice, parseErr := strconv.ParseFloat(maxPriceStr, 64)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxPrice must be numeric"})
			return
		}
		filters.MaxPrice = &maxPrice
	}

	var properties []models.Property
	var err error
	if gormDB != nil {
		properties, err = gormDB.GetProperties(filters)
	} else {
		properties, err = db.GetProperties(filters)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, properties)
}

func getProperty(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var property *models.Property
	var err error
	if gormDB != nil {
		property, err = gormDB.GetPropertyByID(id)
	} else {
		property, err = db.GetPropertyByID(id)
	}

	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var images []models.PropertyImage
	if gormDB != nil {
		images, err = gormDB.GetPropertyImages(id)
	} else {
		images, err = db.GetPropertyImages(id)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	property.Images = images
	c.JSON(http.StatusOK, property)
}

func createProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property := req.toModel()

	var err error
	if gormDB != nil {
		err = gormDB.CreatePropertyWithImages(&property, req.Images)
	} else {
		err = db.CreatePropertyWithImages(&property, req.Images)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[properties] id=%d created images_len=%d", property.ID, len(req.Images))
	c.JSON(http.StatusOK, gin.H{"id": property.ID})
}

func updateProperty(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property := req.toModel()

	var err error
	if gormDB != nil {
		err = gormDB.UpdatePropertyWithImages(id, &property, req.Images)
	} else {
		err = db.UpdatePropertyWithImages(id, &property, req.Images)
	}

	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[properties] id=%d updated images_len=%d", id, len(req.Images))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func deleteProperty(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var err error
	if gormDB != nil {
		err = gormDB.DeleteProperty(id)
	} else {
		err = db.DeleteProperty(id)
	}

	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[properties] id=%d deleted", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func getFavorites(c *gin.Context) {
	var properties []models.Property
	var err error
	if gormDB != nil {
		properties, err = gormDB.GetFavoriteProperties()
	} else {
		properties, err = db.GetFavoriteProperties()
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, properties)
}

func addFavorite(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var err error
	if gormDB != nil {
		err = gormDB.AddFavorite(id)
	} else {
		err = db.AddFavorite(id)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func removeFavorite(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var err error
	if gormDB != nil {
		err = gormDB.RemoveFavorite(id)
	} else {
		err = db.RemoveFavorite(id)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func getInquiries(c *gin.Context) {
	var inquiries []models.InquiryWithProperty
	var err error
	if gormDB != nil {
		inquiries, err = gormDB.GetInquiries()
	} else {
		inquiries, err = db.GetInquiries()
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inquiries)
}

func createInquiry(c *gin.Context) {
	var req struct {
		PropertyID  *int64 `json:"property_id"`
		ClientName  string `json:"client_name" binding:"required"`
		ClientPhone string `json:"client_phone"`
		Message     string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inquiry := models.Inquiry{
		PropertyID:  req.PropertyID,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Message:     req.Message,
	}

	var err error
	if gormDB != nil {
		err = gormDB.CreateInquiry(&inquiry)
	} else {
		err = db.CreateInquiry(&inquiry)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[inquiries] id=%d created property_id=%v", inquiry.ID, req.PropertyID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
