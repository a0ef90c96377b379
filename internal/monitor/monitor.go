package monitor

import (
	"database/sql"
	"log"

	"inmobiliaria-api/internal/config"

	"github.com/robfig/cron/v3"
)

// Pinger reports data store connectivity and pool usage.
type Pinger interface {
	Ping() error
	Stats() sql.DBStats
}

// Service periodically checks that the data store is reachable and logs
// connection pool usage.
type Service struct {
	cron      *cron.Cron
	store     Pinger
	config    *config.Config
	isRunning bool
}

// NewService creates a new monitor service
func NewService(store Pinger, cfg *config.Config) *Service {
	return &Service{
		cron:   cron.New(),
		store:  store,
		config: cfg,
	}
}

// Start starts the monitor
func (s *Service) Start() error {
	if !s.config.Monitor.Enabled {
		log.Println("[monitor] disabled in configuration")
		return nil
	}

	spec := s.config.Monitor.CronSpec
	if spec == "" {
		spec = "*/5 * * * *"
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.check()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("[monitor] started (cron: %s)", spec)

	return nil
}

// Stop stops the monitor
func (s *Service) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("[monitor] stopped")
	}
}

// RunNow immediately executes a health check (for manual trigger)
func (s *Service) RunNow() error {
	return s.check()
}

func (s *Service) check() error {
	if err := s.store.Ping(); err != nil {
		log.Printf("[monitor] database unreachable: %v", err)
		return err
	}

	stats := s.store.Stats()
	log.Printf("[monitor] database ok open=%d in_use=%d idle=%d wait_count=%d",
		stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount)
	return nil
}
