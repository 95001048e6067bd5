package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/saudecomunitaria/buscativa/internal/config"
	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/internal/domain/appointment"
	"github.com/saudecomunitaria/buscativa/internal/domain/outreach"
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "outreach", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&appointment.Appointment{},
		&outreach.VisitAttempt{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name     string
		query    string
		optional bool
	}{
		// Projection snapshot: every appointment for a set of patients,
		// filtered by status.
		{
			name:  "idx_appointments_patient_status",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_patient_status ON clinical.appointments (patient_id, status, scheduled_at) WHERE deleted_at IS NULL`,
		},
		// Latest visit attempt per (patient, agent) pair.
		{
			name:  "idx_visits_pair_latest",
			query: `CREATE INDEX IF NOT EXISTS idx_visits_pair_latest ON outreach.community_visits (agent_id, patient_id, created_at DESC)`,
		},
		// Patient search: GIN index for name/CNS lookups. Skipped when
		// pg_trgm is unavailable; ILIKE still works, just slower.
		{
			name:     "idx_patients_name_trgm",
			query:    `CREATE INDEX IF NOT EXISTS idx_patients_name_trgm ON clinical.patients USING gin ((full_name || ' ' || coalesce(cns, '')) gin_trgm_ops) WHERE deleted_at IS NULL`,
			optional: true,
		},
		{
			name:  "idx_patients_override",
			query: `CREATE INDEX IF NOT EXISTS idx_patients_override ON clinical.patients (manual_priority) WHERE deleted_at IS NULL AND manual_priority IS NOT NULL`,
		},
	}

	// pg_trgm may require elevated privileges.
	_ = db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			if idx.optional {
				continue
			}
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
