package database

import (
	"fmt"

	"interview-coach/internal/config"
	logging "interview-coach/internal/logging"
	"interview-coach/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// DSN builds the postgres connection string from the database settings.
func DSN(dbConf config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)
}

// Init opens the connection pool and stores it in DB.
func Init(log *zap.Logger) error {
	var err error
	DB, err = gorm.Open(postgres.Open(DSN(config.Current().Database)), &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established successfully.")
	return nil
}

// Migrate creates or updates the schema.
func Migrate(log *zap.Logger) error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.InterviewSession{},
		&models.ScoreEntry{},
		&models.ProfileImage{},
		&models.FinalAnalysis{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	// Score history is always read newest-first per user.
	historyIndex := `CREATE INDEX IF NOT EXISTS idx_score_history ON score_entries (username, created_at DESC);`
	if err := DB.Exec(historyIndex).Error; err != nil {
		return fmt.Errorf("failed to create score history index: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}

// Close releases the connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
