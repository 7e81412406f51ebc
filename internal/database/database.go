package database

import (
	"fmt"
	"time"

	"github.com/bookery/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize(databaseURL string, verbose bool) error {
	gormLogger := logger.Default
	if verbose {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// gen_random_uuid() needs pgcrypto on older PostgreSQL
	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Review{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// Catalog queries match genre/title/author case-insensitively
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_books_genre_lower ON books (LOWER(genre))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_books_title_lower ON books (LOWER(title))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_books_author_lower ON books (LOWER(author))")

	// Rating aggregation groups by book; favorite-genre extraction filters by user+rating
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reviews_book_live ON reviews (book_id) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reviews_user_rating ON reviews (user_id, rating) WHERE deleted_at IS NULL")

	return nil
}

// Close closes the database connection
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

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
