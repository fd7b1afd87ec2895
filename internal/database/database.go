package database

import (
	"context"
	"fmt"
	"time"

	"movie-catalog/internal/config"
	"movie-catalog/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
	config config.DatabaseConfig
}

func Connect(cfg config.DatabaseConfig) (*Database, error) {
	return Open(postgres.Open(cfg.DSN()), cfg)
}

// Open connects through any gorm dialector, configures the pool and creates
// the catalog tables.
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig) (*Database, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
		PrepareStmt:    true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Failed to get underlying sql.DB")
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		logrus.WithError(err).Error("Failed to ping database")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	logrus.Info("Database connection established successfully")

	if err := autoMigrate(db); err != nil {
		logrus.WithError(err).Error("Failed to run auto migration")
		return nil, fmt.Errorf("failed to run auto migration: %w", err)
	}

	return &Database{
		DB:     db,
		config: cfg,
	}, nil
}

func (d *Database) WithContext(ctx context.Context) *gorm.DB {
	return d.DB.WithContext(ctx)
}

func (d *Database) GetQueryTimeout() time.Duration {
	return d.config.QueryTimeout
}

func (d *Database) HealthCheck() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func autoMigrate(db *gorm.DB) error {
	logrus.Info("Running auto migration...")

	if err := db.SetupJoinTable(&models.Movie{}, "Genres", &models.MovieGenre{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.Genre{},
		&models.Movie{},
		&models.MovieGenre{},
	); err != nil {
		return err
	}

	logrus.Info("Auto migration completed successfully")
	return nil
}
