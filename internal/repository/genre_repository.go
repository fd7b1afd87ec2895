package repository

import (
	"context"
	"fmt"
	"time"

	"movie-catalog/internal/database"
	"movie-catalog/internal/models"

	"gorm.io/gorm/clause"
)

type GenreRepository interface {
	FindAll(ctx context.Context) ([]models.Genre, error)
	FindByIDs(ctx context.Context, ids []int) ([]models.Genre, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Upsert(ctx context.Context, genres []models.Genre) error
}

type genreRepository struct {
	db      *database.Database
	timeout time.Duration
}

func NewGenreRepository(db *database.Database) GenreRepository {
	return &genreRepository{
		db:      db,
		timeout: db.GetQueryTimeout(),
	}
}

func (r *genreRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *genreRepository) FindAll(ctx context.Context) ([]models.Genre, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var genres []models.Genre
	if err := r.db.WithContext(ctx).Order("id").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("find genres: %w", err)
	}
	return genres, nil
}

func (r *genreRepository) FindByIDs(ctx context.Context, ids []int) ([]models.Genre, error) {
	if len(ids) == 0 {
		return []models.Genre{}, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var genres []models.Genre
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("find genres by id: %w", err)
	}
	return genres, nil
}

// ExistsByName matches the name exactly, including case.
func (r *genreRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Genre{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check genre %q: %w", name, err)
	}
	return count > 0, nil
}

// Upsert inserts genres, overwriting the name of ids that already exist.
func (r *genreRepository) Upsert(ctx context.Context, genres []models.Genre) error {
	if len(genres) == 0 {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&genres).Error
	if err != nil {
		return fmt.Errorf("upsert genres: %w", err)
	}
	return nil
}
