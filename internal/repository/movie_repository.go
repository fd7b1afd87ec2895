package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movie-catalog/internal/database"
	"movie-catalog/internal/models"
	"movie-catalog/internal/query"

	"github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrDuplicateID   = errors.New("movie id already exists")
)

type MovieRepository interface {
	Find(ctx context.Context, q *query.Query) ([]models.Movie, error)
	FindByID(ctx context.Context, id int) (*models.Movie, error)
	Exists(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int64, error)

	// CreateWithGenres writes the movie and its genre links in one transaction.
	CreateWithGenres(ctx context.Context, movie *models.Movie, genreIDs []int) error
	// Upsert saves the movie row and adds any missing genre links.
	Upsert(ctx context.Context, movie *models.Movie, genreIDs []int) error
}

// InGenres restricts movies to those linked to at least one genre matching pred.
// pred is evaluated against the genres table.
func InGenres(pred query.Predicate) query.Predicate {
	sub := squirrel.Select("movie_genres.movie_id").
		From("movie_genres").
		Join("genres ON genres.id = movie_genres.genre_id").
		Where(pred)
	return query.InSubquery("movies.id", sub)
}

type movieRepository struct {
	db      *database.Database
	timeout time.Duration
}

func NewMovieRepository(db *database.Database) MovieRepository {
	return &movieRepository{
		db:      db,
		timeout: db.GetQueryTimeout(),
	}
}

func (r *movieRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *movieRepository) Find(ctx context.Context, q *query.Query) ([]models.Movie, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	stmt, err := q.Apply(r.db.WithContext(ctx).Model(&models.Movie{}))
	if err != nil {
		return nil, err
	}

	var movies []models.Movie
	if err := stmt.Preload("Genres", orderGenres).Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("find movies: %w", err)
	}
	return movies, nil
}

func (r *movieRepository) FindByID(ctx context.Context, id int) (*models.Movie, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var movie models.Movie
	err := r.db.WithContext(ctx).Preload("Genres", orderGenres).First(&movie, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("find movie %d: %w", id, err)
	}
	return &movie, nil
}

func (r *movieRepository) Exists(ctx context.Context, id int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check movie %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *movieRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

func (r *movieRepository) CreateWithGenres(ctx context.Context, movie *models.Movie, genreIDs []int) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Movie{}).Where("id = ?", movie.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateID
		}

		if err := tx.Omit(clause.Associations).Create(movie).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateID
			}
			return err
		}

		if err := linkGenres(tx, movie.ID, genreIDs); err != nil {
			return err
		}

		movie.Genres = []models.Genre{}
		if len(genreIDs) == 0 {
			return nil
		}
		return tx.Where("id IN ?", genreIDs).Order("id").Find(&movie.Genres).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateID) {
			return err
		}
		return fmt.Errorf("create movie %d: %w", movie.ID, err)
	}
	return nil
}

func (r *movieRepository) Upsert(ctx context.Context, movie *models.Movie, genreIDs []int) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "budget", "homepage", "overview", "popularity"}),
		}).Create(movie).Error
		if err != nil {
			return err
		}
		return linkGenres(tx, movie.ID, genreIDs)
	})
	if err != nil {
		return fmt.Errorf("upsert movie %d: %w", movie.ID, err)
	}
	return nil
}

func linkGenres(tx *gorm.DB, movieID int, genreIDs []int) error {
	if len(genreIDs) == 0 {
		return nil
	}

	links := make([]models.MovieGenre, 0, len(genreIDs))
	for _, id := range genreIDs {
		links = append(links, models.MovieGenre{MovieID: movieID, GenreID: id})
	}

	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func orderGenres(db *gorm.DB) *gorm.DB {
	return db.Order("genres.id")
}
