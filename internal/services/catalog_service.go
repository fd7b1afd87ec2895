package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"movie-catalog/internal/models"
	"movie-catalog/internal/query"
	"movie-catalog/internal/repository"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// MovieFilter holds the optional ListMovies parameters. Empty means omitted.
type MovieFilter struct {
	Genre string
	Sort  string
}

type CatalogService interface {
	ListGenres(ctx context.Context) ([]models.Genre, error)
	ListMovies(ctx context.Context, filter MovieFilter) ([]models.Movie, error)
	SearchMovies(ctx context.Context, q string) ([]models.Movie, error)
	GetMovie(ctx context.Context, id int) (*models.Movie, error)
	// GetRecommendations takes the raw comma separated genre list; nil means
	// the parameter was not supplied.
	GetRecommendations(ctx context.Context, genres *string) ([]models.Movie, error)
	AddMovie(ctx context.Context, input *MovieInput) (*models.Movie, error)
}

type catalogService struct {
	movies repository.MovieRepository
	genres repository.GenreRepository
	logger *logrus.Logger
}

func NewCatalogService(movies repository.MovieRepository, genres repository.GenreRepository, logger *logrus.Logger) CatalogService {
	return &catalogService{
		movies: movies,
		genres: genres,
		logger: logger,
	}
}

func (s *catalogService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	return genres, nil
}

func (s *catalogService) ListMovies(ctx context.Context, filter MovieFilter) ([]models.Movie, error) {
	q := query.New()

	if filter.Genre != "" {
		// An empty result cannot tell a missing genre from an empty one, so
		// existence is checked on its own.
		exists, err := s.genres.ExistsByName(ctx, filter.Genre)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrInvalidGenre
		}
		q.Where(repository.InGenres(query.Equals("genres.name", filter.Genre)))
	}

	if filter.Sort != "" {
		order, err := query.ParseOrder(filter.Sort, SortOptions...)
		if err != nil {
			return nil, ErrInvalidSort
		}
		q.OrderBy(onMovies(order))
	}
	q.OrderBy(query.Asc("movies.id"))

	s.logger.WithFields(logrus.Fields{
		"genre": filter.Genre,
		"sort":  filter.Sort,
	}).Debug("Listing movies")

	return s.find(ctx, q)
}

func (s *catalogService) SearchMovies(ctx context.Context, q string) ([]models.Movie, error) {
	if q == "" {
		return nil, ErrMissingQuery
	}

	return s.find(ctx, query.New().
		Where(query.ContainsFold("movies.title", q)).
		OrderBy(query.Asc("movies.id")))
}

func (s *catalogService) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	movie, err := s.movies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	normalizeGenres(movie)
	return movie, nil
}

func (s *catalogService) GetRecommendations(ctx context.Context, genres *string) ([]models.Movie, error) {
	if genres == nil {
		return nil, ErrMissingGenres
	}

	// Tokens are taken literally: no trimming, empty tokens included.
	names := lo.Uniq(strings.Split(*genres, ","))

	return s.find(ctx, query.New().
		Where(repository.InGenres(query.In("genres.name", names...))).
		OrderBy(query.Desc("movies.popularity"), query.Asc("movies.id")))
}

func (s *catalogService) AddMovie(ctx context.Context, input *MovieInput) (*models.Movie, error) {
	if input == nil {
		verr := NewValidationError()
		verr.Add("non_field_errors", msgInvalidBody)
		return nil, verr
	}

	verr := input.Validate()
	if verr == nil {
		verr = NewValidationError()
	}

	if input.ID != nil && !verr.HasErrors() {
		exists, err := s.movies.Exists(ctx, *input.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			verr.Add("id", msgDuplicateID)
		}
	}

	genreIDs := lo.Uniq(lo.Map(input.Genres, func(ref GenreRef, _ int) int { return ref.ID }))
	if len(genreIDs) > 0 {
		found, err := s.genres.FindByIDs(ctx, genreIDs)
		if err != nil {
			return nil, err
		}
		known := lo.SliceToMap(found, func(g models.Genre) (int, struct{}) { return g.ID, struct{}{} })
		for _, id := range genreIDs {
			if _, ok := known[id]; !ok {
				verr.Add("genres", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}

	movie := &models.Movie{
		ID:         *input.ID,
		Title:      *input.Title,
		Budget:     *input.Budget,
		Homepage:   *input.Homepage,
		Overview:   *input.Overview,
		Popularity: *input.Popularity,
	}

	if err := s.movies.CreateWithGenres(ctx, movie, genreIDs); err != nil {
		// a concurrent insert can still win the race after the existence check
		if errors.Is(err, repository.ErrDuplicateID) {
			verr.Add("id", msgDuplicateID)
			return nil, verr
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"movie_id": movie.ID,
		"genres":   genreIDs,
	}).Info("Movie added")

	normalizeGenres(movie)
	return movie, nil
}

func (s *catalogService) find(ctx context.Context, q *query.Query) ([]models.Movie, error) {
	movies, err := s.movies.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	for i := range movies {
		normalizeGenres(&movies[i])
	}
	return movies, nil
}

func onMovies(o query.Order) query.Order {
	o.Column = "movies." + o.Column
	return o
}

func normalizeGenres(movie *models.Movie) {
	if movie.Genres == nil {
		movie.Genres = []models.Genre{}
	}
}
