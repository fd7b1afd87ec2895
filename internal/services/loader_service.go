package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"movie-catalog/internal/models"
	"movie-catalog/internal/repository"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var loaderColumns = []string{"id", "title", "budget", "homepage", "overview", "popularity", "genres"}

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing csv column")

// DatasetOpener resolves s3:// sources for the loader.
type DatasetOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type LoadReport struct {
	Genres  int `json:"genres"`
	Movies  int `json:"movies"`
	Skipped int `json:"skipped"`
}

// CatalogLoader bulk loads a TMDB style CSV: genres first, then movies and
// their genre links.
type CatalogLoader struct {
	movies repository.MovieRepository
	genres repository.GenreRepository
	logger *logrus.Logger
}

func NewCatalogLoader(movies repository.MovieRepository, genres repository.GenreRepository, logger *logrus.Logger) *CatalogLoader {
	return &CatalogLoader{
		movies: movies,
		genres: genres,
		logger: logger,
	}
}

type csvMovie struct {
	movie  models.Movie
	genres []models.Genre
}

func (l *CatalogLoader) Load(ctx context.Context, r io.Reader) (*LoadReport, error) {
	reader := csv.NewReader(r)
	// ragged rows are skipped one by one below instead of failing the load
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, column := range loaderColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	report := &LoadReport{}
	var rows []csvMovie

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row, err := parseMovieRecord(record, index)
		if err != nil {
			report.Skipped++
			l.logger.WithError(err).WithField("line", line).Warn("Skipping malformed row")
			continue
		}
		rows = append(rows, row)
	}

	genres := uniqueGenres(rows)
	if err := l.genres.Upsert(ctx, genres); err != nil {
		return nil, err
	}
	report.Genres = len(genres)
	l.logger.WithField("genres", report.Genres).Info("Genres table populated")

	for _, row := range rows {
		ids := lo.Uniq(lo.Map(row.genres, func(g models.Genre, _ int) int { return g.ID }))
		movie := row.movie
		if err := l.movies.Upsert(ctx, &movie, ids); err != nil {
			return report, err
		}
		report.Movies++
	}
	l.logger.WithField("movies", report.Movies).Info("Movies table populated")

	return report, nil
}

// LoadSource loads from a local path or an s3://bucket/object source.
func (l *CatalogLoader) LoadSource(ctx context.Context, source string, opener DatasetOpener) (*LoadReport, error) {
	rc, err := OpenSource(ctx, source, opener)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	l.logger.WithField("source", source).Info("Loading catalog")
	return l.Load(ctx, rc)
}

// OpenSource opens a dataset from the filesystem or, for s3:// sources,
// through opener.
func OpenSource(ctx context.Context, source string, opener DatasetOpener) (io.ReadCloser, error) {
	bucket, object, ok := ParseObjectURI(source)
	if !ok {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		return f, nil
	}

	if opener == nil {
		return nil, fmt.Errorf("no object storage configured for %s", source)
	}
	return opener.Open(ctx, bucket, object)
}

// ParseObjectURI splits s3://bucket/path/to/object.
func ParseObjectURI(source string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(source, "s3://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

func parseMovieRecord(record []string, index map[string]int) (csvMovie, error) {
	for _, column := range loaderColumns {
		if index[column] >= len(record) {
			return csvMovie{}, fmt.Errorf("row has %d fields, missing %s", len(record), column)
		}
	}
	field := func(name string) string {
		return record[index[name]]
	}

	id, err := strconv.Atoi(strings.TrimSpace(field("id")))
	if err != nil {
		return csvMovie{}, fmt.Errorf("id: %w", err)
	}
	budget, err := strconv.ParseInt(strings.TrimSpace(field("budget")), 10, 64)
	if err != nil {
		return csvMovie{}, fmt.Errorf("budget: %w", err)
	}
	popularity, err := strconv.ParseFloat(strings.TrimSpace(field("popularity")), 64)
	if err != nil {
		return csvMovie{}, fmt.Errorf("popularity: %w", err)
	}

	var genres []models.Genre
	if raw := strings.TrimSpace(field("genres")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &genres); err != nil {
			return csvMovie{}, fmt.Errorf("genres: %w", err)
		}
	}

	return csvMovie{
		movie: models.Movie{
			ID:         id,
			Title:      field("title"),
			Budget:     budget,
			Homepage:   field("homepage"),
			Overview:   field("overview"),
			Popularity: popularity,
		},
		genres: genres,
	}, nil
}

// uniqueGenres dedupes by {id, name} pair in first-seen order. When one id
// carries several names the last one wins, as repeated saves would.
func uniqueGenres(rows []csvMovie) []models.Genre {
	pairs := lo.Uniq(lo.FlatMap(rows, func(row csvMovie, _ int) []models.Genre { return row.genres }))

	names := make(map[int]string, len(pairs))
	for _, g := range pairs {
		names[g.ID] = g.Name
	}

	out := make([]models.Genre, 0, len(names))
	for _, g := range lo.UniqBy(pairs, func(g models.Genre) int { return g.ID }) {
		out = append(out, models.Genre{ID: g.ID, Name: names[g.ID]})
	}
	return out
}
