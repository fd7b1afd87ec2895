package services_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"movie-catalog/internal/models"
	"movie-catalog/internal/repository"
	"movie-catalog/internal/services"
	"movie-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tmdbSample = `budget,genres,homepage,id,keywords,original_language,original_title,overview,popularity,title
237000000,"[{""id"": 28, ""name"": ""Action""}, {""id"": 12, ""name"": ""Adventure""}]",http://www.avatarmovie.com/,19995,[],en,Avatar,"In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora.",150.437577,Avatar
300000000,"[{""id"": 12, ""name"": ""Adventure""}, {""id"": 28, ""name"": ""Action""}]",http://disney.go.com/disneypictures/pirates/,285,[],en,Pirates of the Caribbean: At World's End,"Captain Barbossa, long believed to be dead, has come back to life.",139.082615,Pirates of the Caribbean: At World's End
200000000,"[{""id"": 18, ""name"": ""Drama""}, {""id"": 10749, ""name"": ""Romance""}]",http://www.titanicmovie.com/,597,[],en,Titanic,"101-year-old Rose DeWitt Bukater tells the story of her life aboard the Titanic.",100.025899,Titanic
0,[],,99999,[],en,Broken,"Budget column is fine but popularity is not.",n/a,Broken
`

type loaderFixture struct {
	loader *services.CatalogLoader
	movies repository.MovieRepository
	genres repository.GenreRepository
}

func newLoader(t *testing.T) loaderFixture {
	t.Helper()
	db := testutil.NewDatabase(t)
	movies := repository.NewMovieRepository(db)
	genres := repository.NewGenreRepository(db)
	return loaderFixture{
		loader: services.NewCatalogLoader(movies, genres, testutil.Logger(t)),
		movies: movies,
		genres: genres,
	}
}

func TestCatalogLoader_Load(t *testing.T) {
	f := newLoader(t)
	ctx := context.Background()

	report, err := f.loader.Load(ctx, strings.NewReader(tmdbSample))
	require.NoError(t, err)
	assert.Equal(t, &services.LoadReport{Genres: 4, Movies: 3, Skipped: 1}, report)

	genres, err := f.genres.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Genre{
		{ID: 12, Name: "Adventure"},
		{ID: 18, Name: "Drama"},
		{ID: 28, Name: "Action"},
		{ID: 10749, Name: "Romance"},
	}, genres)

	titanic, err := f.movies.FindByID(ctx, 597)
	require.NoError(t, err)
	assert.Equal(t, "Titanic", titanic.Title)
	assert.Equal(t, int64(200000000), titanic.Budget)
	assert.Equal(t, "http://www.titanicmovie.com/", titanic.Homepage)
	assert.InDelta(t, 100.025899, titanic.Popularity, 1e-9)
	assert.Len(t, titanic.Genres, 2)
}

func TestCatalogLoader_LoadIsRepeatable(t *testing.T) {
	f := newLoader(t)
	ctx := context.Background()

	_, err := f.loader.Load(ctx, strings.NewReader(tmdbSample))
	require.NoError(t, err)
	_, err = f.loader.Load(ctx, strings.NewReader(tmdbSample))
	require.NoError(t, err)

	count, err := f.movies.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	avatar, err := f.movies.FindByID(ctx, 19995)
	require.NoError(t, err)
	assert.Len(t, avatar.Genres, 2)
}

func TestCatalogLoader_SkipsRaggedRows(t *testing.T) {
	f := newLoader(t)
	ctx := context.Background()

	csvData := "id,title,budget,homepage,overview,popularity,genres\n" +
		"1,Heat,60000000,,A heist.,70.8,\"[{\"\"id\"\": 28, \"\"name\"\": \"\"Action\"\"}]\"\n" +
		"2,Truncated,100\n" +
		"3,Overlong,1,,x,1.5,[],extra,columns\n"

	report, err := f.loader.Load(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, &services.LoadReport{Genres: 1, Movies: 2, Skipped: 1}, report)

	_, err = f.movies.FindByID(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)

	overlong, err := f.movies.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Overlong", overlong.Title)
}

func TestCatalogLoader_MissingColumn(t *testing.T) {
	f := newLoader(t)

	_, err := f.loader.Load(context.Background(), strings.NewReader("id,title\n1,Heat\n"))
	assert.ErrorIs(t, err, services.ErrMissingColumn)
}

func TestCatalogLoader_LoadSourceFromFile(t *testing.T) {
	f := newLoader(t)
	path := filepath.Join(t.TempDir(), "tmdb_5000_movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(tmdbSample), 0o600))

	report, err := f.loader.LoadSource(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Movies)
}

type mockOpener struct {
	mock.Mock
}

func (m *mockOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, object)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func TestCatalogLoader_LoadSourceFromBucket(t *testing.T) {
	f := newLoader(t)
	opener := new(mockOpener)
	opener.On("Open", mock.Anything, "datasets", "tmdb/tmdb_5000_movies.csv").
		Return(io.NopCloser(strings.NewReader(tmdbSample)), nil).Once()

	report, err := f.loader.LoadSource(context.Background(), "s3://datasets/tmdb/tmdb_5000_movies.csv", opener)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Genres)
	opener.AssertExpectations(t)
}

func TestOpenSourceWithoutStorage(t *testing.T) {
	_, err := services.OpenSource(context.Background(), "s3://datasets/movies.csv", nil)
	assert.Error(t, err)
}

func TestParseObjectURI(t *testing.T) {
	tests := []struct {
		source string
		bucket string
		object string
		ok     bool
	}{
		{source: "s3://datasets/tmdb.csv", bucket: "datasets", object: "tmdb.csv", ok: true},
		{source: "s3://datasets/a/b/c.csv", bucket: "datasets", object: "a/b/c.csv", ok: true},
		{source: "s3://datasets", ok: false},
		{source: "s3:///tmdb.csv", ok: false},
		{source: "tmdb_5000_movies.csv", ok: false},
		{source: "/data/s3://x/y", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			bucket, object, ok := services.ParseObjectURI(tt.source)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.object, object)
		})
	}
}
