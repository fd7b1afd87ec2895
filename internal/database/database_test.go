package database_test

import (
	"testing"

	"movie-catalog/internal/models"
	"movie-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesCatalogTables(t *testing.T) {
	db := testutil.NewDatabase(t)

	assert.True(t, db.Migrator().HasTable(&models.Genre{}))
	assert.True(t, db.Migrator().HasTable(&models.Movie{}))
	assert.True(t, db.Migrator().HasTable(&models.MovieGenre{}))
	assert.NoError(t, db.HealthCheck())
}

func TestMovieGenrePairsAreUnique(t *testing.T) {
	db := testutil.NewDatabase(t)
	testutil.SeedGenres(t, db, models.Genre{ID: 1, Name: "Action"})
	testutil.SeedMovie(t, db, models.Movie{ID: 1, Title: "Heat"}, 1)

	err := db.Create(&models.MovieGenre{MovieID: 1, GenreID: 1}).Error
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.MovieGenre{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRelationIsQueryableFromBothSides(t *testing.T) {
	db := testutil.NewDatabase(t)
	testutil.SeedGenres(t, db, models.Genre{ID: 1, Name: "Action"}, models.Genre{ID: 2, Name: "Drama"})
	testutil.SeedMovie(t, db, models.Movie{ID: 10, Title: "Heat"}, 1, 2)

	var movie models.Movie
	require.NoError(t, db.Preload("Genres").First(&movie, 10).Error)
	assert.Len(t, movie.Genres, 2)

	var movieIDs []int
	require.NoError(t, db.Model(&models.MovieGenre{}).Where("genre_id = ?", 2).Pluck("movie_id", &movieIDs).Error)
	assert.Equal(t, []int{10}, movieIDs)
}
