package query_test

import (
	"testing"

	"movie-catalog/internal/models"
	"movie-catalog/internal/query"
	"movie-catalog/internal/testutil"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualsRendersPlaceholder(t *testing.T) {
	sql, args, err := query.Equals("genres.name", "Action").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "genres.name = ?", sql)
	assert.Equal(t, []interface{}{"Action"}, args)
}

func TestInRendersSet(t *testing.T) {
	sql, args, err := query.In("genres.name", "Action", "Adventure").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "genres.name IN (?,?)", sql)
	assert.Equal(t, []interface{}{"Action", "Adventure"}, args)

	sql, args, err = query.In[string]("genres.name").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "1=0", sql)
	assert.Empty(t, args)
}

func TestContainsFoldEscapesWildcards(t *testing.T) {
	sql, args, err := query.ContainsFold("title", `50%_Off\`).ToSql()
	require.NoError(t, err)
	assert.Equal(t, `LOWER(title) LIKE LOWER(?) ESCAPE '\'`, sql)
	assert.Equal(t, []interface{}{`%50\%\_Off\\%`}, args)
}

func TestInSubquery(t *testing.T) {
	sub := squirrel.Select("movie_id").From("movie_genres").Where(squirrel.Eq{"genre_id": 3})
	sql, args, err := query.InSubquery("movies.id", sub).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "movies.id IN (SELECT movie_id FROM movie_genres WHERE genre_id = ?)", sql)
	assert.Equal(t, []interface{}{3}, args)
}

func TestParseOrder(t *testing.T) {
	allowed := []string{"budget", "popularity", "-budget", "-popularity"}

	tests := []struct {
		token string
		want  query.Order
	}{
		{token: "budget", want: query.Asc("budget")},
		{token: "-budget", want: query.Desc("budget")},
		{token: "popularity", want: query.Asc("popularity")},
		{token: "-popularity", want: query.Desc("popularity")},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := query.ParseOrder(tt.token, allowed...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.token, got.String())
		})
	}

	for _, bad := range []string{"title", "Budget", "--budget", " budget", "+budget", ""} {
		_, err := query.ParseOrder(bad, allowed...)
		assert.ErrorIs(t, err, query.ErrUnknownOrder, bad)
	}
}

func TestApplyFiltersAndOrders(t *testing.T) {
	db := testutil.NewDatabase(t)
	testutil.SeedMovie(t, db, models.Movie{ID: 1, Title: "The Dark Knight", Budget: 185, Popularity: 5})
	testutil.SeedMovie(t, db, models.Movie{ID: 2, Title: "Knight and Day", Budget: 117, Popularity: 9})
	testutil.SeedMovie(t, db, models.Movie{ID: 3, Title: "Avatar", Budget: 237, Popularity: 7})

	q := query.New().
		Where(query.ContainsFold("movies.title", "KNIGHT")).
		OrderBy(query.Desc("movies.popularity"))

	stmt, err := q.Apply(db.Model(&models.Movie{}))
	require.NoError(t, err)

	var movies []models.Movie
	require.NoError(t, stmt.Find(&movies).Error)
	require.Len(t, movies, 2)
	assert.Equal(t, 2, movies[0].ID)
	assert.Equal(t, 1, movies[1].ID)
}

func TestApplyTreatsWildcardsLiterally(t *testing.T) {
	db := testutil.NewDatabase(t)
	testutil.SeedMovie(t, db, models.Movie{ID: 1, Title: "100% Wolf"})
	testutil.SeedMovie(t, db, models.Movie{ID: 2, Title: "1000 Wolves"})

	stmt, err := query.New().Where(query.ContainsFold("movies.title", "0%")).Apply(db.Model(&models.Movie{}))
	require.NoError(t, err)

	var movies []models.Movie
	require.NoError(t, stmt.Find(&movies).Error)
	require.Len(t, movies, 1)
	assert.Equal(t, 1, movies[0].ID)
}
