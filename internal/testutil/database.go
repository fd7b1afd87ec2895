// Package testutil wires an in-memory SQLite catalog store for package tests.
package testutil

import (
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"movie-catalog/internal/config"
	"movie-catalog/internal/database"
	"movie-catalog/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const driverName = "sqlite3_unicode_lower"

var registerDriver sync.Once

// SQLite's built-in lower() folds ASCII only. Replacing it with a Unicode
// aware one makes the test store fold like Postgres on a UTF-8 locale.
func unicodeDriver() string {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", lower, true)
			},
		})
	})
	return driverName
}

// lower passes NULL and blobs through untouched, as the built-in does.
func lower(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v
}

// NewDatabase opens a fresh in-memory store. A single pooled connection keeps
// the memory database alive for the duration of the test.
func NewDatabase(t testing.TB) *database.Database {
	t.Helper()

	cfg := config.DatabaseConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		QueryTimeout: 5 * time.Second,
	}

	db, err := database.Open(sqlite.New(sqlite.Config{
		DriverName: unicodeDriver(),
		DSN:        "file::memory:?_foreign_keys=on",
	}), cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// SeedGenres inserts genres with externally assigned ids.
func SeedGenres(t testing.TB, db *database.Database, genres ...models.Genre) {
	t.Helper()
	for i := range genres {
		require.NoError(t, db.Create(&genres[i]).Error)
	}
}

// SeedMovie inserts a movie and links it to the given genre ids.
func SeedMovie(t testing.TB, db *database.Database, movie models.Movie, genreIDs ...int) {
	t.Helper()
	movie.Genres = nil
	require.NoError(t, db.Create(&movie).Error)
	for _, id := range genreIDs {
		require.NoError(t, db.Create(&models.MovieGenre{MovieID: movie.ID, GenreID: id}).Error)
	}
}

// Logger returns a logrus logger that writes through t.Log.
func Logger(t testing.TB) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(testWriter{t})
	log.SetLevel(logrus.DebugLevel)
	return log
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
