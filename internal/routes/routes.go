package routes

import (
	"movie-catalog/internal/handlers"

	"github.com/gofiber/fiber/v2"
)

func Setup(app fiber.Router, catalogHandler *handlers.CatalogHandler) {
	app.Get("/genres/", catalogHandler.ListGenres)

	// Fixed paths go before /:id so "search" is never read as an id.
	movies := app.Group("/movies")
	{
		movies.Get("/", catalogHandler.ListMovies)
		movies.Get("/search/", catalogHandler.SearchMovies)
		movies.Get("/recommendations/", catalogHandler.GetRecommendations)
		movies.Post("/add/", catalogHandler.AddMovie)
		movies.Get("/:id<int>/", catalogHandler.GetMovie)
	}
}
