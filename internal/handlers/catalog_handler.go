package handlers

import (
	"errors"

	"movie-catalog/internal/metrics"
	"movie-catalog/internal/services"
	"movie-catalog/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	service services.CatalogService
	logger  *logrus.Logger
}

func NewCatalogHandler(service services.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

// ListGenres godoc
// @Summary List genres
// @Description Get every genre ordered by id
// @Tags genres
// @Produce json
// @Success 200 {array} models.Genre "List of genres"
// @Failure 500 {object} utils.ErrorBody "Internal server error"
// @Router /genres/ [get]
func (h *CatalogHandler) ListGenres(c *fiber.Ctx) error {
	genres, err := h.service.ListGenres(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return utils.JSONResponse(c, fiber.StatusOK, genres)
}

// ListMovies godoc
// @Summary List movies
// @Description Get all movies, optionally restricted to one genre and sorted by budget or popularity
// @Tags movies
// @Produce json
// @Param genre query string false "Exact genre name"
// @Param sort query string false "Sort key" Enums(budget, popularity, -budget, -popularity)
// @Success 200 {array} models.Movie "List of movies"
// @Failure 400 {object} utils.ErrorBody "Unknown genre or invalid sort"
// @Failure 500 {object} utils.ErrorBody "Internal server error"
// @Router /movies/ [get]
func (h *CatalogHandler) ListMovies(c *fiber.Ctx) error {
	filter := services.MovieFilter{
		Genre: c.Query("genre"),
		Sort:  c.Query("sort"),
	}

	movies, err := h.service.ListMovies(c.UserContext(), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return utils.JSONResponse(c, fiber.StatusOK, movies)
}

// SearchMovies godoc
// @Summary Search movies by title
// @Description Case-insensitive substring match on the title
// @Tags movies
// @Produce json
// @Param query query string true "Title fragment"
// @Success 200 {array} models.Movie "Matching movies"
// @Failure 400 {object} utils.ErrorBody "Missing query parameter"
// @Failure 500 {object} utils.ErrorBody "Internal server error"
// @Router /movies/search/ [get]
func (h *CatalogHandler) SearchMovies(c *fiber.Ctx) error {
	movies, err := h.service.SearchMovies(c.UserContext(), c.Query("query"))
	if err != nil {
		return h.writeError(c, err)
	}
	return utils.JSONResponse(c, fiber.StatusOK, movies)
}

// GetMovie godoc
// @Summary Get movie by ID
// @Description Get a single movie with its genres
// @Tags movies
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} models.Movie "Movie details"
// @Failure 404 {object} utils.ErrorBody "Movie does not exist"
// @Failure 500 {object} utils.ErrorBody "Internal server error"
// @Router /movies/{id}/ [get]
func (h *CatalogHandler) GetMovie(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return h.writeError(c, services.ErrMovieNotFound)
	}

	movie, err := h.service.GetMovie(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return utils.JSONResponse(c, fiber.StatusOK, movie)
}

// GetRecommendations godoc
// @Summary Recommend movies by genre
// @Description Movies in any of the comma separated genres, most popular first
// @Tags movies
// @Produce json
// @Param genres query string true "Comma separated genre names"
// @Success 200 {array} models.Movie "Recommended movies"
// @Failure 400 {object} utils.ErrorBody "Missing genres parameter"
// @Failure 500 {object} utils.ErrorBody "Internal server error"
// @Router /movies/recommendations/ [get]
func (h *CatalogHandler) GetRecommendations(c *fiber.Ctx) error {
	var genres *string
	// ?genres= is an empty list, not a missing parameter
	if c.Context().QueryArgs().Has("genres") {
		value := c.Query("genres")
		genres = &value
	}

	movies, err := h.service.GetRecommendations(c.UserContext(), genres)
	if err != nil {
		return h.writeError(c, err)
	}
	return utils.JSONResponse(c, fiber.StatusOK, movies)
}

// AddMovie godoc
// @Summary Add a movie
// @Description Create a movie and link it to existing genres
// @Tags movies
// @Accept json
// @Produce json
// @Param movie body MovieRequest true "Movie request object"
// @Success 201 {object} models.Movie "Movie created"
// @Failure 400 {object} utils.FieldErrors "Validation errors per field"
// @Failure 500 {object} utils.ErrorBody "Internal server error"
// @Router /movies/add/ [post]
func (h *CatalogHandler) AddMovie(c *fiber.Ctx) error {
	input, err := services.DecodeMovieInput(c.Body())
	if err != nil {
		return h.writeError(c, err)
	}

	movie, err := h.service.AddMovie(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	metrics.RecordMovieAdded()
	return utils.JSONResponse(c, fiber.StatusCreated, movie)
}

func (h *CatalogHandler) writeError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		metrics.RecordCatalogError(string(verr.Kind()))
		return utils.ValidationErrorResponse(c, verr.Fields)
	}

	var cerr *services.CatalogError
	if errors.As(err, &cerr) {
		metrics.RecordCatalogError(string(cerr.Kind))
		code := fiber.StatusBadRequest
		if cerr.Kind == services.KindNotFound {
			code = fiber.StatusNotFound
		}
		return utils.ErrorResponse(c, code, cerr.Message)
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("Failed to handle catalog request")
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error.")
}
