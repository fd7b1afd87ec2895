package utils

import "github.com/gofiber/fiber/v2"

// ErrorBody is the body of every non-validation error response.
type ErrorBody struct {
	Error string `json:"error" example:"Movie does not exist."`
}

// FieldErrors maps a payload field to its validation messages.
type FieldErrors map[string][]string

// JSONResponse sends data as-is with the given status.
func JSONResponse(c *fiber.Ctx, code int, data interface{}) error {
	return c.Status(code).JSON(data)
}

// ErrorResponse sends {"error": message}.
func ErrorResponse(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(ErrorBody{Error: message})
}

// ValidationErrorResponse sends per-field messages with 400.
func ValidationErrorResponse(c *fiber.Ctx, fields map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(FieldErrors(fields))
}
