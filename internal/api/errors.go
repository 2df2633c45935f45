package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"document-chat/internal/models"
)

// Error is the JSON error body returned to clients.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrBadRequest(msg string) Error {
	return Error{Code: fiber.StatusBadRequest, Message: msg}
}

// ValidationError reports per-field validation failures.
type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errs map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errs,
	}
}

// ErrorHandler maps core failures and API errors onto HTTP responses. Every
// failure carries a human-readable message; nothing is swallowed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	code := fiber.StatusInternalServerError
	switch {
	// Capability outages win over the ingestion wrapper so an embedding
	// failure during ingest still reads as an upstream problem.
	case errors.Is(err, models.ErrEmbeddingUnavailable),
		errors.Is(err, models.ErrGenerationFailed):
		code = fiber.StatusBadGateway
	case errors.Is(err, models.ErrNoActiveCorpus),
		errors.Is(err, models.ErrIngestionFailed):
		code = fiber.StatusBadRequest
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
	}

	log.Error().Err(err).Int("code", code).Str("path", c.Path()).Msg("Request failed")
	return c.Status(code).JSON(Error{Code: code, Message: err.Error()})
}
