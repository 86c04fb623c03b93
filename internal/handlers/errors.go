package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/towndelivery/internal/store"
)

// httpError maps store failures onto HTTP statuses. Anything unrecognized
// bubbles up to fiber's default 500 handler.
func httpError(err error) error {
	switch {
	case errors.Is(err, store.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
