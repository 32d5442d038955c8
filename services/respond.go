// services/respond.go
package services

import (
	"errors"
	"log"

	"connect-game-engine/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the engine error taxonomy onto HTTP statuses:
// validation → 400, not-found → 404, precondition → 409, storage → 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrOutOfBounds):
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, err.Error()))
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrChallengeNotFound),
		errors.Is(err, ErrGameNotFound):
		return c.Status(fiber.StatusNotFound).JSON(utils.Response(false, err.Error()))
	case errors.Is(err, ErrNotPending),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrColumnFull),
		errors.Is(err, ErrBoardFull),
		errors.Is(err, ErrPlayersBusy),
		errors.Is(err, ErrInvalidChallenge):
		return c.Status(fiber.StatusConflict).JSON(utils.Response(false, err.Error()))
	default:
		log.Printf("❌ [ENGINE] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(utils.Response(false, "internal error, retry the request"))
	}
}
