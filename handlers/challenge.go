// handlers/challenge_routes.go
package handlers

import (
	"connect-game-engine/middleware"
	"connect-game-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/challenges", challengeService.HandleCreate)
	secured.Post("/challenges/accept", challengeService.HandleAccept)
	secured.Post("/challenges/decline", challengeService.HandleDecline)
	secured.Post("/challenges/cancel", challengeService.HandleCancel)

	// Heartbeats — pure reads, clients poll these at a fixed interval.
	secured.Get("/challenges/incoming", challengeService.HandleIncoming)
	secured.Get("/challenges/ongoing", challengeService.HandleGet)
}
