// handlers/game_routes.go
package handlers

import (
	"connect-game-engine/middleware"
	"connect-game-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/games", gameService.HandleInitGame)
	secured.Post("/games/move", gameService.HandleSubmitMove)

	// Heartbeats — room lobby and per-game state polls.
	secured.Get("/rooms/details", gameService.HandleRoomDetails)
	secured.Get("/games/state", gameService.HandleGameState)
}
