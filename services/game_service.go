package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"connect-game-engine/game"
	"connect-game-engine/models"
	"connect-game-engine/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GameService owns the board-facing half of the engine: creating a game from
// an accepted challenge and committing moves. Every mutation here is a single
// GORM transaction; partial state is never observable.
type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// Winner sentinels in MoveResult. A real player/user id is always > 0.
const (
	WinnerInProgress int64 = -1
	WinnerDraw       int64 = 0
)

// MoveResult is what a committed turn reports back. WinnerPlayerID and
// WinnerUserID are -1/-1 while the game goes on, 0/0 on a draw, and the
// acting player's ids on a win.
type MoveResult struct {
	Status         string `json:"status"` // ongoing | win | draw
	X              int    `json:"x"`
	Y              int    `json:"y"`
	WinnerPlayerID int64  `json:"winner_player_id"`
	WinnerUserID   int64  `json:"winner_user_id"`
}

// InitGame turns an accepted challenge into a running game. The game and its
// two players are created in one transaction: the challenger plays red and
// moves first, the challenged user plays yellow.
func (s *GameService) InitGame(challengeID uint) (*models.Game, error) {
	var challenge models.Challenge
	err := s.DB.First(&challenge, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if challenge.Outcome != models.ChallengeAccepted {
		return nil, ErrInvalidChallenge
	}

	var users []models.User
	if err := s.DB.Where("id IN ?", []uint{challenge.FromUserID, challenge.ToUserID}).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if len(users) != 2 {
		return nil, ErrUserNotFound
	}
	if users[0].RoomID == 0 || users[0].RoomID != users[1].RoomID {
		return nil, fmt.Errorf("%w: users no longer share a room", ErrInvalidChallenge)
	}
	roomID := users[0].RoomID

	now := time.Now()
	newGame := models.Game{
		RoomID:     roomID,
		IsFinished: false,
		StartTime:  now,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// An accepted challenge buys exactly one game. Both clients poll the
		// challenge and race to init, so the busy check runs inside the
		// creation transaction: once the first init lands, both users hold a
		// player row in an unfinished game and the second init falls through.
		busy, err := usersInOngoingGames(tx, roomID)
		if err != nil {
			return err
		}
		if busy[challenge.FromUserID] || busy[challenge.ToUserID] {
			return ErrPlayersBusy
		}

		if err := tx.Create(&newGame).Error; err != nil {
			return err
		}
		players := []models.Player{
			{
				GameID:       newGame.ID,
				RoomID:       roomID,
				UserID:       challenge.FromUserID,
				Color:        models.ColorRed,
				HasTurn:      true,
				IsChallenger: true,
				LastPlayed:   now,
			},
			{
				GameID:       newGame.ID,
				RoomID:       roomID,
				UserID:       challenge.ToUserID,
				Color:        models.ColorYellow,
				HasTurn:      false,
				IsChallenger: false,
				LastPlayed:   now,
			},
		}
		if err := tx.Create(&players).Error; err != nil {
			return err
		}
		newGame.Players = players
		return nil
	})
	if errors.Is(err, ErrPlayersBusy) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	log.Printf("🎮 Game %d started in room %d (challenge %d)", newGame.ID, roomID, challengeID)
	return &newGame, nil
}

// SubmitMove plays one turn: validate, place under gravity, detect win/draw
// and finalize, all inside a single transaction. Turn ownership and game
// liveness are re-checked inside that transaction, so two concurrent
// submissions for the same turn can never both land.
func (s *GameService) SubmitMove(gameID, roomID, playerID, userID uint, x int) (*MoveResult, error) {
	if x < 0 || x >= game.Columns {
		return nil, ErrOutOfBounds
	}

	// Fast rejection outside the transaction; everything is re-derived inside.
	if err := s.validateMove(gameID, roomID, playerID, userID, x); err != nil {
		return nil, err
	}

	return s.commitMove(gameID, roomID, playerID, userID, x)
}

// commitMove is the atomic unit of one turn. Every precondition the validator
// checked is re-derived here from the transaction's own snapshot: a winning
// commit leaves the loser's has_turn flag set, so the turn CAS alone would
// let a request that validated against a stale snapshot append a piece to a
// finished game — the liveness re-check closes that window.
func (s *GameService) commitMove(gameID, roomID, playerID, userID uint, x int) (*MoveResult, error) {
	var result MoveResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&models.Game{}).
			Where("id = ? AND room_id = ? AND is_finished = ?", gameID, roomID, false).
			Count(&live).Error; err != nil {
			return err
		}
		if live == 0 {
			return ErrGameNotFound
		}

		// Compare-and-set turn ownership: flip the acting player's flag only
		// if it is still set. Zero rows affected means another request for
		// this turn won the race (or it was never this player's turn).
		now := time.Now()
		res := tx.Model(&models.Player{}).
			Where("id = ? AND game_id = ? AND room_id = ? AND user_id = ? AND has_turn = ?",
				playerID, gameID, roomID, userID, true).
			Updates(map[string]interface{}{"has_turn": false, "last_played": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotYourTurn
		}
		if err := tx.Model(&models.Player{}).
			Where("game_id = ? AND id <> ?", gameID, playerID).
			Update("has_turn", true).Error; err != nil {
			return err
		}

		// Landing row and board capacity, from this transaction's snapshot.
		var columnCount, totalBefore int64
		if err := tx.Model(&models.Piece{}).
			Where("game_id = ? AND position_x = ?", gameID, x).
			Count(&columnCount).Error; err != nil {
			return err
		}
		y, ok := game.LandingRow(int(columnCount))
		if !ok {
			return ErrColumnFull
		}
		if err := tx.Model(&models.Piece{}).
			Where("game_id = ?", gameID).
			Count(&totalBefore).Error; err != nil {
			return err
		}
		if totalBefore >= game.Cells {
			return ErrBoardFull
		}

		// The acting player's existing pieces, before the new one goes in.
		var pieces []models.Piece
		if err := tx.Where("game_id = ? AND player_id = ?", gameID, playerID).
			Find(&pieces).Error; err != nil {
			return err
		}
		own := make([]game.Coord, len(pieces))
		for i, p := range pieces {
			own[i] = game.Coord{X: p.PositionX, Y: p.PositionY}
		}

		piece := models.Piece{
			GameID:    gameID,
			RoomID:    roomID,
			UserID:    userID,
			PlayerID:  playerID,
			PositionX: x,
			PositionY: y,
		}
		if err := tx.Create(&piece).Error; err != nil {
			return err
		}

		outcome := game.Evaluate(own, game.Coord{X: x, Y: y}, int(totalBefore))
		result = MoveResult{
			Status:         outcome.String(),
			X:              x,
			Y:              y,
			WinnerPlayerID: WinnerInProgress,
			WinnerUserID:   WinnerInProgress,
		}

		switch outcome {
		case game.ResultWin:
			if err := s.finishGame(tx, gameID, now, &playerID); err != nil {
				return err
			}
			result.WinnerPlayerID = int64(playerID)
			result.WinnerUserID = int64(userID)
		case game.ResultDraw:
			if err := s.finishGame(tx, gameID, now, nil); err != nil {
				return err
			}
			result.WinnerPlayerID = WinnerDraw
			result.WinnerUserID = WinnerDraw
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	if result.Status != game.ResultOngoing.String() {
		log.Printf("🏁 Game %d finished: %s (winner player %d)", gameID, result.Status, result.WinnerPlayerID)
	}
	return &result, nil
}

// validateMove fast-rejects bad requests before paying the commit cost. The
// committer re-derives everything from its own snapshot, so this is purely a
// cheap pre-check.
func (s *GameService) validateMove(gameID, roomID, playerID, userID uint, x int) error {
	var count int64
	err := s.DB.Model(&models.Game{}).
		Where("id = ? AND room_id = ? AND is_finished = ?", gameID, roomID, false).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if count == 0 {
		return ErrGameNotFound
	}

	err = s.DB.Model(&models.Player{}).
		Where("id = ? AND game_id = ? AND room_id = ? AND user_id = ? AND has_turn = ?",
			playerID, gameID, roomID, userID, true).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if count == 0 {
		return ErrNotYourTurn
	}

	var columnCount int64
	err = s.DB.Model(&models.Piece{}).
		Where("game_id = ? AND position_x = ?", gameID, x).
		Count(&columnCount).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if _, ok := game.LandingRow(int(columnCount)); !ok {
		return ErrColumnFull
	}

	var total int64
	err = s.DB.Model(&models.Piece{}).Where("game_id = ?", gameID).Count(&total).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if total >= game.Cells {
		return ErrBoardFull
	}
	return nil
}

// finishGame closes a game inside the committer's transaction. With a winner
// it marks that player true and the other false; on a draw (winner == nil)
// both players get an explicit false. Play counters on the user rows are
// bumped in the same transaction.
func (s *GameService) finishGame(tx *gorm.DB, gameID uint, endedAt time.Time, winnerPlayerID *uint) error {
	if err := tx.Model(&models.Game{}).Where("id = ?", gameID).
		Updates(map[string]interface{}{"is_finished": true, "end_time": endedAt}).Error; err != nil {
		return err
	}

	var players []models.Player
	if err := tx.Where("game_id = ?", gameID).Find(&players).Error; err != nil {
		return err
	}
	for _, p := range players {
		won := winnerPlayerID != nil && p.ID == *winnerPlayerID
		if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).
			Update("is_winner", won).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"games_played": gorm.Expr("games_played + 1")}
		if won {
			updates["win_count"] = gorm.Expr("win_count + 1")
		}
		if err := tx.Model(&models.User{}).Where("id = ?", p.UserID).
			Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}

// classify passes engine sentinels through and wraps anything else as a
// transient storage failure — the transaction rolled back, nothing changed,
// the caller may simply resubmit.
func (s *GameService) classify(err error) error {
	switch {
	case errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrColumnFull),
		errors.Is(err, ErrBoardFull),
		errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrOutOfBounds):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
}

// RoomDetails is the room lobby heartbeat: every unfinished game of the room
// with its players, plus the room members free to be challenged.
type RoomDetails struct {
	OngoingGames     []models.Game `json:"ongoing_games"`
	AvailablePlayers []models.User `json:"available_players"`
}

// GetRoomDetails returns the lobby view for a user inside a room. Fails when
// the requesting user is not a member of the room.
func (s *GameService) GetRoomDetails(roomID, userID uint) (*RoomDetails, error) {
	var member int64
	err := s.DB.Model(&models.User{}).
		Where("id = ? AND room_id = ?", userID, roomID).
		Count(&member).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if member == 0 {
		return nil, fmt.Errorf("%w: user is not inside the room", ErrUserNotFound)
	}

	var ongoing []models.Game
	err = s.DB.Preload("Players").Preload("Players.User").
		Where("room_id = ? AND is_finished = ?", roomID, false).
		Find(&ongoing).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	// Exclude everyone already playing, plus the requester.
	excluded := []uint{userID}
	for _, g := range ongoing {
		for _, p := range g.Players {
			excluded = append(excluded, p.UserID)
		}
	}

	var available []models.User
	err = s.DB.Select("id", "screen_name").
		Where("room_id = ? AND id NOT IN ?", roomID, excluded).
		Find(&available).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	return &RoomDetails{OngoingGames: ongoing, AvailablePlayers: available}, nil
}

// GetGameState is the per-game heartbeat ("is it my turn yet"): the game with
// both players and every piece. Works on finished games too, so the loser's
// poll still sees the final result.
func (s *GameService) GetGameState(gameID uint) (*models.Game, error) {
	var g models.Game
	err := s.DB.Preload("Players").Preload("Pieces").First(&g, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	return &g, nil
}

// --- Fiber handlers ---

type moveRequest struct {
	GameID    uint `json:"game_id"`
	RoomID    uint `json:"room_id"`
	PlayerID  uint `json:"player_id"`
	UserID    uint `json:"user_id"`
	PositionX int  `json:"position_x"`
}

type initGameRequest struct {
	ChallengeID uint `json:"challenge_id"`
}

// HandleInitGame handles POST /games.
func (s *GameService) HandleInitGame(c *fiber.Ctx) error {
	var req initGameRequest
	if err := c.BodyParser(&req); err != nil || req.ChallengeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "challenge_id is required"))
	}
	g, err := s.InitGame(req.ChallengeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.ResponseWithData(true, "game initialized", g))
}

// HandleSubmitMove handles POST /games/move.
func (s *GameService) HandleSubmitMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "invalid JSON body"))
	}
	if req.GameID == 0 || req.RoomID == 0 || req.PlayerID == 0 || req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "game_id, room_id, player_id and user_id are required"))
	}
	result, err := s.SubmitMove(req.GameID, req.RoomID, req.PlayerID, req.UserID, req.PositionX)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.ResponseWithData(true, "move committed", result))
}

// HandleRoomDetails handles GET /rooms/details?room_id=&user_id=.
func (s *GameService) HandleRoomDetails(c *fiber.Ctx) error {
	roomID := queryUint(c, "room_id")
	userID := queryUint(c, "user_id")
	if roomID == 0 || userID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "room_id and user_id are required"))
	}
	details, err := s.GetRoomDetails(roomID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.ResponseWithData(true, "room details", details))
}

// HandleGameState handles GET /games/state?game_id= (heartbeat).
func (s *GameService) HandleGameState(c *fiber.Ctx) error {
	gameID := queryUint(c, "game_id")
	if gameID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "game_id is required"))
	}
	g, err := s.GetGameState(gameID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.ResponseWithData(true, "game state", g))
}
