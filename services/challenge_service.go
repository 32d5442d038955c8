package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"connect-game-engine/models"
	"connect-game-engine/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ChallengeService owns the pairing lifecycle: pending challenges between two
// users of a room, resolved exactly once to accepted/declined/cancelled/expired.
type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

// ChallengeResult is the outcome of CreateChallenge. Created=false with a
// non-empty Existing slice means a pending challenge between the pair was
// found and returned instead — a negative success, not an error.
type ChallengeResult struct {
	Created   bool               `json:"created"`
	Challenge *models.Challenge  `json:"challenge,omitempty"`
	Existing  []models.Challenge `json:"existing,omitempty"`
}

// CreateChallenge creates a pending challenge from one user to another.
// Preconditions: both users exist, share a room, and neither is a player in
// an unfinished game of that room. If a pending challenge already exists
// between the pair (either direction) it is returned instead of creating a
// duplicate.
func (s *ChallengeService) CreateChallenge(fromUserID, toUserID uint) (*ChallengeResult, error) {
	if fromUserID == 0 || toUserID == 0 || fromUserID == toUserID {
		return nil, ErrInvalidRequest
	}

	var users []models.User
	if err := s.DB.Where("id IN ?", []uint{fromUserID, toUserID}).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if len(users) != 2 {
		return nil, ErrUserNotFound
	}
	if users[0].RoomID == 0 || users[0].RoomID != users[1].RoomID {
		return nil, fmt.Errorf("%w: both users must be inside the same room", ErrInvalidRequest)
	}
	roomID := users[0].RoomID

	busy, err := usersInOngoingGames(s.DB, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if busy[fromUserID] || busy[toUserID] {
		return nil, ErrPlayersBusy
	}

	var result ChallengeResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing []models.Challenge
		err := tx.Where(
			"outcome = ? AND ((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))",
			models.ChallengePending, fromUserID, toUserID, toUserID, fromUserID,
		).Find(&existing).Error
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			result = ChallengeResult{Created: false, Existing: existing}
			return nil
		}

		challenge := models.Challenge{
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			CreatedAt:  time.Now(),
			Outcome:    models.ChallengePending,
		}
		if err := tx.Create(&challenge).Error; err != nil {
			return err
		}
		result = ChallengeResult{Created: true, Challenge: &challenge}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	return &result, nil
}

// resolve is the compare-and-set shared by accept/decline/cancel/expiry: the
// precondition (still pending) and the mutation are a single conditional
// UPDATE, so two concurrent resolutions can never both succeed.
func (s *ChallengeService) resolve(challengeID uint, outcome string) error {
	res := s.DB.Model(&models.Challenge{}).
		Where("id = ? AND outcome = ?", challengeID, models.ChallengePending).
		Update("outcome", outcome)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

func (s *ChallengeService) AcceptChallenge(challengeID uint) error {
	return s.resolve(challengeID, models.ChallengeAccepted)
}

func (s *ChallengeService) DeclineChallenge(challengeID uint) error {
	return s.resolve(challengeID, models.ChallengeDeclined)
}

func (s *ChallengeService) CancelChallenge(challengeID uint) error {
	return s.resolve(challengeID, models.ChallengeCancelled)
}

// ExpireStale flips every pending challenge older than ttl to expired, via
// the same conditional update as cancel. The caller (the expiry worker) owns
// the policy; the engine runs no timers of its own.
func (s *ChallengeService) ExpireStale(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	res := s.DB.Model(&models.Challenge{}).
		Where("outcome = ? AND created_at <= ?", models.ChallengePending, cutoff).
		Update("outcome", models.ChallengeExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrCommitFailed, res.Error)
	}
	return res.RowsAffected, nil
}

// IncomingChallenges returns all pending challenges addressed to a user.
// Heartbeat read: no side effects, the client just polls it.
func (s *ChallengeService) IncomingChallenges(toUserID uint) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := s.DB.Where("to_user_id = ? AND outcome = ?", toUserID, models.ChallengePending).
		Find(&challenges).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	return challenges, nil
}

// GetChallenge returns the current state of one challenge — the initiator's
// heartbeat while waiting for accept/decline/expiry.
func (s *ChallengeService) GetChallenge(challengeID uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := s.DB.First(&challenge, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	return &challenge, nil
}

// usersInOngoingGames collects the user ids currently playing an unfinished
// game of the room. Shared by challenge creation and game creation: both
// refuse to pair a user who is already playing.
func usersInOngoingGames(tx *gorm.DB, roomID uint) (map[uint]bool, error) {
	var players []models.Player
	err := tx.Joins("JOIN games ON games.id = players.game_id").
		Where("games.room_id = ? AND games.is_finished = ?", roomID, false).
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	busy := make(map[uint]bool, len(players))
	for _, p := range players {
		busy[p.UserID] = true
	}
	return busy, nil
}

// --- Fiber handlers ---

type challengeRequest struct {
	FromUserID  uint `json:"from_user_id"`
	ToUserID    uint `json:"to_user_id"`
	ChallengeID uint `json:"challenge_id"`
}

// HandleCreate handles POST /challenges.
func (s *ChallengeService) HandleCreate(c *fiber.Ctx) error {
	var req challengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "invalid JSON body"))
	}

	result, err := s.CreateChallenge(req.FromUserID, req.ToUserID)
	if err != nil {
		return respondError(c, err)
	}
	if !result.Created {
		return c.JSON(utils.ResponseWithData(false, "challenge already exists", result.Existing))
	}
	log.Printf("⚔️  Challenge %d created: user %d → user %d", result.Challenge.ID, req.FromUserID, req.ToUserID)
	return c.JSON(utils.ResponseWithData(true, "challenge created successfully", result.Challenge))
}

func (s *ChallengeService) handleResolve(c *fiber.Ctx, verb string, fn func(uint) error) error {
	var req challengeRequest
	if err := c.BodyParser(&req); err != nil || req.ChallengeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "challenge_id is required"))
	}
	if err := fn(req.ChallengeID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.Response(true, "challenge "+verb))
}

// HandleAccept handles POST /challenges/accept.
func (s *ChallengeService) HandleAccept(c *fiber.Ctx) error {
	return s.handleResolve(c, "accepted", s.AcceptChallenge)
}

// HandleDecline handles POST /challenges/decline.
func (s *ChallengeService) HandleDecline(c *fiber.Ctx) error {
	return s.handleResolve(c, "declined", s.DeclineChallenge)
}

// HandleCancel handles POST /challenges/cancel.
func (s *ChallengeService) HandleCancel(c *fiber.Ctx) error {
	return s.handleResolve(c, "cancelled", s.CancelChallenge)
}

// HandleIncoming handles GET /challenges/incoming?to_user_id= (heartbeat).
func (s *ChallengeService) HandleIncoming(c *fiber.Ctx) error {
	toUserID := queryUint(c, "to_user_id")
	if toUserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "to_user_id is required"))
	}
	challenges, err := s.IncomingChallenges(toUserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.ResponseWithData(true, "incoming challenges", challenges))
}

// HandleGet handles GET /challenges/ongoing?challenge_id= (heartbeat).
func (s *ChallengeService) HandleGet(c *fiber.Ctx) error {
	challengeID := queryUint(c, "challenge_id")
	if challengeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response(false, "challenge_id is required"))
	}
	challenge, err := s.GetChallenge(challengeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.ResponseWithData(true, "challenge state", challenge))
}

func queryUint(c *fiber.Ctx, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
