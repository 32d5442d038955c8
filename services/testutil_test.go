package services

import (
	"fmt"
	"testing"
	"time"

	"connect-game-engine/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database with the full schema.
// Each test gets its own database so tests can run in parallel.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection serializes concurrent transactions the way a real
	// database would, instead of tripping SQLite's table locks.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.RoomType{},
		&models.Room{},
		&models.User{},
		&models.Challenge{},
		&models.Game{},
		&models.Player{},
		&models.Piece{},
	))
	return db
}

// seedRoom creates a room and one user per screen name inside it.
func seedRoom(t *testing.T, db *gorm.DB, screenNames ...string) (models.Room, []models.User) {
	t.Helper()
	room := models.Room{RoomTypeID: 1}
	require.NoError(t, db.Create(&room).Error)

	users := make([]models.User, 0, len(screenNames))
	for _, name := range screenNames {
		u := models.User{
			ScreenName: name,
			RoomID:     room.ID,
			UserSince:  time.Now(),
		}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return room, users
}

// startGame runs the full pairing flow (challenge → accept → init) between
// two fresh users and returns the running game with its red and yellow
// players. Red is the challenger and moves first.
func startGame(t *testing.T, db *gorm.DB) (*GameService, *models.Game, models.Player, models.Player) {
	t.Helper()
	_, users := seedRoom(t, db, "challenger", "challenged")

	cs := NewChallengeService(db)
	res, err := cs.CreateChallenge(users[0].ID, users[1].ID)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.NoError(t, cs.AcceptChallenge(res.Challenge.ID))

	gs := NewGameService(db)
	g, err := gs.InitGame(res.Challenge.ID)
	require.NoError(t, err)
	require.Len(t, g.Players, 2)

	var red, yellow models.Player
	for _, p := range g.Players {
		if p.Color == models.ColorRed {
			red = p
		} else {
			yellow = p
		}
	}
	return gs, g, red, yellow
}

// turnHolders returns how many players of the game currently hold the turn.
func turnHolders(t *testing.T, db *gorm.DB, gameID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Player{}).
		Where("game_id = ? AND has_turn = ?", gameID, true).
		Count(&n).Error)
	return n
}
