// models/game.go
package models

import "time"

const (
	ColorRed    = "red"
	ColorYellow = "yellow"
)

// Game is one match on the 7×6 board. Created together with its two players
// when a challenge is accepted; only the move committer may finish it.
type Game struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	RoomID     uint       `json:"room_id" gorm:"index;not null"`
	IsFinished bool       `json:"is_finished" gorm:"index;default:false"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`

	Players []Player `json:"players,omitempty" gorm:"foreignKey:GameID"`
	Pieces  []Piece  `json:"pieces,omitempty" gorm:"foreignKey:GameID"`
}

// Player is a user's per-game role. Exactly two exist per game, one per
// color. While the game is unfinished exactly one of them has HasTurn set;
// IsWinner stays nil until the game finishes (false for both on a draw).
type Player struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	GameID       uint      `json:"game_id" gorm:"index;not null"`
	RoomID       uint      `json:"room_id" gorm:"not null"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	Color        string    `json:"color" gorm:"type:varchar(8)"`
	HasTurn      bool      `json:"has_turn"`
	IsChallenger bool      `json:"is_challenger"`
	IsWinner     *bool     `json:"is_winner,omitempty"`
	LastPlayed   time.Time `json:"last_played"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Piece is one placed token. Append-only: never updated, never deleted.
// For a fixed (game, x) the stored y-values are always 0..k-1 (gravity).
type Piece struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	GameID    uint `json:"game_id" gorm:"index;not null"`
	RoomID    uint `json:"room_id" gorm:"not null"`
	UserID    uint `json:"user_id" gorm:"not null"`
	PlayerID  uint `json:"player_id" gorm:"index;not null"`
	PositionX int  `json:"position_x" gorm:"not null"`
	PositionY int  `json:"position_y" gorm:"not null"`
}
