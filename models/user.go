// models/user.go
package models

import "time"

// User rows are owned by the identity service; this engine only reads them to
// check room membership, and bumps the play counters when a game finishes.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EmailID     string    `json:"email_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	ScreenName  string    `json:"screen_name" gorm:"uniqueIndex"`
	WinCount    int       `json:"win_count" gorm:"default:0"`
	GamesPlayed int       `json:"games_played" gorm:"default:0"`
	UserSince   time.Time `json:"user_since"`
	RoomID      uint      `json:"room_id" gorm:"index"` // 0 = not in any room
}

type Room struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	RoomTypeID uint `json:"room_type_id"`
}

// RoomType is a lookup table (Rookie, Pro, ... tiers).
type RoomType struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	MinimumXP int    `json:"minimum_xp"`
}
