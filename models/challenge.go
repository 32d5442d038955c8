// models/challenge.go
package models

import "time"

// Challenge outcomes. Pending is the only state that permits a transition;
// the four terminal outcomes are final.
const (
	ChallengePending   = "pending"
	ChallengeAccepted  = "accepted"
	ChallengeDeclined  = "declined"
	ChallengeCancelled = "cancelled"
	ChallengeExpired   = "expired"
)

// Challenge is a pairing request between two users in the same room. It is
// mutated exactly once (pending → terminal) and never deleted. At most one
// pending challenge may exist between a pair of users, in either direction.
type Challenge struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FromUserID uint      `json:"from_user_id" gorm:"index;not null"`
	ToUserID   uint      `json:"to_user_id" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
	Outcome    string    `json:"outcome" gorm:"type:varchar(16);index;default:'pending'"`
}
