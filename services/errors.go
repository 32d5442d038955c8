// services/errors.go
package services

import "errors"

// Engine error taxonomy. Handlers map these onto HTTP statuses; everything
// else that bubbles out of the store is wrapped as ErrCommitFailed and is
// safe to retry because every multi-row mutation is all-or-nothing.
var (
	// Validation — caller's fault, no retry.
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrOutOfBounds    = errors.New("coordinate out of bounds")

	// Precondition — state moved on; re-fetch before retrying.
	ErrNotPending  = errors.New("challenge not found or already resolved")
	ErrNotYourTurn = errors.New("not your turn")
	ErrColumnFull  = errors.New("column is full")
	ErrBoardFull   = errors.New("board is full")
	ErrPlayersBusy = errors.New("player already in an ongoing game")

	// Not found.
	ErrUserNotFound      = errors.New("user not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrGameNotFound      = errors.New("game not found or already finished")

	// Invalid challenge state for game creation.
	ErrInvalidChallenge = errors.New("challenge is not in an accepted state")

	// Storage — transient, retry the whole operation.
	ErrCommitFailed = errors.New("storage commit failed")
)
