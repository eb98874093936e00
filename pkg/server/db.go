package server

import "github.com/vmtri/cardroom/pkg/server/internal/db"

// Database is the persistence surface the server needs for player credits.
type Database interface {
	// GetOrCreatePlayer resolves a username to a player id and balance,
	// creating the player with startingBalance on first sight.
	GetOrCreatePlayer(username string, startingBalance int64) (int64, int64, error)

	// GetPlayerBalance returns the current balance of a player.
	GetPlayerBalance(playerID int64) (int64, error)

	// UpdatePlayerBalance applies a signed delta and records the
	// transaction atomically.
	UpdatePlayerBalance(playerID int64, amount int64, transactionType, description string) error

	// Close closes the database connection.
	Close() error
}

// NewDatabase opens the sqlite-backed credit store at path.
func NewDatabase(path string) (Database, error) {
	return db.NewDB(path)
}
