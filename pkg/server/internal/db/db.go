package db

import (
	"database/sql"
	"fmt"
)

// DB wraps the sqlite connection holding player credits.
type DB struct {
	*sql.DB
}

// NewDB opens the database at dbPath, creating the schema if needed.
func NewDB(dbPath string) (*DB, error) {
	sdb, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(sdb); err != nil {
		sdb.Close()
		return nil, err
	}

	return &DB{sdb}, nil
}

func createTables(sdb *sql.DB) error {
	_, err := sdb.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = sdb.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (player_id) REFERENCES players(id)
		)
	`)
	return err
}

// GetOrCreatePlayer returns the id and balance for a username, creating the
// row with the given starting balance on first sight.
func (db *DB) GetOrCreatePlayer(username string, startingBalance int64) (int64, int64, error) {
	var id, balance int64
	err := db.QueryRow("SELECT id, balance FROM players WHERE username = ?",
		username).Scan(&id, &balance)
	if err == nil {
		return id, balance, nil
	}
	if err != sql.ErrNoRows {
		return 0, 0, fmt.Errorf("look up player %q: %w", username, err)
	}

	res, err := db.Exec("INSERT INTO players (username, balance) VALUES (?, ?)",
		username, startingBalance)
	if err != nil {
		return 0, 0, fmt.Errorf("create player %q: %w", username, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}
	return id, startingBalance, nil
}

// GetPlayerBalance returns the current balance of a player.
func (db *DB) GetPlayerBalance(playerID int64) (int64, error) {
	var balance int64
	err := db.QueryRow("SELECT balance FROM players WHERE id = ?", playerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("player %d not found", playerID)
	}
	if err != nil {
		return 0, fmt.Errorf("get balance for player %d: %w", playerID, err)
	}
	return balance, nil
}

// UpdatePlayerBalance applies a signed delta to a player's balance and
// records the transaction, atomically.
func (db *DB) UpdatePlayerBalance(playerID int64, amount int64, transactionType, description string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec("UPDATE players SET balance = balance + ? WHERE id = ?",
		amount, playerID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (player_id, amount, type, description)
		VALUES (?, ?, ?, ?)
	`, playerID, amount, transactionType, description)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
