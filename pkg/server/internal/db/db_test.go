package db

import (
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestGetOrCreatePlayer(t *testing.T) {
	database := openTestDB(t)

	id, balance, err := database.GetOrCreatePlayer("alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	// Second lookup returns the same identity, not a new row.
	id2, balance2, err := database.GetOrCreatePlayer("alice", 500)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, int64(1000), balance2)

	_, _, err = database.GetOrCreatePlayer("bob", 1000)
	require.NoError(t, err)
}

func TestUpdatePlayerBalance(t *testing.T) {
	database := openTestDB(t)

	id, _, err := database.GetOrCreatePlayer("alice", 1000)
	require.NoError(t, err)

	require.NoError(t, database.UpdatePlayerBalance(id, -250, "poker", "hand 1"))
	require.NoError(t, database.UpdatePlayerBalance(id, 100, "poker", "hand 2"))

	balance, err := database.GetPlayerBalance(id)
	require.NoError(t, err)
	assert.Equal(t, int64(850), balance)

	var txCount int
	require.NoError(t, database.QueryRow(
		"SELECT COUNT(*) FROM transactions WHERE player_id = ?", id).Scan(&txCount))
	assert.Equal(t, 2, txCount)
}

func TestGetBalanceUnknownPlayer(t *testing.T) {
	database := openTestDB(t)
	_, err := database.GetPlayerBalance(42)
	require.Error(t, err)
}
