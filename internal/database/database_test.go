package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestEnsureBookingVersionColumn(t *testing.T) {
	db := setupTestDB(t)

	// Second call hits the "duplicate column" path.
	require.NoError(t, db.ensureBookingVersionColumn())
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestDB_ClosedErrors(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()
	_, err = db.GetBooking(ctx, "x")
	assert.Error(t, err)
	_, err = db.ListBookings(ctx, bookingFilterAll())
	assert.Error(t, err)
	_, err = db.RemoveConflictLink(ctx, "a", "b")
	assert.Error(t, err)
	assert.Error(t, db.SaveNotification(ctx, notificationFixture("x")))
}
