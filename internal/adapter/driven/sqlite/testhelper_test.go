package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB returns a migrated, named shared in-memory database. The name
// comes from t.Name() so parallel tests never share state.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// In-memory databases have no WAL; journal_mode is left at its default.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)",
		url.PathEscape(t.Name()),
	)

	open := func(maxConns int) *sql.DB {
		conn, err := sql.Open("sqlite", dsn)
		require.NoError(t, err)
		conn.SetMaxOpenConns(maxConns)
		require.NoError(t, conn.PingContext(context.Background()))
		return conn
	}

	// The writer is opened first and closed last so the shared database
	// outlives the reader pool.
	writer := open(1)
	t.Cleanup(func() { _ = writer.Close() })
	reader := open(4)
	t.Cleanup(func() { _ = reader.Close() })

	db := &DB{Writer: writer, Reader: reader, path: dsn}
	require.NoError(t, RunMigrations(db.Writer))

	return db
}
