package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPostgresStore runs against a scratch database named by TEST_DATABASE_URL.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		pg, err := NewPostgres(ctx, url)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })

		require.NoError(t, pg.Migrate(ctx))
		_, err = pg.db.ExecContext(ctx, `TRUNCATE conversations CASCADE`)
		require.NoError(t, err)
		return pg
	})
}
