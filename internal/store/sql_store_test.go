package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	client, err := testcontainers.NewDockerClient()
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	client.Close()

	ctx := context.Background()
	container, err := tcpg.Run(ctx,
		"postgres:13-alpine",
		tcpg.WithDatabase("blogboot_test"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("password"),
	)
	if err != nil {
		t.Skipf("Could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)

	s := NewSQLStore(db)
	require.NoError(t, s.CreateTables())
	return s
}

func TestSQLStore(t *testing.T) {
	s := setupSQLStore(t)

	t.Run("create tables is idempotent", func(t *testing.T) {
		assert.NoError(t, s.CreateTables())
	})

	t.Run("create and find by id", func(t *testing.T) {
		created, err := s.Create(CollectionPosts, Record{"title": "First", "date": "2024-01-01"})
		require.NoError(t, err)
		id := created[FieldID].(string)

		found, err := s.FindBy(CollectionPosts, FieldID, id)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "First", found["title"])
	})

	t.Run("find by document field", func(t *testing.T) {
		_, err := s.Create(CollectionPosts, Record{"title": "Sluggy", "slug": "sluggy"})
		require.NoError(t, err)

		found, err := s.FindBy(CollectionPosts, "slug", "sluggy")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Sluggy", found["title"])
	})

	t.Run("update merges and misses return nil", func(t *testing.T) {
		created, err := s.Create(CollectionPosts, Record{"title": "Draft", "author": "Jo"})
		require.NoError(t, err)
		id := created[FieldID].(string)

		updated, err := s.Update(CollectionPosts, id, Record{"title": "Final"})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Final", updated["title"])
		assert.Equal(t, "Jo", updated["author"])

		missing, err := s.Update(CollectionPosts, "recDoesNotExist00", Record{"title": "X"})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("delete", func(t *testing.T) {
		created, err := s.Create(CollectionPosts, Record{"title": "Gone"})
		require.NoError(t, err)
		id := created[FieldID].(string)

		deleted, err := s.Delete(CollectionPosts, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.Delete(CollectionPosts, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("export import round trip", func(t *testing.T) {
		dump, err := s.Export()
		require.NoError(t, err)
		require.NoError(t, s.Import(dump))

		restored, err := s.Export()
		require.NoError(t, err)
		assert.ElementsMatch(t, dump.Posts, restored.Posts)
	})
}
