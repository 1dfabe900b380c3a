package factstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestOpenCreatesFreshSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	facts, err := store.RetrieveRelevantFacts(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Empty(t, facts)
}

func TestStoreAndRetrieveRelevantFacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.StoreFact(ctx, "the garage code is 4821", "memory_skill"))
	require.NoError(t, store.StoreFact(ctx, "the dog's vet appointment is on friday", "memory_skill"))

	facts, err := store.RetrieveRelevantFacts(ctx, "garage code", 3)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Contains(t, facts[0].Content, "garage code")
}

func TestOpenMigratesLegacyNonFTSSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")

	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE general_facts (content TEXT, timestamp TEXT, source TEXT)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO general_facts (content, timestamp, source) VALUES (?, ?, ?)`,
		"legacy fact about the router password", "2024-01-01T00:00:00Z", "legacy")
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	facts, err := store.RetrieveRelevantFacts(context.Background(), "router password", 3)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "legacy", facts[0].Source)
}
