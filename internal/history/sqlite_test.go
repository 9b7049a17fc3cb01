package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "history-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	return store
}

func sampleRecord(evaluationID string) *EvaluationRecord {
	return &EvaluationRecord{
		EvaluationID: evaluationID,
		Horizon:      "10yr",
		RequestJSON:  `{"horizon":"10yr"}`,
		BaselineRisk: 23.9,
		FinalRisk:    12.8,
		ARR:          11.1,
		RRR:          46.4,
		WarningsJSON: `[]`,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "history-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	// The store creates nested directories on demand.
	dbPath := filepath.Join(tmpDir, "nested", "history.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_Save(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	record := sampleRecord("eval-001")

	err := store.Save(ctx, record)
	require.NoError(t, err)

	assert.NotZero(t, record.ID, "ID should be assigned")
	assert.False(t, record.CreatedAt.IsZero(), "CreatedAt should be set")
}

func TestSQLiteStore_Save_DuplicateEvaluationID(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord("eval-001")))

	// The history is append-only; an evaluation ID can only be stored once.
	err := store.Save(ctx, sampleRecord("eval-001"))
	assert.Error(t, err)
}

func TestSQLiteStore_GetByEvaluationID(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	saved := sampleRecord("eval-001")
	require.NoError(t, store.Save(ctx, saved))

	retrieved, err := store.GetByEvaluationID(ctx, "eval-001")
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, saved.ID, retrieved.ID)
	assert.Equal(t, "10yr", retrieved.Horizon)
	assert.Equal(t, 23.9, retrieved.BaselineRisk)
	assert.Equal(t, 12.8, retrieved.FinalRisk)
	assert.Equal(t, 11.1, retrieved.ARR)
	assert.Equal(t, 46.4, retrieved.RRR)
	assert.Equal(t, saved.RequestJSON, retrieved.RequestJSON)
}

func TestSQLiteStore_GetByEvaluationID_NotFound(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	retrieved, err := store.GetByEvaluationID(context.Background(), "missing")
	require.NoError(t, err, "A missing record is not an error")
	assert.Nil(t, retrieved)
}

func TestSQLiteStore_List(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		record := sampleRecord(fmt.Sprintf("eval-%03d", i))
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, record))
	}

	records, err := store.List(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, "eval-004", records[0].EvaluationID)
	assert.Equal(t, "eval-003", records[1].EvaluationID)

	// Pagination continues where the first page ended.
	page2, err := store.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "eval-001", page2[0].EvaluationID)
}

func TestSQLiteStore_Count(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, store.Save(ctx, sampleRecord("eval-001")))
	require.NoError(t, store.Save(ctx, sampleRecord("eval-002")))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleRecord("eval-001")))
	require.NoError(t, store.Save(ctx, sampleRecord("eval-002")))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export HistoryExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))

	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 2, export.Count)
	assert.Len(t, export.Evaluations, 2)
	assert.False(t, export.ExportedAt.IsZero())
}
