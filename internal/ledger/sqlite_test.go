package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "certs.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLitePutGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cert := models.Certificate{
		ID:             "AUTH-ABC123DEF",
		IssueDate:      time.Now().UTC().Truncate(time.Second),
		ContentHash:    "cafebabe",
		Owner:          "alice",
		Verdict:        models.VerdictAIGenerated,
		ContentPreview: "a preview",
		ContentType:    models.ContentTypeText,
	}
	require.NoError(t, store.Put(ctx, cert))

	got, err := store.Get(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, got.ID)
	assert.Equal(t, cert.ContentHash, got.ContentHash)
	assert.Equal(t, cert.Owner, got.Owner)
	assert.Equal(t, cert.Verdict, got.Verdict)
	assert.Equal(t, cert.ContentPreview, got.ContentPreview)
	assert.Equal(t, cert.ContentType, got.ContentType)
	assert.True(t, cert.IssueDate.Equal(got.IssueDate))
}

func TestSQLiteGetMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Get(context.Background(), "AUTH-MISSING01")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLitePutDuplicateID(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cert := models.Certificate{ID: "AUTH-DUP000001", IssueDate: time.Now().UTC(), Verdict: models.VerdictHuman, ContentType: models.ContentTypeText}
	require.NoError(t, store.Put(ctx, cert))

	assert.Error(t, store.Put(ctx, cert), "duplicate id must fail, not overwrite")
}

func TestSQLiteCount(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, id := range []string{"AUTH-AAAA00001", "AUTH-BBBB00002"} {
		require.NoError(t, store.Put(ctx, models.Certificate{ID: id, IssueDate: time.Now().UTC(), Verdict: models.VerdictHuman, ContentType: models.ContentTypeText}))
	}

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
