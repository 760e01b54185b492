package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "reports/report-1.txt", strings.NewReader("報告內容")))

	reader, err := store.Open(ctx, "reports/report-1.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	assert.Equal(t, "報告內容", string(data))
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "reports/absent.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "uploads/file.txt", strings.NewReader("x")))
	require.NoError(t, store.Delete(ctx, "uploads/file.txt"))
	require.NoError(t, store.Delete(ctx, "uploads/file.txt"))

	_, err = store.Open(ctx, "uploads/file.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreList(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "reports/report-1.txt", strings.NewReader("a")))
	require.NoError(t, store.Save(ctx, "reports/report-2.txt", strings.NewReader("b")))
	require.NoError(t, store.Save(ctx, "contracts/contract-1.txt", strings.NewReader("c")))

	keys, err := store.List(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/report-1.txt", "reports/report-2.txt"}, keys)

	empty, err := store.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArtifactKeys(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.Equal(t, "uploads/1700000000_my_contract.pdf", UploadKey(now, "my contract.pdf"))
	assert.Equal(t, "contracts/contract-1700000000.txt", ContractKey(now))
	assert.Equal(t, "reports/report-1700000000.txt", ReportKey(now))
}

func TestUploadKeyStripsPathComponents(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.Equal(t, "uploads/1700000000_evil.pdf", UploadKey(now, "../../evil.pdf"))
}
