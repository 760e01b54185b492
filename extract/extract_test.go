package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterPlainTextPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.txt")
	content := strings.Repeat("乙方之護照由甲方保管。", 10)
	require.NoError(t, os.WriteFile(path, []byte("  "+content+"\n"), 0o644))

	text, err := NewRouter(50).ExtractText(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestRouterRejectsShortYield(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("太短"), 0o644))

	_, err := NewRouter(50).ExtractText(context.Background(), path)

	assert.ErrorIs(t, err, ErrTextTooShort)
}

func TestRouterRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.docx")
	require.NoError(t, os.WriteFile(path, []byte("whatever"), 0o644))

	_, err := NewRouter(50).ExtractText(context.Background(), path)

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRouterSupported(t *testing.T) {
	router := NewRouter(50)

	assert.True(t, router.Supported(".pdf"))
	assert.True(t, router.Supported(".PDF"))
	assert.True(t, router.Supported(".jpg"))
	assert.True(t, router.Supported(".txt"))
	assert.False(t, router.Supported(".docx"))
	assert.False(t, router.Supported(""))
}

func TestRouterMissingFile(t *testing.T) {
	_, err := NewRouter(50).ExtractText(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
