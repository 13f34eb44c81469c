package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashKnownDigest(t *testing.T) {
	t.Parallel()

	got, err := New().Hash([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)
}

func TestHashEmptyInput(t *testing.T) {
	t.Parallel()

	got, err := New().Hash(nil)
	require.NoError(t, err)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestHashDiffersOnChange(t *testing.T) {
	t.Parallel()

	h := New()
	a, err := h.Hash([]byte("<html>chart v1</html>"))
	require.NoError(t, err)
	b, err := h.Hash([]byte("<html>chart v2</html>"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
