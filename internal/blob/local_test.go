package blob

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutOpenDelete(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	key, n, err := s.Put(7, strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.True(t, strings.HasPrefix(key, "7/"))

	rc, err := s.Open(key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.Delete(key))
	_, err = s.Open(key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(key))
}

func TestLocal_PutTooLarge(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Put(1, strings.NewReader("123456"), 5)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocal_RejectsMalformedKeys(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "7/../../x", "x/0190c6d4-6f1f-7c3a-9b1e-2f5d4c3b2a10", "7/notauuid"} {
		_, err := s.Open(key)
		assert.Error(t, err, key)
		assert.NotErrorIs(t, err, ErrNotFound, key)
	}
}
