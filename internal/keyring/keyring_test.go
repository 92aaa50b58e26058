package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestPasswordLifecycle(t *testing.T) {
	keyring.MockInit()

	assert.False(t, HasPassword("vault", "proj"))
	_, err := GetPassword("vault", "proj")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SavePassword("vault", "proj", []byte("s3cret-pass")))
	assert.True(t, HasPassword("vault", "proj"))
	assert.False(t, HasPassword("other-vault", "proj"))

	got, err := GetPassword("vault", "proj")
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pass", string(got))

	require.NoError(t, DeletePassword("vault", "proj"))
	assert.False(t, HasPassword("vault", "proj"))
	assert.NoError(t, DeletePassword("vault", "proj"), "second delete is fine")
}
