package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := NewBcryptHasher(testConfig())

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, hasher.Check("correct horse", hash))
	assert.False(t, hasher.Check("wrong horse", hash))
	assert.False(t, hasher.Check("correct horse", "not-a-hash"))
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	hasher := NewBcryptHasher(nil)

	_, err := hasher.Hash("")
	assert.Error(t, err)
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	cheap := NewBcryptHasher(testConfig())
	hash, err := cheap.Hash("correct horse")
	require.NoError(t, err)

	assert.False(t, cheap.NeedsRehash(hash))
	assert.True(t, NewBcryptHasher(nil).NeedsRehash(hash))
	assert.True(t, cheap.NeedsRehash("not-a-hash"))
}
