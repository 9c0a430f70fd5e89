package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	encoded, err := testHasher.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=64,t=1,p=1$"))

	ok, legacy, err := testHasher.Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, legacy)

	ok, _, err = testHasher.Verify("battery staple", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := testHasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again, "each hash uses a fresh salt")
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	encoded, err := testHasher.Hash("secret1")
	require.NoError(t, err)
	assert.False(t, testHasher.NeedsRehash(encoded))

	stronger := PasswordHasher{Time: 2, MemoryKB: 64, Threads: 1}
	assert.True(t, stronger.NeedsRehash(encoded))

	// verification follows the parameters stored in the hash
	ok, _, err := stronger.Verify("secret1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_RejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=64,t=1,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=64,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=999999999,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=64,t=1,p=300$c2FsdA$a2V5",
	} {
		ok, _, err := testHasher.Verify("secret1", encoded)
		assert.Error(t, err, encoded)
		assert.False(t, ok, encoded)
	}
}
