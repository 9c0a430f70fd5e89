package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordSource_Resolve(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env")
	source := NewPasswordSource(strings.NewReader("first line\r\nsecond\n"))

	value, err := source.Resolve("from-flag", PasswordEnv)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", value)

	value, err = source.Resolve("", PasswordEnv)
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	value, err = source.Resolve("", NewPasswordEnv)
	require.NoError(t, err)
	assert.Empty(t, value)

	value, err = source.Resolve("-", PasswordEnv)
	require.NoError(t, err)
	assert.Equal(t, "first line", value)

	value, err = source.Resolve("-", NewPasswordEnv)
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	_, err = source.Resolve("-", PasswordEnv)
	assert.Error(t, err, "input exhausted")
}

func TestPasswordSource_LastLineWithoutNewline(t *testing.T) {
	source := NewPasswordSource(strings.NewReader("secret1"))

	value, err := source.Resolve("-", PasswordEnv)
	require.NoError(t, err)
	assert.Equal(t, "secret1", value)
}
