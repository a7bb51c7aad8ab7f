package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_SealOpen(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)

	enc, err := NewEncryptorFromHex(key)
	require.NoError(t, err)

	sealed, err := enc.Seal([]byte(`{"returnTo":"/admin"}`), []byte("digest"))
	require.NoError(t, err)

	plain, err := enc.Open(sealed, []byte("digest"))
	require.NoError(t, err)
	assert.Equal(t, `{"returnTo":"/admin"}`, string(plain))

	_, err = enc.Open(sealed, []byte("other"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = enc.Open(sealed[:5], nil)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewEncryptor_InvalidKey(t *testing.T) {
	_, err := NewEncryptor([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewEncryptor([]byte(strings.Repeat("k", KeySize)))
	require.NoError(t, err)

	_, err = NewEncryptor([]byte(strings.Repeat("k", KeySize+1)))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewEncryptorFromHex("zz")
	assert.ErrorIs(t, err, ErrInvalidHexKey)
}

func TestGenerateKeys(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	parsed, err := ParseHexKey(key)
	require.NoError(t, err)
	assert.Len(t, parsed, KeySize)

	secret, err := GenerateTokenSecret()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(secret), 32)
}

func TestGenerateSessionID(t *testing.T) {
	a, err := GenerateSessionID()
	require.NoError(t, err)
	b, err := GenerateSessionID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, ValidSessionID(a))
	assert.False(t, ValidSessionID("not-a-session"))
	assert.Len(t, SessionDigest(a), 64)
	assert.Equal(t, SessionDigest(a), SessionDigest(a))
}
