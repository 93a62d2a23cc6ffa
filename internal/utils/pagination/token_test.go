package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	token := EncodeToken(1234)
	assert.NotEmpty(t, token, "Token should not be empty")

	mutationID, err := DecodeToken(token)
	require.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, int64(1234), mutationID)

	// No cursor means start from the beginning.
	assert.Empty(t, EncodeToken(0))
	mutationID, err = DecodeToken("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), mutationID)
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.ErrorContains(t, err, "base64 decode")

	_, err = DecodeToken(base64.RawURLEncoding.EncodeToString([]byte("1234")))
	assert.ErrorContains(t, err, "split")

	_, err = DecodeToken(base64.RawURLEncoding.EncodeToString([]byte("m|abc")))
	assert.ErrorContains(t, err, "mutation id parse")

	_, err = DecodeToken(base64.RawURLEncoding.EncodeToString([]byte("m|-4")))
	assert.Error(t, err)
}
