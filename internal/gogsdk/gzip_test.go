package gogsdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipCompress_Deterministic(t *testing.T) {
	data := []byte("the same content, compressed twice")

	first, err := GzipCompress(data)
	require.NoError(t, err)
	second, err := GzipCompress(data)
	require.NoError(t, err)

	assert.Equal(t, first, second, "compression must be byte-stable for hashing")
}

func TestGzipRoundTrip(t *testing.T) {
	data := []byte("save game payload \x00\x01\x02 with binary bits")

	compressed, err := GzipCompress(data)
	require.NoError(t, err)

	decompressed, err := GzipDecompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}

func TestGzipDecompress_Garbage(t *testing.T) {
	_, err := GzipDecompress([]byte("definitely not gzip"))
	assert.Error(t, err)
}

func TestContentHash_Empty(t *testing.T) {
	hash, err := ContentHash(nil)
	require.NoError(t, err)
	assert.Len(t, hash, 32)
}

func TestContentHash_Stable(t *testing.T) {
	first, err := ContentHash([]byte("payload"))
	require.NoError(t, err)
	second, err := ContentHash([]byte("payload"))
	require.NoError(t, err)
	other, err := ContentHash([]byte("different payload"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 32)
}
