package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"salt sized", 16},
		{"token sized", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := MakeRandHexString(tt.size)
			require.NoError(t, err)
			assert.Len(t, s, tt.size*2)

			_, err = hex.DecodeString(s)
			assert.NoError(t, err)
		})
	}
}

func TestMakeRandHexString_Differs(t *testing.T) {
	a, err := MakeRandHexString(32)
	require.NoError(t, err)
	b, err := MakeRandHexString(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(24)
	b := GenerateRandByteArray(24)

	assert.Len(t, a, 24)
	assert.Len(t, b, 24)
	assert.NotEqual(t, a, b)
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("secret")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, 6), buf)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestSentinels_WrapAndMatch(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrorPersistence, ErrorAlreadyExists)

	assert.True(t, errors.Is(err, ErrorPersistence))
	assert.True(t, errors.Is(err, ErrorAlreadyExists))
	assert.False(t, errors.Is(err, ErrorNotFound))
	assert.Equal(t, "db error: already exists", err.Error())
}
