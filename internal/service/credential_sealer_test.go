package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialSealerRoundTrip(t *testing.T) {
	sealer, err := NewCredentialSealer("chave")
	require.NoError(t, err)

	sealed, err := sealer.Seal("senha-secreta")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "senha-secreta")

	plain, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "senha-secreta", plain)
}

func TestCredentialSealerRejectsTampering(t *testing.T) {
	sealer, err := NewCredentialSealer("chave")
	require.NoError(t, err)
	sealed, err := sealer.Seal("senha")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = sealer.Open(sealed)
	assert.ErrorIs(t, err, ErrCredentialCorrupt)

	_, err = sealer.Open([]byte("curto"))
	assert.ErrorIs(t, err, ErrCredentialCorrupt)
}

func TestCredentialSealerWrongKey(t *testing.T) {
	a, _ := NewCredentialSealer("a")
	b, _ := NewCredentialSealer("b")
	sealed, err := a.Seal("senha")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrCredentialCorrupt)
}

func TestCredentialSealerRequiresKey(t *testing.T) {
	_, err := NewCredentialSealer("")
	assert.ErrorIs(t, err, ErrSealerKeyMissing)
}
