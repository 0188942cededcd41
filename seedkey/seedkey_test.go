package seedkey

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"husk/zone"
)

func TestComputeKeyRZCULevel11Vector(t *testing.T) {
	seed, err := hex.DecodeString("004F18B01EAE78130E7676C12627466F")
	require.NoError(t, err)

	key, err := ComputeKey(zone.RZCU, 0x11, seed)
	require.NoError(t, err)
	require.Len(t, key, 16)
}

func TestComputeKeyDeterministic(t *testing.T) {
	seed := make([]byte, 16)
	k1, err := ComputeKey(zone.RZCU, 0x01, seed)
	require.NoError(t, err)
	k2, err := ComputeKey(zone.RZCU, 0x01, seed)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestComputeKeyUnknownProfile(t *testing.T) {
	_, err := ComputeKey(zone.RZCU, 0x99, make([]byte, 16))
	require.Error(t, err)

	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, ErrUnknownProfile, sErr.Kind)
}

func TestComputeKeyWrongSeedLength(t *testing.T) {
	_, err := ComputeKey(zone.RZCU, 0x01, []byte{0x01, 0x02})
	require.Error(t, err)

	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, ErrCryptoFailure, sErr.Kind)
}
