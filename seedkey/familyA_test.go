package seedkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeLevel2KeyVector(t *testing.T) {
	require.Equal(t, uint32(0x2e9c936d), ComputeLevel2Key(0xDEADBEEF))
}

func TestComputeLevel4KeyVector(t *testing.T) {
	require.Equal(t, uint32(0xdeada3b3), ComputeLevel4Key(0xDEADBEEF))
}

func TestComputeLevel2KeyDeterministic(t *testing.T) {
	require.Equal(t, ComputeLevel2Key(0x12345678), ComputeLevel2Key(0x12345678))
}

func TestComputeBDUKeyVector(t *testing.T) {
	seed := [4]byte{0x12, 0x34, 0x56, 0x78}
	require.Equal(t, uint32(0x7d0596fe), ComputeBDUKey(seed))
}

func TestComputeBDUKeyDeterministic(t *testing.T) {
	seed := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	require.Equal(t, ComputeBDUKey(seed), ComputeBDUKey(seed))
}

func TestGenerateK01Key(t *testing.T) {
	key, err := GenerateK01Key([2]byte{0x12, 0x34}, SecurityLevel2)
	require.NoError(t, err)
	require.NotEqual(t, [2]byte{0, 0}, key)
}

func TestGenerateK01KeyLevel1Unsupported(t *testing.T) {
	_, err := GenerateK01Key([2]byte{0x12, 0x34}, SecurityLevel1)
	require.Error(t, err)
}
