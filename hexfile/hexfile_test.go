package hexfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleRecord(t *testing.T) {
	// One data record: addr 0x0000, bytes 01 02 03 04, then EOF.
	src := ":0400000001020304F2\n:00000001FF\n"
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, uint32(0), img.StartAddr)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, img.Data)
}

func TestParseExtendedLinearAddress(t *testing.T) {
	// Extended linear address 0x0001 (base 0x10000), then data at 0x0000.
	src := ":020000040001F9\n:02000000AABB99\n:00000001FF\n"
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, uint32(0x10000), img.StartAddr)
	require.Equal(t, []byte{0xAA, 0xBB}, img.Data)
}

func TestParseMissingEOF(t *testing.T) {
	src := ":0400000001020304F2\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestParseBadChecksum(t *testing.T) {
	src := ":0400000001020304FF\n:00000001FF\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestParseGapBetweenSegments(t *testing.T) {
	src := ":02000000AABB99\n:02001000CCDD45\n:00000001FF\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/file.hex")
	require.Error(t, err)
}
