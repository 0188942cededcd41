package flash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func write512ByteHexDump(t *testing.T, dir, name, prefix, sep string) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < signaturePlaceholderSize; i++ {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(prefix)
		b.WriteString("AB")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestLoadSignaturePlain(t *testing.T) {
	dir := t.TempDir()
	path := write512ByteHexDump(t, dir, "sig.rsa", "", "")
	sig, err := loadSignature(path, false)
	require.NoError(t, err)
	require.Len(t, sig, signaturePlaceholderSize)
	require.Equal(t, byte(0xAB), sig[0])
}

func TestLoadSignatureWithPrefixesCommasAndWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := write512ByteHexDump(t, dir, "sig.rsa", "0x", ", \n")
	sig, err := loadSignature(path, false)
	require.NoError(t, err)
	require.Len(t, sig, signaturePlaceholderSize)
}

func TestLoadSignatureWrongLengthFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sig.rsa")
	require.NoError(t, os.WriteFile(path, []byte("AABBCC"), 0o644))
	_, err := loadSignature(path, false)
	require.Error(t, err)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.True(t, ferr.SignatureMalformed)
}

func TestLoadSignatureMissingWithoutAllowUnsignedFails(t *testing.T) {
	dir := t.TempDir()
	_, err := loadSignature(filepath.Join(dir, "missing.rsa"), false)
	require.Error(t, err)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.True(t, ferr.ImageMissing)
}

func TestLoadSignatureMissingWithAllowUnsignedSynthesizes(t *testing.T) {
	dir := t.TempDir()
	sig, err := loadSignature(filepath.Join(dir, "missing.rsa"), true)
	require.NoError(t, err)
	require.Len(t, sig, signaturePlaceholderSize)
	for _, b := range sig {
		require.Equal(t, byte(0xAA), b)
	}
}

func TestSignaturePathFor(t *testing.T) {
	require.Equal(t, "/a/b/app.rsa", SignaturePathFor("/a/b/app.hex"))
	require.Equal(t, "sbl.rsa", SignaturePathFor("sbl.hex"))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	hexPath := filepath.Join(dir, "app.hex")
	require.NoError(t, os.WriteFile(hexPath, []byte(":0400000001020304F2\n:00000001FF\n"), 0o644))
	sigPath := write512ByteHexDump(t, dir, "app.rsa", "", "")

	img, err := LoadImage(hexPath, sigPath, false)
	require.NoError(t, err)
	require.Equal(t, uint32(0), img.StartAddr)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, img.Data)
	require.Len(t, img.Signature, signaturePlaceholderSize)
}
