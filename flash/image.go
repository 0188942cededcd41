package flash

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"husk/hexfile"
)

const signaturePlaceholderSize = 512

// Image is a parsed firmware segment ready to stream: the flattened Intel
// HEX payload plus its signature blob.
type Image struct {
	StartAddr uint32
	Data      []byte
	Signature []byte
}

// SignaturePathFor returns the .rsa sidecar path for a firmware image path:
// the same stem with its extension replaced.
func SignaturePathFor(hexPath string) string {
	ext := filepath.Ext(hexPath)
	return strings.TrimSuffix(hexPath, ext) + ".rsa"
}

// LoadImage parses hexPath and pairs it with the signature file at sigPath.
// If sigPath does not exist, the signature is synthesized as 512 bytes of
// 0xAA when allowUnsigned is true; otherwise loading fails. This lets a bench
// run proceed against unsigned firmware without ever doing so silently.
func LoadImage(hexPath, sigPath string, allowUnsigned bool) (*Image, error) {
	hx, err := hexfile.Load(hexPath)
	if err != nil {
		return nil, errImageMissing(err.Error())
	}

	sig, err := loadSignature(sigPath, allowUnsigned)
	if err != nil {
		return nil, err
	}

	return &Image{StartAddr: hx.StartAddr, Data: hx.Data, Signature: sig}, nil
}

func loadSignature(path string, allowUnsigned bool) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errSignatureMalformed(err.Error())
		}
		if !allowUnsigned {
			return nil, errImageMissing(fmt.Sprintf("signature file missing: %s (pass --allow-unsigned to synthesize one)", path))
		}
		placeholder := make([]byte, signaturePlaceholderSize)
		for i := range placeholder {
			placeholder[i] = 0xAA
		}
		return placeholder, nil
	}

	sig, err := decodeSignatureHexDump(raw)
	if err != nil {
		return nil, errSignatureMalformed(fmt.Sprintf("%s: %v", path, err))
	}
	if len(sig) != signaturePlaceholderSize {
		return nil, errSignatureMalformed(fmt.Sprintf("%s: decoded to %d bytes, want %d", path, len(sig), signaturePlaceholderSize))
	}
	return sig, nil
}

// decodeSignatureHexDump decodes a .rsa sidecar's contents: an ASCII hex
// dump that may use "0x" prefixes, comma separators and arbitrary
// whitespace between byte pairs.
func decodeSignatureHexDump(raw []byte) ([]byte, error) {
	s := string(raw)
	s = strings.ReplaceAll(s, "0x", "")
	s = strings.ReplaceAll(s, "0X", "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			return r
		default:
			return -1
		}
	}, s)
	return hex.DecodeString(s)
}
