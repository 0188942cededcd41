package seedkey

import (
	"crypto/aes"
	"fmt"

	"github.com/aead/cmac"

	"husk/zone"
)

// cmacProfile is one (zone, level) -> AES-128 key binding for Family B.
type cmacProfile struct {
	zone  zone.Zone
	level byte
}

// Four keys are embedded constants: RZCU level 0x01, RZCU level 0x11, LZCU
// level 0x01, LZCU level 0x11. The RZCU keys are the only ones present in
// available reference material; LZCU keys are placeholders pending real key
// material and must be replaced before driving a real LZCU unit.
var cmacKeys = map[cmacProfile][]byte{
	{zone.RZCU, 0x01}: {
		0x27, 0xBB, 0x7B, 0x9F, 0xAA, 0x4D, 0xEC, 0x13,
		0x32, 0x7A, 0x7C, 0x2F, 0xF7, 0xFA, 0xA1, 0x9A,
	},
	{zone.RZCU, 0x11}: {
		0xA7, 0x34, 0xD1, 0x55, 0xA9, 0x6A, 0xA4, 0x09,
		0xDB, 0x93, 0x3F, 0x74, 0x75, 0xF9, 0x35, 0xE9,
	},
	{zone.LZCU, 0x01}: {
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	},
	{zone.LZCU, 0x11}: {
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x11,
	},
}

// computeCMACKey runs Family B: AES-128 CMAC of seed under the key bound to
// (z, level). seed must be 16 bytes.
func computeCMACKey(z zone.Zone, level byte, seed []byte) ([]byte, error) {
	key, ok := cmacKeys[cmacProfile{z, level}]
	if !ok {
		return nil, errUnknownProfile(fmt.Sprintf("zone=%s level=0x%02X", z, level))
	}
	if len(seed) != 16 {
		return nil, errCryptoFailure("seed must be 16 bytes for AES-CMAC")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errCryptoFailure(err.Error())
	}
	tag, err := cmac.Sum(seed, block, block.BlockSize())
	if err != nil {
		return nil, errCryptoFailure(err.Error())
	}
	return tag, nil
}
