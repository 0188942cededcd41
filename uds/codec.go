package uds

import "fmt"

// DIDCodec encodes/decodes the payload carried by one Data Identifier for
// ReadDataByIdentifier/WriteDataByIdentifier.
type DIDCodec interface {
	Encode(v []byte) ([]byte, error)
	Decode(raw []byte) ([]byte, error)
	Len() int
}

// defaultCodec is the fallback used for any DID without a registered entry:
// a plain 2-byte big-endian unsigned value.
type defaultCodec struct{}

func (defaultCodec) Len() int { return 2 }

func (defaultCodec) Encode(v []byte) ([]byte, error) {
	if len(v) != 2 {
		return nil, fmt.Errorf("default DID codec: expected 2 bytes, got %d", len(v))
	}
	return append([]byte{}, v...), nil
}

func (defaultCodec) Decode(raw []byte) ([]byte, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("default DID codec: expected 2 bytes, got %d", len(raw))
	}
	return append([]byte{}, raw...), nil
}

// FixedCodec is an opaque fixed-length byte blob, the shape observed for
// most of the DIDs this core actually reads/writes (9, 19, 30, 32 bytes).
type FixedCodec struct {
	Length int
}

func (f FixedCodec) Len() int { return f.Length }

func (f FixedCodec) Encode(v []byte) ([]byte, error) {
	if len(v) != f.Length {
		return nil, fmt.Errorf("fixed DID codec: expected %d bytes, got %d", f.Length, len(v))
	}
	return append([]byte{}, v...), nil
}

func (f FixedCodec) Decode(raw []byte) ([]byte, error) {
	if len(raw) != f.Length {
		return nil, fmt.Errorf("fixed DID codec: expected %d bytes, got %d", f.Length, len(raw))
	}
	return append([]byte{}, raw...), nil
}

// CustomCodec wraps caller-supplied encode/decode functions for a DID whose
// payload needs more than raw-bytes handling.
type CustomCodec struct {
	Length int
	Enc    func(v []byte) ([]byte, error)
	Dec    func(raw []byte) ([]byte, error)
}

func (c CustomCodec) Len() int { return c.Length }

func (c CustomCodec) Encode(v []byte) ([]byte, error) { return c.Enc(v) }

func (c CustomCodec) Decode(raw []byte) ([]byte, error) { return c.Dec(raw) }

// CodecTable maps DIDs to their codec, falling back to defaultCodec for any
// DID not present.
type CodecTable struct {
	codecs map[uint16]DIDCodec
}

// NewCodecTable builds a table seeded with the fixed-length DIDs observed in
// the field: F15A (9 bytes), F184 (19 bytes), F0F0 (1 byte, the version-check
// byte), 4611/5558 (32 bytes), 7705 (30 bytes).
func NewCodecTable() *CodecTable {
	return &CodecTable{
		codecs: map[uint16]DIDCodec{
			0xF15A: FixedCodec{Length: 9},
			0xF184: FixedCodec{Length: 19},
			0xF0F0: FixedCodec{Length: 1},
			0x4611: FixedCodec{Length: 32},
			0x5558: FixedCodec{Length: 32},
			0x7705: FixedCodec{Length: 30},
		},
	}
}

// Register installs or overrides the codec for did.
func (t *CodecTable) Register(did uint16, codec DIDCodec) {
	t.codecs[did] = codec
}

// CodecFor returns the registered codec for did, or the 2-byte default.
func (t *CodecTable) CodecFor(did uint16) DIDCodec {
	if c, ok := t.codecs[did]; ok {
		return c
	}
	return defaultCodec{}
}
