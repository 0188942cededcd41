package isotp

import "time"

// stmin01Default is the default classic-CAN padding byte (§9 Open Question).
const stmin01Default = 0x00

// Params configures one ISO-TP endpoint's timing and framing behavior.
type Params struct {
	// STmin is the separation time this side asks its peer to honor between
	// consecutive frames, ISO 15765-2 encoded: 0x00-0x7F milliseconds, or
	// 0xF1-0xF9 for 100-900 microseconds.
	STmin byte

	// BlockSize is the number of consecutive frames the peer may send before
	// waiting for another flow control. Zero means unlimited.
	BlockSize byte

	// TxPadding, if non-nil, pads every outgoing frame up to TxDataLength
	// with this byte. Defaults observed: 0x00 classic, 0xAA CAN-FD.
	TxPadding *byte

	// TxDataLength is the frame size frames are built/padded to: 8 for
	// classic CAN, or one of 8/16/20/24/32/48/64 for CAN-FD.
	TxDataLength int

	// RxFlowControlTimeout (N_Bs) bounds how long the sender waits for a
	// flow control frame after a FF or a completed block.
	RxFlowControlTimeout time.Duration

	// RxConsecutiveFrameTimeout (N_Cr) bounds how long the reassembler waits
	// between consecutive frames of one message.
	RxConsecutiveFrameTimeout time.Duration

	// MaxFrameSize caps the largest IsoTpMessage this endpoint will segment
	// or reassemble (protocol ceiling is 4095 bytes).
	MaxFrameSize int

	// CanFD selects CAN-FD framing (variable DLC, up to 64-byte payload).
	CanFD bool

	// BlockingSend, if true, makes Send wait for the full message to drain
	// through the TX queue before returning; if false (the observed
	// default) Send returns once the first frame is queued.
	BlockingSend bool
}

// DefaultClassicParams returns the conventional classic-CAN parameter set:
// 8-byte frames, zero-padded, no windowing.
func DefaultClassicParams() Params {
	pad := byte(stmin01Default)
	return Params{
		STmin:                     0,
		BlockSize:                 0,
		TxPadding:                 &pad,
		TxDataLength:              8,
		RxFlowControlTimeout:      1000 * time.Millisecond,
		RxConsecutiveFrameTimeout: 100 * time.Millisecond,
		MaxFrameSize:              4095,
		CanFD:                     false,
		BlockingSend:              false,
	}
}

// DefaultFDParams returns the conventional CAN-FD parameter set: 64-byte
// frames padded with 0xAA, no windowing.
func DefaultFDParams() Params {
	pad := byte(0xAA)
	p := DefaultClassicParams()
	p.TxPadding = &pad
	p.TxDataLength = 64
	p.CanFD = true
	return p
}

// EncodeSTmin converts a duration into its ISO-TP wire encoding. Values
// below 1ms are truncated down to a 100µs step, clamped to 100µs-900µs;
// values above 127ms saturate at 0x7F.
func EncodeSTmin(d time.Duration) byte {
	switch {
	case d <= 0:
		return 0x00
	case d < time.Millisecond:
		steps := d / (100 * time.Microsecond)
		if steps < 1 {
			steps = 1
		}
		if steps > 9 {
			steps = 9
		}
		return byte(0xF0 + steps)
	case d > 127*time.Millisecond:
		return 0x7F
	default:
		return byte(d / time.Millisecond)
	}
}

// DecodeSTmin converts the wire STmin byte into a wait duration. Values in
// the reserved ranges (0x80-0xF0, 0xFA-0xFF) are treated as 0x7F (127ms) per
// ISO 15765-2.
func DecodeSTmin(b byte) time.Duration {
	switch {
	case b <= 0x7F:
		return time.Duration(b) * time.Millisecond
	case b >= 0xF1 && b <= 0xF9:
		return time.Duration(100*(int(b)-0xF0)) * time.Microsecond
	default:
		return 127 * time.Millisecond
	}
}
