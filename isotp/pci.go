package isotp

// PCI (protocol control information) frame types, ISO 15765-2 §9.6.
const (
	pciSingleFrame      byte = 0x0
	pciFirstFrame       byte = 0x1
	pciConsecutiveFrame byte = 0x2
	pciFlowControl      byte = 0x3
)

// Flow status values carried in a flow control frame's low nibble.
type FlowStatus byte

const (
	FlowStatusContinue FlowStatus = 0x0
	FlowStatusWait     FlowStatus = 0x1
	FlowStatusOverflow FlowStatus = 0x2
)

func pciType(b byte) byte { return (b & 0xF0) >> 4 }

// singleFrameDataCapacity returns how many bytes a single frame can carry for
// the given tx data length. CAN-FD single frames (tx length >= 16) use the
// 2-byte PCI form with a 12-bit SF_DL field in the second byte; classic
// frames pack the length into the PCI byte's low nibble, capped at 7.
func singleFrameDataCapacity(txDataLength int) int {
	if txDataLength >= 16 {
		return txDataLength - 2
	}
	return txDataLength - 1
}

// firstFrameDataCapacity is the number of payload bytes carried in the FF
// itself; the rest streams via consecutive frames.
func firstFrameDataCapacity(txDataLength int) int {
	return txDataLength - 2
}

// consecutiveFrameDataCapacity is the number of payload bytes a CF carries.
func consecutiveFrameDataCapacity(txDataLength int) int {
	return txDataLength - 1
}
