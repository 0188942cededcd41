package isotp

// Address is a Normal-addressing ISO-TP endpoint pair: the CAN ID this side
// transmits on and the CAN ID it expects responses/frames on.
//
// Physical and functional addressing are independent; a functional Address
// is used only for broadcast-style requests (SessionControl,
// CommunicationControl, TesterPresent, ControlDTCSetting) and is never
// correlated 1:1 with a response.
type Address struct {
	TxID       uint16
	RxID       uint16
	Functional bool
}

// NewPhysicalAddress builds a physically-addressed endpoint pair.
func NewPhysicalAddress(txID, rxID uint16) Address {
	return Address{TxID: txID, RxID: rxID}
}

// NewFunctionalAddress builds a functionally-addressed (broadcast) endpoint.
func NewFunctionalAddress(txID, rxID uint16) Address {
	return Address{TxID: txID, RxID: rxID, Functional: true}
}
