package drivers

import (
	"context"
	"errors"
	"fmt"

	"husk/canbus"
)

// Capabilities describes what a concrete driver's underlying hardware supports.
type Capabilities struct {
	FD         bool // CAN-FD frames supported
	MaxPayload int  // largest payload this driver can move in one frame
}

// LinkErrorKind enumerates the ways a driver can fail to move a frame.
type LinkErrorKind int

const (
	LinkErrorBusOff LinkErrorKind = iota
	LinkErrorTxTimeout
	LinkErrorTxQueueFull
	LinkErrorDriverError
)

func (k LinkErrorKind) String() string {
	switch k {
	case LinkErrorBusOff:
		return "bus off"
	case LinkErrorTxTimeout:
		return "tx timeout"
	case LinkErrorTxQueueFull:
		return "tx queue full"
	default:
		return "driver error"
	}
}

// LinkError is the error taxonomy for the CAN link.
type LinkError struct {
	Kind LinkErrorKind
	Err  error
}

func (e *LinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("link: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("link: %s", e.Kind)
}

func (e *LinkError) Unwrap() error { return e.Err }

func NewLinkError(kind LinkErrorKind, err error) *LinkError {
	return &LinkError{Kind: kind, Err: err}
}

var ErrDriverClosed = errors.New("driver has been closed")

// Driver hides which underlying hardware family is in use. Callers never see
// Vector, PCAN, SocketCAN or SLCAN specifics, only this interface.
type Driver interface {
	// Send transmits a single frame, blocking until it is accepted by the
	// hardware or fails.
	Send(ctx context.Context, frame canbus.Frame) error
	// Subscribe returns a channel delivering every received frame in arrival
	// order. The channel is closed when the driver is closed; it is not
	// restartable after that.
	Subscribe() <-chan canbus.Frame
	// Capabilities reports what this driver's hardware supports.
	Capabilities() Capabilities
	// Close releases the underlying hardware resource.
	Close() error
}
