package drivers

import (
	"context"

	"husk/canbus"
)

// VirtualDriver is an in-memory Driver for tests and for the --driver=virtual
// CLI mode. Frames sent on it are handed directly to a responder function
// instead of going out over real hardware, letting tests script ECU
// responses without any serial port.
type VirtualDriver struct {
	capabilities Capabilities
	incoming     chan canbus.Frame
	onSend       func(canbus.Frame)
	closed       chan struct{}
}

// NewVirtualDriver builds a VirtualDriver. onSend, if non-nil, is invoked
// synchronously for every frame passed to Send; tests use it to inject a
// scripted response via Inject.
func NewVirtualDriver(fd bool, onSend func(canbus.Frame)) *VirtualDriver {
	maxPayload := canbus.MaxClassicPayload
	if fd {
		maxPayload = canbus.MaxFDPayload
	}
	return &VirtualDriver{
		capabilities: Capabilities{FD: fd, MaxPayload: maxPayload},
		incoming:     make(chan canbus.Frame, 256),
		onSend:       onSend,
		closed:       make(chan struct{}),
	}
}

func (v *VirtualDriver) Capabilities() Capabilities { return v.capabilities }

func (v *VirtualDriver) Subscribe() <-chan canbus.Frame { return v.incoming }

func (v *VirtualDriver) Send(ctx context.Context, frame canbus.Frame) error {
	select {
	case <-v.closed:
		return ErrDriverClosed
	default:
	}
	if len(frame.Data) > frame.MaxPayload() {
		return NewLinkError(LinkErrorDriverError, nil)
	}
	if v.onSend != nil {
		v.onSend(frame)
	}
	return nil
}

// Inject delivers frame to this driver's subscriber as if it had arrived
// over the wire.
func (v *VirtualDriver) Inject(ctx context.Context, frame canbus.Frame) error {
	select {
	case v.incoming <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-v.closed:
		return ErrDriverClosed
	}
}

func (v *VirtualDriver) Close() error {
	select {
	case <-v.closed:
		return nil
	default:
		close(v.closed)
		close(v.incoming)
	}
	return nil
}
