package isotp

import (
	"context"
	"sync"
	"time"

	"husk/canbus"
	"husk/drivers"
)

// Endpoint is a combined segmenter/reassembler for one (tx, rx) address pair.
// It owns no hardware directly; every frame moves through the Link it is
// built on.
type Endpoint struct {
	link   *drivers.Link
	addr   Address
	params Params

	rxFrames   chan canbus.Frame
	incoming   chan Message
	fcIncoming chan flowControlFrame

	asyncErrs chan error

	reassembling sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

type flowControlFrame struct {
	status    FlowStatus
	blockSize byte
	stMin     byte
}

// NewEndpoint subscribes to link and starts dispatching frames matching
// addr.RxID to this endpoint.
func NewEndpoint(ctx context.Context, link *drivers.Link, addr Address, params Params) *Endpoint {
	epCtx, cancel := context.WithCancel(ctx)
	e := &Endpoint{
		link:       link,
		addr:       addr,
		params:     params,
		rxFrames:   link.Subscribe(),
		incoming:   make(chan Message, 16),
		fcIncoming: make(chan flowControlFrame, 1),
		asyncErrs:  make(chan error, 16),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go e.dispatchLoop(epCtx)
	return e
}

// Close stops dispatching and releases the link subscription.
func (e *Endpoint) Close() {
	e.cancel()
	<-e.done
	e.link.Unsubscribe(e.rxFrames)
}

// Incoming returns the channel of fully reassembled messages.
func (e *Endpoint) Incoming() <-chan Message { return e.incoming }

// Address returns this endpoint's tx/rx address pair.
func (e *Endpoint) Address() Address { return e.addr }

// Errs returns background send errors for fire-and-forget (non-blocking)
// transfers; callers of Send that need synchronous errors get them from
// Send's own return value instead.
func (e *Endpoint) Errs() <-chan error { return e.asyncErrs }

func (e *Endpoint) dispatchLoop(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-e.rxFrames:
			if frame.ID != e.addr.RxID {
				continue
			}
			if len(frame.Data) == 0 {
				continue
			}
			switch pciType(frame.Data[0]) {
			case pciFlowControl:
				e.handleFlowControl(frame)
			case pciSingleFrame:
				e.handleSingleFrame(frame)
			case pciFirstFrame:
				e.reassemble(ctx, frame)
			case pciConsecutiveFrame:
				// A CF with no FF in progress has nothing to attach to; drop it.
			}
		}
	}
}

func (e *Endpoint) handleFlowControl(frame canbus.Frame) {
	if len(frame.Data) < 3 {
		return
	}
	fc := flowControlFrame{
		status:    FlowStatus(frame.Data[0] & 0x0F),
		blockSize: frame.Data[1],
		stMin:     frame.Data[2],
	}
	select {
	case e.fcIncoming <- fc:
	default:
		// superseded by a newer FC before the sender consumed this one
		<-e.fcIncoming
		e.fcIncoming <- fc
	}
}

func (e *Endpoint) handleSingleFrame(frame canbus.Frame) {
	var length int
	if e.params.CanFD && e.params.TxDataLength >= 16 {
		if len(frame.Data) < 2 {
			return
		}
		length = (int(frame.Data[0]&0x0F) << 8) | int(frame.Data[1])
		if 1+length+1 > len(frame.Data) {
			return
		}
		msg := make(Message, length)
		copy(msg, frame.Data[2:2+length])
		e.deliver(msg)
		return
	}
	length = int(frame.Data[0] & 0x0F)
	if length == 0 || 1+length > len(frame.Data) {
		return
	}
	msg := make(Message, length)
	copy(msg, frame.Data[1:1+length])
	e.deliver(msg)
}

func (e *Endpoint) deliver(msg Message) {
	select {
	case e.incoming <- msg:
	default:
		// slow consumer; drop oldest in-flight rather than block the dispatch loop
		select {
		case <-e.incoming:
		default:
		}
		e.incoming <- msg
	}
}

// reassemble drives one complete FF+CF* reception. Only one reassembly is
// ever in flight per rx_id because this runs inline in the single dispatch
// loop that also classifies incoming frames.
func (e *Endpoint) reassemble(ctx context.Context, first canbus.Frame) {
	if len(first.Data) < 2 {
		return
	}
	length := (int(first.Data[0]&0x0F) << 8) | int(first.Data[1])
	if length > e.params.MaxFrameSize {
		return
	}

	headerLen := 2
	ffCapacity := firstFrameDataCapacity(e.params.TxDataLength)
	if len(first.Data) < headerLen+min(ffCapacity, length) {
		return
	}

	buf := make([]byte, length)
	n := copy(buf, first.Data[headerLen:])

	if err := e.sendFlowControl(ctx, FlowStatusContinue); err != nil {
		return
	}

	expectedSN := byte(1)
	blockCount := byte(0)

	for n < length {
		select {
		case <-ctx.Done():
			return
		case frame := <-e.rxFrames:
			if frame.ID != e.addr.RxID || len(frame.Data) == 0 {
				continue
			}
			if pciType(frame.Data[0]) != pciConsecutiveFrame {
				continue
			}
			sn := frame.Data[0] & 0x0F
			if sn != expectedSN {
				return // ErrSequenceError: abort this reassembly
			}
			remaining := length - n
			take := len(frame.Data) - 1
			if take > remaining {
				take = remaining
			}
			n += copy(buf[n:], frame.Data[1:1+take])
			expectedSN = (expectedSN + 1) % 16
			blockCount++

			if e.params.BlockSize > 0 && blockCount == e.params.BlockSize && n < length {
				if err := e.sendFlowControl(ctx, FlowStatusContinue); err != nil {
					return
				}
				blockCount = 0
			}
		case <-time.After(e.params.RxConsecutiveFrameTimeout):
			return // ErrConsecutiveFrameTimeout
		}
	}

	e.deliver(Message(buf))
}

func (e *Endpoint) sendFlowControl(ctx context.Context, status FlowStatus) error {
	data := []byte{byte(pciFlowControl)<<4 | byte(status), e.params.BlockSize, e.params.STmin}
	frame := e.buildFrame(data)
	return e.link.Send(ctx, frame, 0)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
