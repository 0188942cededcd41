package isotp

import (
	"context"
	"time"

	"husk/canbus"
)

// Send segments data and transmits it to the endpoint's peer. Functionally
// addressed endpoints send single-frame messages only; a functional message
// too long for one frame fails with ErrMessageTooLarge.
//
// When Params.BlockingSend is false (the observed default) Send returns as
// soon as the first frame is queued for a multi-frame message; the remaining
// consecutive frames continue in the background and any failure surfaces on
// Errs() instead of Send's return value.
func (e *Endpoint) Send(ctx context.Context, data []byte) error {
	msg := Message(data)
	if err := msg.validate(e.params.MaxFrameSize); err != nil {
		return err
	}

	sfCapacity := singleFrameDataCapacity(e.params.TxDataLength)
	if len(data) <= sfCapacity {
		return e.link.Send(ctx, e.buildSingleFrame(data), 0)
	}

	if e.addr.Functional {
		// Functional requests in this protocol are single-frame only; a
		// functionally-addressed multi-frame send has no defined peer to
		// flow-control against.
		return newError(ErrMessageTooLarge, nil)
	}

	if e.params.BlockingSend {
		return e.sendMultiFrame(ctx, data)
	}

	ffCapacity := firstFrameDataCapacity(e.params.TxDataLength)
	first := e.buildFirstFrame(data, ffCapacity)
	if err := e.link.Send(ctx, first, 0); err != nil {
		return err
	}
	go func() {
		if err := e.continueMultiFrame(ctx, data, ffCapacity); err != nil {
			select {
			case e.asyncErrs <- err:
			default:
			}
		}
	}()
	return nil
}

func (e *Endpoint) sendMultiFrame(ctx context.Context, data []byte) error {
	ffCapacity := firstFrameDataCapacity(e.params.TxDataLength)
	first := e.buildFirstFrame(data, ffCapacity)
	if err := e.link.Send(ctx, first, 0); err != nil {
		return err
	}
	return e.continueMultiFrame(ctx, data, ffCapacity)
}

// continueMultiFrame drives the consecutive-frame stream after the first
// frame has already been sent, applying blocksize accounting and STmin
// pacing between frames.
func (e *Endpoint) continueMultiFrame(ctx context.Context, data []byte, ffCapacity int) error {
	cfCapacity := consecutiveFrameDataCapacity(e.params.TxDataLength)
	sent := ffCapacity
	sn := byte(1)
	blockCount := byte(0)

	for sent < len(data) {
		fc, err := e.waitFlowControl(ctx)
		if err != nil {
			return err
		}
		switch fc.status {
		case FlowStatusOverflow:
			return newError(ErrPeerOverflow, nil)
		case FlowStatusWait:
			continue
		}

		blockSize := fc.blockSize
		stMin := DecodeSTmin(fc.stMin)
		blockCount = 0

		for sent < len(data) && (blockSize == 0 || blockCount < blockSize) {
			delay := stMin
			if blockCount == 0 && sn == 1 {
				delay = 0
			}

			take := len(data) - sent
			if take > cfCapacity {
				take = cfCapacity
			}
			frame := e.buildConsecutiveFrame(data[sent:sent+take], sn)
			if err := e.link.Send(ctx, frame, delay); err != nil {
				return err
			}
			sent += take
			sn = (sn + 1) % 16
			blockCount++
		}
	}
	return nil
}

func (e *Endpoint) waitFlowControl(ctx context.Context) (flowControlFrame, error) {
	select {
	case fc := <-e.fcIncoming:
		return fc, nil
	case <-time.After(e.params.RxFlowControlTimeout):
		return flowControlFrame{}, newError(ErrFlowControlTimeout, nil)
	case <-ctx.Done():
		return flowControlFrame{}, ctx.Err()
	}
}

func (e *Endpoint) buildSingleFrame(data []byte) canbus.Frame {
	var header []byte
	if e.params.CanFD && e.params.TxDataLength >= 16 {
		header = []byte{pciSingleFrame << 4, byte(len(data))}
	} else {
		header = []byte{pciSingleFrame<<4 | byte(len(data)&0x0F)}
	}
	return e.buildFrame(append(header, data...))
}

func (e *Endpoint) buildFirstFrame(data []byte, capacity int) canbus.Frame {
	length := len(data)
	header := []byte{
		pciFirstFrame<<4 | byte((length>>8)&0x0F),
		byte(length & 0xFF),
	}
	n := capacity
	if n > length {
		n = length
	}
	return e.buildFrame(append(header, data[:n]...))
}

func (e *Endpoint) buildConsecutiveFrame(chunk []byte, sn byte) canbus.Frame {
	header := []byte{pciConsecutiveFrame<<4 | (sn & 0x0F)}
	return e.buildFrame(append(header, chunk...))
}

// buildFrame pads body up to TxDataLength (when TxPadding is configured) and
// wraps it in a Frame addressed to this endpoint's peer.
func (e *Endpoint) buildFrame(body []byte) canbus.Frame {
	if e.params.TxPadding != nil && len(body) < e.params.TxDataLength {
		padded := make([]byte, e.params.TxDataLength)
		copy(padded, body)
		for i := len(body); i < e.params.TxDataLength; i++ {
			padded[i] = *e.params.TxPadding
		}
		body = padded
	}
	if e.params.CanFD {
		return canbus.NewFDFrame(e.addr.TxID, body, false)
	}
	return canbus.NewFrame(e.addr.TxID, body)
}
