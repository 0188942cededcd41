package isotp

// Message is a fully reassembled (or not-yet-segmented) ISO-TP payload.
// Valid lengths are 1-4095 bytes; MaxFrameSize in Params may cap it further.
type Message []byte

func (m Message) validate(maxFrameSize int) error {
	if len(m) == 0 || len(m) > maxFrameSize {
		return newError(ErrMessageTooLarge, nil)
	}
	return nil
}
