package uds

import "fmt"

// Error is the taxonomy of ways a UDS request can fail once the underlying
// transport has successfully moved bytes.
type Error struct {
	Negative bool
	SID      byte
	NRC      byte
	Malformed bool
	UnexpectedService bool
	Timeout  bool
	msg      string
}

func (e *Error) Error() string {
	switch {
	case e.Timeout:
		return "uds: timeout waiting for response"
	case e.Negative:
		return fmt.Sprintf("uds: negative response sid=0x%02X nrc=0x%02X (%s)", e.SID, e.NRC, NRCName(e.NRC))
	case e.Malformed:
		return fmt.Sprintf("uds: malformed response: %s", e.msg)
	case e.UnexpectedService:
		return fmt.Sprintf("uds: unexpected service in response: %s", e.msg)
	default:
		return "uds: error"
	}
}

func errNegative(sid, nrc byte) error { return &Error{Negative: true, SID: sid, NRC: nrc} }
func errTimeout() error               { return &Error{Timeout: true} }
func errMalformed(msg string) error    { return &Error{Malformed: true, msg: msg} }
func errUnexpectedService(msg string) error {
	return &Error{UnexpectedService: true, msg: msg}
}

// NRCName returns the human label for nrc, or its hex form if unknown.
func NRCName(nrc byte) string {
	if name, ok := nrcNames[nrc]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", nrc)
}
