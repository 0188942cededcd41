package uds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"husk/isotp"
)

// Client drives one UDS tester endpoint pair: a physically-addressed
// endpoint whose requests correlate 1:1 with responses, and a functionally
// addressed endpoint used only for fire-and-forget broadcast requests
// (SessionControl, CommunicationControl, TesterPresent, ControlDTCSetting).
type Client struct {
	phys *isotp.Endpoint
	fn   *isotp.Endpoint

	p2     time.Duration
	p2Star time.Duration
	// maxPendingWaits bounds how many consecutive 0x78 "response pending"
	// NRCs this client tolerates before giving up.
	maxPendingWaits int

	codecs *CodecTable

	mu            sync.Mutex
	session       Session
	maxBlockSize  int
	transferSeq   byte
}

// NewClient builds a Client over an already-running physical/functional
// endpoint pair.
func NewClient(phys, fn *isotp.Endpoint, codecs *CodecTable) *Client {
	return &Client{
		phys:            phys,
		fn:              fn,
		p2:              5 * time.Second,
		p2Star:          5 * time.Second,
		maxPendingWaits: 20,
		codecs:          codecs,
		session:         Session{Current: SessionDefault},
	}
}

// SetTimeouts overrides the P2/P2* budgets (defaults are 5s/5s, matching the
// connection profile this core ships).
func (c *Client) SetTimeouts(p2, p2Star time.Duration) {
	c.p2, c.p2Star = p2, p2Star
}

// Session returns the client's current view of diagnostic/security state.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// MaxBlockSize returns the block size negotiated by the most recent
// RequestDownload call.
func (c *Client) MaxBlockSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxBlockSize
}

// request sends one physically-addressed request and waits for its
// response, handling the 0x78 "response pending" retry loop. Only one
// request is ever in flight on this client since callers share the same
// physical endpoint and this method holds c.mu for its whole lifetime.
func (c *Client) request(ctx context.Context, sid byte, subfn *byte, data []byte) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := &Message{ServiceID: sid, Subfunction: subfn, Data: data}
	if err := c.phys.Send(ctx, req.ToRawData()); err != nil {
		return nil, err
	}

	deadline := c.p2
	for attempt := 0; ; attempt++ {
		select {
		case raw, ok := <-c.phys.Incoming():
			if !ok {
				return nil, errTimeout()
			}
			resp := RawDataToMessage(c.phys.Address().RxID, raw, true)
			if resp == nil {
				return nil, errMalformed("empty response")
			}
			if resp.IsPositive != nil && !*resp.IsPositive {
				nrc := byte(0)
				if resp.NRC != nil {
					nrc = *resp.NRC
				}
				if nrc == PendingNRC {
					if attempt >= c.maxPendingWaits {
						return nil, errTimeout()
					}
					deadline = c.p2Star
					continue
				}
				return nil, errNegative(sid, nrc)
			}
			if resp.ServiceID != sid {
				return nil, errUnexpectedService(fmt.Sprintf("got 0x%02X, want 0x%02X", resp.ServiceID, sid))
			}
			return resp, nil
		case <-time.After(deadline):
			return nil, errTimeout()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// sendFunctional fires a functionally-addressed request with no response
// correlation.
func (c *Client) sendFunctional(ctx context.Context, sid byte, subfn *byte, data []byte) error {
	req := &Message{ServiceID: sid, Subfunction: subfn, Data: data}
	return c.fn.Send(ctx, req.ToRawData())
}

// SendRawFunctional sends raw (already SID-prefixed) bytes functionally,
// with no response expected. Used for the orchestrator's "functional raw"
// steps that address services this client has no typed wrapper for.
func (c *Client) SendRawFunctional(ctx context.Context, raw []byte) error {
	return c.fn.Send(ctx, raw)
}

// SendRawPhysical sends raw (already SID-prefixed) bytes physically, with no
// response expected. Used for the orchestrator's "physical raw" steps whose
// suppress-positive-response subfunction bit means no reply is coming.
func (c *Client) SendRawPhysical(ctx context.Context, raw []byte) error {
	return c.phys.Send(ctx, raw)
}

// DiagnosticSessionControl requests a session change and updates the
// client's tracked session on success.
func (c *Client) DiagnosticSessionControl(ctx context.Context, session SessionType) error {
	sub := byte(session)
	_, err := c.request(ctx, ServiceDiagnosticSessionControl, &sub, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session.Current = session
	c.mu.Unlock()
	return nil
}

// DiagnosticSessionControlFunctional issues the session change functionally
// (fire-and-forget), matching the orchestrator's broadcast-style steps.
func (c *Client) DiagnosticSessionControlFunctional(ctx context.Context, session SessionType) error {
	sub := byte(session)
	return c.sendFunctional(ctx, ServiceDiagnosticSessionControl, &sub, nil)
}

// EcuReset requests a reset of the given type.
func (c *Client) EcuReset(ctx context.Context, resetType byte) error {
	_, err := c.request(ctx, ServiceECUReset, &resetType, nil)
	return err
}

// RequestSeed asks for a seed at the given (odd) security level; the level
// itself is the security-access subfunction.
func (c *Client) RequestSeed(ctx context.Context, level byte) ([]byte, error) {
	resp, err := c.request(ctx, ServiceSecurityAccess, &level, nil)
	if err != nil {
		return nil, err
	}
	// resp.Data[0] is the echoed level (the subfunction byte); the seed
	// follows it.
	if len(resp.Data) < 1 {
		return nil, errMalformed("security access: missing seed")
	}
	return resp.Data[1:], nil
}

// SendKey posts the computed key at level+1 (the paired even level).
func (c *Client) SendKey(ctx context.Context, level byte, key []byte) error {
	sendLevel := level + 1
	_, err := c.request(ctx, ServiceSecurityAccess, &sendLevel, key)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session.SecurityLevel = sendLevel
	c.mu.Unlock()
	return nil
}

// CommunicationControl toggles rx/tx per controlType for the given
// communicationType (network/application), physically addressed.
func (c *Client) CommunicationControl(ctx context.Context, controlType, communicationType byte) error {
	_, err := c.request(ctx, ServiceCommunicationControl, &controlType, []byte{communicationType})
	return err
}

// ReadDataByIdentifier reads did and decodes it with the registered codec.
func (c *Client) ReadDataByIdentifier(ctx context.Context, did uint16) ([]byte, error) {
	data := []byte{byte(did >> 8), byte(did)}
	resp, err := c.request(ctx, ServiceReadDataByIdentifier, nil, data)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) < 2 {
		return nil, errMalformed("read data by identifier: missing DID echo")
	}
	codec := c.codecs.CodecFor(did)
	return codec.Decode(resp.Data[2:])
}

// WriteDataByIdentifier encodes v with the registered codec and writes it.
func (c *Client) WriteDataByIdentifier(ctx context.Context, did uint16, v []byte) error {
	codec := c.codecs.CodecFor(did)
	encoded, err := codec.Encode(v)
	if err != nil {
		return err
	}
	data := append([]byte{byte(did >> 8), byte(did)}, encoded...)
	_, err = c.request(ctx, ServiceWriteDataByIdentifier, nil, data)
	return err
}

// ClearDTC clears the DTC group (24-bit group code, 0xFFFFFF = all groups).
func (c *Client) ClearDTC(ctx context.Context, group uint32) error {
	data := []byte{byte(group >> 16), byte(group >> 8), byte(group)}
	_, err := c.request(ctx, ServiceClearDiagnosticInformation, nil, data)
	return err
}

// RoutineControl starts/stops/polls the routine identified by rid.
func (c *Client) RoutineControl(ctx context.Context, controlType byte, rid uint16, data []byte) ([]byte, error) {
	payload := append([]byte{byte(rid >> 8), byte(rid)}, data...)
	resp, err := c.request(ctx, ServiceRoutineControl, &controlType, payload)
	if err != nil {
		return nil, err
	}
	// resp.Data is [controlType, ridHi, ridLo, routineStatusRecord...]; the
	// echoed subfunction is included because this request carries one
	// (unlike ReadDataByIdentifier, which has none).
	if len(resp.Data) < 3 {
		return nil, nil
	}
	return resp.Data[3:], nil
}

// RequestDownload negotiates a download window starting at addr for size
// bytes and returns the block size to stream TransferData calls in
// (MBL-2, with a 4088-byte fallback if the response can't be parsed).
func (c *Client) RequestDownload(ctx context.Context, addr, size uint32) (int, error) {
	const addrFormat, memFormat = 0x04, 0x04
	afmt := byte(addrFormat<<4 | memFormat)

	addrBytes := encodeMinimalBE(uint64(addr))
	sizeBytes := encodeMinimalBE(uint64(size))
	lengthFormat := byte(len(addrBytes)<<4 | len(sizeBytes))

	data := []byte{afmt, lengthFormat}
	data = append(data, addrBytes...)
	data = append(data, sizeBytes...)

	resp, err := c.request(ctx, ServiceRequestDownload, nil, data)
	if err != nil {
		return 0, err
	}

	maxBlockSize := parseMaxBlockSize(resp.Data)
	c.mu.Lock()
	c.maxBlockSize = maxBlockSize
	c.transferSeq = 1
	c.mu.Unlock()
	return maxBlockSize, nil
}

// parseMaxBlockSize decodes a RequestDownload positive response: the high
// nibble of the first byte is the length-format identifier (bytes in MBL);
// max block size is MBL-2 (2 bytes reserved for SID+sequence in
// TransferData). On any parse failure it falls back to 4088 (0xFFA-2).
func parseMaxBlockSize(data []byte) int {
	if len(data) < 1 {
		return 4088
	}
	lenFmt := int(data[0] >> 4)
	if lenFmt < 1 || lenFmt > 4 || len(data) < 1+lenFmt {
		return 4088
	}
	var mbl uint64
	for _, b := range data[1 : 1+lenFmt] {
		mbl = (mbl << 8) | uint64(b)
	}
	if mbl < 2 {
		return 4088
	}
	return int(mbl) - 2
}

func encodeMinimalBE(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var b []byte
	for v > 0 {
		b = append([]byte{byte(v)}, b...)
		v >>= 8
	}
	return b
}

// TransferData posts one block of a download in progress. seq wraps
// 0xFF -> 0x00 (not 0x01), one block per round trip.
func (c *Client) TransferData(ctx context.Context, block []byte) error {
	c.mu.Lock()
	seq := c.transferSeq
	c.mu.Unlock()

	_, err := c.request(ctx, ServiceTransferData, &seq, block)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.transferSeq == 0xFF {
		c.transferSeq = 0x00
	} else {
		c.transferSeq++
	}
	c.mu.Unlock()
	return nil
}

// RequestTransferExit closes out a download.
func (c *Client) RequestTransferExit(ctx context.Context) error {
	_, err := c.request(ctx, ServiceRequestTransferExit, nil, nil)
	return err
}

// TesterPresent sends a keep-alive. suppressResponse uses subfunction 0x80,
// which asks the ECU not to reply.
func (c *Client) TesterPresent(ctx context.Context, suppressResponse bool) error {
	sub := byte(0x00)
	if suppressResponse {
		sub = 0x80
	}
	if suppressResponse {
		return c.sendFunctional(ctx, ServiceTesterPresent, &sub, nil)
	}
	_, err := c.request(ctx, ServiceTesterPresent, &sub, nil)
	return err
}

// ControlDTCSetting toggles DTC recording on (0x01) or off (0x02).
func (c *Client) ControlDTCSetting(ctx context.Context, subfn byte) error {
	_, err := c.request(ctx, ServiceControlDTCSetting, &subfn, nil)
	return err
}

// ControlDTCSettingFunctional is the broadcast form used by the
// orchestrator's "functional raw 85 8x" steps.
func (c *Client) ControlDTCSettingFunctional(ctx context.Context, subfn byte) error {
	return c.sendFunctional(ctx, ServiceControlDTCSetting, &subfn, nil)
}

// ReadIdentifier issues the custom 0x1A identification read this ECU family
// answers (VIN, hardware/software ID, model, manufacturer, country) and
// returns the response payload decoded as ASCII.
func (c *Client) ReadIdentifier(ctx context.Context, subfn byte) (string, error) {
	resp, err := c.request(ctx, ServiceReadIdKTM16To20, &subfn, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Data) < 1 {
		return "", errMalformed("read identifier: empty response")
	}
	ascii := &Message{Data: resp.Data[1:]}
	return ascii.ASCIIRepresentation(), nil
}
