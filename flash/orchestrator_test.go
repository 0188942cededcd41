package flash_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"husk/canbus"
	"husk/drivers"
	"husk/flash"
	"husk/isotp"
	"husk/uds"
	"husk/zone"
)

// fakeECU answers UDS requests on its own endpoint pair, standing in for the
// bench hardware. Multi-frame segmentation/reassembly and flow control are
// handled transparently by isotp.Endpoint on both sides; this type only has
// to look at reassembled request bytes and hand back response bytes.
type fakeECU struct {
	phys *isotp.Endpoint
	fn   *isotp.Endpoint

	eraseRejects int
}

func newFakeECU(ctx context.Context, link *drivers.Link, testerPhys isotp.Address, testerFn isotp.Address) *fakeECU {
	e := &fakeECU{
		phys: isotp.NewEndpoint(ctx, link, isotp.NewPhysicalAddress(testerPhys.RxID, testerPhys.TxID), isotp.DefaultClassicParams()),
		fn:   isotp.NewEndpoint(ctx, link, isotp.NewFunctionalAddress(testerFn.RxID, testerFn.TxID), isotp.DefaultClassicParams()),
	}
	go e.serve(ctx, e.phys, true)
	go e.serve(ctx, e.fn, false)
	return e
}

func (e *fakeECU) serve(ctx context.Context, ep *isotp.Endpoint, reply bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ep.Incoming():
			if !ok {
				return
			}
			resp := e.handle([]byte(raw))
			if resp == nil || !reply {
				continue
			}
			_ = ep.Send(ctx, resp)
		}
	}
}

// handle decodes one request and builds its positive response payload.
// Functionally addressed requests never reach here with reply expected: the
// functional server loop discards whatever this returns.
func (e *fakeECU) handle(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	sid := raw[0]

	switch sid {
	case uds.ServiceDiagnosticSessionControl:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1]}
	case uds.ServiceECUReset:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1]}
	case uds.ServiceRoutineControl:
		rid := uint16(raw[2])<<8 | uint16(raw[3])
		resp := []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1], raw[2], raw[3]}
		if rid == 0xFF00 {
			if e.eraseRejects > 0 {
				e.eraseRejects--
				return append(resp, 0x01, 0xFF, 0x00, 0x01)
			}
			return append(resp, 0x01, 0xFF, 0x00, 0x00)
		}
		return resp
	case uds.ServiceControlDTCSetting:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1]}
	case uds.ServiceCommunicationControl:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1]}
	case uds.ServiceSecurityAccess:
		level := raw[1]
		if level%2 == 1 {
			seed := []byte{
				0x00, 0x4F, 0x18, 0xB0, 0x1E, 0xAE, 0x78, 0x13,
				0x0E, 0x76, 0x76, 0xC1, 0x26, 0x27, 0x46, 0x6F,
			}
			return append([]byte{sid + uds.PositiveResponseServiceIdOffset, level}, seed...)
		}
		return []byte{sid + uds.PositiveResponseServiceIdOffset, level}
	case uds.ServiceReadDataByIdentifier:
		did := raw[1:3]
		length := 30
		if uint16(did[0])<<8|uint16(did[1]) == 0xF0F0 {
			length = 1
		}
		payload := make([]byte, length)
		resp := append([]byte{sid + uds.PositiveResponseServiceIdOffset}, did...)
		return append(resp, payload...)
	case uds.ServiceWriteDataByIdentifier:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1], raw[2]}
	case uds.ServiceClearDiagnosticInformation:
		return []byte{sid + uds.PositiveResponseServiceIdOffset}
	case uds.ServiceRequestDownload:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, 0x20, 0x0F, 0xFA}
	case uds.ServiceTransferData:
		return []byte{sid + uds.PositiveResponseServiceIdOffset, raw[1]}
	case uds.ServiceRequestTransferExit:
		return []byte{sid + uds.PositiveResponseServiceIdOffset}
	default:
		return nil
	}
}

// harness wires a tester uds.Client and a fakeECU over one in-memory link,
// using the default RZCU physical addressing plus functional broadcast.
type harness struct {
	client *uds.Client
	ecu    *fakeECU
	cancel context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	// Loop every sent frame back into the driver so the tester and the fake
	// ECU, both subscribed to the same link, see each other's traffic.
	var driver *drivers.VirtualDriver
	driver = drivers.NewVirtualDriver(false, func(f canbus.Frame) {
		_ = driver.Inject(ctx, f)
	})
	log := logrus.NewEntry(logrus.New())
	link := drivers.NewLink(ctx, driver, log)

	ids, err := zone.DefaultTable().IDsFor(zone.RZCU)
	require.NoError(t, err)

	testerPhys := isotp.NewPhysicalAddress(ids.TxID, ids.RxID)
	testerFn := isotp.NewFunctionalAddress(zone.FunctionalIDs.TxID, zone.FunctionalIDs.RxID)

	params := isotp.DefaultClassicParams()
	physEP := isotp.NewEndpoint(ctx, link, testerPhys, params)
	fnEP := isotp.NewEndpoint(ctx, link, testerFn, params)

	ecu := newFakeECU(ctx, link, testerPhys, testerFn)

	client := uds.NewClient(physEP, fnEP, uds.NewCodecTable())
	client.SetTimeouts(2*time.Second, 2*time.Second)

	h := &harness{client: client, ecu: ecu, cancel: cancel}
	t.Cleanup(cancel)
	return h
}

func smallJob() *flash.Job {
	return &flash.Job{
		Zone:          zone.RZCU,
		SBL:           flash.Image{StartAddr: 0x1000, Data: []byte{0x01, 0x02, 0x03}, Signature: []byte{0xAA}},
		APP:           flash.Image{StartAddr: 0x2000, Data: make([]byte, 9000), Signature: []byte{0xBB}},
		SecurityLevel: 0x11,
	}
}

func TestOrchestratorRunSucceeds(t *testing.T) {
	h := newHarness(t)
	orch := flash.NewOrchestrator(h.client)

	var trace []string
	job := smallJob()
	job.Trace = func(line string) { trace = append(trace, line) }

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := orch.Run(ctx, job)
	require.NoError(t, err)
	require.Len(t, trace, 27)
	require.Contains(t, trace[len(trace)-1], "physical raw 10 81")
}

func TestOrchestratorRunFailsOnEraseReject(t *testing.T) {
	h := newHarness(t)
	h.ecu.eraseRejects = 1
	orch := flash.NewOrchestrator(h.client)

	job := smallJob()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := orch.Run(ctx, job)
	require.Error(t, err)

	var ferr *flash.Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, "erase APP region", ferr.StepName)
}

func TestOrchestratorRunMissingCalFails(t *testing.T) {
	h := newHarness(t)
	orch := flash.NewOrchestrator(h.client)

	job := smallJob()
	job.CalIsMust = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := orch.Run(ctx, job)
	require.Error(t, err)

	var ferr *flash.Error
	require.ErrorAs(t, err, &ferr)
	require.True(t, ferr.ImageMissing)
}
