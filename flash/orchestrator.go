package flash

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"husk/seedkey"
	"husk/uds"
)

// writeVIN is the fixed F184 payload from the canonical sequence (step 11).
var writeVIN = []byte{
	0x19, 0x05, 0x0E, 0x4F, 0x54, 0x41, 0x30, 0x30,
	0x31, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20,
}

const (
	routineEnterExtended   uint16 = 0x0203
	routineCheckBypass     uint16 = 0x55B0
	routineBypassConfirm   uint16 = 0x55B1
	routineSignature       uint16 = 0xDD02
	routineEraseMemory     uint16 = 0xFF00
	routineFinalize        uint16 = 0xFF01
	routineControlTypeGo   byte   = 0x01
	eraseSuccessPrefix0    byte   = 0x01
	eraseSuccessPrefix1    byte   = 0xFF
	eraseSuccessPrefix2    byte   = 0x00
	eraseResultSuccessByte byte   = 0x00
)

// Orchestrator drives the linear reflash state machine over one UDS client
// pair (physical for correlated requests, functional for broadcasts). Its
// step index is monotonic on success; on failure it stops without backtrack.
type Orchestrator struct {
	client *uds.Client
}

// NewOrchestrator builds an orchestrator over an already-wired UDS client.
func NewOrchestrator(client *uds.Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// Run executes the full reflash sequence for job. When job.CalIsMust, CAL1
// and CAL2 are each flashed as erase/download/transfer/exit/signature
// between steps 15 and 16.
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	step := 0
	run := func(name string, fn func(ctx context.Context) error) error {
		step++
		if err := fn(ctx); err != nil {
			return errStepFailed(step, name, err)
		}
		job.trace(fmt.Sprintf("[%d] %s: ok", step, name))
		return nil
	}

	if err := run("change_session(default)", func(ctx context.Context) error {
		return o.client.DiagnosticSessionControl(ctx, uds.SessionDefault)
	}); err != nil {
		return err
	}

	if err := run("functional raw 10 83", func(ctx context.Context) error {
		return o.client.SendRawFunctional(ctx, []byte{0x10, 0x83})
	}); err != nil {
		return err
	}

	if err := run("routine_control enter-extended", func(ctx context.Context) error {
		_, err := o.client.RoutineControl(ctx, routineControlTypeGo, routineEnterExtended, nil)
		return err
	}); err != nil {
		return err
	}

	if err := run("functional raw 85 82 (ControlDTC off)", func(ctx context.Context) error {
		return o.client.SendRawFunctional(ctx, []byte{0x85, 0x82})
	}); err != nil {
		return err
	}

	if err := run("functional raw 28 83 03 (CommCtrl off)", func(ctx context.Context) error {
		return o.client.SendRawFunctional(ctx, []byte{0x28, 0x83, 0x03})
	}); err != nil {
		return err
	}

	if err := run("change_session(programming)", func(ctx context.Context) error {
		return o.client.DiagnosticSessionControl(ctx, uds.SessionProgrammingExtended)
	}); err != nil {
		return err
	}

	if err := run("routine_control check-bypass", func(ctx context.Context) error {
		_, err := o.client.RoutineControl(ctx, routineControlTypeGo, routineCheckBypass, []byte{0x00})
		return err
	}); err != nil {
		return err
	}

	if err := run("routine_control bypass-confirm", func(ctx context.Context) error {
		_, err := o.client.RoutineControl(ctx, routineControlTypeGo, routineBypassConfirm, []byte{0x01})
		return err
	}); err != nil {
		return err
	}

	if err := run("security_access", func(ctx context.Context) error {
		return o.securityAccess(ctx, job)
	}); err != nil {
		return err
	}

	if err := run("read F0F0", func(ctx context.Context) error {
		_, err := o.client.ReadDataByIdentifier(ctx, 0xF0F0)
		return err
	}); err != nil {
		return err
	}

	if err := run("write F184", func(ctx context.Context) error {
		return o.client.WriteDataByIdentifier(ctx, 0xF184, writeVIN)
	}); err != nil {
		return err
	}

	var sblBlockSize int
	if err := run("request_download SBL", func(ctx context.Context) error {
		var err error
		sblBlockSize, err = o.requestDownload(ctx, &job.SBL)
		return err
	}); err != nil {
		return err
	}

	if err := run("transfer_data SBL", func(ctx context.Context) error {
		return o.transferData(ctx, &job.SBL, sblBlockSize)
	}); err != nil {
		return err
	}

	if err := run("transfer_exit SBL", func(ctx context.Context) error {
		return o.client.RequestTransferExit(ctx)
	}); err != nil {
		return err
	}

	if err := run("post SBL signature", func(ctx context.Context) error {
		return o.postSignature(ctx, job.SBL.Signature)
	}); err != nil {
		return err
	}

	if job.CalIsMust {
		for _, cal := range []struct {
			name  string
			image *Image
		}{{"CAL1", job.CAL1}, {"CAL2", job.CAL2}} {
			if cal.image == nil {
				return errImageMissing(fmt.Sprintf("%s required by cal_is_must but not provided", cal.name))
			}
			if err := run("erase "+cal.name+" region", func(ctx context.Context) error {
				return o.eraseMemory(ctx)
			}); err != nil {
				return err
			}
			var calBlockSize int
			if err := run("request_download "+cal.name, func(ctx context.Context) error {
				var err error
				calBlockSize, err = o.requestDownload(ctx, cal.image)
				return err
			}); err != nil {
				return err
			}
			if err := run("transfer_data "+cal.name, func(ctx context.Context) error {
				return o.transferData(ctx, cal.image, calBlockSize)
			}); err != nil {
				return err
			}
			if err := run("transfer_exit "+cal.name, func(ctx context.Context) error {
				return o.client.RequestTransferExit(ctx)
			}); err != nil {
				return err
			}
			if err := run("post "+cal.name+" signature", func(ctx context.Context) error {
				return o.postSignature(ctx, cal.image.Signature)
			}); err != nil {
				return err
			}
		}
	}

	if err := run("erase APP region", func(ctx context.Context) error {
		return o.eraseMemory(ctx)
	}); err != nil {
		return err
	}

	var appBlockSize int
	if err := run("request_download APP", func(ctx context.Context) error {
		var err error
		appBlockSize, err = o.requestDownload(ctx, &job.APP)
		return err
	}); err != nil {
		return err
	}

	if err := run("transfer_data APP", func(ctx context.Context) error {
		return o.transferData(ctx, &job.APP, appBlockSize)
	}); err != nil {
		return err
	}

	if err := run("transfer_exit APP", func(ctx context.Context) error {
		return o.client.RequestTransferExit(ctx)
	}); err != nil {
		return err
	}

	if err := run("post APP signature", func(ctx context.Context) error {
		return o.postSignature(ctx, job.APP.Signature)
	}); err != nil {
		return err
	}

	if err := run("routine_control finalize", func(ctx context.Context) error {
		_, err := o.client.RoutineControl(ctx, routineControlTypeGo, routineFinalize, nil)
		return err
	}); err != nil {
		return err
	}

	if err := run("functional raw 28 80 03 (CommCtrl on)", func(ctx context.Context) error {
		return o.client.SendRawFunctional(ctx, []byte{0x28, 0x80, 0x03})
	}); err != nil {
		return err
	}

	if err := run("ecu_reset", func(ctx context.Context) error {
		if err := o.client.EcuReset(ctx, 0x01); err != nil {
			return err
		}
		select {
		case <-time.After(3 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}); err != nil {
		return err
	}

	if err := run("change_session(extended)", func(ctx context.Context) error {
		return o.client.DiagnosticSessionControl(ctx, uds.SessionExtended)
	}); err != nil {
		return err
	}

	if err := run("clear_dtc", func(ctx context.Context) error {
		return o.client.ClearDTC(ctx, 0xFFFFFF)
	}); err != nil {
		return err
	}

	if err := run("functional raw 85 81 (ControlDTC on)", func(ctx context.Context) error {
		return o.client.SendRawFunctional(ctx, []byte{0x85, 0x81})
	}); err != nil {
		return err
	}

	if err := run("physical raw 10 81", func(ctx context.Context) error {
		return o.client.SendRawPhysical(ctx, []byte{0x10, 0x81})
	}); err != nil {
		return err
	}

	return nil
}

func (o *Orchestrator) securityAccess(ctx context.Context, job *Job) error {
	seed, err := o.client.RequestSeed(ctx, job.SecurityLevel)
	if err != nil {
		return err
	}
	key, err := seedkey.ComputeKey(job.Zone, job.SecurityLevel, seed)
	if err != nil {
		return err
	}
	return o.client.SendKey(ctx, job.SecurityLevel, key)
}

// requestDownload negotiates the transfer window for img and returns the
// max_block_size the orchestrator's transfer_data step must respect.
func (o *Orchestrator) requestDownload(ctx context.Context, img *Image) (int, error) {
	maxBlockSize, err := o.client.RequestDownload(ctx, img.StartAddr, uint32(len(img.Data)))
	if err != nil {
		return 0, err
	}
	if maxBlockSize <= 0 {
		return 0, fmt.Errorf("flash: non-positive max block size %d", maxBlockSize)
	}
	return maxBlockSize, nil
}

// transferData streams img in maxBlockSize-bounded blocks (sequence numbers
// 1..0xFF wrapping to 0x00).
func (o *Orchestrator) transferData(ctx context.Context, img *Image, maxBlockSize int) error {
	if len(img.Data) == 0 {
		return o.client.TransferData(ctx, nil)
	}
	for offset := 0; offset < len(img.Data); offset += maxBlockSize {
		end := offset + maxBlockSize
		if end > len(img.Data) {
			end = len(img.Data)
		}
		if err := o.client.TransferData(ctx, img.Data[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) postSignature(ctx context.Context, signature []byte) error {
	_, err := o.client.RoutineControl(ctx, routineControlTypeGo, routineSignature, signature)
	return err
}

// eraseMemory issues the APP/CAL erase routine and validates the response
// payload: 01 FF 00 00 is success, 01 FF 00 01 is an explicit reject, any
// other payload is malformed. The client's own P2*-retry loop already
// absorbs the 0x78 "pending" wait this routine is known to trigger.
func (o *Orchestrator) eraseMemory(ctx context.Context) error {
	resp, err := o.client.RoutineControl(ctx, routineControlTypeGo, routineEraseMemory, []byte{0x01, 0x02})
	if err != nil {
		return err
	}
	prefix := []byte{eraseSuccessPrefix0, eraseSuccessPrefix1, eraseSuccessPrefix2}
	if len(resp) < 4 || !bytes.Equal(resp[:3], prefix) {
		return fmt.Errorf("flash: unexpected erase response %x", resp)
	}
	if resp[3] != eraseResultSuccessByte {
		return fmt.Errorf("flash: erase rejected (result byte 0x%02X)", resp[3])
	}
	return nil
}
