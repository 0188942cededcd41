// Package job wires one CAN driver to a UDS tester pair and drives either an
// identification scan or a full reflash job against it.
package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"husk/drivers"
	"husk/flash"
	"husk/isotp"
	"husk/uds"
	"husk/zone"
)

// keepAliveInterval matches the 2s cadence this ECU family's bootloader
// needs to stay in an unlocked session between requests.
const keepAliveInterval = 2 * time.Second

// Logger is the subset of logging.Logger this package depends on, kept
// narrow so job doesn't have to import the GUI-coupled logging package.
type Logger interface {
	WriteToLog(message string)
}

// Controller owns one driver's link, the UDS client built on top of it, and
// a background tester-present loop that keeps the ECU's session alive
// between operations.
type Controller struct {
	link   *drivers.Link
	client *uds.Client

	log Logger

	isFlashing int32

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController opens a link over driver, builds the physical/functional
// ISO-TP endpoint pair addressed per z, and starts the keep-alive loop.
func NewController(ctx context.Context, driver drivers.Driver, z zone.Zone, table *zone.Table, canFD bool, log Logger) (*Controller, error) {
	ids, err := table.IDsFor(z)
	if err != nil {
		return nil, err
	}

	ctrlCtx, cancel := context.WithCancel(ctx)

	linkLog := logrus.NewEntry(logrus.New())
	link := drivers.NewLink(ctrlCtx, driver, linkLog)

	params := isotp.DefaultClassicParams()
	if canFD {
		params = isotp.DefaultFDParams()
	}

	physAddr := isotp.NewPhysicalAddress(ids.TxID, ids.RxID)
	fnAddr := isotp.NewFunctionalAddress(zone.FunctionalIDs.TxID, zone.FunctionalIDs.RxID)

	physEP := isotp.NewEndpoint(ctrlCtx, link, physAddr, params)
	fnEP := isotp.NewEndpoint(ctrlCtx, link, fnAddr, params)

	client := uds.NewClient(physEP, fnEP, uds.NewCodecTable())

	c := &Controller{link: link, client: client, log: log, cancel: cancel}
	c.wg.Add(1)
	go c.keepAliveLoop(ctrlCtx)
	return c, nil
}

// IsFlashing reports whether a flash job currently owns this controller.
func (c *Controller) IsFlashing() bool {
	return atomic.LoadInt32(&c.isFlashing) == 1
}

// RunFlash drives j to completion, rejecting a second concurrent call with
// ErrAlreadyFlashing. j.Trace, if trace is non-nil, is set to trace before
// the run starts.
func (c *Controller) RunFlash(ctx context.Context, j *flash.Job, trace func(line string)) error {
	if !atomic.CompareAndSwapInt32(&c.isFlashing, 0, 1) {
		return ErrAlreadyFlashing
	}
	defer atomic.StoreInt32(&c.isFlashing, 0)

	if trace != nil {
		j.Trace = trace
	}

	orch := flash.NewOrchestrator(c.client)
	if err := orch.Run(ctx, j); err != nil {
		c.logf("flash failed: %v", err)
		return err
	}
	c.logf("flash completed successfully")
	return nil
}

// Identify runs the compatibility scan and returns the ECU's decoded
// identity, failing as soon as hardware ID, software ID or model doesn't
// match a known-compatible value.
func (c *Controller) Identify(ctx context.Context) (*Identity, error) {
	return identify(ctx, c.client)
}

// Close stops the keep-alive loop and releases the underlying link/driver.
func (c *Controller) Close() error {
	c.cancel()
	c.wg.Wait()
	return c.link.Close()
}

func (c *Controller) keepAliveLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.IsFlashing() {
				continue
			}
			if err := c.client.TesterPresent(ctx, true); err != nil {
				c.logf("tester present: %v", err)
			}
		}
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.log != nil {
		c.log.WriteToLog(fmt.Sprintf(format, args...))
	}
}
