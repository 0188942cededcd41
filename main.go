package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"husk/cli"
	"husk/drivers"
	"husk/gui"
	"husk/job"
	"husk/logging"
	"husk/zone"
)

func main() {
	os.Exit(run())
}

// run parses the command line, wires a driver/controller/GUI stack and
// drives one reflash job, returning the process exit code (0 success, 1 any
// failure or interrupt) rather than calling os.Exit directly so deferred
// cleanup always runs.
func run() int {
	cfg, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	table := zone.DefaultTable()
	if cfg.ZoneConfigPath != "" {
		if err := zone.LoadOverrides(table, cfg.ZoneConfigPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	g := gui.NewGUI()
	l := logging.NewLogger(ctx, g)

	driver, err := openDriver(ctx, cfg)
	if err != nil {
		l.WriteToLog(fmt.Sprintf("error: opening driver: %s", err.Error()))
		return 1
	}

	ctrl, err := job.NewController(ctx, driver, cfg.Zone, table, driver.Capabilities().FD, l)
	if err != nil {
		l.WriteToLog(fmt.Sprintf("error: starting controller: %s", err.Error()))
		_ = driver.Close()
		return 1
	}

	var exitCode int32

	g.SetRunCallback(func() {
		j, err := cfg.BuildJob()
		if err != nil {
			l.WriteToLog(fmt.Sprintf("error: building job: %s", err.Error()))
			atomic.StoreInt32(&exitCode, 1)
			return
		}
		if err := ctrl.RunFlash(ctx, j, l.WriteToLog); err != nil {
			l.WriteToLog(fmt.Sprintf("error: flash failed: %s", err.Error()))
			atomic.StoreInt32(&exitCode, 1)
		}
	})

	go func() {
		<-signalChan
		l.WriteToLog("received shutdown signal, canceling context and cleaning up...")
		atomic.StoreInt32(&exitCode, 1)
		cancel()
	}()

	// Blocks until the window is closed.
	g.RunApp(ctx)

	if err := ctrl.Close(); err != nil {
		l.WriteToLog(fmt.Sprintf("error: closing controller: %s", err.Error()))
		return 1
	}
	return int(atomic.LoadInt32(&exitCode))
}

func openDriver(ctx context.Context, cfg *cli.Config) (drivers.Driver, error) {
	switch cfg.Driver {
	case cli.DriverVirtual:
		return drivers.NewVirtualDriver(true, nil), nil
	default:
		return drivers.OpenArduinoDriver(ctx)
	}
}
