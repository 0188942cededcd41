// Package cli parses the command-line configuration for a single reflash
// run: which zone, which firmware images, and which driver backs the link.
package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"husk/flash"
	"husk/zone"
)

// Config is the parsed, validated result of one command line.
type Config struct {
	AppName string
	Channel int

	ZoneType string
	Zone     zone.Zone

	SBLFile  string
	AppFile  string
	Cal1File string
	Cal2File string

	CalIsMust bool

	// Driver selects the concrete drivers.Driver backing the link:
	// "arduino-slcan" (default, real hardware) or "virtual" (in-memory,
	// for bench-less testing).
	Driver string

	// AllowUnsigned lets a flash proceed against firmware with no .rsa
	// sidecar, synthesizing a placeholder signature instead of failing.
	AllowUnsigned bool

	ZoneConfigPath string
}

const (
	DriverArduinoSLCAN = "arduino-slcan"
	DriverVirtual      = "virtual"
)

// ParseArgs parses args (normally os.Args[1:]) into a validated Config.
func ParseArgs(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("husk", pflag.ContinueOnError)

	appName := fs.String("app-name", "CANalyzer", "display name for this tool instance")
	channel := fs.Int("channel", 1, "driver-specific channel index")
	zoneType := fs.String("zone-type", "", "ECU zone to flash (RZCU|LZCU)")
	sblFile := fs.String("sbl-file", "", "path to the secondary bootloader Intel HEX image")
	appFile := fs.String("app-file", "", "path to the application Intel HEX image")
	cal1File := fs.String("cal1-file", "", "path to the CAL1 Intel HEX image")
	cal2File := fs.String("cal2-file", "", "path to the CAL2 Intel HEX image")
	calIsMust := fs.Bool("cal-is-must", false, "fail the job if CAL1/CAL2 are not provided")
	driver := fs.String("driver", DriverArduinoSLCAN, "link driver (arduino-slcan|virtual)")
	allowUnsigned := fs.Bool("allow-unsigned", false, "synthesize a placeholder signature when a .rsa sidecar is missing")
	zoneConfigPath := fs.String("zone-config", "", "optional YAML file overriding the built-in zone ID table")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		AppName:        *appName,
		Channel:        *channel,
		ZoneType:       *zoneType,
		SBLFile:        *sblFile,
		AppFile:        *appFile,
		Cal1File:       *cal1File,
		Cal2File:       *cal2File,
		CalIsMust:      *calIsMust,
		Driver:         *driver,
		AllowUnsigned:  *allowUnsigned,
		ZoneConfigPath: *zoneConfigPath,
	}
	return cfg, cfg.validate()
}

// securityLevel is the SecurityAccess level requested at orchestrator step 9
// (0x11, unlocking to 0x12) for every zone this core targets.
const securityLevel = 0x11

// BuildJob loads every firmware image named by c into a flash.Job ready to
// run. Each image's .rsa sidecar is derived from its hex path via
// flash.SignaturePathFor.
func (c *Config) BuildJob() (*flash.Job, error) {
	sbl, err := flash.LoadImage(c.SBLFile, flash.SignaturePathFor(c.SBLFile), c.AllowUnsigned)
	if err != nil {
		return nil, fmt.Errorf("cli: loading SBL: %w", err)
	}
	app, err := flash.LoadImage(c.AppFile, flash.SignaturePathFor(c.AppFile), c.AllowUnsigned)
	if err != nil {
		return nil, fmt.Errorf("cli: loading APP: %w", err)
	}

	job := &flash.Job{
		Zone:          c.Zone,
		SBL:           *sbl,
		APP:           *app,
		CalIsMust:     c.CalIsMust,
		SecurityLevel: securityLevel,
	}

	if c.Cal1File != "" {
		cal1, err := flash.LoadImage(c.Cal1File, flash.SignaturePathFor(c.Cal1File), c.AllowUnsigned)
		if err != nil {
			return nil, fmt.Errorf("cli: loading CAL1: %w", err)
		}
		job.CAL1 = cal1
	}
	if c.Cal2File != "" {
		cal2, err := flash.LoadImage(c.Cal2File, flash.SignaturePathFor(c.Cal2File), c.AllowUnsigned)
		if err != nil {
			return nil, fmt.Errorf("cli: loading CAL2: %w", err)
		}
		job.CAL2 = cal2
	}

	return job, nil
}

func (c *Config) validate() error {
	if c.ZoneType == "" {
		return fmt.Errorf("cli: --zone-type is required")
	}
	z, err := zone.ParseZone(c.ZoneType)
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	c.Zone = z

	if c.SBLFile == "" {
		return fmt.Errorf("cli: --sbl-file is required")
	}
	if c.AppFile == "" {
		return fmt.Errorf("cli: --app-file is required")
	}
	if c.CalIsMust && (c.Cal1File == "" || c.Cal2File == "") {
		return fmt.Errorf("cli: --cal1-file and --cal2-file are required when --cal-is-must is set")
	}
	switch c.Driver {
	case DriverArduinoSLCAN, DriverVirtual:
	default:
		return fmt.Errorf("cli: unknown --driver %q (want %q or %q)", c.Driver, DriverArduinoSLCAN, DriverVirtual)
	}
	return nil
}
