package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"husk/zone"
)

func writeHexAndSig(t *testing.T, dir, stem string) (hexPath string) {
	t.Helper()
	hexPath = filepath.Join(dir, stem+".hex")
	require.NoError(t, os.WriteFile(hexPath, []byte(":0400000001020304F2\n:00000001FF\n"), 0o644))

	var b strings.Builder
	for i := 0; i < 512; i++ {
		b.WriteString("AB")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, stem+".rsa"), []byte(b.String()), 0o644))
	return hexPath
}

func TestParseArgsMinimal(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--zone-type", "RZCU",
		"--sbl-file", "sbl.hex",
		"--app-file", "app.hex",
	})
	require.NoError(t, err)
	require.Equal(t, zone.RZCU, cfg.Zone)
	require.Equal(t, "CANalyzer", cfg.AppName)
	require.Equal(t, 1, cfg.Channel)
	require.Equal(t, DriverArduinoSLCAN, cfg.Driver)
	require.False(t, cfg.AllowUnsigned)
}

func TestParseArgsMissingZoneType(t *testing.T) {
	_, err := ParseArgs([]string{"--sbl-file", "sbl.hex", "--app-file", "app.hex"})
	require.Error(t, err)
}

func TestParseArgsUnknownZoneType(t *testing.T) {
	_, err := ParseArgs([]string{"--zone-type", "XYZ", "--sbl-file", "a", "--app-file", "b"})
	require.Error(t, err)
}

func TestParseArgsMissingSBLFile(t *testing.T) {
	_, err := ParseArgs([]string{"--zone-type", "RZCU", "--app-file", "app.hex"})
	require.Error(t, err)
}

func TestParseArgsCalIsMustRequiresCalFiles(t *testing.T) {
	_, err := ParseArgs([]string{
		"--zone-type", "LZCU",
		"--sbl-file", "sbl.hex",
		"--app-file", "app.hex",
		"--cal-is-must",
	})
	require.Error(t, err)

	cfg, err := ParseArgs([]string{
		"--zone-type", "LZCU",
		"--sbl-file", "sbl.hex",
		"--app-file", "app.hex",
		"--cal-is-must",
		"--cal1-file", "cal1.hex",
		"--cal2-file", "cal2.hex",
	})
	require.NoError(t, err)
	require.True(t, cfg.CalIsMust)
}

func TestParseArgsUnknownDriverRejected(t *testing.T) {
	_, err := ParseArgs([]string{
		"--zone-type", "RZCU",
		"--sbl-file", "sbl.hex",
		"--app-file", "app.hex",
		"--driver", "vector",
	})
	require.Error(t, err)
}

func TestBuildJobLoadsImagesAndCals(t *testing.T) {
	dir := t.TempDir()
	sblPath := writeHexAndSig(t, dir, "sbl")
	appPath := writeHexAndSig(t, dir, "app")
	cal1Path := writeHexAndSig(t, dir, "cal1")
	cal2Path := writeHexAndSig(t, dir, "cal2")

	cfg, err := ParseArgs([]string{
		"--zone-type", "RZCU",
		"--sbl-file", sblPath,
		"--app-file", appPath,
		"--cal1-file", cal1Path,
		"--cal2-file", cal2Path,
		"--cal-is-must",
	})
	require.NoError(t, err)

	job, err := cfg.BuildJob()
	require.NoError(t, err)
	require.Equal(t, zone.RZCU, job.Zone)
	require.True(t, job.CalIsMust)
	require.NotNil(t, job.CAL1)
	require.NotNil(t, job.CAL2)
	require.Len(t, job.SBL.Signature, 512)
	require.Len(t, job.APP.Signature, 512)
	require.EqualValues(t, securityLevel, job.SecurityLevel)
}

func TestBuildJobMissingSignatureFailsWithoutAllowUnsigned(t *testing.T) {
	dir := t.TempDir()
	hexPath := filepath.Join(dir, "sbl.hex")
	require.NoError(t, os.WriteFile(hexPath, []byte(":0400000001020304F2\n:00000001FF\n"), 0o644))
	appPath := writeHexAndSig(t, dir, "app")

	cfg, err := ParseArgs([]string{
		"--zone-type", "RZCU",
		"--sbl-file", hexPath,
		"--app-file", appPath,
	})
	require.NoError(t, err)

	_, err = cfg.BuildJob()
	require.Error(t, err)
}

func TestParseArgsVirtualDriverAndAllowUnsigned(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--zone-type", "RZCU",
		"--sbl-file", "sbl.hex",
		"--app-file", "app.hex",
		"--driver", "virtual",
		"--allow-unsigned",
	})
	require.NoError(t, err)
	require.Equal(t, DriverVirtual, cfg.Driver)
	require.True(t, cfg.AllowUnsigned)
}
