package job

import (
	"context"
	"fmt"
	"slices"

	"husk/uds"
)

// Identity is the decoded response to an identification scan: hardware and
// software IDs, model, VIN and manufacturer, each read as a separate 0x1A
// request.
type Identity struct {
	HardwareID   string
	SoftwareID   string
	Model        string
	Manufacturer string
	VIN          string
}

// Compatible{HardwareIDs,SoftwareIDs,Models} are the known-good identifiers
// for the 2016-2020 KTM/Husqvarna 690 platform this core targets.
var (
	CompatibleHardwareIDs = []string{"613.41.031.300"}
	CompatibleSoftwareIDs = []string{"KM2A0EU17H0631"}
	CompatibleModels      = []string{"FE/FS 701"}
)

func identify(ctx context.Context, client *uds.Client) (*Identity, error) {
	hw, err := client.ReadIdentifier(ctx, uds.SubfunctionReadECUHardwareIdKTM16To20)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(CompatibleHardwareIDs, hw) {
		return nil, fmt.Errorf("job: incompatible hardware ID %q", hw)
	}

	sw, err := client.ReadIdentifier(ctx, uds.SubfunctionReadECUSoftwareIdKTM16To20)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(CompatibleSoftwareIDs, sw) {
		return nil, fmt.Errorf("job: incompatible software ID %q", sw)
	}

	model, err := client.ReadIdentifier(ctx, uds.SubfunctionReadModelKTM16To20)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(CompatibleModels, model) {
		return nil, fmt.Errorf("job: incompatible model %q", model)
	}

	vin, err := client.ReadIdentifier(ctx, uds.SubfunctionReadVINKTM16To20)
	if err != nil {
		return nil, err
	}

	manufacturer, err := client.ReadIdentifier(ctx, uds.SubfunctionReadManufacturerKTM16To20)
	if err != nil {
		return nil, err
	}

	return &Identity{
		HardwareID:   hw,
		SoftwareID:   sw,
		Model:        model,
		Manufacturer: manufacturer,
		VIN:          vin,
	}, nil
}
