package zone

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// configFile is the shape of an optional --zone-config override file. Each
// entry overrides one zone's physical tx/rx IDs.
type configFile struct {
	Zones []struct {
		Name string `yaml:"name"`
		TxID uint16 `yaml:"tx_id"`
		RxID uint16 `yaml:"rx_id"`
	} `yaml:"zones"`
}

// LoadOverrides reads a zone-config YAML file and applies its entries to t.
// Only names ParseZone accepts (RZCU, LZCU) are allowed, so entries override
// built-in zones; unknown zone names are rejected and no new zone is added.
func LoadOverrides(t *Table, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("zone: reading config %s: %w", path, err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("zone: parsing config %s: %w", path, err)
	}

	for _, entry := range cfg.Zones {
		z, err := ParseZone(entry.Name)
		if err != nil {
			return fmt.Errorf("zone: config %s: %w", path, err)
		}
		t.Set(z, IDs{TxID: entry.TxID, RxID: entry.RxID})
	}
	return nil
}
