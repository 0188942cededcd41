// Package zone maps an ECU zone tag to its physical/functional CAN IDs. The
// zone's seed-to-key keys are held by package seedkey, keyed by Zone.
package zone

import "fmt"

// Zone identifies one flashable ECU zone.
type Zone int

const (
	RZCU Zone = iota
	LZCU
)

func (z Zone) String() string {
	switch z {
	case RZCU:
		return "RZCU"
	case LZCU:
		return "LZCU"
	default:
		return "unknown"
	}
}

// ParseZone converts a --zone-type flag value ("RZCU"/"LZCU") to a Zone.
func ParseZone(s string) (Zone, error) {
	switch s {
	case "RZCU":
		return RZCU, nil
	case "LZCU":
		return LZCU, nil
	default:
		return 0, fmt.Errorf("zone: unknown zone type %q", s)
	}
}

// IDs is the physical tx/rx CAN ID pair for one zone.
type IDs struct {
	TxID uint16
	RxID uint16
}

// FunctionalIDs is the broadcast address all zones share.
var FunctionalIDs = IDs{TxID: 0x7DF, RxID: 0x7DE}

// Table maps a zone to its physical CAN IDs. Built-in entries can be
// overridden by loading a zone-config YAML file.
type Table struct {
	ids map[Zone]IDs
}

// DefaultTable returns the built-in RZCU/LZCU zone table observed in the
// field.
func DefaultTable() *Table {
	return &Table{
		ids: map[Zone]IDs{
			RZCU: {TxID: 0x736, RxID: 0x7B6},
			LZCU: {TxID: 0x734, RxID: 0x7B4},
		},
	}
}

// IDsFor returns the physical tx/rx IDs for z.
func (t *Table) IDsFor(z Zone) (IDs, error) {
	ids, ok := t.ids[z]
	if !ok {
		return IDs{}, fmt.Errorf("zone: no CAN IDs configured for %s", z)
	}
	return ids, nil
}

// Set installs or overrides the IDs for z, used by the YAML override loader.
func (t *Table) Set(z Zone, ids IDs) {
	t.ids[z] = ids
}
