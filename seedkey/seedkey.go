// Package seedkey computes UDS SecurityAccess keys from ECU-supplied seeds.
//
// Two families are implemented: the legacy bit-manipulation algorithms
// (ComputeLevel2Key, ComputeLevel4Key, ComputeBDUKey, GenerateK01Key) used by
// older ECU models with no zone concept, and the AES-CMAC family used by the
// RZCU/LZCU zones, reached through ComputeKey.
package seedkey

import "husk/zone"

// ComputeKey computes the security key for z at the given SecurityAccess
// level from a 16-byte seed, using the AES-CMAC profile bound to (z, level).
// Unknown (zone, level) combinations return an ErrUnknownProfile Error.
func ComputeKey(z zone.Zone, level byte, seed []byte) ([]byte, error) {
	return computeCMACKey(z, level, seed)
}
