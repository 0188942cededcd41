package flash

import "husk/zone"

// Job describes one complete reflash run: which zone, which images, and
// whether calibration segments are mandatory.
type Job struct {
	Zone zone.Zone

	SBL Image
	APP Image

	CAL1, CAL2 *Image
	CalIsMust  bool

	// SecurityLevel is the SecurityAccess level requested at step 9
	// (0x11, unlocking to 0x12).
	SecurityLevel byte

	// Trace receives one line per completed step, in order.
	Trace func(line string)
}

func (j *Job) trace(line string) {
	if j.Trace != nil {
		j.Trace(line)
	}
}
