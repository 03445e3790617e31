package gal

// Mode is the GAL16V8/GAL20V8 operating mode.
type Mode int

const (
	Mode1 Mode = iota // simple:     SYN=1, AC0=0
	Mode2             // complex:    SYN=1, AC0=1
	Mode3             // registered: SYN=0, AC0=1
)

// getModeV8 infers the V8-family operating mode from OLMC roles, by a
// deterministic three-level priority. Mode 1 maximizes usable product
// terms, so it is chosen whenever no OLMC forces Mode 3 or Mode 2.
func getModeV8(bp Blueprint) Mode {
	for _, o := range bp.OLMC {
		if o.Mode == PinModeRegistered {
			return Mode3
		}
	}
	for _, o := range bp.OLMC {
		if o.Mode == PinModeTristate {
			return Mode2
		}
	}
	for i, o := range bp.OLMC {
		// OLMCs 3 and 4 cannot be used as pure inputs in Mode 1.
		if (i == 3 || i == 4) && o.Feedback && o.Output == nil {
			return Mode2
		}
		// No OLMC may be used as combinatorial feedback in Mode 1.
		if o.Feedback && o.Output != nil {
			return Mode2
		}
	}
	return Mode1
}
