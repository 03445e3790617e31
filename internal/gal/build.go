package gal

import "fmt"

// Build dispatches to the appropriate chip builder and returns the
// populated GAL. It performs no I/O and retains no state across calls;
// concurrent Build calls on independent Blueprints are safe.
func Build(bp Blueprint) (*GAL, error) {
	switch bp.Chip {
	case ChipGAL16V8, ChipGAL20V8:
		return buildGALxV8(bp)
	case ChipGAL22V10:
		return buildGAL22V10(bp)
	case ChipGAL20RA10:
		return buildGAL20RA10(bp)
	default:
		return nil, fmt.Errorf("unsupported chip: %v", bp.Chip)
	}
}

// checkNotGAL20RA10 rejects clock/ARST/APRST terms on any chip other
// than the GAL20RA10, which is the only variant with per-OLMC
// clock/reset rows.
func checkNotGAL20RA10(bp Blueprint) error {
	if bp.Chip == ChipGAL20RA10 {
		return nil
	}
	for _, o := range bp.OLMC {
		switch {
		case o.Clock != nil:
			return &BuildError{Code: ErrDisallowedCLK, Line: o.Clock.Line}
		case o.ARST != nil:
			return &BuildError{Code: ErrDisallowedARST, Line: o.ARST.Line}
		case o.APRST != nil:
			return &BuildError{Code: ErrDisallowedAPRST, Line: o.APRST.Line}
		}
	}
	return nil
}

// setSig packs up to 8 signature bytes MSB-first into the 64-bit sig
// field.
func setSig(g *GAL, sig []byte) {
	for i := 0; i < len(sig) && i < 8; i++ {
		c := sig[i]
		for j := 0; j < 8; j++ {
			g.Sig[i*8+j] = (c<<uint(j))&0x80 != 0
		}
	}
}

// setXors sets the reversed-index polarity bit for every driven,
// active-high OLMC.
func setXors(g *GAL, bp Blueprint) {
	n := len(bp.OLMC)
	for i, o := range bp.OLMC {
		if o.Output != nil && o.Active == ActiveHigh {
			g.Xor[n-1-i] = true
		}
	}
}

func setPTs(g *GAL) {
	for i := range g.PT {
		g.PT[i] = true
	}
}

// buildTristateFlags populates AC1 (V8) or S1 (GAL22V10) using the same
// reversed OLMC indexing as XOR. comIsTri governs whether a plain
// combinatorial output is itself realized as tristate.
func buildTristateFlags(flags []bool, bp Blueprint, comIsTri bool) {
	n := len(bp.OLMC)
	for i, o := range bp.OLMC {
		var set bool
		switch o.Mode {
		case PinModeNone:
			set = o.Feedback
		case PinModeTristate:
			set = true
		case PinModeCombinatorial:
			set = comIsTri
		case PinModeRegistered:
			set = false
		}
		if set {
			flags[n-1-i] = true
		}
	}
}

// tristateRowOffset computes the row_offset that reserves leading rows
// ahead of an OLMC's main equation for auxiliary terms.
func tristateRowOffset(chip Chip, mode Mode, olmcMode PinMode) int {
	switch chip {
	case ChipGAL16V8, ChipGAL20V8:
		if mode == Mode1 || olmcMode == PinModeRegistered {
			return 0
		}
		return 1
	case ChipGAL22V10:
		return 1
	case ChipGAL20RA10:
		return 4
	default:
		return 0
	}
}

func buildGALxV8(bp Blueprint) (*GAL, error) {
	if err := checkNotGAL20RA10(bp); err != nil {
		return nil, err
	}
	g := NewGAL(bp.Chip)
	setSig(g, bp.Sig)

	mode := getModeV8(bp)
	switch mode {
	case Mode1:
		g.SetMode1()
	case Mode2:
		g.SetMode2()
	case Mode3:
		g.SetMode3()
	}
	comIsTri := mode != Mode1

	for i, o := range bp.OLMC {
		base := g.Chip.BoundsForOLMC(i)
		offset := tristateRowOffset(bp.Chip, mode, o.Mode)

		if o.Output != nil {
			adjusted := base
			adjusted.RowOffset = offset
			if err := g.AddTerm(*o.Output, adjusted); err != nil {
				return nil, err
			}
		} else if err := g.AddTerm(FalseTerm(0), base); err != nil {
			return nil, err
		}

		if offset > 0 && o.Output != nil {
			oeBounds := Bounds{StartRow: base.StartRow, MaxRows: 1}
			if err := g.AddTermOpt(o.TriCon, oeBounds); err != nil {
				return nil, err
			}
		}
	}

	buildTristateFlags(g.AC1, bp, comIsTri)
	setXors(g, bp)
	setPTs(g)
	return g, nil
}

func buildGAL22V10(bp Blueprint) (*GAL, error) {
	if err := checkNotGAL20RA10(bp); err != nil {
		return nil, err
	}
	g := NewGAL(bp.Chip)
	setSig(g, bp.Sig)

	// Order-independent relative to term placement; built here to match
	// the reference implementation's step ordering.
	buildTristateFlags(g.S1, bp, true)

	for i, o := range bp.OLMC {
		base := g.Chip.BoundsForOLMC(i)

		if o.Output != nil {
			adjusted := base
			adjusted.RowOffset = 1
			if err := g.AddTerm(*o.Output, adjusted); err != nil {
				return nil, err
			}
		} else if err := g.AddTerm(FalseTerm(0), base); err != nil {
			return nil, err
		}

		oeBounds := Bounds{StartRow: base.StartRow, MaxRows: 1}
		if err := g.AddTermOpt(o.TriCon, oeBounds); err != nil {
			return nil, err
		}
	}

	if err := g.AddTermOpt(bp.AR, Bounds{StartRow: 0, MaxRows: 1}); err != nil {
		return nil, err
	}
	lastRow := g.Chip.NumRows() - 1
	if err := g.AddTermOpt(bp.SP, Bounds{StartRow: lastRow, MaxRows: 1}); err != nil {
		return nil, err
	}

	setXors(g, bp)
	return g, nil
}

func buildGAL20RA10(bp Blueprint) (*GAL, error) {
	g := NewGAL(bp.Chip)
	setSig(g, bp.Sig)

	for i, o := range bp.OLMC {
		base := g.Chip.BoundsForOLMC(i)

		if o.Output != nil {
			adjusted := base
			adjusted.RowOffset = 4
			if err := g.AddTerm(*o.Output, adjusted); err != nil {
				return nil, err
			}
		} else if err := g.AddTerm(FalseTerm(0), base); err != nil {
			return nil, err
		}

		triBounds := Bounds{StartRow: base.StartRow, MaxRows: 1}
		if err := g.AddTermOpt(o.TriCon, triBounds); err != nil {
			return nil, err
		}

		if o.Mode == PinModeRegistered {
			if o.Clock == nil {
				return nil, &BuildError{Code: ErrNoCLK, Line: o.Output.Line}
			}
			arstBounds := Bounds{StartRow: base.StartRow + 2, MaxRows: 1}
			if err := g.AddTermOpt(o.ARST, arstBounds); err != nil {
				return nil, err
			}
			aprstBounds := Bounds{StartRow: base.StartRow + 3, MaxRows: 1}
			if err := g.AddTermOpt(o.APRST, aprstBounds); err != nil {
				return nil, err
			}
		}

		if o.Output != nil {
			clockBounds := Bounds{StartRow: base.StartRow + 1, MaxRows: 1}
			if err := g.AddTermOpt(o.Clock, clockBounds); err != nil {
				return nil, err
			}
		}
	}

	setXors(g, bp)
	return g, nil
}
