package gal

import "testing"

func lit(col int, neg bool) Literal { return Literal{Column: col, Neg: neg} }

func onePinTerm(line, col int, neg bool) *Term {
	return &Term{Line: line, Rows: [][]Literal{{lit(col, neg)}}}
}

func TestFuseMatrixSizePerChip(t *testing.T) {
	cases := []struct {
		chip       Chip
		rows, cols int
	}{
		{ChipGAL16V8, 64, 32},
		{ChipGAL20V8, 64, 40},
		{ChipGAL22V10, 132, 44},
		{ChipGAL20RA10, 80, 44},
	}
	for _, c := range cases {
		bp := NewBlueprint(c.chip)
		g, err := Build(bp)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", c.chip, err)
		}
		if len(g.Fuses) != c.rows*c.cols {
			t.Fatalf("%v: fuse count = %d, want %d", c.chip, len(g.Fuses), c.rows*c.cols)
		}
	}
}

func TestXorReversedIndexing(t *testing.T) {
	bp := NewBlueprint(ChipGAL16V8)
	bp.OLMC[2].Mode = PinModeCombinatorial
	bp.OLMC[2].Active = ActiveHigh
	bp.OLMC[2].Output = onePinTerm(10, 0, false)

	g, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := len(bp.OLMC)
	for i := range bp.OLMC {
		want := i == 2
		if g.Xor[n-1-i] != want {
			t.Errorf("Xor[%d] = %v, want %v", n-1-i, g.Xor[n-1-i], want)
		}
	}
}

func TestS1ClearWhenUndrivenNoFeedback(t *testing.T) {
	bp := NewBlueprint(ChipGAL22V10)
	g, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := len(bp.OLMC)
	for i := range bp.OLMC {
		if g.S1[n-1-i] {
			t.Errorf("S1[%d] set for undriven, non-feedback OLMC %d", n-1-i, i)
		}
	}
}

func TestSignaturePackingRoundTrip(t *testing.T) {
	bp := NewBlueprint(ChipGAL16V8)
	bp.Sig = []byte{0xAB, 0xCD, 0x01}
	g, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range bp.Sig {
		var got byte
		for j := 0; j < 8; j++ {
			if g.Sig[i*8+j] {
				got |= 0x80 >> uint(j)
			}
		}
		if got != want {
			t.Errorf("sig byte %d = %#x, want %#x", i, got, want)
		}
	}
	for i := len(bp.Sig) * 8; i < 64; i++ {
		if g.Sig[i] {
			t.Errorf("sig bit %d set, want padding zero", i)
		}
	}
}

func TestModeInferenceV8Priority(t *testing.T) {
	// Registered beats tristate.
	bp := NewBlueprint(ChipGAL16V8)
	bp.OLMC[0].Mode = PinModeTristate
	bp.OLMC[0].Output = onePinTerm(1, 0, false)
	bp.OLMC[1].Mode = PinModeRegistered
	bp.OLMC[1].Output = onePinTerm(2, 0, false)
	if got := getModeV8(bp); got != Mode3 {
		t.Errorf("mode = %v, want Mode3", got)
	}

	// Tristate beats plain combinatorial.
	bp2 := NewBlueprint(ChipGAL16V8)
	bp2.OLMC[0].Mode = PinModeTristate
	bp2.OLMC[0].Output = onePinTerm(1, 0, false)
	bp2.OLMC[1].Mode = PinModeCombinatorial
	bp2.OLMC[1].Output = onePinTerm(2, 0, false)
	if got := getModeV8(bp2); got != Mode2 {
		t.Errorf("mode = %v, want Mode2", got)
	}

	// OLMC 3 as bare feedback input forces Mode2.
	bp3 := NewBlueprint(ChipGAL16V8)
	bp3.OLMC[3].Feedback = true
	if got := getModeV8(bp3); got != Mode2 {
		t.Errorf("mode = %v, want Mode2", got)
	}

	// Otherwise Mode1.
	bp4 := NewBlueprint(ChipGAL16V8)
	bp4.OLMC[0].Mode = PinModeCombinatorial
	bp4.OLMC[0].Output = onePinTerm(1, 0, false)
	if got := getModeV8(bp4); got != Mode1 {
		t.Errorf("mode = %v, want Mode1", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	bp := NewBlueprint(ChipGAL22V10)
	bp.OLMC[0].Mode = PinModeCombinatorial
	bp.OLMC[0].Active = ActiveHigh
	bp.OLMC[0].Output = onePinTerm(5, 1, false)

	g1, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g2, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g1.Fuses) != len(g2.Fuses) {
		t.Fatalf("fuse length differs between runs")
	}
	for i := range g1.Fuses {
		if g1.Fuses[i] != g2.Fuses[i] {
			t.Fatalf("fuse[%d] differs between identical builds", i)
		}
	}
}

func TestOversizedTermFails(t *testing.T) {
	bp := NewBlueprint(ChipGAL16V8)
	rows := make([][]Literal, 9)
	for i := range rows {
		rows[i] = []Literal{lit(0, false)}
	}
	bp.OLMC[0].Mode = PinModeCombinatorial
	bp.OLMC[0].Output = &Term{Line: 42, Rows: rows}

	_, err := Build(bp)
	if err == nil {
		t.Fatal("expected TooManyProductTerms, got nil")
	}
	be, ok := err.(*BuildError)
	if !ok || be.Code != ErrTooManyProductTerms || be.Line != 42 {
		t.Fatalf("got %v, want TooManyProductTerms at line 42", err)
	}
}

func TestFalseTermLeavesFirstRowIntact(t *testing.T) {
	bp := NewBlueprint(ChipGAL16V8)
	g, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := g.Chip.BoundsForOLMC(0)
	rowLen := g.Chip.NumCols()
	firstRowStart := bounds.StartRow * rowLen
	for i := 0; i < rowLen; i++ {
		if !g.Fuses[firstRowStart+i] {
			t.Fatalf("fuse[%d] in undriven OLMC's first row is programmed, want intact", firstRowStart+i)
		}
	}
}

func TestGAL20RA10RequiresClockOnRegistered(t *testing.T) {
	bp := NewBlueprint(ChipGAL20RA10)
	bp.OLMC[0].Mode = PinModeRegistered
	bp.OLMC[0].Output = onePinTerm(7, 0, false)

	_, err := Build(bp)
	be, ok := err.(*BuildError)
	if !ok || be.Code != ErrNoCLK {
		t.Fatalf("got %v, want NoCLK", err)
	}
}

func TestDisallowedCLKOnNon20RA10(t *testing.T) {
	bp := NewBlueprint(ChipGAL22V10)
	bp.OLMC[0].Clock = onePinTerm(3, 0, false)

	_, err := Build(bp)
	be, ok := err.(*BuildError)
	if !ok || be.Code != ErrDisallowedCLK {
		t.Fatalf("got %v, want DisallowedCLK", err)
	}
}

func TestAbsentAuxTermDisablesEntireRange(t *testing.T) {
	bp := NewBlueprint(ChipGAL22V10)
	g, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lastRow := g.Chip.NumRows() - 1
	rowLen := g.Chip.NumCols()
	start := lastRow * rowLen
	for i := start; i < start+rowLen; i++ {
		if g.Fuses[i] {
			t.Fatalf("fuse[%d] in absent-SP row is intact, want disabled", i)
		}
	}
}

func TestUndrivenOLMCFalseTermIgnoresRowOffsetInNonMode1(t *testing.T) {
	bp := NewBlueprint(ChipGAL16V8)
	// Drive another OLMC into tristate so the chip enters Mode2, where a
	// driven OLMC's main term starts one row down. An undriven OLMC's
	// false term still starts at its region's first row, so the row after
	// it is disabled.
	bp.OLMC[0].Mode = PinModeTristate
	bp.OLMC[0].Output = onePinTerm(1, 0, false)

	g, err := Build(bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := g.Chip.BoundsForOLMC(1)
	rowLen := g.Chip.NumCols()
	secondRowStart := (bounds.StartRow + 1) * rowLen
	for i := 0; i < rowLen; i++ {
		if g.Fuses[secondRowStart+i] {
			t.Fatalf("fuse[%d] in undriven OLMC's second row is intact, want disabled", secondRowStart+i)
		}
	}
}
