package gal

// GAL is the populated fuse map produced by Build: the logic array plus
// every configuration bit plane the target chip carries.
type GAL struct {
	Chip Chip

	Fuses []bool
	Xor   []bool
	Sig   []bool
	AC1   []bool // V8 only
	S1    []bool // GAL22V10 only
	PT    []bool // V8 only
	Syn   bool   // V8 only
	AC0   bool   // V8 only
}

// NewGAL allocates a zeroed (all-fuses-intact) GAL sized for chip.
func NewGAL(chip Chip) *GAL {
	g := &GAL{
		Chip:  chip,
		Fuses: make([]bool, chip.NumRows()*chip.NumCols()),
		Xor:   make([]bool, chip.NumOLMCs()),
		Sig:   make([]bool, 64),
	}
	if chip.HasModeSelector() {
		g.AC1 = make([]bool, chip.NumOLMCs())
		g.PT = make([]bool, 64)
	}
	if chip == ChipGAL22V10 {
		g.S1 = make([]bool, chip.NumOLMCs())
	}
	for i := range g.Fuses {
		g.Fuses[i] = true
	}
	return g
}

func (g *GAL) SetMode1() { g.Syn, g.AC0 = true, false }  // simple
func (g *GAL) SetMode2() { g.Syn, g.AC0 = true, true }   // complex / tristate
func (g *GAL) SetMode3() { g.Syn, g.AC0 = false, true }  // registered

// AddTerm writes a sum-of-products term into the fuse matrix at bounds.
// A term with more rows than the bounds admit fails with
// TooManyProductTerms. Rows left over after the term's own rows are
// disabled (programmed to 0); if the term has zero rows (FalseTerm),
// the first writable row is left intact instead, representing an
// always-false sum.
func (g *GAL) AddTerm(term Term, bounds Bounds) error {
	writable := bounds.MaxRows - bounds.RowOffset
	if len(term.Rows) > writable {
		return &BuildError{Code: ErrTooManyProductTerms, Line: term.Line, Max: writable}
	}

	b := bounds
	for _, row := range term.Rows {
		for _, lit := range row {
			g.setAnd(b.StartRow+b.RowOffset, lit.Column, lit.Neg)
		}
		b.RowOffset++
	}
	g.disableRows(b, len(term.Rows) == 0)
	return nil
}

// AddTermOpt writes term into bounds if present. An absent optional
// term (tristate-enable, clock, async reset/preset, AR, SP) disables
// every row in bounds, not just the overflow past a zero-row term: "no
// equation" means this function is never asserted. This differs from
// an absent main output, which uses FalseTerm and leaves the first
// writable row intact; callers handle that case themselves.
func (g *GAL) AddTermOpt(term *Term, bounds Bounds) error {
	if term == nil {
		g.disableRows(bounds, false)
		return nil
	}
	return g.AddTerm(*term, bounds)
}

func (g *GAL) disableRows(b Bounds, skipFirst bool) {
	rowLen := g.Chip.NumCols()
	start := b.StartRow + b.RowOffset
	if skipFirst {
		start++
	}
	startIdx := start * rowLen
	end := (b.StartRow + b.MaxRows) * rowLen
	for i := startIdx; i < end && i >= 0; i++ {
		g.Fuses[i] = false
	}
}

func (g *GAL) setAnd(row int, col int, neg bool) {
	rowLen := g.Chip.NumCols()
	off := 0
	if neg {
		off = 1
	}
	idx := row*rowLen + col + off
	if idx < 0 || idx >= len(g.Fuses) {
		return
	}
	g.Fuses[idx] = false
}
