package gal

import (
	"fmt"
	"strings"
)

// Chip identifies one of the four supported GAL variants.
type Chip int

const (
	ChipUnknown Chip = iota
	ChipGAL16V8
	ChipGAL20V8
	ChipGAL22V10
	ChipGAL20RA10
)

type chipData struct {
	name       string
	numPins    int
	numRows    int
	numCols    int
	minOLMCPin int
	maxOLMCPin int

	// olmcRowStart holds the absolute fuse-matrix row each OLMC's region
	// begins at, indexed by OLMC number. OLMC 0 sits at the highest row
	// and the index descends toward row 0 - the same reversed topology
	// that governs XOR/AC1/S1 bit placement.
	olmcRowStart []int

	// olmcRowCount is nil when every OLMC gets a uniform 8-row region
	// (16V8, 20V8, 20RA10); the 22V10's rows per OLMC vary.
	olmcRowCount []int
}

var (
	chip16v8 = chipData{
		name:         "GAL16V8",
		numPins:      20,
		numRows:      64,
		numCols:      32,
		minOLMCPin:   12,
		maxOLMCPin:   19,
		olmcRowStart: []int{56, 48, 40, 32, 24, 16, 8, 0},
	}
	// GAL20V8 shares the GAL16V8's 8-OLMC, 8-row-each logic array, but
	// sits in a 24-pin package with more dedicated input lines.
	chip20v8 = chipData{
		name:         "GAL20V8",
		numPins:      24,
		numRows:      64,
		numCols:      40,
		minOLMCPin:   15,
		maxOLMCPin:   22,
		olmcRowStart: []int{56, 48, 40, 32, 24, 16, 8, 0},
	}
	chip22v10 = chipData{
		name:         "GAL22V10",
		numPins:      24,
		numRows:      132,
		numCols:      44,
		minOLMCPin:   14,
		maxOLMCPin:   23,
		olmcRowStart: []int{122, 111, 98, 83, 66, 49, 34, 21, 10, 1},
		olmcRowCount: []int{9, 11, 13, 15, 17, 17, 15, 13, 11, 9},
	}
	// GAL20RA10 reuses the GAL22V10's pin-to-column geometry (no literal
	// datasheet table was available for it) but has its own uniform
	// 8-row-per-OLMC logic array and no AR/SP rows.
	chip20ra10 = chipData{
		name:         "GAL20RA10",
		numPins:      24,
		numRows:      80,
		numCols:      44,
		minOLMCPin:   14,
		maxOLMCPin:   23,
		olmcRowStart: []int{72, 64, 56, 48, 40, 32, 24, 16, 8, 0},
	}
)

func (c Chip) data() chipData {
	switch c {
	case ChipGAL16V8:
		return chip16v8
	case ChipGAL20V8:
		return chip20v8
	case ChipGAL22V10:
		return chip22v10
	case ChipGAL20RA10:
		return chip20ra10
	default:
		return chipData{}
	}
}

func (c Chip) Name() string    { return c.data().name }
func (c Chip) NumPins() int    { return c.data().numPins }
func (c Chip) NumRows() int    { return c.data().numRows }
func (c Chip) NumCols() int    { return c.data().numCols }
func (c Chip) MinOLMCPin() int { return c.data().minOLMCPin }
func (c Chip) MaxOLMCPin() int { return c.data().maxOLMCPin }
func (c Chip) NumOLMCs() int   { return c.data().maxOLMCPin - c.data().minOLMCPin + 1 }

// HasModeSelector reports whether the chip carries SYN/AC0 mode bits.
func (c Chip) HasModeSelector() bool { return c == ChipGAL16V8 || c == ChipGAL20V8 }

// HasARSP reports whether the chip carries global AR/SP rows.
func (c Chip) HasARSP() bool { return c == ChipGAL22V10 }

// HasClockRows reports whether each OLMC carries clock/ARST/APRST rows.
func (c Chip) HasClockRows() bool { return c == ChipGAL20RA10 }

func (c Chip) PinToOLMC(pin int) (int, bool) {
	d := c.data()
	if pin < d.minOLMCPin || pin > d.maxOLMCPin {
		return 0, false
	}
	return pin - d.minOLMCPin, true
}

func (c Chip) NumRowsForOLMC(olmc int) int {
	d := c.data()
	if d.olmcRowCount != nil {
		return d.olmcRowCount[olmc]
	}
	return 8
}

// BoundsForOLMC returns the unadjusted row range for an OLMC's region;
// callers apply RowOffset on top of this to reserve auxiliary rows.
func (c Chip) BoundsForOLMC(olmc int) Bounds {
	return Bounds{
		StartRow:  c.data().olmcRowStart[olmc],
		MaxRows:   c.NumRowsForOLMC(olmc),
		RowOffset: 0,
	}
}

// TotalSize returns the chip's full JEDEC fuse count: the logic array
// plus every configuration bit plane the chip carries.
func (c Chip) TotalSize() int {
	n := c.NumRows()*c.NumCols() + c.NumOLMCs() // logic array + XOR
	switch c {
	case ChipGAL16V8, ChipGAL20V8:
		n += 64 + c.NumOLMCs() + 64 + 1 + 1 // SIG + AC1 + PT + SYN + AC0
	case ChipGAL22V10:
		n += c.NumOLMCs() + 64 // S1 + SIG
	case ChipGAL20RA10:
		n += 64 // SIG only: no mode bits, no AC1/S1/PT plane
	}
	return n
}

// ParseChip recognizes WinCUPL-style device mnemonics (e.g. "g16v8as",
// "GAL22V10", "p20ra10") and maps them to a Chip.
func ParseChip(name string) (Chip, error) {
	n := normalizeDevice(name)
	switch {
	case strings.Contains(n, "16V8"):
		return ChipGAL16V8, nil
	case strings.Contains(n, "20RA10"):
		return ChipGAL20RA10, nil
	case strings.Contains(n, "20V8"):
		return ChipGAL20V8, nil
	case strings.Contains(n, "22V10"):
		return ChipGAL22V10, nil
	default:
		return ChipUnknown, fmt.Errorf("unsupported device: %s", name)
	}
}

func normalizeDevice(name string) string {
	// Accept CUPL-style names like g16v8as, g22v10, p20ra10: upper-case
	// the letters, drop anything that is not a letter or digit, and expand
	// a leading G to GAL. Other prefixes (such as P) are kept as they are.
	var buf []rune
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			buf = append(buf, r)
		case r >= 'a' && r <= 'z':
			buf = append(buf, r-('a'-'A'))
		case r >= '0' && r <= '9':
			buf = append(buf, r)
		}
	}
	upper := string(buf)
	if len(upper) >= 5 && upper[0] == 'G' {
		upper = "GAL" + upper[1:]
	}
	return upper
}

// Bounds describes a writable row range for one OLMC's term.
type Bounds struct {
	StartRow  int
	MaxRows   int
	RowOffset int
}
