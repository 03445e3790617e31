package cupl

import "fmt"

// pinToColumn resolves a device pin number to its fuse-array column for
// chip. This is symbol/pin resolution, not chip geometry, so it lives
// in the compiler frontend rather than internal/gal.
//
// The GAL16V8 and GAL22V10 tables are transcribed from the chips'
// datasheets (as in the reference implementation this package is
// descended from). No literal datasheet table was available for
// GAL20V8 or GAL20RA10 in this project's reference material. GAL20RA10
// reuses the GAL22V10 table. GAL20V8 uses a simple sequential
// assignment instead: the pins in chip20V8Lines are numbered in list
// order, each occupying two adjacent columns (true, complement). Neither
// is a transcription of real silicon wiring.
func pinToColumn(chip chipKind, pin int) (int, error) {
	switch chip {
	case chipKind16V8:
		return pinToCol16V8(pin)
	case chipKind20V8:
		return pinToColSequential(pin, chip20V8Lines)
	case chipKind22V10:
		return pinToCol22V10(pin)
	case chipKind20RA10:
		return pinToCol22V10(pin) // reuses the 22V10's 24-pin geometry
	default:
		return 0, fmt.Errorf("unsupported chip")
	}
}

// chipKind mirrors gal.Chip so that pins.go itself does not import the
// gal package; compile.go's chipKindFor translates between the two.
type chipKind int

const (
	chipKind16V8 chipKind = iota
	chipKind20V8
	chipKind22V10
	chipKind20RA10
)

// chip20V8Lines lists, in the order used to assign ascending column
// pairs, the pins that feed the GAL20V8's logic array: the dedicated
// input pins followed by the six feedback-capable OLMC pins (OLMC
// indices 3 and 4, i.e. pins 18 and 19, never feed back - see
// getModeV8's Mode-1 incompatibility rule).
var chip20V8Lines = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14, 23, 15, 16, 17, 20, 21, 22}

func pinToColSequential(pin int, lines []int) (int, error) {
	for i, p := range lines {
		if p == pin {
			return i * 2, nil
		}
	}
	return 0, fmt.Errorf("pin %d is not an input on this device", pin)
}

func pinToCol16V8(pin int) (int, error) {
	switch pin {
	case 1:
		return 2, nil
	case 2:
		return 0, nil
	case 3:
		return 4, nil
	case 4:
		return 8, nil
	case 5:
		return 12, nil
	case 6:
		return 16, nil
	case 7:
		return 20, nil
	case 8:
		return 24, nil
	case 9:
		return 28, nil
	case 10:
		return 0, fmt.Errorf("pin %d is power", pin)
	case 11:
		return 30, nil
	case 12:
		return 26, nil
	case 13:
		return 22, nil
	case 14:
		return 18, nil
	case 15, 16:
		return 0, fmt.Errorf("pin %d is not an input in simple mode", pin)
	case 17:
		return 14, nil
	case 18:
		return 10, nil
	case 19:
		return 6, nil
	case 20:
		return 0, fmt.Errorf("pin %d is power", pin)
	default:
		return 0, fmt.Errorf("invalid pin %d", pin)
	}
}

func pinToCol22V10(pin int) (int, error) {
	switch pin {
	case 1:
		return 0, nil
	case 2:
		return 4, nil
	case 3:
		return 8, nil
	case 4:
		return 12, nil
	case 5:
		return 16, nil
	case 6:
		return 20, nil
	case 7:
		return 24, nil
	case 8:
		return 28, nil
	case 9:
		return 32, nil
	case 10:
		return 36, nil
	case 11:
		return 40, nil
	case 12:
		return 0, fmt.Errorf("pin %d is power", pin)
	case 13:
		return 42, nil
	case 14:
		return 38, nil
	case 15:
		return 34, nil
	case 16:
		return 30, nil
	case 17:
		return 26, nil
	case 18:
		return 22, nil
	case 19:
		return 18, nil
	case 20:
		return 14, nil
	case 21:
		return 10, nil
	case 22:
		return 6, nil
	case 23:
		return 2, nil
	case 24:
		return 0, fmt.Errorf("pin %d is power", pin)
	default:
		return 0, fmt.Errorf("invalid pin %d", pin)
	}
}
