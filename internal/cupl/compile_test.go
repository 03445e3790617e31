package cupl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/galcupl/cupl/internal/gal"
)

const simple16v8PLD = `
Name Test16V8;
Partno U1;
Device g16v8a;

Pin 1 = a;
Pin 2 = b;
Pin 19 = !y;

y = a & b;
`

func TestCompileSimple16V8(t *testing.T) {
	content, err := Parse([]byte(simple16v8PLD))
	require.NoError(t, err)

	g, err := Compile(content)
	require.NoError(t, err)
	require.Equal(t, gal.ChipGAL16V8, g.Chip)
	require.True(t, g.Syn)
	require.False(t, g.AC0) // Mode 1: no tristate, no register
}

const tristate16v8PLD = `
Name TestTri;
Device g16v8a;

Pin 1 = a;
Pin 2 = oe;
Pin 19 = !y;

y = a;
y.OE = oe;
`

func TestCompileTristate16V8SelectsMode2(t *testing.T) {
	content, err := Parse([]byte(tristate16v8PLD))
	require.NoError(t, err)

	g, err := Compile(content)
	require.NoError(t, err)
	require.True(t, g.Syn)
	require.True(t, g.AC0) // Mode 2: tristate output present
}

const registered22v10PLD = `
Name TestReg22V10;
Device g22v10;

Pin 1 = clk;
Pin 2 = d;
Pin 14 = !q;

q.D = d;
`

func TestCompileRegistered22V10(t *testing.T) {
	content, err := Parse([]byte(registered22v10PLD))
	require.NoError(t, err)

	g, err := Compile(content)
	require.NoError(t, err)
	require.Equal(t, gal.ChipGAL22V10, g.Chip)
}

const registered20ra10NoClockPLD = `
Name TestNoClock;
Device g20ra10;

Pin 1 = d;
Pin 14 = !q;

q.D = d;
`

func TestCompileRegistered20RA10RequiresClock(t *testing.T) {
	content, err := Parse([]byte(registered20ra10NoClockPLD))
	require.NoError(t, err)

	_, err = Compile(content)
	require.Error(t, err)
	be, ok := err.(*gal.BuildError)
	require.True(t, ok, "expected *gal.BuildError, got %T", err)
	require.Equal(t, gal.ErrNoCLK, be.Code)
}

const registered20ra10PLD = `
Name TestClocked;
Device g20ra10;

Pin 1 = clk;
Pin 2 = d;
Pin 14 = !q;

q.D = d;
q.CLK = clk;
`

func TestCompileRegistered20RA10WithClock(t *testing.T) {
	content, err := Parse([]byte(registered20ra10PLD))
	require.NoError(t, err)

	g, err := Compile(content)
	require.NoError(t, err)
	require.Equal(t, gal.ChipGAL20RA10, g.Chip)
}

const disallowedCLKOn16V8PLD = `
Name TestBadCLK;
Device g16v8a;

Pin 1 = clk;
Pin 2 = d;
Pin 19 = !q;

q.D = d;
q.CLK = clk;
`

func TestCompileCLKOn16V8IsRejected(t *testing.T) {
	content, err := Parse([]byte(disallowedCLKOn16V8PLD))
	require.NoError(t, err)

	_, err = Compile(content)
	require.Error(t, err)
	be, ok := err.(*gal.BuildError)
	require.True(t, ok, "expected *gal.BuildError, got %T", err)
	require.Equal(t, gal.ErrDisallowedCLK, be.Code)
}
