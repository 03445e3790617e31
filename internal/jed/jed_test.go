package jed

import (
	"testing"

	"github.com/galcupl/cupl/internal/gal"
	"github.com/galcupl/cupl/internal/testutil"
)

func TestMakeJEDECRoundTripsPerChip(t *testing.T) {
	cases := []struct {
		chip gal.Chip
		qf   int
	}{
		{gal.ChipGAL16V8, 2194},
		{gal.ChipGAL20V8, 2706},
		{gal.ChipGAL22V10, 5892},
		{gal.ChipGAL20RA10, 3594},
	}
	for _, c := range cases {
		bp := gal.NewBlueprint(c.chip)
		g, err := gal.Build(bp)
		if err != nil {
			t.Fatalf("%v: Build: %v", c.chip, err)
		}
		if c.chip.TotalSize() != c.qf {
			t.Fatalf("%v: TotalSize = %d, want %d", c.chip, c.chip.TotalSize(), c.qf)
		}

		text := MakeJEDEC(Config{Header: []string{"Device " + c.chip.Name()}}, g)
		parsed, err := testutil.ParseJEDEC([]byte(text))
		if err != nil {
			t.Fatalf("%v: ParseJEDEC: %v", c.chip, err)
		}
		if parsed.QF != c.qf {
			t.Fatalf("%v: parsed QF = %d, want %d", c.chip, parsed.QF, c.qf)
		}
		if len(parsed.Fuses) != c.qf {
			t.Fatalf("%v: parsed fuse count = %d, want %d", c.chip, len(parsed.Fuses), c.qf)
		}
	}
}

func TestMakeJEDECChecksumIsConsistent(t *testing.T) {
	bp := gal.NewBlueprint(gal.ChipGAL16V8)
	g, err := gal.Build(bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	text := MakeJEDEC(Config{}, g)
	parsed, err := testutil.ParseJEDEC([]byte(text))
	if err != nil {
		t.Fatalf("ParseJEDEC: %v", err)
	}
	want := testutil.FuseChecksum(parsed.Fuses)
	if parsed.Csum != want {
		t.Fatalf("checksum = %#x, want %#x", parsed.Csum, want)
	}
}

func TestMakeJEDECSecurityBit(t *testing.T) {
	bp := gal.NewBlueprint(gal.ChipGAL16V8)
	g, err := gal.Build(bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	text := MakeJEDEC(Config{SecurityBit: true}, g)
	if !contains(text, "*G1") {
		t.Fatalf("expected *G1 in output, got:\n%s", text)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
