package solana

import (
	"strconv"
	"testing"
)

const (
	testProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	testPool      = "Czfq3xZZDmsdGdUyrNLtRhGc47cXcZtLG4crryfu44zE"
)

func TestParsePublicKey(t *testing.T) {
	pk, err := ParsePublicKey(testPool)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if pk.String() != testPool {
		t.Errorf("round trip mismatch: %s", pk)
	}
	if pk.IsZero() {
		t.Error("expected non-zero key")
	}

	if _, err := ParsePublicKey("not-base58-0OIl"); err == nil {
		t.Error("expected error for invalid base58")
	}
	if _, err := ParsePublicKey("abc"); err == nil {
		t.Error("expected error for short key")
	}
}

func TestFindProgramAddress(t *testing.T) {
	program := MustPublicKey(testProgramID)
	pool := MustPublicKey(testPool)

	cases := []struct {
		start int
		want  string
		bump  uint8
	}{
		{-22528, "32wMhfqGgeaftnPacPR6pqBPL3agbd7to1oUsqo6y14F", 255},
		{0, "EP2GupuiKh6bHLXD6Uv6pj2vT7t34fVvfefgALNLNQjt", 254},
		{5632, "3oukmHA8qeB5zBVm5Vb3iNtBnYMpBYYZ3KodkU53pWAp", 255},
	}

	for _, tc := range cases {
		seeds := [][]byte{[]byte("tick_array"), pool[:], []byte(strconv.Itoa(tc.start))}
		addr, bump, err := FindProgramAddress(seeds, program)
		if err != nil {
			t.Fatalf("FindProgramAddress(%d): %v", tc.start, err)
		}
		if addr.String() != tc.want {
			t.Errorf("start %d: expected %s, got %s", tc.start, tc.want, addr)
		}
		if bump != tc.bump {
			t.Errorf("start %d: expected bump %d, got %d", tc.start, tc.bump, bump)
		}
		if isOnCurve(addr[:]) {
			t.Errorf("start %d: derived address is on curve", tc.start)
		}
	}
}

func TestFindProgramAddress_SeedTooLong(t *testing.T) {
	_, _, err := FindProgramAddress([][]byte{make([]byte, MaxSeedLength+1)}, MustPublicKey(testProgramID))
	if err == nil {
		t.Fatal("expected error for oversized seed")
	}
}
