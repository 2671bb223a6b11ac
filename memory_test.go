package zmachine

import (
	"errors"
	"testing"
)

func TestMemoryWords(t *testing.T) {
	m := NewMemory(make([]byte, 8))
	if err := m.SetWord(2, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if b, _ := m.Byte(2); b != 0xBE {
		t.Fatalf("big endian high byte: got 0x%02X", b)
	}
	if w, _ := m.Word(2); w != 0xBEEF {
		t.Fatalf("word: got 0x%04X", w)
	}

	if err := m.SetSigned(4, -2); err != nil {
		t.Fatal(err)
	}
	if w, _ := m.Word(4); w != 0xFFFE {
		t.Fatalf("signed store: got 0x%04X", w)
	}
	if v, _ := m.Signed(4); v != -2 {
		t.Fatalf("signed read: got %d", v)
	}
}

func TestMemoryBounds(t *testing.T) {
	m := NewMemory(make([]byte, 4))
	var mae *MemoryAccessError

	if _, err := m.Word(3); !errors.As(err, &mae) {
		t.Fatalf("word straddling the end: got %v", err)
	}
	if err := m.SetByte(4, 1); !errors.As(err, &mae) || mae.Address != 4 {
		t.Fatalf("byte past the end: got %v", err)
	}
	if _, err := m.Byte(0xFFFFFFFF); err == nil {
		t.Fatal("huge address must not wrap")
	}
}

func TestMemoryFlags(t *testing.T) {
	m := NewMemory(make([]byte, 2))
	if err := m.SetFlag(1, 3, true); err != nil {
		t.Fatal(err)
	}
	if b, _ := m.Byte(1); b != 0x08 {
		t.Fatalf("flag 3: got 0x%02X", b)
	}
	if on, _ := m.Flag(1, 3); !on {
		t.Fatal("flag 3 should read back set")
	}
	m.SetFlag(1, 3, false)
	if on, _ := m.Flag(1, 3); on {
		t.Fatal("flag 3 should be cleared")
	}
}

func TestPackedAddresses(t *testing.T) {
	m := NewMemory(make([]byte, 0x100))
	m.SetWord(0, 0x40)
	address, err := m.PackedWord(0)
	if err != nil {
		t.Fatal(err)
	}
	if address != 0x80 {
		t.Fatalf("packed 0x40: got 0x%X", address)
	}
	if _, err := m.Unpack(0x80); err == nil {
		t.Fatal("packed address past the end should fail")
	}
}

func TestSigned16(t *testing.T) {
	for _, tc := range []struct {
		in   uint16
		want int
	}{
		{0, 0},
		{32767, 32767},
		{32768, -32768},
		{0xFFFF, -1},
	} {
		if got := Signed16(tc.in); got != tc.want {
			t.Errorf("Signed16(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
