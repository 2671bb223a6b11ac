package zmachine

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodePeriod(t *testing.T) {
	codec := NewTextCodec(NewMemory(nil), 3, 0)
	got, err := codec.Encode(".")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x16, 0x45, 0x94, 0xA5}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(\".\") = % X, want % X", got, want)
	}
	s, err := codec.DecodeBytes(want)
	if err != nil {
		t.Fatal(err)
	}
	if s != "." {
		t.Fatalf("decode: got %q", s)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	codec := NewTextCodec(NewMemory(nil), 3, 0)
	for _, tc := range []struct {
		in, want string
	}{
		{"lamp", "lamp"},
		{"LAMP", "lamp"},
		{"lantern", "lanter"},
		{"go n", "go n"},
		{"3", "3"},
		{"no.1", "no.1"},
	} {
		encoded, err := codec.Encode(tc.in)
		if err != nil {
			t.Fatalf("Encode(%q): %v", tc.in, err)
		}
		got, err := codec.DecodeBytes(encoded)
		if err != nil {
			t.Fatalf("decode %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("round trip %q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeZChars(t *testing.T) {
	for _, tc := range []struct {
		name    string
		version uint8
		zchars  []uint8
		want    string
	}{
		{"lowercase", 3, []uint8{13, 10, 17, 17, 20}, "hello"},
		{"one-shot upper", 3, []uint8{4, 13, 10}, "He"},
		{"space", 3, []uint8{6, 0, 7}, "a b"},
		{"newline", 3, []uint8{5, 7}, "\n"},
		{"wide char", 3, []uint8{5, 6, 4, 27}, "ä"},
		{"ascii escape", 3, []uint8{5, 6, 1, 30}, ">"},
		{"v1 newline", 1, []uint8{6, 1, 7}, "a\nb"},
		{"v1 less than", 1, []uint8{3, 27}, "<"},
		{"v1 shift lock", 1, []uint8{4, 6, 7, 5, 8}, "ABc"},
		{"v2 shift lock", 2, []uint8{5, 8, 9, 4, 6}, "01a"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			codec := &TextCodec{mem: NewMemory(nil), version: tc.version}
			got, err := codec.DecodeZChars(tc.zchars)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUndefinedZSCII(t *testing.T) {
	codec := NewTextCodec(NewMemory(nil), 3, 0)
	_, err := codec.DecodeZChars([]uint8{5, 6, 0, 1})
	var tce *TextCodecError
	if !errors.As(err, &tce) {
		t.Fatalf("ZSCII 1 should be rejected, got %v", err)
	}
}

func TestAbbreviations(t *testing.T) {
	b := newStoryBuilder()
	b.code(packZChars([]uint8{1, 0, 17, 6, 18, 21})...)
	nested := b.code(packZChars([]uint8{1, 1})...)
	s := b.build(t)

	got, next, err := s.Text.Decode(testCode)
	if err != nil {
		t.Fatal(err)
	}
	if got != "the lamp" {
		t.Fatalf("got %q", got)
	}
	if next != nested {
		t.Fatalf("next: got 0x%X, want 0x%X", next, nested)
	}

	_, _, err = s.Text.Decode(nested)
	var tce *TextCodecError
	if !errors.As(err, &tce) {
		t.Fatalf("abbreviation inside abbreviation should fail, got %v", err)
	}
}

func TestZSCIIString(t *testing.T) {
	for code, want := range map[uint16]string{0: "", 13: "\n", 65: "A", 155: "ä", 223: "¿"} {
		got, err := ZSCIIString(code)
		if err != nil || got != want {
			t.Errorf("ZSCIIString(%d) = %q, %v; want %q", code, got, err, want)
		}
	}
	if _, err := ZSCIIString(224); err == nil {
		t.Error("224 is undefined")
	}
}
