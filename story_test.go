package zmachine

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadStory(t *testing.T) {
	s := newStoryBuilder().build(t)
	h := s.Header
	if h.Version != 3 || h.Release != 88 || h.Serial != "840726" {
		t.Fatalf("header identity: %+v", h)
	}
	if h.InitialPC != testCode || h.StaticMemAddress != testStatic || h.DictAddress != testDictionary {
		t.Fatalf("header addresses: %+v", h)
	}
	if h.FileLength != testImageSize {
		t.Fatalf("file length: got 0x%X", h.FileLength)
	}
	if s.Checksum() != h.Checksum {
		t.Fatalf("checksum: computed 0x%04X, header 0x%04X", s.Checksum(), h.Checksum)
	}
	if s.Objects.Count() != 4 {
		t.Fatalf("object count: got %d", s.Objects.Count())
	}
}

func TestStoryFileErrors(t *testing.T) {
	flipped := newStoryBuilder().image()
	flipped[0x200] ^= 0xFF

	unsupported := newStoryBuilder().image()
	unsupported[hdrVersion] = 5

	for _, tc := range []struct {
		name string
		data []byte
		want string
	}{
		{"short", make([]byte, 0x20), "too short"},
		{"version", unsupported, "unsupported version 5"},
		{"checksum", flipped, "checksum mismatch"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStory(tc.data)
			var sfe *StoryFileError
			if !errors.As(err, &sfe) {
				t.Fatalf("expected StoryFileError, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestZeroChecksumSkipsValidation(t *testing.T) {
	data := newStoryBuilder().image()
	data[hdrChecksum], data[hdrChecksum+1] = 0, 0
	data[0x200] ^= 0xFF
	if _, err := NewStory(data); err != nil {
		t.Fatalf("zero checksum should not be validated: %v", err)
	}
}

func TestChecksumStable(t *testing.T) {
	data := newStoryBuilder().image()
	a := computeChecksum(data, testImageSize)
	b := computeChecksum(data, testImageSize)
	if a != b {
		t.Fatalf("checksum changed between runs: 0x%04X 0x%04X", a, b)
	}
	s, err := NewStory(data)
	if err != nil {
		t.Fatal(err)
	}
	s.SetGlobal(5, 0xAAAA)
	if s.Checksum() != a {
		t.Fatal("checksum must describe the original image, not live memory")
	}
}

func TestStoryRestartKeepsTranscriptBit(t *testing.T) {
	s := newStoryBuilder().build(t)
	s.SetGlobal(3, 42)
	if err := s.Header.SetTranscripting(true); err != nil {
		t.Fatal(err)
	}
	s.Restart()

	if g, _ := s.ReadGlobal(3); g != 0 {
		t.Fatalf("global 3 should be reset, got %d", g)
	}
	if !s.Header.Transcripting() {
		t.Fatal("transcript bit must survive a restart")
	}

	s.Reset()
	if s.Header.Transcripting() {
		t.Fatal("reset clears the transcript bit")
	}
}

func TestHeaderCapabilities(t *testing.T) {
	s := newStoryBuilder().build(t)
	h := s.Header
	for _, set := range []func(bool) error{h.SetStatusLineAvailable, h.SetScreenSplitAvailable, h.SetVariablePitchDefault} {
		if err := set(true); err != nil {
			t.Fatal(err)
		}
	}
	want := uint8(1<<FLAG1_SCREEN_SPLIT_AVAILABLE | 1<<FLAG1_VARIABLE_PITCH_DEFAULT)
	if got := h.Flags1() & flags1WritableMask; got != want {
		t.Fatalf("flags 1: 0x%02X, want 0x%02X", got, want)
	}

	if err := h.SetStatusLineAvailable(false); err != nil {
		t.Fatal(err)
	}
	if h.Flags1()&(1<<FLAG1_STATUS_LINE_UNAVAIL) == 0 {
		t.Fatal("status line should be marked unavailable")
	}

	s.Reset()
	if got := h.Flags1() & flags1WritableMask; got != 0 {
		t.Fatalf("reset leaves flags 1 at 0x%02X", got)
	}
}

func TestProtectedMemory(t *testing.T) {
	s := newStoryBuilder().build(t)
	p := s.Protected
	var mae *MemoryAccessError

	if err := p.SetByte(testTextBuf, 1); err != nil {
		t.Fatalf("dynamic memory write: %v", err)
	}
	if err := p.SetByte(testStatic, 1); !errors.As(err, &mae) {
		t.Fatalf("static memory write: got %v", err)
	}
	if _, err := p.Byte(testDictionary); err != nil {
		t.Fatalf("static memory read: %v", err)
	}
	if _, err := p.Byte(testCode); !errors.As(err, &mae) {
		t.Fatalf("high memory read: got %v", err)
	}
	if _, err := p.Word(testCode - 1); err == nil {
		t.Fatal("word read ending in high memory should fail")
	}

	// Header is read-only apart from the whitelisted flag bits.
	if err := p.SetByte(hdrInitialPC, 0); !errors.As(err, &mae) {
		t.Fatalf("header write: got %v", err)
	}
	if err := p.SetByte(hdrFlags2+1, 1<<FLAG2_TRANSCRIPT); err != nil {
		t.Fatalf("transcript bit write: %v", err)
	}
	if err := p.SetByte(hdrFlags2+1, 1<<FLAG2_REDRAW_NEEDED); err == nil {
		t.Fatal("redraw bit is interpreter owned")
	}
	if err := p.SetWord(hdrFlags2, 1<<FLAG2_FIXED_PITCH); err != nil {
		t.Fatalf("flags 2 word write: %v", err)
	}
	if err := p.SetByte(hdrFlags1, s.Header.Flags1()|1<<FLAG1_TIME_GAME); err == nil {
		t.Fatal("time game bit is not writable")
	}
}

func TestHeaderReset(t *testing.T) {
	data := newStoryBuilder().image()
	data[hdrFlags1] = 1<<FLAG1_TIME_GAME | 1<<FLAG1_STATUS_LINE_UNAVAIL
	data[hdrInterpreterNumber] = 6
	s, err := NewStory(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Header.Flags1() != 1<<FLAG1_TIME_GAME {
		t.Fatalf("flags 1 after reset: got 0x%02X", s.Header.Flags1())
	}
	if !s.Header.TimeGame() {
		t.Fatal("time game bit belongs to the story")
	}
	if b, _ := s.Memory.Byte(hdrInterpreterNumber); b != 0 {
		t.Fatalf("interpreter number: got %d", b)
	}
}
