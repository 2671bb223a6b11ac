package zmachine

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ZHeader is the parsed view of the first 64 bytes of a story.
// Addresses are fixed at load; the flag words are read live from memory.
type ZHeader struct {
	Version           uint8
	Release           uint16
	Serial            string
	HiMemBase         uint32
	InitialPC         uint32
	DictAddress       uint32
	ObjTableAddress   uint32
	GlobalVarAddress  uint32
	StaticMemAddress  uint32
	AbbreviationTable uint32
	FileLength        uint32
	Checksum          uint16
	Revision          uint16

	mem *Memory
}

// ReadHeader parses the header of mem, rejecting short images and
// unsupported versions.
func ReadHeader(mem *Memory) (*ZHeader, error) {
	if mem.Len() < HEADER_SIZE {
		return nil, &StoryFileError{Msg: fmt.Sprintf("too short: %d bytes, header needs %d", mem.Len(), HEADER_SIZE)}
	}
	buf := mem.buf
	h := &ZHeader{mem: mem}

	h.Version = buf[hdrVersion]
	if h.Version < MIN_VERSION || h.Version > MAX_VERSION {
		return nil, &StoryFileError{Msg: fmt.Sprintf("unsupported version %d", h.Version)}
	}
	h.Release = GetUint16(buf, hdrRelease)
	h.Serial = string(buf[hdrSerial : hdrSerial+6])
	h.HiMemBase = uint32(GetUint16(buf, hdrHighMemory))
	h.InitialPC = uint32(GetUint16(buf, hdrInitialPC))
	h.DictAddress = uint32(GetUint16(buf, hdrDictionary))
	h.ObjTableAddress = uint32(GetUint16(buf, hdrObjectTable))
	h.GlobalVarAddress = uint32(GetUint16(buf, hdrGlobals))
	h.StaticMemAddress = uint32(GetUint16(buf, hdrStaticMemory))
	h.AbbreviationTable = uint32(GetUint16(buf, hdrAbbreviations))
	// Stored halved for versions 1-3.
	h.FileLength = uint32(GetUint16(buf, hdrFileLength)) * 2
	h.Checksum = GetUint16(buf, hdrChecksum)
	h.Revision = GetUint16(buf, hdrRevision)

	if h.StaticMemAddress < HEADER_SIZE || h.StaticMemAddress > mem.Len() {
		return nil, &StoryFileError{Msg: fmt.Sprintf("static memory base 0x%X outside image", h.StaticMemAddress)}
	}

	log.WithFields(log.Fields{
		"version": h.Version,
		"release": h.Release,
		"serial":  h.Serial,
	}).Debugf("header: static 0x%X, himem 0x%X, pc 0x%X", h.StaticMemAddress, h.HiMemBase, h.InitialPC)

	return h, nil
}

func (h *ZHeader) Flags1() uint8 {
	return h.mem.buf[hdrFlags1]
}

func (h *ZHeader) Flags2() uint16 {
	return GetUint16(h.mem.buf, hdrFlags2)
}

// TimeGame reports whether the status line shows hours:minutes.
func (h *ZHeader) TimeGame() bool {
	return h.Flags1()&(1<<FLAG1_TIME_GAME) != 0
}

func (h *ZHeader) Transcripting() bool {
	return h.Flags2()&(1<<FLAG2_TRANSCRIPT) != 0
}

func (h *ZHeader) SetTranscripting(on bool) error {
	return h.mem.SetFlag(hdrFlags2+1, FLAG2_TRANSCRIPT, on)
}

// SetStatusLineAvailable and the two setters below are for front ends
// advertising their capabilities after Reset.
func (h *ZHeader) SetStatusLineAvailable(on bool) error {
	return h.mem.SetFlag(hdrFlags1, FLAG1_STATUS_LINE_UNAVAIL, !on)
}

func (h *ZHeader) SetScreenSplitAvailable(on bool) error {
	return h.mem.SetFlag(hdrFlags1, FLAG1_SCREEN_SPLIT_AVAILABLE, on)
}

func (h *ZHeader) SetVariablePitchDefault(on bool) error {
	return h.mem.SetFlag(hdrFlags1, FLAG1_VARIABLE_PITCH_DEFAULT, on)
}

// Reset puts the interpreter-owned header bits back to their baseline.
func (h *ZHeader) Reset() {
	buf := h.mem.buf
	buf[hdrFlags1] &^= flags1WritableMask
	buf[hdrFlags2+1] &^= 1<<FLAG2_TRANSCRIPT | 1<<FLAG2_REDRAW_NEEDED
	buf[hdrInterpreterNumber] = 0
	buf[hdrInterpreterVersion] = 0
}

// headerWriteAllowed reports whether the running program may change the
// header byte at address from old to v.
func headerWriteAllowed(address uint32, old, v uint8) bool {
	changed := old ^ v
	switch address {
	case hdrFlags1:
		return changed&^flags1WritableMask == 0
	case hdrFlags2:
		// High byte of flags 2 holds no writable bits; allow word writes
		// that leave it alone.
		return changed == 0
	case hdrFlags2 + 1:
		return changed&^flags2WritableMask == 0
	}
	return false
}
