package zmachine

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Story is one loaded image and everything derived from it.
type Story struct {
	Header     *ZHeader
	Memory     *Memory
	Protected  *ProtectedMemory
	Objects    *ObjectTree
	Dictionary *Dictionary
	Text       *TextCodec
	RNG        *RNG

	raw      []byte
	checksum uint16
}

// NewStory loads a story image. The image is copied; data is not retained.
func NewStory(data []byte) (*Story, error) {
	s := &Story{raw: make([]byte, len(data))}
	copy(s.raw, data)
	s.Memory = NewMemory(s.raw)

	header, err := ReadHeader(s.Memory)
	if err != nil {
		return nil, err
	}
	s.Header = header
	s.checksum = computeChecksum(s.raw, header.FileLength)

	// A stored checksum of zero predates checksums and is not validated.
	if header.Checksum != 0 && header.Checksum != s.checksum {
		return nil, &StoryFileError{Msg: fmt.Sprintf("checksum mismatch: header 0x%04X, computed 0x%04X", header.Checksum, s.checksum)}
	}

	s.Protected = NewProtectedMemory(s.Memory, header)
	s.Text = NewTextCodec(s.Memory, header.Version, header.AbbreviationTable)
	if s.Objects, err = NewObjectTree(s.Protected, header.ObjTableAddress); err != nil {
		return nil, errors.Wrap(err, "object table")
	}
	if s.Dictionary, err = NewDictionary(s.Memory, header.DictAddress, s.Text); err != nil {
		return nil, errors.Wrap(err, "dictionary")
	}
	s.RNG = NewRNG()
	s.Reset()

	log.WithFields(log.Fields{
		"objects":    s.Objects.Count(),
		"dictionary": s.Dictionary.Len(),
		"checksum":   fmt.Sprintf("%04x", s.checksum),
	}).Debug("story loaded")
	return s, nil
}

// computeChecksum sums every byte from the end of the header to the end of
// the file, modulo 0x10000.
func computeChecksum(buf []byte, fileLength uint32) uint16 {
	end := uint32(len(buf))
	if fileLength > HEADER_SIZE && fileLength < end {
		end = fileLength
	}
	sum := uint16(0)
	for i := uint32(HEADER_SIZE); i < end; i++ {
		sum += uint16(buf[i])
	}
	return sum
}

// Checksum is the computed checksum of the original image.
func (s *Story) Checksum() uint16 {
	return s.checksum
}

// Version of the instruction set the story was compiled for.
func (s *Story) Version() uint8 {
	return s.Header.Version
}

// Reset reloads memory from the original image and resets the
// interpreter-owned header bits.
func (s *Story) Reset() {
	s.Memory.restore(s.raw)
	s.Header.Reset()
}

// Restart resets the story, keeping the transcript and fixed-pitch bits.
func (s *Story) Restart() {
	keep := s.Memory.buf[hdrFlags2+1] & flags2WritableMask
	s.Reset()
	s.Memory.buf[hdrFlags2+1] = s.Memory.buf[hdrFlags2+1]&^flags2WritableMask | keep
}

// ReadGlobal returns global variable x (0-based).
func (s *Story) ReadGlobal(x uint8) (uint16, error) {
	return s.Memory.Word(s.Header.GlobalVarAddress + uint32(x)*2)
}

// SetGlobal writes global variable x. Globals in static memory are read-only.
func (s *Story) SetGlobal(x uint8, v uint16) error {
	return s.Protected.SetWord(s.Header.GlobalVarAddress+uint32(x)*2, v)
}

// ObjectName decodes the short name of an object.
func (s *Story) ObjectName(objectIndex uint16) (string, error) {
	address, ok, err := s.Objects.NameAddress(objectIndex)
	if err != nil || !ok {
		return "", err
	}
	name, _, err := s.Text.Decode(address)
	return name, err
}
