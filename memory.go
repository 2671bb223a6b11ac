package zmachine

import "fmt"

// Memory is the raw story image. Its length is fixed once loaded.
// All accessors are bounds checked; nothing wraps.
type Memory struct {
	buf []uint8
}

func NewMemory(data []byte) *Memory {
	buf := make([]uint8, len(data))
	copy(buf, data)
	return &Memory{buf: buf}
}

func (m *Memory) Len() uint32 {
	return uint32(len(m.buf))
}

// Bytes returns a copy of the whole image.
func (m *Memory) Bytes() []byte {
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}

func (m *Memory) check(address uint32, size uint32) error {
	if uint64(address)+uint64(size) > uint64(len(m.buf)) {
		return &MemoryAccessError{Address: address, Msg: fmt.Sprintf("beyond end of memory (size 0x%X)", len(m.buf))}
	}
	return nil
}

func (m *Memory) Byte(address uint32) (uint8, error) {
	if err := m.check(address, 1); err != nil {
		return 0, err
	}
	return m.buf[address], nil
}

func (m *Memory) SetByte(address uint32, v uint8) error {
	if err := m.check(address, 1); err != nil {
		return err
	}
	m.buf[address] = v
	return nil
}

// Word reads a big-endian 16 bit value.
func (m *Memory) Word(address uint32) (uint16, error) {
	if err := m.check(address, 2); err != nil {
		return 0, err
	}
	return GetUint16(m.buf, address), nil
}

func (m *Memory) SetWord(address uint32, v uint16) error {
	if err := m.check(address, 2); err != nil {
		return err
	}
	m.buf[address] = uint8(v >> 8)
	m.buf[address+1] = uint8(v & 0xFF)
	return nil
}

func (m *Memory) Signed(address uint32) (int16, error) {
	w, err := m.Word(address)
	return int16(w), err
}

func (m *Memory) SetSigned(address uint32, v int16) error {
	return m.SetWord(address, uint16(v))
}

// Flag tests bit (0 = least significant) of the byte at address.
func (m *Memory) Flag(address uint32, bit uint) (bool, error) {
	if bit > 7 {
		return false, &MemoryAccessError{Address: address, Msg: fmt.Sprintf("bit %d out of range", bit)}
	}
	b, err := m.Byte(address)
	if err != nil {
		return false, err
	}
	return b&(1<<bit) != 0, nil
}

func (m *Memory) SetFlag(address uint32, bit uint, on bool) error {
	if bit > 7 {
		return &MemoryAccessError{Address: address, Msg: fmt.Sprintf("bit %d out of range", bit)}
	}
	b, err := m.Byte(address)
	if err != nil {
		return err
	}
	if on {
		b |= 1 << bit
	} else {
		b &^= 1 << bit
	}
	m.buf[address] = b
	return nil
}

// Unpack resolves a packed address stored as a word and checks that the
// result lies inside the image.
func (m *Memory) Unpack(packed uint16) (uint32, error) {
	address := PackedAddress(uint32(packed))
	if err := m.check(address, 1); err != nil {
		return 0, err
	}
	return address, nil
}

// PackedWord reads the word at address and unpacks it.
func (m *Memory) PackedWord(address uint32) (uint32, error) {
	w, err := m.Word(address)
	if err != nil {
		return 0, err
	}
	return m.Unpack(w)
}

// restore replaces the image contents. Length must match.
func (m *Memory) restore(data []byte) {
	copy(m.buf, data)
}

// Signed16 reinterprets a word as two's complement.
func Signed16(v uint16) int {
	if v > 32767 {
		return int(v) - 65536
	}
	return int(v)
}
