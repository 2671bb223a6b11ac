package zmachine

import "fmt"

// ProtectedMemory is the view of memory the running program gets through
// loadb/loadw/storeb/storew. High memory cannot be read, static memory
// cannot be written, and the header is read-only apart from a few flag bits.
type ProtectedMemory struct {
	mem    *Memory
	header *ZHeader
}

func NewProtectedMemory(mem *Memory, header *ZHeader) *ProtectedMemory {
	return &ProtectedMemory{mem: mem, header: header}
}

func (p *ProtectedMemory) checkRead(address uint32, size uint32) error {
	last := address + size - 1
	if p.header.HiMemBase != 0 && last >= p.header.HiMemBase {
		return &MemoryAccessError{Address: address, Msg: fmt.Sprintf("read from high memory (base 0x%X)", p.header.HiMemBase)}
	}
	return nil
}

// We can only write to dynamic memory
func (p *ProtectedMemory) IsSafeToWrite(address uint32) bool {
	return address < p.header.StaticMemAddress
}

func (p *ProtectedMemory) checkWrite(address uint32, v uint8) error {
	if !p.IsSafeToWrite(address) {
		return &MemoryAccessError{Address: address, Msg: fmt.Sprintf("write to static memory (base 0x%X)", p.header.StaticMemAddress)}
	}
	if address < HEADER_SIZE {
		old, err := p.mem.Byte(address)
		if err != nil {
			return err
		}
		if !headerWriteAllowed(address, old, v) {
			return &MemoryAccessError{Address: address, Msg: "write to read-only header field"}
		}
	}
	return nil
}

func (p *ProtectedMemory) Byte(address uint32) (uint8, error) {
	if err := p.checkRead(address, 1); err != nil {
		return 0, err
	}
	return p.mem.Byte(address)
}

func (p *ProtectedMemory) Word(address uint32) (uint16, error) {
	if err := p.checkRead(address, 2); err != nil {
		return 0, err
	}
	return p.mem.Word(address)
}

func (p *ProtectedMemory) SetByte(address uint32, v uint8) error {
	if err := p.checkWrite(address, v); err != nil {
		return err
	}
	return p.mem.SetByte(address, v)
}

func (p *ProtectedMemory) SetWord(address uint32, v uint16) error {
	if err := p.checkWrite(address, uint8(v>>8)); err != nil {
		return err
	}
	if err := p.checkWrite(address+1, uint8(v&0xFF)); err != nil {
		return err
	}
	return p.mem.SetWord(address, v)
}
