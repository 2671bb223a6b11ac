package zmachine

import (
	"fmt"
	"strings"
)

type OperandCount int

const (
	OP0 OperandCount = iota
	OP1
	OP2
	VAR
)

func (c OperandCount) String() string {
	switch c {
	case OP0:
		return "0OP"
	case OP1:
		return "1OP"
	case OP2:
		return "2OP"
	}
	return "VAR"
}

type Operand struct {
	Type  uint8
	Value uint16
}

type BranchInfo struct {
	OnTrue bool
	Offset int
}

// Instruction is one decoded instruction, bound to its opcode.
type Instruction struct {
	Address       uint32
	Form          uint8
	Count         OperandCount
	Number        uint8
	Opcode        *Opcode
	Operands      []Operand
	StoreVariable uint8
	Branch        *BranchInfo
	Text          string
	// Next is the address immediately following the instruction.
	Next uint32
}

// Execute resolves the operands, left to right, and runs the handler.
func (in *Instruction) Execute(z *Interpreter) (Action, error) {
	args := make([]int, len(in.Operands))
	for i, op := range in.Operands {
		v, err := z.operandValue(op, in.Opcode.hint(i))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return in.Opcode.handler(z, in, args)
}

// BranchTarget is the address a taken branch continues at. Only meaningful
// for offsets other than 0 and 1.
func (in *Instruction) BranchTarget() uint32 {
	return Jump{Offset: in.Branch.Offset, Addr: in.Next}.JumpTarget()
}

func varName(v uint8) string {
	switch {
	case v == 0:
		return "varsp"
	case v < 0x10:
		return fmt.Sprintf("varl%d", v)
	}
	return fmt.Sprintf("varg%d", v-0x10)
}

// String renders the instruction for traces and error reports.
func (in *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Opcode.Name)
	for i, op := range in.Operands {
		sb.WriteByte(' ')
		if op.Type == OPERAND_VARIABLE {
			sb.WriteString(varName(uint8(op.Value)))
			continue
		}
		switch in.Opcode.hint(i) {
		case HintSigned:
			fmt.Fprintf(&sb, "%d", Signed16(op.Value))
		case HintAddress:
			fmt.Fprintf(&sb, "0x%04X", op.Value)
		case HintPacked:
			fmt.Fprintf(&sb, "0x%04X", PackedAddress(uint32(op.Value)))
		case HintVariable:
			sb.WriteString(varName(uint8(op.Value)))
		default:
			fmt.Fprintf(&sb, "%d", op.Value)
		}
	}
	if in.Opcode.Literal {
		fmt.Fprintf(&sb, " (%q)", in.Text)
	}
	if in.Opcode.Store {
		sb.WriteString(" -> " + varName(in.StoreVariable))
	}
	if in.Branch != nil {
		sb.WriteString(" ?")
		if !in.Branch.OnTrue {
			sb.WriteByte('!')
		}
		switch in.Branch.Offset {
		case 0:
			sb.WriteString("rfalse")
		case 1:
			sb.WriteString("rtrue")
		default:
			fmt.Fprintf(&sb, "0x%04X", in.BranchTarget())
		}
	}
	return sb.String()
}

// InstructionDecoder reads instructions from story memory.
type InstructionDecoder struct {
	mem     *Memory
	text    *TextCodec
	version uint8
}

func NewInstructionDecoder(story *Story) *InstructionDecoder {
	return &InstructionDecoder{mem: story.Memory, text: story.Text, version: story.Version()}
}

// cursor walks memory, remembering the first error.
type cursor struct {
	mem *Memory
	ip  uint32
	err error
}

// Reads & moves to the next one (advances IP)
func (c *cursor) readByte() uint8 {
	if c.err != nil {
		return 0
	}
	b, err := c.mem.Byte(c.ip)
	if err != nil {
		c.err = err
		return 0
	}
	c.ip++
	return b
}

// Reads 2 bytes and advances IP
func (c *cursor) readUint16() uint16 {
	hi := c.readByte()
	lo := c.readByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *cursor) readOperand(operandType uint8) Operand {
	switch operandType {
	case OPERAND_LARGE:
		return Operand{Type: operandType, Value: c.readUint16()}
	default:
		return Operand{Type: operandType, Value: uint16(c.readByte())}
	}
}

// "In variable or extended forms, a byte of 4 operand types is given next.
// This contains 4 2-bit fields: bits 6 and 7 are the first field, bits 0 and 1 the fourth."
func (c *cursor) readOperands(opTypesByte uint8) []Operand {
	var operands []Operand
	shift := 6
	for i := 0; i < 4; i++ {
		opType := (opTypesByte >> uint(shift)) & 0x3
		shift -= 2
		if opType == OPERAND_OMITTED {
			break
		}
		operands = append(operands, c.readOperand(opType))
	}
	return operands
}

// Decode reads the instruction at address.
func (d *InstructionDecoder) Decode(address uint32) (*Instruction, error) {
	c := &cursor{mem: d.mem, ip: address}
	in := &Instruction{Address: address}

	opcode := c.readByte()
	if c.err != nil {
		return nil, c.err
	}
	if opcode == EXTENDED_OPCODE {
		return nil, instructionErrorf("extended form opcode 0x%02X not supported in version %d", opcode, d.version)
	}

	// Form is stored in top 2 bits
	// "If the top two bits of the opcode are $$11 the form is variable; if $$10, the form is short.
	// Otherwise, the form is "long"."
	switch (opcode >> 6) & 0x3 {
	case 0x3:
		// "In variable form, if bit 5 is 0 then the count is 2OP; if it is 1, then the count is VAR.
		// The opcode number is given in the bottom 5 bits.
		in.Form = FORM_VARIABLE
		in.Number = opcode & 0x1F
		in.Count = VAR
		if (opcode>>5)&0x1 == 0 {
			in.Count = OP2
		}
		in.Operands = c.readOperands(c.readByte())
	case 0x2:
		// "In short form, bits 4 and 5 of the opcode byte give an operand type.
		// If this is $11 then the operand count is 0OP; otherwise, 1OP.
		opType := (opcode >> 4) & 0x3
		in.Form = FORM_SHORT
		in.Number = opcode & 0x0F
		in.Count = OP0
		if opType != OPERAND_OMITTED {
			in.Count = OP1
			in.Operands = []Operand{c.readOperand(opType)}
		}
	default:
		// In long form the operand count is always 2OP.
		// Bit 6 of the opcode gives the type of the first operand, bit 5 of the second.
		// A value of 0 means a small constant and 1 means a variable.
		in.Form = FORM_LONG
		in.Number = opcode & 0x1F
		in.Count = OP2
		in.Operands = []Operand{
			c.readOperand(((opcode & 0x40) >> 6) + 1),
			c.readOperand(((opcode & 0x20) >> 5) + 1),
		}
	}
	if c.err != nil {
		return nil, c.err
	}

	op := lookupOpcode(in.Count, in.Number)
	if op == nil || op.MinVersion > d.version {
		return nil, instructionErrorf("unknown opcode %s:%d (0x%02X) for version %d", in.Count, in.Number, opcode, d.version)
	}
	in.Opcode = op
	if len(in.Operands) < op.MinArgs {
		return nil, instructionErrorf("%s needs %d operands, got %d", op.Name, op.MinArgs, len(in.Operands))
	}

	if op.Literal {
		s, next, err := d.text.Decode(c.ip)
		if err != nil {
			return nil, err
		}
		in.Text = s
		c.ip = next
	}
	if op.Store {
		in.StoreVariable = c.readByte()
	}
	if op.Branch {
		in.Branch = c.readBranch()
	}
	if c.err != nil {
		return nil, c.err
	}
	in.Next = c.ip
	return in, nil
}

func (c *cursor) readBranch() *BranchInfo {
	branchInfo := c.readByte()

	// "If bit 7 of the first byte is 0, a branch occurs when the condition was false; if 1, then branch is on true"
	b := &BranchInfo{OnTrue: branchInfo&0x80 != 0}

	// "If bit 6 is set, then the branch occupies 1 byte only, and the "offset" is in the range 0 to 63, given in the bottom 6 bits"
	if branchInfo&0x40 != 0 {
		b.Offset = int(branchInfo & 0x3F)
		return b
	}
	// If bit 6 is clear, then the offset is a signed 14-bit number given in bits 0 to 5 of the first
	// byte followed by all 8 of the second.
	offset := int(branchInfo&0x3F)<<8 | int(c.readByte())
	if offset&0x2000 != 0 {
		offset -= 0x4000
	}
	b.Offset = offset
	return b
}
