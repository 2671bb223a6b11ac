package zmachine

// Action is what an opcode handler asks the interpreter to do next. The set
// of actions is closed; applyAction switches over every type.
type Action interface {
	isAction()
}

// NextInstruction continues at Addr.
type NextInstruction struct {
	Addr uint32
}

// Jump continues at Addr + Offset - 2, Addr being the address after the
// instruction.
type Jump struct {
	Offset int
	Addr   uint32
}

// Call enters the routine at Routine (a byte address).
type Call struct {
	Routine       uint32
	Store         bool
	StoreVariable uint8
	ReturnTo      uint32
	Args          []uint16
}

// Return leaves the current routine with Value.
type Return struct {
	Value uint16
}

type Quit struct{}

type Restart struct{}

// ReadLine suspends until the input source supplies a line.
type ReadLine struct {
	TextBuffer  uint32
	ParseBuffer uint32
	Next        uint32
}

// Save and Restore hand the snapshot to the save store. The branch is
// resolved by the interpreter once the store answers.
type Save struct {
	Instruction *Instruction
}

type Restore struct {
	Instruction *Instruction
}

func (NextInstruction) isAction() {}
func (Jump) isAction()            {}
func (Call) isAction()            {}
func (Return) isAction()          {}
func (Quit) isAction()            {}
func (Restart) isAction()         {}
func (ReadLine) isAction()        {}
func (Save) isAction()            {}
func (Restore) isAction()         {}

// JumpTarget is the address a Jump lands on.
func (j Jump) JumpTarget() uint32 {
	return uint32(int64(j.Addr) + int64(j.Offset) - 2)
}
