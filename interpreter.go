package zmachine

import (
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	Running State = iota
	WaitingForLine
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case WaitingForLine:
		return "WAITING_FOR_LINE"
	case Terminated:
		return "TERMINATED"
	}
	return "UNKNOWN"
}

// Interpreter runs one story. It is not safe for concurrent use; give each
// session its own Story and Interpreter.
type Interpreter struct {
	story   *Story
	decoder *InstructionDecoder
	out     OutputSink
	in      InputSource
	saves   SaveStore

	stack       CallStack
	pc          uint32
	state       State
	last        *Instruction
	pendingRead *ReadLine

	// Output stream 1 deselected, and the stack of selected stream 3 tables.
	screenOff bool
	tables    []*memoryStream
}

type Option func(*Interpreter)

// WithSaveStore sets where save and restore snapshots go. Without one,
// save and restore fail and the story is told so.
func WithSaveStore(store SaveStore) Option {
	return func(z *Interpreter) {
		z.saves = store
	}
}

// WithPredictableSeed puts the story's RNG into predictable mode.
func WithPredictableSeed(seed int64) Option {
	return func(z *Interpreter) {
		z.story.RNG.EnterPredictableMode(seed)
	}
}

func NewInterpreter(story *Story, out OutputSink, in InputSource, opts ...Option) *Interpreter {
	z := &Interpreter{
		story:   story,
		decoder: NewInstructionDecoder(story),
		out:     out,
		in:      in,
	}
	for _, opt := range opts {
		opt(z)
	}
	z.reset()
	return z
}

func (z *Interpreter) reset() {
	z.stack.Reset()
	z.pc = z.story.Header.InitialPC
	z.state = Running
	z.last = nil
	z.pendingRead = nil
	z.screenOff = false
	z.tables = nil
}

func (z *Interpreter) Story() *Story {
	return z.story
}

func (z *Interpreter) PC() uint32 {
	return z.pc
}

func (z *Interpreter) State() State {
	return z.state
}

func (z *Interpreter) CallStack() *CallStack {
	return &z.stack
}

// LastInstruction is the disassembly of the most recently decoded
// instruction.
func (z *Interpreter) LastInstruction() string {
	if z.last == nil {
		return ""
	}
	return z.last.String()
}

// Step executes one instruction, or tries to finish a pending read.
// ErrQuit and ErrRestart are returned unwrapped; faults come back as
// *StepError.
func (z *Interpreter) Step() error {
	switch z.state {
	case Terminated:
		return ErrQuit
	case WaitingForLine:
		return z.fail(z.pc, z.resumeRead())
	}

	pc := z.pc
	in, err := z.decoder.Decode(pc)
	if err != nil {
		return z.fail(pc, err)
	}
	z.last = in
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("0x%04X: %s", pc, in)
	}

	action, err := in.Execute(z)
	if err != nil {
		return z.fail(pc, err)
	}
	return z.fail(pc, z.applyAction(action))
}

// Run steps until the story waits for input or stops. It returns nil while
// a read is pending.
func (z *Interpreter) Run() error {
	for {
		if err := z.Step(); err != nil {
			return err
		}
		if z.state != Running {
			return nil
		}
	}
}

func (z *Interpreter) fail(pc uint32, err error) error {
	if err == nil || errors.Is(err, ErrQuit) || errors.Is(err, ErrRestart) {
		return err
	}
	return &StepError{PC: pc, Instruction: z.LastInstruction(), Err: err}
}

func (z *Interpreter) applyAction(action Action) error {
	switch a := action.(type) {
	case NextInstruction:
		z.pc = a.Addr
	case Jump:
		z.pc = a.JumpTarget()
	case Call:
		return z.call(a)
	case Return:
		return z.ret(a.Value)
	case Quit:
		z.state = Terminated
		z.out.Flush()
		return ErrQuit
	case Restart:
		z.story.Restart()
		z.reset()
		z.out.Flush()
		return ErrRestart
	case ReadLine:
		if err := z.showStatus(); err != nil {
			return err
		}
		z.out.Flush()
		z.pendingRead = &a
		z.state = WaitingForLine
		z.in.SetWaitingForLine(true)
		return z.resumeRead()
	case Save:
		return z.applyAction(GenericBranch(a.Instruction, z.saveToStore()))
	case Restore:
		return z.restoreFromStore(a.Instruction)
	default:
		return interpreterErrorf("unknown action %T", action)
	}
	return nil
}

func (z *Interpreter) call(c Call) error {
	if c.Routine == 0 {
		// Calling address 0 returns false.
		z.pc = c.ReturnTo
		if c.Store {
			return z.setVariable(c.StoreVariable, 0)
		}
		return nil
	}

	mem := z.story.Memory
	numLocals, err := mem.Byte(c.Routine)
	if err != nil {
		return err
	}
	if numLocals > MAX_LOCALS {
		return interpreterErrorf("routine at 0x%X declares %d locals", c.Routine, numLocals)
	}

	// "When a routine is called, its local variables are created with initial values taken from the routine header.
	// Next, the arguments are written into the local variables (argument 1 into local 1 and so on)."
	r := &Routine{
		Locals:        make([]uint16, numLocals),
		ReturnTo:      c.ReturnTo,
		Store:         c.Store,
		StoreVariable: c.StoreVariable,
	}
	address := c.Routine + 1
	for i := range r.Locals {
		if r.Locals[i], err = mem.Word(address); err != nil {
			return err
		}
		if i < len(c.Args) {
			r.Locals[i] = c.Args[i]
		}
		address += 2
	}
	if err := z.stack.Push(r); err != nil {
		return err
	}
	z.pc = address
	return nil
}

func (z *Interpreter) ret(value uint16) error {
	r, err := z.stack.Pop()
	if err != nil {
		return err
	}
	z.pc = r.ReturnTo
	if r.Store {
		return z.setVariable(r.StoreVariable, value)
	}
	return nil
}

// Variables: 0 = top of the stack, 0x1-0xF = local var, 0x10 - 0xFF = global var

func (z *Interpreter) readVariable(v uint8) (uint16, error) {
	switch {
	case v == 0:
		return z.stack.Current().Pop()
	case v < 0x10:
		return z.stack.Current().GetLocalVar(v)
	}
	return z.story.ReadGlobal(v - 0x10)
}

func (z *Interpreter) setVariable(v uint8, value uint16) error {
	switch {
	case v == 0:
		return z.stack.Current().Push(value)
	case v < 0x10:
		return z.stack.Current().SetLocalVar(v, value)
	}
	return z.story.SetGlobal(v-0x10, value)
}

// Opcodes that name a variable as an operand touch the stack top in place
// rather than pushing or popping.
func (z *Interpreter) readVariableInPlace(v uint8) (uint16, error) {
	if v == 0 {
		return z.stack.Current().Peek()
	}
	return z.readVariable(v)
}

func (z *Interpreter) setVariableInPlace(v uint8, value uint16) error {
	if v == 0 {
		return z.stack.Current().setTop(value)
	}
	return z.setVariable(v, value)
}

// AddToVar adds delta to a variable in place and returns the new value.
func (z *Interpreter) AddToVar(v uint8, delta int) (uint16, error) {
	value, err := z.readVariableInPlace(v)
	if err != nil {
		return 0, err
	}
	value = uint16(int(value) + delta)
	return value, z.setVariableInPlace(v, value)
}

func (z *Interpreter) operandValue(op Operand, hint OperandHint) (int, error) {
	raw := op.Value
	switch op.Type {
	case OPERAND_VARIABLE:
		if op.Value > 0xFF {
			return 0, interpreterErrorf("variable %d out of range", op.Value)
		}
		v, err := z.readVariable(uint8(op.Value))
		if err != nil {
			return 0, err
		}
		raw = v
	case OPERAND_OMITTED:
		return 0, nil
	}

	switch hint {
	case HintSigned:
		return Signed16(raw), nil
	case HintPacked:
		return int(PackedAddress(uint32(raw))), nil
	case HintVariable:
		if raw > 0xFF {
			return 0, interpreterErrorf("variable %d out of range", raw)
		}
	}
	return int(raw), nil
}

// print sends text to the innermost stream 3 table if one is selected,
// otherwise to the output sink with newlines turned into NewLine calls.
func (z *Interpreter) print(s string) error {
	if n := len(z.tables); n > 0 {
		return z.tables[n-1].write(z.story.Protected, s)
	}
	if z.screenOff {
		return nil
	}
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		if i > 0 {
			z.out.PrintStr(s[:i])
		}
		z.out.NewLine()
		s = s[i+1:]
	}
	if s != "" {
		z.out.PrintStr(s)
	}
	return nil
}

func (z *Interpreter) newLine() error {
	return z.print("\n")
}

func (z *Interpreter) printEncoded(address uint32) error {
	s, _, err := z.story.Text.Decode(address)
	if err != nil {
		return err
	}
	return z.print(s)
}

func (z *Interpreter) selectMemoryStream(table uint32) error {
	if len(z.tables) >= MAX_TABLE_DEPTH {
		return instructionErrorf("output stream 3 nested more than %d deep", MAX_TABLE_DEPTH)
	}
	z.tables = append(z.tables, &memoryStream{table: table})
	return nil
}

// deselectMemoryStream closes the innermost table, writing its length.
func (z *Interpreter) deselectMemoryStream() error {
	n := len(z.tables)
	if n == 0 {
		return instructionErrorf("output stream 3 is not selected")
	}
	m := z.tables[n-1]
	z.tables = z.tables[:n-1]
	return m.close(z.story.Protected)
}

func (z *Interpreter) showStatus() error {
	st, err := z.StatusLine()
	if err != nil {
		return err
	}
	z.out.ShowStatus(st)
	return nil
}

// StatusLine builds the status line from globals 0-2.
func (z *Interpreter) StatusLine() (StatusLine, error) {
	var st StatusLine
	g := make([]uint16, 3)
	for i := range g {
		v, err := z.story.ReadGlobal(uint8(i))
		if err != nil {
			return st, err
		}
		g[i] = v
	}
	if g[0] != NULL_OBJECT_INDEX {
		name, err := z.story.ObjectName(g[0])
		if err != nil {
			return st, err
		}
		st.Location = name
	}
	st.TimeGame = z.story.Header.TimeGame()
	if st.TimeGame {
		st.Hours, st.Minutes = int(g[1]), int(g[2])
	} else {
		st.Score, st.Turns = Signed16(g[1]), int(g[2])
	}
	return st, nil
}

// resumeRead finishes a pending read if the input source has a line.
func (z *Interpreter) resumeRead() error {
	line, ok := z.in.ReadLine()
	if !ok {
		return nil
	}
	r := z.pendingRead
	if err := z.completeRead(r, line); err != nil {
		return err
	}
	z.pendingRead = nil
	z.state = Running
	z.in.SetWaitingForLine(false)
	z.pc = r.Next
	return nil
}

func (z *Interpreter) completeRead(r *ReadLine, line string) error {
	mem := z.story.Protected

	maxChars, err := mem.Byte(r.TextBuffer)
	if err != nil {
		return err
	}
	if maxChars == 0 {
		return instructionErrorf("text buffer at 0x%X has no room", r.TextBuffer)
	}
	maxChars--

	input := make([]byte, 0, len(line))
	for _, ch := range strings.ToLower(strings.TrimRight(line, "\r\n")) {
		if len(input) >= int(maxChars) {
			break
		}
		code, ok := zsciiCode(ch)
		if !ok || code > 0xFF {
			code = '?'
		}
		input = append(input, uint8(code))
	}
	for i, ch := range input {
		if err := mem.SetByte(r.TextBuffer+1+uint32(i), ch); err != nil {
			return err
		}
	}
	if err := mem.SetByte(r.TextBuffer+1+uint32(len(input)), 0); err != nil {
		return err
	}

	maxTokens, err := mem.Byte(r.ParseBuffer)
	if err != nil {
		return err
	}
	tokens := z.story.Dictionary.Split(string(input))
	if len(tokens) > int(maxTokens) {
		tokens = tokens[:maxTokens]
	}
	if err := mem.SetByte(r.ParseBuffer+1, uint8(len(tokens))); err != nil {
		return err
	}

	// "Each block consists of the byte address of the word in the dictionary, if it is in the dictionary, or 0 if it isn't;
	// followed by a byte giving the number of letters in the word; and finally a byte giving the position in the text-buffer
	// of the first letter of the word.
	block := r.ParseBuffer + 2
	for _, t := range tokens {
		address, err := z.story.Dictionary.Lookup(t.Word)
		if err != nil {
			address = DICT_NOT_FOUND
		}
		if err := mem.SetWord(block, uint16(address)); err != nil {
			return err
		}
		if err := mem.SetByte(block+2, uint8(len(t.Word))); err != nil {
			return err
		}
		if err := mem.SetByte(block+3, uint8(t.Start+1)); err != nil {
			return err
		}
		block += 4
	}
	return nil
}
