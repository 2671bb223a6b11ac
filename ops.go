package zmachine

import (
	"strconv"

	log "github.com/sirupsen/logrus"
)

// GenericBranch resolves an instruction's branch against the condition.
// Offsets 0 and 1 mean "return false" and "return true" from the current
// routine; anything else jumps relative to the end of the instruction.
func GenericBranch(in *Instruction, conditionSatisfied bool) Action {
	if conditionSatisfied != in.Branch.OnTrue {
		return NextInstruction{Addr: in.Next}
	}
	switch in.Branch.Offset {
	case 0:
		return Return{Value: 0}
	case 1:
		return Return{Value: 1}
	}
	// "Otherwise, a branch moves execution to the instruction at address
	// Address after branch data + Offset - 2."
	return Jump{Offset: in.Branch.Offset, Addr: in.Next}
}

func next(in *Instruction) Action {
	return NextInstruction{Addr: in.Next}
}

func (z *Interpreter) StoreResult(in *Instruction, v uint16) (Action, error) {
	if err := z.setVariable(in.StoreVariable, v); err != nil {
		return nil, err
	}
	return next(in), nil
}

// storeAndBranch stores v, then branches when v is not 0.
func (z *Interpreter) storeAndBranch(in *Instruction, v uint16) (Action, error) {
	if err := z.setVariable(in.StoreVariable, v); err != nil {
		return nil, err
	}
	return GenericBranch(in, v != NULL_OBJECT_INDEX), nil
}

func ZJumpEqual(z *Interpreter, in *Instruction, args []int) (Action, error) {
	conditionSatisfied := false
	for _, b := range args[1:] {
		if args[0] == b {
			conditionSatisfied = true
		}
	}
	return GenericBranch(in, conditionSatisfied), nil
}

func ZJumpLess(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return GenericBranch(in, args[0] < args[1]), nil
}

func ZJumpGreater(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return GenericBranch(in, args[0] > args[1]), nil
}

// dec_chk (variable) value ?(label)
// Decrement variable, and branch if it is now less than the given value.
func ZDecChk(z *Interpreter, in *Instruction, args []int) (Action, error) {
	newValue, err := z.AddToVar(uint8(args[0]), -1)
	if err != nil {
		return nil, err
	}
	return GenericBranch(in, Signed16(newValue) < args[1]), nil
}

// inc_chk (variable) value ?(label)
// Increment variable, and branch if now greater than value.
func ZIncChk(z *Interpreter, in *Instruction, args []int) (Action, error) {
	newValue, err := z.AddToVar(uint8(args[0]), 1)
	if err != nil {
		return nil, err
	}
	return GenericBranch(in, Signed16(newValue) > args[1]), nil
}

//  jin obj1 obj2 ?(label)
// Jump if object a is a direct child of b, i.e., if parent of a is b.
func ZJin(z *Interpreter, in *Instruction, args []int) (Action, error) {
	parent, err := z.story.Objects.Parent(uint16(args[0]))
	if err != nil {
		return nil, err
	}
	return GenericBranch(in, parent == uint16(args[1])), nil
}

// test bitmap flags ?(label)
// Jump if all of the flags in bitmap are set (i.e. if bitmap & flags == flags).
func ZTest(z *Interpreter, in *Instruction, args []int) (Action, error) {
	bitmap, flags := args[0], args[1]
	return GenericBranch(in, (bitmap&flags) == flags), nil
}

func ZOr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return z.StoreResult(in, uint16(args[0]|args[1]))
}

func ZAnd(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return z.StoreResult(in, uint16(args[0]&args[1]))
}

func ZTestAttr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	set, err := z.story.Objects.TestAttribute(uint16(args[0]), uint16(args[1]))
	if err != nil {
		return nil, err
	}
	return GenericBranch(in, set), nil
}

func ZSetAttr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.story.Objects.SetAttribute(uint16(args[0]), uint16(args[1]), true)
}

func ZClearAttr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.story.Objects.SetAttribute(uint16(args[0]), uint16(args[1]), false)
}

func ZStore(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.setVariableInPlace(uint8(args[0]), uint16(args[1]))
}

func ZInsertObj(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.story.Objects.Insert(uint16(args[0]), uint16(args[1]))
}

// array word-index -> (result)
func ZLoadW(z *Interpreter, in *Instruction, args []int) (Action, error) {
	address := uint32(uint16(args[0] + args[1]*2))
	value, err := z.story.Protected.Word(address)
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, value)
}

func ZLoadB(z *Interpreter, in *Instruction, args []int) (Action, error) {
	address := uint32(uint16(args[0] + args[1]))
	value, err := z.story.Protected.Byte(address)
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, uint16(value))
}

func ZGetProp(z *Interpreter, in *Instruction, args []int) (Action, error) {
	prop, err := z.story.Objects.Property(uint16(args[0]), uint16(args[1]))
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, prop)
}

func ZGetPropAddr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	addr, err := z.story.Objects.PropertyAddress(uint16(args[0]), uint16(args[1]))
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, uint16(addr))
}

func ZGetNextProp(z *Interpreter, in *Instruction, args []int) (Action, error) {
	prop, err := z.story.Objects.NextProperty(uint16(args[0]), uint16(args[1]))
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, prop)
}

func ZAdd(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return z.StoreResult(in, uint16(args[0]+args[1]))
}

func ZSub(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return z.StoreResult(in, uint16(args[0]-args[1]))
}

func ZMul(z *Interpreter, in *Instruction, args []int) (Action, error) {
	r := args[0] * args[1]
	if r < -32768 || r > 32767 {
		return nil, instructionErrorf("multiplication overflow: %d * %d", args[0], args[1])
	}
	return z.StoreResult(in, uint16(r))
}

func ZDiv(z *Interpreter, in *Instruction, args []int) (Action, error) {
	if args[1] == 0 {
		return nil, instructionErrorf("division by zero")
	}
	return z.StoreResult(in, uint16(args[0]/args[1]))
}

func ZMod(z *Interpreter, in *Instruction, args []int) (Action, error) {
	if args[1] == 0 {
		return nil, instructionErrorf("division by zero (mod)")
	}
	return z.StoreResult(in, uint16(args[0]%args[1]))
}

func ZJumpZero(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return GenericBranch(in, args[0] == 0), nil
}

// get_sibling object -> (result) ?(label)
// Get next object in tree, branching if this exists, i.e. is not 0.
func ZGetSibling(z *Interpreter, in *Instruction, args []int) (Action, error) {
	sibling, err := z.story.Objects.Sibling(uint16(args[0]))
	if err != nil {
		return nil, err
	}
	return z.storeAndBranch(in, sibling)
}

// get_child object -> (result) ?(label)
// Get first object contained in given object, branching if this exists, i.e. is not nothing (i.e., is not 0).
func ZGetChild(z *Interpreter, in *Instruction, args []int) (Action, error) {
	child, err := z.story.Objects.Child(uint16(args[0]))
	if err != nil {
		return nil, err
	}
	return z.storeAndBranch(in, child)
}

func ZGetParent(z *Interpreter, in *Instruction, args []int) (Action, error) {
	parent, err := z.story.Objects.Parent(uint16(args[0]))
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, parent)
}

// Arg = direct address of the property block
func ZGetPropLen(z *Interpreter, in *Instruction, args []int) (Action, error) {
	n, err := z.story.Objects.PropertyLength(uint32(args[0]))
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, n)
}

func ZInc(z *Interpreter, in *Instruction, args []int) (Action, error) {
	_, err := z.AddToVar(uint8(args[0]), 1)
	return next(in), err
}

func ZDec(z *Interpreter, in *Instruction, args []int) (Action, error) {
	_, err := z.AddToVar(uint8(args[0]), -1)
	return next(in), err
}

func ZPrintAddr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.printEncoded(uint32(args[0]))
}

func ZRemoveObj(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.story.Objects.Remove(uint16(args[0]))
}

func ZPrintObj(z *Interpreter, in *Instruction, args []int) (Action, error) {
	name, err := z.story.ObjectName(uint16(args[0]))
	if err != nil {
		return nil, err
	}
	return next(in), z.print(name)
}

func ZRet(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Return{Value: uint16(args[0])}, nil
}

// Unconditional jump
func ZJump(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Jump{Offset: args[0], Addr: in.Next}, nil
}

// print_paddr packed-address-of-string
func ZPrintPAddr(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.printEncoded(uint32(args[0]))
}

func ZLoad(z *Interpreter, in *Instruction, args []int) (Action, error) {
	value, err := z.readVariableInPlace(uint8(args[0]))
	if err != nil {
		return nil, err
	}
	return z.StoreResult(in, value)
}

func ZNot(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return z.StoreResult(in, ^uint16(args[0]))
}

func ZReturnTrue(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Return{Value: 1}, nil
}

func ZReturnFalse(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Return{Value: 0}, nil
}

func ZPrint(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.print(in.Text)
}

func ZPrintRet(z *Interpreter, in *Instruction, args []int) (Action, error) {
	if err := z.print(in.Text); err != nil {
		return nil, err
	}
	return Return{Value: 1}, z.newLine()
}

func ZNop(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), nil
}

func ZSave(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Save{Instruction: in}, nil
}

func ZRestore(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Restore{Instruction: in}, nil
}

func ZRestart(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Restart{}, nil
}

func ZRetPopped(z *Interpreter, in *Instruction, args []int) (Action, error) {
	retValue, err := z.stack.Current().Pop()
	if err != nil {
		return nil, err
	}
	return Return{Value: retValue}, nil
}

func ZPop(z *Interpreter, in *Instruction, args []int) (Action, error) {
	_, err := z.stack.Current().Pop()
	return next(in), err
}

func ZQuit(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return Quit{}, nil
}

func ZNewLine(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.newLine()
}

func ZShowStatus(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.showStatus()
}

func ZVerify(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return GenericBranch(in, z.story.Checksum() == z.story.Header.Checksum), nil
}

func ZCall(z *Interpreter, in *Instruction, args []int) (Action, error) {
	callArgs := make([]uint16, 0, len(args)-1)
	for _, arg := range args[1:] {
		callArgs = append(callArgs, uint16(arg))
	}
	return Call{
		Routine:       uint32(args[0]),
		Store:         true,
		StoreVariable: in.StoreVariable,
		ReturnTo:      in.Next,
		Args:          callArgs,
	}, nil
}

//  storew array word-index value
func ZStoreW(z *Interpreter, in *Instruction, args []int) (Action, error) {
	address := uint32(uint16(args[0] + args[1]*2))
	return next(in), z.story.Protected.SetWord(address, uint16(args[2]))
}

func ZStoreB(z *Interpreter, in *Instruction, args []int) (Action, error) {
	address := uint32(uint16(args[0] + args[1]))
	return next(in), z.story.Protected.SetByte(address, uint8(args[2]))
}

func ZPutProp(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.story.Objects.SetProperty(uint16(args[0]), uint16(args[1]), uint16(args[2]))
}

func ZRead(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return ReadLine{TextBuffer: uint32(args[0]), ParseBuffer: uint32(args[1]), Next: in.Next}, nil
}

func ZPrintChar(z *Interpreter, in *Instruction, args []int) (Action, error) {
	ch, err := ZSCIIString(uint16(args[0]))
	if err != nil {
		return nil, err
	}
	return next(in), z.print(ch)
}

func ZPrintNum(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.print(strconv.Itoa(args[0]))
}

// If range is positive, returns a uniformly random number between 1 and range.
// If range is negative, the random number generator is seeded to that value and the return value is 0.
// A range of 0 reseeds the generator in as random a way as the interpreter can.
func ZRandom(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return z.StoreResult(in, uint16(z.story.RNG.RandInt(args[0])))
}

func ZPush(z *Interpreter, in *Instruction, args []int) (Action, error) {
	return next(in), z.stack.Current().Push(uint16(args[0]))
}

func ZPull(z *Interpreter, in *Instruction, args []int) (Action, error) {
	r, err := z.stack.Current().Pop()
	if err != nil {
		return nil, err
	}
	return next(in), z.setVariableInPlace(uint8(args[0]), r)
}

// ZScreenNop accepts window and sound opcodes. Rendering belongs to the
// front end.
func ZScreenNop(z *Interpreter, in *Instruction, args []int) (Action, error) {
	log.WithField("args", args).Warnf("ignoring %s", in.Opcode.Name)
	return next(in), nil
}

// ZOutputStream selects a stream for a positive number and deselects it for
// a negative one. Stream 3 takes the table to print into as its second
// operand; while any table is selected nothing reaches the other streams.
func ZOutputStream(z *Interpreter, in *Instruction, args []int) (Action, error) {
	switch args[0] {
	case 0:
	case 1, -1:
		z.screenOff = args[0] < 0
	case 2, -2:
		if err := z.story.Header.SetTranscripting(args[0] > 0); err != nil {
			return nil, err
		}
	case 3:
		if len(args) < 2 {
			return nil, instructionErrorf("output_stream 3 needs a table address")
		}
		return next(in), z.selectMemoryStream(uint32(args[1]))
	case -3:
		return next(in), z.deselectMemoryStream()
	case 4, -4:
		log.Warnf("output stream %d (command script) is not recorded", args[0])
	default:
		return nil, instructionErrorf("unknown output stream %d", args[0])
	}
	return next(in), nil
}
