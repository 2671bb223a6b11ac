package zmachine

// OperandHint says how an operand value is interpreted once its storage type
// is known. Variable operands are dereferenced first, then reinterpreted.
type OperandHint int

const (
	HintUnsigned OperandHint = iota
	HintSigned
	HintAddress
	HintPacked
	HintVariable
)

type opHandler func(z *Interpreter, in *Instruction, args []int) (Action, error)

// Opcode describes one instruction. Extra operands beyond Hints take the
// last hint.
type Opcode struct {
	Name       string
	Hints      []OperandHint
	MinArgs    int
	Store      bool
	Branch     bool
	Literal    bool
	MinVersion uint8

	handler opHandler
}

func (o *Opcode) hint(i int) OperandHint {
	if len(o.Hints) == 0 {
		return HintUnsigned
	}
	if i >= len(o.Hints) {
		return o.Hints[len(o.Hints)-1]
	}
	return o.Hints[i]
}

const (
	uns = HintUnsigned
	sig = HintSigned
	adr = HintAddress
	pak = HintPacked
	vrf = HintVariable
)

var ZFunctions_2OP = [32]*Opcode{
	1:  {Name: "je", Hints: []OperandHint{uns}, MinArgs: 2, Branch: true, handler: ZJumpEqual},
	2:  {Name: "jl", Hints: []OperandHint{sig, sig}, MinArgs: 2, Branch: true, handler: ZJumpLess},
	3:  {Name: "jg", Hints: []OperandHint{sig, sig}, MinArgs: 2, Branch: true, handler: ZJumpGreater},
	4:  {Name: "dec_chk", Hints: []OperandHint{vrf, sig}, MinArgs: 2, Branch: true, handler: ZDecChk},
	5:  {Name: "inc_chk", Hints: []OperandHint{vrf, sig}, MinArgs: 2, Branch: true, handler: ZIncChk},
	6:  {Name: "jin", Hints: []OperandHint{uns, uns}, MinArgs: 2, Branch: true, handler: ZJin},
	7:  {Name: "test", Hints: []OperandHint{uns, uns}, MinArgs: 2, Branch: true, handler: ZTest},
	8:  {Name: "or", Hints: []OperandHint{uns, uns}, MinArgs: 2, Store: true, handler: ZOr},
	9:  {Name: "and", Hints: []OperandHint{uns, uns}, MinArgs: 2, Store: true, handler: ZAnd},
	10: {Name: "test_attr", Hints: []OperandHint{uns, uns}, MinArgs: 2, Branch: true, handler: ZTestAttr},
	11: {Name: "set_attr", Hints: []OperandHint{uns, uns}, MinArgs: 2, handler: ZSetAttr},
	12: {Name: "clear_attr", Hints: []OperandHint{uns, uns}, MinArgs: 2, handler: ZClearAttr},
	13: {Name: "store", Hints: []OperandHint{vrf, uns}, MinArgs: 2, handler: ZStore},
	14: {Name: "insert_obj", Hints: []OperandHint{uns, uns}, MinArgs: 2, handler: ZInsertObj},
	15: {Name: "loadw", Hints: []OperandHint{adr, uns}, MinArgs: 2, Store: true, handler: ZLoadW},
	16: {Name: "loadb", Hints: []OperandHint{adr, uns}, MinArgs: 2, Store: true, handler: ZLoadB},
	17: {Name: "get_prop", Hints: []OperandHint{uns, uns}, MinArgs: 2, Store: true, handler: ZGetProp},
	18: {Name: "get_prop_addr", Hints: []OperandHint{uns, uns}, MinArgs: 2, Store: true, handler: ZGetPropAddr},
	19: {Name: "get_next_prop", Hints: []OperandHint{uns, uns}, MinArgs: 2, Store: true, handler: ZGetNextProp},
	20: {Name: "add", Hints: []OperandHint{sig, sig}, MinArgs: 2, Store: true, handler: ZAdd},
	21: {Name: "sub", Hints: []OperandHint{sig, sig}, MinArgs: 2, Store: true, handler: ZSub},
	22: {Name: "mul", Hints: []OperandHint{sig, sig}, MinArgs: 2, Store: true, handler: ZMul},
	23: {Name: "div", Hints: []OperandHint{sig, sig}, MinArgs: 2, Store: true, handler: ZDiv},
	24: {Name: "mod", Hints: []OperandHint{sig, sig}, MinArgs: 2, Store: true, handler: ZMod},
}

var ZFunctions_1OP = [16]*Opcode{
	0:  {Name: "jz", Hints: []OperandHint{uns}, MinArgs: 1, Branch: true, handler: ZJumpZero},
	1:  {Name: "get_sibling", Hints: []OperandHint{uns}, MinArgs: 1, Store: true, Branch: true, handler: ZGetSibling},
	2:  {Name: "get_child", Hints: []OperandHint{uns}, MinArgs: 1, Store: true, Branch: true, handler: ZGetChild},
	3:  {Name: "get_parent", Hints: []OperandHint{uns}, MinArgs: 1, Store: true, handler: ZGetParent},
	4:  {Name: "get_prop_len", Hints: []OperandHint{adr}, MinArgs: 1, Store: true, handler: ZGetPropLen},
	5:  {Name: "inc", Hints: []OperandHint{vrf}, MinArgs: 1, handler: ZInc},
	6:  {Name: "dec", Hints: []OperandHint{vrf}, MinArgs: 1, handler: ZDec},
	7:  {Name: "print_addr", Hints: []OperandHint{adr}, MinArgs: 1, handler: ZPrintAddr},
	9:  {Name: "remove_obj", Hints: []OperandHint{uns}, MinArgs: 1, handler: ZRemoveObj},
	10: {Name: "print_obj", Hints: []OperandHint{uns}, MinArgs: 1, handler: ZPrintObj},
	11: {Name: "ret", Hints: []OperandHint{uns}, MinArgs: 1, handler: ZRet},
	12: {Name: "jump", Hints: []OperandHint{sig}, MinArgs: 1, handler: ZJump},
	13: {Name: "print_paddr", Hints: []OperandHint{pak}, MinArgs: 1, handler: ZPrintPAddr},
	14: {Name: "load", Hints: []OperandHint{vrf}, MinArgs: 1, Store: true, handler: ZLoad},
	15: {Name: "not", Hints: []OperandHint{uns}, MinArgs: 1, Store: true, handler: ZNot},
}

var ZFunctions_0OP = [16]*Opcode{
	0:  {Name: "rtrue", handler: ZReturnTrue},
	1:  {Name: "rfalse", handler: ZReturnFalse},
	2:  {Name: "print", Literal: true, handler: ZPrint},
	3:  {Name: "print_ret", Literal: true, handler: ZPrintRet},
	4:  {Name: "nop", handler: ZNop},
	5:  {Name: "save", Branch: true, handler: ZSave},
	6:  {Name: "restore", Branch: true, handler: ZRestore},
	7:  {Name: "restart", handler: ZRestart},
	8:  {Name: "ret_popped", handler: ZRetPopped},
	9:  {Name: "pop", handler: ZPop},
	10: {Name: "quit", handler: ZQuit},
	11: {Name: "new_line", handler: ZNewLine},
	12: {Name: "show_status", MinVersion: 3, handler: ZShowStatus},
	13: {Name: "verify", Branch: true, MinVersion: 3, handler: ZVerify},
}

var ZFunctions_VAR = [32]*Opcode{
	0:  {Name: "call", Hints: []OperandHint{pak, uns}, MinArgs: 1, Store: true, handler: ZCall},
	1:  {Name: "storew", Hints: []OperandHint{adr, uns, uns}, MinArgs: 3, handler: ZStoreW},
	2:  {Name: "storeb", Hints: []OperandHint{adr, uns, uns}, MinArgs: 3, handler: ZStoreB},
	3:  {Name: "put_prop", Hints: []OperandHint{uns, uns, uns}, MinArgs: 3, handler: ZPutProp},
	4:  {Name: "sread", Hints: []OperandHint{adr, adr}, MinArgs: 2, handler: ZRead},
	5:  {Name: "print_char", Hints: []OperandHint{uns}, MinArgs: 1, handler: ZPrintChar},
	6:  {Name: "print_num", Hints: []OperandHint{sig}, MinArgs: 1, handler: ZPrintNum},
	7:  {Name: "random", Hints: []OperandHint{sig}, MinArgs: 1, Store: true, handler: ZRandom},
	8:  {Name: "push", Hints: []OperandHint{uns}, MinArgs: 1, handler: ZPush},
	9:  {Name: "pull", Hints: []OperandHint{vrf}, MinArgs: 1, handler: ZPull},
	10: {Name: "split_window", Hints: []OperandHint{uns}, MinArgs: 1, MinVersion: 3, handler: ZScreenNop},
	11: {Name: "set_window", Hints: []OperandHint{uns}, MinArgs: 1, MinVersion: 3, handler: ZScreenNop},
	19: {Name: "output_stream", Hints: []OperandHint{sig, adr}, MinArgs: 1, MinVersion: 3, handler: ZOutputStream},
	20: {Name: "input_stream", Hints: []OperandHint{uns}, MinArgs: 1, MinVersion: 3, handler: ZScreenNop},
	21: {Name: "sound_effect", Hints: []OperandHint{uns}, MinVersion: 3, handler: ZScreenNop},
}

// lookupOpcode returns nil for numbers with no opcode in versions 1-3.
func lookupOpcode(count OperandCount, number uint8) *Opcode {
	switch count {
	case OP0:
		if int(number) < len(ZFunctions_0OP) {
			return ZFunctions_0OP[number]
		}
	case OP1:
		if int(number) < len(ZFunctions_1OP) {
			return ZFunctions_1OP[number]
		}
	case OP2:
		if int(number) < len(ZFunctions_2OP) {
			return ZFunctions_2OP[number]
		}
	case VAR:
		if int(number) < len(ZFunctions_VAR) {
			return ZFunctions_VAR[number]
		}
	}
	return nil
}
