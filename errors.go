package zmachine

import (
	"errors"
	"fmt"
)

// Normal termination signals raised by the story. These are not faults.
var (
	ErrQuit    = errors.New("Z-machine quit")
	ErrRestart = errors.New("Z-machine restart")
)

// StoryFileError reports an image that cannot be loaded.
type StoryFileError struct {
	Msg string
}

func (e *StoryFileError) Error() string {
	return "story file: " + e.Msg
}

// MemoryAccessError reports an out-of-range or protected memory access.
type MemoryAccessError struct {
	Address uint32
	Msg     string
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access at 0x%X: %s", e.Address, e.Msg)
}

// InstructionError reports a fault while decoding or executing one instruction.
type InstructionError struct {
	Msg string
}

func (e *InstructionError) Error() string {
	return "instruction: " + e.Msg
}

// InterpreterError reports a broken call stack or variable reference.
type InterpreterError struct {
	Msg string
}

func (e *InterpreterError) Error() string {
	return "interpreter: " + e.Msg
}

// TextCodecError reports malformed encoded text.
type TextCodecError struct {
	Msg string
}

func (e *TextCodecError) Error() string {
	return "text: " + e.Msg
}

// InvalidSaveDataError is returned when a snapshot does not match the loaded
// story. The running state is left untouched.
type InvalidSaveDataError struct {
	Msg string
}

func (e *InvalidSaveDataError) Error() string {
	return "invalid save data: " + e.Msg
}

// StepError carries the position of a fatal fault raised by Step.
type StepError struct {
	PC          uint32
	Instruction string
	Err         error
}

func (e *StepError) Error() string {
	if e.Instruction == "" {
		return fmt.Sprintf("at 0x%X: %v", e.PC, e.Err)
	}
	return fmt.Sprintf("at 0x%X [%s]: %v", e.PC, e.Instruction, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func instructionErrorf(format string, v ...interface{}) error {
	return &InstructionError{Msg: fmt.Sprintf(format, v...)}
}

func interpreterErrorf(format string, v ...interface{}) error {
	return &InterpreterError{Msg: fmt.Sprintf(format, v...)}
}

func textErrorf(format string, v ...interface{}) error {
	return &TextCodecError{Msg: fmt.Sprintf(format, v...)}
}
