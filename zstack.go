package zmachine

// Routine is one call frame: locals, a private evaluation stack, where to
// resume on return and which variable receives the result.
type Routine struct {
	Locals   []uint16
	Stack    []uint16
	ReturnTo uint32

	Store         bool
	StoreVariable uint8
}

func (r *Routine) Push(value uint16) error {
	if len(r.Stack) >= MAX_STACK {
		return interpreterErrorf("stack overflow")
	}
	r.Stack = append(r.Stack, value)
	return nil
}

func (r *Routine) Pop() (uint16, error) {
	if len(r.Stack) == 0 {
		return 0, interpreterErrorf("trying to pop from empty stack")
	}
	retValue := r.Stack[len(r.Stack)-1]
	r.Stack = r.Stack[:len(r.Stack)-1]
	return retValue, nil
}

// Peek returns the top of the stack without removing it.
func (r *Routine) Peek() (uint16, error) {
	if len(r.Stack) == 0 {
		return 0, interpreterErrorf("stack underflow")
	}
	return r.Stack[len(r.Stack)-1], nil
}

func (r *Routine) setTop(value uint16) error {
	if len(r.Stack) == 0 {
		return interpreterErrorf("stack underflow")
	}
	r.Stack[len(r.Stack)-1] = value
	return nil
}

func (r *Routine) validateLocalVarIndex(n uint8) error {
	if n < 1 || n > MAX_LOCALS {
		return interpreterErrorf("local var index %d out of bounds", n)
	}
	if int(n) > len(r.Locals) {
		return interpreterErrorf("local %d not declared (routine has %d)", n, len(r.Locals))
	}
	return nil
}

// GetLocalVar reads 1-based local n.
func (r *Routine) GetLocalVar(n uint8) (uint16, error) {
	if err := r.validateLocalVarIndex(n); err != nil {
		return 0, err
	}
	return r.Locals[n-1], nil
}

func (r *Routine) SetLocalVar(n uint8, value uint16) error {
	if err := r.validateLocalVarIndex(n); err != nil {
		return err
	}
	r.Locals[n-1] = value
	return nil
}

func (r *Routine) clone() *Routine {
	c := *r
	c.Locals = append([]uint16(nil), r.Locals...)
	c.Stack = append([]uint16(nil), r.Stack...)
	return &c
}

// CallStack holds the routine frames. It is never empty while a story runs.
type CallStack struct {
	frames []*Routine
}

func (s *CallStack) Push(r *Routine) error {
	if len(s.frames) >= MAX_CALL_DEPTH {
		return interpreterErrorf("call stack overflow")
	}
	s.frames = append(s.frames, r)
	return nil
}

// Pop removes the current frame. Popping the outermost frame is an error.
func (s *CallStack) Pop() (*Routine, error) {
	if len(s.frames) <= 1 {
		return nil, interpreterErrorf("return from main routine")
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Current returns the top frame.
func (s *CallStack) Current() *Routine {
	return s.frames[len(s.frames)-1]
}

func (s *CallStack) Depth() int {
	return len(s.frames)
}

func (s *CallStack) Frames() []*Routine {
	return s.frames
}

func (s *CallStack) Reset() {
	s.frames = []*Routine{{}}
}
