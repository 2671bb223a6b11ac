package zmachine

import (
	"strings"
	"unicode/utf8"
)

// StatusLine is what show_status renders. TimeGame selects Hours/Minutes
// over Score/Turns.
type StatusLine struct {
	Location string
	TimeGame bool
	Hours    int
	Minutes  int
	Score    int
	Turns    int
}

// OutputSink receives everything the story prints.
type OutputSink interface {
	PrintStr(s string)
	NewLine()
	ShowStatus(st StatusLine)
	Flush()
}

// InputSource supplies lines for sread. ReadLine returns false while no
// line is ready; the interpreter then stays in WaitingForLine.
type InputSource interface {
	ReadLine() (string, bool)
	WaitingForLine() bool
	SetWaitingForLine(waiting bool)
}

// memoryStream is output stream 3: text goes into a table whose first word
// receives the number of bytes written when the stream is deselected.
type memoryStream struct {
	table  uint32
	length uint16
}

func (m *memoryStream) write(mem *ProtectedMemory, s string) error {
	for _, ch := range s {
		code, ok := zsciiCode(ch)
		switch {
		case ch == '\n':
			code = 13
		case !ok:
			code = '?'
		}
		if err := mem.SetByte(m.table+2+uint32(m.length), uint8(code)); err != nil {
			return err
		}
		m.length++
	}
	return nil
}

func (m *memoryStream) close(mem *ProtectedMemory) error {
	return mem.SetWord(m.table, m.length)
}

// BufferedOutput collects output in memory. Useful for hosts that render
// a turn at a time, and for tests.
type BufferedOutput struct {
	sb     strings.Builder
	Status StatusLine
	// Flushed holds the text handed off by each Flush call.
	Flushed []string
}

func (b *BufferedOutput) PrintStr(s string) {
	b.sb.WriteString(s)
}

func (b *BufferedOutput) NewLine() {
	b.sb.WriteByte('\n')
}

func (b *BufferedOutput) ShowStatus(st StatusLine) {
	b.Status = st
}

func (b *BufferedOutput) Flush() {
	if b.sb.Len() == 0 {
		return
	}
	b.Flushed = append(b.Flushed, b.sb.String())
	b.sb.Reset()
}

// String returns everything printed so far, flushed or not.
func (b *BufferedOutput) String() string {
	return strings.Join(b.Flushed, "") + b.sb.String()
}

// LineInput is a queue of input lines. Hosts push whole lines, or feed
// characters one at a time with CharPressed.
type LineInput struct {
	lines   []string
	partial []rune
	waiting bool
}

func (l *LineInput) Push(line string) {
	l.lines = append(l.lines, line)
}

// CharPressed adds one character to the line being typed. Enter completes
// the line; backspace removes the last character.
func (l *LineInput) CharPressed(ch rune) {
	switch ch {
	case '\r', '\n':
		l.lines = append(l.lines, string(l.partial))
		l.partial = l.partial[:0]
	case '\b', 0x7F:
		if len(l.partial) > 0 {
			l.partial = l.partial[:len(l.partial)-1]
		}
	default:
		if ch != utf8.RuneError {
			l.partial = append(l.partial, ch)
		}
	}
}

func (l *LineInput) ReadLine() (string, bool) {
	if len(l.lines) == 0 {
		return "", false
	}
	line := l.lines[0]
	l.lines = l.lines[1:]
	return line, true
}

func (l *LineInput) Pending() int {
	return len(l.lines)
}

func (l *LineInput) WaitingForLine() bool {
	return l.waiting
}

func (l *LineInput) SetWaitingForLine(waiting bool) {
	l.waiting = waiting
}
