package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	zmachine "github.com/moosepod/moosezmachine-sub000"
)

// terminalOutput writes story text to stdout and draws the status line in
// reverse video before each prompt.
type terminalOutput struct {
	w      *bufio.Writer
	width  int
	status bool
}

func (t *terminalOutput) PrintStr(s string) {
	t.w.WriteString(s)
}

func (t *terminalOutput) NewLine() {
	t.w.WriteByte('\n')
}

func (t *terminalOutput) ShowStatus(st zmachine.StatusLine) {
	if !t.status {
		return
	}
	right := fmt.Sprintf("Score: %d  Turns: %d", st.Score, st.Turns)
	if st.TimeGame {
		right = fmt.Sprintf("Time: %d:%02d", st.Hours, st.Minutes)
	}
	// Location names can hold accented characters; pad by display width.
	pad := t.width - runewidth.StringWidth(st.Location) - len(right) - 2
	if pad < 1 {
		pad = 1
	}
	line := " " + st.Location + strings.Repeat(" ", pad) + right + " "
	fmt.Fprintf(t.w, "\n%s\n", termenv.String(line).Reverse())
}

func (t *terminalOutput) Flush() {
	t.w.Flush()
}

// fileSaves asks for a file name each time the story saves or restores.
type fileSaves struct {
	in  *bufio.Reader
	out *terminalOutput
}

func (f *fileSaves) filename() (string, error) {
	f.out.PrintStr("Enter a file name: ")
	f.out.Flush()
	line, err := f.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return "", errors.New("no file name given")
	}
	return name, nil
}

func (f *fileSaves) Save(data []byte) error {
	name, err := f.filename()
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

func (f *fileSaves) Restore() ([]byte, error) {
	name, err := f.filename()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}

// advertise tells the story what this terminal can do. A restart resets
// these bits, so it runs again after one.
func advertise(h *zmachine.ZHeader, interactive bool) error {
	if err := h.SetStatusLineAvailable(interactive); err != nil {
		return err
	}
	if err := h.SetScreenSplitAvailable(false); err != nil {
		return err
	}
	return h.SetVariablePitchDefault(false)
}

func main() {
	debug := flag.Bool("debug", false, "trace every instruction")
	seed := flag.Int64("seed", 0, "run the random number generator in predictable mode with this seed")
	width := flag.Int("width", 0, "status line width (defaults to the terminal width)")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: zplay [-debug] [-seed n] [-width n] story.z3")
		os.Exit(2)
	}

	buffer, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	story, err := zmachine.NewStory(buffer)
	if err != nil {
		log.Fatal(err)
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	out := &terminalOutput{w: bufio.NewWriter(os.Stdout), width: *width, status: interactive}
	if out.width == 0 {
		out.width = 80
		if interactive {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				out.width = w
			}
		}
	}
	if err := advertise(story.Header, interactive); err != nil {
		log.Fatal(err)
	}

	stdin := bufio.NewReader(os.Stdin)
	in := &zmachine.LineInput{}
	opts := []zmachine.Option{zmachine.WithSaveStore(&fileSaves{in: stdin, out: out})}
	if *seed != 0 {
		opts = append(opts, zmachine.WithPredictableSeed(*seed))
	}
	zm := zmachine.NewInterpreter(story, out, in, opts...)

	for {
		err := zm.Run()
		switch {
		case err == nil:
			out.Flush()
			line, rerr := stdin.ReadString('\n')
			if rerr != nil && (line == "" || !errors.Is(rerr, io.EOF)) {
				out.NewLine()
				out.Flush()
				return
			}
			in.Push(strings.TrimRight(line, "\r\n"))
		case errors.Is(err, zmachine.ErrQuit):
			out.Flush()
			return
		case errors.Is(err, zmachine.ErrRestart):
			if err := advertise(story.Header, interactive); err != nil {
				log.Fatal(err)
			}
			log.Info("story restarted")
		default:
			out.Flush()
			log.Fatal(err)
		}
	}
}
