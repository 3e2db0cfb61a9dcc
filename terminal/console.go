// Package terminal attaches the machine to the process console: raw mode on
// stdin, polled key reads and buffered output.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// pollSlice is how long a blocking read waits between context checks.
const pollSlice = 50 * time.Millisecond

// Console implements vm.Terminal over a file and a writer.
type Console struct {
	in  *os.File
	r   *bufio.Reader
	w   *bufio.Writer
	tty bool

	originalTerminalConfig unix.Termios
	raw                    bool
	eof                    bool
}

func New(in *os.File, out io.Writer) *Console {
	return &Console{
		in:  in,
		r:   bufio.NewReader(in),
		w:   bufio.NewWriter(out),
		tty: term.IsTerminal(int(in.Fd())),
	}
}

// IsTerminal reports whether input is an interactive terminal.
func (c *Console) IsTerminal() bool { return c.tty }

// EnableRawMode turns off line buffering and echo so keys reach the
// machine as they are typed. It does nothing when input is not a terminal.
func (c *Console) EnableRawMode() error {
	if !c.tty || c.raw {
		return nil
	}
	fd := c.in.Fd()
	if err := termios.Tcgetattr(fd, &c.originalTerminalConfig); err != nil {
		return fmt.Errorf("get terminal attributes: %w", err)
	}
	newTermios := c.originalTerminalConfig
	newTermios.Lflag &^= unix.ICANON | unix.ECHO
	if err := termios.Tcsetattr(fd, termios.TCSANOW, &newTermios); err != nil {
		return fmt.Errorf("set terminal attributes: %w", err)
	}
	c.raw = true
	return nil
}

// Restore flushes pending output and puts the terminal back the way
// EnableRawMode found it. It is safe to call more than once.
func (c *Console) Restore() error {
	err := c.w.Flush()
	if !c.raw {
		return err
	}
	c.raw = false
	if serr := termios.Tcsetattr(c.in.Fd(), termios.TCSANOW, &c.originalTerminalConfig); serr != nil {
		return fmt.Errorf("restore terminal attributes: %w", serr)
	}
	return err
}

// KeyAvailable waits up to timeout for input to become readable.
func (c *Console) KeyAvailable(timeout time.Duration) bool {
	if c.r.Buffered() > 0 {
		return true
	}
	if c.eof {
		return false
	}

	fd := int(c.in.Fd())
	var fds unix.FdSet
	fds.Zero()
	fds.Set(fd)
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(fd+1, &fds, nil, nil, &tv)
	if err != nil || n == 0 {
		return false
	}
	if _, err := c.r.Peek(1); err != nil {
		c.eof = true
		return false
	}
	return true
}

// ReadChar blocks until a key arrives, input ends or ctx is done.
func (c *Console) ReadChar(ctx context.Context) (byte, error) {
	for {
		if c.KeyAvailable(pollSlice) {
			return c.r.ReadByte()
		}
		if c.eof {
			return 0, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

// ReadCharEcho is ReadChar followed by writing the key back out.
func (c *Console) ReadCharEcho(ctx context.Context) (byte, error) {
	b, err := c.ReadChar(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.WriteChar(b); err != nil {
		return b, err
	}
	return b, c.Flush()
}

// ReadLine reads one line of input without its line ending. It is meant for
// cooked, non-interactive input such as a script piped to the debugger.
func (c *Console) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

func (c *Console) WriteChar(b byte) error {
	return c.w.WriteByte(b)
}

func (c *Console) Flush() error {
	return c.w.Flush()
}
