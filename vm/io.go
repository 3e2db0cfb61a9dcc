package vm

import (
	"context"
	"time"
)

// memory mapped register addresses
const (
	KBSR = MemoryMappedRegistersStart          /* keyboard status register */
	KBDR = MemoryMappedRegistersStart + 0x0002 /* keyboard data register */
)

const keyReady Word = 1 << 15

// Input is the keyboard side of the terminal the machine is attached to.
type Input interface {
	// KeyAvailable reports whether a key can be read, waiting at most timeout.
	KeyAvailable(timeout time.Duration) bool
	ReadChar(ctx context.Context) (byte, error)
	ReadCharEcho(ctx context.Context) (byte, error)
}

// Output is the display side of the terminal.
type Output interface {
	WriteChar(c byte) error
	Flush() error
}

type Terminal interface {
	Input
	Output
}

// Keyboard latches terminal input into KBSR/KBDR when a program reads KBSR.
type Keyboard struct {
	in      Input
	timeout time.Duration
	ctx     context.Context // of the instruction being executed
	err     error
}

func NewKeyboard(in Input, timeout time.Duration) *Keyboard {
	return &Keyboard{in: in, timeout: timeout}
}

func (k *Keyboard) Observe(mem *Memory, addr Word) {
	if addr != KBSR {
		return
	}
	ctx := k.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// a cancelled run sees no key rather than waiting out the poll
	if k.in == nil || ctx.Err() != nil || !k.in.KeyAvailable(k.timeout) {
		mem.Write(KBSR, 0)
		return
	}
	c, err := k.in.ReadChar(ctx)
	if err != nil {
		k.err = err
		mem.Write(KBSR, 0)
		return
	}
	mem.Write(KBSR, keyReady)
	mem.Write(KBDR, Word(c))
}

func (k *Keyboard) reset() {
	k.ctx = nil
	k.err = nil
}

// takeErr returns and clears the last read failure.
func (k *Keyboard) takeErr() error {
	err := k.err
	k.err = nil
	return err
}
