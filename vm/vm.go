package vm

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultPollTimeout bounds the wait for a key on each read of KBSR.
const DefaultPollTimeout = time.Second

type Config struct {
	Start       *Word         // PC after Reset; UserSpaceStart when nil
	PollTimeout time.Duration // keyboard status poll; DefaultPollTimeout when zero
	Compat      bool          // reproduce the reference emulator's decoding defects
	Logger      hclog.Logger
}

// Machine is one LC-3: memory, registers and the terminal it talks to.
// A Machine must only be used from one goroutine at a time.
type Machine struct {
	Memory *Memory
	Reg    Registers

	term     Terminal
	keyboard *Keyboard
	log      hclog.Logger
	start    Word
	compat   bool
	decode   func(Word) Instruction

	running bool
	steps   uint64
}

// New builds a machine attached to term, which may be nil for a machine that
// never performs I/O. The machine is reset and ready to run.
func New(term Terminal, cfg Config) *Machine {
	start := UserSpaceStart
	if cfg.Start != nil {
		start = *cfg.Start
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	m := &Machine{
		Memory: NewMemory(),
		term:   term,
		log:    cfg.Logger,
		start:  start,
		compat: cfg.Compat,
		decode: Decode,
	}
	if cfg.Compat {
		m.decode = DecodeCompat
	}

	m.keyboard = NewKeyboard(term, cfg.PollTimeout)
	m.Memory.Map(KBSR, m.keyboard)

	m.Reset()
	return m
}

// Reset clears the registers and any pending keyboard failure, points PC at
// the start address and marks the machine running. Memory is left alone.
func (m *Machine) Reset() {
	m.keyboard.reset()
	m.Reg = Registers{}
	m.Reg[PC] = m.start
	m.Reg[COND] = FlagZro
	m.running = true
	m.steps = 0
}

func (m *Machine) Running() bool { return m.running }

// Steps is the number of instructions executed since the last Reset.
func (m *Machine) Steps() uint64 { return m.steps }

// Decode decodes raw the way this machine executes it.
func (m *Machine) Decode(raw Word) Instruction { return m.decode(raw) }

// LoadFile loads an image file into memory and logs where it went.
func (m *Machine) LoadFile(path string) (Image, error) {
	img, err := m.Memory.LoadFile(path)
	if err != nil {
		return img, err
	}
	m.log.Info("loaded image", "path", path, "origin", fmt.Sprintf("x%04X", img.Origin), "words", img.Words)
	if img.Dropped > 0 {
		m.log.Warn("image runs past end of memory", "path", path, "dropped", img.Dropped)
	}
	return img, nil
}

// Step fetches, decodes and executes one instruction.
func (m *Machine) Step(ctx context.Context) error {
	if !m.running {
		return ErrHalted
	}

	m.keyboard.ctx = ctx
	defer func() { m.keyboard.ctx = nil }()

	pc := m.Reg[PC]
	in := m.decode(m.Memory.Read(pc))
	m.Reg[PC]++
	m.steps++

	if m.log.IsTrace() {
		m.log.Trace("exec", "pc", fmt.Sprintf("x%04X", pc), "instr", in.String())
	}

	var err error
	if in.Op == OpTRAP {
		err = m.trap(ctx, in.Vector)
	} else {
		executors[in.Op](m, in)
	}
	if kerr := m.keyboard.takeErr(); err == nil {
		err = kerr
	}
	if err != nil {
		return fmt.Errorf("x%04X %v: %w", pc, in, err)
	}
	return nil
}

// Run executes instructions until HALT, a terminal failure or ctx is done.
// Halting returns nil.
func (m *Machine) Run(ctx context.Context) error {
	for m.running {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}
