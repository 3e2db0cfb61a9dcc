package vm

import "context"

const (
	TrapGETC  uint8 = 0x20 /* get character from keyboard, not echoed onto the terminal */
	TrapOUT   uint8 = 0x21 /* output a character */
	TrapPUTS  uint8 = 0x22 /* output a word string */
	TrapIN    uint8 = 0x23 /* get character from keyboard, echoed onto the terminal */
	TrapPUTSP uint8 = 0x24 /* output a byte string */
	TrapHALT  uint8 = 0x25 /* halt the program */
)

const inPrompt = "Enter a character: "

type trapRoutine func(m *Machine, ctx context.Context) error

var traps = map[uint8]trapRoutine{
	TrapGETC:  (*Machine).getc,
	TrapOUT:   (*Machine).out,
	TrapPUTS:  (*Machine).puts,
	TrapIN:    (*Machine).in,
	TrapPUTSP: (*Machine).putsp,
	TrapHALT:  (*Machine).halt,
}

var trapNames = map[uint8]string{
	TrapGETC:  "GETC",
	TrapOUT:   "OUT",
	TrapPUTS:  "PUTS",
	TrapIN:    "IN",
	TrapPUTSP: "PUTSP",
	TrapHALT:  "HALT",
}

// trap runs the service routine for vector. Unknown vectors do nothing.
func (m *Machine) trap(ctx context.Context, vector uint8) error {
	routine, ok := traps[vector]
	if !ok {
		m.log.Debug("unknown trap vector", "vector", vector)
		return nil
	}
	return routine(m, ctx)
}

func (m *Machine) input() (Input, error) {
	if m.term == nil {
		return nil, ErrNoInput
	}
	return m.term, nil
}

func (m *Machine) output() (Output, error) {
	if m.term == nil {
		return nil, ErrNoOutput
	}
	return m.term, nil
}

func (m *Machine) getc(ctx context.Context) error {
	in, err := m.input()
	if err != nil {
		return err
	}
	c, err := in.ReadChar(ctx)
	if err != nil {
		return err
	}
	m.Reg[R0] = Word(c)
	return nil
}

func (m *Machine) out(context.Context) error {
	out, err := m.output()
	if err != nil {
		return err
	}
	if err := out.WriteChar(byte(m.Reg[R0])); err != nil {
		return err
	}
	return out.Flush()
}

func (m *Machine) puts(context.Context) error {
	out, err := m.output()
	if err != nil {
		return err
	}
	for addr := m.Reg[R0]; ; addr++ {
		c := m.Memory.Peek(addr)
		if c == 0 {
			break
		}
		if err := out.WriteChar(byte(c)); err != nil {
			return err
		}
	}
	return out.Flush()
}

func (m *Machine) in(ctx context.Context) error {
	out, err := m.output()
	if err != nil {
		return err
	}
	in, err := m.input()
	if err != nil {
		return err
	}
	for i := 0; i < len(inPrompt); i++ {
		if err := out.WriteChar(inPrompt[i]); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}
	c, err := in.ReadCharEcho(ctx)
	if err != nil {
		return err
	}
	m.Reg[R0] = Word(c)
	return out.Flush()
}

// putsp prints two characters per word, low byte first. A zero low byte
// ends the string; a zero high byte is skipped.
func (m *Machine) putsp(context.Context) error {
	out, err := m.output()
	if err != nil {
		return err
	}
	if m.compat {
		return nil
	}
	for addr := m.Reg[R0]; ; addr++ {
		word := m.Memory.Peek(addr)
		lo := byte(word)
		if lo == 0 {
			break
		}
		if err := out.WriteChar(lo); err != nil {
			return err
		}
		if hi := byte(word >> 8); hi != 0 {
			if err := out.WriteChar(hi); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}

func (m *Machine) halt(context.Context) error {
	m.log.Debug("halt", "steps", m.steps)
	m.running = false
	if m.term == nil {
		return nil
	}
	return m.term.Flush()
}
